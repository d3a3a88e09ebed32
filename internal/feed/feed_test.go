package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"skillswipe/internal/database"
	"skillswipe/internal/errcode"
	"skillswipe/internal/jobs"
	"skillswipe/internal/testutil"
)

func addSwipe(t *testing.T, db *gorm.DB, swiper, swipedOn string, job *database.JobPosting) database.SwipeAction {
	t.Helper()
	sw := database.SwipeAction{
		SwiperID:   swiper,
		SwipedOnID: swipedOn,
		SwipeType:  database.SwipeProfile,
		DedupeKey:  "profile:" + swipedOn,
	}
	if job != nil {
		sw.SwipeType = database.SwipeJob
		sw.JobPostID = &job.ID
		sw.DedupeKey = "job:" + job.ID
	}
	require.NoError(t, db.Create(&sw).Error)
	return sw
}

func addMatch(t *testing.T, db *gorm.DB, a, b string, job *database.JobPosting) database.Match {
	t.Helper()
	if b < a {
		a, b = b, a
	}
	m := database.Match{User1ID: a, User2ID: b, Status: database.MatchActive}
	if job != nil {
		m.JobPostID = &job.ID
		m.JobContextKey = job.ID
	}
	require.NoError(t, db.Create(&m).Error)
	return m
}

func jobIDs(cards []jobs.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

func TestParseTab(t *testing.T) {
	tab, err := ParseTab("")
	require.NoError(t, err)
	assert.Equal(t, TabForMe, tab)

	tab, err = ParseTab("matches")
	require.NoError(t, err)
	assert.Equal(t, TabMatches, tab)

	_, err = ParseTab("inbox")
	assert.True(t, errcode.Is(err, errcode.KindValidation))
}

func TestDiscover_DeveloperExclusions(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)

	dev, _ := testutil.CreateDeveloper(t, db)
	owner, company := testutil.CreateCompany(t, db)
	swiped := testutil.CreateJob(t, db, company, owner)
	saved := testutil.CreateJob(t, db, company, owner)
	testutil.CreateJob(t, db, company, owner, func(j *database.JobPosting) { j.Status = database.JobClosed })
	fresh := testutil.CreateJob(t, db, company, owner)

	addSwipe(t, db, dev.ID, owner.ID, &swiped)
	require.NoError(t, db.Create(&database.WishlistEntry{
		UserID: dev.ID, JobPostID: &saved.ID, TargetKey: "job:" + saved.ID,
	}).Error)

	feed, err := svc.Discover(ctx, dev.ID, jobs.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "jobs", feed.Type)
	assert.Equal(t, []string{fresh.ID}, jobIDs(feed.Jobs))
	require.NotNil(t, feed.Jobs[0].MatchScore)
	assert.Equal(t, company.Name, feed.Jobs[0].CompanyName)
}

func TestDiscover_DeveloperCapAndOrder(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)

	dev, _ := testutil.CreateDeveloper(t, db)
	owner, company := testutil.CreateCompany(t, db)
	base := time.Now().Add(-24 * time.Hour)
	var newest database.JobPosting
	for i := 0; i < feedLimit+2; i++ {
		newest = testutil.CreateJob(t, db, company, owner, func(j *database.JobPosting) {
			j.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		})
	}

	feed, err := svc.Discover(ctx, dev.ID, jobs.Filter{})
	require.NoError(t, err)
	assert.Len(t, feed.Jobs, feedLimit)
	assert.Equal(t, feedLimit, feed.Count)
	assert.Equal(t, newest.ID, feed.Jobs[0].ID)
}

func TestDiscover_DeveloperFilters(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)

	dev, _ := testutil.CreateDeveloper(t, db)
	owner, company := testutil.CreateCompany(t, db)
	munich := testutil.CreateJob(t, db, company, owner, func(j *database.JobPosting) {
		j.Location = "Munich"
		j.WorkMode = database.WorkOnsite
		j.TechStack = datatypes.JSONSlice[string]{"Rust"}
	})
	testutil.CreateJob(t, db, company, owner)

	feed, err := svc.Discover(ctx, dev.ID, jobs.Filter{Location: "munich"})
	require.NoError(t, err)
	assert.Equal(t, []string{munich.ID}, jobIDs(feed.Jobs))

	feed, err = svc.Discover(ctx, dev.ID, jobs.Filter{Tech: "rust", WorkMode: database.WorkOnsite})
	require.NoError(t, err)
	assert.Equal(t, []string{munich.ID}, jobIDs(feed.Jobs))

	_, err = svc.Discover(ctx, dev.ID, jobs.Filter{JobType: "gig"})
	assert.True(t, errcode.Is(err, errcode.KindValidation))
}

func TestDiscover_CompanySeesDevelopers(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)

	owner, _ := testutil.CreateCompany(t, db)
	swiped, _ := testutil.CreateDeveloper(t, db)
	saved, _ := testutil.CreateDeveloper(t, db)
	inactive, _ := testutil.CreateDeveloper(t, db)
	require.NoError(t, db.Model(&inactive).Update("status", database.UserInactive).Error)
	senior, seniorProfile := testutil.CreateDeveloper(t, db, func(p *database.DeveloperProfile) {
		p.ExperienceYears = testutil.IntPtr(7)
		p.CurrentLocation = "Lisbon"
		p.Tools = datatypes.JSONSlice[string]{"docker"}
	})
	_, juniorProfile := testutil.CreateDeveloper(t, db, func(p *database.DeveloperProfile) {
		p.ExperienceYears = testutil.IntPtr(1)
		p.TopTwoCities = datatypes.JSONSlice[string]{"Lisbon"}
	})

	addSwipe(t, db, owner.ID, swiped.ID, nil)
	require.NoError(t, db.Create(&database.WishlistEntry{
		UserID: owner.ID, TargetUserID: &saved.ID, TargetKey: "profile:" + saved.ID,
	}).Error)

	feed, err := svc.Discover(ctx, owner.ID, jobs.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "developers", feed.Type)
	var ids []string
	for _, d := range feed.Developers {
		ids = append(ids, d.ID)
	}
	assert.ElementsMatch(t, []string{seniorProfile.ID, juniorProfile.ID}, ids)

	feed, err = svc.Discover(ctx, owner.ID, jobs.Filter{Location: "lisbon"})
	require.NoError(t, err)
	assert.Len(t, feed.Developers, 2)

	feed, err = svc.Discover(ctx, owner.ID, jobs.Filter{Experience: database.ExperienceSenior, Tech: "Docker"})
	require.NoError(t, err)
	require.Len(t, feed.Developers, 1)
	assert.Equal(t, senior.ID, feed.Developers[0].UserID)
}

func TestShowedInterest_ExcludesReciprocated(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)

	dev, _ := testutil.CreateDeveloper(t, db)
	owner, company := testutil.CreateCompany(t, db)
	job := testutil.CreateJob(t, db, company, owner)

	addSwipe(t, db, owner.ID, dev.ID, nil)

	items, err := svc.ShowedInterest(ctx, dev.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, owner.ID, items[0].User.UserID)
	require.NotNil(t, items[0].User.Company)
	assert.Equal(t, company.Name, items[0].User.Company.Name)

	addSwipe(t, db, dev.ID, owner.ID, &job)

	items, err = svc.ShowedInterest(ctx, dev.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = svc.ShowedInterest(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, items, "the company already swiped on the developer")
}

func TestMySwipes_DropsClosedJobsAndInactiveUsers(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)

	dev, _ := testutil.CreateDeveloper(t, db)
	owner, company := testutil.CreateCompany(t, db)
	open := testutil.CreateJob(t, db, company, owner)
	closed := testutil.CreateJob(t, db, company, owner)
	addSwipe(t, db, dev.ID, owner.ID, &open)
	addSwipe(t, db, dev.ID, owner.ID, &closed)
	require.NoError(t, db.Model(&closed).Update("status", database.JobClosed).Error)

	items, err := svc.MySwipes(ctx, dev.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Job)
	assert.Equal(t, open.ID, items[0].Job.ID)

	require.NoError(t, db.Model(&owner).Update("status", database.UserInactive).Error)
	items, err = svc.MySwipes(ctx, dev.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	var count int64
	require.NoError(t, db.Model(&database.SwipeAction{}).Count(&count).Error)
	assert.EqualValues(t, 2, count, "the swipe log is untouched")
}

func TestMatches_SkipsUnresolvableCounterparty(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)

	owner, company := testutil.CreateCompany(t, db)
	job := testutil.CreateJob(t, db, company, owner)
	dev, _ := testutil.CreateDeveloper(t, db)
	gone, goneProfile := testutil.CreateDeveloper(t, db)

	addMatch(t, db, owner.ID, dev.ID, &job)
	addMatch(t, db, owner.ID, gone.ID, nil)
	require.NoError(t, db.Delete(&goneProfile).Error)

	items, err := svc.Matches(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, dev.ID, items[0].User.UserID)
	require.NotNil(t, items[0].User.Developer)
	require.NotNil(t, items[0].Job)
	assert.Equal(t, job.ID, items[0].Job.ID)

	items, err = svc.Matches(ctx, dev.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].User.Company)
	assert.Equal(t, company.ID, items[0].User.Company.ID)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)

	dev, _ := testutil.CreateDeveloper(t, db)
	owner, company := testutil.CreateCompany(t, db)
	job := testutil.CreateJob(t, db, company, owner)

	addSwipe(t, db, dev.ID, owner.ID, &job)
	addSwipe(t, db, owner.ID, dev.ID, nil)
	addMatch(t, db, dev.ID, owner.ID, &job)
	archived := addMatch(t, db, dev.ID, owner.ID, nil)
	require.NoError(t, db.Model(&archived).Update("status", database.MatchArchived).Error)

	stats, err := svc.Stats(ctx, dev.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalSwipesMade)
	assert.EqualValues(t, 1, stats.TotalSwipesReceived)
	assert.EqualValues(t, 2, stats.TotalMatches)
	assert.EqualValues(t, 1, stats.ActiveMatches)
	assert.Equal(t, 80, stats.ProfileCompletion)
	assert.Equal(t, []string{"2 swipes this week", "2 new matches this week"}, stats.RecentActivity)

	svc.now = func() time.Time { return time.Now().AddDate(0, 0, 30) }
	stats, err = svc.Stats(ctx, dev.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"0 swipes this week", "0 new matches this week"}, stats.RecentActivity)
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)

	dev, _ := testutil.CreateDeveloper(t, db)
	owner, company := testutil.CreateCompany(t, db)
	testutil.CreateJob(t, db, company, owner)

	page, err := svc.Dashboard(ctx, dev.ID, TabForMe, jobs.Filter{})
	require.NoError(t, err)
	assert.Equal(t, TabForMe, page.Tab)
	assert.Equal(t, 1, page.Count)

	page, err = svc.Dashboard(ctx, dev.ID, TabStats, jobs.Filter{})
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Nil(t, page.Results)

	_, err = svc.Dashboard(ctx, "missing", TabMatches, jobs.Filter{})
	assert.True(t, errcode.Is(err, errcode.KindNotFound))
}

func TestShowedInterest_OneEntryPerSwiper(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)

	dev, _ := testutil.CreateDeveloper(t, db)
	owner, company := testutil.CreateCompany(t, db)
	job := testutil.CreateJob(t, db, company, owner)

	profileSwipe := addSwipe(t, db, dev.ID, owner.ID, nil)
	jobSwipe := addSwipe(t, db, dev.ID, owner.ID, &job)
	require.NoError(t, db.Model(&profileSwipe).Update("created_at", time.Now().Add(-time.Hour)).Error)

	items, err := svc.ShowedInterest(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, dev.ID, items[0].User.UserID)
	assert.Equal(t, jobSwipe.ID, items[0].SwipeID, "the most recent swipe is kept")
	require.NotNil(t, items[0].Job)
	assert.Equal(t, job.ID, items[0].Job.ID)
}
