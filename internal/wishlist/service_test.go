package wishlist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillswipe/internal/database"
	"skillswipe/internal/errcode"
	"skillswipe/internal/target"
	"skillswipe/internal/testutil"
)

func TestAdd_JobByDeveloper(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)

	dev, _ := testutil.CreateDeveloper(t, db)
	owner, company := testutil.CreateCompany(t, db)
	job := testutil.CreateJob(t, db, company, owner)

	entry, err := svc.Add(ctx, dev.ID, target.JobTarget{JobID: job.ID})
	require.NoError(t, err)
	require.NotNil(t, entry.JobPostID)
	assert.Equal(t, job.ID, *entry.JobPostID)
	assert.Nil(t, entry.TargetUserID)

	_, err = svc.Add(ctx, dev.ID, target.JobTarget{JobID: job.ID})
	assert.True(t, errcode.Is(err, errcode.KindConflict))

	var count int64
	require.NoError(t, db.Model(&database.WishlistEntry{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAdd_Rules(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)

	dev, _ := testutil.CreateDeveloper(t, db)
	otherDev, _ := testutil.CreateDeveloper(t, db)
	owner, company := testutil.CreateCompany(t, db)
	closed := testutil.CreateJob(t, db, company, owner, func(j *database.JobPosting) {
		j.Status = database.JobClosed
	})
	inactive := testutil.CreateUser(t, db, database.RoleDeveloper, func(u *database.User) {
		u.Status = database.UserInactive
	})

	tests := []struct {
		name  string
		actor string
		t     target.Target
		kind  errcode.Kind
	}{
		{"closed job", dev.ID, target.JobTarget{JobID: closed.ID}, errcode.KindNotFound},
		{"missing job", dev.ID, target.JobTarget{JobID: "missing"}, errcode.KindNotFound},
		{"company saves job", owner.ID, target.JobTarget{JobID: closed.ID}, errcode.KindPermission},
		{"developer saves profile", dev.ID, target.ProfileTarget{UserID: otherDev.ID}, errcode.KindPermission},
		{"company saves itself", owner.ID, target.ProfileTarget{UserID: owner.ID}, errcode.KindValidation},
		{"company saves inactive user", owner.ID, target.ProfileTarget{UserID: inactive.ID}, errcode.KindNotFound},
		{"company saves company", owner.ID, target.ProfileTarget{UserID: testutil.CreateUser(t, db, database.RoleCompany).ID}, errcode.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(ctx, tt.actor, tt.t)
			require.Error(t, err)
			assert.True(t, errcode.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestListRemoveClear(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)

	dev, devProfile := testutil.CreateDeveloper(t, db)
	owner, company := testutil.CreateCompany(t, db)
	job := testutil.CreateJob(t, db, company, owner)

	_, err := svc.Add(ctx, dev.ID, target.JobTarget{JobID: job.ID})
	require.NoError(t, err)
	saved, err := svc.Add(ctx, owner.ID, target.ProfileTarget{UserID: dev.ID})
	require.NoError(t, err)

	items, err := svc.List(ctx, dev.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, database.SwipeJob, items[0].Type)
	require.NotNil(t, items[0].Job)
	assert.Equal(t, company.Name, items[0].Job.CompanyName)

	items, err = svc.List(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, dev.ID, items[0].TargetUserID)
	require.NotNil(t, items[0].Developer)
	assert.Equal(t, devProfile.Name, items[0].Developer.Name)

	err = svc.Remove(ctx, dev.ID, saved.ID)
	assert.True(t, errcode.Is(err, errcode.KindNotFound), "cannot remove someone else's entry")
	require.NoError(t, svc.Remove(ctx, owner.ID, saved.ID))

	n, err := svc.Clear(ctx, dev.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	items, err = svc.List(ctx, dev.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
