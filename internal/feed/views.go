package feed

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"skillswipe/internal/database"
	"skillswipe/internal/jobs"
	"skillswipe/internal/profile"
)

// roleView 按账号角色组合发现流，开发者与公司各有一个实现。
type roleView interface {
	forMe(ctx context.Context, f jobs.Filter) (*Feed, error)
}

type developerView struct {
	db    *gorm.DB
	actor database.User
}

type companyView struct {
	db    *gorm.DB
	actor database.User
}

// forMe 返回未 swipe、未收藏、非本公司的 active 职位，附带匹配分。
func (v developerView) forMe(ctx context.Context, f jobs.Filter) (*Feed, error) {
	var dev *database.DeveloperProfile
	var p database.DeveloperProfile
	err := v.db.WithContext(ctx).Where("user_id = ?", v.actor.ID).First(&p).Error
	switch {
	case err == nil:
		dev = &p
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("load developer profile: %w", err)
	}

	swiped := v.db.Model(&database.SwipeAction{}).Select("job_post_id").
		Where("swiper_id = ? AND job_post_id IS NOT NULL", v.actor.ID)
	saved := v.db.Model(&database.WishlistEntry{}).Select("job_post_id").
		Where("user_id = ? AND job_post_id IS NOT NULL", v.actor.ID)
	own := v.db.Model(&database.CompanyMember{}).Select("company_id").Where("user_id = ?", v.actor.ID)

	q := v.db.WithContext(ctx).Model(&database.JobPosting{}).Preload("Company").
		Where("job_postings.status = ?", database.JobActive).
		Where("job_postings.id NOT IN (?)", swiped).
		Where("job_postings.id NOT IN (?)", saved).
		Where("job_postings.company_id NOT IN (?)", own)
	q = f.Apply(q)

	var list []database.JobPosting
	if err := q.Order("job_postings.created_at DESC").Order("job_postings.id DESC").
		Limit(feedLimit).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("load job feed: %w", err)
	}
	cards := jobs.NewCards(list, dev)
	return &Feed{Type: "jobs", Count: len(cards), Jobs: cards}, nil
}

// forMe 返回未 swipe、未收藏的活跃开发者。
func (v companyView) forMe(ctx context.Context, f jobs.Filter) (*Feed, error) {
	swiped := v.db.Model(&database.SwipeAction{}).Select("swiped_on_id").Where("swiper_id = ?", v.actor.ID)
	saved := v.db.Model(&database.WishlistEntry{}).Select("target_user_id").
		Where("user_id = ? AND target_user_id IS NOT NULL", v.actor.ID)

	q := v.db.WithContext(ctx).Model(&database.DeveloperProfile{}).Joins("User").
		Where(`"User".status = ? AND "User".role = ?`, database.UserActive, database.RoleDeveloper).
		Where("developer_profiles.user_id <> ?", v.actor.ID).
		Where("developer_profiles.user_id NOT IN (?)", swiped).
		Where("developer_profiles.user_id NOT IN (?)", saved)
	q = developerFilter(q, f)

	var list []database.DeveloperProfile
	if err := q.Order("developer_profiles.created_at DESC").Order("developer_profiles.id DESC").
		Limit(feedLimit).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("load developer feed: %w", err)
	}
	out := make([]profile.PublicDeveloper, 0, len(list))
	for _, p := range list {
		out = append(out, profile.NewPublicDeveloper(p))
	}
	return &Feed{Type: "developers", Count: len(out), Developers: out}, nil
}

// developerFilter 将职位筛选条件映射到开发者资料：
// location 匹配当前所在地或意向城市，experience 匹配年限区间，
// tech 匹配语言或工具，薪资条件与期望薪资区间求交。job_type 与 work_mode 不适用。
func developerFilter(q *gorm.DB, f jobs.Filter) *gorm.DB {
	if f.Location != "" {
		pattern := database.ContainsPattern(f.Location)
		q = q.Where("(LOWER(developer_profiles.current_location) LIKE ?"+database.LikeEscape+
			" OR LOWER(CAST(developer_profiles.top_two_cities AS TEXT)) LIKE ?"+database.LikeEscape+")", pattern, pattern)
	}
	if lo, hi, ok := f.Experience.YearsRange(); ok {
		q = q.Where("developer_profiles.experience_years BETWEEN ? AND ?", lo, hi)
	}
	if f.Tech != "" {
		pattern := database.JSONElementPattern(f.Tech)
		q = q.Where("(LOWER(CAST(developer_profiles.top_languages AS TEXT)) LIKE ?"+database.LikeEscape+
			" OR LOWER(CAST(developer_profiles.tools AS TEXT)) LIKE ?"+database.LikeEscape+")", pattern, pattern)
	}
	if f.MinSalary != nil {
		q = q.Where("developer_profiles.salary_expectation_max >= ?", *f.MinSalary)
	}
	if f.MaxSalary != nil {
		q = q.Where("developer_profiles.salary_expectation_min <= ?", *f.MaxSalary)
	}
	return q
}
