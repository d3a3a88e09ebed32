package feed

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"skillswipe/internal/database"
	"skillswipe/internal/jobs"
	"skillswipe/internal/profile"
)

// SwipeEntry 是 showed_interest 与 my_swipes 中的一项。
type SwipeEntry struct {
	SwipeID   string             `json:"swipe_id"`
	SwipeType database.SwipeType `json:"swipe_type"`
	Timestamp time.Time          `json:"timestamp"`
	User      Counterparty       `json:"user"`
	Job       *jobs.Card         `json:"job,omitempty"`
}

// MatchEntry 是 matches 中的一项。
type MatchEntry struct {
	MatchID   string               `json:"match_id"`
	Status    database.MatchStatus `json:"status"`
	MatchedAt time.Time            `json:"matched_at"`
	User      Counterparty         `json:"user"`
	Job       *jobs.Card           `json:"job,omitempty"`
}

// Stats 汇总 actor 的 swipe 与匹配数据。
type Stats struct {
	TotalSwipesMade     int64    `json:"total_swipes_made"`
	TotalSwipesReceived int64    `json:"total_swipes_received"`
	TotalMatches        int64    `json:"total_matches"`
	ActiveMatches       int64    `json:"active_matches"`
	ProfileCompletion   int      `json:"profile_completion"`
	NextStep            string   `json:"next_step"`
	RecentActivity      []string `json:"recent_activity"`
}

// ShowedInterest 返回 swipe 过 actor、但 actor 尚未回应的用户。
// 同一用户既有 profile swipe 又有职位 swipe 时只保留最近一条。
func (s *Service) ShowedInterest(ctx context.Context, actorID string) ([]SwipeEntry, error) {
	if _, err := profile.LoadUser(ctx, s.db, actorID); err != nil {
		return nil, err
	}
	reciprocated := s.db.Model(&database.SwipeAction{}).Select("swiped_on_id").Where("swiper_id = ?", actorID)

	var swipes []database.SwipeAction
	if err := s.db.WithContext(ctx).Preload("JobPost.Company").
		Where("swiped_on_id = ? AND swiper_id NOT IN (?)", actorID, reciprocated).
		Order("created_at DESC").Order("id DESC").
		Find(&swipes).Error; err != nil {
		return nil, fmt.Errorf("load received swipes: %w", err)
	}
	return s.swipeEntries(ctx, latestPerSwiper(swipes), func(sw database.SwipeAction) string { return sw.SwiperID })
}

// latestPerSwiper 要求 swipes 已按时间倒序，保留每个 swiper 的第一条，最多 tabLimit 条。
func latestPerSwiper(swipes []database.SwipeAction) []database.SwipeAction {
	seen := make(map[string]struct{}, len(swipes))
	out := make([]database.SwipeAction, 0, len(swipes))
	for _, sw := range swipes {
		if _, dup := seen[sw.SwiperID]; dup {
			continue
		}
		seen[sw.SwiperID] = struct{}{}
		out = append(out, sw)
		if len(out) == tabLimit {
			break
		}
	}
	return out
}

// MySwipes 返回 actor 的 swipe 记录，只保留对方仍活跃且职位仍开放的项。
func (s *Service) MySwipes(ctx context.Context, actorID string) ([]SwipeEntry, error) {
	if _, err := profile.LoadUser(ctx, s.db, actorID); err != nil {
		return nil, err
	}
	activeUsers := s.db.Model(&database.User{}).Select("id").Where("status = ?", database.UserActive)
	activeJobs := s.db.Model(&database.JobPosting{}).Select("id").Where("status = ?", database.JobActive)

	var swipes []database.SwipeAction
	if err := s.db.WithContext(ctx).Preload("JobPost.Company").
		Where("swiper_id = ?", actorID).
		Where("swiped_on_id IN (?)", activeUsers).
		Where("(job_post_id IS NULL OR job_post_id IN (?))", activeJobs).
		Order("created_at DESC").Order("id DESC").
		Limit(tabLimit).
		Find(&swipes).Error; err != nil {
		return nil, fmt.Errorf("load swipes: %w", err)
	}
	return s.swipeEntries(ctx, swipes, func(sw database.SwipeAction) string { return sw.SwipedOnID })
}

func (s *Service) swipeEntries(ctx context.Context, swipes []database.SwipeAction, other func(database.SwipeAction) string) ([]SwipeEntry, error) {
	ids := make([]string, 0, len(swipes))
	for _, sw := range swipes {
		ids = append(ids, other(sw))
	}
	users, err := counterparties(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	out := make([]SwipeEntry, 0, len(swipes))
	for _, sw := range swipes {
		cp, ok := users[other(sw)]
		if !ok {
			continue
		}
		out = append(out, SwipeEntry{
			SwipeID:   sw.ID,
			SwipeType: sw.SwipeType,
			Timestamp: sw.CreatedAt,
			User:      cp,
			Job:       card(sw.JobPost),
		})
	}
	return out, nil
}

// Matches 返回 actor 的 active 匹配。对方资料无法解析时跳过该项。
func (s *Service) Matches(ctx context.Context, actorID string) ([]MatchEntry, error) {
	if _, err := profile.LoadUser(ctx, s.db, actorID); err != nil {
		return nil, err
	}
	var matches []database.Match
	if err := s.db.WithContext(ctx).Preload("JobPost.Company").
		Where("(user1_id = ? OR user2_id = ?) AND status = ?", actorID, actorID, database.MatchActive).
		Order("matched_at DESC").Order("id DESC").
		Limit(tabLimit).
		Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("load matches: %w", err)
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.OtherUserID(actorID))
	}
	users, err := counterparties(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	out := make([]MatchEntry, 0, len(matches))
	for _, m := range matches {
		cp, ok := users[m.OtherUserID(actorID)]
		if !ok || !cp.hasProfile() {
			continue
		}
		out = append(out, MatchEntry{
			MatchID:   m.ID,
			Status:    m.Status,
			MatchedAt: m.MatchedAt,
			User:      cp,
			Job:       card(m.JobPost),
		})
	}
	return out, nil
}

// Stats 返回 actor 的统计数据与近 7 天动态。
func (s *Service) Stats(ctx context.Context, actorID string) (*Stats, error) {
	actor, err := profile.LoadUser(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}
	status, err := profile.NewService(s.db).StatusFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	stats := &Stats{ProfileCompletion: status.Completion, NextStep: status.NextStep}

	db := s.db.WithContext(ctx)
	swipes := func() *gorm.DB { return db.Model(&database.SwipeAction{}) }
	matches := func() *gorm.DB {
		return db.Model(&database.Match{}).Where("(user1_id = ? OR user2_id = ?)", actorID, actorID)
	}
	since := s.now().AddDate(0, 0, -recentDays)

	var recentSwipes, recentMatches int64
	counts := []struct {
		q   *gorm.DB
		dst *int64
	}{
		{swipes().Where("swiper_id = ?", actorID), &stats.TotalSwipesMade},
		{swipes().Where("swiped_on_id = ?", actorID), &stats.TotalSwipesReceived},
		{matches(), &stats.TotalMatches},
		{matches().Where("status = ?", database.MatchActive), &stats.ActiveMatches},
		{swipes().Where("(swiper_id = ? OR swiped_on_id = ?) AND created_at >= ?", actorID, actorID, since), &recentSwipes},
		{matches().Where("matched_at >= ?", since), &recentMatches},
	}
	for _, c := range counts {
		if err := c.q.Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("count stats: %w", err)
		}
	}

	stats.RecentActivity = []string{
		fmt.Sprintf("%d swipes this week", recentSwipes),
		fmt.Sprintf("%d new matches this week", recentMatches),
	}
	return stats, nil
}

func card(job *database.JobPosting) *jobs.Card {
	if job == nil {
		return nil
	}
	c := jobs.NewCard(*job, nil)
	return &c
}
