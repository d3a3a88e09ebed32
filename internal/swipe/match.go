package swipe

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"skillswipe/internal/database"
	"skillswipe/internal/metrics"
)

// Rule 标识产生匹配的互选规则。
type Rule string

const (
	// RuleJobInterest: 开发者的职位 swipe 被职位创建者的 profile swipe 回应。
	RuleJobInterest Rule = "job_interest"
	// RuleCompanyInterest: 公司的 profile swipe 回应开发者此前的职位 swipe。
	RuleCompanyInterest Rule = "company_interest"
	// RuleReverse: 存在方向完全相反的 swipe。
	RuleReverse Rule = "reverse"
)

// NormalizePair 将两个用户 ID 排序，较小者在前。
func NormalizePair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// reciprocity 是一条命中的互选规则及其职位上下文。
type reciprocity struct {
	rule  Rule
	jobID *string
}

// Detected 是一次检测得到的匹配。
type Detected struct {
	Match   database.Match
	Created bool
	Rule    Rule
}

// DetectMatch 检查 sw 是否被回应，命中时获取或创建匹配，返回首个匹配（有职位上下文者优先）。
// 重复调用是安全的：已存在的匹配以 created=false 返回。
func (s *Service) DetectMatch(ctx context.Context, swiperRole database.Role, sw database.SwipeAction) (*database.Match, bool, error) {
	found, err := s.detect(ctx, swiperRole, sw)
	if err != nil || len(found) == 0 {
		return nil, false, err
	}
	return &found[0].Match, found[0].Created, nil
}

// detect 对每条命中的规则获取或创建匹配。
// 结果只取决于已存在的 swipe 集合，与到达顺序无关：
// 开发者与公司账号之间，双方 profile swipe 产生无职位匹配，职位 swipe 加公司 profile swipe 产生该职位的匹配。
func (s *Service) detect(ctx context.Context, swiperRole database.Role, sw database.SwipeAction) ([]Detected, error) {
	hits, err := s.reciprocal(ctx, swiperRole, sw)
	if err != nil {
		return nil, err
	}

	out := make([]Detected, 0, len(hits))
	for _, hit := range hits {
		match, created, err := getOrCreateMatch(ctx, s.db, sw.SwiperID, sw.SwipedOnID, hit.jobID)
		if err != nil {
			return nil, err
		}
		if created {
			metrics.ObserveMatchCreated(string(hit.rule))
			s.logger.Info("match created",
				"match_id", match.ID,
				"rule", hit.rule,
				"user1_id", match.User1ID,
				"user2_id", match.User2ID,
			)
		}
		out = append(out, Detected{Match: *match, Created: created, Rule: hit.rule})
	}
	return out, nil
}

// reciprocal 返回命中的规则与对应的职位上下文，有职位上下文者在前。
// 公司侧只看发往该公司账号本人的职位 swipe，同公司其他成员发布的职位不计入。
func (s *Service) reciprocal(ctx context.Context, swiperRole database.Role, sw database.SwipeAction) ([]reciprocity, error) {
	db := s.db.WithContext(ctx)
	reverseProfile := func() *gorm.DB {
		return db.Where("swiper_id = ? AND swiped_on_id = ? AND swipe_type = ?",
			sw.SwipedOnID, sw.SwiperID, database.SwipeProfile)
	}

	switch {
	case swiperRole == database.RoleDeveloper && sw.SwipeType == database.SwipeJob:
		found, err := exists(reverseProfile())
		if err != nil || !found {
			return nil, err
		}
		return []reciprocity{{rule: RuleJobInterest, jobID: sw.JobPostID}}, nil

	case swiperRole == database.RoleCompany && sw.SwipeType == database.SwipeProfile:
		var hits []reciprocity
		var latest database.SwipeAction
		err := db.Where("swiper_id = ? AND swiped_on_id = ? AND swipe_type = ? AND job_post_id IS NOT NULL",
			sw.SwipedOnID, sw.SwiperID, database.SwipeJob).
			Order("created_at DESC").Order("id DESC").
			First(&latest).Error
		switch {
		case err == nil:
			hits = append(hits, reciprocity{rule: RuleCompanyInterest, jobID: latest.JobPostID})
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("load job swipe: %w", err)
		}
		// 开发者也 swipe 过公司账号本身时，另有一个无职位上下文的匹配。
		found, err := exists(reverseProfile())
		if err != nil {
			return nil, err
		}
		if found {
			hits = append(hits, reciprocity{rule: RuleReverse})
		}
		return hits, nil

	default:
		found, err := exists(db.Where("swiper_id = ? AND swiped_on_id = ?", sw.SwipedOnID, sw.SwiperID))
		if err != nil || !found {
			return nil, err
		}
		return []reciprocity{{rule: RuleReverse, jobID: sw.JobPostID}}, nil
	}
}

func exists(q *gorm.DB) (bool, error) {
	var count int64
	if err := q.Model(&database.SwipeAction{}).Limit(1).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check reverse swipe: %w", err)
	}
	return count > 0, nil
}

// getOrCreateMatch 以单条忽略冲突的 INSERT 按规范化的 (user1, user2, job) 键获取或创建匹配，
// 并发检测同一对用户时只会留下一行。
func getOrCreateMatch(ctx context.Context, db *gorm.DB, a, b string, jobID *string) (*database.Match, bool, error) {
	user1, user2 := NormalizePair(a, b)
	key := ""
	if jobID != nil {
		key = *jobID
	}

	match := database.Match{
		User1ID:       user1,
		User2ID:       user2,
		JobPostID:     jobID,
		JobContextKey: key,
		Status:        database.MatchActive,
	}
	res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&match)
	if res.Error != nil {
		return nil, false, fmt.Errorf("create match: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return &match, true, nil
	}

	var existing database.Match
	if err := db.WithContext(ctx).
		Where("user1_id = ? AND user2_id = ? AND job_context_key = ?", user1, user2, key).
		First(&existing).Error; err != nil {
		return nil, false, fmt.Errorf("load existing match: %w", err)
	}
	return &existing, false, nil
}
