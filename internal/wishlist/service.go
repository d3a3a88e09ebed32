// Package wishlist 保存稍后查看的职位（开发者）与开发者资料（公司），不参与匹配检测。
package wishlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"skillswipe/internal/database"
	"skillswipe/internal/errcode"
	"skillswipe/internal/jobs"
	"skillswipe/internal/profile"
	"skillswipe/internal/target"
)

// Item 是解析后用于展示的收藏项。
type Item struct {
	ID           string                   `json:"id"`
	Type         database.SwipeType       `json:"type"`
	Job          *jobs.Card               `json:"job,omitempty"`
	TargetUserID string                   `json:"target_user_id,omitempty"`
	Developer    *profile.PublicDeveloper `json:"developer,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Add 为 actor 收藏 t。
func (s *Service) Add(ctx context.Context, actorID string, t target.Target) (*database.WishlistEntry, error) {
	actor, err := profile.LoadUser(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}

	entry := database.WishlistEntry{UserID: actorID, TargetKey: t.Key()}
	switch t := t.(type) {
	case target.JobTarget:
		if actor.Role != database.RoleDeveloper {
			return nil, errcode.Permission("only developers can save job postings")
		}
		var job database.JobPosting
		err := s.db.WithContext(ctx).Where("id = ? AND status = ?", t.JobID, database.JobActive).First(&job).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.NotFound("job posting not found or not active")
		}
		if err != nil {
			return nil, fmt.Errorf("load job: %w", err)
		}
		entry.JobPostID = &job.ID
	case target.ProfileTarget:
		if t.UserID == actorID {
			return nil, errcode.Validation("cannot add yourself to your wishlist")
		}
		if actor.Role != database.RoleCompany {
			return nil, errcode.Permission("only companies can save developer profiles")
		}
		other, err := profile.LoadUser(ctx, s.db, t.UserID)
		if err != nil {
			return nil, err
		}
		if !other.IsActive() {
			return nil, errcode.NotFound("user not found")
		}
		if other.Role != database.RoleDeveloper {
			return nil, errcode.Validation("only developer profiles can be saved")
		}
		entry.TargetUserID = &other.ID
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errcode.Wrap(errcode.KindConflict, "already in your wishlist", err)
		}
		return nil, fmt.Errorf("create wishlist entry: %w", err)
	}
	return &entry, nil
}

// List 按时间倒序返回 actor 的收藏。
func (s *Service) List(ctx context.Context, actorID string) ([]Item, error) {
	var entries []database.WishlistEntry
	if err := s.db.WithContext(ctx).
		Preload("JobPost.Company").
		Where("user_id = ?", actorID).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}

	var userIDs []string
	for _, e := range entries {
		if e.TargetUserID != nil {
			userIDs = append(userIDs, *e.TargetUserID)
		}
	}
	devs := map[string]database.DeveloperProfile{}
	if len(userIDs) > 0 {
		var profiles []database.DeveloperProfile
		if err := s.db.WithContext(ctx).Preload("User").Where("user_id IN ?", userIDs).Find(&profiles).Error; err != nil {
			return nil, fmt.Errorf("load wishlist profiles: %w", err)
		}
		for _, p := range profiles {
			devs[p.UserID] = p
		}
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		item := Item{ID: e.ID, CreatedAt: e.CreatedAt}
		switch {
		case e.JobPost != nil:
			card := jobs.NewCard(*e.JobPost, nil)
			item.Type = database.SwipeJob
			item.Job = &card
		case e.TargetUserID != nil:
			item.Type = database.SwipeProfile
			item.TargetUserID = *e.TargetUserID
			if p, ok := devs[*e.TargetUserID]; ok {
				view := profile.NewPublicDeveloper(p)
				item.Developer = &view
			}
		default:
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Remove 删除 actor 的一条收藏。
func (s *Service) Remove(ctx context.Context, actorID, entryID string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", entryID, actorID).Delete(&database.WishlistEntry{})
	if res.Error != nil {
		return fmt.Errorf("delete wishlist entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errcode.NotFound("wishlist entry not found")
	}
	return nil
}

// Clear 清空 actor 的收藏并返回删除条数。
func (s *Service) Clear(ctx context.Context, actorID string) (int64, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", actorID).Delete(&database.WishlistEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("clear wishlist: %w", res.Error)
	}
	return res.RowsAffected, nil
}
