// Package swipe 记录单向意向，并据此推导双向匹配。
package swipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"skillswipe/internal/database"
	"skillswipe/internal/errcode"
	"skillswipe/internal/metrics"
	"skillswipe/internal/profile"
	"skillswipe/internal/target"
)

// MatchNotifier 接收每个新建匹配的通知。
type MatchNotifier interface {
	NotifyMatch(ctx context.Context, match database.Match) error
}

// Result 是一次 swipe 的结果。
type Result struct {
	Swipe        database.SwipeAction
	Match        *database.Match
	MatchCreated bool
}

type Service struct {
	db       *gorm.DB
	notifier MatchNotifier
	logger   *slog.Logger
}

// NewService 构造 swipe 服务，notifier 可为 nil。
func NewService(db *gorm.DB, notifier MatchNotifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, notifier: notifier, logger: logger}
}

// Swipe 校验并记录 actor 对 t 的 swipe，然后执行匹配检测。
func (s *Service) Swipe(ctx context.Context, actorID string, t target.Target) (*Result, error) {
	result, err := s.swipe(ctx, actorID, t)
	if err != nil {
		if kind, ok := errcode.KindOf(err); ok {
			metrics.ObserveSwipeRejected(kind.String())
		}
		return nil, err
	}
	return result, nil
}

func (s *Service) swipe(ctx context.Context, actorID string, t target.Target) (*Result, error) {
	actor, err := profile.LoadUser(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}

	action, err := s.resolve(ctx, actor, t)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&action).Error; err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return nil, errcode.Wrap(errcode.KindConflict, "you have already swiped on this item", err)
		case database.IsCheckViolation(err):
			return nil, errcode.Wrap(errcode.KindValidation, "invalid swipe", err)
		}
		return nil, fmt.Errorf("create swipe: %w", err)
	}
	metrics.ObserveSwipe(string(action.SwipeType))

	found, err := s.detect(ctx, actor.Role, action)
	if err != nil {
		return nil, err
	}
	result := &Result{Swipe: action}
	for i := range found {
		d := found[i]
		if d.Created {
			s.notify(ctx, d.Match)
		}
		// 响应中优先展示本次新建的匹配。
		if result.Match == nil || (d.Created && !result.MatchCreated) {
			result.Match = &found[i].Match
			result.MatchCreated = d.Created
		}
	}
	return result, nil
}

// resolve 校验目标并构造 swipe 记录，swiped_on 为实际对方：
// profile swipe 为目标用户，职位 swipe 为职位创建者。
func (s *Service) resolve(ctx context.Context, actor database.User, t target.Target) (database.SwipeAction, error) {
	action := database.SwipeAction{
		SwiperID:  actor.ID,
		SwipeType: t.SwipeType(),
		DedupeKey: t.Key(),
	}

	switch t := t.(type) {
	case target.ProfileTarget:
		if t.UserID == actor.ID {
			return action, errcode.Validation("cannot swipe on yourself")
		}
		other, err := profile.LoadUser(ctx, s.db, t.UserID)
		if err != nil {
			return action, err
		}
		if !other.IsActive() {
			return action, errcode.NotFound("target user not found or inactive")
		}
		if other.Role == actor.Role {
			return action, errcode.Permission("cannot swipe on users with the same role")
		}
		action.SwipedOnID = other.ID

	case target.JobTarget:
		if actor.Role != database.RoleDeveloper {
			return action, errcode.Permission("only developers can swipe on jobs")
		}
		var job database.JobPosting
		err := s.db.WithContext(ctx).Where("id = ? AND status = ?", t.JobID, database.JobActive).First(&job).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return action, errcode.NotFound("job posting not found or inactive")
		}
		if err != nil {
			return action, fmt.Errorf("load job: %w", err)
		}
		if job.CreatedByID == actor.ID {
			return action, errcode.Validation("cannot swipe on your own job")
		}
		action.SwipedOnID = job.CreatedByID
		action.JobPostID = &job.ID
	}
	return action, nil
}

func (s *Service) notify(ctx context.Context, match database.Match) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyMatch(ctx, match); err != nil {
		s.logger.Error("match notification failed",
			slog.String("match_id", match.ID),
			slog.Any("error", err),
		)
	}
}
