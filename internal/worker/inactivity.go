package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"skillswipe/internal/database"
	"skillswipe/internal/tasks"
)

// InactivitySweepHandler 将长期未活动的账号标记为 inactive，使其退出发现流。
type InactivitySweepHandler struct {
	db          *gorm.DB
	logger      *slog.Logger
	defaultDays int
	now         func() time.Time
}

func NewInactivitySweepHandler(db *gorm.DB, logger *slog.Logger, defaultDays int) *InactivitySweepHandler {
	return &InactivitySweepHandler{db: db, logger: logger, defaultDays: defaultDays, now: time.Now}
}

// ProcessTask 实现 asynq.Handler。
func (h *InactivitySweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	days := h.defaultDays
	if len(t.Payload()) > 0 {
		var payload tasks.InactivitySweepPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		if payload.InactivityDays > 0 {
			days = payload.InactivityDays
		}
	}

	n, err := h.Sweep(ctx, days)
	if err != nil {
		h.logger.Error("inactivity sweep failed", slog.Any("error", err))
		return err
	}
	h.logger.Info("inactivity sweep finished", slog.Int("days", days), slog.Int64("deactivated", n))
	return nil
}

// Sweep 返回被标记为 inactive 的账号数量。新注册、尚无活动记录的账号按创建时间计算。
func (h *InactivitySweepHandler) Sweep(ctx context.Context, days int) (int64, error) {
	cutoff := h.now().AddDate(0, 0, -days)
	res := h.db.WithContext(ctx).Model(&database.User{}).
		Where("status = ? AND last_activity_at < ? AND created_at < ?", database.UserActive, cutoff, cutoff).
		Update("status", database.UserInactive)
	if res.Error != nil {
		return 0, fmt.Errorf("mark inactive users: %w", res.Error)
	}
	return res.RowsAffected, nil
}
