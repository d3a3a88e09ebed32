package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"skillswipe/internal/database"
	"skillswipe/internal/tasks"
)

// 统一的 WebSocket 消息协议（通过 Redis Pub/Sub 转发给前端）。
// 注意：这里的字段名与前端解析保持一致。
type MatchNotifyMessage struct {
	Type          string  `json:"type"`
	MatchID       string  `json:"match_id"`
	OtherUserID   string  `json:"other_user_id"`
	JobPostID     *string `json:"job_post_id,omitempty"`
	JobTitle      string  `json:"job_title,omitempty"`
	CorrelationID string  `json:"correlation_id"`
}

// MessageTypeMatchCreated 是新匹配事件的 type。
const MessageTypeMatchCreated = "match_created"

// Publisher 是 *redis.Client 的子集。
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// NotifyChannel 返回用户的通知频道名。
func NotifyChannel(userID string) string {
	return "user_notify:" + userID
}

// MatchNotifyHandler 消费 match:notify 任务，向匹配双方推送消息。
type MatchNotifyHandler struct {
	db        *gorm.DB
	publisher Publisher
	logger    *slog.Logger
}

func NewMatchNotifyHandler(db *gorm.DB, publisher Publisher, logger *slog.Logger) *MatchNotifyHandler {
	return &MatchNotifyHandler{db: db, publisher: publisher, logger: logger}
}

// ProcessTask 实现 asynq.Handler。
func (h *MatchNotifyHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.MatchNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("match_id", payload.MatchID),
	)

	var match database.Match
	err := h.db.WithContext(ctx).Preload("JobPost").First(&match, "id = ?", payload.MatchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn("match not found, skipping task")
		return nil
	}
	if err != nil {
		log.Error("query match failed", slog.Any("error", err))
		return err
	}

	jobTitle := ""
	if match.JobPost != nil {
		jobTitle = match.JobPost.Title
	}
	for _, userID := range []string{match.User1ID, match.User2ID} {
		msg := MatchNotifyMessage{
			Type:          MessageTypeMatchCreated,
			MatchID:       match.ID,
			OtherUserID:   match.OtherUserID(userID),
			JobPostID:     match.JobPostID,
			JobTitle:      jobTitle,
			CorrelationID: payload.CorrelationID,
		}
		if err := h.publish(ctx, userID, msg); err != nil {
			log.Error("publish match notification failed", slog.String("user_id", userID), slog.Any("error", err))
			return err
		}
	}

	log.Info("match notification published")
	return nil
}

func (h *MatchNotifyHandler) publish(ctx context.Context, userID string, msg MatchNotifyMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := NotifyChannel(userID)
	if err := h.publisher.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}
