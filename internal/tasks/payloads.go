package tasks

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"skillswipe/internal/database"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeMatchNotify         = "match:notify"
	TypeUserInactivitySweep = "user:inactivity_sweep"
)

// MatchNotifyPayload 描述一次新建匹配，用于通知双方。
type MatchNotifyPayload struct {
	MatchID       string  `json:"match_id"`
	User1ID       string  `json:"user1_id"`
	User2ID       string  `json:"user2_id"`
	JobPostID     *string `json:"job_post_id,omitempty"`
	CorrelationID string  `json:"correlation_id"`
}

// NewMatchNotifyTask 构造匹配通知任务。
func NewMatchNotifyTask(m database.Match, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(MatchNotifyPayload{
		MatchID:       m.ID,
		User1ID:       m.User1ID,
		User2ID:       m.User2ID,
		JobPostID:     m.JobPostID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeMatchNotify, payload), nil
}

// InactivitySweepPayload 指定超过多少天未活动的账号会被标记为 inactive。
type InactivitySweepPayload struct {
	InactivityDays int `json:"inactivity_days"`
}

// NewInactivitySweepTask 构造不活跃账号清理任务。
func NewInactivitySweepTask(days int) (*asynq.Task, error) {
	payload, err := json.Marshal(InactivitySweepPayload{InactivityDays: days})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeUserInactivitySweep, payload), nil
}

type correlationIDKey struct{}

// WithCorrelationID 将 Correlation ID 写入 context，入队时随任务一起传递。
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromContext 取出 WithCorrelationID 写入的值。
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}
