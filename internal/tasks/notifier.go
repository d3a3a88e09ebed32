package tasks

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"skillswipe/internal/database"
)

// Enqueuer 是 *asynq.Client 的子集。
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// MatchNotifier 将新匹配投递为 match:notify 任务。
type MatchNotifier struct {
	client Enqueuer
}

func NewMatchNotifier(client Enqueuer) *MatchNotifier {
	return &MatchNotifier{client: client}
}

// NotifyMatch 入队通知任务；同一匹配只会入队一次。
func (n *MatchNotifier) NotifyMatch(ctx context.Context, m database.Match) error {
	task, err := NewMatchNotifyTask(m, CorrelationIDFromContext(ctx))
	if err != nil {
		return fmt.Errorf("build match notify task: %w", err)
	}
	if _, err := n.client.EnqueueContext(ctx, task, asynq.MaxRetry(5), asynq.TaskID("match-notify:"+m.ID)); err != nil {
		return fmt.Errorf("enqueue match notify: %w", err)
	}
	return nil
}
