// internal/workers/publisher.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
)

// reconcileUniqueTTL keeps a second manual reconciliation from queueing while one is pending
const reconcileUniqueTTL = 5 * time.Minute

// Enqueuer is the part of *asynq.Client the publisher uses
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqPublisher publishes domain events as asynq tasks
type AsynqPublisher struct {
	client   Enqueuer
	cache    ports.CacheRepository
	dedupTTL time.Duration
	logger   *slog.Logger
}

// Statically assert that *AsynqPublisher implements the EventPublisher interface.
var _ ports.EventPublisher = (*AsynqPublisher)(nil)

// NewAsynqPublisher creates a publisher. With a cache, an alert for the same
// item and status is sent at most once per dedupTTL.
func NewAsynqPublisher(client Enqueuer, cache ports.CacheRepository, dedupTTL time.Duration, logger *slog.Logger) *AsynqPublisher {
	return &AsynqPublisher{
		client:   client,
		cache:    cache,
		dedupTTL: dedupTTL,
		logger:   logger.With(slog.String("component", "publisher")),
	}
}

// PublishStockAlert enqueues a stock alert on the critical queue
func (p *AsynqPublisher) PublishStockAlert(ctx context.Context, alert domain.StockAlert) error {
	claimed := false
	if p.cache != nil && p.dedupTTL > 0 {
		first, err := p.cache.SetNX(ctx, AlertDedupKey(alert), alert.TransactionID.String(), p.dedupTTL)
		claimed = err == nil && first
		switch {
		case err != nil:
			p.logger.WarnContext(ctx, "alert dedup unavailable, publishing anyway",
				slog.String("item_id", alert.ItemID.String()),
				slog.String("error", err.Error()))
		case !first:
			p.logger.DebugContext(ctx, "stock alert suppressed",
				slog.String("item_id", alert.ItemID.String()),
				slog.String("status", string(alert.Status)))
			return nil
		}
	}

	task, err := NewStockAlertTask(alert)
	if err != nil {
		p.releaseDedup(ctx, alert, claimed)
		return err
	}

	info, err := p.client.EnqueueContext(ctx, task)
	if err != nil {
		p.releaseDedup(ctx, alert, claimed)
		return fmt.Errorf("failed to enqueue stock alert: %w", err)
	}

	p.logger.InfoContext(ctx, "stock alert enqueued",
		slog.String("task_id", info.ID),
		slog.String("item_id", alert.ItemID.String()),
		slog.String("status", string(alert.Status)))
	return nil
}

// releaseDedup drops the dedup key of an alert that never reached the queue,
// so the next transition can raise it again
func (p *AsynqPublisher) releaseDedup(ctx context.Context, alert domain.StockAlert, claimed bool) {
	if !claimed {
		return
	}
	if err := p.cache.Delete(ctx, AlertDedupKey(alert)); err != nil {
		p.logger.WarnContext(ctx, "failed to release alert dedup key",
			slog.String("item_id", alert.ItemID.String()),
			slog.String("error", err.Error()))
	}
}

// EnqueueReconciliation queues a ledger reconciliation and returns the task id
func (p *AsynqPublisher) EnqueueReconciliation(ctx context.Context) (string, error) {
	task, err := NewReconcileTask("api")
	if err != nil {
		return "", err
	}

	info, err := p.client.EnqueueContext(ctx, task, asynq.Unique(reconcileUniqueTTL))
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			return "", domain.NewConflictError("a ledger reconciliation is already queued")
		}
		return "", fmt.Errorf("failed to enqueue reconciliation: %w", err)
	}

	p.logger.InfoContext(ctx, "ledger reconciliation enqueued", slog.String("task_id", info.ID))
	return info.ID, nil
}
