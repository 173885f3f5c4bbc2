// internal/workers/reconciliation_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stocktrack-be/internal/core/ports"
)

// ReconciliationProcessor runs ledger reconciliation tasks
type ReconciliationProcessor struct {
	service ports.ReconciliationService
	logger  *slog.Logger
}

// NewReconciliationProcessor creates a new reconciliation processor
func NewReconciliationProcessor(service ports.ReconciliationService, logger *slog.Logger) *ReconciliationProcessor {
	return &ReconciliationProcessor{
		service: service,
		logger:  logger.With(slog.String("processor", "reconciliation")),
	}
}

// HandleReconcile processes a ledger:reconcile task
func (p *ReconciliationProcessor) HandleReconcile(ctx context.Context, t *asynq.Task) error {
	var payload ReconcilePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	start := time.Now()
	report, err := p.service.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to reconcile ledger: %w", err)
	}

	p.logger.InfoContext(ctx, "reconciliation task finished",
		slog.String("requested_by", payload.RequestedBy),
		slog.String("report_id", report.ID.String()),
		slog.Int("drifts", len(report.Drifts)),
		slog.Duration("duration", time.Since(start)))

	return nil
}

// NewServeMux registers the task handlers
func NewServeMux(alerts *AlertProcessor, reconciliation *ReconciliationProcessor) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeStockAlert, alerts.HandleStockAlert)
	mux.HandleFunc(TypeLedgerReconcile, reconciliation.HandleReconcile)
	return mux
}
