// internal/core/ports/events.go
package ports

import (
	"context"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
)

// EventPublisher hands work to the background worker
type EventPublisher interface {
	PublishStockAlert(ctx context.Context, alert domain.StockAlert) error
	EnqueueReconciliation(ctx context.Context) (string, error)
}

// ReportArchiver stores reconciliation reports and returns the object key
type ReportArchiver interface {
	Archive(ctx context.Context, report *domain.ReconciliationReport) (string, error)
}
