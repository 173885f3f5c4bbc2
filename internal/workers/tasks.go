// internal/workers/tasks.go
package workers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
)

// Task types
const (
	TypeStockAlert      = "stock:alert"
	TypeLedgerReconcile = "ledger:reconcile"
)

// Queue names
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// ReconcilePayload is the payload of a ledger reconciliation task. It carries
// no timestamp so identical requests collapse under asynq.Unique.
type ReconcilePayload struct {
	RequestedBy string `json:"requested_by"`
}

// NewStockAlertTask builds a stock alert task
func NewStockAlertTask(alert domain.StockAlert) (*asynq.Task, error) {
	payload, err := json.Marshal(alert)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stock alert: %w", err)
	}
	return asynq.NewTask(TypeStockAlert, payload,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	), nil
}

// NewReconcileTask builds a ledger reconciliation task
func NewReconcileTask(requestedBy string) (*asynq.Task, error) {
	payload, err := json.Marshal(ReconcilePayload{RequestedBy: requestedBy})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reconcile payload: %w", err)
	}
	return asynq.NewTask(TypeLedgerReconcile, payload,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
	), nil
}

// AlertDedupKey is the cache key guarding repeated alerts for one item and status
func AlertDedupKey(alert domain.StockAlert) string {
	return fmt.Sprintf("alert:%s:%s", alert.ItemID, alert.Status)
}
