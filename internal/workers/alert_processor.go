// internal/workers/alert_processor.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
)

// AlertProcessor delivers stock alerts. Delivery is a structured log line.
type AlertProcessor struct {
	stock  ports.StockService
	logger *slog.Logger
}

// NewAlertProcessor creates a new alert processor. stock may be nil, in which
// case alerts are delivered without re-checking the current status.
func NewAlertProcessor(stock ports.StockService, logger *slog.Logger) *AlertProcessor {
	return &AlertProcessor{
		stock:  stock,
		logger: logger.With(slog.String("processor", "stock_alert")),
	}
}

// HandleStockAlert processes a stock:alert task
func (p *AlertProcessor) HandleStockAlert(ctx context.Context, t *asynq.Task) error {
	var alert domain.StockAlert
	if err := json.Unmarshal(t.Payload(), &alert); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	if p.stock != nil {
		current, err := p.stock.ItemStock(ctx, alert.ItemID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			p.logger.InfoContext(ctx, "stock alert dropped, item no longer exists",
				slog.String("item_id", alert.ItemID.String()))
			return nil
		case err != nil:
			return fmt.Errorf("failed to load item stock: %w", err)
		case !current.Status.IsAlerting():
			p.logger.InfoContext(ctx, "stock alert resolved before delivery",
				slog.String("item_id", alert.ItemID.String()),
				slog.String("alert_status", string(alert.Status)),
				slog.String("current_status", string(current.Status)))
			return nil
		default:
			alert.Status = current.Status
			alert.TotalQuantity = current.TotalQuantity
		}
	}

	p.logger.WarnContext(ctx, "stock alert",
		slog.String("item_id", alert.ItemID.String()),
		slog.String("sku", alert.SKU),
		slog.String("name", alert.Name),
		slog.String("status", string(alert.Status)),
		slog.String("previous_status", string(alert.PreviousStatus)),
		slog.Int("total_quantity", alert.TotalQuantity),
		slog.Int("minimum_stock", alert.MinimumStock),
		slog.String("transaction_id", alert.TransactionID.String()),
		slog.Time("raised_at", alert.RaisedAt))

	return nil
}
