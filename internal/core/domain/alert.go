// internal/core/domain/alert.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// StockAlert is raised when a committed transaction moves an item into an
// alerting status.
type StockAlert struct {
	ItemID         uuid.UUID  `json:"item_id"`
	SKU            string     `json:"sku"`
	Name           string     `json:"name"`
	Status         ItemStatus `json:"status"`
	PreviousStatus ItemStatus `json:"previous_status"`
	TotalQuantity  int        `json:"total_quantity"`
	MinimumStock   int        `json:"minimum_stock"`
	TransactionID  uuid.UUID  `json:"transaction_id"`
	RaisedAt       time.Time  `json:"raised_at"`
}

// ShouldAlert reports whether moving from prev to next warrants an alert
func ShouldAlert(prev, next ItemStatus) bool {
	return next != prev && next.IsAlerting()
}
