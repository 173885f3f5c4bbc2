// internal/core/domain/item.go
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemStatus represents the stock badge of an item
type ItemStatus string

// Item status constants
const (
	ItemStatusInStock      ItemStatus = "in_stock"
	ItemStatusLowStock     ItemStatus = "low_stock"
	ItemStatusOutOfStock   ItemStatus = "out_of_stock"
	ItemStatusDiscontinued ItemStatus = "discontinued"
)

// IsValid reports whether s is a known item status
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusInStock, ItemStatusLowStock, ItemStatusOutOfStock, ItemStatusDiscontinued:
		return true
	}
	return false
}

// IsAlerting reports whether s warrants a restock alert
func (s ItemStatus) IsAlerting() bool {
	return s == ItemStatusLowStock || s == ItemStatusOutOfStock
}

// EvaluateStatus derives the status of an item from its ledger total.
// A persisted discontinued status always wins.
func EvaluateStatus(total, minimumStock int, persisted ItemStatus) ItemStatus {
	if persisted == ItemStatusDiscontinued {
		return ItemStatusDiscontinued
	}
	switch {
	case total <= 0:
		return ItemStatusOutOfStock
	case total <= minimumStock:
		return ItemStatusLowStock
	default:
		return ItemStatusInStock
	}
}

// Item is a catalog entry whose stock is held in the ledger
type Item struct {
	ID            uuid.UUID       `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Manufacturer  string          `json:"manufacturer,omitempty"`
	CategoryID    *uuid.UUID      `json:"category_id,omitempty"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	MinimumStock  int             `json:"minimum_stock"`
	Status        ItemStatus      `json:"status"`
	TotalQuantity int             `json:"total_quantity"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     *time.Time      `json:"deleted_at,omitempty"`
}

// Validate performs domain validation on the item
func (i *Item) Validate() error {
	if strings.TrimSpace(i.SKU) == "" {
		return NewValidationError("sku", "is required")
	}
	if strings.TrimSpace(i.Name) == "" {
		return NewValidationError("name", "is required")
	}
	if i.UnitCost.IsNegative() {
		return NewValidationError("unit_cost", "cannot be negative")
	}
	if i.MinimumStock < 0 {
		return NewValidationError("minimum_stock", "cannot be negative")
	}
	if i.Status != "" && !i.Status.IsValid() {
		return NewValidationError("status", "is not a valid item status")
	}
	return nil
}

// PrepareForStorage fills defaults before the item is persisted
func (i *Item) PrepareForStorage() {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	i.SKU = strings.TrimSpace(i.SKU)
	i.Name = strings.TrimSpace(i.Name)
	// Only discontinued is meaningful at rest; everything else is derived on read.
	if i.Status != ItemStatusDiscontinued {
		i.Status = ItemStatusInStock
	}

	now := time.Now()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	i.UpdatedAt = now
}

// ApplyDerivedStatus replaces Status with the status evaluated from TotalQuantity
func (i *Item) ApplyDerivedStatus() {
	i.Status = EvaluateStatus(i.TotalQuantity, i.MinimumStock, i.Status)
}

// StockValue returns TotalQuantity valued at UnitCost
func (i *Item) StockValue() decimal.Decimal {
	return i.UnitCost.Mul(decimal.NewFromInt(int64(i.TotalQuantity)))
}
