// internal/core/domain/stock.go
package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// MaxQuantity bounds any single quantity, matching the INTEGER ledger columns
const MaxQuantity = math.MaxInt32

// EntryStatus flags an item-location row
type EntryStatus string

const (
	EntryStatusInStock EntryStatus = "in_stock"
	EntryStatusOrdered EntryStatus = "ordered"
)

// IsValid reports whether s is a known entry status
func (s EntryStatus) IsValid() bool {
	return s == EntryStatusInStock || s == EntryStatusOrdered
}

// StockEntry is the ledger row holding the quantity of one item at one location.
// There is at most one entry per (item, location) and Quantity is never negative.
type StockEntry struct {
	ID         uuid.UUID   `json:"id"`
	ItemID     uuid.UUID   `json:"item_id"`
	LocationID uuid.UUID   `json:"location_id"`
	Quantity   int         `json:"quantity"`
	Status     EntryStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// EntryKey identifies a ledger row
type EntryKey struct {
	ItemID     uuid.UUID
	LocationID uuid.UUID
}

// Less orders keys so concurrent writers always lock rows in the same sequence
func (k EntryKey) Less(o EntryKey) bool {
	if k.ItemID != o.ItemID {
		return k.ItemID.String() < o.ItemID.String()
	}
	return k.LocationID.String() < o.LocationID.String()
}

// OverdrawPolicy decides what happens when a decrement exceeds the stock on hand
type OverdrawPolicy string

const (
	// OverdrawReject fails the whole transaction with InsufficientStockError
	OverdrawReject OverdrawPolicy = "reject"
	// OverdrawClamp floors the quantity at zero and reports the clamp
	OverdrawClamp OverdrawPolicy = "clamp"
)

// ParseOverdrawPolicy parses a configured policy name
func ParseOverdrawPolicy(s string) (OverdrawPolicy, error) {
	switch OverdrawPolicy(s) {
	case OverdrawReject, "":
		return OverdrawReject, nil
	case OverdrawClamp:
		return OverdrawClamp, nil
	}
	return "", fmt.Errorf("unknown overdraw policy %q", s)
}

// Ledger result reasons
const (
	ReasonNoEntry = "no_entry"
	ReasonClamped = "clamped"
)

// LedgerResult reports the outcome of a single ledger mutation
type LedgerResult struct {
	ItemID     uuid.UUID         `json:"item_id"`
	LocationID uuid.UUID         `json:"location_id"`
	Direction  MovementDirection `json:"direction"`
	Applied    bool              `json:"applied"`
	Requested  int               `json:"requested"`
	Moved      int               `json:"moved"`
	Before     int               `json:"before"`
	After      int               `json:"after"`
	Clamped    bool              `json:"clamped"`
	Reason     string            `json:"reason,omitempty"`
}

// IncrementResult describes a successful increment from before by delta
func IncrementResult(key EntryKey, before, delta int) LedgerResult {
	return LedgerResult{
		ItemID:     key.ItemID,
		LocationID: key.LocationID,
		Direction:  DirectionIn,
		Applied:    true,
		Requested:  delta,
		Moved:      delta,
		Before:     before,
		After:      before + delta,
	}
}

// DecrementResult describes a decrement of delta against an entry holding
// before units. found is false when no entry exists, which is a no-op.
func DecrementResult(key EntryKey, before, delta int, found bool) LedgerResult {
	res := LedgerResult{
		ItemID:     key.ItemID,
		LocationID: key.LocationID,
		Direction:  DirectionOut,
		Requested:  delta,
	}
	if !found {
		res.Reason = ReasonNoEntry
		return res
	}

	res.Applied = true
	res.Before = before
	res.Moved = min(delta, before)
	res.After = before - res.Moved
	if res.Moved < delta {
		res.Clamped = true
		res.Reason = ReasonClamped
	}
	return res
}

// Delta returns the signed change applied to the entry
func (r LedgerResult) Delta() int {
	if r.Direction == DirectionOut {
		return -r.Moved
	}
	return r.Moved
}

// StockMovement is the journal row written for every ledger mutation
type StockMovement struct {
	ID             uuid.UUID `json:"id"`
	TransactionID  uuid.UUID `json:"transaction_id"`
	ItemID         uuid.UUID `json:"item_id"`
	LocationID     uuid.UUID `json:"location_id"`
	Delta          int       `json:"delta"`
	Requested      int       `json:"requested"`
	QuantityBefore int       `json:"quantity_before"`
	QuantityAfter  int       `json:"quantity_after"`
	Clamped        bool      `json:"clamped"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewStockMovement journals res under transaction txID
func NewStockMovement(txID uuid.UUID, res LedgerResult, at time.Time) StockMovement {
	return StockMovement{
		ID:             uuid.New(),
		TransactionID:  txID,
		ItemID:         res.ItemID,
		LocationID:     res.LocationID,
		Delta:          res.Delta(),
		Requested:      res.Requested,
		QuantityBefore: res.Before,
		QuantityAfter:  res.After,
		Clamped:        res.Clamped,
		CreatedAt:      at,
	}
}

// ItemStock is the aggregate view of an item across locations
type ItemStock struct {
	ItemID        uuid.UUID    `json:"item_id"`
	SKU           string       `json:"sku"`
	Name          string       `json:"name"`
	TotalQuantity int          `json:"total_quantity"`
	MinimumStock  int          `json:"minimum_stock"`
	Status        ItemStatus   `json:"status"`
	Entries       []StockEntry `json:"entries"`
}

// TotalQuantity sums entry quantities
func TotalQuantity(entries []StockEntry) int {
	total := 0
	for _, e := range entries {
		total += e.Quantity
	}
	return total
}
