// internal/core/domain/transaction.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransactionType is the kind of stock movement a transaction records
type TransactionType string

const (
	TransactionReceive  TransactionType = "receive"
	TransactionWithdraw TransactionType = "withdraw"
	TransactionTransfer TransactionType = "transfer"
	TransactionDispose  TransactionType = "dispose"
	TransactionAdjust   TransactionType = "adjust"
)

// AllTransactionTypes lists every type the processor accepts
var AllTransactionTypes = []TransactionType{
	TransactionReceive,
	TransactionWithdraw,
	TransactionTransfer,
	TransactionDispose,
	TransactionAdjust,
}

// IsValid reports whether t is a known transaction type
func (t TransactionType) IsValid() bool {
	for _, known := range AllTransactionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// MovementDirection is the sign of a ledger mutation
type MovementDirection string

const (
	DirectionIn  MovementDirection = "in"
	DirectionOut MovementDirection = "out"
)

// Transaction is an immutable record of stock moving into, out of, or
// between locations.
type Transaction struct {
	ID             uuid.UUID       `json:"id"`
	Type           TransactionType `json:"type"`
	ItemID         uuid.UUID       `json:"item_id"`
	Quantity       int             `json:"quantity"`
	FromLocationID *uuid.UUID      `json:"from_location_id,omitempty"`
	ToLocationID   *uuid.UUID      `json:"to_location_id,omitempty"`
	PerformedBy    uuid.UUID       `json:"performed_by"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	Movements      []StockMovement `json:"movements,omitempty"`
}

// PlannedMovement is one ledger mutation a transaction requires
type PlannedMovement struct {
	Key       EntryKey
	Direction MovementDirection
	Quantity  int
}

// Validate checks the shape of the transaction. Reference resolution
// happens in the processor.
func (t *Transaction) Validate() error {
	if !t.Type.IsValid() {
		return NewValidationError("type", fmt.Sprintf("must be one of %s", joinTypes()))
	}
	if t.ItemID == uuid.Nil {
		return NewValidationError("item_id", "is required")
	}
	if t.Quantity <= 0 {
		return NewValidationError("quantity", "must be positive")
	}
	if t.Quantity > MaxQuantity {
		return NewValidationError("quantity", fmt.Sprintf("must not exceed %d", MaxQuantity))
	}
	if t.PerformedBy == uuid.Nil {
		return NewValidationError("performed_by", "is required")
	}
	_, err := PlanMovements(t)
	return err
}

// PrepareForStorage assigns the id and timestamp
func (t *Transaction) PrepareForStorage() {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	t.Notes = strings.TrimSpace(t.Notes)
}

// LocationIDs returns the locations the transaction touches
func (t *Transaction) LocationIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, 2)
	if t.FromLocationID != nil {
		ids = append(ids, *t.FromLocationID)
	}
	if t.ToLocationID != nil {
		ids = append(ids, *t.ToLocationID)
	}
	return ids
}

// PlanMovements maps a transaction to its ledger mutations, in the order they
// must be applied. Every transaction type has an effect; an unknown type is
// an error rather than a silent no-op.
func PlanMovements(t *Transaction) ([]PlannedMovement, error) {
	out := func(loc uuid.UUID) PlannedMovement {
		return PlannedMovement{Key: EntryKey{ItemID: t.ItemID, LocationID: loc}, Direction: DirectionOut, Quantity: t.Quantity}
	}
	in := func(loc uuid.UUID) PlannedMovement {
		return PlannedMovement{Key: EntryKey{ItemID: t.ItemID, LocationID: loc}, Direction: DirectionIn, Quantity: t.Quantity}
	}

	switch t.Type {
	case TransactionReceive:
		if t.ToLocationID == nil {
			return nil, NewValidationError("to_location_id", "is required for receive")
		}
		return []PlannedMovement{in(*t.ToLocationID)}, nil

	case TransactionWithdraw, TransactionDispose:
		if t.FromLocationID == nil {
			return nil, NewValidationError("from_location_id", fmt.Sprintf("is required for %s", t.Type))
		}
		return []PlannedMovement{out(*t.FromLocationID)}, nil

	case TransactionTransfer:
		if t.FromLocationID == nil {
			return nil, NewValidationError("from_location_id", "is required for transfer")
		}
		if t.ToLocationID == nil {
			return nil, NewValidationError("to_location_id", "is required for transfer")
		}
		if *t.FromLocationID == *t.ToLocationID {
			return nil, NewValidationError("to_location_id", "must differ from from_location_id")
		}
		return []PlannedMovement{out(*t.FromLocationID), in(*t.ToLocationID)}, nil

	case TransactionAdjust:
		switch {
		case t.FromLocationID != nil && t.ToLocationID != nil:
			return nil, NewValidationError("", "adjust takes exactly one of from_location_id or to_location_id")
		case t.ToLocationID != nil:
			return []PlannedMovement{in(*t.ToLocationID)}, nil
		case t.FromLocationID != nil:
			return []PlannedMovement{out(*t.FromLocationID)}, nil
		default:
			return nil, NewValidationError("", "adjust takes exactly one of from_location_id or to_location_id")
		}
	}

	return nil, NewValidationError("type", fmt.Sprintf("unsupported transaction type %q", t.Type))
}

// TransactionFilter narrows transaction listings
type TransactionFilter struct {
	ItemID      *uuid.UUID
	LocationID  *uuid.UUID
	Type        TransactionType
	PerformedBy *uuid.UUID
	Since       *time.Time
	Until       *time.Time
	Limit       int
	Offset      int
}

func joinTypes() string {
	names := make([]string, len(AllTransactionTypes))
	for i, t := range AllTransactionTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
