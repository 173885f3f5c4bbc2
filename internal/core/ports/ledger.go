// internal/core/ports/ledger.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
)

// LedgerStore mutates (item, location) quantities. It is only reachable
// inside a unit of work.
type LedgerStore interface {
	// GetEntry returns nil when no row exists. Implementations lock the row
	// for the rest of the unit of work.
	GetEntry(ctx context.Context, key domain.EntryKey) (*domain.StockEntry, error)
	// Increment adds delta (> 0), creating the row if needed
	Increment(ctx context.Context, key domain.EntryKey, delta int) (domain.LedgerResult, error)
	// Decrement subtracts delta flooring at zero; a missing row is a no-op
	Decrement(ctx context.Context, key domain.EntryKey, delta int) (domain.LedgerResult, error)
	ItemTotal(ctx context.Context, itemID uuid.UUID) (int, error)
}

// TransactionWriter appends a transaction and its movement journal
type TransactionWriter interface {
	Save(ctx context.Context, tx *domain.Transaction) error
}

// TxScope exposes the stores bound to one unit of work
type TxScope interface {
	Ledger() LedgerStore
	Transactions() TransactionWriter
}

// UnitOfWork runs fn atomically: either every write inside it commits or none does
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, scope TxScope) error) error
}

// ReconciliationSource snapshots ledger quantities and net journaled deltas
type ReconciliationSource interface {
	Snapshot(ctx context.Context) (ledger, journal map[domain.EntryKey]int, err error)
}
