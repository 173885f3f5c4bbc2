// internal/adapters/memory/ledger.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
)

// txScope binds the ledger and journal to one unit of work and records how
// to undo each write.
type txScope struct {
	st   *state
	undo []func()
}

func (t *txScope) Ledger() ports.LedgerStore             { return (*ledgerStore)(t) }
func (t *txScope) Transactions() ports.TransactionWriter { return (*transactionWriter)(t) }

func (t *txScope) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

type ledgerStore txScope

func (l *ledgerStore) GetEntry(_ context.Context, key domain.EntryKey) (*domain.StockEntry, error) {
	e, ok := l.st.entries[key]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (l *ledgerStore) Increment(_ context.Context, key domain.EntryKey, delta int) (domain.LedgerResult, error) {
	if delta <= 0 {
		return domain.LedgerResult{}, fmt.Errorf("increment delta must be positive, got %d", delta)
	}
	if delta > domain.MaxQuantity {
		return domain.LedgerResult{}, domain.NewValidationError("quantity", fmt.Sprintf("must not exceed %d", domain.MaxQuantity))
	}

	now := time.Now().UTC()
	if e, ok := l.st.entries[key]; ok {
		if e.Quantity > domain.MaxQuantity-delta {
			return domain.LedgerResult{}, domain.NewValidationError("quantity",
				fmt.Sprintf("stock at this location would exceed %d", domain.MaxQuantity))
		}
		before, updated := e.Quantity, e.UpdatedAt
		e.Quantity += delta
		e.UpdatedAt = now
		l.undo = append(l.undo, func() { e.Quantity, e.UpdatedAt = before, updated })
		return domain.IncrementResult(key, before, delta), nil
	}

	if _, ok := l.st.items[key.ItemID]; !ok {
		return domain.LedgerResult{}, domain.NewValidationError("", "stock entry references a missing item")
	}
	if _, ok := l.st.locations[key.LocationID]; !ok {
		return domain.LedgerResult{}, domain.NewValidationError("", "stock entry references a missing location")
	}

	e := &domain.StockEntry{
		ID:         uuid.New(),
		ItemID:     key.ItemID,
		LocationID: key.LocationID,
		Quantity:   delta,
		Status:     domain.EntryStatusInStock,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	l.st.entries[key] = e
	l.st.entryIDs[e.ID] = key
	l.undo = append(l.undo, func() {
		delete(l.st.entries, key)
		delete(l.st.entryIDs, e.ID)
	})
	return domain.IncrementResult(key, 0, delta), nil
}

func (l *ledgerStore) Decrement(_ context.Context, key domain.EntryKey, delta int) (domain.LedgerResult, error) {
	if delta <= 0 {
		return domain.LedgerResult{}, fmt.Errorf("decrement delta must be positive, got %d", delta)
	}

	e, ok := l.st.entries[key]
	if !ok {
		return domain.DecrementResult(key, 0, delta, false), nil
	}

	res := domain.DecrementResult(key, e.Quantity, delta, true)
	before, updated := e.Quantity, e.UpdatedAt
	e.Quantity = res.After
	e.UpdatedAt = time.Now().UTC()
	l.undo = append(l.undo, func() { e.Quantity, e.UpdatedAt = before, updated })
	return res, nil
}

func (l *ledgerStore) ItemTotal(_ context.Context, itemID uuid.UUID) (int, error) {
	return l.st.itemTotal(itemID), nil
}

type transactionWriter txScope

func (w *transactionWriter) Save(_ context.Context, tx *domain.Transaction) error {
	if _, dup := w.st.txIndex[tx.ID]; dup {
		return domain.NewConflictError("transaction already exists")
	}
	if _, ok := w.st.items[tx.ItemID]; !ok {
		return domain.NewValidationError("", "transaction references a missing item")
	}
	if _, ok := w.st.users[tx.PerformedBy]; !ok {
		return domain.NewValidationError("", "transaction references a missing user")
	}
	for _, id := range tx.LocationIDs() {
		if _, ok := w.st.locations[id]; !ok {
			return domain.NewValidationError("", "transaction references a missing location")
		}
	}

	w.st.txIndex[tx.ID] = len(w.st.transactions)
	w.st.transactions = append(w.st.transactions, copyTransaction(*tx))
	w.undo = append(w.undo, func() {
		w.st.transactions = w.st.transactions[:len(w.st.transactions)-1]
		delete(w.st.txIndex, tx.ID)
	})
	return nil
}

// entryRepository implements ports.StockEntryRepository
type entryRepository struct{ s *Store }

func (r *entryRepository) List(ctx context.Context, filter domain.EntryFilter) ([]domain.StockEntry, error) {
	out := []domain.StockEntry{}
	err := r.s.exec(ctx, func(st *state) error {
		for key, e := range st.entries {
			if filter.ItemID != nil && key.ItemID != *filter.ItemID {
				continue
			}
			if filter.LocationID != nil && key.LocationID != *filter.LocationID {
				continue
			}
			out = append(out, *e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		return domain.EntryKey{ItemID: out[i].ItemID, LocationID: out[i].LocationID}.
			Less(domain.EntryKey{ItemID: out[j].ItemID, LocationID: out[j].LocationID})
	})
	return out, nil
}

func (r *entryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.StockEntry, error) {
	var entry domain.StockEntry
	err := r.s.exec(ctx, func(st *state) error {
		key, ok := st.entryIDs[id]
		if !ok {
			return domain.NewNotFoundError("stock entry", id)
		}
		entry = *st.entries[key]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *entryRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.EntryStatus) (*domain.StockEntry, error) {
	if !status.IsValid() {
		return nil, domain.NewValidationError("", "stock entry violates item_locations_status_check")
	}

	var entry domain.StockEntry
	err := r.s.exec(ctx, func(st *state) error {
		key, ok := st.entryIDs[id]
		if !ok {
			return domain.NewNotFoundError("stock entry", id)
		}
		e := st.entries[key]
		e.Status = status
		e.UpdatedAt = time.Now().UTC()
		entry = *e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *entryRepository) LocationTotal(ctx context.Context, locationID uuid.UUID) (int, error) {
	total := 0
	err := r.s.exec(ctx, func(st *state) error {
		for key, e := range st.entries {
			if key.LocationID == locationID {
				total += e.Quantity
			}
		}
		return nil
	})
	return total, err
}

// transactionRepository implements ports.TransactionRepository
type transactionRepository struct{ s *Store }

func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := r.s.exec(ctx, func(st *state) error {
		i, ok := st.txIndex[id]
		if !ok {
			return domain.NewNotFoundError("transaction", id)
		}
		tx = copyTransaction(st.transactions[i])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// List returns matches newest first. A zero Limit returns every match.
func (r *transactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int64, error) {
	var matches []domain.Transaction
	err := r.s.exec(ctx, func(st *state) error {
		for _, tx := range st.transactions {
			if matchesTransaction(tx, filter) {
				tx.Movements = nil
				matches = append(matches, tx)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID.String() < matches[j].ID.String()
	})

	return paginate(matches, filter.Limit, filter.Offset), int64(len(matches)), nil
}

func matchesTransaction(tx domain.Transaction, f domain.TransactionFilter) bool {
	if f.ItemID != nil && tx.ItemID != *f.ItemID {
		return false
	}
	if f.LocationID != nil {
		from := tx.FromLocationID != nil && *tx.FromLocationID == *f.LocationID
		to := tx.ToLocationID != nil && *tx.ToLocationID == *f.LocationID
		if !from && !to {
			return false
		}
	}
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.PerformedBy != nil && tx.PerformedBy != *f.PerformedBy {
		return false
	}
	if f.Since != nil && tx.CreatedAt.Before(*f.Since) {
		return false
	}
	if f.Until != nil && !tx.CreatedAt.Before(*f.Until) {
		return false
	}
	return true
}

func copyTransaction(tx domain.Transaction) domain.Transaction {
	if tx.Movements != nil {
		tx.Movements = append([]domain.StockMovement(nil), tx.Movements...)
	}
	return tx
}

func paginate[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}
