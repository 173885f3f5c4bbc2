// internal/adapters/memory/store.go
package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
)

// ErrClosed is returned once the store has been shut down
var ErrClosed = errors.New("memory store is closed")

// command is a unit of work executed on the store goroutine
type command struct {
	fn    func(*state) error
	reply chan error
}

// state is only ever touched by the store goroutine
type state struct {
	items        map[uuid.UUID]domain.Item
	locations    map[uuid.UUID]domain.Location
	categories   map[uuid.UUID]domain.Category
	users        map[uuid.UUID]domain.User
	entries      map[domain.EntryKey]*domain.StockEntry
	entryIDs     map[uuid.UUID]domain.EntryKey
	transactions []domain.Transaction
	txIndex      map[uuid.UUID]int
}

func newState() *state {
	return &state{
		items:      make(map[uuid.UUID]domain.Item),
		locations:  make(map[uuid.UUID]domain.Location),
		categories: make(map[uuid.UUID]domain.Category),
		users:      make(map[uuid.UUID]domain.User),
		entries:    make(map[domain.EntryKey]*domain.StockEntry),
		entryIDs:   make(map[uuid.UUID]domain.EntryKey),
		txIndex:    make(map[uuid.UUID]int),
	}
}

// Store is an in-process backend for every repository port. A single
// goroutine owns the data and runs commands one at a time, so a unit of work
// is serialized against every other read and write.
type Store struct {
	commands  chan command
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// Statically assert that *Store implements the unit of work and reconciliation ports.
var (
	_ ports.UnitOfWork           = (*Store)(nil)
	_ ports.ReconciliationSource = (*Store)(nil)
)

// NewStore starts the store goroutine
func NewStore(logger *slog.Logger) *Store {
	s := &Store{
		commands: make(chan command),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.With(slog.String("repository", "memory")),
	}
	go s.loop(newState())
	return s
}

func (s *Store) loop(st *state) {
	defer close(s.done)
	for {
		select {
		case cmd := <-s.commands:
			cmd.reply <- run(st, cmd.fn)
		case <-s.quit:
			return
		}
	}
}

func run(st *state, fn func(*state) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("memory store command panicked: %v", r)
		}
	}()
	return fn(st)
}

// exec hands fn to the store goroutine. Once a command is accepted its
// outcome is always reported, even if ctx ends while it runs.
func (s *Store) exec(ctx context.Context, fn func(*state) error) error {
	reply := make(chan error, 1)
	select {
	case s.commands <- command{fn: fn, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
	return <-reply
}

// Close stops the store goroutine
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.done
}

// Ping reports whether the store goroutine is alive
func (s *Store) Ping(ctx context.Context) error {
	return s.exec(ctx, func(*state) error { return nil })
}

// Health mirrors the shape of the database health report
func (s *Store) Health(ctx context.Context) map[string]interface{} {
	health := map[string]interface{}{"status": "healthy", "backend": "memory"}
	err := s.exec(ctx, func(st *state) error {
		health["items"] = len(st.items)
		health["stock_entries"] = len(st.entries)
		health["transactions"] = len(st.transactions)
		return nil
	})
	if err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
	}
	return health
}

// WithinTx runs fn on the store goroutine. Every ledger and journal write
// made through scope is undone if fn fails or panics. fn must only use the
// scope; calling other store methods from inside it would deadlock.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, scope ports.TxScope) error) error {
	return s.exec(ctx, func(st *state) error {
		scope := &txScope{st: st}
		defer func() {
			if r := recover(); r != nil {
				scope.rollback()
				panic(r)
			}
		}()

		if err := fn(ctx, scope); err != nil {
			scope.rollback()
			if n := len(scope.undo); n > 0 {
				s.logger.DebugContext(ctx, "unit of work rolled back", slog.Int("undone", n))
			}
			return err
		}
		return nil
	})
}

// Snapshot reads ledger quantities and net journal deltas in one step
func (s *Store) Snapshot(ctx context.Context) (map[domain.EntryKey]int, map[domain.EntryKey]int, error) {
	ledger := make(map[domain.EntryKey]int)
	journal := make(map[domain.EntryKey]int)

	err := s.exec(ctx, func(st *state) error {
		for key, e := range st.entries {
			ledger[key] = e.Quantity
		}
		for _, tx := range st.transactions {
			for _, m := range tx.Movements {
				journal[domain.EntryKey{ItemID: m.ItemID, LocationID: m.LocationID}] += m.Delta
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return ledger, journal, nil
}

// Items returns the item repository view of the store
func (s *Store) Items() ports.ItemRepository { return &itemRepository{s} }

// Locations returns the location repository view of the store
func (s *Store) Locations() ports.LocationRepository { return &locationRepository{s} }

// Categories returns the category repository view of the store
func (s *Store) Categories() ports.CategoryRepository { return &categoryRepository{s} }

// Users returns the user repository view of the store
func (s *Store) Users() ports.UserRepository { return &userRepository{s} }

// Entries returns the read-side ledger repository view of the store
func (s *Store) Entries() ports.StockEntryRepository { return &entryRepository{s} }

// Transactions returns the transaction repository view of the store
func (s *Store) Transactions() ports.TransactionRepository { return &transactionRepository{s} }

func (st *state) itemTotal(itemID uuid.UUID) int {
	total := 0
	for key, e := range st.entries {
		if key.ItemID == itemID {
			total += e.Quantity
		}
	}
	return total
}

func (st *state) liveItem(id uuid.UUID) (domain.Item, bool) {
	item, ok := st.items[id]
	if !ok || item.DeletedAt != nil {
		return domain.Item{}, false
	}
	return item, true
}
