package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stocktrack-be/internal/adapters/memory"
	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
	"github.com/ammerola/stocktrack-be/internal/core/services"
	"github.com/ammerola/stocktrack-be/test/helpers"
)

type fixture struct {
	store *memory.Store
	item  *domain.Item
	shelf *domain.Location
	bin   *domain.Location
	user  *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore(helpers.TestLogger())
	t.Cleanup(store.Close)

	f := &fixture{
		store: store,
		item:  helpers.CreateTestItem(),
		shelf: helpers.CreateTestLocation(func(l *domain.Location) { l.Unit = "Shelf A" }),
		bin:   helpers.CreateTestLocation(func(l *domain.Location) { l.Unit = "Bin 3" }),
		user:  helpers.CreateTestUser(),
	}
	require.NoError(t, store.Items().Save(ctx, f.item))
	require.NoError(t, store.Locations().Save(ctx, f.shelf))
	require.NoError(t, store.Locations().Save(ctx, f.bin))
	require.NoError(t, store.Users().Save(ctx, f.user))
	return f
}

func (f *fixture) key(loc *domain.Location) domain.EntryKey {
	return domain.EntryKey{ItemID: f.item.ID, LocationID: loc.ID}
}

func (f *fixture) processor(policy domain.OverdrawPolicy) *services.TransactionProcessor {
	return services.NewTransactionProcessor(services.ProcessorDeps{
		UnitOfWork:   f.store,
		Items:        f.store.Items(),
		Locations:    f.store.Locations(),
		Users:        f.store.Users(),
		Transactions: f.store.Transactions(),
	}, policy, helpers.TestLogger())
}

func TestStore_WithinTx_CommitsOnSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.store.WithinTx(ctx, func(ctx context.Context, scope ports.TxScope) error {
		res, err := scope.Ledger().Increment(ctx, f.key(f.shelf), 5)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Before)
		assert.Equal(t, 5, res.After)

		res, err = scope.Ledger().Increment(ctx, f.key(f.shelf), 2)
		require.NoError(t, err)
		assert.Equal(t, 5, res.Before)
		return nil
	})
	require.NoError(t, err)

	entries, err := f.store.Entries().List(ctx, domain.EntryFilter{ItemID: &f.item.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 7, entries[0].Quantity)
}

func TestStore_WithinTx_RollsBackOnError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boom := errors.New("boom")

	require.NoError(t, f.store.WithinTx(ctx, func(ctx context.Context, scope ports.TxScope) error {
		_, err := scope.Ledger().Increment(ctx, f.key(f.shelf), 4)
		return err
	}))

	err := f.store.WithinTx(ctx, func(ctx context.Context, scope ports.TxScope) error {
		if _, err := scope.Ledger().Decrement(ctx, f.key(f.shelf), 3); err != nil {
			return err
		}
		if _, err := scope.Ledger().Increment(ctx, f.key(f.bin), 3); err != nil {
			return err
		}
		tx := helpers.CreateTestTransaction(f.item.ID, f.user.ID, func(tx *domain.Transaction) {
			tx.Type = domain.TransactionTransfer
			tx.FromLocationID, tx.ToLocationID = &f.shelf.ID, &f.bin.ID
		})
		tx.PrepareForStorage()
		if err := scope.Transactions().Save(ctx, tx); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	shelf, err := f.store.Entries().List(ctx, domain.EntryFilter{LocationID: &f.shelf.ID})
	require.NoError(t, err)
	assert.Equal(t, 4, shelf[0].Quantity)

	bin, err := f.store.Entries().List(ctx, domain.EntryFilter{LocationID: &f.bin.ID})
	require.NoError(t, err)
	assert.Empty(t, bin, "entry created inside a failed unit of work must not survive")

	_, total, err := f.store.Transactions().List(ctx, domain.TransactionFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestStore_WithinTx_RollsBackOnPanic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.store.WithinTx(ctx, func(ctx context.Context, scope ports.TxScope) error {
		_, _ = scope.Ledger().Increment(ctx, f.key(f.shelf), 9)
		panic("unexpected")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	total, err := f.store.Entries().LocationTotal(ctx, f.shelf.ID)
	require.NoError(t, err)
	assert.Zero(t, total)

	// the store keeps serving after a panic
	require.NoError(t, f.store.Ping(ctx))
}

func TestStore_Decrement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.WithinTx(ctx, func(ctx context.Context, scope ports.TxScope) error {
		res, err := scope.Ledger().Decrement(ctx, f.key(f.bin), 2)
		require.NoError(t, err)
		assert.False(t, res.Applied)
		assert.Equal(t, domain.ReasonNoEntry, res.Reason)

		_, err = scope.Ledger().Increment(ctx, f.key(f.bin), 3)
		require.NoError(t, err)

		res, err = scope.Ledger().Decrement(ctx, f.key(f.bin), 5)
		require.NoError(t, err)
		assert.True(t, res.Clamped)
		assert.Equal(t, 0, res.After)
		return nil
	}))
}

func TestStore_Increment_RejectsMissingLocation(t *testing.T) {
	f := newFixture(t)

	err := f.store.WithinTx(context.Background(), func(ctx context.Context, scope ports.TxScope) error {
		_, err := scope.Ledger().Increment(ctx, domain.EntryKey{ItemID: f.item.ID, LocationID: uuid.New()}, 1)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStore_Increment_RejectsOverflow(t *testing.T) {
	tests := []struct {
		name    string
		opening int
		receive int
		wantErr bool
	}{
		{name: "fills_to_limit", opening: domain.MaxQuantity - 1, receive: 1},
		{name: "one_past_limit", opening: domain.MaxQuantity, receive: 1, wantErr: true},
		{name: "limit_plus_limit", opening: domain.MaxQuantity, receive: domain.MaxQuantity, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			p := f.processor(domain.OverdrawReject)
			receive := func(qty int) error {
				_, err := p.Process(ctx, helpers.CreateTestTransaction(f.item.ID, f.user.ID, func(tx *domain.Transaction) {
					tx.Quantity = qty
					tx.ToLocationID = &f.shelf.ID
				}))
				return err
			}

			require.NoError(t, receive(tt.opening))
			err := receive(tt.receive)

			total, terr := f.store.Entries().LocationTotal(ctx, f.shelf.ID)
			require.NoError(t, terr)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				assert.Equal(t, tt.opening, total)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.MaxQuantity, total)
		})
	}

	t.Run("ledger_guards_direct_increments", func(t *testing.T) {
		f := newFixture(t)
		err := f.store.WithinTx(context.Background(), func(ctx context.Context, scope ports.TxScope) error {
			if _, err := scope.Ledger().Increment(ctx, f.key(f.bin), domain.MaxQuantity); err != nil {
				return err
			}
			_, err := scope.Ledger().Increment(ctx, f.key(f.bin), 1)
			return err
		})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestStore_Snapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.processor(domain.OverdrawReject)

	_, err := p.Process(ctx, helpers.CreateTestTransaction(f.item.ID, f.user.ID, func(tx *domain.Transaction) {
		tx.Quantity = 6
		tx.ToLocationID = &f.shelf.ID
	}))
	require.NoError(t, err)
	_, err = p.Process(ctx, helpers.CreateTestTransaction(f.item.ID, f.user.ID, func(tx *domain.Transaction) {
		tx.Type = domain.TransactionTransfer
		tx.Quantity = 2
		tx.ToLocationID = &f.bin.ID
		tx.FromLocationID = &f.shelf.ID
	}))
	require.NoError(t, err)

	ledger, journal, err := f.store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, ledger[f.key(f.shelf)])
	assert.Equal(t, 2, ledger[f.key(f.bin)])
	assert.Empty(t, domain.Reconcile(ledger, journal))
}

func TestStore_ConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.processor(domain.OverdrawReject)

	_, err := p.Process(ctx, helpers.CreateTestTransaction(f.item.ID, f.user.ID, func(tx *domain.Transaction) {
		tx.Quantity = 25
		tx.ToLocationID = &f.shelf.ID
	}))
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Process(ctx, helpers.CreateTestTransaction(f.item.ID, f.user.ID, func(tx *domain.Transaction) {
				tx.Type = domain.TransactionWithdraw
				tx.Quantity = 1
				tx.ToLocationID = nil
				tx.FromLocationID = &f.shelf.ID
			}))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, domain.ErrInsufficientStock) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 25, ok)
	assert.Equal(t, 15, rejected)

	total, err := f.store.Entries().LocationTotal(ctx, f.shelf.ID)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestStore_ConcurrentTransfersConserveStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.processor(domain.OverdrawClamp)

	_, err := p.Process(ctx, helpers.CreateTestTransaction(f.item.ID, f.user.ID, func(tx *domain.Transaction) {
		tx.Quantity = 50
		tx.ToLocationID = &f.shelf.ID
	}))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		from, to := f.shelf, f.bin
		if i%2 == 1 {
			from, to = f.bin, f.shelf
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Process(ctx, helpers.CreateTestTransaction(f.item.ID, f.user.ID, func(tx *domain.Transaction) {
				tx.Type = domain.TransactionTransfer
				tx.Quantity = 7
				tx.FromLocationID = &from.ID
				tx.ToLocationID = &to.ID
			}))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	item, err := f.store.Items().FindByID(ctx, f.item.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, item.TotalQuantity)

	ledger, journal, err := f.store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, domain.Reconcile(ledger, journal))
}

func TestStore_Items(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	items := f.store.Items()

	t.Run("duplicate_live_sku_conflicts", func(t *testing.T) {
		dup := helpers.CreateTestItem(func(i *domain.Item) { i.SKU = f.item.SKU })
		assert.ErrorIs(t, items.Save(ctx, dup), domain.ErrConflict)
	})

	t.Run("missing_category_is_invalid", func(t *testing.T) {
		missing := uuid.New()
		bad := helpers.CreateTestItem(func(i *domain.Item) { i.SKU = "CAT-1"; i.CategoryID = &missing })
		assert.ErrorIs(t, items.Save(ctx, bad), domain.ErrValidation)
	})

	t.Run("update_keeps_status", func(t *testing.T) {
		require.NoError(t, items.SetDiscontinued(ctx, f.item.ID, true))

		patch := *f.item
		patch.Name = "Renamed"
		patch.Status = domain.ItemStatusInStock
		require.NoError(t, items.Update(ctx, &patch))

		got, err := items.FindByID(ctx, f.item.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
		assert.Equal(t, domain.ItemStatusDiscontinued, got.Status)

		require.NoError(t, items.SetDiscontinued(ctx, f.item.ID, false))
	})

	t.Run("list_filters_on_derived_status", func(t *testing.T) {
		stocked := helpers.CreateTestItem(func(i *domain.Item) { i.SKU = "STOCKED-1"; i.Name = "Stocked widget" })
		require.NoError(t, items.Save(ctx, stocked))
		_, err := f.processor(domain.OverdrawReject).Process(ctx,
			helpers.CreateTestTransaction(stocked.ID, f.user.ID, func(tx *domain.Transaction) {
				tx.Quantity = stocked.MinimumStock + 1
				tx.ToLocationID = &f.shelf.ID
			}))
		require.NoError(t, err)

		got, total, err := items.List(ctx, domain.ItemFilter{Status: domain.ItemStatusInStock})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, stocked.ID, got[0].ID)

		_, total, err = items.List(ctx, domain.ItemFilter{Search: "WIDGET"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)

		page, total, err := items.List(ctx, domain.ItemFilter{Limit: 1, Offset: 1, SortBy: "sku"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, page, 1)
	})

	t.Run("soft_deleted_item_is_hidden_and_sku_reusable", func(t *testing.T) {
		gone := helpers.CreateTestItem(func(i *domain.Item) { i.SKU = "GONE-1" })
		require.NoError(t, items.Save(ctx, gone))
		require.NoError(t, items.SoftDelete(ctx, gone.ID))

		_, err := items.FindByID(ctx, gone.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, items.SoftDelete(ctx, gone.ID), domain.ErrNotFound)

		again := helpers.CreateTestItem(func(i *domain.Item) { i.SKU = "GONE-1" })
		assert.NoError(t, items.Save(ctx, again))
	})
}

func TestStore_DeleteLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	spare := helpers.CreateTestLocation(func(l *domain.Location) { l.Unit = "Spare" })
	require.NoError(t, f.store.Locations().Save(ctx, spare))
	require.NoError(t, f.store.Locations().Delete(ctx, spare.ID))

	_, err := f.processor(domain.OverdrawReject).Process(ctx,
		helpers.CreateTestTransaction(f.item.ID, f.user.ID, func(tx *domain.Transaction) {
			tx.ToLocationID = &f.bin.ID
		}))
	require.NoError(t, err)

	assert.ErrorIs(t, f.store.Locations().Delete(ctx, f.bin.ID), domain.ErrConflict)
	assert.ErrorIs(t, f.store.Locations().Delete(ctx, uuid.New()), domain.ErrNotFound)
}

func TestStore_CategoriesAndUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cat := helpers.CreateTestCategory()
	require.NoError(t, f.store.Categories().Save(ctx, cat))
	assert.ErrorIs(t, f.store.Categories().Save(ctx, helpers.CreateTestCategory()), domain.ErrConflict)

	f.item.CategoryID = &cat.ID
	require.NoError(t, f.store.Items().Update(ctx, f.item))
	assert.ErrorIs(t, f.store.Categories().Delete(ctx, cat.ID), domain.ErrConflict)

	dup := helpers.CreateTestUser(func(u *domain.User) { u.Email = f.user.Email })
	assert.ErrorIs(t, f.store.Users().Save(ctx, dup), domain.ErrConflict)

	users, err := f.store.Users().List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestStore_TransactionsList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.processor(domain.OverdrawReject)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		_, err := p.Process(ctx, helpers.CreateTestTransaction(f.item.ID, f.user.ID, func(tx *domain.Transaction) {
			tx.ToLocationID = &f.shelf.ID
			tx.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		}))
		require.NoError(t, err)
	}
	_, err := p.Process(ctx, helpers.CreateTestTransaction(f.item.ID, f.user.ID, func(tx *domain.Transaction) {
		tx.Type = domain.TransactionTransfer
		tx.FromLocationID, tx.ToLocationID = &f.shelf.ID, &f.bin.ID
		tx.CreatedAt = base.Add(10 * time.Minute)
	}))
	require.NoError(t, err)

	txs, total, err := f.store.Transactions().List(ctx, domain.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Equal(t, domain.TransactionTransfer, txs[0].Type, "newest first")
	assert.Nil(t, txs[0].Movements)

	_, total, err = f.store.Transactions().List(ctx, domain.TransactionFilter{LocationID: &f.bin.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	since := base.Add(time.Minute)
	_, total, err = f.store.Transactions().List(ctx, domain.TransactionFilter{Since: &since, Type: domain.TransactionReceive})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	got, err := f.store.Transactions().FindByID(ctx, txs[0].ID)
	require.NoError(t, err)
	assert.Len(t, got.Movements, 2)
}

func TestStore_Closed(t *testing.T) {
	store := memory.NewStore(helpers.TestLogger())
	store.Close()
	store.Close()

	assert.ErrorIs(t, store.Ping(context.Background()), memory.ErrClosed)
}

func TestStore_CanceledContext(t *testing.T) {
	store := memory.NewStore(helpers.TestLogger())
	t.Cleanup(store.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// either outcome is valid when the store is idle; it must not hang
	err := store.Ping(ctx)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
