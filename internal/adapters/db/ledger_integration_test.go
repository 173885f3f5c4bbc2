//go:build integration
// +build integration

package db_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/ammerola/stocktrack-be/internal/adapters/db"
	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
	"github.com/ammerola/stocktrack-be/internal/core/services"
	"github.com/ammerola/stocktrack-be/test/helpers"
)

type LedgerSuite struct {
	suite.Suite
	testDB    *helpers.TestDB
	ctx       context.Context
	items     ports.ItemRepository
	locations ports.LocationRepository
	users     ports.UserRepository
	entries   ports.StockEntryRepository
	txRepo    ports.TransactionRepository

	item  *domain.Item
	shelf *domain.Location
	bin   *domain.Location
	user  *domain.User
}

func (s *LedgerSuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.ctx = context.Background()

	logger := helpers.TestLogger()
	pool := s.testDB.PgxPool
	s.items = db.NewItemRepository(pool, logger)
	s.locations = db.NewLocationRepository(pool, logger)
	s.users = db.NewUserRepository(pool, logger)
	s.entries = db.NewStockEntryRepository(pool, logger)
	s.txRepo = db.NewTransactionRepository(pool, logger)
}

func (s *LedgerSuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)

	s.item = helpers.CreateTestItem()
	s.Require().NoError(s.items.Save(s.ctx, s.item))

	s.shelf = helpers.CreateTestLocation(func(l *domain.Location) { l.Unit = "Shelf A" })
	s.bin = helpers.CreateTestLocation(func(l *domain.Location) { l.Unit = "Bin 3" })
	s.Require().NoError(s.locations.Save(s.ctx, s.shelf))
	s.Require().NoError(s.locations.Save(s.ctx, s.bin))

	s.user = helpers.CreateTestUser()
	s.Require().NoError(s.users.Save(s.ctx, s.user))
}

func (s *LedgerSuite) processor(policy domain.OverdrawPolicy) *services.TransactionProcessor {
	return services.NewTransactionProcessor(services.ProcessorDeps{
		UnitOfWork:   db.NewUnitOfWork(s.testDB.Database),
		Items:        s.items,
		Locations:    s.locations,
		Users:        s.users,
		Transactions: s.txRepo,
	}, policy, helpers.TestLogger())
}

func (s *LedgerSuite) process(p *services.TransactionProcessor, typ domain.TransactionType, qty int, from, to *domain.Location) (*ports.ProcessResult, error) {
	return p.Process(s.ctx, helpers.CreateTestTransaction(s.item.ID, s.user.ID, func(tx *domain.Transaction) {
		tx.Type = typ
		tx.Quantity = qty
		if from != nil {
			tx.FromLocationID = &from.ID
		}
		if to != nil {
			tx.ToLocationID = &to.ID
		}
	}))
}

func (s *LedgerSuite) quantityAt(loc *domain.Location) int {
	entries, err := s.entries.List(s.ctx, domain.EntryFilter{ItemID: &s.item.ID, LocationID: &loc.ID})
	s.Require().NoError(err)
	if len(entries) == 0 {
		return 0
	}
	return entries[0].Quantity
}

func (s *LedgerSuite) TestReceiveTwiceUpsertsOneRow() {
	p := s.processor(domain.OverdrawReject)

	_, err := s.process(p, domain.TransactionReceive, 5, nil, s.shelf)
	s.Require().NoError(err)
	_, err = s.process(p, domain.TransactionReceive, 3, nil, s.shelf)
	s.Require().NoError(err)

	entries, err := s.entries.List(s.ctx, domain.EntryFilter{ItemID: &s.item.ID})
	s.Require().NoError(err)
	s.Len(entries, 1)
	s.Equal(8, entries[0].Quantity)

	item, err := s.items.FindByID(s.ctx, s.item.ID)
	s.Require().NoError(err)
	s.Equal(8, item.TotalQuantity)
}

func (s *LedgerSuite) TestTransferConservesTotal() {
	p := s.processor(domain.OverdrawReject)

	_, err := s.process(p, domain.TransactionReceive, 10, nil, s.shelf)
	s.Require().NoError(err)

	res, err := s.process(p, domain.TransactionTransfer, 4, s.shelf, s.bin)
	s.Require().NoError(err)
	s.Len(res.Movements, 2)

	s.Equal(6, s.quantityAt(s.shelf))
	s.Equal(4, s.quantityAt(s.bin))

	stored, err := s.txRepo.FindByID(s.ctx, res.Transaction.ID)
	s.Require().NoError(err)
	s.Require().Len(stored.Movements, 2)
	s.Equal(-4, stored.Movements[0].Delta)
	s.Equal(4, stored.Movements[1].Delta)
}

func (s *LedgerSuite) TestRejectedWithdrawLeavesNoTrace() {
	p := s.processor(domain.OverdrawReject)

	_, err := s.process(p, domain.TransactionReceive, 2, nil, s.shelf)
	s.Require().NoError(err)

	_, err = s.process(p, domain.TransactionWithdraw, 5, s.shelf, nil)
	s.ErrorIs(err, domain.ErrInsufficientStock)
	s.Equal(2, s.quantityAt(s.shelf))

	_, total, err := s.txRepo.List(s.ctx, domain.TransactionFilter{ItemID: &s.item.ID})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
}

func (s *LedgerSuite) TestReceiveBeyondColumnRangeIsValidationError() {
	p := s.processor(domain.OverdrawReject)

	_, err := s.process(p, domain.TransactionReceive, domain.MaxQuantity, nil, s.shelf)
	s.Require().NoError(err)

	_, err = s.process(p, domain.TransactionReceive, 1, nil, s.shelf)
	s.ErrorIs(err, domain.ErrValidation)
	s.Equal(domain.MaxQuantity, s.quantityAt(s.shelf))
}

func (s *LedgerSuite) TestClampedWithdrawFloorsAtZero() {
	p := s.processor(domain.OverdrawClamp)

	_, err := s.process(p, domain.TransactionReceive, 2, nil, s.shelf)
	s.Require().NoError(err)

	res, err := s.process(p, domain.TransactionWithdraw, 5, s.shelf, nil)
	s.Require().NoError(err)
	s.True(res.Movements[0].Clamped)
	s.Equal(0, s.quantityAt(s.shelf))
	s.Equal(domain.ItemStatusOutOfStock, res.ItemStatus)
}

func (s *LedgerSuite) TestConcurrentWithdrawalsNeverOverdraw() {
	p := s.processor(domain.OverdrawReject)

	_, err := s.process(p, domain.TransactionReceive, 10, nil, s.shelf)
	s.Require().NoError(err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.process(p, domain.TransactionWithdraw, 1, s.shelf, nil); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(10, succeeded)
	s.Equal(0, s.quantityAt(s.shelf))
}

func (s *LedgerSuite) TestReconciliationAfterTraffic() {
	p := s.processor(domain.OverdrawReject)

	_, err := s.process(p, domain.TransactionReceive, 10, nil, s.shelf)
	s.Require().NoError(err)
	_, err = s.process(p, domain.TransactionTransfer, 3, s.shelf, s.bin)
	s.Require().NoError(err)

	reader, err := db.OpenReconciliationReader(s.ctx, s.testDB.Config, helpers.TestLogger())
	s.Require().NoError(err)
	defer reader.Close()

	ledger, journal, err := reader.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.Empty(domain.Reconcile(ledger, journal))

	_, err = s.testDB.PgxPool.Exec(s.ctx,
		`UPDATE item_locations SET quantity = quantity + 1 WHERE location_id = $1`, s.bin.ID)
	s.Require().NoError(err)

	ledger, journal, err = reader.Snapshot(s.ctx)
	s.Require().NoError(err)
	drifts := domain.Reconcile(ledger, journal)
	s.Require().Len(drifts, 1)
	s.Equal(s.bin.ID, drifts[0].LocationID)
}

func (s *LedgerSuite) TestDeleteLocationWithHistoryConflicts() {
	p := s.processor(domain.OverdrawReject)

	_, err := s.process(p, domain.TransactionReceive, 1, nil, s.bin)
	s.Require().NoError(err)
	_, err = s.process(p, domain.TransactionWithdraw, 1, s.bin, nil)
	s.Require().NoError(err)

	err = s.locations.Delete(s.ctx, s.bin.ID)
	s.ErrorIs(err, domain.ErrConflict)
}

func (s *LedgerSuite) TestItemFilterByDerivedStatus() {
	p := s.processor(domain.OverdrawReject)

	other := helpers.CreateTestItem(func(i *domain.Item) { i.SKU = "OTHER-1" })
	s.Require().NoError(s.items.Save(s.ctx, other))

	_, err := s.process(p, domain.TransactionReceive, s.item.MinimumStock+5, nil, s.shelf)
	s.Require().NoError(err)

	items, total, err := s.items.List(s.ctx, domain.ItemFilter{Status: domain.ItemStatusOutOfStock})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(other.ID, items[0].ID)

	_, total, err = s.items.List(s.ctx, domain.ItemFilter{Search: "other"})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
}

func (s *LedgerSuite) TestSoftDeletedItemIsHidden() {
	s.Require().NoError(s.items.SoftDelete(s.ctx, s.item.ID))

	_, err := s.items.FindByID(s.ctx, s.item.ID)
	s.ErrorIs(err, domain.ErrNotFound)

	reused := helpers.CreateTestItem(func(i *domain.Item) { i.SKU = s.item.SKU })
	s.NoError(s.items.Save(s.ctx, reused))
	s.NotEqual(uuid.Nil, reused.ID)
}

func TestLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(LedgerSuite))
}
