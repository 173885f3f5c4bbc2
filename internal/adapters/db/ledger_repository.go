// internal/adapters/db/ledger_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
)

const entryColumns = "id, item_id, location_id, quantity, status, created_at, updated_at"

// unitOfWork implements ports.UnitOfWork on a pgx transaction
type unitOfWork struct {
	db *Database
}

// NewUnitOfWork creates a unit of work backed by database transactions
func NewUnitOfWork(db *Database) ports.UnitOfWork {
	return &unitOfWork{db: db}
}

func (u *unitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, scope ports.TxScope) error) error {
	return u.db.Transaction(ctx, func(tx pgx.Tx) error {
		return fn(ctx, &txScope{
			ledger: &ledgerStore{db: tx},
			writer: &transactionWriter{db: tx},
		})
	})
}

type txScope struct {
	ledger *ledgerStore
	writer *transactionWriter
}

func (s *txScope) Ledger() ports.LedgerStore             { return s.ledger }
func (s *txScope) Transactions() ports.TransactionWriter { return s.writer }

// ledgerStore implements ports.LedgerStore. Every statement runs on the
// enclosing transaction, so row locks hold until commit.
type ledgerStore struct {
	db Querier
}

func (l *ledgerStore) GetEntry(ctx context.Context, key domain.EntryKey) (*domain.StockEntry, error) {
	entry, err := scanEntry(l.db.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM item_locations
		 WHERE item_id = $1 AND location_id = $2
		 FOR UPDATE`,
		key.ItemID, key.LocationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read stock entry: %w", err)
	}
	return &entry, nil
}

func (l *ledgerStore) Increment(ctx context.Context, key domain.EntryKey, delta int) (domain.LedgerResult, error) {
	if delta <= 0 {
		return domain.LedgerResult{}, domain.NewValidationError("quantity", "must be positive")
	}

	var after int
	err := l.db.QueryRow(ctx, `
		INSERT INTO item_locations (id, item_id, location_id, quantity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'in_stock', NOW(), NOW())
		ON CONFLICT (item_id, location_id) DO UPDATE
		SET quantity = item_locations.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING quantity`,
		uuid.New(), key.ItemID, key.LocationID, delta,
	).Scan(&after)
	if err != nil {
		return domain.LedgerResult{}, fmt.Errorf("failed to increment stock: %w", mapWriteError(err, "stock entry"))
	}

	return domain.IncrementResult(key, after-delta, delta), nil
}

func (l *ledgerStore) Decrement(ctx context.Context, key domain.EntryKey, delta int) (domain.LedgerResult, error) {
	var before int
	err := l.db.QueryRow(ctx, `
		WITH prev AS (
			SELECT id, quantity FROM item_locations
			WHERE item_id = $1 AND location_id = $2
			FOR UPDATE
		)
		UPDATE item_locations il
		SET quantity = GREATEST(prev.quantity - $3, 0), updated_at = NOW()
		FROM prev
		WHERE il.id = prev.id
		RETURNING prev.quantity`,
		key.ItemID, key.LocationID, delta,
	).Scan(&before)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DecrementResult(key, 0, delta, false), nil
		}
		return domain.LedgerResult{}, fmt.Errorf("failed to decrement stock: %w", err)
	}

	return domain.DecrementResult(key, before, delta, true), nil
}

func (l *ledgerStore) ItemTotal(ctx context.Context, itemID uuid.UUID) (int, error) {
	var total int
	err := l.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0)::int FROM item_locations WHERE item_id = $1`,
		itemID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to total item stock: %w", err)
	}
	return total, nil
}

// transactionWriter implements ports.TransactionWriter
type transactionWriter struct {
	db Querier
}

func (w *transactionWriter) Save(ctx context.Context, tx *domain.Transaction) error {
	_, err := w.db.Exec(ctx, `
		INSERT INTO transactions (
			id, type, item_id, quantity, from_location_id, to_location_id,
			performed_by, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		tx.ID, tx.Type, tx.ItemID, tx.Quantity, tx.FromLocationID, tx.ToLocationID,
		tx.PerformedBy, tx.Notes, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", mapWriteError(err, "transaction"))
	}

	for _, m := range tx.Movements {
		_, err := w.db.Exec(ctx, `
			INSERT INTO stock_movements (
				id, transaction_id, item_id, location_id, delta, requested,
				quantity_before, quantity_after, clamped, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			m.ID, m.TransactionID, m.ItemID, m.LocationID, m.Delta, m.Requested,
			m.QuantityBefore, m.QuantityAfter, m.Clamped, m.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert stock movement: %w", mapWriteError(err, "stock movement"))
		}
	}

	return nil
}

// stockEntryRepository implements ports.StockEntryRepository
type stockEntryRepository struct {
	db     Querier
	logger *slog.Logger
}

// NewStockEntryRepository creates a read-side ledger repository
func NewStockEntryRepository(db Querier, logger *slog.Logger) ports.StockEntryRepository {
	return &stockEntryRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "stock_entry")),
	}
}

func (r *stockEntryRepository) List(ctx context.Context, filter domain.EntryFilter) ([]domain.StockEntry, error) {
	qb := squirrel.Select(entryColumns).
		From("item_locations").
		OrderBy("item_id", "location_id").
		PlaceholderFormat(squirrel.Dollar)

	if filter.ItemID != nil {
		qb = qb.Where(squirrel.Eq{"item_id": *filter.ItemID})
	}
	if filter.LocationID != nil {
		qb = qb.Where(squirrel.Eq{"location_id": *filter.LocationID})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock entries: %w", err)
	}
	return scanMany(rows, scanEntry)
}

func (r *stockEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.StockEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM item_locations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("stock entry", id)
		}
		return nil, fmt.Errorf("failed to find stock entry: %w", err)
	}
	return &entry, nil
}

func (r *stockEntryRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.EntryStatus) (*domain.StockEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx,
		`UPDATE item_locations SET status = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+entryColumns,
		id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("stock entry", id)
		}
		return nil, fmt.Errorf("failed to update stock entry: %w", mapWriteError(err, "stock entry"))
	}
	return &entry, nil
}

func (r *stockEntryRepository) LocationTotal(ctx context.Context, locationID uuid.UUID) (int, error) {
	var total int
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0)::int FROM item_locations WHERE location_id = $1`,
		locationID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to total location stock: %w", err)
	}
	return total, nil
}

func scanEntry(row pgx.Row) (domain.StockEntry, error) {
	var e domain.StockEntry
	err := row.Scan(&e.ID, &e.ItemID, &e.LocationID, &e.Quantity, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}
