// internal/adapters/db/transaction_repository.go
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

var transactionColumns = []string{
	"id", "type", "item_id", "quantity", "from_location_id", "to_location_id",
	"performed_by", "notes", "created_at",
}

// transactionRepository implements ports.TransactionRepository
type transactionRepository struct {
	db     Querier
	logger *slog.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db Querier, logger *slog.Logger) ports.TransactionRepository {
	return &transactionRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "transaction")),
	}
}

// FindByID loads a transaction and its movement journal
func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query, args, err := squirrel.Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	tx, err := scanTransaction(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("transaction", id)
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, transaction_id, item_id, location_id, delta, requested,
		       quantity_before, quantity_after, clamped, created_at
		FROM stock_movements
		WHERE transaction_id = $1
		ORDER BY created_at, delta`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock movements: %w", err)
	}

	tx.Movements, err = scanMany(rows, scanMovement)
	if err != nil {
		return nil, fmt.Errorf("failed to scan stock movements: %w", err)
	}

	return &tx, nil
}

// List returns transactions newest first
func (r *transactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int64, error) {
	countSQL, countArgs, err := applyTransactionFilter(squirrel.Select("COUNT(*)"), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	qb := applyTransactionFilter(squirrel.Select(transactionColumns...), filter).
		OrderBy("created_at DESC", "id")
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		qb = qb.Offset(uint64(filter.Offset))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query transactions: %w", err)
	}

	txs, err := scanMany(rows, scanTransaction)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan transactions: %w", err)
	}

	return txs, total, nil
}

func applyTransactionFilter(qb squirrel.SelectBuilder, filter domain.TransactionFilter) squirrel.SelectBuilder {
	qb = qb.From("transactions").PlaceholderFormat(squirrel.Dollar)

	if filter.ItemID != nil {
		qb = qb.Where(squirrel.Eq{"item_id": *filter.ItemID})
	}
	if filter.LocationID != nil {
		qb = qb.Where(squirrel.Or{
			squirrel.Eq{"from_location_id": *filter.LocationID},
			squirrel.Eq{"to_location_id": *filter.LocationID},
		})
	}
	if filter.Type != "" {
		qb = qb.Where(squirrel.Eq{"type": string(filter.Type)})
	}
	if filter.PerformedBy != nil {
		qb = qb.Where(squirrel.Eq{"performed_by": *filter.PerformedBy})
	}
	if filter.Since != nil {
		qb = qb.Where(squirrel.GtOrEq{"created_at": *filter.Since})
	}
	if filter.Until != nil {
		qb = qb.Where(squirrel.Lt{"created_at": *filter.Until})
	}
	return qb
}

func scanTransaction(row pgx.Row) (domain.Transaction, error) {
	var tx domain.Transaction
	err := row.Scan(
		&tx.ID, &tx.Type, &tx.ItemID, &tx.Quantity, &tx.FromLocationID, &tx.ToLocationID,
		&tx.PerformedBy, &tx.Notes, &tx.CreatedAt,
	)
	return tx, err
}

func scanMovement(row pgx.Row) (domain.StockMovement, error) {
	var m domain.StockMovement
	err := row.Scan(
		&m.ID, &m.TransactionID, &m.ItemID, &m.LocationID, &m.Delta, &m.Requested,
		&m.QuantityBefore, &m.QuantityAfter, &m.Clamped, &m.CreatedAt,
	)
	return m, err
}
