// internal/adapters/db/reconciliation_reader.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
)

// ReconciliationReader snapshots the ledger and journal over database/sql.
// It runs from the worker on its own small connection pool.
type ReconciliationReader struct {
	db     *sql.DB
	logger *slog.Logger
}

// Statically assert that *ReconciliationReader implements the ReconciliationSource interface.
var _ ports.ReconciliationSource = (*ReconciliationReader)(nil)

// NewReconciliationReader wraps an open *sql.DB
func NewReconciliationReader(db *sql.DB, logger *slog.Logger) *ReconciliationReader {
	return &ReconciliationReader{
		db:     db,
		logger: logger.With(slog.String("repository", "reconciliation")),
	}
}

// OpenReconciliationReader opens a pgx stdlib connection pool for cfg
func OpenReconciliationReader(ctx context.Context, cfg *Config, logger *slog.Logger) (*ReconciliationReader, error) {
	db, err := sql.Open("pgx", cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewReconciliationReader(db, logger), nil
}

// Snapshot reads both sides in one repeatable-read transaction so they
// describe the same instant.
func (r *ReconciliationReader) Snapshot(ctx context.Context) (map[domain.EntryKey]int, map[domain.EntryKey]int, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer tx.Rollback()

	ledger, err := r.sumByKey(ctx, tx,
		`SELECT item_id, location_id, quantity FROM item_locations`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	journal, err := r.sumByKey(ctx, tx,
		`SELECT item_id, location_id, SUM(delta) FROM stock_movements GROUP BY item_id, location_id`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read journal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to close snapshot: %w", err)
	}

	r.logger.DebugContext(ctx, "ledger snapshot taken",
		slog.Int("entries", len(ledger)),
		slog.Int("journaled_entries", len(journal)))

	return ledger, journal, nil
}

func (r *ReconciliationReader) sumByKey(ctx context.Context, tx *sql.Tx, query string) (map[domain.EntryKey]int, error) {
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.EntryKey]int)
	for rows.Next() {
		var (
			itemID, locationID uuid.UUID
			qty                int64
		)
		if err := rows.Scan(&itemID, &locationID, &qty); err != nil {
			return nil, err
		}
		out[domain.EntryKey{ItemID: itemID, LocationID: locationID}] += int(qty)
	}
	return out, rows.Err()
}

// Close releases the connection pool
func (r *ReconciliationReader) Close() error {
	return r.db.Close()
}
