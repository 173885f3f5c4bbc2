// internal/adapters/db/item_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
)

const (
	itemsWithTotals = `items i LEFT JOIN (
		SELECT item_id, SUM(quantity)::int AS total FROM item_locations GROUP BY item_id
	) t ON t.item_id = i.id`

	derivedStatusExpr = `CASE
		WHEN i.status = 'discontinued' THEN 'discontinued'
		WHEN COALESCE(t.total, 0) = 0 THEN 'out_of_stock'
		WHEN COALESCE(t.total, 0) <= i.minimum_stock THEN 'low_stock'
		ELSE 'in_stock' END`
)

var itemColumns = []string{
	"i.id", "i.sku", "i.name", "i.manufacturer", "i.category_id",
	"i.unit_cost", "i.minimum_stock", "i.status", "i.notes",
	"i.created_at", "i.updated_at", "i.deleted_at", "COALESCE(t.total, 0)",
}

// itemRepository implements ports.ItemRepository
type itemRepository struct {
	db     Querier
	logger *slog.Logger
}

// NewItemRepository creates a new item repository
func NewItemRepository(db Querier, logger *slog.Logger) ports.ItemRepository {
	return &itemRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "item")),
	}
}

// Save creates a new item
func (r *itemRepository) Save(ctx context.Context, item *domain.Item) error {
	query := `
		INSERT INTO items (
			id, sku, name, manufacturer, category_id, unit_cost,
			minimum_stock, status, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(ctx, query,
		item.ID, item.SKU, item.Name, item.Manufacturer, item.CategoryID, item.UnitCost,
		item.MinimumStock, item.Status, item.Notes, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save item: %w", mapWriteError(err, "item"))
	}

	r.logger.DebugContext(ctx, "item saved",
		slog.String("item_id", item.ID.String()),
		slog.String("sku", item.SKU))

	return nil
}

// Update replaces the editable columns. Status is left alone.
func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	query := `
		UPDATE items SET
			sku = $2, name = $3, manufacturer = $4, category_id = $5,
			unit_cost = $6, minimum_stock = $7, notes = $8, updated_at = $9
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query,
		item.ID, item.SKU, item.Name, item.Manufacturer, item.CategoryID,
		item.UnitCost, item.MinimumStock, item.Notes, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", mapWriteError(err, "item"))
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("item", item.ID)
	}

	return nil
}

// FindByID retrieves a live item with its ledger total
func (r *itemRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	query, args, err := squirrel.Select(itemColumns...).
		From(itemsWithTotals).
		Where(squirrel.Eq{"i.id": id}).
		Where("i.deleted_at IS NULL").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	item, err := scanItem(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("item", id)
		}
		return nil, fmt.Errorf("failed to find item: %w", err)
	}

	return &item, nil
}

// List retrieves items with filtering and pagination. A zero Limit returns every match.
func (r *itemRepository) List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, int64, error) {
	countSQL, countArgs, err := applyItemFilter(squirrel.Select("COUNT(*)"), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	qb := applyItemFilter(squirrel.Select(itemColumns...), filter).
		OrderBy(itemOrderBy(filter.SortBy, filter.SortOrder))
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
		return nil, 0, fmt.Errorf("failed to query items: %w", err)
	}

	items, err := scanMany(rows, scanItem)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan items: %w", err)
	}

	return items, total, nil
}

// SetDiscontinued sets or clears the persisted discontinued flag
func (r *itemRepository) SetDiscontinued(ctx context.Context, id uuid.UUID, discontinued bool) error {
	status := domain.ItemStatusInStock
	if discontinued {
		status = domain.ItemStatusDiscontinued
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE items SET status = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		id, status)
	if err != nil {
		return fmt.Errorf("failed to update item status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("item", id)
	}

	return nil
}

// SoftDelete marks an item as deleted
func (r *itemRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE items SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		id)
	if err != nil {
		return fmt.Errorf("failed to soft delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("item", id)
	}

	r.logger.DebugContext(ctx, "item soft deleted", slog.String("item_id", id.String()))
	return nil
}

func applyItemFilter(qb squirrel.SelectBuilder, filter domain.ItemFilter) squirrel.SelectBuilder {
	qb = qb.From(itemsWithTotals).
		Where("i.deleted_at IS NULL").
		PlaceholderFormat(squirrel.Dollar)

	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + s + "%"
		qb = qb.Where(squirrel.Or{
			squirrel.ILike{"i.name": like},
			squirrel.ILike{"i.sku": like},
			squirrel.ILike{"i.manufacturer": like},
		})
	}
	if filter.SKU != "" {
		qb = qb.Where(squirrel.Eq{"i.sku": filter.SKU})
	}
	if filter.CategoryID != nil {
		qb = qb.Where(squirrel.Eq{"i.category_id": *filter.CategoryID})
	}
	if filter.Status != "" {
		qb = qb.Where(derivedStatusExpr+" = ?", string(filter.Status))
	}
	return qb
}

func itemOrderBy(sortBy, sortOrder string) string {
	direction := "ASC"
	if strings.EqualFold(sortOrder, "desc") {
		direction = "DESC"
	}

	switch sortBy {
	case "name":
		return "i.name " + direction
	case "sku":
		return "i.sku " + direction
	case "quantity":
		return "COALESCE(t.total, 0) " + direction
	case "updated":
		return "i.updated_at " + direction
	case "":
		return "i.created_at DESC"
	default:
		return "i.created_at " + direction
	}
}

func scanItem(row pgx.Row) (domain.Item, error) {
	var item domain.Item
	err := row.Scan(
		&item.ID, &item.SKU, &item.Name, &item.Manufacturer, &item.CategoryID,
		&item.UnitCost, &item.MinimumStock, &item.Status, &item.Notes,
		&item.CreatedAt, &item.UpdatedAt, &item.DeletedAt, &item.TotalQuantity,
	)
	return item, err
}
