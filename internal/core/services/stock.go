// internal/core/services/stock.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
)

const dashboardLowStockLimit = 20

// StockService serves ledger reads and the derived status views
type StockService struct {
	items     ports.ItemRepository
	locations ports.LocationRepository
	entries   ports.StockEntryRepository
	cache     ports.CacheRepository
	logger    *slog.Logger
}

// Statically assert that *StockService implements the StockService interface.
var _ ports.StockService = (*StockService)(nil)

// NewStockService creates a new stock service. cache may be nil.
func NewStockService(items ports.ItemRepository, locations ports.LocationRepository, entries ports.StockEntryRepository,
	cache ports.CacheRepository, logger *slog.Logger) *StockService {
	return &StockService{
		items:     items,
		locations: locations,
		entries:   entries,
		cache:     cache,
		logger:    logger.With(slog.String("service", "stock")),
	}
}

// ItemStock returns the total and per-location breakdown of an item
func (s *StockService) ItemStock(ctx context.Context, itemID uuid.UUID) (*domain.ItemStock, error) {
	if s.cache == nil {
		return s.loadItemStock(ctx, itemID)
	}

	var stock domain.ItemStock
	fetch := func() (interface{}, error) {
		return s.loadItemStock(ctx, itemID)
	}
	if err := s.cache.GetOrSet(ctx, ItemStockCacheKey(itemID), &stock, fetch, stockCacheTTL); err != nil {
		return nil, err
	}
	return &stock, nil
}

func (s *StockService) loadItemStock(ctx context.Context, itemID uuid.UUID) (*domain.ItemStock, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	entries, err := s.entries.List(ctx, domain.EntryFilter{ItemID: &itemID})
	if err != nil {
		return nil, fmt.Errorf("failed to list stock entries: %w", err)
	}

	total := domain.TotalQuantity(entries)
	return &domain.ItemStock{
		ItemID:        item.ID,
		SKU:           item.SKU,
		Name:          item.Name,
		TotalQuantity: total,
		MinimumStock:  item.MinimumStock,
		Status:        domain.EvaluateStatus(total, item.MinimumStock, item.Status),
		Entries:       entries,
	}, nil
}

// ListEntries returns ledger rows
func (s *StockService) ListEntries(ctx context.Context, filter domain.EntryFilter) ([]domain.StockEntry, error) {
	entries, err := s.entries.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock entries: %w", err)
	}
	return entries, nil
}

// SetEntryStatus flags an entry as in stock or ordered. Quantities are untouched.
func (s *StockService) SetEntryStatus(ctx context.Context, id uuid.UUID, status domain.EntryStatus) (*domain.StockEntry, error) {
	if !status.IsValid() {
		return nil, domain.NewValidationError("status", "must be one of in_stock, ordered")
	}

	entry, err := s.entries.SetStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update stock entry: %w", err)
	}

	s.invalidate(ctx, ItemStockCacheKey(entry.ItemID))

	s.logger.InfoContext(ctx, "updated stock entry status",
		slog.String("entry_id", id.String()),
		slog.String("status", string(status)))

	return entry, nil
}

// Dashboard aggregates item counts per derived status, units and stock value
func (s *StockService) Dashboard(ctx context.Context) (*domain.DashboardSummary, error) {
	if s.cache == nil {
		return s.buildDashboard(ctx)
	}

	var summary domain.DashboardSummary
	fetch := func() (interface{}, error) {
		return s.buildDashboard(ctx)
	}
	if err := s.cache.GetOrSet(ctx, dashboardCacheKey, &summary, fetch, dashboardCacheTTL); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *StockService) buildDashboard(ctx context.Context) (*domain.DashboardSummary, error) {
	items, _, err := s.items.List(ctx, domain.ItemFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	locations, err := s.locations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}

	summary := &domain.DashboardSummary{
		TotalItems:     len(items),
		ItemsByStatus:  make(map[domain.ItemStatus]int),
		TotalLocations: len(locations),
		StockValue:     decimal.Zero,
		LowStockItems:  []domain.Item{},
	}

	for i := range items {
		item := items[i]
		item.ApplyDerivedStatus()

		summary.ItemsByStatus[item.Status]++
		summary.TotalUnits += item.TotalQuantity
		summary.StockValue = summary.StockValue.Add(item.StockValue())

		if item.Status.IsAlerting() {
			summary.LowStockItems = append(summary.LowStockItems, item)
		}
	}

	sort.Slice(summary.LowStockItems, func(i, j int) bool {
		return summary.LowStockItems[i].TotalQuantity < summary.LowStockItems[j].TotalQuantity
	})
	if len(summary.LowStockItems) > dashboardLowStockLimit {
		summary.LowStockItems = summary.LowStockItems[:dashboardLowStockLimit]
	}

	return summary, nil
}

func (s *StockService) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate cache",
			slog.Any("keys", keys),
			slog.String("error", err.Error()))
	}
}
