// internal/core/services/catalog.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
)

// CatalogService handles items, locations, categories and users
type CatalogService struct {
	items      ports.ItemRepository
	locations  ports.LocationRepository
	categories ports.CategoryRepository
	users      ports.UserRepository
	entries    ports.StockEntryRepository
	cache      ports.CacheRepository
	logger     *slog.Logger
}

// Statically assert that *CatalogService implements the CatalogService interface.
var _ ports.CatalogService = (*CatalogService)(nil)

// CatalogDeps groups the repositories the catalog service needs
type CatalogDeps struct {
	Items      ports.ItemRepository
	Locations  ports.LocationRepository
	Categories ports.CategoryRepository
	Users      ports.UserRepository
	Entries    ports.StockEntryRepository
	Cache      ports.CacheRepository // optional
}

// NewCatalogService creates a new catalog service
func NewCatalogService(deps CatalogDeps, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		items:      deps.Items,
		locations:  deps.Locations,
		categories: deps.Categories,
		users:      deps.Users,
		entries:    deps.Entries,
		cache:      deps.Cache,
		logger:     logger.With(slog.String("service", "catalog")),
	}
}

// CreateItem validates and saves a new item
func (s *CatalogService) CreateItem(ctx context.Context, item *domain.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if err := s.checkCategory(ctx, item.CategoryID); err != nil {
		return err
	}

	item.PrepareForStorage()

	if err := s.items.Save(ctx, item); err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	item.ApplyDerivedStatus()
	s.invalidate(ctx, dashboardCacheKey)

	s.logger.InfoContext(ctx, "created item",
		slog.String("item_id", item.ID.String()),
		slog.String("sku", item.SKU))

	return nil
}

// UpdateItem replaces the editable fields of an item. The discontinued flag is
// carried over; it only changes through SetDiscontinued.
func (s *CatalogService) UpdateItem(ctx context.Context, id uuid.UUID, item *domain.Item) error {
	existing, err := s.items.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get item: %w", err)
	}

	item.ID = id
	item.Status = existing.Status
	item.CreatedAt = existing.CreatedAt

	if err := item.Validate(); err != nil {
		return err
	}
	if err := s.checkCategory(ctx, item.CategoryID); err != nil {
		return err
	}

	item.PrepareForStorage()

	if err := s.items.Update(ctx, item); err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	item.TotalQuantity = existing.TotalQuantity
	item.ApplyDerivedStatus()
	s.invalidate(ctx, ItemStockCacheKey(id), dashboardCacheKey)

	s.logger.InfoContext(ctx, "updated item", slog.String("item_id", id.String()))
	return nil
}

// GetItem returns an item with its total and derived status
func (s *CatalogService) GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	item.ApplyDerivedStatus()
	return item, nil
}

// ListItems returns a page of items with totals and derived statuses
func (s *CatalogService) ListItems(ctx context.Context, filter domain.ItemFilter) (*ports.Page[domain.Item], error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, domain.NewValidationError("status", "is not a valid item status")
	}
	filter.Limit, filter.Offset = normalizePage(filter.Limit, filter.Offset)

	items, total, err := s.items.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	for i := range items {
		items[i].ApplyDerivedStatus()
	}

	return &ports.Page[domain.Item]{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// SetDiscontinued sets or clears the discontinued override
func (s *CatalogService) SetDiscontinued(ctx context.Context, id uuid.UUID, discontinued bool) (*domain.Item, error) {
	if err := s.items.SetDiscontinued(ctx, id, discontinued); err != nil {
		return nil, fmt.Errorf("failed to update item status: %w", err)
	}
	s.invalidate(ctx, ItemStockCacheKey(id), dashboardCacheKey)

	s.logger.InfoContext(ctx, "updated item discontinued flag",
		slog.String("item_id", id.String()),
		slog.Bool("discontinued", discontinued))

	return s.GetItem(ctx, id)
}

// DeleteItem soft-deletes an item that holds no stock
func (s *CatalogService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get item: %w", err)
	}
	if item.TotalQuantity > 0 {
		return domain.NewConflictError("item %s still holds %d units", item.SKU, item.TotalQuantity)
	}

	if err := s.items.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	s.invalidate(ctx, ItemStockCacheKey(id), dashboardCacheKey)

	s.logger.InfoContext(ctx, "deleted item", slog.String("item_id", id.String()))
	return nil
}

func (s *CatalogService) checkCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.categories.FindByID(ctx, *id); err != nil {
		if isNotFound(err) {
			return domain.NewValidationError("category_id", "does not reference an existing category")
		}
		return fmt.Errorf("failed to load category: %w", err)
	}
	return nil
}

// CreateLocation validates and saves a location
func (s *CatalogService) CreateLocation(ctx context.Context, loc *domain.Location) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	loc.PrepareForStorage()

	if err := s.locations.Save(ctx, loc); err != nil {
		return fmt.Errorf("failed to save location: %w", err)
	}
	s.invalidate(ctx, dashboardCacheKey)

	s.logger.InfoContext(ctx, "created location",
		slog.String("location_id", loc.ID.String()),
		slog.String("name", loc.DisplayName()))
	return nil
}

// UpdateLocation replaces a location's labels
func (s *CatalogService) UpdateLocation(ctx context.Context, id uuid.UUID, loc *domain.Location) error {
	existing, err := s.locations.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get location: %w", err)
	}

	loc.ID = id
	loc.CreatedAt = existing.CreatedAt
	if err := loc.Validate(); err != nil {
		return err
	}
	loc.PrepareForStorage()

	if err := s.locations.Update(ctx, loc); err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	return nil
}

// GetLocation returns a location
func (s *CatalogService) GetLocation(ctx context.Context, id uuid.UUID) (*domain.Location, error) {
	loc, err := s.locations.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return loc, nil
}

// ListLocations returns every location
func (s *CatalogService) ListLocations(ctx context.Context) ([]domain.Location, error) {
	locs, err := s.locations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locs, nil
}

// DeleteLocation removes a location that holds no stock
func (s *CatalogService) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	if _, err := s.locations.FindByID(ctx, id); err != nil {
		return fmt.Errorf("failed to get location: %w", err)
	}

	held, err := s.entries.LocationTotal(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to total location stock: %w", err)
	}
	if held > 0 {
		return domain.NewConflictError("location %s still holds %d units", id, held)
	}

	// Empty rows go with the location; their items' cached stock views list them
	empty, err := s.entries.List(ctx, domain.EntryFilter{LocationID: &id})
	if err != nil {
		return fmt.Errorf("failed to list location entries: %w", err)
	}

	if err := s.locations.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}

	keys := []string{dashboardCacheKey}
	seen := make(map[uuid.UUID]bool, len(empty))
	for _, e := range empty {
		if !seen[e.ItemID] {
			seen[e.ItemID] = true
			keys = append(keys, ItemStockCacheKey(e.ItemID))
		}
	}
	s.invalidate(ctx, keys...)

	s.logger.InfoContext(ctx, "deleted location", slog.String("location_id", id.String()))
	return nil
}

// CreateCategory validates and saves a category
func (s *CatalogService) CreateCategory(ctx context.Context, cat *domain.Category) error {
	if err := cat.Validate(); err != nil {
		return err
	}
	cat.PrepareForStorage()

	if err := s.categories.Save(ctx, cat); err != nil {
		return fmt.Errorf("failed to save category: %w", err)
	}
	return nil
}

// ListCategories returns every category
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return cats, nil
}

// DeleteCategory removes a category no item references
func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		return fmt.Errorf("failed to get category: %w", err)
	}

	_, count, err := s.items.List(ctx, domain.ItemFilter{CategoryID: &id, Limit: 1})
	if err != nil {
		return fmt.Errorf("failed to check category usage: %w", err)
	}
	if count > 0 {
		return domain.NewConflictError("category is referenced by %d items", count)
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// CreateUser validates and saves a user
func (s *CatalogService) CreateUser(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	user.PrepareForStorage()

	if err := s.users.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// ListUsers returns every user
func (s *CatalogService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *CatalogService) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate cache",
			slog.Any("keys", keys),
			slog.String("error", err.Error()))
	}
}
