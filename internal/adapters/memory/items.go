// internal/adapters/memory/items.go
package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
)

// itemRepository implements ports.ItemRepository
type itemRepository struct{ s *Store }

func (r *itemRepository) Save(ctx context.Context, item *domain.Item) error {
	stored := *item
	return r.s.exec(ctx, func(st *state) error {
		if _, dup := st.items[stored.ID]; dup {
			return domain.NewConflictError("item already exists (items_pkey)")
		}
		if err := checkItemRefs(st, &stored); err != nil {
			return err
		}
		stored.TotalQuantity = 0
		st.items[stored.ID] = stored
		return nil
	})
}

// Update replaces the editable fields. Status is left alone.
func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	patch := *item
	return r.s.exec(ctx, func(st *state) error {
		current, ok := st.liveItem(patch.ID)
		if !ok {
			return domain.NewNotFoundError("item", patch.ID)
		}
		if err := checkItemRefs(st, &patch); err != nil {
			return err
		}

		current.SKU = patch.SKU
		current.Name = patch.Name
		current.Manufacturer = patch.Manufacturer
		current.CategoryID = patch.CategoryID
		current.UnitCost = patch.UnitCost
		current.MinimumStock = patch.MinimumStock
		current.Notes = patch.Notes
		current.UpdatedAt = patch.UpdatedAt
		st.items[current.ID] = current
		return nil
	})
}

func (r *itemRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	var item domain.Item
	err := r.s.exec(ctx, func(st *state) error {
		found, ok := st.liveItem(id)
		if !ok {
			return domain.NewNotFoundError("item", id)
		}
		found.TotalQuantity = st.itemTotal(id)
		item = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// List filters on the derived status, like the SQL implementation. A zero
// Limit returns every match.
func (r *itemRepository) List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, int64, error) {
	var matches []domain.Item
	err := r.s.exec(ctx, func(st *state) error {
		for _, item := range st.items {
			if item.DeletedAt != nil {
				continue
			}
			item.TotalQuantity = st.itemTotal(item.ID)
			if matchesItem(item, filter) {
				matches = append(matches, item)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sortItems(matches, filter.SortBy, filter.SortOrder)
	return paginate(matches, filter.Limit, filter.Offset), int64(len(matches)), nil
}

func (r *itemRepository) SetDiscontinued(ctx context.Context, id uuid.UUID, discontinued bool) error {
	return r.s.exec(ctx, func(st *state) error {
		item, ok := st.liveItem(id)
		if !ok {
			return domain.NewNotFoundError("item", id)
		}
		item.Status = domain.ItemStatusInStock
		if discontinued {
			item.Status = domain.ItemStatusDiscontinued
		}
		item.UpdatedAt = time.Now()
		st.items[id] = item
		return nil
	})
}

func (r *itemRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.s.exec(ctx, func(st *state) error {
		item, ok := st.liveItem(id)
		if !ok {
			return domain.NewNotFoundError("item", id)
		}
		now := time.Now()
		item.DeletedAt = &now
		item.UpdatedAt = now
		st.items[id] = item
		return nil
	})
}

// checkItemRefs enforces the live-sku uniqueness and category reference
func checkItemRefs(st *state, item *domain.Item) error {
	for id, other := range st.items {
		if id != item.ID && other.DeletedAt == nil && other.SKU == item.SKU {
			return domain.NewConflictError("item already exists (items_sku_key)")
		}
	}
	if item.CategoryID != nil {
		if _, ok := st.categories[*item.CategoryID]; !ok {
			return domain.NewValidationError("", "item references a missing record (items_category_id_fkey)")
		}
	}
	return nil
}

func matchesItem(item domain.Item, f domain.ItemFilter) bool {
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		if !strings.Contains(strings.ToLower(item.Name), s) &&
			!strings.Contains(strings.ToLower(item.SKU), s) &&
			!strings.Contains(strings.ToLower(item.Manufacturer), s) {
			return false
		}
	}
	if f.SKU != "" && item.SKU != f.SKU {
		return false
	}
	if f.CategoryID != nil && (item.CategoryID == nil || *item.CategoryID != *f.CategoryID) {
		return false
	}
	if f.Status != "" && domain.EvaluateStatus(item.TotalQuantity, item.MinimumStock, item.Status) != f.Status {
		return false
	}
	return true
}

func sortItems(items []domain.Item, sortBy, sortOrder string) {
	desc := strings.EqualFold(sortOrder, "desc")

	var less func(a, b domain.Item) bool
	switch sortBy {
	case "name":
		less = func(a, b domain.Item) bool { return a.Name < b.Name }
	case "sku":
		less = func(a, b domain.Item) bool { return a.SKU < b.SKU }
	case "quantity":
		less = func(a, b domain.Item) bool { return a.TotalQuantity < b.TotalQuantity }
	case "updated":
		less = func(a, b domain.Item) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case "":
		desc = true
		fallthrough
	default:
		less = func(a, b domain.Item) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}

	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}
