// internal/adapters/memory/catalog.go
package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
)

// locationRepository implements ports.LocationRepository
type locationRepository struct{ s *Store }

func (r *locationRepository) Save(ctx context.Context, loc *domain.Location) error {
	stored := *loc
	return r.s.exec(ctx, func(st *state) error {
		if _, dup := st.locations[stored.ID]; dup {
			return domain.NewConflictError("location already exists (locations_pkey)")
		}
		st.locations[stored.ID] = stored
		return nil
	})
}

func (r *locationRepository) Update(ctx context.Context, loc *domain.Location) error {
	patch := *loc
	return r.s.exec(ctx, func(st *state) error {
		current, ok := st.locations[patch.ID]
		if !ok {
			return domain.NewNotFoundError("location", patch.ID)
		}
		current.Building, current.Room, current.Unit = patch.Building, patch.Room, patch.Unit
		current.UpdatedAt = patch.UpdatedAt
		st.locations[patch.ID] = current
		return nil
	})
}

func (r *locationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Location, error) {
	var loc domain.Location
	err := r.s.exec(ctx, func(st *state) error {
		found, ok := st.locations[id]
		if !ok {
			return domain.NewNotFoundError("location", id)
		}
		loc = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *locationRepository) List(ctx context.Context) ([]domain.Location, error) {
	out := []domain.Location{}
	err := r.s.exec(ctx, func(st *state) error {
		for _, loc := range st.locations {
			out = append(out, loc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Building != b.Building {
			return a.Building < b.Building
		}
		if a.Room != b.Room {
			return a.Room < b.Room
		}
		return a.Unit < b.Unit
	})
	return out, nil
}

// Delete removes a location. Empty ledger rows go with it; transaction
// history blocks it.
func (r *locationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.exec(ctx, func(st *state) error {
		if _, ok := st.locations[id]; !ok {
			return domain.NewNotFoundError("location", id)
		}
		for _, tx := range st.transactions {
			for _, loc := range tx.LocationIDs() {
				if loc == id {
					return domain.NewConflictError("location is still referenced by transactions")
				}
			}
		}

		for key, e := range st.entries {
			if key.LocationID == id {
				delete(st.entries, key)
				delete(st.entryIDs, e.ID)
			}
		}
		delete(st.locations, id)
		return nil
	})
}

// categoryRepository implements ports.CategoryRepository
type categoryRepository struct{ s *Store }

func (r *categoryRepository) Save(ctx context.Context, cat *domain.Category) error {
	stored := *cat
	return r.s.exec(ctx, func(st *state) error {
		for id, other := range st.categories {
			if id == stored.ID || other.Name == stored.Name {
				return domain.NewConflictError("category already exists (categories_name_key)")
			}
		}
		st.categories[stored.ID] = stored
		return nil
	})
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	var cat domain.Category
	err := r.s.exec(ctx, func(st *state) error {
		found, ok := st.categories[id]
		if !ok {
			return domain.NewNotFoundError("category", id)
		}
		cat = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.s.exec(ctx, func(st *state) error {
		for _, cat := range st.categories {
			out = append(out, cat)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.exec(ctx, func(st *state) error {
		if _, ok := st.categories[id]; !ok {
			return domain.NewNotFoundError("category", id)
		}
		for _, item := range st.items {
			if item.CategoryID != nil && *item.CategoryID == id {
				return domain.NewConflictError("category is still referenced by items")
			}
		}
		delete(st.categories, id)
		return nil
	})
}

// userRepository implements ports.UserRepository
type userRepository struct{ s *Store }

func (r *userRepository) Save(ctx context.Context, user *domain.User) error {
	stored := *user
	return r.s.exec(ctx, func(st *state) error {
		for id, other := range st.users {
			if id == stored.ID || (stored.Email != "" && other.Email == stored.Email) {
				return domain.NewConflictError("user already exists (users_email_key)")
			}
		}
		st.users[stored.ID] = stored
		return nil
	})
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.s.exec(ctx, func(st *state) error {
		found, ok := st.users[id]
		if !ok {
			return domain.NewNotFoundError("user", id)
		}
		user = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	out := []domain.User{}
	err := r.s.exec(ctx, func(st *state) error {
		for _, user := range st.users {
			out = append(out, user)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
