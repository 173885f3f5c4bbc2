// internal/core/ports/repositories.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
)

// ItemRepository defines the persistence port for catalog items.
// Reads fill TotalQuantity from the ledger and return the persisted status;
// callers derive the effective status.
type ItemRepository interface {
	Save(ctx context.Context, item *domain.Item) error
	Update(ctx context.Context, item *domain.Item) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, int64, error)
	SetDiscontinued(ctx context.Context, id uuid.UUID, discontinued bool) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// LocationRepository defines the persistence port for locations
type LocationRepository interface {
	Save(ctx context.Context, loc *domain.Location) error
	Update(ctx context.Context, loc *domain.Location) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Location, error)
	List(ctx context.Context) ([]domain.Location, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryRepository defines the persistence port for categories
type CategoryRepository interface {
	Save(ctx context.Context, cat *domain.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepository defines the persistence port for users
type UserRepository interface {
	Save(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// StockEntryRepository reads the ledger outside a unit of work. Quantities
// are never written through it.
type StockEntryRepository interface {
	List(ctx context.Context, filter domain.EntryFilter) ([]domain.StockEntry, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.StockEntry, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.EntryStatus) (*domain.StockEntry, error)
	LocationTotal(ctx context.Context, locationID uuid.UUID) (int, error)
}

// TransactionRepository reads persisted transactions and their movements
type TransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int64, error)
}
