// internal/core/ports/services.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
)

// Page is one page of a listing
type Page[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// ProcessResult is what a processed transaction reports back
type ProcessResult struct {
	Transaction *domain.Transaction   `json:"transaction"`
	Movements   []domain.LedgerResult `json:"movements"`
	ItemStatus  domain.ItemStatus     `json:"item_status"`
}

// TransactionService is the application port of the transaction processor
type TransactionService interface {
	Process(ctx context.Context, tx *domain.Transaction) (*ProcessResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	List(ctx context.Context, filter domain.TransactionFilter) (*Page[domain.Transaction], error)
}

// StockService serves ledger reads and derived views
type StockService interface {
	ItemStock(ctx context.Context, itemID uuid.UUID) (*domain.ItemStock, error)
	ListEntries(ctx context.Context, filter domain.EntryFilter) ([]domain.StockEntry, error)
	SetEntryStatus(ctx context.Context, id uuid.UUID, status domain.EntryStatus) (*domain.StockEntry, error)
	Dashboard(ctx context.Context) (*domain.DashboardSummary, error)
}

// CatalogService manages items, locations, categories and users
type CatalogService interface {
	CreateItem(ctx context.Context, item *domain.Item) error
	UpdateItem(ctx context.Context, id uuid.UUID, item *domain.Item) error
	GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	ListItems(ctx context.Context, filter domain.ItemFilter) (*Page[domain.Item], error)
	SetDiscontinued(ctx context.Context, id uuid.UUID, discontinued bool) (*domain.Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error

	CreateLocation(ctx context.Context, loc *domain.Location) error
	UpdateLocation(ctx context.Context, id uuid.UUID, loc *domain.Location) error
	GetLocation(ctx context.Context, id uuid.UUID) (*domain.Location, error)
	ListLocations(ctx context.Context) ([]domain.Location, error)
	DeleteLocation(ctx context.Context, id uuid.UUID) error

	CreateCategory(ctx context.Context, cat *domain.Category) error
	ListCategories(ctx context.Context) ([]domain.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateUser(ctx context.Context, user *domain.User) error
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// ReconciliationService compares the ledger against the movement journal
type ReconciliationService interface {
	Run(ctx context.Context) (*domain.ReconciliationReport, error)
}
