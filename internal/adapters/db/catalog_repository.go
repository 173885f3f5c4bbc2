// internal/adapters/db/catalog_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
)

// locationRepository implements ports.LocationRepository
type locationRepository struct {
	db     Querier
	logger *slog.Logger
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db Querier, logger *slog.Logger) ports.LocationRepository {
	return &locationRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "location")),
	}
}

func (r *locationRepository) Save(ctx context.Context, loc *domain.Location) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO locations (id, building, room, unit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		loc.ID, loc.Building, loc.Room, loc.Unit, loc.CreatedAt, loc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save location: %w", mapWriteError(err, "location"))
	}
	return nil
}

func (r *locationRepository) Update(ctx context.Context, loc *domain.Location) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE locations SET building = $2, room = $3, unit = $4, updated_at = $5
		WHERE id = $1`,
		loc.ID, loc.Building, loc.Room, loc.Unit, loc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", mapWriteError(err, "location"))
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("location", loc.ID)
	}
	return nil
}

func (r *locationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Location, error) {
	loc, err := scanLocation(r.db.QueryRow(ctx, `
		SELECT id, building, room, unit, created_at, updated_at
		FROM locations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("location", id)
		}
		return nil, fmt.Errorf("failed to find location: %w", err)
	}
	return &loc, nil
}

func (r *locationRepository) List(ctx context.Context) ([]domain.Location, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, building, room, unit, created_at, updated_at
		FROM locations ORDER BY building, room, unit`)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	return scanMany(rows, scanLocation)
}

// Delete removes a location. Empty ledger rows cascade; transaction history blocks it.
func (r *locationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", mapDeleteError(err, "location"))
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("location", id)
	}
	return nil
}

func scanLocation(row pgx.Row) (domain.Location, error) {
	var loc domain.Location
	err := row.Scan(&loc.ID, &loc.Building, &loc.Room, &loc.Unit, &loc.CreatedAt, &loc.UpdatedAt)
	return loc, err
}

// categoryRepository implements ports.CategoryRepository
type categoryRepository struct {
	db     Querier
	logger *slog.Logger
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db Querier, logger *slog.Logger) ports.CategoryRepository {
	return &categoryRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "category")),
	}
}

func (r *categoryRepository) Save(ctx context.Context, cat *domain.Category) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO categories (id, name, description, created_at) VALUES ($1, $2, $3, $4)`,
		cat.ID, cat.Name, cat.Description, cat.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save category: %w", mapWriteError(err, "category"))
	}
	return nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	cat, err := scanCategory(r.db.QueryRow(ctx,
		`SELECT id, name, description, created_at FROM categories WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("category", id)
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return &cat, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	return scanMany(rows, scanCategory)
}

func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", mapDeleteError(err, "category"))
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("category", id)
	}
	return nil
}

func scanCategory(row pgx.Row) (domain.Category, error) {
	var cat domain.Category
	err := row.Scan(&cat.ID, &cat.Name, &cat.Description, &cat.CreatedAt)
	return cat, err
}

// userRepository implements ports.UserRepository
type userRepository struct {
	db     Querier
	logger *slog.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db Querier, logger *slog.Logger) ports.UserRepository {
	return &userRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "user")),
	}
}

func (r *userRepository) Save(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, name, email, created_at) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Name, user.Email, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", mapWriteError(err, "user"))
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx,
		`SELECT id, name, email, created_at FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("user", id)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, email, created_at FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return scanMany(rows, scanUser)
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	return user, err
}
