// internal/adapters/db/errors.go
package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ammerola/stocktrack-be/internal/core/domain"
)

// Postgres error codes the repositories translate
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNumericOutOfRange   = "22003"
)

// mapWriteError translates constraint violations raised by an insert or update
func mapWriteError(err error, entity string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return domain.NewConflictError("%s already exists (%s)", entity, pgErr.ConstraintName)
	case pgForeignKeyViolation:
		return domain.NewValidationError("", fmt.Sprintf("%s references a missing record (%s)", entity, pgErr.ConstraintName))
	case pgCheckViolation:
		return domain.NewValidationError("", fmt.Sprintf("%s violates %s", entity, pgErr.ConstraintName))
	case pgNumericOutOfRange:
		return domain.NewValidationError("quantity", fmt.Sprintf("%s is out of range", entity))
	}
	return err
}

// mapDeleteError translates a delete blocked by rows that still reference it
func mapDeleteError(err error, entity string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return domain.NewConflictError("%s is still referenced by %s", entity, pgErr.TableName)
	}
	return err
}
