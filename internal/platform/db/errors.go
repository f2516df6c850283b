package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/paintworks/paintworks/internal/shared"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Classify maps driver errors onto the shared error kinds.
// pgx.ErrNoRows becomes shared.ErrNotFound, constraint violations become
// shared.ErrConflict and everything else is a shared.ErrPersistence.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrConflict) ||
		errors.Is(err, shared.ErrInvalidArgument) || errors.Is(err, shared.ErrPersistence) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", shared.ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: duplicate value violates %s", shared.ErrConflict, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: referenced row missing or still in use (%s)", shared.ErrConflict, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%w: %w", shared.ErrPersistence, err)
}
