package shared

import (
	"errors"
	"fmt"
)

// Error kinds recognised by the HTTP layer. Wrap them with %w and match with errors.Is.
var (
	// ErrInvalidArgument marks missing or malformed input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a write blocked by dependent rows or a duplicate key.
	ErrConflict = errors.New("conflict")
	// ErrPersistence marks a failure of the underlying store.
	ErrPersistence = errors.New("persistence error")
)

// InvalidArgument builds an ErrInvalidArgument with a formatted reason.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// NotFound builds an ErrNotFound naming the entity and id.
func NotFound(entity string, id int64) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, entity, id)
}

// Conflict builds an ErrConflict naming the blocking relation.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Persistence wraps a store failure.
func Persistence(err error) error {
	if err == nil || errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
