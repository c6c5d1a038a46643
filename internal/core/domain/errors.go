package domain

import (
	"errors"
	"fmt"
)

// Every engine operation fails with exactly one of these kinds. Wrap with
// fmt.Errorf("...: %w", Err...) to attach context; callers dispatch with
// errors.Is.
var (
	// ErrValidation covers malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound means the referenced fuel type does not exist.
	ErrNotFound = errors.New("fuel type not found")
	// ErrConflict means the natural key (name) is already taken.
	ErrConflict = errors.New("fuel type already exists")
	// ErrInsufficientStock means the sale would drive stock negative. It is a
	// business outcome, never retried.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Validationf builds an ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
