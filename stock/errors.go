/*
errors.go - Centralized error types for the stock engine

PURPOSE:
  All error types in one place. Only truly exceptional conditions are errors
  here: malformed input and internal-consistency faults. Running out of an
  ingredient is NOT an error; it is reported as a Shortage list.

ERROR CATEGORIES:
  1. Invalid argument - empty ingredient name, non-numeric quantity
  2. Not found - decrement of an ingredient the ledger does not hold
  3. Consistency - a commit failed after the order was found satisfiable

USAGE:
  if errors.Is(err, stock.ErrInvalidArgument) {
      // reject the input, nothing was changed
  }

SEE ALSO:
  - ledger.go: Returns InvalidArgumentError and NotFoundError
  - reservation.go: Returns ConsistencyError
*/
package stock

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidArgument is returned for malformed ledger input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a decrement targets an ingredient the
	// ledger does not hold. After a successful availability check this can
	// only mean the calling sequence is broken.
	ErrNotFound = errors.New("ingredient not found")

	// ErrInconsistent is returned when a commit fails after the order was
	// found satisfiable.
	ErrInconsistent = errors.New("stock ledger inconsistent")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidArgumentError describes which input was rejected.
type InvalidArgumentError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// NotFoundError names the missing ingredient.
type NotFoundError struct {
	Ingredient Key
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ingredient not found: %q", string(e.Ingredient))
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ConsistencyError is a hard failure raised when deduction fails for an order
// that had already passed the availability check. The ledger has been rolled
// back when this is returned.
type ConsistencyError struct {
	ReservationID string
	Err           error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("reservation %s: commit failed after availability check: %v", e.ReservationID, e.Err)
}

// Unwrap exposes both the consistency sentinel and the underlying cause.
func (e *ConsistencyError) Unwrap() []error {
	return []error{ErrInconsistent, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsNotFound returns true if the error indicates a missing ingredient.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func invalid(field, value, reason string) error {
	return &InvalidArgumentError{Field: field, Value: value, Reason: reason}
}
