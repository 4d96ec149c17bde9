package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the actor is not allowed to perform the action.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState indicates the operation conflicts with the current lifecycle state.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidArgument indicates a request value is out of range.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict indicates the operation would break referential integrity.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// InsufficientStockError reports a stock decrement larger than the on-hand quantity.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	if e.ProductName != "" {
		return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.ProductName, e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient stock: requested %d, available %d", e.Requested, e.Available)
}

// PublishLimitError reports a publish request exceeding the unpublished stock.
type PublishLimitError struct {
	ProductID int64
	Requested int64
	Available int64
}

func (e *PublishLimitError) Error() string {
	return fmt.Sprintf("cannot publish %d units, only %d available to publish", e.Requested, e.Available)
}

// Unwrap classifies publish limit violations as invalid arguments.
func (e *PublishLimitError) Unwrap() error {
	return ErrInvalidArgument
}
