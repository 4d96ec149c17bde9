// Package stockledger holds the stock position arithmetic for a single
// product. Increase and Decrease are the only operations allowed to change
// the on-hand quantity; Publish and Unpublish are the only operations allowed
// to raise or reset the published quantity. Every operation leaves the level
// satisfying 0 <= Published <= OnHand. Callers persist the resulting level
// inside their own transaction while holding the product row lock.
package stockledger

import (
	"fmt"

	"github.com/velora-pos/velora/internal/shared"
)

// Level is the stock position of one product.
type Level struct {
	OnHand    int64
	Published int64
}

// Increase adds qty to the on-hand quantity.
func (l *Level) Increase(qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", shared.ErrInvalidArgument, qty)
	}
	l.OnHand += qty
	return nil
}

// Decrease removes qty from the on-hand quantity. After the decrement the
// published quantity is clamped down to the new on-hand quantity when it
// would exceed it.
func (l *Level) Decrease(qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", shared.ErrInvalidArgument, qty)
	}
	if qty > l.OnHand {
		return &shared.InsufficientStockError{Requested: qty, Available: l.OnHand}
	}
	l.OnHand -= qty
	l.Clamp()
	return nil
}

// Publish raises the published quantity by qty. Publishing is additive across
// calls; it never replaces the current value.
func (l *Level) Publish(qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", shared.ErrInvalidArgument, qty)
	}
	available := l.OnHand - l.Published
	if qty > available {
		return &shared.PublishLimitError{Requested: qty, Available: available}
	}
	l.Published += qty
	return nil
}

// Unpublish resets the published quantity to zero unconditionally.
func (l *Level) Unpublish() {
	l.Published = 0
}

// Clamp forces the published quantity back under the on-hand quantity.
// Direct stock updates outside Increase/Decrease must call this afterwards.
func (l *Level) Clamp() {
	if l.Published > l.OnHand {
		l.Published = l.OnHand
	}
	if l.Published < 0 {
		l.Published = 0
	}
}

// IsPublished reports whether any quantity is exposed for sale.
func (l *Level) IsPublished() bool {
	return l.Published > 0
}
