// Package notify persists per-user notifications produced by sale events.
package notify

import "time"

// Kind mirrors the sale event kinds a notification originates from.
type Kind string

const (
	KindNewSale       Kind = "NEW_SALE"
	KindStatusChanged Kind = "STATUS_CHANGED"
	KindSaleCancelled Kind = "SALE_CANCELLED"
)

// Notification is one message addressed to one user.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	SaleID    int64     `json:"saleId"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
