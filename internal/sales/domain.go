// Package sales records customer sales and drives their lifecycle. A sale
// reserves stock when recorded; cancellation compensates by restoring it.
package sales

import (
	"time"
)

// Status is the lifecycle state of a sale.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
	StatusDelivered Status = "DELIVERED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled, StatusDelivered:
		return true
	}
	return false
}

// CanTransitionTo reports whether a sale in state s may move to next.
// Cancelled sales are terminal, and self transitions are rejected so a
// repeated cancel cannot restore stock twice.
func (s Status) CanTransitionTo(next Status) bool {
	if !next.Valid() {
		return false
	}
	if s == StatusCancelled {
		return false
	}
	return next != s
}

// PaymentType tells how the customer settled (or will settle) a sale.
type PaymentType string

const (
	PaymentCash           PaymentType = "CASH"
	PaymentCashOnDelivery PaymentType = "CASH_ON_DELIVERY"
	PaymentTransfer       PaymentType = "TRANSFER"
)

// Valid reports whether p is a known payment type.
func (p PaymentType) Valid() bool {
	switch p {
	case PaymentCash, PaymentCashOnDelivery, PaymentTransfer:
		return true
	}
	return false
}

// Sale is a recorded customer transaction with its lines.
type Sale struct {
	ID              int64       `json:"id"`
	CustomerID      int64       `json:"customerId"`
	Status          Status      `json:"status"`
	PaymentType     PaymentType `json:"paymentType"`
	Total           float64     `json:"total"`
	ShippingAddress *string     `json:"shippingAddress,omitempty"`
	Notes           *string     `json:"notes,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
	Lines           []SaleLine  `json:"lines,omitempty"`
}

// SaleLine snapshots the product name and price at sale time so later
// catalog edits do not rewrite history.
type SaleLine struct {
	ID          int64   `json:"id"`
	SaleID      int64   `json:"saleId"`
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Qty         int64   `json:"qty"`
	UnitPrice   float64 `json:"unitPrice"`
	Subtotal    float64 `json:"subtotal"`
}

// RecordSaleRequest creates a sale.
type RecordSaleRequest struct {
	CustomerID      int64             `json:"customerId" validate:"omitempty,gt=0"`
	PaymentType     PaymentType       `json:"paymentType" validate:"required"`
	ShippingAddress *string           `json:"shippingAddress" validate:"omitempty,max=500"`
	Notes           *string           `json:"notes" validate:"omitempty,max=1000"`
	Lines           []SaleLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// SaleLineRequest is one requested line of a sale.
type SaleLineRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Qty       int64 `json:"qty" validate:"required,gt=0"`
}

// UpdateStatusRequest moves a sale to a new lifecycle state.
type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required"`
}
