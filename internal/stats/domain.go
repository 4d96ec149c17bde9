// Package stats computes read-only rollups over recorded sales and
// purchases. Nothing here mutates; empty ranges yield zeroed aggregates.
package stats

import "time"

// Range bounds a query period. Either side may be nil for an open bound.
type Range struct {
	From *time.Time
	To   *time.Time
}

// Summary is the full statistics rollup for a range.
type Summary struct {
	SaleCount      int64           `json:"saleCount"`
	Revenue        float64         `json:"revenue"`
	AverageTicket  float64         `json:"averageTicket"`
	CancelledCount int64           `json:"cancelledCount"`
	CancelledTotal float64         `json:"cancelledTotal"`
	ByPaymentType  []PaymentBucket `json:"byPaymentType"`
	ByStatus       []StatusBucket  `json:"byStatus"`
	TopProducts    []ProductSales  `json:"topProducts"`
	Purchases      PurchaseSummary `json:"purchases"`
}

// PaymentBucket counts sales per payment type, cancelled excluded.
type PaymentBucket struct {
	PaymentType string  `json:"paymentType"`
	Count       int64   `json:"count"`
	Revenue     float64 `json:"revenue"`
}

// StatusBucket counts sales per lifecycle status.
type StatusBucket struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// ProductSales ranks a product by quantity sold.
type ProductSales struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	QtySold     int64   `json:"qtySold"`
	Revenue     float64 `json:"revenue"`
}

// PurchaseSummary totals the purchase side of the ledger.
type PurchaseSummary struct {
	Count int64   `json:"count"`
	Spend float64 `json:"spend"`
}
