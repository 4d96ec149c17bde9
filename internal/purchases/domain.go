package purchases

import "time"

// Purchase is an inbound transaction from a supplier. Purchases are presumed
// final once made: removal is a soft delete that keeps the stock increase and
// the record itself for audit and statistics.
type Purchase struct {
	ID           int64          `json:"id" db:"id"`
	SupplierID   int64          `json:"supplier_id" db:"supplier_id"`
	PurchaseDate time.Time      `json:"purchase_date" db:"purchase_date"`
	Total        float64        `json:"total" db:"total"`
	Active       bool           `json:"active" db:"active"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	Lines        []PurchaseLine `json:"lines,omitempty" db:"-"`
}

// PurchaseLine is one product entry within a purchase.
type PurchaseLine struct {
	ID         int64   `json:"id" db:"id"`
	PurchaseID int64   `json:"purchase_id" db:"purchase_id"`
	ProductID  int64   `json:"product_id" db:"product_id"`
	Qty        int64   `json:"qty" db:"qty"`
	UnitCost   float64 `json:"unit_cost" db:"unit_cost"`
	Subtotal   float64 `json:"subtotal" db:"subtotal"`
}

type RecordPurchaseRequest struct {
	SupplierID   int64                 `json:"supplier_id" validate:"required,gt=0"`
	PurchaseDate time.Time             `json:"purchase_date" validate:"required"`
	Lines        []PurchaseLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type PurchaseLineRequest struct {
	ProductID int64    `json:"product_id" validate:"required,gt=0"`
	Qty       int64    `json:"qty" validate:"required,gt=0"`
	UnitCost  *float64 `json:"unit_cost,omitempty" validate:"omitempty,gt=0"`
}
