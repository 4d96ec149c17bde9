package catalog

import "time"

// Product is the catalog aggregate. Stock and PublishedQty are mutated only
// through stockledger operations executed while the row is locked.
type Product struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Description  *string   `json:"description,omitempty" db:"description"`
	SalePrice    float64   `json:"sale_price" db:"sale_price"`
	Stock        int64     `json:"stock" db:"stock"`
	PublishedQty int64     `json:"published_qty" db:"published_qty"`
	Published    bool      `json:"published" db:"published"`
	CategoryID   *int64    `json:"category_id,omitempty" db:"category_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Category groups products for the storefront.
type Category struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`
}

type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description,omitempty"`
	SalePrice   float64 `json:"sale_price" validate:"required,gt=0"`
	CategoryID  *int64  `json:"category_id,omitempty" validate:"omitempty,gt=0"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string  `json:"description,omitempty"`
	SalePrice   *float64 `json:"sale_price,omitempty" validate:"omitempty,gt=0"`
	Stock       *int64   `json:"stock,omitempty" validate:"omitempty,gte=0"`
	CategoryID  *int64   `json:"category_id,omitempty" validate:"omitempty,gt=0"`
}

type PublishRequest struct {
	Qty int64 `json:"qty" validate:"required,gt=0"`
}

type CreateCategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description,omitempty"`
}
