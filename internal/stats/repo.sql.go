package stats

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs aggregate queries against PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// rangeClause binds the optional bounds as $1/$2; NULL disables a bound.
const rangeClause = `($1::timestamptz IS NULL OR created_at >= $1) AND ($2::timestamptz IS NULL OR created_at < $2)`

// SaleTotals returns count and revenue with cancelled sales split out.
func (r *Repository) SaleTotals(ctx context.Context, rng Range) (count int64, revenue float64, cancelledCount int64, cancelledTotal float64, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status <> 'CANCELLED'),
			COALESCE(SUM(total) FILTER (WHERE status <> 'CANCELLED'), 0),
			COUNT(*) FILTER (WHERE status = 'CANCELLED'),
			COALESCE(SUM(total) FILTER (WHERE status = 'CANCELLED'), 0)
		FROM sales WHERE `+rangeClause,
		rng.From, rng.To,
	).Scan(&count, &revenue, &cancelledCount, &cancelledTotal)
	return
}

// ByPaymentType groups non-cancelled sales by payment type.
func (r *Repository) ByPaymentType(ctx context.Context, rng Range) ([]PaymentBucket, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT payment_type, COUNT(*), COALESCE(SUM(total), 0)
		FROM sales
		WHERE status <> 'CANCELLED' AND `+rangeClause+`
		GROUP BY payment_type
		ORDER BY payment_type`,
		rng.From, rng.To,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var buckets []PaymentBucket
	for rows.Next() {
		var b PaymentBucket
		if err := rows.Scan(&b.PaymentType, &b.Count, &b.Revenue); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// ByStatus groups all sales by lifecycle status.
func (r *Repository) ByStatus(ctx context.Context, rng Range) ([]StatusBucket, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM sales
		WHERE `+rangeClause+`
		GROUP BY status
		ORDER BY status`,
		rng.From, rng.To,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var buckets []StatusBucket
	for rows.Next() {
		var b StatusBucket
		if err := rows.Scan(&b.Status, &b.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// TopProducts ranks products by quantity sold in non-cancelled sales.
func (r *Repository) TopProducts(ctx context.Context, rng Range, limit int) ([]ProductSales, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.product_id, l.product_name, SUM(l.qty), COALESCE(SUM(l.subtotal), 0)
		FROM sale_lines l
		JOIN sales s ON s.id = l.sale_id
		WHERE s.status <> 'CANCELLED' AND ($1::timestamptz IS NULL OR s.created_at >= $1) AND ($2::timestamptz IS NULL OR s.created_at < $2)
		GROUP BY l.product_id, l.product_name
		ORDER BY SUM(l.qty) DESC, l.product_id ASC
		LIMIT $3`,
		rng.From, rng.To, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []ProductSales
	for rows.Next() {
		var p ProductSales
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.QtySold, &p.Revenue); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// PurchaseTotals sums active purchases in the range.
func (r *Repository) PurchaseTotals(ctx context.Context, rng Range) (PurchaseSummary, error) {
	var s PurchaseSummary
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total), 0)
		FROM purchases
		WHERE active AND ($1::timestamptz IS NULL OR purchase_date >= $1) AND ($2::timestamptz IS NULL OR purchase_date < $2)`,
		rng.From, rng.To,
	).Scan(&s.Count, &s.Spend)
	return s, err
}
