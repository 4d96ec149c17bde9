package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velora-pos/velora/internal/platform/db"
	"github.com/velora-pos/velora/internal/shared"
	"github.com/velora-pos/velora/internal/stockledger"
)

const productColumns = `id, name, description, sale_price, stock, published_qty, published, category_id, created_at, updated_at`

// Repository persists catalog data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, id int64) (Product, error)
	UpdateProduct(ctx context.Context, p Product) error
	UpdateProductStock(ctx context.Context, id int64, lvl stockledger.Level) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("catalog repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *Repository) CreateProduct(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO products (name, description, sale_price, stock, published_qty, published, category_id, created_at, updated_at)
VALUES ($1,$2,$3,0,0,false,$4,NOW(),NOW()) RETURNING id`, p.Name, p.Description, p.SalePrice, p.CategoryID).Scan(&id)
	return id, err
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id)
	return scanProduct(row)
}

func (r *Repository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (r *Repository) ListPublished(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE published AND published_qty > 0 ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

// DeleteProduct removes a product. Products referenced by purchase or sale
// lines are protected by RESTRICT foreign keys; the violation surfaces as
// ErrConflict so history is never orphaned.
func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("%w: product %d has transaction history", shared.ErrConflict, id)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *Repository) CreateCategory(ctx context.Context, c Category) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO categories (name, description) VALUES ($1,$2) RETURNING id`, c.Name, c.Description).Scan(&id)
	return id, err
}

func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	categories := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *txRepository) GetProductForUpdate(ctx context.Context, id int64) (Product, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1 FOR UPDATE`, id)
	return scanProduct(row)
}

func (r *txRepository) UpdateProduct(ctx context.Context, p Product) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET name=$2, description=$3, sale_price=$4, stock=$5, published_qty=$6, published=$7, category_id=$8, updated_at=NOW()
WHERE id=$1`, p.ID, p.Name, p.Description, p.SalePrice, p.Stock, p.PublishedQty, p.Published, p.CategoryID)
	return err
}

func (r *txRepository) UpdateProductStock(ctx context.Context, id int64, lvl stockledger.Level) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET stock=$2, published_qty=$3, published=$4, updated_at=NOW() WHERE id=$1`,
		id, lvl.OnHand, lvl.Published, lvl.IsPublished())
	return err
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.SalePrice, &p.Stock, &p.PublishedQty, &p.Published, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("%w: product", shared.ErrNotFound)
	}
	return p, err
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	products := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.SalePrice, &p.Stock, &p.PublishedQty, &p.Published, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
