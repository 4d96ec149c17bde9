package purchases

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velora-pos/velora/internal/catalog"
	"github.com/velora-pos/velora/internal/platform/db"
	"github.com/velora-pos/velora/internal/shared"
	"github.com/velora-pos/velora/internal/stockledger"
)

// Repository persists purchases in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	InsertPurchase(ctx context.Context, p Purchase) (int64, error)
	InsertLine(ctx context.Context, line PurchaseLine) (int64, error)
	GetLine(ctx context.Context, lineID int64) (PurchaseLine, error)
	GetPurchaseForUpdate(ctx context.Context, id int64) (Purchase, error)
	UpdateTotal(ctx context.Context, purchaseID int64, total float64) error
	DeleteLine(ctx context.Context, lineID int64) error
	GetProductForUpdate(ctx context.Context, id int64) (catalog.Product, error)
	UpdateProductStock(ctx context.Context, id int64, lvl stockledger.Level) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("purchases repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *Repository) GetPurchase(ctx context.Context, id int64) (Purchase, error) {
	var p Purchase
	err := r.pool.QueryRow(ctx, `SELECT id, supplier_id, purchase_date, total, active, created_at FROM purchases WHERE id=$1`, id).
		Scan(&p.ID, &p.SupplierID, &p.PurchaseDate, &p.Total, &p.Active, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Purchase{}, fmt.Errorf("%w: purchase %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return Purchase{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, purchase_id, product_id, qty, unit_cost, subtotal FROM purchase_lines WHERE purchase_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return Purchase{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line PurchaseLine
		if err := rows.Scan(&line.ID, &line.PurchaseID, &line.ProductID, &line.Qty, &line.UnitCost, &line.Subtotal); err != nil {
			return Purchase{}, err
		}
		p.Lines = append(p.Lines, line)
	}
	return p, rows.Err()
}

func (r *Repository) ListPurchases(ctx context.Context) ([]Purchase, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, supplier_id, purchase_date, total, active, created_at FROM purchases ORDER BY purchase_date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	purchases := []Purchase{}
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.SupplierID, &p.PurchaseDate, &p.Total, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE purchases SET active=$2 WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: purchase %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *txRepository) InsertPurchase(ctx context.Context, p Purchase) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO purchases (supplier_id, purchase_date, total, active, created_at)
VALUES ($1,$2,$3,true,NOW()) RETURNING id`, p.SupplierID, p.PurchaseDate, p.Total).Scan(&id)
	return id, err
}

func (r *txRepository) InsertLine(ctx context.Context, line PurchaseLine) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO purchase_lines (purchase_id, product_id, qty, unit_cost, subtotal)
VALUES ($1,$2,$3,$4,$5) RETURNING id`, line.PurchaseID, line.ProductID, line.Qty, line.UnitCost, line.Subtotal).Scan(&id)
	return id, err
}

func (r *txRepository) GetLine(ctx context.Context, lineID int64) (PurchaseLine, error) {
	var line PurchaseLine
	err := r.tx.QueryRow(ctx, `SELECT id, purchase_id, product_id, qty, unit_cost, subtotal FROM purchase_lines WHERE id=$1`, lineID).
		Scan(&line.ID, &line.PurchaseID, &line.ProductID, &line.Qty, &line.UnitCost, &line.Subtotal)
	if errors.Is(err, pgx.ErrNoRows) {
		return PurchaseLine{}, fmt.Errorf("%w: purchase line %d", shared.ErrNotFound, lineID)
	}
	return line, err
}

func (r *txRepository) GetPurchaseForUpdate(ctx context.Context, id int64) (Purchase, error) {
	var p Purchase
	err := r.tx.QueryRow(ctx, `SELECT id, supplier_id, purchase_date, total, active, created_at FROM purchases WHERE id=$1 FOR UPDATE`, id).
		Scan(&p.ID, &p.SupplierID, &p.PurchaseDate, &p.Total, &p.Active, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Purchase{}, fmt.Errorf("%w: purchase %d", shared.ErrNotFound, id)
	}
	return p, err
}

func (r *txRepository) UpdateTotal(ctx context.Context, purchaseID int64, total float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE purchases SET total=$2 WHERE id=$1`, purchaseID, total)
	return err
}

func (r *txRepository) DeleteLine(ctx context.Context, lineID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM purchase_lines WHERE id=$1`, lineID)
	return err
}

func (r *txRepository) GetProductForUpdate(ctx context.Context, id int64) (catalog.Product, error) {
	var p catalog.Product
	err := r.tx.QueryRow(ctx, `SELECT id, name, sale_price, stock, published_qty, published FROM products WHERE id=$1 FOR UPDATE`, id).
		Scan(&p.ID, &p.Name, &p.SalePrice, &p.Stock, &p.PublishedQty, &p.Published)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	return p, err
}

func (r *txRepository) UpdateProductStock(ctx context.Context, id int64, lvl stockledger.Level) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET stock=$2, published_qty=$3, published=$4, updated_at=NOW() WHERE id=$1`,
		id, lvl.OnHand, lvl.Published, lvl.IsPublished())
	return err
}
