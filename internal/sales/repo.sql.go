package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velora-pos/velora/internal/catalog"
	"github.com/velora-pos/velora/internal/platform/db"
	"github.com/velora-pos/velora/internal/shared"
	"github.com/velora-pos/velora/internal/stockledger"
)

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	InsertSale(ctx context.Context, s Sale) (int64, error)
	InsertLine(ctx context.Context, line SaleLine) (int64, error)
	UpdateSaleTotal(ctx context.Context, saleID int64, total float64) error
	GetSaleForUpdate(ctx context.Context, id int64) (Sale, error)
	UpdateSaleStatus(ctx context.Context, id int64, status Status) error
	DeleteSaleLines(ctx context.Context, saleID int64) error
	DeleteSale(ctx context.Context, id int64) error
	GetSaleLines(ctx context.Context, saleID int64) ([]SaleLine, error)
	GetProductForUpdate(ctx context.Context, id int64) (catalog.Product, error)
	UpdateProductStock(ctx context.Context, id int64, lvl stockledger.Level) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction so
// concurrent sales of the same product serialise on the product row lock.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("sales repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const saleColumns = `id, customer_id, status, payment_type, total, shipping_address, notes, created_at, updated_at`

func scanSale(row pgx.Row) (Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.CustomerID, &s.Status, &s.PaymentType, &s.Total, &s.ShippingAddress, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// GetSale returns one sale with its lines.
func (r *Repository) GetSale(ctx context.Context, id int64) (Sale, error) {
	s, err := scanSale(r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, fmt.Errorf("%w: sale %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return Sale{}, err
	}
	s.Lines, err = collectLines(ctx, r.pool, id)
	return s, err
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func collectLines(ctx context.Context, q queryer, saleID int64) ([]SaleLine, error) {
	rows, err := q.Query(ctx, `SELECT id, sale_id, product_id, product_name, qty, unit_price, subtotal FROM sale_lines WHERE sale_id=$1 ORDER BY id ASC`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []SaleLine
	for rows.Next() {
		var l SaleLine
		if err := rows.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.ProductName, &l.Qty, &l.UnitPrice, &l.Subtotal); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ListSales returns all sales, newest first, lines omitted.
func (r *Repository) ListSales(ctx context.Context) ([]Sale, error) {
	return r.querySales(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY created_at DESC`)
}

// ListByCustomer returns one customer's sales, newest first.
func (r *Repository) ListByCustomer(ctx context.Context, customerID int64) ([]Sale, error) {
	return r.querySales(ctx, `SELECT `+saleColumns+` FROM sales WHERE customer_id=$1 ORDER BY created_at DESC`, customerID)
}

// ListByDay returns sales recorded on the given calendar day.
func (r *Repository) ListByDay(ctx context.Context, day time.Time) ([]Sale, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	return r.querySales(ctx, `SELECT `+saleColumns+` FROM sales WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at DESC`, start, end)
}

func (r *Repository) querySales(ctx context.Context, sql string, args ...any) ([]Sale, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sales []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

func (t *txRepository) InsertSale(ctx context.Context, s Sale) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO sales (customer_id, status, payment_type, total, shipping_address, notes) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		s.CustomerID, s.Status, s.PaymentType, s.Total, s.ShippingAddress, s.Notes,
	).Scan(&id)
	return id, err
}

func (t *txRepository) InsertLine(ctx context.Context, line SaleLine) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO sale_lines (sale_id, product_id, product_name, qty, unit_price, subtotal) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		line.SaleID, line.ProductID, line.ProductName, line.Qty, line.UnitPrice, line.Subtotal,
	).Scan(&id)
	return id, err
}

func (t *txRepository) UpdateSaleTotal(ctx context.Context, saleID int64, total float64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE sales SET total=$2, updated_at=now() WHERE id=$1`, saleID, total)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: sale %d", shared.ErrNotFound, saleID)
	}
	return nil
}

func (t *txRepository) GetSaleForUpdate(ctx context.Context, id int64) (Sale, error) {
	s, err := scanSale(t.tx.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, fmt.Errorf("%w: sale %d", shared.ErrNotFound, id)
	}
	return s, err
}

func (t *txRepository) UpdateSaleStatus(ctx context.Context, id int64, status Status) error {
	tag, err := t.tx.Exec(ctx, `UPDATE sales SET status=$2, updated_at=now() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: sale %d", shared.ErrNotFound, id)
	}
	return nil
}

func (t *txRepository) DeleteSaleLines(ctx context.Context, saleID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM sale_lines WHERE sale_id=$1`, saleID)
	return err
}

func (t *txRepository) DeleteSale(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM sales WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: sale %d", shared.ErrNotFound, id)
	}
	return nil
}

func (t *txRepository) GetSaleLines(ctx context.Context, saleID int64) ([]SaleLine, error) {
	return collectLines(ctx, t.tx, saleID)
}

func (t *txRepository) GetProductForUpdate(ctx context.Context, id int64) (catalog.Product, error) {
	var p catalog.Product
	err := t.tx.QueryRow(ctx,
		`SELECT id, name, sale_price, stock, published_qty, published FROM products WHERE id=$1 FOR UPDATE`, id,
	).Scan(&p.ID, &p.Name, &p.SalePrice, &p.Stock, &p.PublishedQty, &p.Published)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	return p, err
}

func (t *txRepository) UpdateProductStock(ctx context.Context, id int64, lvl stockledger.Level) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE products SET stock=$2, published_qty=$3, published=$4, updated_at=now() WHERE id=$1`,
		id, lvl.OnHand, lvl.Published, lvl.IsPublished(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	return nil
}
