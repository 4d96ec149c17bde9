package purchases

import (
	"context"
	"errors"
	"fmt"

	"github.com/velora-pos/velora/internal/shared"
	"github.com/velora-pos/velora/internal/stockledger"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetPurchase(ctx context.Context, id int64) (Purchase, error)
	ListPurchases(ctx context.Context) ([]Purchase, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// SupplierLookup verifies supplier references against masterdata.
type SupplierLookup interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Service coordinates purchase transactions.
type Service struct {
	repo      RepositoryPort
	suppliers SupplierLookup
}

// NewService builds Service.
func NewService(repo RepositoryPort, suppliers SupplierLookup) *Service {
	return &Service{repo: repo, suppliers: suppliers}
}

// Record creates a purchase with its lines and raises stock per line, all in
// one unit of work. A missing product on any line aborts the whole purchase.
func (s *Service) Record(ctx context.Context, req RecordPurchaseRequest, actor shared.Principal) (Purchase, error) {
	if !shared.Allow(actor, shared.ActionPurchaseRecord, 0) {
		return Purchase{}, fmt.Errorf("%w: recording purchases requires an administrator", shared.ErrForbidden)
	}
	ok, err := s.suppliers.Exists(ctx, req.SupplierID)
	if err != nil {
		return Purchase{}, fmt.Errorf("verify supplier: %w", err)
	}
	if !ok {
		return Purchase{}, fmt.Errorf("%w: supplier %d", shared.ErrNotFound, req.SupplierID)
	}
	for _, line := range req.Lines {
		if line.Qty <= 0 {
			return Purchase{}, fmt.Errorf("%w: line quantity must be positive", shared.ErrInvalidArgument)
		}
	}

	purchase := Purchase{SupplierID: req.SupplierID, PurchaseDate: req.PurchaseDate, Active: true}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertPurchase(ctx, purchase)
		if err != nil {
			return fmt.Errorf("insert purchase: %w", err)
		}
		purchase.ID = id

		var total float64
		for _, lineReq := range req.Lines {
			product, err := tx.GetProductForUpdate(ctx, lineReq.ProductID)
			if err != nil {
				return err
			}
			// No real cost supplied: fall back to the sale price as a
			// reference figure.
			unitCost := product.SalePrice
			if lineReq.UnitCost != nil {
				unitCost = *lineReq.UnitCost
			}

			lvl := stockledger.Level{OnHand: product.Stock, Published: product.PublishedQty}
			if err := lvl.Increase(lineReq.Qty); err != nil {
				return err
			}
			if err := tx.UpdateProductStock(ctx, product.ID, lvl); err != nil {
				return err
			}

			line := PurchaseLine{
				PurchaseID: purchase.ID,
				ProductID:  lineReq.ProductID,
				Qty:        lineReq.Qty,
				UnitCost:   unitCost,
				Subtotal:   float64(lineReq.Qty) * unitCost,
			}
			lineID, err := tx.InsertLine(ctx, line)
			if err != nil {
				return fmt.Errorf("insert purchase line: %w", err)
			}
			line.ID = lineID
			purchase.Lines = append(purchase.Lines, line)
			total += line.Subtotal
		}

		if err := tx.UpdateTotal(ctx, purchase.ID, total); err != nil {
			return fmt.Errorf("update purchase total: %w", err)
		}
		purchase.Total = total
		return nil
	})
	if err != nil {
		return Purchase{}, err
	}
	return purchase, nil
}

// RemoveLine reverses one line of an active purchase: the stock increase is
// undone, the purchase total reduced and the line deleted, atomically. The
// purchase row is locked before the active check so a concurrent soft delete
// or sibling removal cannot race the total.
func (s *Service) RemoveLine(ctx context.Context, lineID int64, actor shared.Principal) error {
	if !shared.Allow(actor, shared.ActionPurchaseEdit, 0) {
		return fmt.Errorf("%w: editing purchases requires an administrator", shared.ErrForbidden)
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		line, err := tx.GetLine(ctx, lineID)
		if err != nil {
			return err
		}
		purchase, err := tx.GetPurchaseForUpdate(ctx, line.PurchaseID)
		if err != nil {
			return err
		}
		if !purchase.Active {
			return fmt.Errorf("%w: purchase %d is deleted, its lines are read-only", shared.ErrInvalidState, purchase.ID)
		}
		product, err := tx.GetProductForUpdate(ctx, line.ProductID)
		if err != nil {
			return err
		}
		lvl := stockledger.Level{OnHand: product.Stock, Published: product.PublishedQty}
		if err := lvl.Decrease(line.Qty); err != nil {
			var stockErr *shared.InsufficientStockError
			if errors.As(err, &stockErr) {
				stockErr.ProductID = product.ID
				stockErr.ProductName = product.Name
			}
			return err
		}
		if err := tx.UpdateProductStock(ctx, product.ID, lvl); err != nil {
			return err
		}
		if err := tx.UpdateTotal(ctx, purchase.ID, purchase.Total-line.Subtotal); err != nil {
			return err
		}
		return tx.DeleteLine(ctx, line.ID)
	})
}

// SoftDelete marks a purchase inactive. Stock is not reversed: purchases are
// final, the flag only blocks further mutation while keeping history.
func (s *Service) SoftDelete(ctx context.Context, id int64, actor shared.Principal) error {
	if !shared.Allow(actor, shared.ActionPurchaseEdit, 0) {
		return fmt.Errorf("%w: deleting purchases requires an administrator", shared.ErrForbidden)
	}
	return s.repo.SetActive(ctx, id, false)
}

// Get returns one purchase with its lines.
func (s *Service) Get(ctx context.Context, id int64, actor shared.Principal) (Purchase, error) {
	if !shared.Allow(actor, shared.ActionPurchaseView, 0) {
		return Purchase{}, fmt.Errorf("%w: viewing purchases requires staff access", shared.ErrForbidden)
	}
	return s.repo.GetPurchase(ctx, id)
}

// List returns all purchases, newest first, soft-deleted included.
func (s *Service) List(ctx context.Context, actor shared.Principal) ([]Purchase, error) {
	if !shared.Allow(actor, shared.ActionPurchaseView, 0) {
		return nil, fmt.Errorf("%w: viewing purchases requires staff access", shared.ErrForbidden)
	}
	return s.repo.ListPurchases(ctx)
}
