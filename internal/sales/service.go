package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/velora-pos/velora/internal/shared"
	"github.com/velora-pos/velora/internal/stockledger"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetSale(ctx context.Context, id int64) (Sale, error)
	ListSales(ctx context.Context) ([]Sale, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]Sale, error)
	ListByDay(ctx context.Context, day time.Time) ([]Sale, error)
}

// CustomerLookup verifies customer references against the user store and
// resolves display names for outgoing events.
type CustomerLookup interface {
	Exists(ctx context.Context, id int64) (bool, error)
	DisplayName(ctx context.Context, id int64) (string, error)
}

// Service coordinates sale recording and lifecycle transitions.
type Service struct {
	logger    *slog.Logger
	repo      RepositoryPort
	customers CustomerLookup
	events    EventSink
}

// NewService builds Service. events may be nil when no notification
// pipeline is attached, e.g. in tests.
func NewService(logger *slog.Logger, repo RepositoryPort, customers CustomerLookup, events EventSink) *Service {
	return &Service{logger: logger, repo: repo, customers: customers, events: events}
}

// Record creates a sale in PENDING state, decreasing each product's stock
// under a row lock. Any line failing the stock check aborts the whole sale.
func (s *Service) Record(ctx context.Context, req RecordSaleRequest, actor shared.Principal) (Sale, error) {
	if !shared.Allow(actor, shared.ActionSaleCreate, 0) {
		return Sale{}, fmt.Errorf("%w: unknown role %q", shared.ErrForbidden, actor.Role)
	}
	if !req.PaymentType.Valid() {
		return Sale{}, fmt.Errorf("%w: payment type %q", shared.ErrInvalidArgument, req.PaymentType)
	}

	// Customers always buy for themselves. Staff and admins record on
	// behalf of a named customer.
	customerID := req.CustomerID
	if actor.Role == shared.RoleCustomer {
		customerID = actor.ID
	} else {
		if customerID <= 0 {
			return Sale{}, fmt.Errorf("%w: customerId is required", shared.ErrInvalidArgument)
		}
		ok, err := s.customers.Exists(ctx, customerID)
		if err != nil {
			return Sale{}, fmt.Errorf("verify customer: %w", err)
		}
		if !ok {
			return Sale{}, fmt.Errorf("%w: customer %d", shared.ErrNotFound, customerID)
		}
	}

	sale := Sale{
		CustomerID:      customerID,
		Status:          StatusPending,
		PaymentType:     req.PaymentType,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}
		sale.ID = id

		var total float64
		for _, lineReq := range req.Lines {
			product, err := tx.GetProductForUpdate(ctx, lineReq.ProductID)
			if err != nil {
				return err
			}
			lvl := stockledger.Level{OnHand: product.Stock, Published: product.PublishedQty}
			if err := lvl.Decrease(lineReq.Qty); err != nil {
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

			line := SaleLine{
				SaleID:      sale.ID,
				ProductID:   product.ID,
				ProductName: product.Name,
				Qty:         lineReq.Qty,
				UnitPrice:   product.SalePrice,
				Subtotal:    float64(lineReq.Qty) * product.SalePrice,
			}
			lineID, err := tx.InsertLine(ctx, line)
			if err != nil {
				return fmt.Errorf("insert sale line: %w", err)
			}
			line.ID = lineID
			sale.Lines = append(sale.Lines, line)
			total += line.Subtotal
		}

		if err := tx.UpdateSaleTotal(ctx, sale.ID, total); err != nil {
			return fmt.Errorf("update sale total: %w", err)
		}
		sale.Total = total
		return nil
	})
	if err != nil {
		return Sale{}, err
	}

	s.emit(ctx, Event{
		Kind:         EventNewSale,
		SaleID:       sale.ID,
		CustomerID:   sale.CustomerID,
		CustomerName: s.customerName(ctx, sale.CustomerID),
		Total:        sale.Total,
		NewStatus:    StatusPending,
	})
	return sale, nil
}

// customerName resolves a display name for event payloads. Resolution is
// best effort: the sale is already committed when this runs.
func (s *Service) customerName(ctx context.Context, id int64) string {
	name, err := s.customers.DisplayName(ctx, id)
	if err != nil {
		s.logger.Warn("resolve customer name", slog.Int64("customer_id", id), slog.Any("error", err))
		return ""
	}
	return name
}

// UpdateStatus moves a sale to a new state. Moving to CANCELLED restores
// the line stock exactly once; a cancelled sale accepts no further moves.
func (s *Service) UpdateStatus(ctx context.Context, id int64, next Status, actor shared.Principal) (Sale, error) {
	if !shared.Allow(actor, shared.ActionSaleStatusUpdate, 0) {
		return Sale{}, fmt.Errorf("%w: updating sale status requires an administrator", shared.ErrForbidden)
	}
	if !next.Valid() {
		return Sale{}, fmt.Errorf("%w: status %q", shared.ErrInvalidArgument, next)
	}

	var sale Sale
	var old Status
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		sale, err = tx.GetSaleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		old = sale.Status
		if !sale.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: sale %d cannot move from %s to %s", shared.ErrInvalidState, id, sale.Status, next)
		}
		if next == StatusCancelled {
			if err := s.restoreStock(ctx, tx, id); err != nil {
				return err
			}
		}
		if err := tx.UpdateSaleStatus(ctx, id, next); err != nil {
			return err
		}
		sale.Status = next
		return nil
	})
	if err != nil {
		return Sale{}, err
	}

	kind := EventStatusChanged
	if next == StatusCancelled {
		kind = EventSaleCancelled
	}
	s.emit(ctx, Event{Kind: kind, SaleID: sale.ID, CustomerID: sale.CustomerID, Total: sale.Total, OldStatus: old, NewStatus: next})
	return sale, nil
}

// Cancel lets a customer withdraw their own pending sale. Admins may cancel
// any pending sale through the same path.
func (s *Service) Cancel(ctx context.Context, id int64, actor shared.Principal) (Sale, error) {
	var sale Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		sale, err = tx.GetSaleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !shared.Allow(actor, shared.ActionSaleCancel, sale.CustomerID) {
			return fmt.Errorf("%w: sale %d belongs to another customer", shared.ErrForbidden, id)
		}
		if sale.Status != StatusPending {
			return fmt.Errorf("%w: only pending sales can be cancelled, sale %d is %s", shared.ErrInvalidState, id, sale.Status)
		}
		if err := s.restoreStock(ctx, tx, id); err != nil {
			return err
		}
		if err := tx.UpdateSaleStatus(ctx, id, StatusCancelled); err != nil {
			return err
		}
		sale.Status = StatusCancelled
		return nil
	})
	if err != nil {
		return Sale{}, err
	}

	s.emit(ctx, Event{Kind: EventSaleCancelled, SaleID: sale.ID, CustomerID: sale.CustomerID, Total: sale.Total, OldStatus: StatusPending, NewStatus: StatusCancelled})
	return sale, nil
}

// Remove hard-deletes a sale and returns its line quantities to stock.
func (s *Service) Remove(ctx context.Context, id int64, actor shared.Principal) error {
	if !shared.Allow(actor, shared.ActionSaleRemove, 0) {
		return fmt.Errorf("%w: removing sales requires an administrator", shared.ErrForbidden)
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetSaleForUpdate(ctx, id); err != nil {
			return err
		}
		if err := s.restoreStock(ctx, tx, id); err != nil {
			return err
		}
		if err := tx.DeleteSaleLines(ctx, id); err != nil {
			return err
		}
		return tx.DeleteSale(ctx, id)
	})
}

func (s *Service) restoreStock(ctx context.Context, tx TxRepository, saleID int64) error {
	lines, err := tx.GetSaleLines(ctx, saleID)
	if err != nil {
		return err
	}
	for _, line := range lines {
		product, err := tx.GetProductForUpdate(ctx, line.ProductID)
		if err != nil {
			// The product may be gone; nothing to restore then.
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return err
		}
		lvl := stockledger.Level{OnHand: product.Stock, Published: product.PublishedQty}
		if err := lvl.Increase(line.Qty); err != nil {
			return err
		}
		if err := tx.UpdateProductStock(ctx, product.ID, lvl); err != nil {
			return err
		}
	}
	return nil
}

// Get returns one sale. Customers only see their own.
func (s *Service) Get(ctx context.Context, id int64, actor shared.Principal) (Sale, error) {
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return Sale{}, err
	}
	if !shared.Allow(actor, shared.ActionSaleView, sale.CustomerID) {
		return Sale{}, fmt.Errorf("%w: sale %d belongs to another customer", shared.ErrForbidden, id)
	}
	return sale, nil
}

// List returns all sales, admin only.
func (s *Service) List(ctx context.Context, actor shared.Principal) ([]Sale, error) {
	if !shared.Allow(actor, shared.ActionSaleList, 0) {
		return nil, fmt.Errorf("%w: listing sales requires an administrator", shared.ErrForbidden)
	}
	return s.repo.ListSales(ctx)
}

// ListMine returns the acting customer's own sales.
func (s *Service) ListMine(ctx context.Context, actor shared.Principal) ([]Sale, error) {
	return s.repo.ListByCustomer(ctx, actor.ID)
}

// ListByDay returns the sales of one calendar day, admin only.
func (s *Service) ListByDay(ctx context.Context, day time.Time, actor shared.Principal) ([]Sale, error) {
	if !shared.Allow(actor, shared.ActionSaleList, 0) {
		return nil, fmt.Errorf("%w: listing sales requires an administrator", shared.ErrForbidden)
	}
	return s.repo.ListByDay(ctx, day)
}

func (s *Service) emit(ctx context.Context, ev Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(ctx, ev); err != nil {
		s.logger.Error("emit sale event",
			slog.String("kind", string(ev.Kind)),
			slog.Int64("sale_id", ev.SaleID),
			slog.String("error", err.Error()),
		)
	}
}
