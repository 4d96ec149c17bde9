package sales

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/velora-pos/velora/internal/catalog"
	"github.com/velora-pos/velora/internal/shared"
	"github.com/velora-pos/velora/internal/stockledger"
)

var (
	admin    = shared.Principal{ID: 1, Name: "Admin", Role: shared.RoleAdmin}
	customer = shared.Principal{ID: 42, Name: "Dana", Role: shared.RoleCustomer}
)

type memoryRepo struct {
	products map[int64]catalog.Product
	sales    map[int64]*Sale
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products: map[int64]catalog.Product{},
		sales:    map[int64]*Sale{},
		nextID:   1,
	}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: m})
}

func (m *memoryRepo) GetSale(_ context.Context, id int64) (Sale, error) {
	s, ok := m.sales[id]
	if !ok {
		return Sale{}, fmt.Errorf("%w: sale %d", shared.ErrNotFound, id)
	}
	return *s, nil
}

func (m *memoryRepo) ListSales(context.Context) ([]Sale, error) {
	out := make([]Sale, 0, len(m.sales))
	for _, s := range m.sales {
		out = append(out, *s)
	}
	return out, nil
}

func (m *memoryRepo) ListByCustomer(_ context.Context, customerID int64) ([]Sale, error) {
	var out []Sale
	for _, s := range m.sales {
		if s.CustomerID == customerID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memoryRepo) ListByDay(_ context.Context, day time.Time) ([]Sale, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	var out []Sale
	for _, s := range m.sales {
		if !s.CreatedAt.Before(start) && s.CreatedAt.Before(end) {
			out = append(out, *s)
		}
	}
	return out, nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) InsertSale(_ context.Context, s Sale) (int64, error) {
	id := t.repo.nextID
	t.repo.nextID++
	stored := s
	stored.ID = id
	stored.CreatedAt = time.Now()
	t.repo.sales[id] = &stored
	return id, nil
}

func (t *memoryTx) InsertLine(_ context.Context, line SaleLine) (int64, error) {
	s, ok := t.repo.sales[line.SaleID]
	if !ok {
		return 0, fmt.Errorf("%w: sale %d", shared.ErrNotFound, line.SaleID)
	}
	line.ID = t.repo.nextID
	t.repo.nextID++
	s.Lines = append(s.Lines, line)
	return line.ID, nil
}

func (t *memoryTx) UpdateSaleTotal(_ context.Context, saleID int64, total float64) error {
	s, ok := t.repo.sales[saleID]
	if !ok {
		return fmt.Errorf("%w: sale %d", shared.ErrNotFound, saleID)
	}
	s.Total = total
	return nil
}

func (t *memoryTx) GetSaleForUpdate(ctx context.Context, id int64) (Sale, error) {
	return t.repo.GetSale(ctx, id)
}

func (t *memoryTx) UpdateSaleStatus(_ context.Context, id int64, status Status) error {
	s, ok := t.repo.sales[id]
	if !ok {
		return fmt.Errorf("%w: sale %d", shared.ErrNotFound, id)
	}
	s.Status = status
	return nil
}

func (t *memoryTx) DeleteSaleLines(_ context.Context, saleID int64) error {
	s, ok := t.repo.sales[saleID]
	if !ok {
		return fmt.Errorf("%w: sale %d", shared.ErrNotFound, saleID)
	}
	s.Lines = nil
	return nil
}

func (t *memoryTx) DeleteSale(_ context.Context, id int64) error {
	if _, ok := t.repo.sales[id]; !ok {
		return fmt.Errorf("%w: sale %d", shared.ErrNotFound, id)
	}
	delete(t.repo.sales, id)
	return nil
}

func (t *memoryTx) GetSaleLines(_ context.Context, saleID int64) ([]SaleLine, error) {
	s, ok := t.repo.sales[saleID]
	if !ok {
		return nil, fmt.Errorf("%w: sale %d", shared.ErrNotFound, saleID)
	}
	return append([]SaleLine(nil), s.Lines...), nil
}

func (t *memoryTx) GetProductForUpdate(_ context.Context, id int64) (catalog.Product, error) {
	p, ok := t.repo.products[id]
	if !ok {
		return catalog.Product{}, fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	return p, nil
}

func (t *memoryTx) UpdateProductStock(_ context.Context, id int64, lvl stockledger.Level) error {
	p, ok := t.repo.products[id]
	if !ok {
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
	}
	p.Stock = lvl.OnHand
	p.PublishedQty = lvl.Published
	p.Published = lvl.IsPublished()
	t.repo.products[id] = p
	return nil
}

type staticCustomers struct {
	known map[int64]bool
}

func (s staticCustomers) Exists(_ context.Context, id int64) (bool, error) {
	return s.known[id], nil
}

func (s staticCustomers) DisplayName(_ context.Context, id int64) (string, error) {
	if !s.known[id] {
		return "", fmt.Errorf("%w: customer %d", shared.ErrNotFound, id)
	}
	return fmt.Sprintf("Customer %d", id), nil
}

type recordingSink struct {
	events []Event
}

func (r *recordingSink) Emit(_ context.Context, ev Event) error {
	r.events = append(r.events, ev)
	return nil
}

func seed(t *testing.T) (*Service, *memoryRepo, *recordingSink) {
	t.Helper()
	repo := newMemoryRepo()
	repo.products[10] = catalog.Product{ID: 10, Name: "Espresso Beans", SalePrice: 12, Stock: 5, PublishedQty: 5, Published: true}
	repo.products[20] = catalog.Product{ID: 20, Name: "Filter Paper", SalePrice: 5, Stock: 3}
	sink := &recordingSink{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(logger, repo, staticCustomers{known: map[int64]bool{42: true}}, sink)
	return svc, repo, sink
}

func TestRecordDecreasesStock(t *testing.T) {
	svc, repo, sink := seed(t)
	address := "12 Harbor Lane"
	req := RecordSaleRequest{
		PaymentType:     PaymentCash,
		ShippingAddress: &address,
		Lines: []SaleLineRequest{
			{ProductID: 10, Qty: 2},
			{ProductID: 20, Qty: 1},
		},
	}

	sale, err := svc.Record(context.Background(), req, customer)
	require.NoError(t, err)
	require.Equal(t, customer.ID, sale.CustomerID)
	require.Equal(t, StatusPending, sale.Status)
	require.NotNil(t, sale.ShippingAddress)
	require.Equal(t, address, *sale.ShippingAddress)
	require.InDelta(t, 29.0, sale.Total, 0.001)
	require.Equal(t, "Espresso Beans", sale.Lines[0].ProductName)
	require.Equal(t, int64(3), repo.products[10].Stock)
	// The published figure cannot exceed what is on hand.
	require.Equal(t, int64(3), repo.products[10].PublishedQty)
	require.Equal(t, int64(2), repo.products[20].Stock)

	require.Len(t, sink.events, 1)
	require.Equal(t, EventNewSale, sink.events[0].Kind)
	require.Equal(t, sale.ID, sink.events[0].SaleID)
	require.Equal(t, "Customer 42", sink.events[0].CustomerName)
}

func TestRecordRejectsOversell(t *testing.T) {
	svc, _, sink := seed(t)
	req := RecordSaleRequest{
		PaymentType: PaymentTransfer,
		Lines:       []SaleLineRequest{{ProductID: 20, Qty: 4}},
	}

	_, err := svc.Record(context.Background(), req, customer)
	var stockErr *shared.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, int64(20), stockErr.ProductID)
	require.Equal(t, int64(4), stockErr.Requested)
	require.Equal(t, int64(3), stockErr.Available)
	require.Empty(t, sink.events)
}

func TestRecordPinsCustomerToActor(t *testing.T) {
	svc, _, _ := seed(t)
	req := RecordSaleRequest{
		CustomerID:  999,
		PaymentType: PaymentCash,
		Lines:       []SaleLineRequest{{ProductID: 10, Qty: 1}},
	}
	sale, err := svc.Record(context.Background(), req, customer)
	require.NoError(t, err)
	require.Equal(t, customer.ID, sale.CustomerID)
}

func TestRecordByAdminNeedsKnownCustomer(t *testing.T) {
	svc, _, _ := seed(t)
	req := RecordSaleRequest{
		CustomerID:  999,
		PaymentType: PaymentCash,
		Lines:       []SaleLineRequest{{ProductID: 10, Qty: 1}},
	}
	_, err := svc.Record(context.Background(), req, admin)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateStatusLifecycle(t *testing.T) {
	svc, _, sink := seed(t)
	sale, err := svc.Record(context.Background(), RecordSaleRequest{
		PaymentType: PaymentCash,
		Lines:       []SaleLineRequest{{ProductID: 10, Qty: 1}},
	}, customer)
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), sale.ID, StatusPaid, admin)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, updated.Status)

	updated, err = svc.UpdateStatus(context.Background(), sale.ID, StatusDelivered, admin)
	require.NoError(t, err)
	require.Equal(t, StatusDelivered, updated.Status)

	// Same state again is not a transition.
	_, err = svc.UpdateStatus(context.Background(), sale.ID, StatusDelivered, admin)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	require.Len(t, sink.events, 3)
	require.Equal(t, EventStatusChanged, sink.events[1].Kind)
	require.Equal(t, StatusPaid, sink.events[1].NewStatus)
}

func TestStatusCancelOfPaidSaleRestoresStock(t *testing.T) {
	svc, repo, sink := seed(t)
	sale, err := svc.Record(context.Background(), RecordSaleRequest{
		PaymentType: PaymentCash,
		Lines:       []SaleLineRequest{{ProductID: 10, Qty: 2}},
	}, customer)
	require.NoError(t, err)
	require.Equal(t, int64(3), repo.products[10].Stock)

	_, err = svc.UpdateStatus(context.Background(), sale.ID, StatusPaid, admin)
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), sale.ID, StatusCancelled, admin)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, updated.Status)
	require.Equal(t, int64(5), repo.products[10].Stock)

	// Cancelled is terminal: a repeated cancel must not restore again.
	_, err = svc.UpdateStatus(context.Background(), sale.ID, StatusCancelled, admin)
	require.ErrorIs(t, err, shared.ErrInvalidState)
	require.Equal(t, int64(5), repo.products[10].Stock)

	require.Equal(t, EventSaleCancelled, sink.events[len(sink.events)-1].Kind)
	require.Equal(t, StatusPaid, sink.events[len(sink.events)-1].OldStatus)
}

func TestCancelRestoresStockOnce(t *testing.T) {
	svc, repo, sink := seed(t)
	sale, err := svc.Record(context.Background(), RecordSaleRequest{
		PaymentType: PaymentCash,
		Lines:       []SaleLineRequest{{ProductID: 20, Qty: 2}},
	}, customer)
	require.NoError(t, err)
	require.Equal(t, int64(1), repo.products[20].Stock)

	cancelled, err := svc.Cancel(context.Background(), sale.ID, customer)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.Equal(t, int64(3), repo.products[20].Stock)

	// A second cancel must not restore again.
	_, err = svc.Cancel(context.Background(), sale.ID, customer)
	require.ErrorIs(t, err, shared.ErrInvalidState)
	require.Equal(t, int64(3), repo.products[20].Stock)

	// Nor may an admin route around it via a status update.
	_, err = svc.UpdateStatus(context.Background(), sale.ID, StatusCancelled, admin)
	require.ErrorIs(t, err, shared.ErrInvalidState)
	require.Equal(t, int64(3), repo.products[20].Stock)

	require.Len(t, sink.events, 2)
	require.Equal(t, EventSaleCancelled, sink.events[1].Kind)
}

func TestCancelOnlyPending(t *testing.T) {
	svc, _, _ := seed(t)
	sale, err := svc.Record(context.Background(), RecordSaleRequest{
		PaymentType: PaymentCash,
		Lines:       []SaleLineRequest{{ProductID: 10, Qty: 1}},
	}, customer)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), sale.ID, StatusPaid, admin)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), sale.ID, customer)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestCancelForeignSaleForbidden(t *testing.T) {
	svc, _, _ := seed(t)
	sale, err := svc.Record(context.Background(), RecordSaleRequest{
		CustomerID:  42,
		PaymentType: PaymentCash,
		Lines:       []SaleLineRequest{{ProductID: 10, Qty: 1}},
	}, admin)
	require.NoError(t, err)

	stranger := shared.Principal{ID: 77, Name: "Eve", Role: shared.RoleCustomer}
	_, err = svc.Cancel(context.Background(), sale.ID, stranger)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestRemoveRestoresStock(t *testing.T) {
	svc, repo, _ := seed(t)
	sale, err := svc.Record(context.Background(), RecordSaleRequest{
		PaymentType: PaymentCash,
		Lines:       []SaleLineRequest{{ProductID: 10, Qty: 3}},
	}, customer)
	require.NoError(t, err)
	require.Equal(t, int64(2), repo.products[10].Stock)

	require.NoError(t, svc.Remove(context.Background(), sale.ID, admin))
	require.Equal(t, int64(5), repo.products[10].Stock)

	_, err = svc.Get(context.Background(), sale.ID, admin)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetHidesForeignSales(t *testing.T) {
	svc, _, _ := seed(t)
	sale, err := svc.Record(context.Background(), RecordSaleRequest{
		PaymentType: PaymentCash,
		Lines:       []SaleLineRequest{{ProductID: 10, Qty: 1}},
	}, customer)
	require.NoError(t, err)

	stranger := shared.Principal{ID: 77, Name: "Eve", Role: shared.RoleCustomer}
	_, err = svc.Get(context.Background(), sale.ID, stranger)
	require.ErrorIs(t, err, shared.ErrForbidden)

	got, err := svc.Get(context.Background(), sale.ID, customer)
	require.NoError(t, err)
	require.Equal(t, sale.ID, got.ID)
}
