package purchases

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/velora-pos/velora/internal/catalog"
	"github.com/velora-pos/velora/internal/shared"
	"github.com/velora-pos/velora/internal/stockledger"
)

var admin = shared.Principal{ID: 1, Name: "Admin", Role: shared.RoleAdmin}

type memoryRepo struct {
	products  map[int64]catalog.Product
	purchases map[int64]*Purchase
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products:  map[int64]catalog.Product{},
		purchases: map[int64]*Purchase{},
		nextID:    1,
	}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: m})
}

func (m *memoryRepo) GetPurchase(_ context.Context, id int64) (Purchase, error) {
	p, ok := m.purchases[id]
	if !ok {
		return Purchase{}, fmt.Errorf("%w: purchase %d", shared.ErrNotFound, id)
	}
	return *p, nil
}

func (m *memoryRepo) ListPurchases(context.Context) ([]Purchase, error) {
	out := make([]Purchase, 0, len(m.purchases))
	for _, p := range m.purchases {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memoryRepo) SetActive(_ context.Context, id int64, active bool) error {
	p, ok := m.purchases[id]
	if !ok {
		return fmt.Errorf("%w: purchase %d", shared.ErrNotFound, id)
	}
	p.Active = active
	return nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) InsertPurchase(_ context.Context, p Purchase) (int64, error) {
	id := t.repo.nextID
	t.repo.nextID++
	stored := p
	stored.ID = id
	t.repo.purchases[id] = &stored
	return id, nil
}

func (t *memoryTx) InsertLine(_ context.Context, line PurchaseLine) (int64, error) {
	p, ok := t.repo.purchases[line.PurchaseID]
	if !ok {
		return 0, fmt.Errorf("%w: purchase %d", shared.ErrNotFound, line.PurchaseID)
	}
	line.ID = t.repo.nextID
	t.repo.nextID++
	p.Lines = append(p.Lines, line)
	return line.ID, nil
}

func (t *memoryTx) GetLine(_ context.Context, lineID int64) (PurchaseLine, error) {
	for _, p := range t.repo.purchases {
		for _, line := range p.Lines {
			if line.ID == lineID {
				return line, nil
			}
		}
	}
	return PurchaseLine{}, fmt.Errorf("%w: purchase line %d", shared.ErrNotFound, lineID)
}

func (t *memoryTx) GetPurchaseForUpdate(_ context.Context, id int64) (Purchase, error) {
	p, ok := t.repo.purchases[id]
	if !ok {
		return Purchase{}, fmt.Errorf("%w: purchase %d", shared.ErrNotFound, id)
	}
	return *p, nil
}

func (t *memoryTx) UpdateTotal(_ context.Context, purchaseID int64, total float64) error {
	p, ok := t.repo.purchases[purchaseID]
	if !ok {
		return fmt.Errorf("%w: purchase %d", shared.ErrNotFound, purchaseID)
	}
	p.Total = total
	return nil
}

func (t *memoryTx) DeleteLine(_ context.Context, lineID int64) error {
	for _, p := range t.repo.purchases {
		for i, line := range p.Lines {
			if line.ID == lineID {
				p.Lines = append(p.Lines[:i], p.Lines[i+1:]...)
				return nil
			}
		}
	}
	return fmt.Errorf("%w: purchase line %d", shared.ErrNotFound, lineID)
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

type staticSuppliers struct {
	known map[int64]bool
}

func (s staticSuppliers) Exists(_ context.Context, id int64) (bool, error) {
	return s.known[id], nil
}

func seed(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	repo.products[10] = catalog.Product{ID: 10, Name: "Espresso Beans", SalePrice: 12, Stock: 5}
	repo.products[20] = catalog.Product{ID: 20, Name: "Filter Paper", SalePrice: 5, Stock: 0}
	return NewService(repo, staticSuppliers{known: map[int64]bool{7: true}}), repo
}

func TestRecordPurchase(t *testing.T) {
	svc, repo := seed(t)
	cost := 10.0
	req := RecordPurchaseRequest{
		SupplierID:   7,
		PurchaseDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Lines: []PurchaseLineRequest{
			{ProductID: 10, Qty: 3, UnitCost: &cost},
			{ProductID: 20, Qty: 2},
		},
	}

	p, err := svc.Record(context.Background(), req, admin)
	require.NoError(t, err)
	require.Len(t, p.Lines, 2)
	// Second line had no cost, so the product sale price (5) stands in.
	require.InDelta(t, 40.0, p.Total, 0.001)
	require.InDelta(t, 30.0, p.Lines[0].Subtotal, 0.001)
	require.InDelta(t, 10.0, p.Lines[1].Subtotal, 0.001)
	require.Equal(t, int64(8), repo.products[10].Stock)
	require.Equal(t, int64(2), repo.products[20].Stock)
}

func TestRecordRejectsUnknownSupplier(t *testing.T) {
	svc, _ := seed(t)
	req := RecordPurchaseRequest{
		SupplierID:   99,
		PurchaseDate: time.Now(),
		Lines:        []PurchaseLineRequest{{ProductID: 10, Qty: 1}},
	}
	_, err := svc.Record(context.Background(), req, admin)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRecordRequiresAdmin(t *testing.T) {
	svc, _ := seed(t)
	staff := shared.Principal{ID: 5, Name: "Clerk", Role: shared.RoleStaff}
	req := RecordPurchaseRequest{
		SupplierID:   7,
		PurchaseDate: time.Now(),
		Lines:        []PurchaseLineRequest{{ProductID: 10, Qty: 1}},
	}
	_, err := svc.Record(context.Background(), req, staff)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestRemoveLineReversesStock(t *testing.T) {
	svc, repo := seed(t)
	req := RecordPurchaseRequest{
		SupplierID:   7,
		PurchaseDate: time.Now(),
		Lines: []PurchaseLineRequest{
			{ProductID: 10, Qty: 3},
			{ProductID: 20, Qty: 2},
		},
	}
	p, err := svc.Record(context.Background(), req, admin)
	require.NoError(t, err)
	require.Equal(t, int64(8), repo.products[10].Stock)

	err = svc.RemoveLine(context.Background(), p.Lines[0].ID, admin)
	require.NoError(t, err)
	require.Equal(t, int64(5), repo.products[10].Stock)

	stored, err := svc.Get(context.Background(), p.ID, admin)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	require.InDelta(t, 10.0, stored.Total, 0.001)
}

func TestRemoveLineClampsPublished(t *testing.T) {
	svc, repo := seed(t)
	req := RecordPurchaseRequest{
		SupplierID:   7,
		PurchaseDate: time.Now(),
		Lines:        []PurchaseLineRequest{{ProductID: 20, Qty: 4}},
	}
	p, err := svc.Record(context.Background(), req, admin)
	require.NoError(t, err)

	// Publish everything that was just received, then reverse the line.
	prod := repo.products[20]
	prod.PublishedQty = 4
	prod.Published = true
	repo.products[20] = prod

	err = svc.RemoveLine(context.Background(), p.Lines[0].ID, admin)
	require.NoError(t, err)
	require.Equal(t, int64(0), repo.products[20].Stock)
	require.Equal(t, int64(0), repo.products[20].PublishedQty)
	require.False(t, repo.products[20].Published)
}

func TestRemoveLineFromDeletedPurchase(t *testing.T) {
	svc, repo := seed(t)
	req := RecordPurchaseRequest{
		SupplierID:   7,
		PurchaseDate: time.Now(),
		Lines:        []PurchaseLineRequest{{ProductID: 10, Qty: 3}},
	}
	p, err := svc.Record(context.Background(), req, admin)
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(context.Background(), p.ID, admin))
	err = svc.RemoveLine(context.Background(), p.Lines[0].ID, admin)
	require.ErrorIs(t, err, shared.ErrInvalidState)
	// Stock keeps the increase: soft delete never reverses.
	require.Equal(t, int64(8), repo.products[10].Stock)
}

func TestRecordAbortsOnMissingProduct(t *testing.T) {
	svc, _ := seed(t)
	req := RecordPurchaseRequest{
		SupplierID:   7,
		PurchaseDate: time.Now(),
		Lines: []PurchaseLineRequest{
			{ProductID: 10, Qty: 3},
			{ProductID: 404, Qty: 1},
		},
	}
	_, err := svc.Record(context.Background(), req, admin)
	require.Error(t, err)
	require.True(t, errors.Is(err, shared.ErrNotFound))
}
