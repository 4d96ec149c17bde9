package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/velora-pos/velora/internal/shared"
	"github.com/velora-pos/velora/internal/stockledger"
)

type memoryRepo struct {
	products   map[int64]Product
	categories map[int64]Category
	nextID     int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[int64]Product), categories: make(map[int64]Category)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) CreateProduct(ctx context.Context, p Product) (int64, error) {
	r.nextID++
	p.ID = r.nextID
	r.products[p.ID] = p
	return p.ID, nil
}

func (r *memoryRepo) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: product", shared.ErrNotFound)
	}
	return p, nil
}

func (r *memoryRepo) ListProducts(ctx context.Context) ([]Product, error) {
	out := []Product{}
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryRepo) ListPublished(ctx context.Context) ([]Product, error) {
	out := []Product{}
	for _, p := range r.products {
		if p.Published && p.PublishedQty > 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryRepo) DeleteProduct(ctx context.Context, id int64) error {
	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("%w: product", shared.ErrNotFound)
	}
	delete(r.products, id)
	return nil
}

func (r *memoryRepo) CreateCategory(ctx context.Context, c Category) (int64, error) {
	r.nextID++
	c.ID = r.nextID
	r.categories[c.ID] = c
	return c.ID, nil
}

func (r *memoryRepo) ListCategories(ctx context.Context) ([]Category, error) {
	out := []Category{}
	for _, c := range r.categories {
		out = append(out, c)
	}
	return out, nil
}

func (tx *memoryTx) GetProductForUpdate(ctx context.Context, id int64) (Product, error) {
	return tx.repo.GetProduct(ctx, id)
}

func (tx *memoryTx) UpdateProduct(ctx context.Context, p Product) error {
	tx.repo.products[p.ID] = p
	return nil
}

func (tx *memoryTx) UpdateProductStock(ctx context.Context, id int64, lvl stockledger.Level) error {
	p := tx.repo.products[id]
	p.Stock = lvl.OnHand
	p.PublishedQty = lvl.Published
	p.Published = lvl.IsPublished()
	tx.repo.products[id] = p
	return nil
}

var admin = shared.Principal{ID: 1, Name: "Admin", Role: shared.RoleAdmin}

func seedProduct(t *testing.T, repo *memoryRepo, stock int64) Product {
	t.Helper()
	id, err := repo.CreateProduct(context.Background(), Product{Name: "Pomade", SalePrice: 15})
	require.NoError(t, err)
	p := repo.products[id]
	p.Stock = stock
	repo.products[id] = p
	return repo.products[id]
}

func TestPublishGate(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	p := seedProduct(t, repo, 10)

	updated, err := svc.Publish(ctx, p.ID, 4, admin)
	require.NoError(t, err)
	require.EqualValues(t, 4, updated.PublishedQty)
	require.True(t, updated.Published)

	_, err = svc.Publish(ctx, p.ID, 7, admin)
	var pubErr *shared.PublishLimitError
	require.ErrorAs(t, err, &pubErr)
	require.EqualValues(t, 6, pubErr.Available)
	require.EqualValues(t, p.ID, pubErr.ProductID)

	// the failed publish must not change anything
	current, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.EqualValues(t, 4, current.PublishedQty)
}

func TestUnpublishResets(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	p := seedProduct(t, repo, 10)

	_, err := svc.Publish(ctx, p.ID, 10, admin)
	require.NoError(t, err)

	updated, err := svc.Unpublish(ctx, p.ID, admin)
	require.NoError(t, err)
	require.EqualValues(t, 0, updated.PublishedQty)
	require.False(t, updated.Published)
}

func TestPublishRequiresAdmin(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	p := seedProduct(t, repo, 10)

	customer := shared.Principal{ID: 9, Role: shared.RoleCustomer}
	_, err := svc.Publish(context.Background(), p.ID, 1, customer)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestUpdateClampsPublishedQty(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	p := seedProduct(t, repo, 10)

	_, err := svc.Publish(ctx, p.ID, 8, admin)
	require.NoError(t, err)

	newStock := int64(5)
	updated, err := svc.UpdateProduct(ctx, p.ID, UpdateProductRequest{Stock: &newStock}, admin)
	require.NoError(t, err)
	require.EqualValues(t, 5, updated.Stock)
	require.EqualValues(t, 5, updated.PublishedQty)
	require.True(t, updated.Published)
}

func TestCreateStartsWithZeroStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	p, err := svc.CreateProduct(context.Background(), CreateProductRequest{Name: "Clay", SalePrice: 12.5}, admin)
	require.NoError(t, err)
	require.EqualValues(t, 0, p.Stock)
	require.False(t, p.Published)
}
