package catalog

import (
	"context"
	"fmt"

	"github.com/velora-pos/velora/internal/shared"
	"github.com/velora-pos/velora/internal/stockledger"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	CreateProduct(ctx context.Context, p Product) (int64, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	ListPublished(ctx context.Context) ([]Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	CreateCategory(ctx context.Context, c Category) (int64, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

// Service coordinates catalog operations, including the publication gate.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateProduct registers a product. Stock always starts at zero; only
// purchases raise it.
func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest, actor shared.Principal) (Product, error) {
	if !shared.Allow(actor, shared.ActionCatalogEdit, 0) {
		return Product{}, fmt.Errorf("%w: catalog edit requires an administrator", shared.ErrForbidden)
	}
	p := Product{
		Name:        req.Name,
		Description: req.Description,
		SalePrice:   req.SalePrice,
		CategoryID:  req.CategoryID,
	}
	id, err := s.repo.CreateProduct(ctx, p)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return s.repo.GetProduct(ctx, id)
}

// UpdateProduct applies partial updates. When the update touches stock the
// published quantity is re-clamped so it never exceeds the new stock.
func (s *Service) UpdateProduct(ctx context.Context, id int64, req UpdateProductRequest, actor shared.Principal) (Product, error) {
	if !shared.Allow(actor, shared.ActionCatalogEdit, 0) {
		return Product{}, fmt.Errorf("%w: catalog edit requires an administrator", shared.ErrForbidden)
	}
	var updated Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetProductForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if req.Name != nil {
			p.Name = *req.Name
		}
		if req.Description != nil {
			p.Description = req.Description
		}
		if req.SalePrice != nil {
			p.SalePrice = *req.SalePrice
		}
		if req.CategoryID != nil {
			p.CategoryID = req.CategoryID
		}
		if req.Stock != nil {
			p.Stock = *req.Stock
		}
		lvl := stockledger.Level{OnHand: p.Stock, Published: p.PublishedQty}
		lvl.Clamp()
		p.Stock = lvl.OnHand
		p.PublishedQty = lvl.Published
		p.Published = lvl.IsPublished()
		if err := tx.UpdateProduct(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	return updated, nil
}

// Publish exposes qty additional units for storefront sale.
func (s *Service) Publish(ctx context.Context, id int64, qty int64, actor shared.Principal) (Product, error) {
	if !shared.Allow(actor, shared.ActionCatalogPublish, 0) {
		return Product{}, fmt.Errorf("%w: publishing requires an administrator", shared.ErrForbidden)
	}
	var updated Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetProductForUpdate(ctx, id)
		if err != nil {
			return err
		}
		lvl := stockledger.Level{OnHand: p.Stock, Published: p.PublishedQty}
		if err := lvl.Publish(qty); err != nil {
			annotateProduct(err, p.ID)
			return err
		}
		if err := tx.UpdateProductStock(ctx, p.ID, lvl); err != nil {
			return err
		}
		p.PublishedQty = lvl.Published
		p.Published = lvl.IsPublished()
		updated = p
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	return updated, nil
}

// Unpublish withdraws the product from the storefront entirely.
func (s *Service) Unpublish(ctx context.Context, id int64, actor shared.Principal) (Product, error) {
	if !shared.Allow(actor, shared.ActionCatalogPublish, 0) {
		return Product{}, fmt.Errorf("%w: publishing requires an administrator", shared.ErrForbidden)
	}
	var updated Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetProductForUpdate(ctx, id)
		if err != nil {
			return err
		}
		lvl := stockledger.Level{OnHand: p.Stock, Published: p.PublishedQty}
		lvl.Unpublish()
		if err := tx.UpdateProductStock(ctx, p.ID, lvl); err != nil {
			return err
		}
		p.PublishedQty = 0
		p.Published = false
		updated = p
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	return updated, nil
}

// DeleteProduct removes a product without transaction history.
func (s *Service) DeleteProduct(ctx context.Context, id int64, actor shared.Principal) error {
	if !shared.Allow(actor, shared.ActionCatalogEdit, 0) {
		return fmt.Errorf("%w: catalog edit requires an administrator", shared.ErrForbidden)
	}
	return s.repo.DeleteProduct(ctx, id)
}

// GetProduct returns one product.
func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ListProducts returns the full catalog.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.ListProducts(ctx)
}

// ListPublished returns products visible on the storefront.
func (s *Service) ListPublished(ctx context.Context) ([]Product, error) {
	return s.repo.ListPublished(ctx)
}

// CreateCategory registers a category.
func (s *Service) CreateCategory(ctx context.Context, req CreateCategoryRequest, actor shared.Principal) (Category, error) {
	if !shared.Allow(actor, shared.ActionCatalogEdit, 0) {
		return Category{}, fmt.Errorf("%w: catalog edit requires an administrator", shared.ErrForbidden)
	}
	c := Category{Name: req.Name, Description: req.Description}
	id, err := s.repo.CreateCategory(ctx, c)
	if err != nil {
		return Category{}, fmt.Errorf("create category: %w", err)
	}
	c.ID = id
	return c, nil
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// annotateProduct stamps the product id onto ledger errors raised without it.
func annotateProduct(err error, productID int64) {
	switch e := err.(type) {
	case *shared.InsufficientStockError:
		e.ProductID = productID
	case *shared.PublishLimitError:
		e.ProductID = productID
	}
}
