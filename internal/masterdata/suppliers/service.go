package suppliers

import (
	"context"
	"fmt"

	"github.com/velora-pos/velora/internal/shared"
)

// RepositoryPort abstracts supplier persistence for the service.
type RepositoryPort interface {
	Create(ctx context.Context, s Supplier) (int64, error)
	Get(ctx context.Context, id int64) (Supplier, error)
	List(ctx context.Context) ([]Supplier, error)
	Update(ctx context.Context, s Supplier) error
	Exists(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	repo RepositoryPort
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateSupplierRequest, actor shared.Principal) (Supplier, error) {
	if !shared.Allow(actor, shared.ActionPurchaseEdit, 0) {
		return Supplier{}, fmt.Errorf("%w: supplier management requires an administrator", shared.ErrForbidden)
	}
	supplier := Supplier{
		Name:     req.Name,
		Contact:  req.Contact,
		Phone:    req.Phone,
		Email:    req.Email,
		Address:  req.Address,
		IsActive: true,
	}
	id, err := s.repo.Create(ctx, supplier)
	if err != nil {
		return Supplier{}, fmt.Errorf("create supplier: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateSupplierRequest, actor shared.Principal) (Supplier, error) {
	if !shared.Allow(actor, shared.ActionPurchaseEdit, 0) {
		return Supplier{}, fmt.Errorf("%w: supplier management requires an administrator", shared.ErrForbidden)
	}
	supplier, err := s.repo.Get(ctx, id)
	if err != nil {
		return Supplier{}, err
	}
	if req.Name != nil {
		supplier.Name = *req.Name
	}
	if req.Contact != nil {
		supplier.Contact = req.Contact
	}
	if req.Phone != nil {
		supplier.Phone = req.Phone
	}
	if req.Email != nil {
		supplier.Email = req.Email
	}
	if req.Address != nil {
		supplier.Address = req.Address
	}
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, supplier); err != nil {
		return Supplier{}, err
	}
	return supplier, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Supplier, error) {
	return s.repo.List(ctx)
}

// Exists is consumed by the purchases module to verify supplier references.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}
