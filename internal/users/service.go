package users

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/velora-pos/velora/internal/shared"
)

// RepositoryPort abstracts user persistence for the service.
type RepositoryPort interface {
	Create(ctx context.Context, u User) (int64, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	ListAdminIDs(ctx context.Context) ([]int64, error)
}

// Service manages accounts.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Register creates an account. Self-registration always yields a CUSTOMER;
// only admin-class actors may assign another role.
func (s *Service) Register(ctx context.Context, req CreateUserRequest, actor shared.Principal) (User, error) {
	role := shared.RoleCustomer
	if req.Role != "" && req.Role != shared.RoleCustomer {
		if !actor.Role.IsAdminClass() {
			return User{}, fmt.Errorf("%w: assigning role %s requires an administrator", shared.ErrForbidden, req.Role)
		}
		if !req.Role.Valid() {
			return User{}, fmt.Errorf("%w: role %q", shared.ErrInvalidArgument, req.Role)
		}
		role = req.Role
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	u := User{Name: req.Name, Email: req.Email, PasswordHash: string(hash), Role: role, Active: true}
	u.ID, err = s.repo.Create(ctx, u)
	if err != nil {
		return User{}, err
	}
	u.PasswordHash = ""
	return u, nil
}

// GetByID returns one account.
func (s *Service) GetByID(ctx context.Context, id int64) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// Exists reports whether an active account exists. Consumed by the sales
// module when staff record a sale for a named customer.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// ListAdminIDs feeds the notification fan-out.
func (s *Service) ListAdminIDs(ctx context.Context) ([]int64, error) {
	return s.repo.ListAdminIDs(ctx)
}
