package users

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/velora-pos/velora/internal/shared"
)

type memoryRepo struct {
	users  map[int64]User
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: map[int64]User{}, nextID: 1}
}

func (m *memoryRepo) Create(_ context.Context, u User) (int64, error) {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return 0, fmt.Errorf("%w: email %s", shared.ErrConflict, u.Email)
		}
	}
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	return u.ID, nil
}

func (m *memoryRepo) GetByID(_ context.Context, id int64) (User, error) {
	u, ok := m.users[id]
	if !ok || !u.Active {
		return User{}, fmt.Errorf("%w: user %d", shared.ErrNotFound, id)
	}
	return u, nil
}

func (m *memoryRepo) GetByEmail(_ context.Context, email string) (User, error) {
	for _, u := range m.users {
		if u.Email == email && u.Active {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("%w: email %s", shared.ErrNotFound, email)
}

func (m *memoryRepo) Exists(_ context.Context, id int64) (bool, error) {
	u, ok := m.users[id]
	return ok && u.Active, nil
}

func (m *memoryRepo) ListAdminIDs(_ context.Context) ([]int64, error) {
	var ids []int64
	for id, u := range m.users {
		if u.Role.IsAdminClass() && u.Active {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

var admin = shared.Principal{ID: 1, Name: "Root", Role: shared.RoleAdmin}

func TestRegisterDefaultsToCustomer(t *testing.T) {
	svc := NewService(newMemoryRepo())

	u, err := svc.Register(context.Background(), CreateUserRequest{
		Name:     "Mara Voss",
		Email:    "mara@example.com",
		Password: "hunter2hunter2",
	}, shared.Principal{})
	require.NoError(t, err)
	require.Equal(t, shared.RoleCustomer, u.Role)
	require.Empty(t, u.PasswordHash)
	require.True(t, u.Active)
}

func TestRegisterRejectsSelfEscalation(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Register(context.Background(), CreateUserRequest{
		Name:     "Mara Voss",
		Email:    "mara@example.com",
		Password: "hunter2hunter2",
		Role:     shared.RoleAdmin,
	}, shared.Principal{})
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestRegisterAdminAssignsRole(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	u, err := svc.Register(context.Background(), CreateUserRequest{
		Name:     "Till Operator",
		Email:    "till@example.com",
		Password: "hunter2hunter2",
		Role:     shared.RoleStaff,
	}, admin)
	require.NoError(t, err)
	require.Equal(t, shared.RoleStaff, u.Role)

	stored := repo.users[u.ID]
	require.NotEmpty(t, stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("hunter2hunter2")))
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Register(context.Background(), CreateUserRequest{
		Name:     "Mara Voss",
		Email:    "mara@example.com",
		Password: "hunter2hunter2",
		Role:     shared.Role("OVERLORD"),
	}, admin)
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewService(newMemoryRepo())
	req := CreateUserRequest{Name: "Mara Voss", Email: "mara@example.com", Password: "hunter2hunter2"}

	_, err := svc.Register(context.Background(), req, shared.Principal{})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req, shared.Principal{})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestListAdminIDs(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	_, err := svc.Register(context.Background(), CreateUserRequest{Name: "Mara Voss", Email: "mara@example.com", Password: "hunter2hunter2"}, shared.Principal{})
	require.NoError(t, err)
	boss, err := svc.Register(context.Background(), CreateUserRequest{Name: "Shift Lead", Email: "lead@example.com", Password: "hunter2hunter2", Role: shared.RoleAdmin}, admin)
	require.NoError(t, err)

	ids, err := svc.ListAdminIDs(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int64{boss.ID}, ids)
}
