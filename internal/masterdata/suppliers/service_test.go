package suppliers

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/velora-pos/velora/internal/shared"
)

type memoryRepo struct {
	suppliers map[int64]Supplier
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{suppliers: map[int64]Supplier{}, nextID: 1}
}

func (m *memoryRepo) Create(_ context.Context, s Supplier) (int64, error) {
	s.ID = m.nextID
	m.nextID++
	m.suppliers[s.ID] = s
	return s.ID, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Supplier, error) {
	s, ok := m.suppliers[id]
	if !ok {
		return Supplier{}, fmt.Errorf("%w: supplier %d", shared.ErrNotFound, id)
	}
	return s, nil
}

func (m *memoryRepo) List(_ context.Context) ([]Supplier, error) {
	var out []Supplier
	for _, s := range m.suppliers {
		out = append(out, s)
	}
	return out, nil
}

func (m *memoryRepo) Update(_ context.Context, s Supplier) error {
	if _, ok := m.suppliers[s.ID]; !ok {
		return fmt.Errorf("%w: supplier %d", shared.ErrNotFound, s.ID)
	}
	m.suppliers[s.ID] = s
	return nil
}

func (m *memoryRepo) Exists(_ context.Context, id int64) (bool, error) {
	s, ok := m.suppliers[id]
	return ok && s.IsActive, nil
}

var (
	admin    = shared.Principal{ID: 1, Name: "Root", Role: shared.RoleAdmin}
	customer = shared.Principal{ID: 7, Name: "Mara", Role: shared.RoleCustomer}
)

func TestCreateSupplier(t *testing.T) {
	svc := NewService(newMemoryRepo())
	contact := "Jonas Vik"

	s, err := svc.Create(context.Background(), CreateSupplierRequest{Name: "Nordkaffe AS", Contact: &contact}, admin)
	require.NoError(t, err)
	require.NotZero(t, s.ID)
	require.True(t, s.IsActive)
	require.Equal(t, "Nordkaffe AS", s.Name)
}

func TestCreateSupplierRequiresAdmin(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), CreateSupplierRequest{Name: "Nordkaffe AS"}, customer)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestUpdateSupplierPartial(t *testing.T) {
	svc := NewService(newMemoryRepo())
	created, err := svc.Create(context.Background(), CreateSupplierRequest{Name: "Nordkaffe AS"}, admin)
	require.NoError(t, err)

	phone := "+47 555 0101"
	inactive := false
	updated, err := svc.Update(context.Background(), created.ID, UpdateSupplierRequest{Phone: &phone, IsActive: &inactive}, admin)
	require.NoError(t, err)
	require.Equal(t, "Nordkaffe AS", updated.Name)
	require.Equal(t, phone, *updated.Phone)
	require.False(t, updated.IsActive)

	ok, err := svc.Exists(context.Background(), created.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUpdateUnknownSupplier(t *testing.T) {
	svc := NewService(newMemoryRepo())
	name := "Ghost Goods"

	_, err := svc.Update(context.Background(), 99, UpdateSupplierRequest{Name: &name}, admin)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
