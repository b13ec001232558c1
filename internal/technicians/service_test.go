package technicians

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixflow-rms/fixflow/internal/shared"
)

type fakeRepo struct {
	items    map[int64]*Technician
	assigned map[int64]int
	nextID   int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[int64]*Technician{}, assigned: map[int64]int{}}
}

func (r *fakeRepo) List(_ context.Context, _ ListFilters) ([]Technician, int, error) {
	out := make([]Technician, 0, len(r.items))
	for _, t := range r.items {
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (r *fakeRepo) Get(_ context.Context, id int64) (*Technician, error) {
	t, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *fakeRepo) Create(_ context.Context, t *Technician) error {
	r.nextID++
	t.ID = r.nextID
	t.CreatedAt = time.Now()
	clone := *t
	r.items[t.ID] = &clone
	return nil
}

func (r *fakeRepo) Update(_ context.Context, t *Technician) error {
	if _, ok := r.items[t.ID]; !ok {
		return shared.ErrNotFound
	}
	clone := *t
	r.items[t.ID] = &clone
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	if r.assigned[id] > 0 {
		return ErrHasOrders
	}
	delete(r.items, id)
	return nil
}

func TestCreateNormalizesEmail(t *testing.T) {
	svc := NewService(newFakeRepo())
	email := "  Ana.Reyes@Example.COM "

	tech, err := svc.Create(context.Background(), CreateRequest{Name: "Ana Reyes", Email: &email})
	require.NoError(t, err)

	require.NotNil(t, tech.Email)
	assert.Equal(t, "ana.reyes@example.com", *tech.Email)
	assert.True(t, tech.Active)
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Create(context.Background(), CreateRequest{Name: "x"})
	assert.Error(t, err)

	bad := "not-an-email"
	_, err = svc.Create(context.Background(), CreateRequest{Name: "Ana Reyes", Email: &bad})
	assert.Error(t, err)
}

func TestUpdatePatchesOnlyProvidedFields(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	email := "ana@example.com"
	tech, err := svc.Create(ctx, CreateRequest{Name: "Ana Reyes", Email: &email})
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(ctx, tech.ID, UpdateRequest{Active: &inactive})
	require.NoError(t, err)

	assert.Equal(t, "Ana Reyes", updated.Name)
	require.NotNil(t, updated.Email)
	assert.Equal(t, "ana@example.com", *updated.Email)
	assert.False(t, updated.Active)
}

func TestDeleteBlockedWhileAssigned(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	tech, err := svc.Create(ctx, CreateRequest{Name: "Ana Reyes"})
	require.NoError(t, err)
	repo.assigned[tech.ID] = 3

	err = svc.Delete(ctx, tech.ID)
	assert.ErrorIs(t, err, ErrHasOrders)

	repo.assigned[tech.ID] = 0
	require.NoError(t, svc.Delete(ctx, tech.ID))
	_, err = svc.Get(ctx, tech.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
