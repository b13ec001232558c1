package solutions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixflow-rms/fixflow/internal/catalog/shared"
)

type fakeRepo struct {
	items  map[int64]Solution
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[int64]Solution{}}
}

func (r *fakeRepo) List(_ context.Context, _ shared.ListFilters, faultID *int64) ([]Solution, int, error) {
	var out []Solution
	for _, s := range r.items {
		if faultID != nil && !contains(s.FaultIDs, *faultID) {
			continue
		}
		out = append(out, s)
	}
	return out, len(out), nil
}

func (r *fakeRepo) Get(_ context.Context, id int64) (Solution, error) {
	s, ok := r.items[id]
	if !ok {
		return Solution{}, shared.ErrNotFound
	}
	return s, nil
}

func (r *fakeRepo) Create(_ context.Context, s Solution) (Solution, error) {
	r.nextID++
	s.ID = r.nextID
	s.Active = true
	r.items[s.ID] = s
	return s, nil
}

func (r *fakeRepo) Update(_ context.Context, id int64, s Solution) error {
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	s.ID = id
	r.items[id] = s
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestCreateValidatesEstimatesAndFaults(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, Solution{Name: "  "})
	assert.ErrorIs(t, err, shared.ErrRequiredField)

	_, err = svc.Create(ctx, Solution{Name: "Reball chip", EstimatedHours: -1})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, Solution{Name: "Reball chip", FaultIDs: []int64{0}})
	assert.ErrorIs(t, err, shared.ErrValidation)

	created, err := svc.Create(ctx, Solution{Name: " Reball chip ", FaultIDs: []int64{4}, EstimatedHours: 2})
	require.NoError(t, err)
	assert.Equal(t, "Reball chip", created.Name)
	assert.True(t, created.Active)
}

func TestListFiltersByFault(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, Solution{Name: "Screen swap", FaultIDs: []int64{1}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Solution{Name: "Battery swap", FaultIDs: []int64{2}})
	require.NoError(t, err)

	fault := int64(2)
	list, total, err := svc.List(ctx, shared.ListFilters{}, &fault)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Battery swap", list[0].Name)
}
