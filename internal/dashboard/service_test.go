package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	stateCounts   map[string]int
	revenue       float64
	billableCount int
	avgDuration   float64
	faultStats    []FaultStat
	techStats     []TechnicianStat
	daily         DailySeries
	active        []StatRef

	err   error
	calls int
}

func (f *fakeRepo) StateCounts(context.Context, DateRange) (map[string]int, error) {
	f.calls++
	return f.stateCounts, f.err
}

func (f *fakeRepo) BillableRevenue(context.Context, DateRange) (float64, int, error) {
	return f.revenue, f.billableCount, f.err
}

func (f *fakeRepo) AverageDurationHours(context.Context, DateRange) (float64, error) {
	return f.avgDuration, f.err
}

func (f *fakeRepo) FaultStats(context.Context, DateRange) ([]FaultStat, error) {
	return f.faultStats, f.err
}

func (f *fakeRepo) TechnicianStats(context.Context, DateRange) ([]TechnicianStat, error) {
	return f.techStats, f.err
}

func (f *fakeRepo) DailyActivity(context.Context, int) (DailySeries, error) {
	return f.daily, f.err
}

func (f *fakeRepo) ActiveByTechnician(context.Context, int) ([]StatRef, error) {
	return f.active, f.err
}

func populatedRepo() *fakeRepo {
	return &fakeRepo{
		stateCounts:   map[string]int{"draft": 2, "in_progress": 3, "ready": 1, "delivered": 4},
		revenue:       1250,
		billableCount: 5,
		avgDuration:   6.5,
		faultStats: []FaultStat{
			{FaultID: 3, Name: "Broken screen", Count: 6, Percentage: 60},
			{FaultID: 8, Name: "Battery drain", Count: 4, Percentage: 40},
		},
		techStats: []TechnicianStat{
			{TechnicianID: 1, Name: "Dana", Assigned: 6, Completed: 5, CompletionRate: 83.3},
			{TechnicianID: 2, Name: "Lee", Assigned: 4, Completed: 2, CompletionRate: 50},
		},
		daily: DailySeries{
			Labels:    []string{"2026-08-24", "2026-08-25"},
			Received:  []int{3, 1},
			Completed: []int{2, 2},
		},
		active: []StatRef{{ID: 1, Name: "Dana", Count: 3}},
	}
}

func TestSummaryAggregates(t *testing.T) {
	svc := NewService(populatedRepo(), nil)

	summary, err := svc.Summary(context.Background(), DateRange{})
	require.NoError(t, err)

	assert.Equal(t, 10, summary.TotalOrders)
	assert.InDelta(t, 1250, summary.BillableRevenue, 0.001)
	assert.InDelta(t, 250, summary.AvgOrderValue, 0.001)
	assert.InDelta(t, 6.5, summary.AvgDurationHours, 0.001)

	require.NotNil(t, summary.TopFault)
	assert.Equal(t, int64(3), summary.TopFault.ID)
	require.NotNil(t, summary.TopTechnician)
	assert.Equal(t, "Dana", summary.TopTechnician.Name)
	assert.Len(t, summary.FaultStats, 2)
	assert.Len(t, summary.TechnicianStats, 2)
}

func TestSummaryEmptyRangeIsZeroed(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil)

	summary, err := svc.Summary(context.Background(), DateRange{
		From: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Zero(t, summary.TotalOrders)
	assert.Zero(t, summary.BillableRevenue)
	assert.Zero(t, summary.AvgOrderValue)
	assert.Nil(t, summary.TopFault)
	assert.Nil(t, summary.TopTechnician)
	assert.NotNil(t, summary.StateCounts)
}

func TestSummaryPropagatesQueryFailures(t *testing.T) {
	repo := populatedRepo()
	repo.err = errors.New("connection reset")
	svc := NewService(repo, nil)

	_, err := svc.Summary(context.Background(), DateRange{})
	assert.ErrorContains(t, err, "connection reset")
}

func TestChartDataShape(t *testing.T) {
	svc := NewService(populatedRepo(), nil)

	data, err := svc.ChartData(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"draft", "in_progress", "ready", "delivered", "cancelled"}, data.StatesChart.Labels)
	assert.Equal(t, []float64{2, 3, 1, 4, 0}, data.StatesChart.Data)
	assert.Equal(t, []string{"Dana"}, data.TechniciansChart.Labels)
	assert.Equal(t, []float64{3}, data.TechniciansChart.Data)
	assert.Len(t, data.DailyActivity.Labels, 2)
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestSummaryUsesCache(t *testing.T) {
	repo := populatedRepo()
	cache, _ := newTestCache(t)
	svc := NewService(repo, cache)
	ctx := context.Background()

	_, err := svc.Summary(ctx, DateRange{})
	require.NoError(t, err)
	first := repo.calls

	_, err = svc.Summary(ctx, DateRange{})
	require.NoError(t, err)
	assert.Equal(t, first, repo.calls, "second read should hit the cache")
}

func TestBumpInvalidatesCache(t *testing.T) {
	repo := populatedRepo()
	cache, _ := newTestCache(t)
	svc := NewService(repo, cache)
	ctx := context.Background()

	_, err := svc.Summary(ctx, DateRange{})
	require.NoError(t, err)
	first := repo.calls

	require.NoError(t, svc.Invalidate(ctx))

	_, err = svc.Summary(ctx, DateRange{})
	require.NoError(t, err)
	assert.Greater(t, repo.calls, first, "bump must force a recompute")
}

func TestWarmupPopulatesCache(t *testing.T) {
	repo := populatedRepo()
	cache, _ := newTestCache(t)
	svc := NewService(repo, cache)
	ctx := context.Background()

	require.NoError(t, svc.Warmup(ctx))
	warmed := repo.calls

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	_, err := svc.Summary(ctx, DateRange{From: monthStart, To: now})
	require.NoError(t, err)
	assert.Equal(t, warmed, repo.calls)
}
