package dashboardhttp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixflow-rms/fixflow/internal/dashboard"
)

type stubRepo struct{}

func (stubRepo) StateCounts(context.Context, dashboard.DateRange) (map[string]int, error) {
	return map[string]int{"draft": 1, "delivered": 2}, nil
}

func (stubRepo) BillableRevenue(context.Context, dashboard.DateRange) (float64, int, error) {
	return 300, 2, nil
}

func (stubRepo) AverageDurationHours(context.Context, dashboard.DateRange) (float64, error) {
	return 4, nil
}

func (stubRepo) FaultStats(context.Context, dashboard.DateRange) ([]dashboard.FaultStat, error) {
	return []dashboard.FaultStat{{FaultID: 1, Name: "Broken screen", Count: 3, Percentage: 100}}, nil
}

func (stubRepo) TechnicianStats(context.Context, dashboard.DateRange) ([]dashboard.TechnicianStat, error) {
	return nil, nil
}

func (stubRepo) DailyActivity(context.Context, int) (dashboard.DailySeries, error) {
	return dashboard.DailySeries{Labels: []string{"2026-08-29"}, Received: []int{1}, Completed: []int{0}}, nil
}

func (stubRepo) ActiveByTechnician(context.Context, int) ([]dashboard.StatRef, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := dashboard.NewService(stubRepo{}, nil)
	handler := NewHandler(slog.Default(), svc)
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func TestSummaryEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/summary?date_from=2026-08-01&date_to=2026-08-31", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.EqualValues(t, 3, payload["total_orders"])
	assert.EqualValues(t, 300, payload["billable_revenue"])
	assert.EqualValues(t, 150, payload["avg_order_value"])
}

func TestSummaryRejectsMalformedDates(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/summary?date_from=yesterday", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummaryRejectsInvertedRange(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/summary?date_from=2026-08-31&date_to=2026-08-01", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChartDataEndpointKeys(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/chart-data", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Contains(t, payload, "states_chart")
	assert.Contains(t, payload, "technicians_chart")
	assert.Contains(t, payload, "daily_activity")

	var states struct {
		Labels []string  `json:"labels"`
		Data   []float64 `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload["states_chart"], &states))
	assert.Len(t, states.Labels, 5)
	assert.Len(t, states.Data, 5)
}
