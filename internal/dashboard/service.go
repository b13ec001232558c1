package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	dailyActivityDays    = 7
	chartTechnicianTop   = 5
	summaryCachePrefix   = "dashboard:summary"
	chartDataCachePrefix = "dashboard:charts"
)

// Service assembles the dashboard payloads, fanning the independent
// aggregate queries out in parallel.
type Service struct {
	repo  Repository
	cache *Cache
}

func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

func rangeToken(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

// Summary computes the KPI payload for the range. Results are cached per
// range under the current cache version.
func (s *Service) Summary(ctx context.Context, r DateRange) (*Summary, error) {
	key, err := s.cache.BuildKey(ctx, summaryCachePrefix, rangeToken(r.From), rangeToken(r.To))
	if err != nil {
		return nil, err
	}

	var summary Summary
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (interface{}, error) {
		return s.computeSummary(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *Service) computeSummary(ctx context.Context, r DateRange) (*Summary, error) {
	summary := &Summary{
		DateFrom: rangeToken(r.From),
		DateTo:   rangeToken(r.To),
	}
	if r.From.IsZero() {
		summary.DateFrom = ""
	}
	if r.To.IsZero() {
		summary.DateTo = ""
	}

	var (
		stateCounts   map[string]int
		revenue       float64
		billableCount int
		avgDuration   float64
		faultStats    []FaultStat
		techStats     []TechnicianStat
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stateCounts, err = s.repo.StateCounts(gctx, r)
		return err
	})
	g.Go(func() (err error) {
		revenue, billableCount, err = s.repo.BillableRevenue(gctx, r)
		return err
	})
	g.Go(func() (err error) {
		avgDuration, err = s.repo.AverageDurationHours(gctx, r)
		return err
	})
	g.Go(func() (err error) {
		faultStats, err = s.repo.FaultStats(gctx, r)
		return err
	})
	g.Go(func() (err error) {
		techStats, err = s.repo.TechnicianStats(gctx, r)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.StateCounts = stateCounts
	if summary.StateCounts == nil {
		summary.StateCounts = map[string]int{}
	}
	for _, count := range stateCounts {
		summary.TotalOrders += count
	}
	summary.BillableRevenue = revenue
	summary.AvgDurationHours = avgDuration
	if billableCount > 0 {
		summary.AvgOrderValue = revenue / float64(billableCount)
	}

	summary.FaultStats = faultStats
	if len(faultStats) > 0 {
		summary.TopFault = &StatRef{ID: faultStats[0].FaultID, Name: faultStats[0].Name, Count: faultStats[0].Count}
	}
	summary.TechnicianStats = techStats
	if len(techStats) > 0 && techStats[0].Completed > 0 {
		summary.TopTechnician = &StatRef{ID: techStats[0].TechnicianID, Name: techStats[0].Name, Count: techStats[0].Completed}
	}
	return summary, nil
}

// ChartData assembles the chart payload: current state distribution, top
// technicians by active orders and the last week of activity.
func (s *Service) ChartData(ctx context.Context) (*ChartData, error) {
	key, err := s.cache.BuildKey(ctx, chartDataCachePrefix)
	if err != nil {
		return nil, err
	}

	var data ChartData
	err = s.cache.FetchJSON(ctx, key, &data, func(ctx context.Context) (interface{}, error) {
		return s.computeChartData(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (s *Service) computeChartData(ctx context.Context) (*ChartData, error) {
	var (
		stateCounts map[string]int
		active      []StatRef
		daily       DailySeries
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stateCounts, err = s.repo.StateCounts(gctx, DateRange{})
		return err
	})
	g.Go(func() (err error) {
		active, err = s.repo.ActiveByTechnician(gctx, chartTechnicianTop)
		return err
	})
	g.Go(func() (err error) {
		daily, err = s.repo.DailyActivity(gctx, dailyActivityDays)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data := &ChartData{DailyActivity: daily}

	for _, state := range stateOrder() {
		data.StatesChart.Labels = append(data.StatesChart.Labels, state)
		data.StatesChart.Data = append(data.StatesChart.Data, float64(stateCounts[state]))
	}
	for _, ref := range active {
		data.TechniciansChart.Labels = append(data.TechniciansChart.Labels, ref.Name)
		data.TechniciansChart.Data = append(data.TechniciansChart.Data, float64(ref.Count))
	}
	if data.TechniciansChart.Labels == nil {
		data.TechniciansChart.Labels = []string{}
		data.TechniciansChart.Data = []float64{}
	}
	return data, nil
}

// Invalidate bumps the cache version after order mutations.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// Warmup precomputes and caches the current-month summary and chart data.
func (s *Service) Warmup(ctx context.Context) error {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if _, err := s.Summary(ctx, DateRange{From: monthStart, To: now}); err != nil {
		return err
	}
	_, err := s.ChartData(ctx)
	return err
}

func stateOrder() []string {
	return []string{"draft", "in_progress", "ready", "delivered", "cancelled"}
}
