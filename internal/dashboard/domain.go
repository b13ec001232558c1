// Package dashboard computes the repair-shop reporting aggregates. Every
// figure is recomputed from the order rows; the optional Redis layer only
// caches the assembled payloads.
package dashboard

import "time"

// DateRange bounds a summary query. Zero values mean unbounded.
type DateRange struct {
	From time.Time
	To   time.Time
}

// StatRef identifies the winner of a grouped ranking. Ties are broken by
// lowest id so the result is reproducible.
type StatRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type FaultStat struct {
	FaultID    int64   `json:"fault_id"`
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type TechnicianStat struct {
	TechnicianID   int64   `json:"technician_id"`
	Name           string  `json:"name"`
	Assigned       int     `json:"assigned"`
	Completed      int     `json:"completed"`
	CompletionRate float64 `json:"completion_rate"`
}

// Summary is the KPI payload for a date range. Empty ranges produce zeroed
// figures, never errors.
type Summary struct {
	DateFrom string `json:"date_from,omitempty"`
	DateTo   string `json:"date_to,omitempty"`

	TotalOrders      int            `json:"total_orders"`
	StateCounts      map[string]int `json:"state_counts"`
	BillableRevenue  float64        `json:"billable_revenue"`
	AvgDurationHours float64        `json:"avg_duration_hours"`
	AvgOrderValue    float64        `json:"avg_order_value"`

	TopFault      *StatRef `json:"top_fault,omitempty"`
	TopTechnician *StatRef `json:"top_technician,omitempty"`

	FaultStats      []FaultStat      `json:"fault_stats"`
	TechnicianStats []TechnicianStat `json:"technician_stats"`
}

// ChartSeries is the labels/data pair the chart widgets consume.
type ChartSeries struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// DailySeries carries one bucket per day for the activity chart.
type DailySeries struct {
	Labels    []string `json:"labels"`
	Received  []int    `json:"received"`
	Completed []int    `json:"completed"`
}

// ChartData feeds the dashboard charts. Field names are part of the wire
// contract with the UI.
type ChartData struct {
	StatesChart      ChartSeries `json:"states_chart"`
	TechniciansChart ChartSeries `json:"technicians_chart"`
	DailyActivity    DailySeries `json:"daily_activity"`
}
