package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository exposes the aggregate queries the dashboard needs. Every method
// propagates failures; a broken query must never be mistaken for an empty
// range.
type Repository interface {
	StateCounts(ctx context.Context, r DateRange) (map[string]int, error)
	BillableRevenue(ctx context.Context, r DateRange) (revenue float64, billableCount int, err error)
	AverageDurationHours(ctx context.Context, r DateRange) (float64, error)
	FaultStats(ctx context.Context, r DateRange) ([]FaultStat, error)
	TechnicianStats(ctx context.Context, r DateRange) ([]TechnicianStat, error)
	DailyActivity(ctx context.Context, days int) (DailySeries, error)
	ActiveByTechnician(ctx context.Context, limit int) ([]StatRef, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

// rangeClause builds the received_at bounds for a range, continuing an
// existing WHERE when prefix is "AND".
func rangeClause(r DateRange, startArg int) (clause string, args []any) {
	var parts []string
	arg := startArg
	if !r.From.IsZero() {
		parts = append(parts, "o.received_at >= $"+strconv.Itoa(arg))
		args = append(args, r.From)
		arg++
	}
	if !r.To.IsZero() {
		parts = append(parts, "o.received_at <= $"+strconv.Itoa(arg))
		args = append(args, r.To)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return strings.Join(parts, " AND "), args
}

func whereRange(r DateRange) (string, []any) {
	clause, args := rangeClause(r, 1)
	if clause == "" {
		return "", nil
	}
	return " WHERE " + clause, args
}

func (p *pgRepository) StateCounts(ctx context.Context, r DateRange) (map[string]int, error) {
	where, args := whereRange(r)
	rows, err := p.pool.Query(ctx,
		"SELECT o.status, COUNT(*) FROM repair_orders o"+where+" GROUP BY o.status", args...)
	if err != nil {
		return nil, fmt.Errorf("dashboard: state counts: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("dashboard: scan state count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (p *pgRepository) BillableRevenue(ctx context.Context, r DateRange) (float64, int, error) {
	where, args := whereRange(r)
	var revenue float64
	var count int
	err := p.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(o.total_amount) FILTER (WHERE o.status IN ('ready', 'delivered')), 0),
		       COUNT(*) FILTER (WHERE o.status IN ('ready', 'delivered'))
		FROM repair_orders o`+where, args...).Scan(&revenue, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("dashboard: billable revenue: %w", err)
	}
	return revenue, count, nil
}

func (p *pgRepository) AverageDurationHours(ctx context.Context, r DateRange) (float64, error) {
	clause, args := rangeClause(r, 1)
	query := `
		SELECT COALESCE(AVG(o.duration_hours), 0)
		FROM repair_orders o
		WHERE o.completed_at IS NOT NULL AND o.duration_hours > 0`
	if clause != "" {
		query += " AND " + clause
	}
	var avg float64
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&avg); err != nil {
		return 0, fmt.Errorf("dashboard: average duration: %w", err)
	}
	return avg, nil
}

func (p *pgRepository) FaultStats(ctx context.Context, r DateRange) ([]FaultStat, error) {
	clause, args := rangeClause(r, 1)
	query := `
		SELECT f.id, f.name, COUNT(*)
		FROM repair_order_faults rof
		JOIN faults f ON f.id = rof.fault_id
		JOIN repair_orders o ON o.id = rof.order_id`
	if clause != "" {
		query += " WHERE " + clause
	}
	query += " GROUP BY f.id, f.name ORDER BY COUNT(*) DESC, f.id ASC"

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dashboard: fault stats: %w", err)
	}
	defer rows.Close()

	stats := make([]FaultStat, 0, 8)
	total := 0
	for rows.Next() {
		var stat FaultStat
		if err := rows.Scan(&stat.FaultID, &stat.Name, &stat.Count); err != nil {
			return nil, fmt.Errorf("dashboard: scan fault stat: %w", err)
		}
		total += stat.Count
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range stats {
		if total > 0 {
			stats[i].Percentage = float64(stats[i].Count) / float64(total) * 100
		}
	}
	return stats, nil
}

func (p *pgRepository) TechnicianStats(ctx context.Context, r DateRange) ([]TechnicianStat, error) {
	clause, args := rangeClause(r, 1)
	query := `
		SELECT t.id, t.name, COUNT(*),
		       COUNT(*) FILTER (WHERE o.status IN ('ready', 'delivered'))
		FROM repair_orders o
		JOIN technicians t ON t.id = o.technician_id`
	if clause != "" {
		query += " WHERE " + clause
	}
	query += ` GROUP BY t.id, t.name
		ORDER BY COUNT(*) FILTER (WHERE o.status IN ('ready', 'delivered')) DESC, t.id ASC`

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dashboard: technician stats: %w", err)
	}
	defer rows.Close()

	stats := make([]TechnicianStat, 0, 8)
	for rows.Next() {
		var stat TechnicianStat
		if err := rows.Scan(&stat.TechnicianID, &stat.Name, &stat.Assigned, &stat.Completed); err != nil {
			return nil, fmt.Errorf("dashboard: scan technician stat: %w", err)
		}
		if stat.Assigned > 0 {
			stat.CompletionRate = float64(stat.Completed) / float64(stat.Assigned) * 100
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

func (p *pgRepository) DailyActivity(ctx context.Context, days int) (DailySeries, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT d::date,
		       (SELECT COUNT(*) FROM repair_orders o WHERE o.received_at::date = d::date),
		       (SELECT COUNT(*) FROM repair_orders o WHERE o.completed_at::date = d::date)
		FROM generate_series(CURRENT_DATE - ($1 - 1) * INTERVAL '1 day', CURRENT_DATE, INTERVAL '1 day') d
		ORDER BY d`, days)
	if err != nil {
		return DailySeries{}, fmt.Errorf("dashboard: daily activity: %w", err)
	}
	defer rows.Close()

	series := DailySeries{
		Labels:    make([]string, 0, days),
		Received:  make([]int, 0, days),
		Completed: make([]int, 0, days),
	}
	for rows.Next() {
		var day time.Time
		var received, completed int
		if err := rows.Scan(&day, &received, &completed); err != nil {
			return DailySeries{}, fmt.Errorf("dashboard: scan daily activity: %w", err)
		}
		series.Labels = append(series.Labels, day.Format("2006-01-02"))
		series.Received = append(series.Received, received)
		series.Completed = append(series.Completed, completed)
	}
	return series, rows.Err()
}

func (p *pgRepository) ActiveByTechnician(ctx context.Context, limit int) ([]StatRef, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT t.id, t.name, COUNT(*)
		FROM repair_orders o
		JOIN technicians t ON t.id = o.technician_id
		WHERE o.status IN ('draft', 'in_progress')
		GROUP BY t.id, t.name
		ORDER BY COUNT(*) DESC, t.id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("dashboard: active by technician: %w", err)
	}
	defer rows.Close()

	refs := make([]StatRef, 0, limit)
	for rows.Next() {
		var ref StatRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Count); err != nil {
			return nil, fmt.Errorf("dashboard: scan active technician: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
