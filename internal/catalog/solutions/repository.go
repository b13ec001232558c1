package solutions

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixflow-rms/fixflow/internal/catalog/shared"
	"github.com/fixflow-rms/fixflow/internal/platform/db"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters, faultID *int64) ([]Solution, int, error)
	Get(ctx context.Context, id int64) (Solution, error)
	Create(ctx context.Context, solution Solution) (Solution, error)
	Update(ctx context.Context, id int64, solution Solution) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const selectSolution = `SELECT s.id, s.name, s.description, s.estimated_hours, s.estimated_cost,
	s.notes, s.active FROM solutions s`

func (r *repository) List(ctx context.Context, filters shared.ListFilters, faultID *int64) ([]Solution, int, error) {
	query := selectSolution + ` WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM solutions s WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		cond := ` AND s.name ILIKE $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, "%"+filters.Search+"%")
	}
	if faultID != nil {
		argCount++
		cond := ` AND EXISTS (SELECT 1 FROM solution_faults sf
			WHERE sf.solution_id = s.id AND sf.fault_id = $` + strconv.Itoa(argCount) + `)`
		query += cond
		countQuery += cond
		args = append(args, *faultID)
	}
	if filters.Active != nil {
		argCount++
		cond := ` AND s.active = $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, *filters.Active)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY s.name ASC`
	limit := filters.Limit
	if limit <= 0 {
		limit = shared.DefaultLimit
	}
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, limit)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, filters.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Solution
	for rows.Next() {
		var s Solution
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.EstimatedHours,
			&s.EstimatedCost, &s.Notes, &s.Active); err != nil {
			return nil, 0, err
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range list {
		if err := r.loadFaults(ctx, &list[i]); err != nil {
			return nil, 0, err
		}
	}
	return list, total, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Solution, error) {
	var s Solution
	err := r.pool.QueryRow(ctx, selectSolution+` WHERE s.id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Description, &s.EstimatedHours, &s.EstimatedCost, &s.Notes, &s.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Solution{}, shared.ErrNotFound
	}
	if err != nil {
		return Solution{}, err
	}
	if err := r.loadFaults(ctx, &s); err != nil {
		return Solution{}, err
	}
	return s, nil
}

func (r *repository) loadFaults(ctx context.Context, s *Solution) error {
	rows, err := r.pool.Query(ctx,
		`SELECT fault_id FROM solution_faults WHERE solution_id = $1 ORDER BY fault_id`, s.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	s.FaultIDs = []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		s.FaultIDs = append(s.FaultIDs, id)
	}
	return rows.Err()
}

func (r *repository) Create(ctx context.Context, solution Solution) (Solution, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO solutions (name, description, estimated_hours, estimated_cost, notes, active)
			VALUES ($1, $2, $3, $4, $5, TRUE) RETURNING id, active`,
			solution.Name, solution.Description, solution.EstimatedHours,
			solution.EstimatedCost, solution.Notes).Scan(&solution.ID, &solution.Active)
		if err != nil {
			return err
		}
		return replaceFaults(ctx, tx, solution.ID, solution.FaultIDs)
	})
	if isForeignKeyViolation(err) {
		return Solution{}, shared.ErrNotFound
	}
	if err != nil {
		return Solution{}, err
	}
	return solution, nil
}

func (r *repository) Update(ctx context.Context, id int64, solution Solution) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE solutions SET name = $1, description = $2, estimated_hours = $3,
			estimated_cost = $4, notes = $5, active = $6, updated_at = NOW() WHERE id = $7`,
			solution.Name, solution.Description, solution.EstimatedHours,
			solution.EstimatedCost, solution.Notes, solution.Active, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return replaceFaults(ctx, tx, id, solution.FaultIDs)
	})
	if isForeignKeyViolation(err) {
		return shared.ErrNotFound
	}
	return err
}

func replaceFaults(ctx context.Context, tx pgx.Tx, solutionID int64, faultIDs []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM solution_faults WHERE solution_id = $1`, solutionID); err != nil {
		return err
	}
	for _, faultID := range faultIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO solution_faults (solution_id, fault_id) VALUES ($1, $2)`,
			solutionID, faultID); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM solutions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
