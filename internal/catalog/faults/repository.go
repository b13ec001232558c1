package faults

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixflow-rms/fixflow/internal/catalog/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Fault, int, error)
	Get(ctx context.Context, id int64) (Fault, error)
	Create(ctx context.Context, fault Fault) (Fault, error)
	Update(ctx context.Context, id int64, fault Fault) error
	Delete(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]FaultCategory, error)
	CreateCategory(ctx context.Context, category FaultCategory) (FaultCategory, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const selectFault = `SELECT f.id, f.category_id, c.name, f.name, f.description, f.estimated_hours,
	f.estimated_cost, f.solution_template, f.sequence, f.active,
	(SELECT COUNT(*) FROM repair_order_faults rof WHERE rof.fault_id = f.id) AS usage_count
	FROM faults f INNER JOIN fault_categories c ON c.id = f.category_id`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Fault, int, error) {
	query := selectFault + ` WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM faults f WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		cond := ` AND f.name ILIKE $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.CategoryID != nil {
		argCount++
		cond := ` AND f.category_id = $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, *filters.CategoryID)
	}
	if filters.Active != nil {
		argCount++
		cond := ` AND f.active = $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, *filters.Active)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY f.sequence ASC, f.name ASC`
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

	var list []Fault
	for rows.Next() {
		var f Fault
		if err := rows.Scan(&f.ID, &f.CategoryID, &f.CategoryName, &f.Name, &f.Description,
			&f.EstimatedHours, &f.EstimatedCost, &f.SolutionTemplate, &f.Sequence, &f.Active, &f.UsageCount); err != nil {
			return nil, 0, err
		}
		list = append(list, f)
	}
	return list, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Fault, error) {
	var f Fault
	err := r.pool.QueryRow(ctx, selectFault+` WHERE f.id = $1`, id).
		Scan(&f.ID, &f.CategoryID, &f.CategoryName, &f.Name, &f.Description,
			&f.EstimatedHours, &f.EstimatedCost, &f.SolutionTemplate, &f.Sequence, &f.Active, &f.UsageCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return Fault{}, shared.ErrNotFound
	}
	return f, err
}

func (r *repository) Create(ctx context.Context, fault Fault) (Fault, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO faults (category_id, name, description, estimated_hours, estimated_cost, solution_template, sequence, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE) RETURNING id, active`,
		fault.CategoryID, fault.Name, fault.Description, fault.EstimatedHours, fault.EstimatedCost,
		fault.SolutionTemplate, fault.Sequence).Scan(&fault.ID, &fault.Active)
	if isForeignKeyViolation(err) {
		return Fault{}, shared.ErrNotFound
	}
	return fault, err
}

func (r *repository) Update(ctx context.Context, id int64, fault Fault) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE faults SET category_id = $1, name = $2, description = $3, estimated_hours = $4,
		estimated_cost = $5, solution_template = $6, sequence = $7, active = $8 WHERE id = $9`,
		fault.CategoryID, fault.Name, fault.Description, fault.EstimatedHours, fault.EstimatedCost,
		fault.SolutionTemplate, fault.Sequence, fault.Active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	var used int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM repair_order_faults WHERE fault_id = $1`, id).Scan(&used); err != nil {
		return err
	}
	if used > 0 {
		return shared.ErrInUse
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM faults WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ListCategories(ctx context.Context) ([]FaultCategory, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.name, c.sequence, c.active,
		(SELECT COUNT(*) FROM faults f WHERE f.category_id = c.id)
		FROM fault_categories c ORDER BY c.sequence ASC, c.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []FaultCategory
	for rows.Next() {
		var c FaultCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Sequence, &c.Active, &c.FaultCount); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *repository) CreateCategory(ctx context.Context, category FaultCategory) (FaultCategory, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO fault_categories (name, sequence, active) VALUES ($1, $2, TRUE) RETURNING id, active`,
		category.Name, category.Sequence).Scan(&category.ID, &category.Active)
	if isUniqueViolation(err) {
		return FaultCategory{}, shared.ErrDuplicate
	}
	return category, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
