package accessories

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixflow-rms/fixflow/internal/catalog/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Accessory, int, error)
	Get(ctx context.Context, id int64) (Accessory, error)
	Create(ctx context.Context, accessory Accessory) (Accessory, error)
	Update(ctx context.Context, id int64, accessory Accessory) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Accessory, int, error) {
	query := `SELECT id, name, type, active FROM accessories WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM accessories WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		cond := ` AND name ILIKE $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Active != nil {
		argCount++
		cond := ` AND active = $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, *filters.Active)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name ASC`
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

	var list []Accessory
	for rows.Next() {
		var a Accessory
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.Active); err != nil {
			return nil, 0, err
		}
		list = append(list, a)
	}
	return list, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Accessory, error) {
	var a Accessory
	err := r.pool.QueryRow(ctx, `SELECT id, name, type, active FROM accessories WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.Type, &a.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Accessory{}, shared.ErrNotFound
	}
	return a, err
}

func (r *repository) Create(ctx context.Context, accessory Accessory) (Accessory, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO accessories (name, type, active) VALUES ($1, $2, TRUE) RETURNING id, active`,
		accessory.Name, accessory.Type).Scan(&accessory.ID, &accessory.Active)
	return accessory, err
}

func (r *repository) Update(ctx context.Context, id int64, accessory Accessory) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accessories SET name = $1, type = $2, active = $3 WHERE id = $4`,
		accessory.Name, accessory.Type, accessory.Active, id)
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
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM device_accessories WHERE accessory_id = $1`, id).Scan(&used); err != nil {
		return err
	}
	if used > 0 {
		return shared.ErrInUse
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM accessories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
