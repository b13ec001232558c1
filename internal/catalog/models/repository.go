package models

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
	List(ctx context.Context, filters shared.ListFilters) ([]DeviceModel, int, error)
	Get(ctx context.Context, id int64) (DeviceModel, error)
	Create(ctx context.Context, model DeviceModel) (DeviceModel, error)
	Update(ctx context.Context, id int64, model DeviceModel) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const selectModel = `SELECT m.id, m.brand_id, b.name, m.code, m.name, m.release_year, m.operating_system, m.active
	FROM device_models m INNER JOIN brands b ON b.id = m.brand_id`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]DeviceModel, int, error) {
	query := selectModel + ` WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM device_models m INNER JOIN brands b ON b.id = m.brand_id WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		cond := ` AND (m.name ILIKE $` + strconv.Itoa(argCount) + ` OR b.name ILIKE $` + strconv.Itoa(argCount) + `)`
		query += cond
		countQuery += cond
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.BrandID != nil {
		argCount++
		cond := ` AND m.brand_id = $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, *filters.BrandID)
	}
	if filters.Active != nil {
		argCount++
		cond := ` AND m.active = $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, *filters.Active)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY b.name ASC, m.name ASC`
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

	var list []DeviceModel
	for rows.Next() {
		var m DeviceModel
		if err := rows.Scan(&m.ID, &m.BrandID, &m.BrandName, &m.Code, &m.Name, &m.ReleaseYear, &m.OperatingSystem, &m.Active); err != nil {
			return nil, 0, err
		}
		list = append(list, m)
	}
	return list, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (DeviceModel, error) {
	var m DeviceModel
	err := r.pool.QueryRow(ctx, selectModel+` WHERE m.id = $1`, id).
		Scan(&m.ID, &m.BrandID, &m.BrandName, &m.Code, &m.Name, &m.ReleaseYear, &m.OperatingSystem, &m.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return DeviceModel{}, shared.ErrNotFound
	}
	return m, err
}

func (r *repository) Create(ctx context.Context, model DeviceModel) (DeviceModel, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO device_models (brand_id, code, name, release_year, operating_system, active)
		VALUES ($1, $2, $3, $4, $5, TRUE) RETURNING id, active`,
		model.BrandID, model.Code, model.Name, model.ReleaseYear, model.OperatingSystem).
		Scan(&model.ID, &model.Active)
	if isUniqueViolation(err) {
		return DeviceModel{}, shared.ErrDuplicate
	}
	if isForeignKeyViolation(err) {
		return DeviceModel{}, shared.ErrNotFound
	}
	return model, err
}

func (r *repository) Update(ctx context.Context, id int64, model DeviceModel) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE device_models SET brand_id = $1, code = $2, name = $3, release_year = $4, operating_system = $5, active = $6 WHERE id = $7`,
		model.BrandID, model.Code, model.Name, model.ReleaseYear, model.OperatingSystem, model.Active, id)
	if isUniqueViolation(err) {
		return shared.ErrDuplicate
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	var devices int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM devices WHERE model_id = $1`, id).Scan(&devices); err != nil {
		return err
	}
	if devices > 0 {
		return shared.ErrInUse
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM device_models WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
