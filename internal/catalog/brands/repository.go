package brands

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
	List(ctx context.Context, filters shared.ListFilters) ([]Brand, int, error)
	Get(ctx context.Context, id int64) (Brand, error)
	Create(ctx context.Context, brand Brand) (Brand, error)
	Update(ctx context.Context, id int64, brand Brand) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Brand, int, error) {
	query := `SELECT b.id, b.code, b.name, b.description, b.active,
		(SELECT COUNT(*) FROM device_models m WHERE m.brand_id = b.id) AS model_count
		FROM brands b WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM brands b WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		cond := ` AND (b.name ILIKE $` + strconv.Itoa(argCount) + ` OR b.code ILIKE $` + strconv.Itoa(argCount) + `)`
		query += cond
		countQuery += cond
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Active != nil {
		argCount++
		cond := ` AND b.active = $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, *filters.Active)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY " + sortOrder(filters.SortBy, filters.SortDir)
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

	var brands []Brand
	for rows.Next() {
		var b Brand
		if err := rows.Scan(&b.ID, &b.Code, &b.Name, &b.Description, &b.Active, &b.ModelCount); err != nil {
			return nil, 0, err
		}
		brands = append(brands, b)
	}
	return brands, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Brand, error) {
	var b Brand
	err := r.pool.QueryRow(ctx, `SELECT b.id, b.code, b.name, b.description, b.active,
		(SELECT COUNT(*) FROM device_models m WHERE m.brand_id = b.id)
		FROM brands b WHERE b.id = $1`, id).
		Scan(&b.ID, &b.Code, &b.Name, &b.Description, &b.Active, &b.ModelCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return Brand{}, shared.ErrNotFound
	}
	return b, err
}

func (r *repository) Create(ctx context.Context, brand Brand) (Brand, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO brands (code, name, description, active) VALUES ($1, $2, $3, TRUE) RETURNING id, active`,
		brand.Code, brand.Name, brand.Description).Scan(&brand.ID, &brand.Active)
	if isUniqueViolation(err) {
		return Brand{}, shared.ErrDuplicate
	}
	return brand, err
}

func (r *repository) Update(ctx context.Context, id int64, brand Brand) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE brands SET code = $1, name = $2, description = $3, active = $4 WHERE id = $5`,
		brand.Code, brand.Name, brand.Description, brand.Active, id)
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
	var models int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM device_models WHERE brand_id = $1`, id).Scan(&models); err != nil {
		return err
	}
	if models > 0 {
		return shared.ErrInUse
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM brands WHERE id = $1`, id)
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

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == shared.SortDesc {
		dir = "DESC"
	}
	switch sortBy {
	case "code":
		return "b.code " + dir
	case "name":
		return "b.name " + dir
	default:
		return "b.name " + dir
	}
}
