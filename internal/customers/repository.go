package customers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixflow-rms/fixflow/internal/shared"
)

var ErrHasDevices = errors.New("customer has registered devices")

type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Customer, int, error)
	Get(ctx context.Context, id int64) (*Customer, error)
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id int64) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const customerColumns = `id, name, email, phone, address, notes, active, created_at, updated_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.Notes, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *pgRepository) List(ctx context.Context, filters ListFilters) ([]Customer, int, error) {
	var (
		conditions []string
		args       []any
		argCount   int
	)

	if filters.Search != "" {
		argCount++
		ph := "$" + strconv.Itoa(argCount)
		conditions = append(conditions, "(name ILIKE "+ph+" OR email ILIKE "+ph+" OR phone ILIKE "+ph+")")
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Active != nil {
		argCount++
		conditions = append(conditions, "active = $"+strconv.Itoa(argCount))
		args = append(args, *filters.Active)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM customers"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	query := "SELECT " + customerColumns + " FROM customers" + where +
		" ORDER BY name ASC LIMIT $" + strconv.Itoa(argCount+1) + " OFFSET $" + strconv.Itoa(argCount+2)
	args = append(args, filters.Limit, filters.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	items := make([]Customer, 0, filters.Limit)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		items = append(items, *c)
	}
	return items, total, rows.Err()
}

func (r *pgRepository) Get(ctx context.Context, id int64) (*Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (r *pgRepository) Create(ctx context.Context, c *Customer) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO customers (name, email, phone, address, notes, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		c.Name, c.Email, c.Phone, c.Address, c.Notes, c.Active,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if isUniqueViolation(err) {
		return shared.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

func (r *pgRepository) Update(ctx context.Context, c *Customer) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE customers
		SET name = $2, email = $3, phone = $4, address = $5, notes = $6, active = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		c.ID, c.Name, c.Email, c.Phone, c.Address, c.Notes, c.Active,
	).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	return nil
}

func (r *pgRepository) Delete(ctx context.Context, id int64) error {
	var deviceCount int
	if err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM devices WHERE customer_id = $1", id).Scan(&deviceCount); err != nil {
		return fmt.Errorf("count customer devices: %w", err)
	}
	if deviceCount > 0 {
		return ErrHasDevices
	}

	tag, err := r.pool.Exec(ctx, "DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
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
