package technicians

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

var ErrHasOrders = errors.New("technician is assigned to repair orders")

type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Technician, int, error)
	Get(ctx context.Context, id int64) (*Technician, error)
	Create(ctx context.Context, t *Technician) error
	Update(ctx context.Context, t *Technician) error
	Delete(ctx context.Context, id int64) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

// active_load counts draft and in-progress assignments, the same set the
// overload warning looks at.
const technicianColumns = `t.id, t.name, t.email, t.active,
	(SELECT COUNT(*) FROM repair_orders o
		WHERE o.technician_id = t.id AND o.status IN ('draft', 'in_progress')) AS active_load,
	t.created_at`

func scanTechnician(row pgx.Row) (*Technician, error) {
	var tech Technician
	err := row.Scan(&tech.ID, &tech.Name, &tech.Email, &tech.Active, &tech.ActiveLoad, &tech.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &tech, nil
}

func (r *pgRepository) List(ctx context.Context, filters ListFilters) ([]Technician, int, error) {
	var (
		conditions []string
		args       []any
		argCount   int
	)

	if filters.Search != "" {
		argCount++
		ph := "$" + strconv.Itoa(argCount)
		conditions = append(conditions, "(t.name ILIKE "+ph+" OR t.email ILIKE "+ph+")")
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Active != nil {
		argCount++
		conditions = append(conditions, "t.active = $"+strconv.Itoa(argCount))
		args = append(args, *filters.Active)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM technicians t"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count technicians: %w", err)
	}

	query := "SELECT " + technicianColumns + " FROM technicians t" + where +
		" ORDER BY t.name ASC LIMIT $" + strconv.Itoa(argCount+1) + " OFFSET $" + strconv.Itoa(argCount+2)
	args = append(args, filters.Limit, filters.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list technicians: %w", err)
	}
	defer rows.Close()

	items := make([]Technician, 0, filters.Limit)
	for rows.Next() {
		tech, err := scanTechnician(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan technician: %w", err)
		}
		items = append(items, *tech)
	}
	return items, total, rows.Err()
}

func (r *pgRepository) Get(ctx context.Context, id int64) (*Technician, error) {
	tech, err := scanTechnician(r.pool.QueryRow(ctx,
		"SELECT "+technicianColumns+" FROM technicians t WHERE t.id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get technician: %w", err)
	}
	return tech, nil
}

func (r *pgRepository) Create(ctx context.Context, t *Technician) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO technicians (name, email, active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		t.Name, t.Email, t.Active,
	).Scan(&t.ID, &t.CreatedAt)
	if isUniqueViolation(err) {
		return shared.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create technician: %w", err)
	}
	return nil
}

func (r *pgRepository) Update(ctx context.Context, t *Technician) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE technicians
		SET name = $2, email = $3, active = $4
		WHERE id = $1`,
		t.ID, t.Name, t.Email, t.Active,
	)
	if isUniqueViolation(err) {
		return shared.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update technician: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) Delete(ctx context.Context, id int64) error {
	var orderCount int
	if err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM repair_orders WHERE technician_id = $1", id).Scan(&orderCount); err != nil {
		return fmt.Errorf("count technician orders: %w", err)
	}
	if orderCount > 0 {
		return ErrHasOrders
	}

	tag, err := r.pool.Exec(ctx, "DELETE FROM technicians WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete technician: %w", err)
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
