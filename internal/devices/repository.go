package devices

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixflow-rms/fixflow/internal/platform/db"
	"github.com/fixflow-rms/fixflow/internal/shared"
)

var (
	ErrDuplicateIMEI   = errors.New("a device with this IMEI already exists")
	ErrHasRepairs      = errors.New("device has repair history and cannot be deleted")
	ErrUnknownRelation = errors.New("referenced customer, model or accessory does not exist")
)

type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Device, int, error)
	Get(ctx context.Context, id int64) (*Device, error)
	Create(ctx context.Context, d *Device) error
	Update(ctx context.Context, d *Device) error
	Delete(ctx context.Context, id int64) error
	IMEIExists(ctx context.Context, imei string, excludeID int64) (bool, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const selectDevice = `
	SELECT d.id, d.code, d.customer_id, c.name, d.model_id, m.name, b.name,
	       d.imei, d.serial_number, d.color, d.powers_on, d.condition,
	       d.lock_type, d.lock_code, d.notes, d.active,
	       (SELECT COUNT(*) FROM repair_orders ro WHERE ro.device_id = d.id),
	       (SELECT MAX(ro.created_at) FROM repair_orders ro WHERE ro.device_id = d.id),
	       d.created_at, d.updated_at
	FROM devices d
	JOIN customers c ON c.id = d.customer_id
	JOIN device_models m ON m.id = d.model_id
	JOIN brands b ON b.id = m.brand_id`

func scanDevice(row pgx.Row) (*Device, error) {
	var d Device
	err := row.Scan(&d.ID, &d.Code, &d.CustomerID, &d.CustomerName, &d.ModelID, &d.ModelName,
		&d.BrandName, &d.IMEI, &d.SerialNumber, &d.Color, &d.PowersOn, &d.Condition,
		&d.LockType, &d.LockCode, &d.Notes, &d.Active,
		&d.RepairCount, &d.LastRepairAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *pgRepository) List(ctx context.Context, filters ListFilters) ([]Device, int, error) {
	var (
		conditions []string
		args       []any
		argCount   int
	)

	if filters.Search != "" {
		argCount++
		ph := "$" + strconv.Itoa(argCount)
		conditions = append(conditions,
			"(d.code ILIKE "+ph+" OR d.imei ILIKE "+ph+" OR d.serial_number ILIKE "+ph+" OR c.name ILIKE "+ph+")")
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.CustomerID != nil {
		argCount++
		conditions = append(conditions, "d.customer_id = $"+strconv.Itoa(argCount))
		args = append(args, *filters.CustomerID)
	}
	if filters.ModelID != nil {
		argCount++
		conditions = append(conditions, "d.model_id = $"+strconv.Itoa(argCount))
		args = append(args, *filters.ModelID)
	}
	if filters.Active != nil {
		argCount++
		conditions = append(conditions, "d.active = $"+strconv.Itoa(argCount))
		args = append(args, *filters.Active)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := `SELECT COUNT(*) FROM devices d JOIN customers c ON c.id = d.customer_id` + where
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count devices: %w", err)
	}

	query := selectDevice + where +
		" ORDER BY d.created_at DESC LIMIT $" + strconv.Itoa(argCount+1) + " OFFSET $" + strconv.Itoa(argCount+2)
	args = append(args, filters.Limit, filters.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	items := make([]Device, 0, filters.Limit)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan device: %w", err)
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range items {
		if err := r.loadAccessories(ctx, &items[i]); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

func (r *pgRepository) Get(ctx context.Context, id int64) (*Device, error) {
	d, err := scanDevice(r.pool.QueryRow(ctx, selectDevice+" WHERE d.id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}
	if err := r.loadAccessories(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *pgRepository) loadAccessories(ctx context.Context, d *Device) error {
	rows, err := r.pool.Query(ctx,
		"SELECT accessory_id FROM device_accessories WHERE device_id = $1 ORDER BY accessory_id", d.ID)
	if err != nil {
		return fmt.Errorf("load device accessories: %w", err)
	}
	defer rows.Close()

	d.AccessoryIDs = make([]int64, 0, 4)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan accessory id: %w", err)
		}
		d.AccessoryIDs = append(d.AccessoryIDs, id)
	}
	return rows.Err()
}

func (r *pgRepository) Create(ctx context.Context, d *Device) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO devices (code, customer_id, model_id, imei, serial_number, color,
			                     powers_on, condition, lock_type, lock_code, notes, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id, created_at, updated_at`,
			d.Code, d.CustomerID, d.ModelID, d.IMEI, d.SerialNumber, d.Color,
			d.PowersOn, d.Condition, d.LockType, d.LockCode, d.Notes, d.Active,
		).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
		if err != nil {
			return err
		}
		return r.replaceAccessories(ctx, tx, d.ID, d.AccessoryIDs)
	})
	return translateWriteError(err, "create device")
}

func (r *pgRepository) Update(ctx context.Context, d *Device) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE devices
			SET imei = $2, serial_number = $3, color = $4, powers_on = $5, condition = $6,
			    lock_type = $7, lock_code = $8, notes = $9, active = $10, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at`,
			d.ID, d.IMEI, d.SerialNumber, d.Color, d.PowersOn, d.Condition,
			d.LockType, d.LockCode, d.Notes, d.Active,
		).Scan(&d.UpdatedAt)
		if err != nil {
			return err
		}
		return r.replaceAccessories(ctx, tx, d.ID, d.AccessoryIDs)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	return translateWriteError(err, "update device")
}

func (r *pgRepository) replaceAccessories(ctx context.Context, tx pgx.Tx, deviceID int64, accessoryIDs []int64) error {
	if _, err := tx.Exec(ctx, "DELETE FROM device_accessories WHERE device_id = $1", deviceID); err != nil {
		return err
	}
	for _, accessoryID := range accessoryIDs {
		if _, err := tx.Exec(ctx,
			"INSERT INTO device_accessories (device_id, accessory_id) VALUES ($1, $2)",
			deviceID, accessoryID); err != nil {
			return err
		}
	}
	return nil
}

func (r *pgRepository) Delete(ctx context.Context, id int64) error {
	var repairCount int
	if err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM repair_orders WHERE device_id = $1", id).Scan(&repairCount); err != nil {
		return fmt.Errorf("count device repairs: %w", err)
	}
	if repairCount > 0 {
		return ErrHasRepairs
	}

	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM device_accessories WHERE device_id = $1", id); err != nil {
			return fmt.Errorf("delete device accessories: %w", err)
		}
		tag, err := tx.Exec(ctx, "DELETE FROM devices WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("delete device: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *pgRepository) IMEIExists(ctx context.Context, imei string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM devices WHERE imei = $1 AND id <> $2)",
		imei, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check imei: %w", err)
	}
	return exists, nil
}

func translateWriteError(err error, op string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicateIMEI
		case "23503":
			return ErrUnknownRelation
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
