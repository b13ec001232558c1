package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixflow-rms/fixflow/internal/platform/db"
	"github.com/fixflow-rms/fixflow/internal/shared"
)

// Transition describes a single version-checked state change. ClearTimestamps
// resets the three downstream timestamps on reset_to_draft.
type Transition struct {
	OrderID         int64
	ExpectedVersion int64
	Status          Status
	StartedAt       *time.Time
	CompletedAt     *time.Time
	DeliveredAt     *time.Time
	ClearTimestamps bool
	Reason          *string
	DurationHours   *float64
	ProgressPercent *int
}

type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]RepairOrder, int, error)
	Get(ctx context.Context, id int64) (*RepairOrder, error)
	GetByReference(ctx context.Context, reference string) (*RepairOrder, error)
	Create(ctx context.Context, o *RepairOrder) error
	UpdateDraft(ctx context.Context, o *RepairOrder) error
	ApplyTransition(ctx context.Context, t Transition) (*RepairOrder, error)
	SetInvoice(ctx context.Context, orderID, expectedVersion, invoiceID int64) error
	SetSaleOrder(ctx context.Context, orderID, expectedVersion, saleOrderID int64) error
	SetStockTransfer(ctx context.Context, orderID, expectedVersion int64, transferRef string) error
	CountActiveByTechnician(ctx context.Context, technicianID int64) (int, error)
	LatestReference(ctx context.Context, prefix string) (string, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const selectOrder = `
	SELECT o.id, o.reference, o.version, o.customer_id, c.name, o.device_id, d.code,
	       o.technician_id, COALESCE(t.name, ''), o.status, o.priority,
	       o.problem_description, o.diagnosis, o.notes, o.cancel_reason,
	       o.estimated_cost, o.total_amount, o.currency,
	       o.received_at, o.promised_at, o.started_at, o.completed_at, o.delivered_at,
	       o.invoice_id, o.sale_order_id, o.stock_transfer_ref,
	       o.duration_hours, o.progress_percent, o.created_at, o.updated_at
	FROM repair_orders o
	JOIN customers c ON c.id = o.customer_id
	JOIN devices d ON d.id = o.device_id
	LEFT JOIN technicians t ON t.id = o.technician_id`

func scanOrder(row pgx.Row) (*RepairOrder, error) {
	var o RepairOrder
	err := row.Scan(&o.ID, &o.Reference, &o.Version, &o.CustomerID, &o.CustomerName,
		&o.DeviceID, &o.DeviceCode, &o.TechnicianID, &o.TechnicianName, &o.Status, &o.Priority,
		&o.ProblemDescription, &o.Diagnosis, &o.Notes, &o.CancelReason,
		&o.EstimatedCost, &o.TotalAmount, &o.Currency,
		&o.ReceivedAt, &o.PromisedAt, &o.StartedAt, &o.CompletedAt, &o.DeliveredAt,
		&o.InvoiceID, &o.SaleOrderID, &o.StockTransferRef,
		&o.DurationHours, &o.ProgressPercent, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *pgRepository) List(ctx context.Context, filters ListFilters) ([]RepairOrder, int, error) {
	var (
		conditions []string
		args       []any
		argCount   int
	)

	if filters.Search != "" {
		argCount++
		ph := "$" + strconv.Itoa(argCount)
		conditions = append(conditions,
			"(o.reference ILIKE "+ph+" OR c.name ILIKE "+ph+" OR d.code ILIKE "+ph+")")
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Status != nil {
		argCount++
		conditions = append(conditions, "o.status = $"+strconv.Itoa(argCount))
		args = append(args, string(*filters.Status))
	}
	if filters.CustomerID != nil {
		argCount++
		conditions = append(conditions, "o.customer_id = $"+strconv.Itoa(argCount))
		args = append(args, *filters.CustomerID)
	}
	if filters.TechnicianID != nil {
		argCount++
		conditions = append(conditions, "o.technician_id = $"+strconv.Itoa(argCount))
		args = append(args, *filters.TechnicianID)
	}
	if filters.DateFrom != nil {
		argCount++
		conditions = append(conditions, "o.received_at >= $"+strconv.Itoa(argCount))
		args = append(args, *filters.DateFrom)
	}
	if filters.DateTo != nil {
		argCount++
		conditions = append(conditions, "o.received_at <= $"+strconv.Itoa(argCount))
		args = append(args, *filters.DateTo)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := `SELECT COUNT(*) FROM repair_orders o
		JOIN customers c ON c.id = o.customer_id
		JOIN devices d ON d.id = o.device_id` + where
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count repair orders: %w", err)
	}

	query := selectOrder + where +
		" ORDER BY o.received_at DESC, o.id DESC LIMIT $" + strconv.Itoa(argCount+1) +
		" OFFSET $" + strconv.Itoa(argCount+2)
	args = append(args, filters.Limit, filters.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list repair orders: %w", err)
	}
	defer rows.Close()

	items := make([]RepairOrder, 0, filters.Limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan repair order: %w", err)
		}
		items = append(items, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range items {
		if err := r.loadChildren(ctx, &items[i]); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

func (r *pgRepository) Get(ctx context.Context, id int64) (*RepairOrder, error) {
	return r.getWhere(ctx, "o.id = $1", id)
}

func (r *pgRepository) GetByReference(ctx context.Context, reference string) (*RepairOrder, error) {
	return r.getWhere(ctx, "o.reference = $1", reference)
}

func (r *pgRepository) getWhere(ctx context.Context, condition string, arg any) (*RepairOrder, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, selectOrder+" WHERE "+condition, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get repair order: %w", err)
	}
	if err := r.loadChildren(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *pgRepository) loadChildren(ctx context.Context, o *RepairOrder) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, sequence, line_type, product_name, description,
		       quantity, unit_price, discount_percent, tax_percent,
		       discount_amount, tax_amount, subtotal, total
		FROM repair_order_lines
		WHERE order_id = $1
		ORDER BY sequence, id`, o.ID)
	if err != nil {
		return fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	o.Lines = make([]Line, 0, 4)
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.Sequence, &l.LineType, &l.ProductName,
			&l.Description, &l.Quantity, &l.UnitPrice, &l.DiscountPercent, &l.TaxPercent,
			&l.DiscountAmount, &l.TaxAmount, &l.Subtotal, &l.Total); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	faultRows, err := r.pool.Query(ctx,
		"SELECT fault_id FROM repair_order_faults WHERE order_id = $1 ORDER BY fault_id", o.ID)
	if err != nil {
		return fmt.Errorf("load order faults: %w", err)
	}
	defer faultRows.Close()

	o.FaultIDs = make([]int64, 0, 2)
	for faultRows.Next() {
		var id int64
		if err := faultRows.Scan(&id); err != nil {
			return fmt.Errorf("scan order fault: %w", err)
		}
		o.FaultIDs = append(o.FaultIDs, id)
	}
	return faultRows.Err()
}

func (r *pgRepository) Create(ctx context.Context, o *RepairOrder) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO repair_orders (reference, version, customer_id, device_id, technician_id,
			                           status, priority, problem_description, diagnosis, notes,
			                           estimated_cost, total_amount, currency,
			                           received_at, promised_at, duration_hours, progress_percent)
			VALUES ($1, 1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			RETURNING id, version, created_at, updated_at`,
			o.Reference, o.CustomerID, o.DeviceID, o.TechnicianID,
			o.Status, o.Priority, o.ProblemDescription, o.Diagnosis, o.Notes,
			o.EstimatedCost, o.TotalAmount, o.Currency,
			o.ReceivedAt, o.PromisedAt, o.DurationHours, o.ProgressPercent,
		).Scan(&o.ID, &o.Version, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert repair order: %w", err)
		}
		if err := r.insertLines(ctx, tx, o); err != nil {
			return err
		}
		return r.replaceFaults(ctx, tx, o.ID, o.FaultIDs)
	})
}

// UpdateDraft rewrites the editable header fields and the full child set.
// The status guard stays in SQL so a concurrent transition cannot race the
// edit past draft.
func (r *pgRepository) UpdateDraft(ctx context.Context, o *RepairOrder) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE repair_orders
			SET technician_id = $2, priority = $3, problem_description = $4, diagnosis = $5,
			    notes = $6, estimated_cost = $7, promised_at = $8, total_amount = $9,
			    duration_hours = $10, progress_percent = $11,
			    version = version + 1, updated_at = NOW()
			WHERE id = $1 AND status = 'draft'
			RETURNING version, updated_at`,
			o.ID, o.TechnicianID, o.Priority, o.ProblemDescription, o.Diagnosis,
			o.Notes, o.EstimatedCost, o.PromisedAt, o.TotalAmount,
			o.DurationHours, o.ProgressPercent,
		).Scan(&o.Version, &o.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotEditable
		}
		if err != nil {
			return fmt.Errorf("update repair order: %w", err)
		}

		if _, err := tx.Exec(ctx, "DELETE FROM repair_order_lines WHERE order_id = $1", o.ID); err != nil {
			return fmt.Errorf("clear order lines: %w", err)
		}
		if err := r.insertLines(ctx, tx, o); err != nil {
			return err
		}
		return r.replaceFaults(ctx, tx, o.ID, o.FaultIDs)
	})
}

func (r *pgRepository) insertLines(ctx context.Context, tx pgx.Tx, o *RepairOrder) error {
	for i := range o.Lines {
		l := &o.Lines[i]
		l.OrderID = o.ID
		l.Sequence = i + 1
		err := tx.QueryRow(ctx, `
			INSERT INTO repair_order_lines (order_id, sequence, line_type, product_name, description,
			                                quantity, unit_price, discount_percent, tax_percent,
			                                discount_amount, tax_amount, subtotal, total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id`,
			l.OrderID, l.Sequence, l.LineType, l.ProductName, l.Description,
			l.Quantity, l.UnitPrice, l.DiscountPercent, l.TaxPercent,
			l.DiscountAmount, l.TaxAmount, l.Subtotal, l.Total,
		).Scan(&l.ID)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}
	return nil
}

func (r *pgRepository) replaceFaults(ctx context.Context, tx pgx.Tx, orderID int64, faultIDs []int64) error {
	if _, err := tx.Exec(ctx, "DELETE FROM repair_order_faults WHERE order_id = $1", orderID); err != nil {
		return fmt.Errorf("clear order faults: %w", err)
	}
	for _, faultID := range faultIDs {
		if _, err := tx.Exec(ctx,
			"INSERT INTO repair_order_faults (order_id, fault_id) VALUES ($1, $2)",
			orderID, faultID); err != nil {
			return fmt.Errorf("insert order fault: %w", err)
		}
	}
	return nil
}

// ApplyTransition performs the version-checked state change. A missing row
// maps to not-found; a present row with a different version maps to conflict.
func (r *pgRepository) ApplyTransition(ctx context.Context, t Transition) (*RepairOrder, error) {
	var setClauses []string
	args := []any{t.OrderID, t.ExpectedVersion, string(t.Status)}
	argCount := 3

	setClauses = append(setClauses, "status = $3", "version = version + 1", "updated_at = NOW()")
	if t.ClearTimestamps {
		setClauses = append(setClauses, "started_at = NULL", "completed_at = NULL", "delivered_at = NULL")
	}
	if t.StartedAt != nil {
		argCount++
		setClauses = append(setClauses, "started_at = $"+strconv.Itoa(argCount))
		args = append(args, *t.StartedAt)
	}
	if t.CompletedAt != nil {
		argCount++
		setClauses = append(setClauses, "completed_at = $"+strconv.Itoa(argCount))
		args = append(args, *t.CompletedAt)
	}
	if t.DeliveredAt != nil {
		argCount++
		setClauses = append(setClauses, "delivered_at = $"+strconv.Itoa(argCount))
		args = append(args, *t.DeliveredAt)
	}
	if t.Reason != nil {
		argCount++
		setClauses = append(setClauses, "cancel_reason = $"+strconv.Itoa(argCount))
		args = append(args, *t.Reason)
	}
	if t.DurationHours != nil {
		argCount++
		setClauses = append(setClauses, "duration_hours = $"+strconv.Itoa(argCount))
		args = append(args, *t.DurationHours)
	}
	if t.ProgressPercent != nil {
		argCount++
		setClauses = append(setClauses, "progress_percent = $"+strconv.Itoa(argCount))
		args = append(args, *t.ProgressPercent)
	}

	query := "UPDATE repair_orders SET " + strings.Join(setClauses, ", ") +
		" WHERE id = $1 AND version = $2"
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("apply transition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM repair_orders WHERE id = $1)", t.OrderID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check repair order: %w", err)
		}
		if !exists {
			return nil, shared.ErrNotFound
		}
		return nil, shared.ErrConflict
	}
	return r.Get(ctx, t.OrderID)
}

func (r *pgRepository) SetInvoice(ctx context.Context, orderID, expectedVersion, invoiceID int64) error {
	return r.setReference(ctx, "invoice_id", orderID, expectedVersion, invoiceID)
}

func (r *pgRepository) SetSaleOrder(ctx context.Context, orderID, expectedVersion, saleOrderID int64) error {
	return r.setReference(ctx, "sale_order_id", orderID, expectedVersion, saleOrderID)
}

func (r *pgRepository) SetStockTransfer(ctx context.Context, orderID, expectedVersion int64, transferRef string) error {
	return r.setReference(ctx, "stock_transfer_ref", orderID, expectedVersion, transferRef)
}

func (r *pgRepository) setReference(ctx context.Context, column string, orderID, expectedVersion int64, value any) error {
	// column is one of three fixed names, never user input.
	query := "UPDATE repair_orders SET " + column + " = $3, version = version + 1, updated_at = NOW()" +
		" WHERE id = $1 AND version = $2 AND " + column + " IS NULL"
	tag, err := r.pool.Exec(ctx, query, orderID, expectedVersion, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrConflict
	}
	return nil
}

func (r *pgRepository) CountActiveByTechnician(ctx context.Context, technicianID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM repair_orders
		WHERE technician_id = $1 AND status IN ('draft', 'in_progress')`,
		technicianID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active orders: %w", err)
	}
	return count, nil
}

// LatestReference supports the sequence fallback path.
func (r *pgRepository) LatestReference(ctx context.Context, prefix string) (string, error) {
	var reference string
	err := r.pool.QueryRow(ctx, `
		SELECT reference FROM repair_orders
		WHERE reference LIKE $1
		ORDER BY id DESC LIMIT 1`,
		prefix+"/%").Scan(&reference)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", shared.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("latest reference: %w", err)
	}
	return reference, nil
}
