// Package inventory is the minimal mirror of the external stock subsystem.
// Storable repair lines are reserved at most once per order; service lines
// never reach it.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixflow-rms/fixflow/internal/platform/db"
	"github.com/fixflow-rms/fixflow/internal/shared"
)

type TransferLine struct {
	ProductName string
	Quantity    float64
}

type TransferInput struct {
	OrderID        int64
	OrderReference string
	Lines          []TransferLine
}

type StockTransfer struct {
	Ref            string    `json:"ref"`
	OrderID        int64     `json:"order_id"`
	OrderReference string    `json:"order_reference"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// CreateTransfer reserves the given lines and returns the transfer reference.
func (s *Service) CreateTransfer(ctx context.Context, input TransferInput) (string, error) {
	if len(input.Lines) == 0 {
		return "", errors.New("inventory: transfer requires at least one line")
	}

	ref := uuid.NewString()
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO stock_transfers (ref, order_id, order_reference, status)
			VALUES ($1, $2, $3, 'reserved')`,
			ref, input.OrderID, input.OrderReference)
		if err != nil {
			return fmt.Errorf("inventory: insert transfer: %w", err)
		}
		for i, line := range input.Lines {
			_, err := tx.Exec(ctx, `
				INSERT INTO stock_transfer_lines (transfer_ref, sequence, product_name, quantity)
				VALUES ($1, $2, $3, $4)`,
				ref, i+1, line.ProductName, line.Quantity)
			if err != nil {
				return fmt.Errorf("inventory: insert transfer line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return ref, nil
}

// Get returns the transfer header.
func (s *Service) Get(ctx context.Context, ref string) (*StockTransfer, error) {
	var t StockTransfer
	err := s.pool.QueryRow(ctx, `
		SELECT ref, order_id, order_reference, status, created_at
		FROM stock_transfers WHERE ref = $1`, ref).
		Scan(&t.Ref, &t.OrderID, &t.OrderReference, &t.Status, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("inventory: get transfer: %w", err)
	}
	return &t, nil
}
