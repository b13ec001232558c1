package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixflow-rms/fixflow/internal/platform/db"
	"github.com/fixflow-rms/fixflow/internal/shared"
)

const (
	invoiceSequenceCode   = "billing.invoice"
	invoiceSequencePrefix = "INV"
	saleSequenceCode      = "billing.sale"
	saleSequencePrefix    = "SO"
)

// Sequencer mints document references, normally the shared sequence service.
type Sequencer interface {
	Next(ctx context.Context, code, prefix string) (string, error)
}

type Service struct {
	pool     *pgxpool.Pool
	sequence Sequencer
}

func NewService(pool *pgxpool.Pool, sequence Sequencer) *Service {
	return &Service{pool: pool, sequence: sequence}
}

// RegisterSequences ensures both document sequences exist. Called once at
// bootstrap.
func RegisterSequences(ctx context.Context, seq interface {
	Register(ctx context.Context, code, prefix string) error
}) error {
	if err := seq.Register(ctx, invoiceSequenceCode, invoiceSequencePrefix); err != nil {
		return err
	}
	return seq.Register(ctx, saleSequenceCode, saleSequencePrefix)
}

// CreateInvoice mirrors the document input into an invoice in draft status
// and returns its id. The one-shot guard lives with the caller.
func (s *Service) CreateInvoice(ctx context.Context, input DocumentInput) (int64, error) {
	if len(input.Lines) == 0 {
		return 0, errors.New("billing: invoice requires at least one line")
	}

	reference, err := s.sequence.Next(ctx, invoiceSequenceCode, invoiceSequencePrefix)
	if err != nil {
		return 0, fmt.Errorf("billing: mint invoice reference: %w", err)
	}

	var invoiceID int64
	err = db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO invoices (reference, order_id, order_reference, customer_id, currency, status, total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			reference, input.OrderID, input.OrderReference, input.CustomerID,
			input.Currency, InvoiceDraft, input.Total,
		).Scan(&invoiceID)
		if err != nil {
			return fmt.Errorf("billing: insert invoice: %w", err)
		}
		return insertLines(ctx, tx, "invoice_lines", "invoice_id", invoiceID, input.Lines)
	})
	if err != nil {
		return 0, err
	}
	return invoiceID, nil
}

// CreateSaleOrder mirrors the document input into a confirmed sale order.
func (s *Service) CreateSaleOrder(ctx context.Context, input DocumentInput) (int64, error) {
	if len(input.Lines) == 0 {
		return 0, errors.New("billing: sale order requires at least one line")
	}

	reference, err := s.sequence.Next(ctx, saleSequenceCode, saleSequencePrefix)
	if err != nil {
		return 0, fmt.Errorf("billing: mint sale order reference: %w", err)
	}

	var saleOrderID int64
	err = db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO sale_orders (reference, order_id, order_reference, customer_id, currency, status, total)
			VALUES ($1, $2, $3, $4, $5, 'confirmed', $6)
			RETURNING id`,
			reference, input.OrderID, input.OrderReference, input.CustomerID,
			input.Currency, input.Total,
		).Scan(&saleOrderID)
		if err != nil {
			return fmt.Errorf("billing: insert sale order: %w", err)
		}
		return insertLines(ctx, tx, "sale_order_lines", "sale_order_id", saleOrderID, input.Lines)
	})
	if err != nil {
		return 0, err
	}
	return saleOrderID, nil
}

func insertLines(ctx context.Context, tx pgx.Tx, table, fkColumn string, documentID int64, lines []LineInput) error {
	for i, line := range lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO `+table+` (`+fkColumn+`, sequence, product_name, description, quantity,
			                       unit_price, discount_percent, tax_percent, subtotal, total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			documentID, i+1, line.ProductName, line.Description, line.Quantity,
			line.UnitPrice, line.DiscountPercent, line.TaxPercent, line.Subtotal, line.Total)
		if err != nil {
			return fmt.Errorf("billing: insert %s line: %w", table, err)
		}
	}
	return nil
}

// InvoiceStatus reads back the posting/payment state of an invoice.
func (s *Service) InvoiceStatus(ctx context.Context, invoiceID int64) (string, error) {
	var status string
	err := s.pool.QueryRow(ctx, "SELECT status FROM invoices WHERE id = $1", invoiceID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", shared.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("billing: invoice status: %w", err)
	}
	return status, nil
}

// MarkInvoice moves an invoice along draft -> posted -> paid. Exposed for the
// payment recording endpoint.
func (s *Service) MarkInvoice(ctx context.Context, invoiceID int64, status InvoiceStatus) error {
	if status != InvoicePosted && status != InvoicePaid {
		return fmt.Errorf("billing: cannot move an invoice to %q", status)
	}
	tag, err := s.pool.Exec(ctx,
		"UPDATE invoices SET status = $2 WHERE id = $1", invoiceID, status)
	if err != nil {
		return fmt.Errorf("billing: mark invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
