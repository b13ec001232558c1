// Package billing is the minimal mirror of the external accounting
// subsystem. Repair orders hand their lines over verbatim and keep only the
// returned identifiers; nothing here posts real accounting entries.
package billing

import "time"

type InvoiceStatus string

const (
	InvoiceDraft  InvoiceStatus = "draft"
	InvoicePosted InvoiceStatus = "posted"
	InvoicePaid   InvoiceStatus = "paid"
)

type Invoice struct {
	ID             int64         `json:"id"`
	Reference      string        `json:"reference"`
	OrderID        int64         `json:"order_id"`
	OrderReference string        `json:"order_reference"`
	CustomerID     int64         `json:"customer_id"`
	Currency       string        `json:"currency"`
	Status         InvoiceStatus `json:"status"`
	Total          float64       `json:"total"`
	CreatedAt      time.Time     `json:"created_at"`
}

type SaleOrder struct {
	ID             int64     `json:"id"`
	Reference      string    `json:"reference"`
	OrderID        int64     `json:"order_id"`
	OrderReference string    `json:"order_reference"`
	CustomerID     int64     `json:"customer_id"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	Total          float64   `json:"total"`
	CreatedAt      time.Time `json:"created_at"`
}

// LineInput mirrors one order line into the accounting document. Quantities,
// prices and tax references are copied verbatim from the source line.
type LineInput struct {
	ProductName     string
	Description     string
	Quantity        float64
	UnitPrice       float64
	DiscountPercent float64
	TaxPercent      float64
	Subtotal        float64
	Total           float64
}

// DocumentInput carries everything needed to mint an invoice or sale order
// from a repair order without the billing package knowing the order type.
type DocumentInput struct {
	OrderID        int64
	OrderReference string
	CustomerID     int64
	Currency       string
	Total          float64
	Lines          []LineInput
}
