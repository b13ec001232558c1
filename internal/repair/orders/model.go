package orders

import (
	"time"

	repairshared "github.com/fixflow-rms/fixflow/internal/repair/shared"
)

type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in_progress"
	StatusReady      Status = "ready"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type LineType string

const (
	LineService LineType = "service"
	LineProduct LineType = "product"
)

// Line is one billable item on an order. Money fields are derived from the
// raw inputs and stored alongside them.
type Line struct {
	ID              int64    `json:"id"`
	OrderID         int64    `json:"order_id"`
	Sequence        int      `json:"sequence"`
	LineType        LineType `json:"line_type"`
	ProductName     string   `json:"product_name"`
	Description     *string  `json:"description,omitempty"`
	Quantity        float64  `json:"quantity"`
	UnitPrice       float64  `json:"unit_price"`
	DiscountPercent float64  `json:"discount_percent"`
	TaxPercent      float64  `json:"tax_percent"`
	DiscountAmount  float64  `json:"discount_amount"`
	TaxAmount       float64  `json:"tax_amount"`
	Subtotal        float64  `json:"subtotal"`
	Total           float64  `json:"total"`
}

// RepairOrder is the aggregate root for one device repair engagement. The
// reference is minted once at creation and never changes; version guards
// every state transition.
type RepairOrder struct {
	ID        int64  `json:"id"`
	Reference string `json:"reference"`
	Version   int64  `json:"version"`

	CustomerID   int64  `json:"customer_id"`
	CustomerName string `json:"customer_name,omitempty"`
	DeviceID     int64  `json:"device_id"`
	DeviceCode   string `json:"device_code,omitempty"`

	TechnicianID   *int64 `json:"technician_id,omitempty"`
	TechnicianName string `json:"technician_name,omitempty"`

	FaultIDs []int64 `json:"fault_ids"`

	Status   Status   `json:"status"`
	Priority Priority `json:"priority"`

	ProblemDescription string  `json:"problem_description"`
	Diagnosis          *string `json:"diagnosis,omitempty"`
	Notes              *string `json:"notes,omitempty"`
	CancelReason       *string `json:"cancel_reason,omitempty"`

	EstimatedCost float64 `json:"estimated_cost"`
	TotalAmount   float64 `json:"total_amount"`
	Currency      string  `json:"currency"`

	ReceivedAt  time.Time  `json:"received_at"`
	PromisedAt  *time.Time `json:"promised_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`

	InvoiceID        *int64  `json:"invoice_id,omitempty"`
	InvoiceStatus    string  `json:"invoice_status,omitempty"`
	SaleOrderID      *int64  `json:"sale_order_id,omitempty"`
	StockTransferRef *string `json:"stock_transfer_ref,omitempty"`

	Lines []Line `json:"lines"`

	DurationHours   float64 `json:"duration_hours"`
	ProgressPercent int     `json:"progress_percent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Invoiced reports whether an invoice reference exists. Cancellation and
// reset are forbidden once it does.
func (o *RepairOrder) Invoiced() bool {
	return o.InvoiceID != nil
}

// Recompute rederives every aggregate field from the lines and timestamps.
// Pure: calling it twice in a row is a no-op.
func (o *RepairOrder) Recompute() {
	var total float64
	for i := range o.Lines {
		t := repairshared.CalculateLineTotals(
			o.Lines[i].Quantity, o.Lines[i].UnitPrice,
			o.Lines[i].DiscountPercent, o.Lines[i].TaxPercent)
		o.Lines[i].DiscountAmount = t.DiscountAmount
		o.Lines[i].TaxAmount = t.TaxAmount
		o.Lines[i].Subtotal = t.Subtotal
		o.Lines[i].Total = t.Total
		total += t.Subtotal
	}
	o.TotalAmount = total
	o.DurationHours = repairshared.DurationHours(o.ReceivedAt, o.StartedAt, o.CompletedAt)
	o.ProgressPercent = repairshared.ProgressPercent(string(o.Status),
		o.TechnicianID != nil, len(o.Lines) > 0, o.Diagnosis != nil && *o.Diagnosis != "")
}

// StorableLines returns the product lines eligible for a stock transfer.
// Service lines never move inventory.
func (o *RepairOrder) StorableLines() []Line {
	storable := make([]Line, 0, len(o.Lines))
	for _, line := range o.Lines {
		if line.LineType == LineProduct {
			storable = append(storable, line)
		}
	}
	return storable
}
