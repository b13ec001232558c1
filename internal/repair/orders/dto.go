package orders

import "time"

type LineInput struct {
	LineType        string  `json:"line_type"`
	ProductName     string  `json:"product_name" validate:"required,min=1,max=200"`
	Description     *string `json:"description" validate:"omitempty,max=1000"`
	Quantity        float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice       float64 `json:"unit_price" validate:"gte=0"`
	DiscountPercent float64 `json:"discount_percent" validate:"gte=0,lte=100"`
	TaxPercent      float64 `json:"tax_percent" validate:"gte=0,lte=100"`
}

type CreateRequest struct {
	CustomerID         int64       `json:"customer_id" validate:"required,gt=0"`
	DeviceID           int64       `json:"device_id" validate:"required,gt=0"`
	TechnicianID       *int64      `json:"technician_id" validate:"omitempty,gt=0"`
	FaultIDs           []int64     `json:"fault_ids" validate:"min=1,dive,gt=0"`
	Priority           string      `json:"priority"`
	ProblemDescription string      `json:"problem_description" validate:"required,min=3,max=2000"`
	Notes              *string     `json:"notes" validate:"omitempty,max=2000"`
	EstimatedCost      float64     `json:"estimated_cost" validate:"gte=0"`
	ReceivedAt         *time.Time  `json:"received_at"`
	PromisedAt         *time.Time  `json:"promised_at"`
	Lines              []LineInput `json:"lines" validate:"dive"`
}

// UpdateRequest edits a draft order. Nil fields are left untouched; a non-nil
// Lines slice replaces the whole line set.
type UpdateRequest struct {
	TechnicianID       *int64      `json:"technician_id" validate:"omitempty,gt=0"`
	FaultIDs           []int64     `json:"fault_ids" validate:"omitempty,min=1,dive,gt=0"`
	Priority           *string     `json:"priority"`
	ProblemDescription *string     `json:"problem_description" validate:"omitempty,min=3,max=2000"`
	Diagnosis          *string     `json:"diagnosis" validate:"omitempty,max=2000"`
	Notes              *string     `json:"notes" validate:"omitempty,max=2000"`
	EstimatedCost      *float64    `json:"estimated_cost" validate:"omitempty,gte=0"`
	PromisedAt         *time.Time  `json:"promised_at"`
	Lines              []LineInput `json:"lines" validate:"omitempty,dive"`
}

// TransitionRequest carries the version the caller last saw. A stale version
// is rejected with a conflict instead of silently overwriting.
type TransitionRequest struct {
	Version int64   `json:"version" validate:"required,gt=0"`
	Reason  *string `json:"reason" validate:"omitempty,max=500"`
}

type ListFilters struct {
	Page         int
	Limit        int
	Search       string
	Status       *Status
	CustomerID   *int64
	TechnicianID *int64
	DateFrom     *time.Time
	DateTo       *time.Time
}

func (f ListFilters) Offset() int {
	return (f.Page - 1) * f.Limit
}
