package orders

import "errors"

var (
	ErrInvalidTransition  = errors.New("transition not allowed from the current state")
	ErrTechnicianRequired = errors.New("a technician must be assigned before starting the repair")
	ErrLinesRequired      = errors.New("at least one order line is required")
	ErrNotEditable        = errors.New("only draft orders can be edited")
	ErrAlreadyInvoiced    = errors.New("an invoice already exists for this order")
	ErrSaleOrderExists    = errors.New("a sale order already exists for this order")
	ErrAlreadyTransferred = errors.New("a stock transfer already exists for this order")
	ErrNoBillableAmount   = errors.New("order total must be positive to invoice")
	ErrNoStorableLines    = errors.New("order has no product lines to transfer")
	ErrFaultRequired      = errors.New("at least one fault must be selected")
)
