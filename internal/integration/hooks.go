// Package integration adapts the billing and inventory services to the hook
// surface the repair workflow calls into.
package integration

import (
	"context"

	"github.com/fixflow-rms/fixflow/internal/billing"
	"github.com/fixflow-rms/fixflow/internal/inventory"
	"github.com/fixflow-rms/fixflow/internal/repair/orders"
)

type Hooks struct {
	billing   *billing.Service
	inventory *inventory.Service
}

func NewHooks(billingSvc *billing.Service, inventorySvc *inventory.Service) *Hooks {
	return &Hooks{billing: billingSvc, inventory: inventorySvc}
}

var _ orders.Hooks = (*Hooks)(nil)

func (h *Hooks) CreateInvoice(ctx context.Context, o *orders.RepairOrder) (int64, error) {
	return h.billing.CreateInvoice(ctx, documentInput(o, o.Lines))
}

func (h *Hooks) CreateSaleOrder(ctx context.Context, o *orders.RepairOrder) (int64, error) {
	return h.billing.CreateSaleOrder(ctx, documentInput(o, o.Lines))
}

func (h *Hooks) CreateStockTransfer(ctx context.Context, o *orders.RepairOrder) (string, error) {
	storable := o.StorableLines()
	lines := make([]inventory.TransferLine, 0, len(storable))
	for _, line := range storable {
		lines = append(lines, inventory.TransferLine{
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
		})
	}
	return h.inventory.CreateTransfer(ctx, inventory.TransferInput{
		OrderID:        o.ID,
		OrderReference: o.Reference,
		Lines:          lines,
	})
}

func (h *Hooks) InvoiceStatus(ctx context.Context, invoiceID int64) (string, error) {
	return h.billing.InvoiceStatus(ctx, invoiceID)
}

// documentInput copies the order lines verbatim into the billing contract.
func documentInput(o *orders.RepairOrder, lines []orders.Line) billing.DocumentInput {
	docLines := make([]billing.LineInput, 0, len(lines))
	for _, line := range lines {
		description := ""
		if line.Description != nil {
			description = *line.Description
		}
		docLines = append(docLines, billing.LineInput{
			ProductName:     line.ProductName,
			Description:     description,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			DiscountPercent: line.DiscountPercent,
			TaxPercent:      line.TaxPercent,
			Subtotal:        line.Subtotal,
			Total:           line.Total,
		})
	}
	return billing.DocumentInput{
		OrderID:        o.ID,
		OrderReference: o.Reference,
		CustomerID:     o.CustomerID,
		Currency:       o.Currency,
		Total:          o.TotalAmount,
		Lines:          docLines,
	}
}
