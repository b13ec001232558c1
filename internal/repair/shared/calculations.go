// Package shared holds the pure order math: line totals, durations and the
// cosmetic progress figure. Everything here is deterministic and free of I/O
// so aggregate fields can be recomputed from scratch at any time.
package shared

import "time"

// LineTotals is the derived money breakdown of a single order line.
type LineTotals struct {
	DiscountAmount float64
	TaxAmount      float64
	Subtotal       float64
	Total          float64
}

// CalculateLineTotals derives the money fields from the raw line inputs.
// The subtotal is tax-exclusive; tax applies to the discounted net price.
func CalculateLineTotals(quantity, unitPrice, discountPercent, taxPercent float64) LineTotals {
	netPrice := unitPrice * (1 - discountPercent/100)
	subtotal := netPrice * quantity
	tax := subtotal * taxPercent / 100
	return LineTotals{
		DiscountAmount: (unitPrice*quantity - subtotal),
		TaxAmount:      tax,
		Subtotal:       subtotal,
		Total:          subtotal + tax,
	}
}

// DurationHours measures the repair span in hours. The start anchor is
// started_at when set, otherwise the received timestamp. Returns 0 when the
// order is not completed or the anchors are inverted.
func DurationHours(receivedAt time.Time, startedAt, completedAt *time.Time) float64 {
	if completedAt == nil {
		return 0
	}
	anchor := receivedAt
	if startedAt != nil {
		anchor = *startedAt
	}
	if completedAt.Before(anchor) {
		return 0
	}
	return completedAt.Sub(anchor).Hours()
}

// ProgressPercent maps order state plus a few completeness signals to a
// 0-100 figure shown on kanban cards. Cosmetic only.
func ProgressPercent(status string, hasTechnician, hasLines, hasDiagnosis bool) int {
	var base int
	switch status {
	case "draft":
		base = 10
	case "in_progress":
		base = 50
	case "ready":
		base = 90
	case "delivered":
		return 100
	default: // cancelled or unknown
		return 0
	}

	if hasTechnician {
		base += 5
	}
	if hasLines {
		base += 5
	}
	if hasDiagnosis {
		base += 5
	}
	if base > 95 {
		base = 95
	}
	return base
}
