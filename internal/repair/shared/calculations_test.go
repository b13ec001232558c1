package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateLineTotals(t *testing.T) {
	t.Run("no discount no tax", func(t *testing.T) {
		got := CalculateLineTotals(2, 50, 0, 0)
		assert.InDelta(t, 100, got.Subtotal, 0.001)
		assert.InDelta(t, 100, got.Total, 0.001)
		assert.InDelta(t, 0, got.DiscountAmount, 0.001)
		assert.InDelta(t, 0, got.TaxAmount, 0.001)
	})

	t.Run("discount applies before tax", func(t *testing.T) {
		got := CalculateLineTotals(2, 100, 10, 20)
		assert.InDelta(t, 180, got.Subtotal, 0.001)
		assert.InDelta(t, 20, got.DiscountAmount, 0.001)
		assert.InDelta(t, 36, got.TaxAmount, 0.001)
		assert.InDelta(t, 216, got.Total, 0.001)
	})

	t.Run("full discount zeroes everything but the discount", func(t *testing.T) {
		got := CalculateLineTotals(3, 40, 100, 21)
		assert.InDelta(t, 0, got.Subtotal, 0.001)
		assert.InDelta(t, 120, got.DiscountAmount, 0.001)
		assert.InDelta(t, 0, got.Total, 0.001)
	})
}

func TestDurationHours(t *testing.T) {
	received := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	started := received.Add(2 * time.Hour)
	completed := received.Add(8 * time.Hour)

	t.Run("uses started anchor when set", func(t *testing.T) {
		assert.InDelta(t, 6, DurationHours(received, &started, &completed), 0.001)
	})

	t.Run("falls back to received", func(t *testing.T) {
		assert.InDelta(t, 8, DurationHours(received, nil, &completed), 0.001)
	})

	t.Run("zero when not completed", func(t *testing.T) {
		assert.Zero(t, DurationHours(received, &started, nil))
	})

	t.Run("zero when inverted", func(t *testing.T) {
		early := received.Add(-time.Hour)
		assert.Zero(t, DurationHours(received, &started, &early))
	})
}

func TestProgressPercent(t *testing.T) {
	assert.Equal(t, 10, ProgressPercent("draft", false, false, false))
	assert.Equal(t, 25, ProgressPercent("draft", true, true, true))
	assert.Equal(t, 50, ProgressPercent("in_progress", false, false, false))
	assert.Equal(t, 65, ProgressPercent("in_progress", true, true, true))
	assert.Equal(t, 95, ProgressPercent("ready", true, true, true))
	assert.Equal(t, 100, ProgressPercent("delivered", false, false, false))
	assert.Equal(t, 0, ProgressPercent("cancelled", true, true, true))
}
