package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/courtly/courtly/internal/models"
)

var (
	// 2026-09-05 is a Saturday, 2026-09-07 a Monday.
	saturday = time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	monday   = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
)

func baseCourt() models.Court {
	return models.Court{
		PricePerHourCents: 10000,
		SlotDurationMin:   60,
	}
}

func TestForSlotBase(t *testing.T) {
	q := ForSlot(baseCourt(), monday, 600, 660, nil)
	assert.Equal(t, int64(10000), q.BaseCents)
	assert.Equal(t, 1.0, q.Multiplier)
	assert.Equal(t, int64(10000), q.TotalCents)
}

func TestForSlotProRatesPartialHours(t *testing.T) {
	q := ForSlot(baseCourt(), monday, 600, 690, nil)
	assert.Equal(t, int64(15000), q.TotalCents)

	q = ForSlot(baseCourt(), monday, 600, 630, nil)
	assert.Equal(t, int64(5000), q.TotalCents)
}

func TestForSlotRoundsBaseHalfUp(t *testing.T) {
	// 70 minutes at 10000¢/h is 11666.67¢ exactly; truncation would lose a cent.
	q := ForSlot(baseCourt(), monday, 600, 670, nil)
	assert.Equal(t, int64(11667), q.BaseCents)
	assert.Equal(t, int64(11667), q.TotalCents)
}

func TestForSlotWeekendMultiplier(t *testing.T) {
	court := baseCourt()
	court.DynamicPricing = true
	court.WeekendMultiplier = 1.2

	q := ForSlot(court, saturday, 600, 660, nil)
	assert.Equal(t, int64(12000), q.TotalCents)

	// Same rule set on a weekday stays at base.
	q = ForSlot(court, monday, 600, 660, nil)
	assert.Equal(t, int64(10000), q.TotalCents)
}

func TestForSlotPeakLargestWins(t *testing.T) {
	court := baseCourt()
	court.DynamicPricing = true

	peaks := []models.PeakWindow{
		{StartMin: 540, EndMin: 630, Multiplier: 1.25}, // overlaps the slot head
		{StartMin: 630, EndMin: 720, Multiplier: 1.5},  // overlaps the tail
		{StartMin: 720, EndMin: 780, Multiplier: 2.0},  // touches the end, no overlap
	}

	q := ForSlot(court, monday, 600, 720, peaks)
	assert.Equal(t, 1.5, q.Multiplier, "largest overlapping multiplier wins, not the sum")
	assert.Equal(t, int64(30000), q.TotalCents)
}

func TestForSlotWeekendAndPeakCompose(t *testing.T) {
	court := baseCourt()
	court.DynamicPricing = true
	court.WeekendMultiplier = 1.2

	peaks := []models.PeakWindow{{StartMin: 540, EndMin: 720, Multiplier: 1.5}}

	q := ForSlot(court, saturday, 600, 660, peaks)
	assert.InDelta(t, 1.8, q.Multiplier, 1e-9)
	assert.Equal(t, int64(18000), q.TotalCents)
}

func TestForSlotDynamicPricingDisabledIgnoresRules(t *testing.T) {
	court := baseCourt()
	court.WeekendMultiplier = 1.2

	peaks := []models.PeakWindow{{StartMin: 540, EndMin: 720, Multiplier: 1.5}}

	q := ForSlot(court, saturday, 600, 660, peaks)
	assert.Equal(t, int64(10000), q.TotalCents)
}
