// Package pricing computes a slot's price from a court's base rate and its
// dynamic-pricing rules. Pure and deterministic given its inputs.
package pricing

import (
	"math"
	"time"

	"github.com/courtly/courtly/internal/interval"
	"github.com/courtly/courtly/internal/models"
)

// Quote is the price breakdown returned to the reservation manager and to
// availability listings.
type Quote struct {
	BaseCents  int64   `json:"base_cents"`
	Multiplier float64 `json:"multiplier"`
	TotalCents int64   `json:"total_cents"`
}

// ForSlot prices the half-open slot [startMin, endMin) on the given date.
// Base is the pro-rated hourly rate, rounded half-up to the nearest cent.
// With dynamic pricing enabled, a weekend multiplier applies on Saturday
// and Sunday, and the largest peak multiplier whose window overlaps the
// slot applies on top. Multipliers compose multiplicatively.
func ForSlot(court models.Court, date time.Time, startMin, endMin int, peaks []models.PeakWindow) Quote {
	base := (court.PricePerHourCents*int64(endMin-startMin) + 30) / 60
	multiplier := 1.0

	if court.DynamicPricing {
		if weekday := date.Weekday(); weekday == time.Saturday || weekday == time.Sunday {
			if court.WeekendMultiplier > 0 {
				multiplier *= court.WeekendMultiplier
			}
		}

		peak := 0.0
		for _, window := range peaks {
			if !interval.Overlaps(startMin, endMin, window.StartMin, window.EndMin) {
				continue
			}
			if window.Multiplier > peak {
				peak = window.Multiplier
			}
		}
		if peak > 0 {
			multiplier *= peak
		}
	}

	return Quote{
		BaseCents:  base,
		Multiplier: multiplier,
		TotalCents: int64(math.Round(float64(base) * multiplier)),
	}
}
