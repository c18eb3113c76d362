// Package slots derives the bookable time grid for a court day from its
// operating window. Slots are never persisted; the same inputs always yield
// the same sequence.
package slots

import (
	"github.com/courtly/courtly/internal/interval"
)

const (
	// MinDuration and MaxDuration bound a court's configured slot size in
	// minutes.
	MinDuration = 15
	MaxDuration = 240
)

// Slot is a half-open [StartMin, EndMin) candidate interval, in minutes
// since midnight.
type Slot struct {
	StartMin int
	EndMin   int
}

// Start returns the slot start as "HH:MM".
func (s Slot) Start() string { return interval.FormatClock(s.StartMin) }

// End returns the slot end as "HH:MM".
func (s Slot) End() string { return interval.FormatClock(s.EndMin) }

// ValidDuration reports whether d is an acceptable slot duration.
func ValidDuration(d int) bool {
	return d >= MinDuration && d <= MaxDuration
}

// Generate produces the ordered, contiguous slot sequence
// [open, open+d), [open+d, open+2d), ... truncated so the last slot's end
// never exceeds close. An empty sequence is returned when the window is
// shorter than one slot or the inputs are degenerate.
func Generate(openMin, closeMin, durationMin int) []Slot {
	if durationMin <= 0 || openMin >= closeMin {
		return nil
	}

	var out []Slot
	for start := openMin; start+durationMin <= closeMin; start += durationMin {
		out = append(out, Slot{StartMin: start, EndMin: start + durationMin})
	}
	return out
}

// Aligned reports whether [startMin, endMin) sits exactly on the slot grid
// that Generate produces for the given window and duration.
func Aligned(openMin, closeMin, durationMin, startMin, endMin int) bool {
	if endMin-startMin != durationMin {
		return false
	}
	if startMin < openMin || endMin > closeMin {
		return false
	}
	return (startMin-openMin)%durationMin == 0
}
