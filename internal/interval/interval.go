// Package interval provides clock-time parsing and half-open interval
// arithmetic on minutes since midnight.
package interval

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// Overlaps reports whether the half-open intervals [startA, endA) and
// [startB, endB) share at least one instant. Touching endpoints do not
// overlap.
func Overlaps(startA, endA, startB, endB int) bool {
	return startA < endB && startB < endA
}

// ParseClock converts a "HH:MM" string into minutes since midnight.
func ParseClock(value string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock time %q out of range", value)
	}
	return hour*60 + minute, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	if minutes < 0 || minutes >= minutesPerDay {
		minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
