package models

import "time"

// Court is read-only reference data for the reservation engine. Venue and
// court management live elsewhere; the engine only consumes the fields that
// drive slot derivation and pricing.
type Court struct {
	ID                int64
	VenueID           int64
	Name              string
	PricePerHourCents int64
	SlotDurationMin   int
	DynamicPricing    bool
	WeekendMultiplier float64
	AdvanceDays       int
	Active            bool
	CreatedAt         time.Time
}

// OperatingWindow is the open/close window for one weekday, in minutes
// since midnight. A court with no window for a weekday is closed that day.
type OperatingWindow struct {
	DayOfWeek time.Weekday
	OpenMin   int
	CloseMin  int
}

// PeakWindow is a dynamic-pricing rule: a half-open clock window and the
// multiplier applied to slots overlapping it.
type PeakWindow struct {
	StartMin   int
	EndMin     int
	Multiplier float64
}

// MaintenanceWindow blocks a court for part of a specific date. It is
// treated like a reservation for the overlap test.
type MaintenanceWindow struct {
	CourtID  int64
	Date     string
	StartMin int
	EndMin   int
	Reason   string
}
