package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/courtly/courtly/internal/db"
	"github.com/courtly/courtly/internal/interval"
	"github.com/courtly/courtly/internal/models"
	"github.com/courtly/courtly/internal/pricing"
	"github.com/courtly/courtly/internal/slots"
)

const (
	slotReasonBooked      = "booked"
	slotReasonMaintenance = "maintenance"
	dayReasonClosed       = "closed"
)

// SlotStatus annotates one candidate slot for a court day. Unavailable
// slots are flagged, never dropped, so callers can render a full schedule.
type SlotStatus struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	Available  bool   `json:"available"`
	PriceCents int64  `json:"price_cents"`
	Reason     string `json:"reason,omitempty"`
}

// DaySchedule is the full availability picture for a court on a date.
type DaySchedule struct {
	CourtID int64        `json:"court_id"`
	Date    string       `json:"date"`
	Closed  bool         `json:"closed"`
	Reason  string       `json:"reason,omitempty"`
	Open    string       `json:"open,omitempty"`
	Close   string       `json:"close,omitempty"`
	Slots   []SlotStatus `json:"slots"`
}

// Availability derives the day's slot grid from the court's operating hours
// and marks each slot against the blocking reservations and maintenance
// windows. Expired pending holds read as free even before the sweeper runs.
func (m *Manager) Availability(ctx context.Context, courtID int64, dateValue string) (*DaySchedule, error) {
	court, err := m.db.GetCourt(ctx, courtID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("load court: %w", err)
	}

	date, err := m.validateDate(dateValue, court.AdvanceDays)
	if err != nil {
		return nil, err
	}

	schedule := &DaySchedule{CourtID: court.ID, Date: dateValue}

	window, err := m.db.GetOperatingWindow(ctx, court.ID, date.Weekday())
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			schedule.Closed = true
			schedule.Reason = dayReasonClosed
			return schedule, nil
		}
		return nil, fmt.Errorf("load operating hours: %w", err)
	}
	schedule.Open = interval.FormatClock(window.OpenMin)
	schedule.Close = interval.FormatClock(window.CloseMin)

	blockers, err := m.db.ListBlocking(ctx, court.ID, dateValue, m.now())
	if err != nil {
		return nil, err
	}
	maintenance, err := m.db.ListMaintenanceWindows(ctx, court.ID, dateValue)
	if err != nil {
		return nil, fmt.Errorf("load maintenance windows: %w", err)
	}
	peaks, err := m.db.ListPeakWindows(ctx, court.ID)
	if err != nil {
		return nil, fmt.Errorf("load peak windows: %w", err)
	}

	for _, slot := range slots.Generate(window.OpenMin, window.CloseMin, court.SlotDurationMin) {
		status := SlotStatus{
			Start:      slot.Start(),
			End:        slot.End(),
			Available:  true,
			PriceCents: pricing.ForSlot(*court, date, slot.StartMin, slot.EndMin, peaks).TotalCents,
		}
		if blocked(slot, blockers, m.now()) {
			status.Available = false
			status.Reason = slotReasonBooked
		} else if maintained(slot, maintenance) {
			status.Available = false
			status.Reason = slotReasonMaintenance
		}
		schedule.Slots = append(schedule.Slots, status)
	}

	return schedule, nil
}

func blocked(slot slots.Slot, blockers []models.Reservation, now time.Time) bool {
	for _, r := range blockers {
		if !r.Blocks(now) {
			continue
		}
		if interval.Overlaps(slot.StartMin, slot.EndMin, r.StartMin, r.EndMin) {
			return true
		}
	}
	return false
}

func maintained(slot slots.Slot, windows []models.MaintenanceWindow) bool {
	for _, w := range windows {
		if interval.Overlaps(slot.StartMin, slot.EndMin, w.StartMin, w.EndMin) {
			return true
		}
	}
	return false
}
