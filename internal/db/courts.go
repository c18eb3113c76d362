package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/courtly/courtly/internal/models"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// GetCourt returns a court by id.
func (db *DB) GetCourt(ctx context.Context, id int64) (*models.Court, error) {
	var c models.Court
	var dynamic, active int
	err := db.q.QueryRowContext(ctx, `
		SELECT id, venue_id, name, price_per_hour_cents, slot_duration_min,
		       dynamic_pricing, weekend_multiplier, advance_days, active, created_at
		FROM courts
		WHERE id = ?`,
		id,
	).Scan(
		&c.ID, &c.VenueID, &c.Name, &c.PricePerHourCents, &c.SlotDurationMin,
		&dynamic, &c.WeekendMultiplier, &c.AdvanceDays, &active, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get court %d: %w", id, err)
	}
	c.DynamicPricing = dynamic != 0
	c.Active = active != 0
	return &c, nil
}

// CreateCourt inserts a court and sets its id.
func (db *DB) CreateCourt(ctx context.Context, c *models.Court) error {
	result, err := db.q.ExecContext(ctx, `
		INSERT INTO courts (venue_id, name, price_per_hour_cents, slot_duration_min,
		                    dynamic_pricing, weekend_multiplier, advance_days, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.VenueID, c.Name, c.PricePerHourCents, c.SlotDurationMin,
		boolToInt(c.DynamicPricing), c.WeekendMultiplier, c.AdvanceDays, boolToInt(c.Active),
	)
	if err != nil {
		return fmt.Errorf("create court: %w", err)
	}
	c.ID, err = result.LastInsertId()
	return err
}

// GetOperatingWindow returns the open/close window for a court on a
// weekday. Court-specific hours win; when the court has none configured
// for that day, the venue's default hours apply. ErrNotFound means
// neither level has a row, so the court is closed that day.
func (db *DB) GetOperatingWindow(ctx context.Context, courtID int64, day time.Weekday) (*models.OperatingWindow, error) {
	w := models.OperatingWindow{DayOfWeek: day}
	err := db.q.QueryRowContext(ctx, `
		SELECT open_min, close_min
		FROM court_hours
		WHERE court_id = ? AND day_of_week = ?`,
		courtID, int(day),
	).Scan(&w.OpenMin, &w.CloseMin)
	if errors.Is(err, sql.ErrNoRows) {
		err = db.q.QueryRowContext(ctx, `
			SELECT v.open_min, v.close_min
			FROM venue_hours v
			JOIN courts c ON c.venue_id = v.venue_id
			WHERE c.id = ? AND v.day_of_week = ?`,
			courtID, int(day),
		).Scan(&w.OpenMin, &w.CloseMin)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get operating window: %w", err)
	}
	return &w, nil
}

// SetVenueOperatingWindow creates or replaces a venue's default window for
// a weekday. Courts without their own hours inherit it.
func (db *DB) SetVenueOperatingWindow(ctx context.Context, venueID int64, w models.OperatingWindow) error {
	_, err := db.q.ExecContext(ctx, `
		INSERT INTO venue_hours (venue_id, day_of_week, open_min, close_min)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (venue_id, day_of_week)
		DO UPDATE SET open_min = excluded.open_min, close_min = excluded.close_min`,
		venueID, int(w.DayOfWeek), w.OpenMin, w.CloseMin,
	)
	if err != nil {
		return fmt.Errorf("set venue operating window: %w", err)
	}
	return nil
}

// SetOperatingWindow creates or replaces the window for a weekday.
func (db *DB) SetOperatingWindow(ctx context.Context, courtID int64, w models.OperatingWindow) error {
	_, err := db.q.ExecContext(ctx, `
		INSERT INTO court_hours (court_id, day_of_week, open_min, close_min)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (court_id, day_of_week)
		DO UPDATE SET open_min = excluded.open_min, close_min = excluded.close_min`,
		courtID, int(w.DayOfWeek), w.OpenMin, w.CloseMin,
	)
	if err != nil {
		return fmt.Errorf("set operating window: %w", err)
	}
	return nil
}

// ListPeakWindows returns a court's peak-hour pricing rules.
func (db *DB) ListPeakWindows(ctx context.Context, courtID int64) ([]models.PeakWindow, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT start_min, end_min, multiplier
		FROM peak_windows
		WHERE court_id = ?
		ORDER BY start_min`,
		courtID,
	)
	if err != nil {
		return nil, fmt.Errorf("list peak windows: %w", err)
	}
	defer rows.Close()

	var windows []models.PeakWindow
	for rows.Next() {
		var w models.PeakWindow
		if err := rows.Scan(&w.StartMin, &w.EndMin, &w.Multiplier); err != nil {
			return nil, fmt.Errorf("scan peak window: %w", err)
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// AddPeakWindow records a peak-hour pricing rule.
func (db *DB) AddPeakWindow(ctx context.Context, courtID int64, w models.PeakWindow) error {
	_, err := db.q.ExecContext(ctx, `
		INSERT INTO peak_windows (court_id, start_min, end_min, multiplier)
		VALUES (?, ?, ?, ?)`,
		courtID, w.StartMin, w.EndMin, w.Multiplier,
	)
	if err != nil {
		return fmt.Errorf("add peak window: %w", err)
	}
	return nil
}

// ListMaintenanceWindows returns the maintenance blocks for a court on a
// date.
func (db *DB) ListMaintenanceWindows(ctx context.Context, courtID int64, date string) ([]models.MaintenanceWindow, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT court_id, date, start_min, end_min, reason
		FROM maintenance_windows
		WHERE court_id = ? AND date = ?
		ORDER BY start_min`,
		courtID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("list maintenance windows: %w", err)
	}
	defer rows.Close()

	var windows []models.MaintenanceWindow
	for rows.Next() {
		var w models.MaintenanceWindow
		if err := rows.Scan(&w.CourtID, &w.Date, &w.StartMin, &w.EndMin, &w.Reason); err != nil {
			return nil, fmt.Errorf("scan maintenance window: %w", err)
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// AddMaintenanceWindow blocks part of a court day.
func (db *DB) AddMaintenanceWindow(ctx context.Context, w models.MaintenanceWindow) error {
	_, err := db.q.ExecContext(ctx, `
		INSERT INTO maintenance_windows (court_id, date, start_min, end_min, reason)
		VALUES (?, ?, ?, ?, ?)`,
		w.CourtID, w.Date, w.StartMin, w.EndMin, w.Reason,
	)
	if err != nil {
		return fmt.Errorf("add maintenance window: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
