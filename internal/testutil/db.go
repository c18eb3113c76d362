package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/courtly/courtly/internal/db"
	"github.com/courtly/courtly/internal/interval"
	"github.com/courtly/courtly/internal/models"
)

// NewTestDB creates a temporary SQLite database with migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// SeedCourt inserts a court open 09:00-21:00 every day with 60-minute
// slots, returning it. Callers adjust fields through the returned value
// before passing overrides.
func SeedCourt(t *testing.T, database *db.DB, overrides ...func(*models.Court)) *models.Court {
	t.Helper()

	court := &models.Court{
		VenueID:           1,
		Name:              "Center Court",
		PricePerHourCents: 10000,
		SlotDurationMin:   60,
		AdvanceDays:       30,
		Active:            true,
	}
	for _, override := range overrides {
		override(court)
	}

	ctx := context.Background()
	if err := database.CreateCourt(ctx, court); err != nil {
		t.Fatalf("seed court: %v", err)
	}

	open := MustClock(t, "09:00")
	close := MustClock(t, "21:00")
	for day := time.Sunday; day <= time.Saturday; day++ {
		err := database.SetOperatingWindow(ctx, court.ID, models.OperatingWindow{
			DayOfWeek: day,
			OpenMin:   open,
			CloseMin:  close,
		})
		if err != nil {
			t.Fatalf("seed operating window: %v", err)
		}
	}

	return court
}

// SeedVenueHours sets a venue-wide default window for every weekday.
// Courts of that venue without their own hours inherit it.
func SeedVenueHours(t *testing.T, database *db.DB, venueID int64, open, close string) {
	t.Helper()

	ctx := context.Background()
	openMin := MustClock(t, open)
	closeMin := MustClock(t, close)
	for day := time.Sunday; day <= time.Saturday; day++ {
		err := database.SetVenueOperatingWindow(ctx, venueID, models.OperatingWindow{
			DayOfWeek: day,
			OpenMin:   openMin,
			CloseMin:  closeMin,
		})
		if err != nil {
			t.Fatalf("seed venue hours: %v", err)
		}
	}
}

// MustClock parses "HH:MM" or fails the test.
func MustClock(t *testing.T, value string) int {
	t.Helper()
	minutes, err := interval.ParseClock(value)
	if err != nil {
		t.Fatalf("parse clock %q: %v", value, err)
	}
	return minutes
}

// FutureDate returns a bookable date n days ahead, formatted YYYY-MM-DD.
func FutureDate(n int) string {
	return time.Now().UTC().AddDate(0, 0, n).Format("2006-01-02")
}
