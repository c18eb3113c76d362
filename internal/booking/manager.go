// Package booking holds the reservation engine's state machine: atomic slot
// claims, guarded confirm/release transitions, hold expiry, and day
// availability.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/courtly/courtly/internal/db"
	"github.com/courtly/courtly/internal/interval"
	"github.com/courtly/courtly/internal/metrics"
	"github.com/courtly/courtly/internal/models"
	"github.com/courtly/courtly/internal/pricing"
	"github.com/courtly/courtly/internal/slots"
)

const (
	dateLayout     = "2006-01-02"
	defaultHoldTTL = 15 * time.Minute

	// ReleaseCauseExpired marks holds reclaimed after their deadline.
	ReleaseCauseExpired = "expired"
)

// PaymentGateway creates a payment session for a freshly claimed hold and
// returns its reference. Implementations must be safe for concurrent use.
type PaymentGateway interface {
	CreateSession(ctx context.Context, reservationID, amountCents int64) (string, error)
}

// Manager is the reservation state-machine core.
type Manager struct {
	db      *db.DB
	locks   *courtLocks
	holdTTL time.Duration
	gateway PaymentGateway
	now     func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithHoldTTL overrides the default pending-payment grace period.
func WithHoldTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.holdTTL = d
		}
	}
}

// WithGateway wires the payment gateway used to open sessions for new holds.
func WithGateway(g PaymentGateway) Option {
	return func(m *Manager) { m.gateway = g }
}

// WithClock overrides the time source. Tests use it to move holds past
// their deadline without sleeping.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager builds a Manager over the given database.
func NewManager(database *db.DB, opts ...Option) (*Manager, error) {
	if database == nil {
		return nil, errors.New("booking manager requires a database")
	}
	m := &Manager{
		db:      database,
		locks:   newCourtLocks(),
		holdTTL: defaultHoldTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// CreateRequest is a slot claim. Start and End are "HH:MM" clock times on
// Date, half-open.
type CreateRequest struct {
	CourtID int64
	Date    string
	Start   string
	End     string
	UserID  int64
}

// CreateResult is the claimed hold plus its price breakdown.
type CreateResult struct {
	Reservation *models.Reservation
	Quote       pricing.Quote
}

// Create validates the request, prices the slot, and atomically claims it:
// the overlap check and the insert run under the court's lock inside one
// transaction, so two concurrent claims for overlapping intervals cannot
// both succeed. The winner gets a pending hold with a payment deadline.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	logger := log.Ctx(ctx).With().
		Int64("court_id", req.CourtID).
		Str("date", req.Date).
		Str("start", req.Start).
		Str("end", req.End).
		Logger()

	court, err := m.db.GetCourt(ctx, req.CourtID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("load court: %w", err)
	}
	if !court.Active {
		return nil, ValidationError{Field: "court_id", Reason: "court is not active"}
	}

	date, err := m.validateDate(req.Date, court.AdvanceDays)
	if err != nil {
		return nil, err
	}

	startMin, endMin, err := parseSlotTimes(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	if req.UserID <= 0 {
		return nil, ValidationError{Field: "user_id", Reason: "is required"}
	}

	window, err := m.db.GetOperatingWindow(ctx, court.ID, date.Weekday())
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ValidationError{Field: "date", Reason: "court is closed on this day"}
		}
		return nil, fmt.Errorf("load operating hours: %w", err)
	}
	if !slots.Aligned(window.OpenMin, window.CloseMin, court.SlotDurationMin, startMin, endMin) {
		return nil, ValidationError{
			Field:  "start",
			Reason: fmt.Sprintf("slot must align to the %d-minute grid within operating hours", court.SlotDurationMin),
		}
	}

	maintenance, err := m.db.ListMaintenanceWindows(ctx, court.ID, req.Date)
	if err != nil {
		return nil, fmt.Errorf("load maintenance windows: %w", err)
	}
	for _, w := range maintenance {
		if interval.Overlaps(startMin, endMin, w.StartMin, w.EndMin) {
			metrics.IncSlotConflict()
			return nil, ConflictError{StartMin: w.StartMin, EndMin: w.EndMin, Reason: "maintenance"}
		}
	}

	peaks, err := m.db.ListPeakWindows(ctx, court.ID)
	if err != nil {
		return nil, fmt.Errorf("load peak windows: %w", err)
	}
	quote := pricing.ForSlot(*court, date, startMin, endMin, peaks)

	now := m.now().UTC()
	holdExpiresAt := now.Add(m.holdTTL)
	reservation := &models.Reservation{
		CourtID:       court.ID,
		Date:          req.Date,
		StartMin:      startMin,
		EndMin:        endMin,
		UserID:        req.UserID,
		PriceCents:    quote.TotalCents,
		Status:        models.StatusPending,
		HoldExpiresAt: &holdExpiresAt,
	}

	// The court lock plus the in-transaction re-scan make check-then-insert
	// race-free; an application-level pre-read alone is not a safety
	// mechanism.
	unlock := m.locks.Lock(court.ID)
	defer unlock()

	err = m.db.RunInTx(ctx, func(txdb *db.DB) error {
		blocker, err := txdb.FindOverlapping(ctx, court.ID, req.Date, startMin, endMin, now)
		if err != nil {
			return err
		}
		if blocker != nil {
			return ConflictError{StartMin: blocker.StartMin, EndMin: blocker.EndMin, Reason: "existing reservation"}
		}
		return txdb.CreateReservation(ctx, reservation)
	})
	if err != nil {
		var conflict ConflictError
		if errors.As(err, &conflict) {
			metrics.IncSlotConflict()
			logger.Info().
				Str("conflict_start", interval.FormatClock(conflict.StartMin)).
				Str("conflict_end", interval.FormatClock(conflict.EndMin)).
				Msg("Slot claim lost")
			return nil, conflict
		}
		return nil, err
	}

	metrics.IncReservationCreated(string(models.StatusPending))
	logger.Info().
		Int64("reservation_id", reservation.ID).
		Time("hold_expires_at", holdExpiresAt).
		Int64("price_cents", quote.TotalCents).
		Msg("Reservation hold created")

	m.openPaymentSession(ctx, reservation, quote.TotalCents, &logger)

	return &CreateResult{Reservation: reservation, Quote: quote}, nil
}

// Confirm is the guarded pending -> confirmed transition. Re-delivery with
// the same payment reference on an already-confirmed reservation is an
// idempotent success; an expired or released hold is rejected with
// ErrReservationExpired.
func (m *Manager) Confirm(ctx context.Context, id int64, paymentRef string) (*models.Reservation, error) {
	if paymentRef == "" {
		return nil, ValidationError{Field: "payment_ref", Reason: "is required"}
	}

	rows, err := m.db.ConfirmReservation(ctx, id, paymentRef, m.now())
	if err != nil {
		return nil, err
	}
	if rows > 0 {
		metrics.IncReservationCreated(string(models.StatusConfirmed))
		log.Ctx(ctx).Info().Int64("reservation_id", id).Msg("Reservation confirmed")
		return m.db.GetReservation(ctx, id)
	}

	// The guard rejected the update; classify against the current row.
	reservation, err := m.db.GetReservation(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}

	switch {
	case reservation.Status == models.StatusConfirmed:
		if reservation.PaymentRef == paymentRef {
			return reservation, nil
		}
		return nil, fmt.Errorf("%w: confirmed under a different payment reference", ErrInvalidTransition)
	case models.CanTransition(reservation.Status, models.StatusConfirmed) || reservation.Status == models.StatusReleased:
		// A still-pending row only fails the guarded update when its hold
		// lapsed, so both read as an expired hold to the caller.
		return nil, ErrReservationExpired
	default:
		return nil, fmt.Errorf("%w: %s -> confirmed", ErrInvalidTransition, reservation.Status)
	}
}

// Release is the guarded pending -> released transition. Releasing an
// already-released (or otherwise terminal) reservation succeeds silently;
// a confirmed reservation is never released here.
func (m *Manager) Release(ctx context.Context, id int64, cause string) error {
	rows, err := m.db.ReleaseReservation(ctx, id, cause)
	if err != nil {
		return err
	}
	if rows > 0 {
		metrics.AddHoldsReleased(cause, 1)
		log.Ctx(ctx).Info().Int64("reservation_id", id).Str("cause", cause).Msg("Reservation hold released")
		return nil
	}

	reservation, err := m.db.GetReservation(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrReservationNotFound
		}
		return err
	}
	if reservation.Status.Terminal() {
		// Idempotent success under at-least-once delivery.
		return nil
	}
	return fmt.Errorf("%w: %s -> released", ErrInvalidTransition, reservation.Status)
}

// ReleaseExpired reclaims every pending hold whose deadline has passed and
// returns the released count. The availability read path and the atomic
// claim already treat expired holds as free, so this only keeps storage
// from accumulating stale rows.
func (m *Manager) ReleaseExpired(ctx context.Context) (int, error) {
	ids, err := m.db.ListExpiredHoldIDs(ctx, m.now())
	if err != nil {
		return 0, err
	}

	released := 0
	for _, id := range ids {
		rows, err := m.db.ReleaseReservation(ctx, id, ReleaseCauseExpired)
		if err != nil {
			return released, err
		}
		if rows > 0 {
			released++
		}
	}
	if released > 0 {
		metrics.AddHoldsReleased(ReleaseCauseExpired, released)
	}
	return released, nil
}

// Get returns a reservation by id.
func (m *Manager) Get(ctx context.Context, id int64) (*models.Reservation, error) {
	reservation, err := m.db.GetReservation(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return reservation, nil
}

// GetByPaymentRef returns the reservation bound to a payment reference.
func (m *Manager) GetByPaymentRef(ctx context.Context, ref string) (*models.Reservation, error) {
	reservation, err := m.db.GetReservationByPaymentRef(ctx, ref)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return reservation, nil
}

func (m *Manager) openPaymentSession(ctx context.Context, reservation *models.Reservation, amountCents int64, logger *zerolog.Logger) {
	if m.gateway == nil {
		return
	}
	ref, err := m.gateway.CreateSession(ctx, reservation.ID, amountCents)
	if err != nil {
		// The hold stays pending without a reference; the sweeper reclaims
		// it if payment never arrives.
		logger.Warn().Err(err).Int64("reservation_id", reservation.ID).Msg("Failed to open payment session")
		return
	}
	if err := m.db.SetPaymentRef(ctx, reservation.ID, ref); err != nil {
		logger.Error().Err(err).Int64("reservation_id", reservation.ID).Msg("Failed to stamp payment reference")
		return
	}
	reservation.PaymentRef = ref
}

func (m *Manager) validateDate(value string, advanceDays int) (time.Time, error) {
	date, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, ValidationError{Field: "date", Reason: "must be formatted YYYY-MM-DD"}
	}

	today := m.now().UTC().Truncate(24 * time.Hour)
	if date.Before(today) {
		return time.Time{}, ValidationError{Field: "date", Reason: "must not be in the past"}
	}
	if advanceDays > 0 && date.After(today.AddDate(0, 0, advanceDays)) {
		return time.Time{}, ValidationError{
			Field:  "date",
			Reason: fmt.Sprintf("must be within %d days", advanceDays),
		}
	}
	return date, nil
}

func parseSlotTimes(start, end string) (int, int, error) {
	startMin, err := interval.ParseClock(start)
	if err != nil {
		return 0, 0, ValidationError{Field: "start", Reason: "must be a valid HH:MM time"}
	}
	endMin, err := interval.ParseClock(end)
	if err != nil {
		return 0, 0, ValidationError{Field: "end", Reason: "must be a valid HH:MM time"}
	}
	if endMin <= startMin {
		return 0, 0, ValidationError{Field: "end", Reason: "must be after start"}
	}
	return startMin, endMin, nil
}
