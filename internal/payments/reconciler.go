package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/courtly/courtly/internal/booking"
	"github.com/courtly/courtly/internal/metrics"
)

// Reconciler drives reservation transitions from payment lifecycle events.
// Events may be duplicated or arrive out of order relative to the hold's
// own expiry; the state machine's guards make replays safe, so an event
// that lands on an unknown or already-terminal reservation is logged and
// dropped rather than failed.
type Reconciler struct {
	manager *booking.Manager
}

// NewReconciler builds a Reconciler over the booking manager.
func NewReconciler(manager *booking.Manager) (*Reconciler, error) {
	if manager == nil {
		return nil, errors.New("reconciler requires a booking manager")
	}
	return &Reconciler{manager: manager}, nil
}

// Apply processes one verified payment event. A nil return means the event
// is settled: applied, already applied, or discarded as unactionable.
func (r *Reconciler) Apply(ctx context.Context, event Event) error {
	logger := log.Ctx(ctx).With().
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Str("payment_ref", event.PaymentRef).
		Logger()

	if event.PaymentRef == "" {
		logger.Warn().Msg("Payment event missing reference, discarding")
		metrics.IncPaymentEvent(event.Type, "discarded")
		return nil
	}
	if !KnownType(event.Type) {
		logger.Info().Msg("Ignoring unhandled payment event type")
		metrics.IncPaymentEvent(event.Type, "ignored")
		return nil
	}

	reservation, err := r.manager.GetByPaymentRef(ctx, event.PaymentRef)
	if err != nil {
		if errors.Is(err, booking.ErrReservationNotFound) {
			logger.Warn().Msg("Payment event references unknown reservation, discarding")
			metrics.IncPaymentEvent(event.Type, "unknown")
			return nil
		}
		return fmt.Errorf("resolve payment reference: %w", err)
	}

	switch event.Type {
	case EventSucceeded:
		return r.applyConfirm(ctx, reservation.ID, event, &logger)
	default:
		return r.applyRelease(ctx, reservation.ID, event, &logger)
	}
}

func (r *Reconciler) applyConfirm(ctx context.Context, reservationID int64, event Event, logger *zerolog.Logger) error {
	_, err := r.manager.Confirm(ctx, reservationID, event.PaymentRef)
	switch {
	case err == nil:
		metrics.IncPaymentEvent(event.Type, "applied")
		return nil
	case errors.Is(err, booking.ErrReservationExpired):
		// Payment landed after the hold was reclaimed. Surfaced, not
		// silently confirmed; a refund flow outside this engine picks it up.
		logger.Warn().Msg("Payment succeeded after hold expiry")
		metrics.IncPaymentEvent(event.Type, "expired")
		return booking.ErrReservationExpired
	case errors.Is(err, booking.ErrInvalidTransition):
		logger.Warn().Err(err).Msg("Payment event conflicts with reservation state, discarding")
		metrics.IncPaymentEvent(event.Type, "conflict")
		return nil
	default:
		return err
	}
}

func (r *Reconciler) applyRelease(ctx context.Context, reservationID int64, event Event, logger *zerolog.Logger) error {
	err := r.manager.Release(ctx, reservationID, releaseCause(event.Type))
	switch {
	case err == nil:
		metrics.IncPaymentEvent(event.Type, "applied")
		return nil
	case errors.Is(err, booking.ErrInvalidTransition):
		// A failure event for an already-confirmed reservation: the
		// transitions are mutually exclusive, so the later event loses.
		logger.Warn().Err(err).Msg("Payment event conflicts with reservation state, discarding")
		metrics.IncPaymentEvent(event.Type, "conflict")
		return nil
	default:
		return err
	}
}
