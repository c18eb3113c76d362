// Package payments holds the engine's side of the payment gateway
// integration: opening sessions for new holds, authenticating webhook
// events, and reconciling them onto reservation state.
package payments

import "time"

// Event types delivered by the gateway. Events are idempotent, keyed by
// payment reference, and may arrive duplicated or out of order.
const (
	EventSucceeded = "payment.succeeded"
	EventFailed    = "payment.failed"
	EventExpired   = "payment.expired"
	EventCancelled = "payment.cancelled"
)

// Event is one payment lifecycle notification from the gateway.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	PaymentRef string    `json:"payment_ref"`
	OccurredAt time.Time `json:"occurred_at"`
}

// KnownType reports whether the event type is one the engine acts on.
func KnownType(eventType string) bool {
	switch eventType {
	case EventSucceeded, EventFailed, EventExpired, EventCancelled:
		return true
	default:
		return false
	}
}

// releaseCause maps a non-success event type to the release cause recorded
// on the reservation.
func releaseCause(eventType string) string {
	switch eventType {
	case EventFailed:
		return "payment_failed"
	case EventExpired:
		return "payment_expired"
	case EventCancelled:
		return "payment_cancelled"
	default:
		return "payment_failed"
	}
}
