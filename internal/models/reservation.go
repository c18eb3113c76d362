package models

import "time"

// Status is the closed reservation state set. Transitions happen only
// through the guarded operations in the booking manager.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusReleased  Status = "released"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusReleased},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
}

// CanTransition reports whether moving from one status to another is
// allowed. The state machine is monotonic: released, cancelled and
// completed are terminal.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a status admits no further transitions.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Reservation is the engine's single persisted aggregate. Times are stored
// as a calendar date plus half-open [StartMin, EndMin) minutes since
// midnight.
type Reservation struct {
	ID            int64
	CourtID       int64
	Date          string // "2006-01-02"
	StartMin      int
	EndMin        int
	UserID        int64
	PriceCents    int64
	Status        Status
	HoldExpiresAt *time.Time
	PaymentRef    string
	ReleaseCause  string
	CreatedAt     time.Time
}

// HoldExpired reports whether a pending reservation's hold deadline has
// passed. An expired pending row is logically released and never blocks a
// new claim, even before the sweeper updates it.
func (r *Reservation) HoldExpired(now time.Time) bool {
	return r.Status == StatusPending && r.HoldExpiresAt != nil && !r.HoldExpiresAt.After(now)
}

// Blocks reports whether the reservation occupies its slot for conflict
// purposes at the given instant.
func (r *Reservation) Blocks(now time.Time) bool {
	switch r.Status {
	case StatusConfirmed:
		return true
	case StatusPending:
		return !r.HoldExpired(now)
	default:
		return false
	}
}
