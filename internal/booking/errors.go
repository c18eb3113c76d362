package booking

import (
	"errors"
	"fmt"

	"github.com/courtly/courtly/internal/interval"
)

var (
	// ErrCourtNotFound means the referenced court does not exist.
	ErrCourtNotFound = errors.New("court not found")
	// ErrReservationNotFound means the referenced reservation does not exist.
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrReservationExpired means the hold lapsed (or was released) before
	// the requested transition.
	ErrReservationExpired = errors.New("reservation hold expired")
	// ErrInvalidTransition means the requested state change is not in the
	// transition table.
	ErrInvalidTransition = errors.New("invalid reservation state transition")
)

// ValidationError rejects malformed or out-of-range input. It is never
// retried and surfaces to the caller verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// ConflictError means the atomic claim lost the race. It carries the
// winning interval so the caller can offer alternatives.
type ConflictError struct {
	StartMin int
	EndMin   int
	Reason   string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("slot conflicts with %s interval %s-%s",
		e.Reason, interval.FormatClock(e.StartMin), interval.FormatClock(e.EndMin))
}
