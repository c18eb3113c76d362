// internal/api/availability/handlers.go
package availability

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtly/courtly/internal/api/apiutil"
	"github.com/courtly/courtly/internal/booking"
)

var (
	manager     *booking.Manager
	managerOnce sync.Once
)

const availabilityQueryTimeout = 5 * time.Second

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(m *booking.Manager) {
	if m == nil {
		return
	}
	managerOnce.Do(func() {
		manager = m
	})
}

// GET /api/v1/courts/{id}/availability?date=YYYY-MM-DD
func HandleCourtAvailability(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if manager == nil {
		logger.Error().Msg("Booking manager not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	courtID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := apiutil.DateFromQuery(r, "date")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), availabilityQueryTimeout)
	defer cancel()

	schedule, err := manager.Availability(ctx, courtID, date)
	if err != nil {
		var validationErr booking.ValidationError
		switch {
		case errors.Is(err, booking.ErrCourtNotFound):
			apiutil.WriteError(w, http.StatusNotFound, "Court not found")
		case errors.As(err, &validationErr):
			apiutil.WriteError(w, http.StatusBadRequest, validationErr.Error())
		default:
			logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to build availability")
			apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load availability")
		}
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, schedule); err != nil {
		logger.Error().Err(err).Msg("Failed to write availability response")
	}
}
