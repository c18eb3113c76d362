// internal/api/admin/handlers.go
package admin

import (
	"context"
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

const sweepTimeout = 30 * time.Second

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(m *booking.Manager) {
	if m == nil {
		return
	}
	managerOnce.Do(func() {
		manager = m
	})
}

// POST /api/v1/admin/holds/release-expired
//
// Manual trigger for the sweep the scheduler runs on its own cadence.
func HandleReleaseExpiredHolds(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if manager == nil {
		logger.Error().Msg("Booking manager not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), sweepTimeout)
	defer cancel()

	released, err := manager.ReleaseExpired(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to release expired holds")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to release expired holds")
		return
	}

	logger.Info().Int("released", released).Msg("Released expired holds on demand")
	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]int{"released": released}); err != nil {
		logger.Error().Err(err).Msg("Failed to write sweep response")
	}
}
