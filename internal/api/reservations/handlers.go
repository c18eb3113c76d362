// internal/api/reservations/handlers.go
package reservations

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/courtly/courtly/internal/api/apiutil"
	"github.com/courtly/courtly/internal/booking"
	"github.com/courtly/courtly/internal/interval"
	"github.com/courtly/courtly/internal/models"
)

var (
	manager     *booking.Manager
	managerOnce sync.Once
)

const (
	reservationQueryTimeout = 5 * time.Second
	defaultReleaseCause     = "user_cancelled"
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(m *booking.Manager) {
	if m == nil {
		return
	}
	managerOnce.Do(func() {
		manager = m
	})
}

type createRequest struct {
	CourtID int64  `json:"court_id"`
	Date    string `json:"date"`
	Start   string `json:"start"`
	End     string `json:"end"`
	UserID  int64  `json:"user_id"`
}

type reservationResponse struct {
	ReservationID int64         `json:"reservation_id"`
	CourtID       int64         `json:"court_id"`
	Date          string        `json:"date"`
	Start         string        `json:"start"`
	End           string        `json:"end"`
	UserID        int64         `json:"user_id"`
	Status        string        `json:"status"`
	PriceCents    int64         `json:"price_cents"`
	HoldExpiresAt *time.Time    `json:"hold_expires_at,omitempty"`
	PaymentRef    string        `json:"payment_ref,omitempty"`
	ReleaseCause  string        `json:"release_cause,omitempty"`
	Price         *priceDetails `json:"price,omitempty"`
}

type priceDetails struct {
	BaseCents  int64   `json:"base_cents"`
	Multiplier float64 `json:"multiplier"`
	TotalCents int64   `json:"total_cents"`
}

// POST /api/v1/reservations
func HandleReservationCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if manager == nil {
		logger.Error().Msg("Booking manager not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req createRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CourtID <= 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "court_id must be greater than 0")
		return
	}
	if req.UserID <= 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "user_id must be greater than 0")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationQueryTimeout)
	defer cancel()

	result, err := manager.Create(ctx, booking.CreateRequest{
		CourtID: req.CourtID,
		Date:    req.Date,
		Start:   req.Start,
		End:     req.End,
		UserID:  req.UserID,
	})
	if err != nil {
		writeBookingError(w, logger, err)
		return
	}

	resp := newReservationResponse(result.Reservation)
	resp.Price = &priceDetails{
		BaseCents:  result.Quote.BaseCents,
		Multiplier: result.Quote.Multiplier,
		TotalCents: result.Quote.TotalCents,
	}
	if err := apiutil.WriteJSON(w, http.StatusCreated, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write reservation response")
	}
}

// GET /api/v1/reservations/{id}
func HandleReservationGet(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if manager == nil {
		logger.Error().Msg("Booking manager not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationQueryTimeout)
	defer cancel()

	reservation, err := manager.Get(ctx, id)
	if err != nil {
		writeBookingError(w, logger, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, newReservationResponse(reservation)); err != nil {
		logger.Error().Err(err).Msg("Failed to write reservation response")
	}
}

type releaseRequest struct {
	Cause string `json:"cause"`
}

// POST /api/v1/reservations/{id}/release
func HandleReservationRelease(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if manager == nil {
		logger.Error().Msg("Booking manager not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	cause := defaultReleaseCause
	if r.ContentLength > 0 {
		var req releaseRequest
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			apiutil.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if trimmed := strings.TrimSpace(req.Cause); trimmed != "" {
			cause = trimmed
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationQueryTimeout)
	defer cancel()

	if err := manager.Release(ctx, id, cause); err != nil {
		writeBookingError(w, logger, err)
		return
	}

	reservation, err := manager.Get(ctx, id)
	if err != nil {
		writeBookingError(w, logger, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, newReservationResponse(reservation)); err != nil {
		logger.Error().Err(err).Msg("Failed to write reservation response")
	}
}

func newReservationResponse(reservation *models.Reservation) reservationResponse {
	return reservationResponse{
		ReservationID: reservation.ID,
		CourtID:       reservation.CourtID,
		Date:          reservation.Date,
		Start:         interval.FormatClock(reservation.StartMin),
		End:           interval.FormatClock(reservation.EndMin),
		UserID:        reservation.UserID,
		Status:        string(reservation.Status),
		PriceCents:    reservation.PriceCents,
		HoldExpiresAt: reservation.HoldExpiresAt,
		PaymentRef:    reservation.PaymentRef,
		ReleaseCause:  reservation.ReleaseCause,
	}
}

type conflictResponse struct {
	Error  string `json:"error"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Reason string `json:"reason,omitempty"`
}

func writeBookingError(w http.ResponseWriter, logger *zerolog.Logger, err error) {
	var (
		validationErr booking.ValidationError
		conflictErr   booking.ConflictError
	)
	switch {
	case errors.As(err, &validationErr):
		apiutil.WriteError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &conflictErr):
		_ = apiutil.WriteJSON(w, http.StatusConflict, conflictResponse{
			Error:  conflictErr.Error(),
			Start:  interval.FormatClock(conflictErr.StartMin),
			End:    interval.FormatClock(conflictErr.EndMin),
			Reason: conflictErr.Reason,
		})
	case errors.Is(err, booking.ErrCourtNotFound):
		apiutil.WriteError(w, http.StatusNotFound, "Court not found")
	case errors.Is(err, booking.ErrReservationNotFound):
		apiutil.WriteError(w, http.StatusNotFound, "Reservation not found")
	case errors.Is(err, booking.ErrReservationExpired):
		apiutil.WriteError(w, http.StatusGone, "Reservation hold expired")
	case errors.Is(err, booking.ErrInvalidTransition):
		apiutil.WriteError(w, http.StatusConflict, "Reservation state does not allow this operation")
	default:
		logger.Error().Err(err).Msg("Reservation request failed")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
