// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/courtly/courtly/internal/api"
	"github.com/courtly/courtly/internal/api/admin"
	"github.com/courtly/courtly/internal/api/availability"
	paymentapi "github.com/courtly/courtly/internal/api/payments"
	"github.com/courtly/courtly/internal/api/reservations"
	"github.com/courtly/courtly/internal/booking"
	"github.com/courtly/courtly/internal/config"
	"github.com/courtly/courtly/internal/payments"
	"github.com/courtly/courtly/internal/ratelimit"
)

func newServer(cfg *config.Config, manager *booking.Manager, reconciler *payments.Reconciler, verifier *payments.Verifier) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	availability.InitHandlers(manager)
	reservations.InitHandlers(manager)
	admin.InitHandlers(manager)
	if verifier != nil {
		paymentapi.InitHandlers(reconciler, verifier)
	}

	registerRoutes(router, cfg, verifier != nil)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, cfg *config.Config, webhookEnabled bool) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if cfg.Features.EnableMetrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// Availability
	mux.HandleFunc("GET /api/v1/courts/{id}/availability", availability.HandleCourtAvailability)

	// Reservations; claims are throttled per client before they contend
	// for the court lock.
	limiter := ratelimit.New(ratelimit.DefaultConfig())
	mux.Handle("POST /api/v1/reservations", limiter.Middleware(http.HandlerFunc(reservations.HandleReservationCreate)))
	mux.HandleFunc("GET /api/v1/reservations/{id}", reservations.HandleReservationGet)
	mux.HandleFunc("POST /api/v1/reservations/{id}/release", reservations.HandleReservationRelease)

	// Payment gateway callbacks
	if webhookEnabled {
		mux.HandleFunc("POST /api/v1/payments/webhook", paymentapi.HandleWebhook)
	} else {
		log.Warn().Msg("Webhook route not registered")
	}

	// Operational endpoints
	mux.HandleFunc("POST /api/v1/admin/holds/release-expired", admin.HandleReleaseExpiredHolds)
}
