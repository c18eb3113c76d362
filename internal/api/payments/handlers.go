// internal/api/payments/handlers.go
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtly/courtly/internal/api/apiutil"
	"github.com/courtly/courtly/internal/booking"
	paymentsvc "github.com/courtly/courtly/internal/payments"
)

var (
	reconciler *paymentsvc.Reconciler
	verifier   *paymentsvc.Verifier
	initOnce   sync.Once
)

const (
	webhookTimeout     = 10 * time.Second
	maxWebhookBodySize = 1 << 20
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(r *paymentsvc.Reconciler, v *paymentsvc.Verifier) {
	if r == nil || v == nil {
		return
	}
	initOnce.Do(func() {
		reconciler = r
		verifier = v
	})
}

// POST /api/v1/payments/webhook
//
// The gateway retries until it sees a 2xx, so anything the reconciler
// settles (applied, duplicate, unactionable) acknowledges with 200.
// Only a transport-level failure earns a 5xx and a redelivery.
func HandleWebhook(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if reconciler == nil || verifier == nil {
		logger.Error().Msg("Payment webhook not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	if err := verifier.Verify(body, r.Header.Get(paymentsvc.SignatureHeader)); err != nil {
		logger.Warn().Msg("Rejected webhook with bad signature")
		apiutil.WriteError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var event paymentsvc.Event
	if err := json.Unmarshal(body, &event); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "malformed event payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), webhookTimeout)
	defer cancel()

	if err := reconciler.Apply(ctx, event); err != nil {
		if errors.Is(err, booking.ErrReservationExpired) {
			// Money moved for a hold we already reclaimed. Acknowledge so
			// the gateway stops retrying; the refund runs out of band.
			logger.Warn().
				Str("event_id", event.ID).
				Str("payment_ref", event.PaymentRef).
				Msg("Acknowledged payment for expired hold")
			_ = apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
			return
		}
		logger.Error().Err(err).Str("event_id", event.ID).Msg("Failed to apply payment event")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to process event")
		return
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}
