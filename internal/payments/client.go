package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const sessionRequestTimeout = 10 * time.Second

// Client opens payment sessions against the external gateway. When no
// gateway URL is configured it falls back to generating local references so
// the booking flow stays usable in development and tests.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a gateway client. An empty baseURL selects the local
// reference fallback.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: sessionRequestTimeout},
	}
}

type sessionRequest struct {
	ReservationID int64  `json:"reservation_id"`
	AmountCents   int64  `json:"amount_cents"`
	Reference     string `json:"reference"`
}

type sessionResponse struct {
	Reference string `json:"reference"`
}

// CreateSession registers a payment session for a reservation and returns
// the gateway's reference for it.
func (c *Client) CreateSession(ctx context.Context, reservationID, amountCents int64) (string, error) {
	reference := "pay_" + uuid.NewString()

	if c.baseURL == "" {
		log.Ctx(ctx).Debug().
			Int64("reservation_id", reservationID).
			Str("payment_ref", reference).
			Msg("No payment gateway configured, using local reference")
		return reference, nil
	}

	payload, err := json.Marshal(sessionRequest{
		ReservationID: reservationID,
		AmountCents:   amountCents,
		Reference:     reference,
	})
	if err != nil {
		return "", fmt.Errorf("encode session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/sessions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create payment session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", fmt.Errorf("decode session response: %w", err)
	}
	if session.Reference == "" {
		session.Reference = reference
	}
	return session.Reference, nil
}
