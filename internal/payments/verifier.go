package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// SignatureHeader carries the webhook body signature.
const SignatureHeader = "X-Courtly-Signature"

const signaturePrefix = "sha256="

// ErrBadSignature means the webhook body failed authentication. Unverified
// events are never applied to reservation state.
var ErrBadSignature = errors.New("payment event signature mismatch")

// Verifier authenticates webhook payloads with an HMAC-SHA256 shared
// secret.
type Verifier struct {
	secret []byte
}

// NewVerifier builds a Verifier for the shared webhook secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("webhook secret is required")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify checks the "sha256=<hex>" signature over the raw body.
func (v *Verifier) Verify(body []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if !strings.HasPrefix(signature, signaturePrefix) {
		return ErrBadSignature
	}
	provided, err := hex.DecodeString(strings.TrimPrefix(signature, signaturePrefix))
	if err != nil {
		return ErrBadSignature
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return ErrBadSignature
	}
	return nil
}

// Sign produces the signature header value for a body. Used by the gateway
// side of tests and by local tooling.
func (v *Verifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
