package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifierRoundTrip(t *testing.T) {
	v, err := NewVerifier("whsec_test")
	require.NoError(t, err)

	body := []byte(`{"id":"evt_1","type":"payment.succeeded"}`)
	sig := v.Sign(body)

	assert.NoError(t, v.Verify(body, sig))
}

func TestVerifierRejectsTamperedBody(t *testing.T) {
	v, err := NewVerifier("whsec_test")
	require.NoError(t, err)

	sig := v.Sign([]byte(`{"id":"evt_1"}`))
	err = v.Verify([]byte(`{"id":"evt_2"}`), sig)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifierRejectsWrongSecret(t *testing.T) {
	signer, err := NewVerifier("whsec_a")
	require.NoError(t, err)
	v, err := NewVerifier("whsec_b")
	require.NoError(t, err)

	body := []byte(`{"id":"evt_1"}`)
	err = v.Verify(body, signer.Sign(body))
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifierRejectsMalformedSignature(t *testing.T) {
	v, err := NewVerifier("whsec_test")
	require.NoError(t, err)

	for _, sig := range []string{"", "sha256=", "sha256=zz", "md5=abcdef"} {
		assert.ErrorIs(t, v.Verify([]byte("body"), sig), ErrBadSignature, "signature %q", sig)
	}
}

func TestVerifierRequiresSecret(t *testing.T) {
	_, err := NewVerifier("")
	assert.Error(t, err)
}
