package utils

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRPayloadRoundTrip(t *testing.T) {
	p := SignQRPayload("secret", "visit-1", "visitor-1", 1717240000000)
	require.Len(t, p.Signature, 16)

	encoded, err := EncodeQRPayload(p)
	require.NoError(t, err)

	decoded, err := DecodeQRPayload(encoded)
	require.NoError(t, err)
	assert.Equal(t, p, decoded)
	assert.True(t, VerifyQRPayload("secret", decoded))
}

func TestVerifyRejectsTampering(t *testing.T) {
	p := SignQRPayload("secret", "visit-1", "visitor-1", 1717240000000)

	swapped := p
	swapped.VisitorID = "visitor-2"
	assert.False(t, VerifyQRPayload("secret", swapped), "payload bound to another visitor must fail")

	forged := p
	forged.Signature = "0123456789abcdef"
	assert.False(t, VerifyQRPayload("secret", forged))

	assert.False(t, VerifyQRPayload("other-secret", p), "different key must fail")
}

func TestDecodeMalformedPayloads(t *testing.T) {
	cases := map[string]string{
		"not base64":     "%%%not-base64%%%",
		"not json":       base64.StdEncoding.EncodeToString([]byte("plain text")),
		"missing fields": base64.StdEncoding.EncodeToString([]byte(`{"visit_id":"v1"}`)),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeQRPayload(raw)
			assert.ErrorIs(t, err, ErrQRMalformed)
		})
	}
}
