package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWebhookSignatureRoundTrip(t *testing.T) {
	body := []byte(`{"reservation_id":"res-1","amount":150}`)
	sig := SignWebhookPayload("secret", 1767225600, body)

	assert.True(t, len(sig) > len(SignaturePrefix))
	assert.True(t, VerifyWebhookSignature("secret", 1767225600, body, sig))
}

func TestWebhookSignatureRejects(t *testing.T) {
	body := []byte(`{"amount":150}`)
	sig := SignWebhookPayload("secret", 1767225600, body)

	tests := []struct {
		name      string
		secret    string
		timestamp int64
		body      []byte
		signature string
	}{
		{"wrong secret", "other", 1767225600, body, sig},
		{"shifted timestamp", "secret", 1767225601, body, sig},
		{"tampered body", "secret", 1767225600, []byte(`{"amount":1500}`), sig},
		{"missing prefix", "secret", 1767225600, body, sig[len(SignaturePrefix):]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, VerifyWebhookSignature(tt.secret, tt.timestamp, tt.body, tt.signature))
		})
	}
}
