package webhook_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/webhook"
)

const testSecret = "746573742d7365637265742d6b6579"

func TestSign(t *testing.T) {
	body := []byte(`{"network_id":"eip155:1","block_number":1,"event_data":{"kind":"x"}}`)

	signature := webhook.Sign(testSecret, 1705312800, "01JG8XAMPLE1234567890123456", body)

	// the signature must be reproducible by any client
	h := hmac.New(sha256.New, []byte(testSecret))
	h.Write([]byte("1705312800.01JG8XAMPLE1234567890123456." + string(body)))
	assert.Equal(t, "sha256="+hex.EncodeToString(h.Sum(nil)), signature)

	assert.NotEqual(t, signature, webhook.Sign("other-secret", 1705312800, "01JG8XAMPLE1234567890123456", body))
	assert.NotEqual(t, signature, webhook.Sign(testSecret, 1705312801, "01JG8XAMPLE1234567890123456", body))
	assert.NotEqual(t, signature, webhook.Sign(testSecret, 1705312800, "01JG8XAMPLE1234567890123457", body))
}

func TestVerify(t *testing.T) {
	now := time.Unix(1705312800, 0)
	body := []byte(`{"block_number":1}`)
	eventID := "evt-1"
	valid := webhook.Sign(testSecret, now.Unix(), eventID, body)

	tests := []struct {
		name      string
		signature string
		timestamp string
		eventID   string
		body      []byte
		expectErr bool
	}{
		{name: "valid", signature: valid, timestamp: "1705312800", eventID: eventID, body: body},
		{
			name:      "within tolerance",
			signature: webhook.Sign(testSecret, now.Unix()-299, eventID, body),
			timestamp: "1705312501",
			eventID:   eventID,
			body:      body,
		},
		{
			name:      "stale",
			signature: webhook.Sign(testSecret, now.Unix()-301, eventID, body),
			timestamp: "1705312499",
			eventID:   eventID,
			body:      body,
			expectErr: true,
		},
		{
			name:      "from the future",
			signature: webhook.Sign(testSecret, now.Unix()+301, eventID, body),
			timestamp: "1705313101",
			eventID:   eventID,
			body:      body,
			expectErr: true,
		},
		{name: "tampered body", signature: valid, timestamp: "1705312800", eventID: eventID, body: []byte(`{"block_number":2}`), expectErr: true},
		{name: "different event id", signature: valid, timestamp: "1705312800", eventID: "evt-2", body: body, expectErr: true},
		{name: "missing signature", timestamp: "1705312800", eventID: eventID, body: body, expectErr: true},
		{name: "missing event id", signature: valid, timestamp: "1705312800", body: body, expectErr: true},
		{name: "unknown scheme", signature: "sha1=abcd", timestamp: "1705312800", eventID: eventID, body: body, expectErr: true},
		{name: "malformed timestamp", signature: valid, timestamp: "yesterday", eventID: eventID, body: body, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := webhook.Verify(testSecret, tt.signature, tt.timestamp, tt.eventID, tt.body, now, 5*time.Minute)
			if tt.expectErr {
				assert.ErrorIs(t, err, domain.ErrInvalidSignature)
				return
			}
			assert.NoError(t, err)
		})
	}
}
