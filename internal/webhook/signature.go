package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/feral-file/ff-chain-events/internal/domain"
)

const signaturePrefix = "sha256="

// Sign computes the signature header value over {timestamp}.{event_id}.{body}
func Sign(secret string, timestamp int64, eventID string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(fmt.Sprintf("%d.%s.", timestamp, eventID)))
	h.Write(body)
	return signaturePrefix + hex.EncodeToString(h.Sum(nil))
}

// Verify checks a signature against the raw body. The timestamp must be
// within tolerance of now in either direction.
// Any failure wraps domain.ErrInvalidSignature
func Verify(secret string, signature string, timestamp string, eventID string, body []byte, now time.Time, tolerance time.Duration) error {
	if signature == "" || timestamp == "" || eventID == "" {
		return fmt.Errorf("%w: missing signature headers", domain.ErrInvalidSignature)
	}
	if !strings.HasPrefix(signature, signaturePrefix) {
		return fmt.Errorf("%w: unsupported signature scheme", domain.ErrInvalidSignature)
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed timestamp", domain.ErrInvalidSignature)
	}

	skew := now.Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", domain.ErrInvalidSignature)
	}

	expected := Sign(secret, ts, eventID, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("%w: signature mismatch", domain.ErrInvalidSignature)
	}

	return nil
}
