// Package webhook verifies provider-signed callback requests.
// See: https://bookeo.com/api/webhooks
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Header names the provider sets on every callback.
const (
	HeaderTimestamp = "X-Bookeo-Timestamp"
	HeaderMessageID = "X-Bookeo-MessageId"
	HeaderSignature = "X-Bookeo-Signature"
)

// DefaultTolerance bounds how stale a callback timestamp may be.
const DefaultTolerance = 120 * time.Second

// VerifySignature checks that a callback originated from the provider.
// The signed message is timestamp + messageId + webhookURL + body, HMAC-SHA256
// under the account secret key, hex encoded. The timestamp header is unix
// milliseconds and must fall within tolerance of now.
func VerifySignature(body []byte, timestampHeader, messageIDHeader, signatureHeader, webhookURL, secretKey string, tolerance time.Duration, now time.Time) bool {
	if len(body) == 0 || timestampHeader == "" || messageIDHeader == "" || signatureHeader == "" ||
		webhookURL == "" || secretKey == "" {
		return false
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	ts, err := strconv.ParseInt(timestampHeader, 10, 64)
	if err != nil {
		return false
	}
	drift := now.UnixMilli() - ts
	if drift < 0 {
		drift = -drift
	}
	if drift > tolerance.Milliseconds() {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(timestampHeader))
	mac.Write([]byte(messageIDHeader))
	mac.Write([]byte(webhookURL))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}

// Sign produces the signature the provider would attach for the given inputs.
// Used by tests and local tooling.
func Sign(body []byte, timestampHeader, messageIDHeader, webhookURL, secretKey string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(timestampHeader))
	mac.Write([]byte(messageIDHeader))
	mac.Write([]byte(webhookURL))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
