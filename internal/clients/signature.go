package clients

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// The processor signs webhook deliveries with a header of the form
// "t=<unix>,v1=<hex hmac>", where the HMAC-SHA256 is taken over
// "<t>.<raw body>" with the shared webhook secret.

// signatureTolerance bounds how old a signed delivery may be. The timestamp
// is covered by the HMAC, so an attacker cannot refresh a captured payload.
const signatureTolerance = 5 * time.Minute

// SignWebhookPayload computes the signature header value for a payload.
// Exposed so tests and local tooling can produce valid deliveries.
func SignWebhookPayload(payload []byte, timestamp int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

// VerifyWebhookSignature checks a delivery's signature header against the
// shared secret. Comparison is constant-time, and deliveries older than the
// tolerance are rejected even when the signature matches.
func VerifyWebhookSignature(payload []byte, header, secret string) bool {
	var timestamp string
	var signatures []string

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	age := time.Since(time.Unix(ts, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return true
		}
	}
	return false
}
