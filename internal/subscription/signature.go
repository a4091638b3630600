// Package subscription keeps subscription records in sync with payment
// provider webhooks.
package subscription

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/iwvelando/offer-oven/pkg/constants"
)

// SignatureHeader carries the hex HMAC of the raw webhook body.
const SignatureHeader = constants.WebhookSignatureHeader

var (
	ErrMissingSignature = errors.New("missing webhook secret or signature")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Sign returns the hex-encoded HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks signature against the HMAC of body. An empty secret
// rejects every request.
func VerifySignature(secret string, body []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if secret == "" || signature == "" {
		return ErrMissingSignature
	}
	expected := Sign(secret, body)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return ErrInvalidSignature
	}
	return nil
}
