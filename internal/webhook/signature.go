package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignatureHeader carries the provider's HMAC over the request body
const SignatureHeader = "X-Aggregator-Signature"

// Verifier checks webhook signatures. The signature is HMAC-SHA256
// over the exact body bytes as delivered, base64-encoded.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier with the shared webhook secret
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify reports whether signature matches body. A missing secret or
// empty signature always fails closed.
func (v *Verifier) Verify(body []byte, signature string) bool {
	if len(v.secret) == 0 || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
