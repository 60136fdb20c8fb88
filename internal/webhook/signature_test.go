package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerify(t *testing.T) {
	secret := "webhook-secret"
	body := []byte(`{"webhook_type":"TRANSACTIONS","webhook_code":"DEFAULT_UPDATE","item_id":"item-1"}`)
	v := NewVerifier(secret)

	if !v.Verify(body, sign(secret, body)) {
		t.Error("valid signature rejected")
	}
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	secret := "webhook-secret"
	body := []byte(`{"item_id":"item-1"}`)
	sig := sign(secret, body)

	v := NewVerifier(secret)
	if v.Verify([]byte(`{"item_id":"item-2"}`), sig) {
		t.Error("signature for a different body accepted")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	body := []byte(`{"item_id":"item-1"}`)
	v := NewVerifier("right-secret")
	if v.Verify(body, sign("wrong-secret", body)) {
		t.Error("signature under a different secret accepted")
	}
}

func TestVerifyFailsClosed(t *testing.T) {
	body := []byte(`{}`)
	if NewVerifier("").Verify(body, sign("", body)) {
		t.Error("empty secret must fail verification")
	}
	if NewVerifier("secret").Verify(body, "") {
		t.Error("empty signature must fail verification")
	}
	if NewVerifier("secret").Verify(body, "not base64!!") {
		t.Error("garbage signature must fail verification")
	}
}

func TestVerifyExactBytes(t *testing.T) {
	// Re-serialized JSON is not the signed payload; only the exact
	// delivered bytes verify.
	secret := "webhook-secret"
	body := []byte(`{"a":1,"b":2}`)
	reordered := []byte(`{"b":2,"a":1}`)

	v := NewVerifier(secret)
	if v.Verify(reordered, sign(secret, body)) {
		t.Error("semantically-equal but byte-different body accepted")
	}
}
