package auth

import (
	"strings"
	"testing"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	const password = "hunter2-but-longer"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}
	if hash == "" || hash == password {
		t.Fatalf("HashPassword() returned %q, want a bcrypt hash", hash)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("hash %q does not look like bcrypt", hash)
	}

	if err := VerifyPassword(hash, password); err != nil {
		t.Errorf("VerifyPassword() rejected the original password: %v", err)
	}
}

func TestHashPassword_Salted(t *testing.T) {
	h1, err := HashPassword("same-password")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := HashPassword("same-password")
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password are identical, salt is missing")
	}
}

func TestVerifyPassword_Rejects(t *testing.T) {
	hash, err := HashPassword("correct-password")
	if err != nil {
		t.Fatal(err)
	}

	for _, candidate := range []string{"wrong-password", "", "correct-password "} {
		if err := VerifyPassword(hash, candidate); err == nil {
			t.Errorf("VerifyPassword() accepted %q", candidate)
		}
	}
}
