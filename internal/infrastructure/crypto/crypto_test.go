package crypto

import (
	"errors"
	"strings"
	"testing"
)

const testKey = "0123456789abcdef0123456789abcdef" // 32 bytes, AES-256

func TestNewEncryptor(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"Valid 32-Byte Key", testKey, nil},
		{"Short Key", "too-short", ErrInvalidKey},
		{"Empty Key", "", ErrInvalidKey},
		{"Overlong Key", testKey + "extra", ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewEncryptor(tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewEncryptor() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && enc == nil {
				t.Fatal("NewEncryptor() returned nil encryptor")
			}
		})
	}
}

func TestEncryptor_RoundTrip(t *testing.T) {
	enc, err := NewEncryptor(testKey)
	if err != nil {
		t.Fatal(err)
	}

	plaintexts := []string{
		"access-prod-4f2c9a1e",
		"",
		"Café Mère-Fille — $1,500.00 ☕",
		strings.Repeat("provider token payload ", 1000),
	}

	for _, plaintext := range plaintexts {
		ciphertext, err := enc.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt(%q) failed: %v", plaintext, err)
		}
		if plaintext != "" && ciphertext == plaintext {
			t.Fatalf("Encrypt(%q) returned the plaintext", plaintext)
		}

		got, err := enc.Decrypt(ciphertext)
		if err != nil {
			t.Fatalf("Decrypt() failed: %v", err)
		}
		if got != plaintext {
			t.Errorf("round trip = %q, want %q", got, plaintext)
		}
	}
}

func TestEncryptor_NonceVariesPerCall(t *testing.T) {
	enc, err := NewEncryptor(testKey)
	if err != nil {
		t.Fatal(err)
	}

	c1, err := enc.Encrypt("same token")
	if err != nil {
		t.Fatal(err)
	}
	c2, err := enc.Encrypt("same token")
	if err != nil {
		t.Fatal(err)
	}
	if c1 == c2 {
		t.Error("two encryptions of the same plaintext are identical")
	}
}

func TestEncryptor_DecryptRejects(t *testing.T) {
	enc, err := NewEncryptor(testKey)
	if err != nil {
		t.Fatal(err)
	}

	valid, err := enc.Encrypt("secret data")
	if err != nil {
		t.Fatal(err)
	}

	other, err := NewEncryptor("fedcba9876543210fedcba9876543210")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		enc        *Encryptor
		ciphertext string
	}{
		{"Tampered Ciphertext", enc, valid[:len(valid)-2] + "XX"},
		{"Invalid Base64", enc, "not-valid-base64!!!"},
		{"Shorter Than Nonce", enc, "YQ=="},
		{"Wrong Key", other, valid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.enc.Decrypt(tt.ciphertext); err == nil {
				t.Error("Decrypt() accepted bad input")
			}
		})
	}
}
