package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// bcrypt cost 12 keeps a hash around 250ms on current hardware,
// slow enough to blunt offline guessing without hurting login latency.
const hashCost = 12

// HashPassword returns a bcrypt hash of the given plain-text password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a bcrypt hash against a candidate password.
// Returns nil on match.
func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
