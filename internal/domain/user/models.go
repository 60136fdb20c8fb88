package user

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrInvalidEmail  = errors.New("invalid email address")
	ErrEmptyPassword = errors.New("password is required")
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type CreateParams struct {
	Email        string
	Name         string
	PasswordHash string
}

func (p CreateParams) Validate() error {
	if _, err := mail.ParseAddress(strings.TrimSpace(p.Email)); err != nil {
		return ErrInvalidEmail
	}
	if p.PasswordHash == "" {
		return ErrEmptyPassword
	}
	return nil
}
