package item

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("item not found")

// Item is one live connection to a financial institution. Its ID is
// the provider-issued item identifier, opaque to us but stable for
// the lifetime of the connection.
type Item struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	InstitutionName string    `json:"institutionName"`
	AccessToken     string    `json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
