package account

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// Account types reported by the aggregator.
	accountTypes = map[string]struct{}{
		"depository": {},
		"credit":     {},
		"loan":       {},
		"investment": {},
		"other":      {},
	}
	// Common ISO 4217 currency codes
	validCurrencies = map[string]struct{}{
		"USD": {}, "EUR": {}, "GBP": {}, "JPY": {}, "CHF": {},
		"CAD": {}, "AUD": {}, "NZD": {}, "CNY": {}, "INR": {},
		"MXN": {}, "ZAR": {}, "SEK": {}, "NOK": {}, "DKK": {},
		"PLN": {}, "TRY": {}, "BRL": {}, "KRW": {}, "SGD": {},
		"HKD": {}, "ARS": {}, "CLP": {}, "COP": {},
	}
)

// Domain errors
var (
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrAccountNotFound    = errors.New("account not found")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidCurrency    = errors.New("valid ISO 4217 currency is required")
)

// Account represents a financial account domain entity. The ID is
// derived from the institution name and the provider's account ID,
// so re-linking the same account lands on the same row.
type Account struct {
	ID              string          `json:"id"`
	ExternalID      string          `json:"externalId"`
	ItemID          string          `json:"itemId"`
	UserID          string          `json:"userId"`
	InstitutionName string          `json:"institutionName"`
	Name            string          `json:"name"`
	AccountType     string          `json:"accountType"`
	Subtype         string          `json:"subtype,omitempty"`
	Balance         decimal.Decimal `json:"balance"`
	Currency        string          `json:"currency"`
	Active          bool            `json:"active"`
	LastSyncedAt    *time.Time      `json:"lastSyncedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Validate checks the fields a sync run is required to fill in.
func (a *Account) Validate() error {
	if a.ID == "" {
		return errors.New("account ID is required")
	}
	if a.UserID == "" {
		return errors.New("user ID is required")
	}
	if a.ExternalID == "" {
		return errors.New("external account ID is required")
	}
	if a.Name == "" {
		return errors.New("account name is required")
	}
	if !IsValidAccountType(a.AccountType) {
		return ErrInvalidAccountType
	}
	if !IsValidCurrency(a.Currency) {
		return ErrInvalidCurrency
	}
	return nil
}

// IsValidAccountType checks if the provided account type is valid.
func IsValidAccountType(t string) bool {
	_, ok := accountTypes[t]
	return ok
}

// IsValidCurrency checks if the provided currency is a valid ISO 4217 code.
func IsValidCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	_, ok := validCurrencies[c]
	return ok
}
