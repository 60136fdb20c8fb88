package transaction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// Transaction is a single ledger entry. Amounts follow the local
// convention: spending is negative, income is positive.
type Transaction struct {
	ID          string          `json:"id"`
	ExternalID  string          `json:"externalId"`
	AccountID   string          `json:"accountId"`
	UserID      string          `json:"userId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Currency    string          `json:"currency"`
	Date        time.Time       `json:"date"`
	Pending     bool            `json:"pending"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
