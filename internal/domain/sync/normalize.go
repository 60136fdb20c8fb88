// Package sync reconciles provider account and transaction data into
// local storage. Reconciliation is idempotent: replaying the same
// provider data never creates duplicate rows.
package sync

import (
	"strings"

	"github.com/shopspring/decimal"

	"finlink/internal/domain/account"
	"finlink/internal/domain/item"
	"finlink/internal/domain/transaction"
	"finlink/internal/fault"
	"finlink/internal/identity"
	"finlink/internal/infrastructure/aggregator"
)

const defaultCurrency = "USD"

// NormalizeAmount flips a provider amount into the local convention
// where spending is negative and income is positive. The provider
// reports the opposite sign for every account type, so the rule is a
// plain negation. A nil amount stays nil.
func NormalizeAmount(amount *decimal.Decimal) *decimal.Decimal {
	if amount == nil {
		return nil
	}
	neg := amount.Neg()
	return &neg
}

// ToAccount converts a provider account into the local model. The ID
// is derived from the institution and the provider's account ID.
func ToAccount(raw aggregator.Account, it *item.Item) (*account.Account, error) {
	if it == nil {
		return nil, fault.Invalid("item is required")
	}
	id, err := identity.ForAccount(it.InstitutionName, raw.AccountID)
	if err != nil {
		return nil, err
	}

	balance := decimal.Zero
	if raw.Balances.Current != nil {
		balance = *raw.Balances.Current
	}
	currency := strings.ToUpper(strings.TrimSpace(raw.Balances.ISOCurrencyCode))
	if currency == "" {
		currency = defaultCurrency
	}

	name := raw.Name
	if name == "" {
		name = raw.OfficialName
	}

	return &account.Account{
		ID:              id,
		ExternalID:      raw.AccountID,
		ItemID:          it.ID,
		UserID:          it.UserID,
		InstitutionName: it.InstitutionName,
		Name:            name,
		AccountType:     raw.Type,
		Subtype:         raw.Subtype,
		Balance:         balance,
		Currency:        currency,
		Active:          true,
	}, nil
}

// ToTransaction converts a provider transaction into the local model.
// owner is the already-reconciled local account the transaction
// belongs to.
func ToTransaction(raw aggregator.Transaction, owner *account.Account) (*transaction.Transaction, error) {
	if owner == nil {
		return nil, fault.Invalid("owner account is required")
	}
	id, err := identity.ForTransaction(owner.InstitutionName, owner.ID, raw.TransactionID)
	if err != nil {
		return nil, err
	}

	date, err := raw.GetDate()
	if err != nil {
		return nil, err
	}

	amount := decimal.Zero
	if n := NormalizeAmount(raw.Amount); n != nil {
		amount = *n
	}
	currency := strings.ToUpper(strings.TrimSpace(raw.ISOCurrencyCode))
	if currency == "" {
		currency = owner.Currency
	}

	desc := raw.Name
	if raw.MerchantName != "" {
		desc = raw.MerchantName
	}

	return &transaction.Transaction{
		ID:          id,
		ExternalID:  raw.TransactionID,
		AccountID:   owner.ID,
		UserID:      owner.UserID,
		Amount:      amount,
		Description: desc,
		Category:    transaction.MapCategory(raw.Category),
		Currency:    currency,
		Date:        date,
		Pending:     raw.Pending,
	}, nil
}
