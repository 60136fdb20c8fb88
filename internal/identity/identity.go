// Package identity derives stable UUIDs for synced entities.
//
// Derived IDs are name-based (SHA-1 over a fixed namespace plus a
// normalized composite key), so the same provider record always maps
// to the same local row no matter which host, process, or sync run
// touches it first.
package identity

import (
	"strings"

	"github.com/google/uuid"

	"finlink/internal/fault"
)

// Per-kind namespaces. Changing any of these re-keys every derived ID
// of that kind, so they are frozen.
var (
	accountNamespace     = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	transactionNamespace = uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8")
	budgetNamespace      = uuid.MustParse("6ba7b812-9dad-11d1-80b4-00c04fd430c8")
	goalNamespace        = uuid.MustParse("6ba7b813-9dad-11d1-80b4-00c04fd430c8")
)

// ForAccount derives the local account ID for a provider account.
func ForAccount(institutionName, externalAccountID string) (string, error) {
	return derive(accountNamespace, institutionName, externalAccountID)
}

// ForTransaction derives the local transaction ID for a provider
// transaction. accountID is the already-derived local account ID.
func ForTransaction(institutionName, accountID, externalTransactionID string) (string, error) {
	return derive(transactionNamespace, institutionName, accountID, externalTransactionID)
}

// ForBudget derives the budget ID for a user and category.
func ForBudget(userID, category string) (string, error) {
	return derive(budgetNamespace, userID, category)
}

// ForGoal derives the goal ID for a user and goal name.
func ForGoal(userID, goalName string) (string, error) {
	return derive(goalNamespace, userID, goalName)
}

func derive(ns uuid.UUID, parts ...string) (string, error) {
	norm := make([]string, len(parts))
	for i, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			return "", fault.Invalid("identity: key component %d is empty", i+1)
		}
		norm[i] = p
	}
	return uuid.NewSHA1(ns, []byte(strings.Join(norm, ":"))).String(), nil
}

// NewRandomID returns a fresh random UUID for entities that have no
// provider-side key, such as users.
func NewRandomID() string {
	return uuid.NewString()
}

// IsValid reports whether s parses as a UUID.
func IsValid(s string) bool {
	_, err := uuid.Parse(strings.TrimSpace(s))
	return err == nil
}

// Equal compares two IDs ignoring case and surrounding whitespace.
func Equal(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
