package sync

import (
	"testing"

	"github.com/shopspring/decimal"

	"finlink/internal/infrastructure/aggregator"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		name  string
		input *decimal.Decimal
		want  string
	}{
		{"spending flips negative", dec("42.50"), "-42.5"},
		{"income flips positive", dec("-5000.00"), "5000"},
		{"zero stays zero", dec("0"), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAmount(tt.input)
			if got == nil {
				t.Fatal("NormalizeAmount() returned nil")
			}
			if got.String() != tt.want {
				t.Errorf("NormalizeAmount(%s) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeAmountNil(t *testing.T) {
	if got := NormalizeAmount(nil); got != nil {
		t.Errorf("NormalizeAmount(nil) = %v, want nil", got)
	}
}

func TestToAccountDefaults(t *testing.T) {
	raw := aggregator.Account{
		AccountID: "ext-1",
		Name:      "Checking",
		Type:      "depository",
		Subtype:   "checking",
		// no balance, no currency
	}

	a, err := ToAccount(raw, testItem())
	if err != nil {
		t.Fatalf("ToAccount() error = %v", err)
	}
	if !a.Balance.IsZero() {
		t.Errorf("Balance = %s, want 0", a.Balance)
	}
	if a.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", a.Currency)
	}
	if !a.Active {
		t.Error("new account must be active")
	}
	if a.ExternalID != "ext-1" {
		t.Errorf("ExternalID = %q", a.ExternalID)
	}
}

func TestToAccountDeterministicID(t *testing.T) {
	raw := aggregator.Account{AccountID: "ext-1", Name: "Checking", Type: "depository", Balances: aggregator.Balances{Current: dec("1000.00"), ISOCurrencyCode: "USD"}}

	a1, err := ToAccount(raw, testItem())
	if err != nil {
		t.Fatalf("ToAccount() error = %v", err)
	}
	a2, err := ToAccount(raw, testItem())
	if err != nil {
		t.Fatalf("ToAccount() error = %v", err)
	}
	if a1.ID != a2.ID {
		t.Errorf("same provider account derived different IDs: %q vs %q", a1.ID, a2.ID)
	}
	if a1.Balance.String() != "1000" {
		t.Errorf("Balance = %s", a1.Balance)
	}
}

func TestToAccountNilItem(t *testing.T) {
	if _, err := ToAccount(aggregator.Account{AccountID: "ext-1"}, nil); err == nil {
		t.Error("expected error for nil item")
	}
}

func TestToTransaction(t *testing.T) {
	it := testItem()
	ownerRaw := aggregator.Account{AccountID: "ext-1", Name: "Checking", Type: "depository"}
	owner, err := ToAccount(ownerRaw, it)
	if err != nil {
		t.Fatalf("ToAccount() error = %v", err)
	}

	raw := aggregator.Transaction{
		TransactionID: "tx-ext-1",
		AccountID:     "ext-1",
		Name:          "COFFEE SHOP #42",
		MerchantName:  "Coffee Shop",
		Amount:        dec("4.75"),
		DateString:    "2026-08-20",
		Category:      []string{"Food and Drink", "Restaurants"},
	}

	tx, err := ToTransaction(raw, owner)
	if err != nil {
		t.Fatalf("ToTransaction() error = %v", err)
	}
	if tx.Amount.String() != "-4.75" {
		t.Errorf("Amount = %s, want -4.75", tx.Amount)
	}
	if tx.Description != "Coffee Shop" {
		t.Errorf("Description = %q, merchant name should win", tx.Description)
	}
	if tx.Category != "Food & Dining" {
		t.Errorf("Category = %q", tx.Category)
	}
	if tx.AccountID != owner.ID {
		t.Errorf("AccountID = %q, want local ID %q", tx.AccountID, owner.ID)
	}
	if tx.Currency != "USD" {
		t.Errorf("Currency = %q, should inherit owner currency", tx.Currency)
	}

	// Same provider transaction, same derived ID.
	again, err := ToTransaction(raw, owner)
	if err != nil {
		t.Fatalf("ToTransaction() error = %v", err)
	}
	if tx.ID != again.ID {
		t.Errorf("derived IDs diverged: %q vs %q", tx.ID, again.ID)
	}
}

func TestToTransactionBadDate(t *testing.T) {
	owner, _ := ToAccount(aggregator.Account{AccountID: "ext-1", Name: "Checking", Type: "depository"}, testItem())
	raw := aggregator.Transaction{TransactionID: "tx-1", AccountID: "ext-1", Name: "x", DateString: "20-08-2026"}
	if _, err := ToTransaction(raw, owner); err == nil {
		t.Error("expected error for unparseable date")
	}
}
