package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"finlink/internal/domain/item"
	"finlink/internal/fault"
	"finlink/internal/infrastructure/aggregator"
)

type recordingDeactivator struct {
	calls  int
	reason string
}

func (d *recordingDeactivator) DeactivateItem(ctx context.Context, it *item.Item, reason string) error {
	d.calls++
	d.reason = reason
	return nil
}

func newTestOrchestrator(client aggregator.API, accounts *FakeAccountRepo, txs *FakeTransactionRepo, items item.Repository, locker Locker, deactivator ItemDeactivator) *Orchestrator {
	ar := NewAccountReconciler(client, accounts)
	tr := NewTransactionReconciler(client, accounts, txs)
	return NewOrchestrator(ar, tr, items, locker, deactivator)
}

func TestSyncItemHappyPath(t *testing.T) {
	ctx := context.Background()
	accounts := NewFakeAccountRepo()
	txs := NewFakeTransactionRepo()
	client := &MockClient{
		GetAccountsFunc: func(ctx context.Context, accessToken string) (*aggregator.AccountsResponse, error) {
			return &aggregator.AccountsResponse{Accounts: []aggregator.Account{
				{AccountID: "ext-1", Name: "Checking", Type: "depository",
					Balances: aggregator.Balances{Current: dec("1000"), ISOCurrencyCode: "USD"}},
			}}, nil
		},
		GetTransactionsFunc: func(ctx context.Context, accessToken string, start, end time.Time) (*aggregator.TransactionsResponse, error) {
			return txResponse(
				aggregator.Transaction{TransactionID: "t-1", AccountID: "ext-1", Name: "Coffee", Amount: dec("4.00"), DateString: time.Now().UTC().Format("2006-01-02")},
			), nil
		},
	}

	o := newTestOrchestrator(client, accounts, txs, &MockItemRepo{}, &MockLocker{}, nil)
	result, err := o.SyncItem(ctx, testItem(), false)
	if err != nil {
		t.Fatalf("SyncItem() error = %v", err)
	}
	if result.Skipped {
		t.Error("run should not be skipped")
	}
	if result.Accounts.Created != 1 {
		t.Errorf("accounts created = %d", result.Accounts.Created)
	}
	if result.Transactions.Created != 1 {
		t.Errorf("transactions created = %d", result.Transactions.Created)
	}
}

func TestSyncItemLockContention(t *testing.T) {
	ctx := context.Background()
	fetched := false
	client := &MockClient{
		GetAccountsFunc: func(ctx context.Context, accessToken string) (*aggregator.AccountsResponse, error) {
			fetched = true
			return &aggregator.AccountsResponse{}, nil
		},
	}
	locker := &MockLocker{
		AcquireFunc: func(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
			return "", false, nil
		},
	}

	o := newTestOrchestrator(client, NewFakeAccountRepo(), NewFakeTransactionRepo(), &MockItemRepo{}, locker, nil)
	result, err := o.SyncItem(ctx, testItem(), true)
	if err != nil {
		t.Fatalf("lock contention must not be an error, got %v", err)
	}
	if !result.Skipped {
		t.Error("run should report skipped")
	}
	if fetched {
		t.Error("no provider call should happen without the lock")
	}
}

func TestSyncItemReleasesLock(t *testing.T) {
	ctx := context.Background()
	released := ""
	locker := &MockLocker{
		AcquireFunc: func(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
			return "tok-1", true, nil
		},
		ReleaseFunc: func(ctx context.Context, key, token string) error {
			released = token
			return nil
		},
	}
	client := &MockClient{
		GetAccountsFunc: func(ctx context.Context, accessToken string) (*aggregator.AccountsResponse, error) {
			return nil, fault.Retryable(fault.KindProviderDown, errors.New("503"))
		},
	}

	o := newTestOrchestrator(client, NewFakeAccountRepo(), NewFakeTransactionRepo(), &MockItemRepo{}, locker, nil)
	if _, err := o.SyncItem(ctx, testItem(), true); err == nil {
		t.Fatal("expected error")
	}
	if released != "tok-1" {
		t.Errorf("lock not released with its token, got %q", released)
	}
}

func TestSyncItemTerminalDeactivates(t *testing.T) {
	ctx := context.Background()
	client := &MockClient{
		GetAccountsFunc: func(ctx context.Context, accessToken string) (*aggregator.AccountsResponse, error) {
			return nil, fault.Terminal(fault.KindItemRevoked, errors.New("revoked"))
		},
	}
	deactivator := &recordingDeactivator{}

	o := newTestOrchestrator(client, NewFakeAccountRepo(), NewFakeTransactionRepo(), &MockItemRepo{}, &MockLocker{}, deactivator)
	_, err := o.SyncItem(ctx, testItem(), false)
	if !fault.IsTerminal(err) {
		t.Fatalf("expected terminal error, got %v", err)
	}
	if deactivator.calls != 1 {
		t.Errorf("deactivator calls = %d, want 1", deactivator.calls)
	}
	if deactivator.reason != fault.KindItemRevoked {
		t.Errorf("reason = %q", deactivator.reason)
	}
}

func TestSyncUserItemsFailIndependently(t *testing.T) {
	ctx := context.Background()
	items := &MockItemRepo{
		ListByUserIDFunc: func(ctx context.Context, userID string) ([]*item.Item, error) {
			return []*item.Item{
				{ID: "item-bad", UserID: userID, InstitutionName: "Bad Bank", AccessToken: "tok-bad"},
				{ID: "item-good", UserID: userID, InstitutionName: "Good Bank", AccessToken: "tok-good"},
			}, nil
		},
	}
	client := &MockClient{
		GetAccountsFunc: func(ctx context.Context, accessToken string) (*aggregator.AccountsResponse, error) {
			if accessToken == "tok-bad" {
				return nil, fault.Terminal(fault.KindInvalidCredentials, errors.New("401"))
			}
			return &aggregator.AccountsResponse{Accounts: []aggregator.Account{
				{AccountID: "ext-9", Name: "Savings", Type: "depository",
					Balances: aggregator.Balances{Current: dec("5"), ISOCurrencyCode: "USD"}},
			}}, nil
		},
	}

	o := newTestOrchestrator(client, NewFakeAccountRepo(), NewFakeTransactionRepo(), items, &MockLocker{}, &recordingDeactivator{})
	results, err := o.SyncUser(ctx, "user-1", true)
	if err != nil {
		t.Fatalf("SyncUser() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	var goodCreated int
	for _, r := range results {
		if r.ItemID == "item-good" && r.Accounts != nil {
			goodCreated = r.Accounts.Created
		}
	}
	if goodCreated != 1 {
		t.Error("healthy item should still sync when a sibling item dies")
	}
}
