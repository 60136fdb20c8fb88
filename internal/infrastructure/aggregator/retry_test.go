package aggregator

import (
	"context"
	"errors"
	"testing"
	"time"

	"finlink/internal/fault"
)

// MockAPI is a mock implementation of the API interface
type MockAPI struct {
	CreateLinkTokenFunc     func(ctx context.Context, userID string) (*LinkTokenResponse, error)
	ExchangePublicTokenFunc func(ctx context.Context, publicToken string) (*ExchangeResponse, error)
	GetAccountsFunc         func(ctx context.Context, accessToken string) (*AccountsResponse, error)
	GetTransactionsFunc     func(ctx context.Context, accessToken string, start, end time.Time) (*TransactionsResponse, error)
	RemoveItemFunc          func(ctx context.Context, accessToken string) error
}

func (m *MockAPI) CreateLinkToken(ctx context.Context, userID string) (*LinkTokenResponse, error) {
	if m.CreateLinkTokenFunc != nil {
		return m.CreateLinkTokenFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockAPI) ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResponse, error) {
	if m.ExchangePublicTokenFunc != nil {
		return m.ExchangePublicTokenFunc(ctx, publicToken)
	}
	return nil, nil
}

func (m *MockAPI) GetAccounts(ctx context.Context, accessToken string) (*AccountsResponse, error) {
	if m.GetAccountsFunc != nil {
		return m.GetAccountsFunc(ctx, accessToken)
	}
	return nil, nil
}

func (m *MockAPI) GetTransactions(ctx context.Context, accessToken string, start, end time.Time) (*TransactionsResponse, error) {
	if m.GetTransactionsFunc != nil {
		return m.GetTransactionsFunc(ctx, accessToken, start, end)
	}
	return nil, nil
}

func (m *MockAPI) RemoveItem(ctx context.Context, accessToken string) error {
	if m.RemoveItemFunc != nil {
		return m.RemoveItemFunc(ctx, accessToken)
	}
	return nil
}

func newTestRetry(api API) *Retry {
	r := NewRetry(api)
	r.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return r
}

func TestRetryEventualSuccess(t *testing.T) {
	calls := 0
	mock := &MockAPI{
		GetAccountsFunc: func(ctx context.Context, accessToken string) (*AccountsResponse, error) {
			calls++
			if calls < 3 {
				return nil, fault.Retryable(fault.KindRateLimit, errors.New("429"))
			}
			return &AccountsResponse{ItemID: "item-1"}, nil
		},
	}

	resp, err := newTestRetry(mock).GetAccounts(context.Background(), "token")
	if err != nil {
		t.Fatalf("GetAccounts() unexpected error: %v", err)
	}
	if resp.ItemID != "item-1" {
		t.Errorf("ItemID = %q", resp.ItemID)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryGivesUp(t *testing.T) {
	calls := 0
	mock := &MockAPI{
		GetAccountsFunc: func(ctx context.Context, accessToken string) (*AccountsResponse, error) {
			calls++
			return nil, fault.Retryable(fault.KindProviderDown, errors.New("503"))
		},
	}

	_, err := newTestRetry(mock).GetAccounts(context.Background(), "token")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != defaultMaxAttempts {
		t.Errorf("expected %d calls, got %d", defaultMaxAttempts, calls)
	}
}

func TestRetryTerminalPassesThrough(t *testing.T) {
	calls := 0
	mock := &MockAPI{
		GetTransactionsFunc: func(ctx context.Context, accessToken string, start, end time.Time) (*TransactionsResponse, error) {
			calls++
			return nil, fault.Terminal(fault.KindItemRevoked, errors.New("revoked"))
		},
	}

	_, err := newTestRetry(mock).GetTransactions(context.Background(), "token", time.Now().AddDate(0, 0, -30), time.Now())
	if !fault.IsTerminal(err) {
		t.Fatalf("expected terminal error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("terminal error must not be retried, got %d calls", calls)
	}
}

func TestRetryHonorsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := &MockAPI{
		GetAccountsFunc: func(ctx context.Context, accessToken string) (*AccountsResponse, error) {
			return nil, fault.Retryable(fault.KindNetwork, errors.New("reset"))
		},
	}

	r := NewRetry(mock)
	r.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := r.GetAccounts(ctx, "token")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBackoffCapped(t *testing.T) {
	if d := backoffFor(0); d != baseBackoff {
		t.Errorf("backoffFor(0) = %v", d)
	}
	if d := backoffFor(20); d != maxBackoff {
		t.Errorf("backoffFor(20) = %v, want cap %v", d, maxBackoff)
	}
}
