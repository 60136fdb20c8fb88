package sync

import (
	"context"
	"sync"
	"time"

	"finlink/internal/domain/account"
	"finlink/internal/domain/item"
	"finlink/internal/domain/transaction"
	"finlink/internal/infrastructure/aggregator"
)

// MockClient implements aggregator.API
type MockClient struct {
	CreateLinkTokenFunc     func(ctx context.Context, userID string) (*aggregator.LinkTokenResponse, error)
	ExchangePublicTokenFunc func(ctx context.Context, publicToken string) (*aggregator.ExchangeResponse, error)
	GetAccountsFunc         func(ctx context.Context, accessToken string) (*aggregator.AccountsResponse, error)
	GetTransactionsFunc     func(ctx context.Context, accessToken string, start, end time.Time) (*aggregator.TransactionsResponse, error)
	RemoveItemFunc          func(ctx context.Context, accessToken string) error
}

func (m *MockClient) CreateLinkToken(ctx context.Context, userID string) (*aggregator.LinkTokenResponse, error) {
	if m.CreateLinkTokenFunc != nil {
		return m.CreateLinkTokenFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockClient) ExchangePublicToken(ctx context.Context, publicToken string) (*aggregator.ExchangeResponse, error) {
	if m.ExchangePublicTokenFunc != nil {
		return m.ExchangePublicTokenFunc(ctx, publicToken)
	}
	return nil, nil
}

func (m *MockClient) GetAccounts(ctx context.Context, accessToken string) (*aggregator.AccountsResponse, error) {
	if m.GetAccountsFunc != nil {
		return m.GetAccountsFunc(ctx, accessToken)
	}
	return &aggregator.AccountsResponse{}, nil
}

func (m *MockClient) GetTransactions(ctx context.Context, accessToken string, start, end time.Time) (*aggregator.TransactionsResponse, error) {
	if m.GetTransactionsFunc != nil {
		return m.GetTransactionsFunc(ctx, accessToken, start, end)
	}
	return &aggregator.TransactionsResponse{}, nil
}

func (m *MockClient) RemoveItem(ctx context.Context, accessToken string) error {
	if m.RemoveItemFunc != nil {
		return m.RemoveItemFunc(ctx, accessToken)
	}
	return nil
}

// FakeAccountRepo is an in-memory account.Repository for exercising
// the reconcile loops end to end.
type FakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*account.Account
}

func NewFakeAccountRepo() *FakeAccountRepo {
	return &FakeAccountRepo{accounts: make(map[string]*account.Account)}
}

func (f *FakeAccountRepo) GetByID(ctx context.Context, id string) (*account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *FakeAccountRepo) ListByUserID(ctx context.Context, userID string) ([]*account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*account.Account
	for _, a := range f.accounts {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *FakeAccountRepo) ListByItemID(ctx context.Context, itemID string) ([]*account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*account.Account
	for _, a := range f.accounts {
		if a.ItemID == itemID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *FakeAccountRepo) InsertIfAbsent(ctx context.Context, a *account.Account) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.accounts[a.ID]; exists {
		return false, nil
	}
	cp := *a
	f.accounts[a.ID] = &cp
	return true, nil
}

func (f *FakeAccountRepo) Save(ctx context.Context, a *account.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.accounts[a.ID] = &cp
	return nil
}

func (f *FakeAccountRepo) DeactivateByItemID(ctx context.Context, itemID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.accounts {
		if a.ItemID == itemID && a.Active {
			a.Active = false
			n++
		}
	}
	return n, nil
}

// FakeTransactionRepo is an in-memory transaction.Repository
type FakeTransactionRepo struct {
	mu           sync.Mutex
	transactions map[string]*transaction.Transaction
}

func NewFakeTransactionRepo() *FakeTransactionRepo {
	return &FakeTransactionRepo{transactions: make(map[string]*transaction.Transaction)}
}

func (f *FakeTransactionRepo) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.transactions[id]
	if !ok {
		return nil, transaction.ErrTransactionNotFound
	}
	cp := *tx
	return &cp, nil
}

func (f *FakeTransactionRepo) GetByExternalID(ctx context.Context, externalID string) (*transaction.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tx := range f.transactions {
		if tx.ExternalID == externalID {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *FakeTransactionRepo) ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*transaction.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*transaction.Transaction
	for _, tx := range f.transactions {
		if tx.AccountID == accountID {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *FakeTransactionRepo) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*transaction.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*transaction.Transaction
	for _, tx := range f.transactions {
		if tx.UserID == userID {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *FakeTransactionRepo) CountByUserID(ctx context.Context, userID string) (int64, error) {
	txs, _ := f.ListByUserID(ctx, userID, 0, 0)
	return int64(len(txs)), nil
}

func (f *FakeTransactionRepo) InsertIfAbsent(ctx context.Context, tx *transaction.Transaction) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.transactions[tx.ID]; exists {
		return false, nil
	}
	cp := *tx
	f.transactions[tx.ID] = &cp
	return true, nil
}

func (f *FakeTransactionRepo) Save(ctx context.Context, tx *transaction.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *tx
	f.transactions[tx.ID] = &cp
	return nil
}

func (f *FakeTransactionRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.transactions, id)
	return nil
}

func (f *FakeTransactionRepo) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transactions)
}

// MockItemRepo implements item.Repository
type MockItemRepo struct {
	UpsertFunc       func(ctx context.Context, it *item.Item) error
	GetByIDFunc      func(ctx context.Context, id string) (*item.Item, error)
	ListByUserIDFunc func(ctx context.Context, userID string) ([]*item.Item, error)
	DeleteFunc       func(ctx context.Context, id string) error
}

func (m *MockItemRepo) Upsert(ctx context.Context, it *item.Item) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, it)
	}
	return nil
}

func (m *MockItemRepo) GetByID(ctx context.Context, id string) (*item.Item, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockItemRepo) ListByUserID(ctx context.Context, userID string) ([]*item.Item, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockItemRepo) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockLocker implements Locker
type MockLocker struct {
	AcquireFunc func(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	ReleaseFunc func(ctx context.Context, key, token string) error
}

func (m *MockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, key, ttl)
	}
	return "token", true, nil
}

func (m *MockLocker) Release(ctx context.Context, key, token string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key, token)
	}
	return nil
}

func testItem() *item.Item {
	return &item.Item{
		ID:              "item-1",
		UserID:          "user-1",
		InstitutionName: "First National",
		AccessToken:     "access-token",
	}
}
