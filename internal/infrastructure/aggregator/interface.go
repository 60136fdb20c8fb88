package aggregator

import (
	"context"
	"time"
)

// API is the aggregator surface the sync layer depends on. Defined
// here so services can swap in mocks without touching HTTP.
type API interface {
	CreateLinkToken(ctx context.Context, userID string) (*LinkTokenResponse, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResponse, error)
	GetAccounts(ctx context.Context, accessToken string) (*AccountsResponse, error)
	GetTransactions(ctx context.Context, accessToken string, start, end time.Time) (*TransactionsResponse, error)
	RemoveItem(ctx context.Context, accessToken string) error
}
