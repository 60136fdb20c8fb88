package aggregator

import (
	"context"
	"time"

	"finlink/internal/fault"
)

const (
	defaultMaxAttempts = 4
	baseBackoff        = 500 * time.Millisecond
	maxBackoff         = 8 * time.Second
)

// Retry wraps an API and re-issues calls that fail with a retryable
// fault, backing off exponentially between attempts. Terminal and
// invalid-input errors pass through on the first attempt.
type Retry struct {
	api         API
	maxAttempts int
	sleep       func(ctx context.Context, d time.Duration) error
}

var _ API = (*Retry)(nil)

// NewRetry wraps api with retry behavior
func NewRetry(api API) *Retry {
	return &Retry{
		api:         api,
		maxAttempts: defaultMaxAttempts,
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffFor(attempt int) time.Duration {
	d := baseBackoff << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func retry[T any](r *Retry, ctx context.Context, call func() (T, error)) (T, error) {
	var out T
	var err error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		out, err = call()
		if err == nil || !fault.IsRetryable(err) {
			return out, err
		}
		if attempt == r.maxAttempts-1 {
			break
		}
		if serr := r.sleep(ctx, backoffFor(attempt)); serr != nil {
			return out, serr
		}
	}
	return out, err
}

func (r *Retry) CreateLinkToken(ctx context.Context, userID string) (*LinkTokenResponse, error) {
	return retry(r, ctx, func() (*LinkTokenResponse, error) {
		return r.api.CreateLinkToken(ctx, userID)
	})
}

func (r *Retry) ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResponse, error) {
	return retry(r, ctx, func() (*ExchangeResponse, error) {
		return r.api.ExchangePublicToken(ctx, publicToken)
	})
}

func (r *Retry) GetAccounts(ctx context.Context, accessToken string) (*AccountsResponse, error) {
	return retry(r, ctx, func() (*AccountsResponse, error) {
		return r.api.GetAccounts(ctx, accessToken)
	})
}

func (r *Retry) GetTransactions(ctx context.Context, accessToken string, start, end time.Time) (*TransactionsResponse, error) {
	return retry(r, ctx, func() (*TransactionsResponse, error) {
		return r.api.GetTransactions(ctx, accessToken, start, end)
	})
}

func (r *Retry) RemoveItem(ctx context.Context, accessToken string) error {
	_, err := retry(r, ctx, func() (struct{}, error) {
		return struct{}{}, r.api.RemoveItem(ctx, accessToken)
	})
	return err
}
