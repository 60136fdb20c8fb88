// Package aggregator is the HTTP client for the account aggregation
// provider. All access to provider data goes through this package so
// error classification happens in exactly one place.
package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"finlink/internal/fault"
)

const (
	defaultTimeout = 60 * time.Second

	linkTokenPath    = "/link/token/create"
	exchangePath     = "/item/public_token/exchange"
	accountsPath     = "/accounts/get"
	transactionsPath = "/transactions/get"
	removeItemPath   = "/item/remove"

	dateLayout = "2006-01-02"
)

// Client handles communication with the aggregation provider API
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
}

// Ensure Client implements API
var _ API = (*Client)(nil)

// NewClient creates a new aggregator API client
func NewClient(baseURL, clientID, secret string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:  baseURL,
		clientID: clientID,
		secret:   secret,
	}
}

// Account represents an account as the provider reports it
type Account struct {
	AccountID    string   `json:"account_id"`
	Name         string   `json:"name"`
	OfficialName string   `json:"official_name"`
	Type         string   `json:"type"`
	Subtype      string   `json:"subtype"`
	Mask         string   `json:"mask"`
	Balances     Balances `json:"balances"`
}

// Balances holds the balance block of a provider account
type Balances struct {
	Available       *decimal.Decimal `json:"available"`
	Current         *decimal.Decimal `json:"current"`
	ISOCurrencyCode string           `json:"iso_currency_code"`
}

// Transaction represents a transaction as the provider reports it.
// Amount uses the provider's convention: positive for money leaving
// the account.
type Transaction struct {
	TransactionID   string           `json:"transaction_id"`
	AccountID       string           `json:"account_id"`
	Name            string           `json:"name"`
	MerchantName    string           `json:"merchant_name"`
	Amount          *decimal.Decimal `json:"amount"`
	DateString      string           `json:"date"` // "2006-01-02"
	Pending         bool             `json:"pending"`
	Category        []string         `json:"category"`
	ISOCurrencyCode string           `json:"iso_currency_code"`
}

// GetDate parses and returns the transaction date
func (t *Transaction) GetDate() (time.Time, error) {
	parsed, err := time.Parse(dateLayout, t.DateString)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date '%s': %w", t.DateString, err)
	}
	return parsed, nil
}

type linkTokenRequest struct {
	ClientID   string `json:"client_id"`
	Secret     string `json:"secret"`
	UserID     string `json:"client_user_id"`
	ClientName string `json:"client_name"`
}

// LinkTokenResponse carries the short-lived token the mobile client
// uses to start the link flow.
type LinkTokenResponse struct {
	LinkToken  string `json:"link_token"`
	Expiration string `json:"expiration"`
}

type exchangeRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	PublicToken string `json:"public_token"`
}

// ExchangeResponse carries the long-lived credentials for a new item
type ExchangeResponse struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
}

type accountsRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
}

// AccountsResponse is the provider response for the accounts endpoint
type AccountsResponse struct {
	Accounts []Account `json:"accounts"`
	ItemID   string    `json:"item_id"`
}

type transactionsRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// TransactionsResponse is the provider response for the transactions endpoint
type TransactionsResponse struct {
	Accounts          []Account     `json:"accounts"`
	Transactions      []Transaction `json:"transactions"`
	TotalTransactions int           `json:"total_transactions"`
	ItemID            string        `json:"item_id"`
}

type removeItemRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
}

// CreateLinkToken requests a link token for the given user
func (c *Client) CreateLinkToken(ctx context.Context, userID string) (*LinkTokenResponse, error) {
	if userID == "" {
		return nil, fault.Invalid("user ID is required")
	}

	var out LinkTokenResponse
	if err := c.post(ctx, linkTokenPath, linkTokenRequest{
		ClientID:   c.clientID,
		Secret:     c.secret,
		UserID:     userID,
		ClientName: "finlink",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExchangePublicToken trades a public token from the link flow for a
// permanent access token and item ID
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResponse, error) {
	if publicToken == "" {
		return nil, fault.Invalid("public token is required")
	}

	var out ExchangeResponse
	if err := c.post(ctx, exchangePath, exchangeRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		PublicToken: publicToken,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAccounts fetches the full current account list for an item
func (c *Client) GetAccounts(ctx context.Context, accessToken string) (*AccountsResponse, error) {
	if accessToken == "" {
		return nil, fault.Invalid("access token is required")
	}

	var out AccountsResponse
	if err := c.post(ctx, accountsPath, accountsRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTransactions fetches transactions for an item within [start, end]
func (c *Client) GetTransactions(ctx context.Context, accessToken string, start, end time.Time) (*TransactionsResponse, error) {
	if accessToken == "" {
		return nil, fault.Invalid("access token is required")
	}
	if start.After(end) {
		return nil, fault.Invalid("start date %s is after end date %s", start.Format(dateLayout), end.Format(dateLayout))
	}

	var out TransactionsResponse
	if err := c.post(ctx, transactionsPath, transactionsRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
		StartDate:   start.Format(dateLayout),
		EndDate:     end.Format(dateLayout),
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveItem revokes the item's access token at the provider
func (c *Client) RemoveItem(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return fault.Invalid("access token is required")
	}
	return c.post(ctx, removeItemPath, removeItemRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
	}, &struct{}{})
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fault.Retryable(fault.KindNetwork, fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fault.Retryable(fault.KindNetwork, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return classifyAPIError(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
