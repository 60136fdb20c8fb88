package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finlink/internal/domain/item"
	"finlink/internal/webhook"
)

// MockItemRepo implements item.Repository for testing
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

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestHandleWebhook(t *testing.T) {
	const secret = "webhook-secret"
	body := []byte(`{"webhook_type":"TRANSACTIONS","webhook_code":"DEFAULT_UPDATE","item_id":"item-1"}`)

	// A forged or stale delivery must get the exact same answer a
	// genuine one gets, so the status never doubles as a signature
	// oracle. What distinguishes them is whether dispatch happens.
	tests := []struct {
		name           string
		method         string
		body           []byte
		signature      string
		expectedStatus int
		wantDispatch   bool
	}{
		{
			name:           "Valid Signature",
			method:         http.MethodPost,
			body:           body,
			signature:      signBody(secret, body),
			expectedStatus: http.StatusOK,
			wantDispatch:   true,
		},
		{
			name:           "Bad Signature",
			method:         http.MethodPost,
			body:           body,
			signature:      signBody("wrong-secret", body),
			expectedStatus: http.StatusOK,
			wantDispatch:   false,
		},
		{
			name:           "Tampered Body",
			method:         http.MethodPost,
			body:           append([]byte(nil), append(body, ' ')...),
			signature:      signBody(secret, body),
			expectedStatus: http.StatusOK,
			wantDispatch:   false,
		},
		{
			name:           "Missing Signature",
			method:         http.MethodPost,
			body:           body,
			signature:      "",
			expectedStatus: http.StatusOK,
			wantDispatch:   false,
		},
		{
			name:           "Wrong Method",
			method:         http.MethodGet,
			body:           nil,
			signature:      "",
			expectedStatus: http.StatusMethodNotAllowed,
			wantDispatch:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The ingestor's first move is the item lookup, so it
			// doubles as the dispatch signal. Unknown item means the
			// event is dropped after the acknowledgement.
			dispatched := make(chan struct{}, 1)
			itemRepo := &MockItemRepo{
				GetByIDFunc: func(ctx context.Context, id string) (*item.Item, error) {
					dispatched <- struct{}{}
					return nil, item.ErrNotFound
				},
			}
			ingestor := webhook.NewIngestor(itemRepo, nil, nil, nil, nil)
			handler := NewWebhookHandler(webhook.NewVerifier(secret), ingestor)

			req, _ := http.NewRequest(tt.method, "/api/webhooks/aggregator", strings.NewReader(string(tt.body)))
			if tt.signature != "" {
				req.Header.Set(webhook.SignatureHeader, tt.signature)
			}

			rr := httptest.NewRecorder()
			handler.HandleWebhook(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}

			if tt.wantDispatch {
				select {
				case <-dispatched:
				case <-time.After(2 * time.Second):
					t.Error("expected the event to be dispatched, saw nothing")
				}
			} else {
				select {
				case <-dispatched:
					t.Error("dropped webhook must not be dispatched")
				case <-time.After(50 * time.Millisecond):
				}
			}
		})
	}
}
