package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"finlink/internal/domain/account"
	"finlink/internal/shared/middleware"
)

// MockAccountRepo implements account.Repository for testing
type MockAccountRepo struct {
	GetByIDFunc            func(ctx context.Context, id string) (*account.Account, error)
	ListByUserIDFunc       func(ctx context.Context, userID string) ([]*account.Account, error)
	ListByItemIDFunc       func(ctx context.Context, itemID string) ([]*account.Account, error)
	InsertIfAbsentFunc     func(ctx context.Context, a *account.Account) (bool, error)
	SaveFunc               func(ctx context.Context, a *account.Account) error
	DeactivateByItemIDFunc func(ctx context.Context, itemID string) (int, error)
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id string) (*account.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockAccountRepo) ListByUserID(ctx context.Context, userID string) ([]*account.Account, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockAccountRepo) ListByItemID(ctx context.Context, itemID string) ([]*account.Account, error) {
	if m.ListByItemIDFunc != nil {
		return m.ListByItemIDFunc(ctx, itemID)
	}
	return nil, nil
}

func (m *MockAccountRepo) InsertIfAbsent(ctx context.Context, a *account.Account) (bool, error) {
	if m.InsertIfAbsentFunc != nil {
		return m.InsertIfAbsentFunc(ctx, a)
	}
	return false, nil
}

func (m *MockAccountRepo) Save(ctx context.Context, a *account.Account) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, a)
	}
	return nil
}

func (m *MockAccountRepo) DeactivateByItemID(ctx context.Context, itemID string) (int, error) {
	if m.DeactivateByItemIDFunc != nil {
		return m.DeactivateByItemIDFunc(ctx, itemID)
	}
	return 0, nil
}

func TestHandleListAccounts(t *testing.T) {
	tests := []struct {
		name           string
		userID         string
		query          string
		mockRepo       func() *MockAccountRepo
		expectedStatus int
	}{
		{
			name:   "Success",
			userID: "user-1",
			mockRepo: func() *MockAccountRepo {
				return &MockAccountRepo{
					ListByUserIDFunc: func(ctx context.Context, userID string) ([]*account.Account, error) {
						return []*account.Account{
							{ID: "acc-1", UserID: "user-1", Name: "Test Checking", Active: true},
						}, nil
					},
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "Empty List",
			userID: "user-1",
			mockRepo: func() *MockAccountRepo {
				return &MockAccountRepo{
					ListByUserIDFunc: func(ctx context.Context, userID string) ([]*account.Account, error) {
						return []*account.Account{}, nil
					},
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "Active Filter",
			userID: "user-1",
			query:  "?active=true",
			mockRepo: func() *MockAccountRepo {
				return &MockAccountRepo{
					ListByUserIDFunc: func(ctx context.Context, userID string) ([]*account.Account, error) {
						return []*account.Account{
							{ID: "acc-1", UserID: "user-1", Active: true},
							{ID: "acc-2", UserID: "user-1", Active: false},
						}, nil
					},
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "Repository Error",
			userID: "user-1",
			mockRepo: func() *MockAccountRepo {
				return &MockAccountRepo{
					ListByUserIDFunc: func(ctx context.Context, userID string) ([]*account.Account, error) {
						return nil, errors.New("db error")
					},
				}
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := tt.mockRepo()
			service := account.NewService(repo)
			handler := NewAccountHandler(service)

			req, _ := http.NewRequest(http.MethodGet, "/api/accounts"+tt.query, nil)
			ctx := context.WithValue(req.Context(), middleware.UserIDKey, tt.userID)
			req = req.WithContext(ctx)

			rr := httptest.NewRecorder()
			handler.HandleListAccounts(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}
		})
	}
}

func TestHandleGetAccount(t *testing.T) {
	tests := []struct {
		name           string
		accountID      string
		userID         string
		mockRepo       func() *MockAccountRepo
		expectedStatus int
	}{
		{
			name:      "Success",
			accountID: "acc-1",
			userID:    "user-1",
			mockRepo: func() *MockAccountRepo {
				return &MockAccountRepo{
					GetByIDFunc: func(ctx context.Context, id string) (*account.Account, error) {
						return &account.Account{ID: id, UserID: "user-1"}, nil
					},
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:      "Not Found",
			accountID: "acc-999",
			userID:    "user-1",
			mockRepo: func() *MockAccountRepo {
				return &MockAccountRepo{
					GetByIDFunc: func(ctx context.Context, id string) (*account.Account, error) {
						return nil, account.ErrAccountNotFound
					},
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:      "Forbidden",
			accountID: "acc-2",
			userID:    "user-1",
			mockRepo: func() *MockAccountRepo {
				return &MockAccountRepo{
					GetByIDFunc: func(ctx context.Context, id string) (*account.Account, error) {
						// Account belongs to another user
						return &account.Account{ID: id, UserID: "user-2"}, nil
					},
				}
			},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := tt.mockRepo()
			service := account.NewService(repo)
			handler := NewAccountHandler(service)

			req, _ := http.NewRequest(http.MethodGet, "/api/accounts/"+tt.accountID, nil)
			req.SetPathValue("id", tt.accountID)
			ctx := context.WithValue(req.Context(), middleware.UserIDKey, tt.userID)
			req = req.WithContext(ctx)

			rr := httptest.NewRecorder()
			handler.HandleGetAccount(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}
		})
	}
}
