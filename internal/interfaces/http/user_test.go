package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"finlink/internal/domain/user"
	"finlink/internal/shared/middleware"
)

// MockUserRepo implements user.Repository for testing
type MockUserRepo struct {
	CreateFunc     func(ctx context.Context, params user.CreateParams) (*user.User, error)
	GetByIDFunc    func(ctx context.Context, id string) (*user.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*user.User, error)
	ListFunc       func(ctx context.Context) ([]*user.User, error)
}

func (m *MockUserRepo) Create(ctx context.Context, params user.CreateParams) (*user.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *MockUserRepo) List(ctx context.Context) ([]*user.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func TestHandleMe_Get(t *testing.T) {
	tests := []struct {
		name           string
		userID         string
		mockRepo       func() *MockUserRepo
		expectedStatus int
	}{
		{
			name:   "Success",
			userID: "user-1",
			mockRepo: func() *MockUserRepo {
				return &MockUserRepo{
					GetByIDFunc: func(ctx context.Context, id string) (*user.User, error) {
						return &user.User{ID: id, Email: "test@example.com"}, nil
					},
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "User Not Found",
			userID: "user-999",
			mockRepo: func() *MockUserRepo {
				return &MockUserRepo{
					GetByIDFunc: func(ctx context.Context, id string) (*user.User, error) {
						return nil, user.ErrNotFound
					},
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := tt.mockRepo()
			handler := NewUserHandler(repo)

			req, _ := http.NewRequest(http.MethodGet, "/api/users/me", nil)
			ctx := context.WithValue(req.Context(), middleware.UserIDKey, tt.userID)
			req = req.WithContext(ctx)

			rr := httptest.NewRecorder()
			handler.HandleMe(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}

			if tt.expectedStatus == http.StatusOK {
				var u user.User
				json.NewDecoder(rr.Body).Decode(&u)
				if u.ID != tt.userID {
					t.Errorf("handler returned wrong user ID: got %v want %v", u.ID, tt.userID)
				}
			}
		})
	}
}

func TestHandleMe_MethodNotAllowed(t *testing.T) {
	repo := &MockUserRepo{}
	handler := NewUserHandler(repo)

	req, _ := http.NewRequest(http.MethodDelete, "/api/users/me", nil)
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, "user-1")
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.HandleMe(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandleMe_MissingContext(t *testing.T) {
	handler := NewUserHandler(&MockUserRepo{})

	req, _ := http.NewRequest(http.MethodGet, "/api/users/me", nil)

	rr := httptest.NewRecorder()
	handler.HandleMe(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusUnauthorized)
	}
}
