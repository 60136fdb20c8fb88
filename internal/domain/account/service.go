package account

import (
	"context"
	"errors"
)

// Service contains the business logic for account operations
type Service struct {
	repo Repository
}

// NewService creates a new account service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetAccount retrieves an account by ID and verifies user ownership
func (s *Service) GetAccount(ctx context.Context, accountID, userID string) (*Account, error) {
	acct, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	// Business rule: verify ownership
	if acct.UserID != userID {
		return nil, ErrForbidden
	}

	return acct, nil
}

// ListAccountsByUserID retrieves all accounts for a specific user
func (s *Service) ListAccountsByUserID(ctx context.Context, userID string) ([]*Account, error) {
	if userID == "" {
		return nil, errors.New("valid user ID is required")
	}

	return s.repo.ListByUserID(ctx, userID)
}

// ListActiveAccountsByUserID retrieves only the active accounts for a user
func (s *Service) ListActiveAccountsByUserID(ctx context.Context, userID string) ([]*Account, error) {
	accounts, err := s.ListAccountsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	active := accounts[:0]
	for _, a := range accounts {
		if a.Active {
			active = append(active, a)
		}
	}
	return active, nil
}
