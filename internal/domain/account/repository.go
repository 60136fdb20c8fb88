package account

import "context"

// Repository defines the interface for account data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// GetByID retrieves an account by its ID
	GetByID(ctx context.Context, id string) (*Account, error)

	// ListByUserID retrieves all accounts for a specific user
	ListByUserID(ctx context.Context, userID string) ([]*Account, error)

	// ListByItemID retrieves all accounts linked through an item
	ListByItemID(ctx context.Context, itemID string) ([]*Account, error)

	// InsertIfAbsent inserts the account and reports whether a row was
	// created. A false return with a nil error means an account with
	// the same ID already exists.
	InsertIfAbsent(ctx context.Context, a *Account) (bool, error)

	// Save overwrites the stored account
	Save(ctx context.Context, a *Account) error

	// DeactivateByItemID marks every account of an item inactive and
	// returns the number of rows changed
	DeactivateByItemID(ctx context.Context, itemID string) (int, error)
}
