package transaction

import "context"

// Repository defines the interface for transaction data access
type Repository interface {
	GetByID(ctx context.Context, id string) (*Transaction, error)
	// GetByExternalID returns (nil, nil) when no transaction matches.
	GetByExternalID(ctx context.Context, externalID string) (*Transaction, error)
	ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*Transaction, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*Transaction, error)
	CountByUserID(ctx context.Context, userID string) (int64, error)
	// InsertIfAbsent inserts the transaction and reports whether a row
	// was created. A false return with a nil error means a transaction
	// with the same ID already exists.
	InsertIfAbsent(ctx context.Context, tx *Transaction) (bool, error)
	Save(ctx context.Context, tx *Transaction) error
	Delete(ctx context.Context, id string) error
}
