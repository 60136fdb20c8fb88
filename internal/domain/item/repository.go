package item

import "context"

// Repository defines the interface for item data access. The access
// token is encrypted at rest by the implementation.
type Repository interface {
	Upsert(ctx context.Context, it *Item) error
	GetByID(ctx context.Context, id string) (*Item, error)
	ListByUserID(ctx context.Context, userID string) ([]*Item, error)
	Delete(ctx context.Context, id string) error
}
