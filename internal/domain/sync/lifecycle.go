package sync

import (
	"context"
	"fmt"
	"log"

	"finlink/internal/domain/account"
	"finlink/internal/domain/item"
	"finlink/internal/fault"
	"finlink/internal/infrastructure/aggregator"
)

// Notifier receives lifecycle events worth surfacing to the user.
// Delivery failures never fail the operation that triggered them.
type Notifier interface {
	ItemDeactivated(ctx context.Context, userID, institutionName, reason string)
}

// Lifecycle owns item state transitions outside the sync hot path:
// deactivation on dead credentials and user-requested unlinking.
type Lifecycle struct {
	client      aggregator.API
	itemRepo    item.Repository
	accountRepo account.Repository
	notifier    Notifier
}

var _ ItemDeactivator = (*Lifecycle)(nil)

// NewLifecycle creates a new item lifecycle service
func NewLifecycle(client aggregator.API, itemRepo item.Repository, accountRepo account.Repository, notifier Notifier) *Lifecycle {
	return &Lifecycle{
		client:      client,
		itemRepo:    itemRepo,
		accountRepo: accountRepo,
		notifier:    notifier,
	}
}

// DeactivateItem marks every account of the item inactive. Accounts
// are never deleted on deactivation; history stays queryable and a
// relink flips them back to active.
func (l *Lifecycle) DeactivateItem(ctx context.Context, it *item.Item, reason string) error {
	if it == nil {
		return fault.Invalid("item is required")
	}

	n, err := l.accountRepo.DeactivateByItemID(ctx, it.ID)
	if err != nil {
		return fmt.Errorf("failed to deactivate accounts for item %s: %w", it.ID, err)
	}
	log.Printf("User %s: Deactivated %d accounts on item %s (%s)", it.UserID, n, it.ID, reason)

	if l.notifier != nil {
		l.notifier.ItemDeactivated(ctx, it.UserID, it.InstitutionName, reason)
	}
	return nil
}

// Unlink revokes the item at the provider, deactivates its accounts,
// and deletes the item row. A provider revoke failure still unlinks
// locally; the token is already unusable from the user's side.
func (l *Lifecycle) Unlink(ctx context.Context, it *item.Item) error {
	if it == nil {
		return fault.Invalid("item is required")
	}

	if err := l.client.RemoveItem(ctx, it.AccessToken); err != nil {
		log.Printf("User %s: Provider revoke failed for item %s: %v", it.UserID, it.ID, err)
	}

	if _, err := l.accountRepo.DeactivateByItemID(ctx, it.ID); err != nil {
		return fmt.Errorf("failed to deactivate accounts for item %s: %w", it.ID, err)
	}
	if err := l.itemRepo.Delete(ctx, it.ID); err != nil {
		return fmt.Errorf("failed to delete item %s: %w", it.ID, err)
	}
	log.Printf("User %s: Unlinked item %s (%s)", it.UserID, it.ID, it.InstitutionName)
	return nil
}
