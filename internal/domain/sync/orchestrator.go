package sync

import (
	"context"
	"fmt"
	"log"
	"time"

	"finlink/internal/domain/item"
	"finlink/internal/fault"
)

const lockTTL = 5 * time.Minute

// Locker serializes sync runs across processes. Acquire returns a
// release token and whether the lock was won; a lost acquisition is
// not an error.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

// ItemDeactivator is the slice of the item lifecycle the orchestrator
// needs when credentials die mid-sync.
type ItemDeactivator interface {
	DeactivateItem(ctx context.Context, it *item.Item, reason string) error
}

// Result aggregates one orchestrated run over an item
type Result struct {
	ItemID       string
	UserID       string
	Skipped      bool
	Accounts     *AccountResult
	Transactions *TransactionResult
}

// Orchestrator runs the account pass and then the transaction pass
// for an item under a per-item distributed lock.
type Orchestrator struct {
	accounts     *AccountReconciler
	transactions *TransactionReconciler
	itemRepo     item.Repository
	locker       Locker
	deactivator  ItemDeactivator
}

// NewOrchestrator creates a new sync orchestrator
func NewOrchestrator(accounts *AccountReconciler, transactions *TransactionReconciler, itemRepo item.Repository, locker Locker, deactivator ItemDeactivator) *Orchestrator {
	return &Orchestrator{
		accounts:     accounts,
		transactions: transactions,
		itemRepo:     itemRepo,
		locker:       locker,
		deactivator:  deactivator,
	}
}

// SyncItem runs a full sync for one item. If another process holds
// the item's lock the run is skipped, not failed. Terminal provider
// errors deactivate the item before returning.
func (o *Orchestrator) SyncItem(ctx context.Context, it *item.Item, incremental bool) (*Result, error) {
	if it == nil {
		return nil, fault.Invalid("item is required")
	}

	result := &Result{ItemID: it.ID, UserID: it.UserID}

	lockKey := "sync:item:" + it.ID
	token, ok, err := o.locker.Acquire(ctx, lockKey, lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire sync lock for item %s: %w", it.ID, err)
	}
	if !ok {
		log.Printf("User %s: Item %s already syncing elsewhere, skipping", it.UserID, it.ID)
		result.Skipped = true
		return result, nil
	}
	defer func() {
		if err := o.locker.Release(ctx, lockKey, token); err != nil {
			log.Printf("User %s: Failed to release sync lock for item %s: %v", it.UserID, it.ID, err)
		}
	}()

	accountResult, err := o.accounts.Reconcile(ctx, it)
	if err != nil {
		return result, o.handleSyncError(ctx, it, err)
	}
	result.Accounts = accountResult

	var txResult *TransactionResult
	if incremental {
		txResult, err = o.transactions.ReconcileIncremental(ctx, it)
	} else {
		txResult, err = o.transactions.Reconcile(ctx, it)
	}
	result.Transactions = txResult
	if err != nil {
		return result, o.handleSyncError(ctx, it, err)
	}

	return result, nil
}

// SyncUser syncs every item the user has linked. Items fail
// independently; one dead item does not stop the rest.
func (o *Orchestrator) SyncUser(ctx context.Context, userID string, incremental bool) ([]*Result, error) {
	if userID == "" {
		return nil, fault.Invalid("user ID is required")
	}

	items, err := o.itemRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items for user %s: %w", userID, err)
	}

	results := make([]*Result, 0, len(items))
	for _, it := range items {
		res, err := o.SyncItem(ctx, it, incremental)
		if err != nil {
			log.Printf("User %s: Sync failed for item %s: %v", userID, it.ID, err)
		}
		if res != nil {
			results = append(results, res)
		}
	}
	return results, nil
}

// handleSyncError deactivates the item on terminal provider errors so
// dead credentials stop burning sync cycles.
func (o *Orchestrator) handleSyncError(ctx context.Context, it *item.Item, err error) error {
	if !fault.IsTerminal(err) || o.deactivator == nil {
		return err
	}
	reason := fault.KindOf(err)
	log.Printf("User %s: Terminal sync error on item %s (%s), deactivating", it.UserID, it.ID, reason)
	if dErr := o.deactivator.DeactivateItem(ctx, it, reason); dErr != nil {
		log.Printf("User %s: Failed to deactivate item %s: %v", it.UserID, it.ID, dErr)
	}
	return err
}
