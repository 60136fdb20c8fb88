package sync

import (
	"context"
	"fmt"
	"log"
	"time"

	"finlink/internal/domain/account"
	"finlink/internal/domain/item"
	"finlink/internal/fault"
	"finlink/internal/infrastructure/aggregator"
)

// AccountResult contains the results of an account reconciliation run
type AccountResult struct {
	UserID        string
	ItemID        string
	AccountsFound int
	Created       int
	Updated       int
	Reactivated   int
	Errors        []string
}

// AccountReconciler folds the provider's current account list for one
// item into local storage.
type AccountReconciler struct {
	client      aggregator.API
	accountRepo account.Repository
}

// NewAccountReconciler creates a new account reconciler
func NewAccountReconciler(client aggregator.API, accountRepo account.Repository) *AccountReconciler {
	return &AccountReconciler{
		client:      client,
		accountRepo: accountRepo,
	}
}

// Reconcile fetches the account list for the item and upserts each
// account. A fetch failure aborts the whole item with the classified
// error; per-account storage failures are collected and the rest of
// the list still lands.
func (r *AccountReconciler) Reconcile(ctx context.Context, it *item.Item) (*AccountResult, error) {
	if it == nil {
		return nil, fault.Invalid("item is required")
	}
	if it.AccessToken == "" {
		return nil, fault.Invalid("item %s has no access token", it.ID)
	}

	resp, err := r.client.GetAccounts(ctx, it.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts for item %s: %w", it.ID, err)
	}

	result := &AccountResult{
		UserID:        it.UserID,
		ItemID:        it.ID,
		AccountsFound: len(resp.Accounts),
		Errors:        []string{},
	}

	log.Printf("User %s: Reconciling %d accounts for item %s", it.UserID, result.AccountsFound, it.ID)

	// One batch load up front so each account needs no existence query.
	existing, err := r.accountRepo.ListByUserID(ctx, it.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load local accounts: %w", err)
	}
	local := make(map[string]*account.Account, len(existing))
	for _, a := range existing {
		local[a.ID] = a
	}

	for _, raw := range resp.Accounts {
		if err := r.reconcileAccount(ctx, it, raw, local, result); err != nil {
			errMsg := fmt.Sprintf("failed to reconcile account %s: %v", raw.AccountID, err)
			result.Errors = append(result.Errors, errMsg)
			log.Printf("User %s: %s", it.UserID, errMsg)
		}
	}

	log.Printf("User %s: Account reconcile complete for item %s - Created: %d, Updated: %d, Reactivated: %d, Errors: %d",
		it.UserID, it.ID, result.Created, result.Updated, result.Reactivated, len(result.Errors))

	return result, nil
}

func (r *AccountReconciler) reconcileAccount(ctx context.Context, it *item.Item, raw aggregator.Account, local map[string]*account.Account, result *AccountResult) error {
	incoming, err := ToAccount(raw, it)
	if err != nil {
		return err
	}

	prev, known := local[incoming.ID]
	if !known {
		created, err := r.accountRepo.InsertIfAbsent(ctx, incoming)
		if err != nil {
			return fmt.Errorf("failed to insert account: %w", err)
		}
		if created {
			local[incoming.ID] = incoming
			result.Created++
			log.Printf("User %s: Created account %s (%s)", it.UserID, incoming.Name, incoming.ID)
			return nil
		}
		// Lost a race with a concurrent sync. Fall through to the
		// update path with the now-existing row.
		prev, err = r.accountRepo.GetByID(ctx, incoming.ID)
		if err != nil {
			return fmt.Errorf("failed to reload account after insert race: %w", err)
		}
	}

	if !prev.Active {
		result.Reactivated++
		log.Printf("User %s: Reactivating account %s (%s)", it.UserID, incoming.Name, incoming.ID)
	}

	incoming.CreatedAt = prev.CreatedAt
	incoming.LastSyncedAt = prev.LastSyncedAt
	if err := r.accountRepo.Save(ctx, incoming); err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	local[incoming.ID] = incoming
	result.Updated++
	return nil
}

// StampSynced records t as the last sync time for the given accounts.
// It is called on success and on failure alike so the cooldown window
// also throttles repeatedly failing items.
func StampSynced(ctx context.Context, repo account.Repository, accounts []*account.Account, t time.Time) {
	for _, a := range accounts {
		a.LastSyncedAt = &t
		if err := repo.Save(ctx, a); err != nil {
			log.Printf("User %s: Failed to stamp sync time on account %s: %v", a.UserID, a.ID, err)
		}
	}
}
