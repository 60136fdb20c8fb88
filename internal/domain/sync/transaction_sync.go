package sync

import (
	"context"
	"fmt"
	"log"
	"time"

	"finlink/internal/domain/account"
	"finlink/internal/domain/item"
	"finlink/internal/domain/transaction"
	"finlink/internal/fault"
	"finlink/internal/infrastructure/aggregator"
)

const (
	// DefaultCooldown throttles per-account syncs. Accounts stamped
	// more recently than this are skipped entirely.
	DefaultCooldown = time.Minute
	// DefaultCatchupWindow caps how far back a first-time or long-idle
	// account is backfilled.
	DefaultCatchupWindow = 2 * 365 * 24 * time.Hour
	// DefaultIncrementalWindow caps the lookback of a routine delta
	// sync.
	DefaultIncrementalWindow = 30 * 24 * time.Hour
)

// TransactionResult contains the results of a transaction
// reconciliation run
type TransactionResult struct {
	UserID           string
	ItemID           string
	AccountsEligible int
	AccountsSkipped  int
	TransactionsSeen int
	Created          int
	Updated          int
	Removed          int
	Errors           []string
}

// TransactionReconciler pulls provider transactions for an item,
// inserts the ones not seen before and mirrors provider amendments to
// the ones already stored. Both the full catch-up and the
// incremental path run through the same reconcile loop; they differ
// only in how far back the fetch window may reach.
type TransactionReconciler struct {
	client          aggregator.API
	accountRepo     account.Repository
	transactionRepo transaction.Repository

	cooldown          time.Duration
	catchupWindow     time.Duration
	incrementalWindow time.Duration
	now               func() time.Time
}

// NewTransactionReconciler creates a new transaction reconciler with
// the default windows
func NewTransactionReconciler(client aggregator.API, accountRepo account.Repository, transactionRepo transaction.Repository) *TransactionReconciler {
	return &TransactionReconciler{
		client:            client,
		accountRepo:       accountRepo,
		transactionRepo:   transactionRepo,
		cooldown:          DefaultCooldown,
		catchupWindow:     DefaultCatchupWindow,
		incrementalWindow: DefaultIncrementalWindow,
		now:               time.Now,
	}
}

// ConfigureWindows overrides the sync windows. Zero values keep the
// defaults.
func (r *TransactionReconciler) ConfigureWindows(cooldown, catchup, incremental time.Duration) {
	if cooldown > 0 {
		r.cooldown = cooldown
	}
	if catchup > 0 {
		r.catchupWindow = catchup
	}
	if incremental > 0 {
		r.incrementalWindow = incremental
	}
}

// Reconcile runs a full catch-up sync for the item, reaching back up
// to the catch-up window for accounts that were never synced.
func (r *TransactionReconciler) Reconcile(ctx context.Context, it *item.Item) (*TransactionResult, error) {
	return r.reconcile(ctx, it, r.catchupWindow)
}

// ReconcileIncremental runs a routine delta sync for the item, capped
// at the incremental window.
func (r *TransactionReconciler) ReconcileIncremental(ctx context.Context, it *item.Item) (*TransactionResult, error) {
	return r.reconcile(ctx, it, r.incrementalWindow)
}

func (r *TransactionReconciler) reconcile(ctx context.Context, it *item.Item, maxWindow time.Duration) (*TransactionResult, error) {
	if it == nil {
		return nil, fault.Invalid("item is required")
	}
	if it.AccessToken == "" {
		return nil, fault.Invalid("item %s has no access token", it.ID)
	}

	now := r.now()
	result := &TransactionResult{UserID: it.UserID, ItemID: it.ID, Errors: []string{}}

	accounts, err := r.accountRepo.ListByItemID(ctx, it.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts for item %s: %w", it.ID, err)
	}

	// Partition by cooldown and work out each account's fetch start.
	var eligible []*account.Account
	starts := make(map[string]time.Time)
	floor := now.Add(-maxWindow)
	earliest := now
	for _, a := range accounts {
		if !a.Active {
			result.AccountsSkipped++
			continue
		}
		if a.LastSyncedAt != nil && now.Sub(*a.LastSyncedAt) < r.cooldown {
			result.AccountsSkipped++
			continue
		}
		start := floor
		if a.LastSyncedAt != nil && a.LastSyncedAt.After(floor) {
			start = *a.LastSyncedAt
		}
		eligible = append(eligible, a)
		starts[a.ID] = start
		if start.Before(earliest) {
			earliest = start
		}
	}
	result.AccountsEligible = len(eligible)

	if len(eligible) == 0 {
		log.Printf("User %s: All accounts on item %s inside cooldown, nothing to do", it.UserID, it.ID)
		return result, nil
	}

	// One provider call covers every eligible account; per-account
	// windows are applied locally when filtering.
	resp, err := r.client.GetTransactions(ctx, it.AccessToken, earliest, now)
	if err != nil {
		// Stamp anyway so a flapping provider does not get hammered.
		StampSynced(ctx, r.accountRepo, eligible, now)
		return result, fmt.Errorf("failed to fetch transactions for item %s: %w", it.ID, err)
	}
	result.TransactionsSeen = len(resp.Transactions)

	byID := make(map[string]*account.Account, len(eligible))
	byExternal := make(map[string]*account.Account, len(eligible))
	for _, a := range eligible {
		byID[a.ID] = a
		byExternal[a.ExternalID] = a
	}

	for _, raw := range resp.Transactions {
		owner, ok := byExternal[raw.AccountID]
		if !ok {
			// Transaction for an account outside this run (cooldown,
			// inactive, or unknown). Not an error.
			continue
		}
		if err := r.reconcileTransaction(ctx, raw, owner, starts[owner.ID], result); err != nil {
			errMsg := fmt.Sprintf("failed to reconcile transaction %s: %v", raw.TransactionID, err)
			result.Errors = append(result.Errors, errMsg)
			log.Printf("User %s: %s", it.UserID, errMsg)
		}
	}

	StampSynced(ctx, r.accountRepo, eligible, now)

	log.Printf("User %s: Transaction reconcile complete for item %s - Seen: %d, Created: %d, Updated: %d, Skipped accounts: %d, Errors: %d",
		it.UserID, it.ID, result.TransactionsSeen, result.Created, result.Updated, result.AccountsSkipped, len(result.Errors))

	return result, nil
}

func (r *TransactionReconciler) reconcileTransaction(ctx context.Context, raw aggregator.Transaction, owner *account.Account, start time.Time, result *TransactionResult) error {
	tx, err := ToTransaction(raw, owner)
	if err != nil {
		return err
	}
	if tx.Date.Before(start.Truncate(24 * time.Hour)) {
		return nil
	}

	created, err := r.transactionRepo.InsertIfAbsent(ctx, tx)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	if created {
		result.Created++
		return nil
	}

	// The row exists, but the provider may have amended it since we
	// stored it (pending settling to posted, amount or description
	// corrections). Mirror the remote copy in place.
	existing, err := r.transactionRepo.GetByID(ctx, tx.ID)
	if err != nil {
		return fmt.Errorf("failed to load existing transaction: %w", err)
	}
	if !transactionAmended(existing, tx) {
		return nil
	}
	if err := r.transactionRepo.Save(ctx, tx); err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	result.Updated++
	return nil
}

// transactionAmended reports whether the provider's copy differs from
// the stored row on any provider-owned field.
func transactionAmended(stored, remote *transaction.Transaction) bool {
	return stored.Pending != remote.Pending ||
		!stored.Amount.Equal(remote.Amount) ||
		stored.Description != remote.Description ||
		stored.Category != remote.Category ||
		stored.Currency != remote.Currency ||
		!stored.Date.Equal(remote.Date)
}

// RemoveByExternalIDs deletes the local rows for provider-removed
// transactions. IDs that resolve to nothing, or to a row owned by a
// different user, are silently skipped.
func (r *TransactionReconciler) RemoveByExternalIDs(ctx context.Context, userID string, externalIDs []string) (*TransactionResult, error) {
	if userID == "" {
		return nil, fault.Invalid("user ID is required")
	}

	result := &TransactionResult{UserID: userID, Errors: []string{}}
	for _, extID := range externalIDs {
		tx, err := r.transactionRepo.GetByExternalID(ctx, extID)
		if err != nil {
			errMsg := fmt.Sprintf("failed to look up transaction %s: %v", extID, err)
			result.Errors = append(result.Errors, errMsg)
			log.Printf("User %s: %s", userID, errMsg)
			continue
		}
		if tx == nil || tx.UserID != userID {
			continue
		}
		if err := r.transactionRepo.Delete(ctx, tx.ID); err != nil {
			errMsg := fmt.Sprintf("failed to delete transaction %s: %v", tx.ID, err)
			result.Errors = append(result.Errors, errMsg)
			log.Printf("User %s: %s", userID, errMsg)
			continue
		}
		result.Removed++
	}

	log.Printf("User %s: Removed %d of %d provider-deleted transactions", userID, result.Removed, len(externalIDs))
	return result, nil
}
