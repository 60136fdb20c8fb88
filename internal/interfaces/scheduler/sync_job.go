package scheduler

import (
	"context"
	"fmt"
	"log"

	"finlink/internal/domain/sync"
)

// UserSyncer is the slice of the sync orchestrator the scheduler drives
type UserSyncer interface {
	SyncUser(ctx context.Context, userID string, incremental bool) ([]*sync.Result, error)
}

// SyncNotifier pushes a silent refresh hint after a successful run.
// Delivery is best effort.
type SyncNotifier interface {
	SyncCompleted(ctx context.Context, userID string)
}

// UserSyncJob implements the Job interface for syncing one user's
// linked connections. Scheduled runs are incremental; the catch-up
// window covers anything a missed webhook left behind.
type UserSyncJob struct {
	userID   string
	syncer   UserSyncer
	notifier SyncNotifier
}

// NewUserSyncJob creates a new sync job for a user
func NewUserSyncJob(userID string, syncer UserSyncer, notifier SyncNotifier) *UserSyncJob {
	return &UserSyncJob{
		userID:   userID,
		syncer:   syncer,
		notifier: notifier,
	}
}

// Execute runs an incremental sync across all of the user's items
func (j *UserSyncJob) Execute(ctx context.Context) error {
	log.Printf("Starting scheduled sync for user %s", j.userID)

	results, err := j.syncer.SyncUser(ctx, j.userID, true)
	if err != nil {
		log.Printf("Scheduled sync failed for user %s: %v", j.userID, err)
		return fmt.Errorf("sync failed: %w", err)
	}

	var synced, skipped, accountsChanged, txChanged int
	for _, res := range results {
		if res.Skipped {
			skipped++
			continue
		}
		synced++
		if res.Accounts != nil {
			accountsChanged += res.Accounts.Created + res.Accounts.Updated
		}
		if res.Transactions != nil {
			txChanged += res.Transactions.Created + res.Transactions.Updated + res.Transactions.Removed
		}
	}

	log.Printf("Scheduled sync for user %s completed: Items=%d, Skipped=%d, AccountChanges=%d, TransactionChanges=%d",
		j.userID, synced, skipped, accountsChanged, txChanged)

	if j.notifier != nil && synced > 0 {
		j.notifier.SyncCompleted(ctx, j.userID)
	}

	return nil
}

// UserID returns the user ID associated with this job
func (j *UserSyncJob) UserID() string {
	return j.userID
}

// Description returns a human-readable description of the job
func (j *UserSyncJob) Description() string {
	return fmt.Sprintf("Connection sync for user %s", j.userID)
}
