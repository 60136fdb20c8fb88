package webhook

import (
	"context"
	"log"

	"finlink/internal/domain/item"
	"finlink/internal/domain/sync"
)

// Notifier surfaces webhook-driven events to the user. Delivery is
// best effort.
type Notifier interface {
	ItemError(ctx context.Context, userID, institutionName, errorCode string)
	PendingExpiration(ctx context.Context, userID, institutionName string)
	PermissionRevoked(ctx context.Context, userID, institutionName string)
}

// Syncer is the slice of the orchestrator the ingestor drives
type Syncer interface {
	SyncItem(ctx context.Context, it *item.Item, incremental bool) (*sync.Result, error)
}

// Remover deletes provider-removed transactions
type Remover interface {
	RemoveByExternalIDs(ctx context.Context, userID string, externalIDs []string) (*sync.TransactionResult, error)
}

// Deactivator shuts down an item whose credentials died
type Deactivator interface {
	DeactivateItem(ctx context.Context, it *item.Item, reason string) error
}

// Ingestor turns verified webhook events into sync work. Every
// failure path logs and returns; a webhook is never worth a 5xx back
// to the provider.
type Ingestor struct {
	itemRepo    item.Repository
	syncer      Syncer
	remover     Remover
	deactivator Deactivator
	notifier    Notifier
}

// NewIngestor creates a new webhook ingestor
func NewIngestor(itemRepo item.Repository, syncer Syncer, remover Remover, deactivator Deactivator, notifier Notifier) *Ingestor {
	return &Ingestor{
		itemRepo:    itemRepo,
		syncer:      syncer,
		remover:     remover,
		deactivator: deactivator,
		notifier:    notifier,
	}
}

// Process handles one decoded event. It runs off the request
// goroutine, so it reports nothing to the HTTP layer.
func (i *Ingestor) Process(ctx context.Context, ev Event) {
	if ev.Kind == EventUnknown {
		log.Printf("Webhook: Dropping unrecognized event code %q for item %s", ev.Code, ev.ItemID)
		return
	}
	if ev.ItemID == "" {
		log.Printf("Webhook: Dropping %s event with no item ID", ev.Kind)
		return
	}

	it, err := i.itemRepo.GetByID(ctx, ev.ItemID)
	if err != nil || it == nil {
		// Unknown items happen routinely: webhooks for freshly
		// unlinked connections keep arriving for a while.
		log.Printf("Webhook: No local item for %s (%s event), ignoring", ev.ItemID, ev.Kind)
		return
	}

	log.Printf("Webhook: %s event for item %s (user %s)", ev.Kind, it.ID, it.UserID)

	switch ev.Kind {
	case EventFullSync:
		if _, err := i.syncer.SyncItem(ctx, it, false); err != nil {
			log.Printf("Webhook: Full sync failed for item %s: %v", it.ID, err)
		}
	case EventIncrementalSync:
		if _, err := i.syncer.SyncItem(ctx, it, true); err != nil {
			log.Printf("Webhook: Incremental sync failed for item %s: %v", it.ID, err)
		}
	case EventTransactionsRemoved:
		if len(ev.RemovedTransactions) == 0 {
			return
		}
		if _, err := i.remover.RemoveByExternalIDs(ctx, it.UserID, ev.RemovedTransactions); err != nil {
			log.Printf("Webhook: Removal failed for item %s: %v", it.ID, err)
		}
	case EventItemError:
		if err := i.deactivator.DeactivateItem(ctx, it, ev.ErrorCode); err != nil {
			log.Printf("Webhook: Deactivation failed for item %s: %v", it.ID, err)
		}
		if i.notifier != nil {
			i.notifier.ItemError(ctx, it.UserID, it.InstitutionName, ev.ErrorCode)
		}
	case EventPendingExpiration:
		if i.notifier != nil {
			i.notifier.PendingExpiration(ctx, it.UserID, it.InstitutionName)
		}
	case EventPermissionRevoked:
		if err := i.deactivator.DeactivateItem(ctx, it, "permission_revoked"); err != nil {
			log.Printf("Webhook: Deactivation failed for item %s: %v", it.ID, err)
		}
		if i.notifier != nil {
			i.notifier.PermissionRevoked(ctx, it.UserID, it.InstitutionName)
		}
	}
}
