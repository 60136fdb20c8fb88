// Package webhook ingests provider webhook deliveries. Everything in
// here is deliberately forgiving: webhooks are advisory hints, so any
// malformed or unverifiable delivery degrades to a no-op instead of
// an error the provider would retry forever.
package webhook

import "encoding/json"

// EventKind is the closed set of webhook events the ingestor acts on
type EventKind int

const (
	EventUnknown EventKind = iota
	EventFullSync
	EventIncrementalSync
	EventTransactionsRemoved
	EventItemError
	EventPendingExpiration
	EventPermissionRevoked
)

func (k EventKind) String() string {
	switch k {
	case EventFullSync:
		return "full_sync"
	case EventIncrementalSync:
		return "incremental_sync"
	case EventTransactionsRemoved:
		return "transactions_removed"
	case EventItemError:
		return "item_error"
	case EventPendingExpiration:
		return "pending_expiration"
	case EventPermissionRevoked:
		return "permission_revoked"
	default:
		return "unknown"
	}
}

// Event is one decoded webhook delivery
type Event struct {
	Kind                EventKind
	ItemID              string
	Code                string
	RemovedTransactions []string
	ErrorCode           string
}

type payload struct {
	WebhookType         string   `json:"webhook_type"`
	WebhookCode         string   `json:"webhook_code"`
	ItemID              string   `json:"item_id"`
	RemovedTransactions []string `json:"removed_transactions"`
	Error               *struct {
		ErrorCode string `json:"error_code"`
	} `json:"error"`
}

// Decode parses a webhook body and classifies it. A body that fails
// to parse, or carries a code we do not recognize, comes back as
// EventUnknown with a nil error; the caller drops it.
func Decode(body []byte) Event {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return Event{Kind: EventUnknown}
	}

	ev := Event{
		ItemID:              p.ItemID,
		Code:                p.WebhookCode,
		RemovedTransactions: p.RemovedTransactions,
	}
	if p.Error != nil {
		ev.ErrorCode = p.Error.ErrorCode
	}

	switch p.WebhookCode {
	case "INITIAL_UPDATE", "HISTORICAL_UPDATE":
		ev.Kind = EventFullSync
	case "DEFAULT_UPDATE", "TRANSACTIONS_UPDATED", "SYNC_UPDATES_AVAILABLE":
		ev.Kind = EventIncrementalSync
	case "TRANSACTIONS_REMOVED":
		ev.Kind = EventTransactionsRemoved
	case "ERROR":
		ev.Kind = EventItemError
	case "PENDING_EXPIRATION":
		ev.Kind = EventPendingExpiration
	case "USER_PERMISSION_REVOKED":
		ev.Kind = EventPermissionRevoked
	default:
		ev.Kind = EventUnknown
	}
	return ev
}
