package webhook

import "testing"

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		body string
		want EventKind
	}{
		{"initial update", `{"webhook_type":"TRANSACTIONS","webhook_code":"INITIAL_UPDATE","item_id":"item-1"}`, EventFullSync},
		{"historical update", `{"webhook_code":"HISTORICAL_UPDATE","item_id":"item-1"}`, EventFullSync},
		{"default update", `{"webhook_code":"DEFAULT_UPDATE","item_id":"item-1"}`, EventIncrementalSync},
		{"sync updates available", `{"webhook_code":"SYNC_UPDATES_AVAILABLE","item_id":"item-1"}`, EventIncrementalSync},
		{"transactions removed", `{"webhook_code":"TRANSACTIONS_REMOVED","item_id":"item-1","removed_transactions":["t-1","t-2"]}`, EventTransactionsRemoved},
		{"item error", `{"webhook_type":"ITEM","webhook_code":"ERROR","item_id":"item-1","error":{"error_code":"ITEM_LOGIN_REQUIRED"}}`, EventItemError},
		{"pending expiration", `{"webhook_code":"PENDING_EXPIRATION","item_id":"item-1"}`, EventPendingExpiration},
		{"permission revoked", `{"webhook_code":"USER_PERMISSION_REVOKED","item_id":"item-1"}`, EventPermissionRevoked},
		{"unknown code", `{"webhook_code":"NEW_SHINY_EVENT","item_id":"item-1"}`, EventUnknown},
		{"not json", `<xml/>`, EventUnknown},
		{"empty body", ``, EventUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Decode([]byte(tt.body))
			if ev.Kind != tt.want {
				t.Errorf("Decode() kind = %v, want %v", ev.Kind, tt.want)
			}
		})
	}
}

func TestDecodeCarriesPayload(t *testing.T) {
	ev := Decode([]byte(`{"webhook_code":"TRANSACTIONS_REMOVED","item_id":"item-7","removed_transactions":["t-1","t-2"]}`))
	if ev.ItemID != "item-7" {
		t.Errorf("ItemID = %q", ev.ItemID)
	}
	if len(ev.RemovedTransactions) != 2 {
		t.Errorf("RemovedTransactions = %v", ev.RemovedTransactions)
	}

	ev = Decode([]byte(`{"webhook_code":"ERROR","item_id":"item-7","error":{"error_code":"ITEM_LOGIN_REQUIRED"}}`))
	if ev.ErrorCode != "ITEM_LOGIN_REQUIRED" {
		t.Errorf("ErrorCode = %q", ev.ErrorCode)
	}
}
