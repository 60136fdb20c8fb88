package http

import (
	"encoding/json"
	"log"
	"net/http"

	"finlink/internal/domain/item"
	"finlink/internal/domain/sync"
	"finlink/internal/shared/middleware"
)

// SyncHandler exposes on-demand synchronization
type SyncHandler struct {
	orchestrator *sync.Orchestrator
	itemRepo     item.Repository
}

func NewSyncHandler(orchestrator *sync.Orchestrator, itemRepo item.Repository) *SyncHandler {
	return &SyncHandler{orchestrator: orchestrator, itemRepo: itemRepo}
}

type SyncResultResponse struct {
	ItemID              string `json:"itemId"`
	Skipped             bool   `json:"skipped"`
	AccountsCreated     int    `json:"accountsCreated"`
	AccountsUpdated     int    `json:"accountsUpdated"`
	TransactionsCreated int    `json:"transactionsCreated"`
	TransactionsUpdated int    `json:"transactionsUpdated"`
	TransactionsRemoved int    `json:"transactionsRemoved"`
}

// HandleSyncNow runs an incremental sync for all of the user's
// connections and reports per-item outcomes. Items already being
// synced elsewhere come back as skipped.
func (h *SyncHandler) HandleSyncNow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	results, err := h.orchestrator.SyncUser(r.Context(), userID, true)
	if err != nil {
		log.Printf("Error syncing user %s: %v", userID, err)
		http.Error(w, "Sync failed", http.StatusInternalServerError)
		return
	}

	response := make([]SyncResultResponse, 0, len(results))
	for _, res := range results {
		response = append(response, toSyncResultResponse(res))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleSyncItem runs an incremental sync for one connection
func (h *SyncHandler) HandleSyncItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	itemID := r.PathValue("id")
	if itemID == "" {
		http.Error(w, "Item ID is required", http.StatusBadRequest)
		return
	}

	it, err := h.itemRepo.GetByID(r.Context(), itemID)
	if err != nil {
		if err == item.ErrNotFound {
			http.Error(w, "Connection not found", http.StatusNotFound)
			return
		}
		log.Printf("Error getting item %s: %v", itemID, err)
		http.Error(w, "Sync failed", http.StatusInternalServerError)
		return
	}
	if it.UserID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	result, err := h.orchestrator.SyncItem(r.Context(), it, true)
	if err != nil {
		log.Printf("Error syncing item %s: %v", itemID, err)
		http.Error(w, "Sync failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toSyncResultResponse(result))
}

func toSyncResultResponse(res *sync.Result) SyncResultResponse {
	out := SyncResultResponse{
		ItemID:  res.ItemID,
		Skipped: res.Skipped,
	}
	if res.Accounts != nil {
		out.AccountsCreated = res.Accounts.Created
		out.AccountsUpdated = res.Accounts.Updated
	}
	if res.Transactions != nil {
		out.TransactionsCreated = res.Transactions.Created
		out.TransactionsUpdated = res.Transactions.Updated
		out.TransactionsRemoved = res.Transactions.Removed
	}
	return out
}
