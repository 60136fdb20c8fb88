package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"finlink/internal/domain/item"
	"finlink/internal/domain/sync"
	"finlink/internal/infrastructure/aggregator"
	"finlink/internal/shared/middleware"
)

const backgroundSyncTimeout = 10 * time.Minute

// LinkHandler drives the institution link flow: issue a link token,
// exchange the resulting public token for a connection, and unlink.
type LinkHandler struct {
	client       aggregator.API
	itemRepo     item.Repository
	orchestrator *sync.Orchestrator
	lifecycle    *sync.Lifecycle
}

func NewLinkHandler(client aggregator.API, itemRepo item.Repository, orchestrator *sync.Orchestrator, lifecycle *sync.Lifecycle) *LinkHandler {
	return &LinkHandler{
		client:       client,
		itemRepo:     itemRepo,
		orchestrator: orchestrator,
		lifecycle:    lifecycle,
	}
}

type LinkTokenResponse struct {
	LinkToken  string `json:"linkToken"`
	Expiration string `json:"expiration"`
}

type ExchangeRequest struct {
	PublicToken     string `json:"publicToken"`
	InstitutionName string `json:"institutionName"`
}

type ItemResponse struct {
	ID              string `json:"id"`
	InstitutionName string `json:"institutionName"`
	CreatedAt       string `json:"createdAt"`
}

// HandleCreateLinkToken issues a short-lived token for the client's
// link flow
func (h *LinkHandler) HandleCreateLinkToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	resp, err := h.client.CreateLinkToken(r.Context(), userID)
	if err != nil {
		log.Printf("Error creating link token for user %s: %v", userID, err)
		http.Error(w, "Failed to create link token", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LinkTokenResponse{
		LinkToken:  resp.LinkToken,
		Expiration: resp.Expiration,
	})
}

// HandleExchange trades the public token for a long-lived connection,
// persists it, and kicks off the initial full sync in the background.
func (h *LinkHandler) HandleExchange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PublicToken == "" {
		http.Error(w, "publicToken is required", http.StatusBadRequest)
		return
	}

	resp, err := h.client.ExchangePublicToken(r.Context(), req.PublicToken)
	if err != nil {
		log.Printf("Error exchanging public token for user %s: %v", userID, err)
		http.Error(w, "Failed to exchange token", http.StatusBadGateway)
		return
	}

	it := &item.Item{
		ID:              resp.ItemID,
		UserID:          userID,
		InstitutionName: req.InstitutionName,
		AccessToken:     resp.AccessToken,
	}
	if err := h.itemRepo.Upsert(r.Context(), it); err != nil {
		log.Printf("Error persisting item %s for user %s: %v", it.ID, userID, err)
		http.Error(w, "Failed to save connection", http.StatusInternalServerError)
		return
	}

	// Initial catch-up sync runs in the background; the client polls
	// accounts while it fills in.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundSyncTimeout)
		defer cancel()
		if _, err := h.orchestrator.SyncItem(ctx, it, false); err != nil {
			log.Printf("Initial sync failed for item %s: %v", it.ID, err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ItemResponse{
		ID:              it.ID,
		InstitutionName: it.InstitutionName,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleListItems returns the user's institution connections
func (h *LinkHandler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	items, err := h.itemRepo.ListByUserID(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing items for user %s: %v", userID, err)
		http.Error(w, "Failed to list connections", http.StatusInternalServerError)
		return
	}

	response := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		response = append(response, ItemResponse{
			ID:              it.ID,
			InstitutionName: it.InstitutionName,
			CreatedAt:       it.CreatedAt.Format(time.RFC3339),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleUnlink severs a connection: revokes provider access,
// deactivates its accounts, and deletes the item.
func (h *LinkHandler) HandleUnlink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
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
		http.Error(w, "Failed to unlink", http.StatusInternalServerError)
		return
	}
	if it.UserID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if err := h.lifecycle.Unlink(r.Context(), it); err != nil {
		log.Printf("Error unlinking item %s: %v", itemID, err)
		http.Error(w, "Failed to unlink", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
