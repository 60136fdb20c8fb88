package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"finlink/internal/domain/account"
	"finlink/internal/shared/middleware"
)

type AccountHandler struct {
	accountService *account.Service
}

func NewAccountHandler(accountService *account.Service) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// AccountResponse is the client-facing account shape
type AccountResponse struct {
	ID              string          `json:"id"`
	ItemID          string          `json:"itemId"`
	InstitutionName string          `json:"institutionName"`
	Name            string          `json:"name"`
	AccountType     string          `json:"accountType"`
	Subtype         string          `json:"subtype,omitempty"`
	Balance         decimal.Decimal `json:"balance"`
	Currency        string          `json:"currency"`
	Active          bool            `json:"active"`
	LastSyncedAt    *string         `json:"lastSyncedAt"`
	CreatedAt       string          `json:"createdAt"`
	UpdatedAt       string          `json:"updatedAt"`
}

// HandleListAccounts returns accounts for the authenticated user.
// ?active=true filters out deactivated connections.
func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var (
		accounts []*account.Account
		err      error
	)
	if r.URL.Query().Get("active") == "true" {
		accounts, err = h.accountService.ListActiveAccountsByUserID(r.Context(), userID)
	} else {
		accounts, err = h.accountService.ListAccountsByUserID(r.Context(), userID)
	}
	if err != nil {
		log.Printf("Error listing accounts for user %s: %v", userID, err)
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}

	response := make([]AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		response = append(response, toAccountResponse(acc))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleGetAccount returns a specific account owned by the user
func (h *AccountHandler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accountID := r.PathValue("id")
	if accountID == "" {
		http.Error(w, "Account ID is required", http.StatusBadRequest)
		return
	}

	acc, err := h.accountService.GetAccount(r.Context(), accountID, userID)
	if err != nil {
		switch err {
		case account.ErrAccountNotFound:
			http.Error(w, "Account not found", http.StatusNotFound)
		case account.ErrForbidden:
			http.Error(w, "Forbidden", http.StatusForbidden)
		default:
			log.Printf("Error getting account %s: %v", accountID, err)
			http.Error(w, "Failed to get account", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toAccountResponse(acc))
}

func toAccountResponse(acc *account.Account) AccountResponse {
	var lastSynced *string
	if acc.LastSyncedAt != nil {
		formatted := acc.LastSyncedAt.Format(time.RFC3339)
		lastSynced = &formatted
	}

	return AccountResponse{
		ID:              acc.ID,
		ItemID:          acc.ItemID,
		InstitutionName: acc.InstitutionName,
		Name:            acc.Name,
		AccountType:     acc.AccountType,
		Subtype:         acc.Subtype,
		Balance:         acc.Balance,
		Currency:        acc.Currency,
		Active:          acc.Active,
		LastSyncedAt:    lastSynced,
		CreatedAt:       acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       acc.UpdatedAt.Format(time.RFC3339),
	}
}
