package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"finlink/internal/domain/account"
	"finlink/internal/domain/transaction"
	"finlink/internal/shared/middleware"
)

type TransactionHandler struct {
	transactionRepo transaction.Repository
	accountRepo     account.Repository
}

func NewTransactionHandler(transactionRepo transaction.Repository, accountRepo account.Repository) *TransactionHandler {
	return &TransactionHandler{
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
	}
}

// TransactionResponse is the client-facing transaction shape
type TransactionResponse struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"accountId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Currency    string          `json:"currency"`
	Date        string          `json:"date"`
	Pending     bool            `json:"pending"`
}

type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Total        int64                 `json:"total"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

// HandleListTransactions returns transactions for the user, newest
// first. Scope to one account with ?accountId=.
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit, offset := parsePagination(r)

	var (
		transactions []*transaction.Transaction
		err          error
	)

	accountID := r.URL.Query().Get("accountId")
	if accountID != "" {
		// Verify account ownership before scoping to it
		acc, err := h.accountRepo.GetByID(r.Context(), accountID)
		if err != nil {
			http.Error(w, "Account not found", http.StatusNotFound)
			return
		}
		if acc.UserID != userID {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		transactions, err = h.transactionRepo.ListByAccountID(r.Context(), accountID, limit, offset)
		if err != nil {
			log.Printf("Error listing transactions for account %s: %v", accountID, err)
			http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
			return
		}
	} else {
		transactions, err = h.transactionRepo.ListByUserID(r.Context(), userID, limit, offset)
		if err != nil {
			log.Printf("Error listing transactions for user %s: %v", userID, err)
			http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
			return
		}
	}

	total, err := h.transactionRepo.CountByUserID(r.Context(), userID)
	if err != nil {
		log.Printf("Error counting transactions for user %s: %v", userID, err)
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}

	response := TransactionListResponse{
		Transactions: make([]TransactionResponse, 0, len(transactions)),
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	}
	for _, tx := range transactions {
		response.Transactions = append(response.Transactions, toTransactionResponse(tx))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleGetTransaction returns a specific transaction owned by the user
func (h *TransactionHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	transactionID := r.PathValue("id")
	if transactionID == "" {
		http.Error(w, "Transaction ID is required", http.StatusBadRequest)
		return
	}

	tx, err := h.transactionRepo.GetByID(r.Context(), transactionID)
	if err != nil {
		if err == transaction.ErrTransactionNotFound {
			http.Error(w, "Transaction not found", http.StatusNotFound)
			return
		}
		log.Printf("Error getting transaction %s: %v", transactionID, err)
		http.Error(w, "Failed to get transaction", http.StatusInternalServerError)
		return
	}

	if tx.UserID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTransactionResponse(tx))
}

func toTransactionResponse(tx *transaction.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          tx.ID,
		AccountID:   tx.AccountID,
		Amount:      tx.Amount,
		Description: tx.Description,
		Category:    tx.Category,
		Currency:    tx.Currency,
		Date:        tx.Date.Format("2006-01-02"),
		Pending:     tx.Pending,
	}
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
