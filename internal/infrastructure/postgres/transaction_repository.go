package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"finlink/internal/domain/transaction"
)

// TransactionRepository implements the transaction.Repository
// interface for PostgreSQL
type TransactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, external_id, account_id, user_id, amount, description, category,
       currency, date, pending, created_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (*transaction.Transaction, error) {
	var tx transaction.Transaction
	var category sql.NullString

	err := row.Scan(
		&tx.ID, &tx.ExternalID, &tx.AccountID, &tx.UserID, &tx.Amount,
		&tx.Description, &category, &tx.Currency, &tx.Date, &tx.Pending,
		&tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if category.Valid {
		tx.Category = category.String
	}
	return &tx, nil
}

// GetByID retrieves a transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, transaction.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// GetByExternalID retrieves a transaction by the provider's ID.
// Intentionally returns (nil, nil) when no row matches.
func (r *TransactionRepository) GetByExternalID(ctx context.Context, externalID string) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE external_id = $1`

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, externalID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction by external id: %w", err)
	}
	return tx, nil
}

// ListByAccountID retrieves transactions for an account, newest first
func (r *TransactionRepository) ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions WHERE account_id = $1
		ORDER BY date DESC, id LIMIT $2 OFFSET $3`
	return r.list(ctx, query, accountID, limit, offset)
}

// ListByUserID retrieves transactions for a user, newest first
func (r *TransactionRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions WHERE user_id = $1
		ORDER BY date DESC, id LIMIT $2 OFFSET $3`
	return r.list(ctx, query, userID, limit, offset)
}

func (r *TransactionRepository) list(ctx context.Context, query string, args ...any) ([]*transaction.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*transaction.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

// CountByUserID returns the number of transactions a user has
func (r *TransactionRepository) CountByUserID(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// InsertIfAbsent inserts the transaction unless a row with the same
// ID already exists
func (r *TransactionRepository) InsertIfAbsent(ctx context.Context, tx *transaction.Transaction) (bool, error) {
	query := `
		INSERT INTO transactions (
			id, external_id, account_id, user_id, amount, description, category,
			currency, date, pending
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := r.db.ExecContext(
		ctx, query,
		tx.ID, tx.ExternalID, tx.AccountID, tx.UserID, tx.Amount,
		tx.Description, nullString(tx.Category), tx.Currency, tx.Date, tx.Pending,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert transaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}

// Save overwrites the stored transaction
func (r *TransactionRepository) Save(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		UPDATE transactions
		SET amount = $2, description = $3, category = $4, currency = $5, date = $6,
		    pending = $7, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx, query,
		tx.ID, tx.Amount, tx.Description, nullString(tx.Category), tx.Currency, tx.Date, tx.Pending,
	)
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return transaction.ErrTransactionNotFound
	}
	return nil
}

// Delete removes a transaction
func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return transaction.ErrTransactionNotFound
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
