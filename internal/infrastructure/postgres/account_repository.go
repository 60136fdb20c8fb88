package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"finlink/internal/domain/account"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, external_id, item_id, user_id, institution_name, name, account_type, subtype,
       balance, currency, active, last_synced_at, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*account.Account, error) {
	var acc account.Account
	var subtype sql.NullString
	var lastSyncedAt sql.NullTime

	err := row.Scan(
		&acc.ID, &acc.ExternalID, &acc.ItemID, &acc.UserID, &acc.InstitutionName,
		&acc.Name, &acc.AccountType, &subtype, &acc.Balance, &acc.Currency,
		&acc.Active, &lastSyncedAt, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if subtype.Valid {
		acc.Subtype = subtype.String
	}
	if lastSyncedAt.Valid {
		t := lastSyncedAt.Time
		acc.LastSyncedAt = &t
	}
	return &acc, nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

// ListByUserID retrieves all accounts for a specific user
func (r *AccountRepository) ListByUserID(ctx context.Context, userID string) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

// ListByItemID retrieves all accounts linked through an item
func (r *AccountRepository) ListByItemID(ctx context.Context, itemID string) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE item_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, itemID)
}

func (r *AccountRepository) list(ctx context.Context, query string, arg any) ([]*account.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

// InsertIfAbsent inserts the account unless a row with the same ID
// already exists. The (false, nil) return is how concurrent syncs of
// the same item detect they lost the insert race.
func (r *AccountRepository) InsertIfAbsent(ctx context.Context, a *account.Account) (bool, error) {
	query := `
		INSERT INTO accounts (
			id, external_id, item_id, user_id, institution_name, name, account_type, subtype,
			balance, currency, active, last_synced_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := r.db.ExecContext(
		ctx, query,
		a.ID, a.ExternalID, a.ItemID, a.UserID, a.InstitutionName, a.Name,
		a.AccountType, nullString(a.Subtype), a.Balance, a.Currency, a.Active, nullTimePtr(a.LastSyncedAt),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}

// Save overwrites the stored account
func (r *AccountRepository) Save(ctx context.Context, a *account.Account) error {
	query := `
		UPDATE accounts
		SET external_id = $2, item_id = $3, user_id = $4, institution_name = $5, name = $6,
		    account_type = $7, subtype = $8, balance = $9, currency = $10, active = $11,
		    last_synced_at = $12, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx, query,
		a.ID, a.ExternalID, a.ItemID, a.UserID, a.InstitutionName, a.Name,
		a.AccountType, nullString(a.Subtype), a.Balance, a.Currency, a.Active, nullTimePtr(a.LastSyncedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return account.ErrAccountNotFound
	}
	return nil
}

// DeactivateByItemID marks every account of an item inactive
func (r *AccountRepository) DeactivateByItemID(ctx context.Context, itemID string) (int, error) {
	query := `UPDATE accounts SET active = FALSE, updated_at = CURRENT_TIMESTAMP WHERE item_id = $1 AND active`

	result, err := r.db.ExecContext(ctx, query, itemID)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate accounts: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}
