package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"finlink/internal/domain/item"
	"finlink/internal/infrastructure/crypto"
)

// ItemRepository persists institution connections. Access tokens are
// encrypted before they touch the database and decrypted on the way out.
type ItemRepository struct {
	db        *DB
	encryptor *crypto.Encryptor
}

func NewItemRepository(db *DB, encryptor *crypto.Encryptor) *ItemRepository {
	return &ItemRepository{db: db, encryptor: encryptor}
}

const itemColumns = `id, user_id, institution_name, access_token, created_at, updated_at`

func (r *ItemRepository) scanItem(row interface{ Scan(...any) error }) (*item.Item, error) {
	var it item.Item
	err := row.Scan(&it.ID, &it.UserID, &it.InstitutionName, &it.AccessToken, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}

	token, err := r.encryptor.Decrypt(it.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	it.AccessToken = token
	return &it, nil
}

// Upsert inserts the item or refreshes its token and institution name.
// Re-linking the same institution rotates the access token, so the row
// must be replaceable in place.
func (r *ItemRepository) Upsert(ctx context.Context, it *item.Item) error {
	encrypted, err := r.encryptor.Encrypt(it.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	query := `
		INSERT INTO items (id, user_id, institution_name, access_token)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET institution_name = EXCLUDED.institution_name,
		    access_token = EXCLUDED.access_token,
		    updated_at = CURRENT_TIMESTAMP
	`

	_, err = r.db.ExecContext(ctx, query, it.ID, it.UserID, it.InstitutionName, encrypted)
	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}
	return nil
}

func (r *ItemRepository) GetByID(ctx context.Context, id string) (*item.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	it, err := r.scanItem(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, item.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return it, nil
}

func (r *ItemRepository) ListByUserID(ctx context.Context, userID string) ([]*item.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*item.Item
	for rows.Next() {
		it, err := r.scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	return items, nil
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return item.ErrNotFound
	}
	return nil
}
