package postgres

import (
	"context"
	"fmt"
	"time"

	"finlink/internal/identity"
)

// SyncLock is a lease-based distributed lock backed by a sync_locks
// table. Expired leases are stolen on acquisition rather than reaped
// by a background job, so a crashed holder only blocks until its TTL
// runs out.
type SyncLock struct {
	db *DB
}

func NewSyncLock(db *DB) *SyncLock {
	return &SyncLock{db: db}
}

// Acquire attempts to take the lock for key. It returns the release
// token and true on success, or false when another holder has a live
// lease. A lost acquisition is not an error.
func (l *SyncLock) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := identity.NewRandomID()

	query := `
		INSERT INTO sync_locks (key, token, expires_at)
		VALUES ($1, $2, NOW() + $3 * INTERVAL '1 second')
		ON CONFLICT (key) DO UPDATE
		SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at
		WHERE sync_locks.expires_at < NOW()
	`

	result, err := l.db.ExecContext(ctx, query, key, token, ttl.Seconds())
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return "", false, nil
	}
	return token, true, nil
}

// Release drops the lease, but only if the token still matches. A
// holder whose lease expired and was stolen must not release the new
// holder's lock.
func (l *SyncLock) Release(ctx context.Context, key, token string) error {
	_, err := l.db.ExecContext(ctx, `DELETE FROM sync_locks WHERE key = $1 AND token = $2`, key, token)
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return nil
}
