package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type PendingSQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewPendingSQLite(db *sql.DB) *PendingSQLite {
	return &PendingSQLite{db: db, now: time.Now}
}

var _ PendingReplyRepo = (*PendingSQLite)(nil)

const (
	claimPendingSQL   = `INSERT INTO pending_replies (token, created_at) VALUES (?, ?) ON CONFLICT(token) DO NOTHING`
	releasePendingSQL = `DELETE FROM pending_replies WHERE token = ?`
)

// Claim inserts token unless it is already present. The primary key makes
// the check and the insert one statement, so two concurrent deliveries of
// the same token cannot both win.
func (r *PendingSQLite) Claim(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx, claimPendingSQL, token, formatTime(r.now()))
	if err != nil {
		return false, fmt.Errorf("claim reply token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim reply token rows affected: %w", err)
	}
	return n == 1, nil
}

// Release removes token. Releasing an unknown token is not an error.
func (r *PendingSQLite) Release(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, releasePendingSQL, token); err != nil {
		return fmt.Errorf("release reply token: %w", err)
	}
	return nil
}
