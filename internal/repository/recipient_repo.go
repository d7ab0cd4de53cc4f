package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"weather_relay/internal/models"
)

type RecipientSQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewRecipientSQLite(db *sql.DB) *RecipientSQLite {
	return &RecipientSQLite{db: db, now: time.Now}
}

var _ RecipientRepo = (*RecipientSQLite)(nil)

const (
	insertRecipientSQL = `INSERT INTO recipients (user_id, created_at) VALUES (?, ?) ON CONFLICT(user_id) DO NOTHING`
	selectRecipientSQL = `SELECT user_id, created_at FROM recipients ORDER BY created_at ASC, user_id ASC`
)

// Save stores userID if unseen and reports whether it was new.
func (r *RecipientSQLite) Save(ctx context.Context, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, insertRecipientSQL, userID, formatTime(r.now()))
	if err != nil {
		return false, fmt.Errorf("insert recipient %q: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert recipient %q rows affected: %w", userID, err)
	}
	return n == 1, nil
}

func (r *RecipientSQLite) List(ctx context.Context) ([]models.Recipient, error) {
	rows, err := r.db.QueryContext(ctx, selectRecipientSQL)
	if err != nil {
		return nil, fmt.Errorf("select recipients: %w", err)
	}
	defer rows.Close()

	out := make([]models.Recipient, 0, 16)
	for rows.Next() {
		var (
			rc      models.Recipient
			created string
		)
		if err := rows.Scan(&rc.UserID, &created); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		if rc.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("parse recipient created_at %q: %w", created, err)
		}
		out = append(out, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RecipientSQLite) ListIDs(ctx context.Context) ([]string, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(all))
	for _, rc := range all {
		ids = append(ids, rc.UserID)
	}
	return ids, nil
}
