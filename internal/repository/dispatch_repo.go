package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"weather_relay/internal/models"

	"github.com/google/uuid"
)

type DispatchSQLite struct {
	db *sql.DB
}

func NewDispatchSQLite(db *sql.DB) *DispatchSQLite { return &DispatchSQLite{db: db} }

var _ DispatchRepo = (*DispatchSQLite)(nil)

const insertDispatchSQL = `
		INSERT INTO dispatch_events (id, occurred_at, kind, target, status, message, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

// Append inserts a new event. Missing EventID or OccurredAt are filled in.
func (r *DispatchSQLite) Append(ctx context.Context, e models.DispatchEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	var errText *string
	if e.Error != "" {
		errText = &e.Error
	}

	_, err := r.db.ExecContext(ctx, insertDispatchSQL,
		e.EventID,
		formatTime(e.OccurredAt),
		strings.ToUpper(strings.TrimSpace(e.Kind)),
		e.Target,
		strings.ToUpper(strings.TrimSpace(e.Status)),
		e.Message,
		errText,
	)
	if err != nil {
		return fmt.Errorf("insert dispatch event: %w", err)
	}
	return nil
}

// List returns events filtered by [from, to] (inclusive) and/or kind, oldest first.
func (r *DispatchSQLite) List(ctx context.Context, from, to time.Time, kind string) ([]models.DispatchEvent, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, formatTime(from))
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, formatTime(to))
	}
	if kind = strings.ToUpper(strings.TrimSpace(kind)); kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, kind)
	}

	q := `SELECT id, occurred_at, kind, target, status, message, error FROM dispatch_events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select dispatch events: %w", err)
	}
	defer rows.Close()

	out := make([]models.DispatchEvent, 0, 64)
	for rows.Next() {
		var (
			ev       models.DispatchEvent
			occurred string
			errText  sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &occurred, &ev.Kind, &ev.Target, &ev.Status, &ev.Message, &errText); err != nil {
			return nil, fmt.Errorf("scan dispatch event: %w", err)
		}
		if ev.OccurredAt, err = parseTime(occurred); err != nil {
			return nil, fmt.Errorf("parse occurred_at %q: %w", occurred, err)
		}
		if errText.Valid {
			ev.Error = errText.String
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
