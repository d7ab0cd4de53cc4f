package repository

import (
	"context"
	"database/sql"
	"time"

	"weather_relay/internal/models"
)

// timeLayout is fixed-width so stored timestamps sort lexicographically.
const timeLayout = "2006-01-02 15:04:05.000000"

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.Operator, error)
}

// RecipientRepo stores chat user ids collected from webhook events.
type RecipientRepo interface {
	Save(ctx context.Context, userID string) (bool, error)
	ListIDs(ctx context.Context) ([]string, error)
	List(ctx context.Context) ([]models.Recipient, error)
}

// PendingReplyRepo is the set of reply tokens currently being answered.
type PendingReplyRepo interface {
	// Claim records token and reports whether this call inserted it.
	Claim(ctx context.Context, token string) (bool, error)
	Release(ctx context.Context, token string) error
}

type DispatchRepo interface {
	Append(ctx context.Context, e models.DispatchEvent) error
	List(ctx context.Context, from, to time.Time, kind string) ([]models.DispatchEvent, error)
}

type Repository struct {
	Recipients RecipientRepo
	Pending    PendingReplyRepo
	Dispatches DispatchRepo
	Auth       Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Recipients: NewRecipientSQLite(db),
		Pending:    NewPendingSQLite(db),
		Dispatches: NewDispatchSQLite(db),
		Auth:       NewOperatorRepository(db),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
