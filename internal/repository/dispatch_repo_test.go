package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"weather_relay/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

type argFunc func(v driver.Value) bool

func (f argFunc) Match(v driver.Value) bool { return f(v) }

func TestDispatchAppend_FillsDefaultsAndNormalizes(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewDispatchSQLite(db)

	nonEmpty := argFunc(func(v driver.Value) bool {
		s, ok := v.(string)
		return ok && s != ""
	})
	recentUTC := argFunc(func(v driver.Value) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		ts, err := parseTime(s)
		return err == nil && time.Since(ts) < 5*time.Second && time.Since(ts) > -5*time.Second
	})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO dispatch_events (id, occurred_at, kind, target, status, message, error)")).
		WithArgs(nonEmpty, recentUTC, "PUSH", "U1", "SENT", "hello", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Append(ctx(t), models.DispatchEvent{
		Kind:    " push ",
		Target:  "U1",
		Status:  "sent",
		Message: "hello",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestDispatchAppend_StoresErrorTextAndUTC(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewDispatchSQLite(db)
	bangkok := time.FixedZone("ICT", 7*3600)
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, bangkok)

	mock.ExpectExec("INSERT INTO dispatch_events").
		WithArgs("e1", "2025-03-01 02:00:00.000000", "REPLY", "tok", "FAILED", "msg", "timeout").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Append(ctx(t), models.DispatchEvent{
		EventID: "e1", OccurredAt: at, Kind: "REPLY", Target: "tok", Status: "FAILED", Message: "msg", Error: "timeout",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestDispatchAppend_DBError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO dispatch_events").WillReturnError(errors.New("down"))

	err = NewDispatchSQLite(db).Append(ctx(t), models.DispatchEvent{Kind: "PUSH", Status: "SENT"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestDispatchList_NoFilters(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "occurred_at", "kind", "target", "status", "message", "error"}).
		AddRow("1", "2025-01-01 10:00:00.000000", "PUSH", "U1", "SENT", "m1", nil).
		AddRow("2", "2025-01-01 11:00:00.000000", "REPLY", "tok", "FAILED", "m2", "boom")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, occurred_at, kind, target, status, message, error FROM dispatch_events ORDER BY occurred_at ASC`)).
		WillReturnRows(rows)

	got, err := NewDispatchSQLite(db).List(ctx(t), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2, got %d", len(got))
	}
	if got[0].Error != "" || got[1].Error != "boom" {
		t.Fatalf("error column mapping: %+v", got)
	}
	want := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	if !got[0].OccurredAt.Equal(want) || got[0].OccurredAt.Location() != time.UTC {
		t.Fatalf("OccurredAt: got %v", got[0].OccurredAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestDispatchList_WithFilters(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	from := time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	query := `SELECT id, occurred_at, kind, target, status, message, error FROM dispatch_events WHERE occurred_at >= ? AND occurred_at <= ? AND kind = ? ORDER BY occurred_at ASC`

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("2025-01-01 11:00:00.000000", "2025-01-01 12:00:00.000000", "REPLY").
		WillReturnRows(sqlmock.NewRows([]string{"id", "occurred_at", "kind", "target", "status", "message", "error"}).
			AddRow("3", "2025-01-01 11:30:00.000000", "REPLY", "tok", "SENT", "m", nil))

	got, err := NewDispatchSQLite(db).List(ctx(t), from, to, " reply ")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].EventID != "3" {
		t.Fatalf("unexpected results: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestDispatchList_BadTimestamp(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, occurred_at").
		WillReturnRows(sqlmock.NewRows([]string{"id", "occurred_at", "kind", "target", "status", "message", "error"}).
			AddRow("x", "yesterday", "PUSH", "U", "SENT", "m", nil))

	if _, err := NewDispatchSQLite(db).List(ctx(t), time.Time{}, time.Time{}, ""); err == nil {
		t.Fatal("expected parse error, got nil")
	}
}
