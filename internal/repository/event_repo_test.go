package repository

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"soak_console/internal/models"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func newCommandRepo(t *testing.T) (*CommandSQLite, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewCommandSQLite(db), mock
}

const selectCommandsSQL = `SELECT id, occurred_at, type, command, message, meta FROM command_events`

func TestAppend_Success_WithDefaults(t *testing.T) {
	t.Parallel()
	repo, mock := newCommandRepo(t)

	// id and timestamp are generated, so only their presence is checked
	mock.ExpectExec(regexp.QuoteMeta(insertCommandEventSQL)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(),
			"DISPATCHED", "toggle", "heater on",
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(ctx(t), models.CommandEvent{
		Type:        "  dispatched ",
		Command:     "toggle",
		Description: "heater on",
		Metadata:    map[string]any{"relay": "heater"},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAppend_DBError(t *testing.T) {
	t.Parallel()
	repo, mock := newCommandRepo(t)

	mock.ExpectExec("INSERT INTO command_events").
		WillReturnError(errors.New("down"))

	err := repo.Append(ctx(t), models.CommandEvent{
		Type:        models.EventDenied,
		Command:     "master-shutdown",
		Description: "x",
		Metadata:    map[string]string{"role": "viewer"},
	})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestList_NoFilters_And_MetadataParsing(t *testing.T) {
	t.Parallel()
	repo, mock := newCommandRepo(t)

	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	js, _ := json.Marshal(map[string]any{"field": "settings.set_point"})

	rows := sqlmock.NewRows([]string{"id", "occurred_at", "type", "command", "message", "meta"}).
		AddRow("1", now, "DISPATCHED", "settings", "m1", string(js)).
		AddRow("2", now.Add(time.Hour), "DISPATCH_FAILED", "settings", "m2", nil)

	mock.ExpectQuery(regexp.QuoteMeta(selectCommandsSQL + ` ORDER BY occurred_at ASC`)).
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2, got %d", len(got))
	}
	if got[0].EventID != "1" || got[1].EventID != "2" || got[0].Command != "settings" {
		t.Fatalf("unexpected rows: %+v", got)
	}
	b1, _ := json.Marshal(got[0].Metadata)
	if string(b1) != string(js) {
		t.Fatalf("metadata mismatch: %s vs %s", string(b1), string(js))
	}
	if got[1].Metadata != nil {
		t.Fatalf("expected nil meta, got %#v", got[1].Metadata)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestList_WithFilters_OrderAndArgs(t *testing.T) {
	t.Parallel()
	repo, mock := newCommandRepo(t)

	from := time.Date(2026, 1, 1, 11, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	typ := " denied " // normalized to DENIED

	query := selectCommandsSQL + ` WHERE occurred_at >= ? AND occurred_at <= ? AND type = ? ORDER BY occurred_at ASC`

	rows := sqlmock.NewRows([]string{"id", "occurred_at", "type", "command", "message", "meta"}).
		AddRow("2", from, "DENIED", "toggle", "b", nil).
		AddRow("3", to, "DENIED", "update-system", "c", nil)

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("2026-01-01 11:00:00", "2026-01-01 12:00:00", "DENIED").
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), from, to, typ)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].EventID != "2" || got[1].EventID != "3" {
		t.Fatalf("unexpected results: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestList_ScanError(t *testing.T) {
	t.Parallel()
	repo, mock := newCommandRepo(t)

	rows := sqlmock.NewRows([]string{"id", "occurred_at", "type", "command", "message", "meta"}).
		// occurred_at wrong type to force scan error
		AddRow("x", 123, "DISPATCHED", "toggle", "msg", nil)

	mock.ExpectQuery(regexp.QuoteMeta(selectCommandsSQL + ` ORDER BY occurred_at ASC`)).
		WillReturnRows(rows)

	if _, err := repo.List(ctx(t), time.Time{}, time.Time{}, ""); err == nil {
		t.Fatalf("expected scan error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

