package kv

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockBackend(t *testing.T) (*SQLBackend, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS kv`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	backend, err := NewSQLBackend(db)
	if err != nil {
		t.Fatalf("NewSQLBackend() error = %v", err)
	}
	return backend, mock
}

func TestSQLBackend_Get(t *testing.T) {
	backend, mock := newMockBackend(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv WHERE key = ?`)).
		WithArgs("invoicestore:settings").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`{"currency":"USD"}`))

	got, ok := backend.Get("invoicestore:settings")
	if !ok || got != `{"currency":"USD"}` {
		t.Errorf("Get() = %q, %v", got, ok)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv WHERE key = ?`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	if _, ok := backend.Get("missing"); ok {
		t.Error("Get() reported a value for a missing key")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSQLBackend_SetUpsert(t *testing.T) {
	backend, mock := newMockBackend(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`)).
		WithArgs("k", "v").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := backend.Set("k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSQLBackend_SetFullDatabase(t *testing.T) {
	backend, mock := newMockBackend(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kv`)).
		WithArgs("k", "v").
		WillReturnError(errors.New("database or disk is full (13)"))

	err := backend.Set("k", "v")
	if !IsCapacityError(err) {
		t.Errorf("Set() on full database error = %v, want capacity error", err)
	}
}

func TestSQLBackend_Keys(t *testing.T) {
	backend, mock := newMockBackend(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT key FROM kv`)).
		WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow("a").AddRow("b"))

	keys := backend.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys() = %v, want [a b]", keys)
	}
}

func TestSQLBackend_Remove(t *testing.T) {
	backend, mock := newMockBackend(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM kv WHERE key = ?`)).
		WithArgs("k").
		WillReturnResult(sqlmock.NewResult(0, 1))

	backend.Remove("k")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
