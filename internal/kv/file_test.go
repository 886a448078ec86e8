package kv

import (
	"testing"
)

func TestFileBackend_RoundTrip(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend() error = %v", err)
	}

	if _, ok := backend.Get("invoicestore:invoices"); ok {
		t.Error("Get() on empty backend reported a value")
	}

	if err := backend.Set("invoicestore:invoices", `[{"id":"inv-1"}]`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok := backend.Get("invoicestore:invoices")
	if !ok || got != `[{"id":"inv-1"}]` {
		t.Errorf("Get() = %q, %v", got, ok)
	}
}

func TestFileBackend_KeysSurviveArbitraryNames(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend() error = %v", err)
	}

	// Logical keys contain separators that are unsafe as file names.
	names := []string{"invoicestore:customer-defaults:c/1", "invoicestore:sequence:invoice", "plain"}
	for _, name := range names {
		if err := backend.Set(name, "v"); err != nil {
			t.Fatalf("Set(%q) error = %v", name, err)
		}
	}

	keys := backend.Keys()
	if len(keys) != len(names) {
		t.Fatalf("Keys() returned %d keys, want %d", len(keys), len(names))
	}

	seen := make(map[string]bool)
	for _, key := range keys {
		seen[key] = true
	}
	for _, name := range names {
		if !seen[name] {
			t.Errorf("Keys() missing %q", name)
		}
	}
}

func TestFileBackend_RemoveAndOverwrite(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend() error = %v", err)
	}

	if err := backend.Set("k", "first"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := backend.Set("k", "second"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if got, _ := backend.Get("k"); got != "second" {
		t.Errorf("Get() = %q, want %q", got, "second")
	}

	backend.Remove("k")
	if _, ok := backend.Get("k"); ok {
		t.Error("Get() after Remove reported a value")
	}
	if len(backend.Keys()) != 0 {
		t.Errorf("Keys() after Remove = %v, want empty", backend.Keys())
	}
}

func TestNewFileBackend_EmptyPath(t *testing.T) {
	if _, err := NewFileBackend(""); err == nil {
		t.Error("NewFileBackend(\"\") should fail")
	}
}
