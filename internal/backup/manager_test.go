package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"invoicestore/internal/codec"
	"invoicestore/internal/config"
	"invoicestore/internal/logging"
	"invoicestore/internal/store"
)

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return data
}

func newTestManager(t *testing.T) (*Manager, *store.Store) {
	t.Helper()
	logger, err := logging.NewLogger(logging.Config{Level: logging.LogLevelQuiet})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	cfg := &config.Config{Backend: config.BackendConfig{Type: "memory"}}
	cfg.SetDefaults()
	s, err := store.Open(cfg, logger)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return NewManager(s, cfg, logger), s
}

func seedInvoicingData(t *testing.T, s *store.Store) {
	t.Helper()
	names := []string{"Acme Plumbing", "Beta LLC", "Acme Plumbing"}
	for i, name := range names {
		_, err := s.Invoices.Save(codec.Invoice{
			Number:       int64(i + 1),
			CustomerName: name,
			TotalCents:   int64(1000 * (i + 1)),
			Status:       codec.InvoiceStatusSent,
			Items:        []codec.LineItem{{Description: "Work", Quantity: 1, UnitCents: 1000, AmountCents: 1000}},
		})
		if err != nil {
			t.Fatalf("failed to seed invoice: %v", err)
		}
	}
	if _, err := s.Sequences.Advance(store.SequenceInvoiceNumber); err != nil {
		t.Fatal(err)
	}
	if err := s.SetDataVersion("1.6.0"); err != nil {
		t.Fatal(err)
	}
}

func TestSnapshotAndRestoreRoundTrip(t *testing.T) {
	m, s := newTestManager(t)
	seedInvoicingData(t, s)

	beforeInvoices, _ := s.Guard().Read(store.KeyInvoices)
	beforeCustomers, _ := s.Guard().Read(store.KeyCustomers)

	bundle, err := m.Snapshot(TagManual)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if bundle.SchemaVersion != "1.6.0" {
		t.Errorf("bundle schema version = %q", bundle.SchemaVersion)
	}

	// Wreck the live data, then restore.
	if err := s.Guard().Write(store.KeyInvoices, "[]"); err != nil {
		t.Fatal(err)
	}
	if err := s.Guard().Write(store.KeyCustomers, "[]"); err != nil {
		t.Fatal(err)
	}

	result, err := m.Restore(bundle.ID)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if result.Failed() {
		t.Fatalf("restore reported failures: %+v", result.Collections)
	}

	afterInvoices, _ := s.Guard().Read(store.KeyInvoices)
	afterCustomers, _ := s.Guard().Read(store.KeyCustomers)
	if afterInvoices != beforeInvoices {
		t.Error("invoices did not round-trip through backup and restore")
	}
	if afterCustomers != beforeCustomers {
		t.Error("customers did not round-trip through backup and restore")
	}
	if got := s.Sequences.Next(store.SequenceInvoiceNumber); got != 2 {
		t.Errorf("sequence after restore = %d, want 2", got)
	}

	invoices := s.Invoices.List()
	if len(invoices) != 3 {
		t.Errorf("expected 3 invoices after restore, got %d", len(invoices))
	}
	if len(s.Customers.List()) != 2 {
		t.Errorf("expected 2 customers after restore, got %d", len(s.Customers.List()))
	}
}

func TestRetentionEvictsOldestBundles(t *testing.T) {
	m, s := newTestManager(t)
	seedInvoicingData(t, s)
	m.retention.MaxBackups = 4

	var ids []string
	for i := 0; i < 6; i++ {
		bundle, err := m.Snapshot(TagManual)
		if err != nil {
			t.Fatalf("snapshot %d failed: %v", i, err)
		}
		// Spread creation times so retention ordering is deterministic.
		bundles := m.loadList(store.KeyBackups)
		for j := range bundles {
			if bundles[j].ID == bundle.ID {
				bundles[j].CreatedAt = time.Date(2026, 8, 1, i, 0, 0, 0, time.UTC)
			}
		}
		if err := m.saveList(store.KeyBackups, bundles); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, bundle.ID)
	}

	list := m.List()
	if len(list) != 4 {
		t.Fatalf("expected 4 retained bundles, got %d", len(list))
	}
	for _, bundle := range list {
		if bundle.ID == ids[0] || bundle.ID == ids[1] {
			t.Errorf("oldest bundle %s should have been evicted", bundle.ID)
		}
	}
	if list[0].CreatedAt.Before(list[1].CreatedAt) {
		t.Error("list should be newest first")
	}
}

func TestEnsureMigrationBackupReusesTransition(t *testing.T) {
	m, s := newTestManager(t)
	seedInvoicingData(t, s)

	first, existed, err := m.EnsureMigrationBackup("0.0.0", "1.6.0")
	if err != nil {
		t.Fatalf("first ensure failed: %v", err)
	}
	if existed {
		t.Error("first ensure should create a new bundle")
	}

	second, existed, err := m.EnsureMigrationBackup("0.0.0", "1.6.0")
	if err != nil {
		t.Fatalf("second ensure failed: %v", err)
	}
	if !existed || second != first {
		t.Errorf("second ensure should reuse bundle %s, got %s existed=%v", first, second, existed)
	}

	third, existed, err := m.EnsureMigrationBackup("1.6.0", "1.7.0")
	if err != nil {
		t.Fatal(err)
	}
	if existed || third == first {
		t.Error("a different transition must get its own bundle")
	}
}

func TestRollbackRejectsRegularBundles(t *testing.T) {
	m, s := newTestManager(t)
	seedInvoicingData(t, s)

	bundle, err := m.Snapshot(TagManual)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Rollback(bundle.ID); err == nil {
		t.Error("rollback must reject a non-migration bundle")
	}

	id, _, err := m.EnsureMigrationBackup("1.5.0", "1.6.0")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Rollback(id); err != nil {
		t.Errorf("rollback of a migration bundle failed: %v", err)
	}
}

func TestRestoreDetectsCorruptPayload(t *testing.T) {
	m, s := newTestManager(t)
	seedInvoicingData(t, s)

	bundle, err := m.Snapshot(TagManual)
	if err != nil {
		t.Fatal(err)
	}

	bundles := m.loadList(store.KeyBackups)
	for i := range bundles {
		if bundles[i].ID == bundle.ID {
			bundles[i].Checksum = "0000000000000000000000000000000000000000000000000000000000000000"
		}
	}
	if err := m.saveList(store.KeyBackups, bundles); err != nil {
		t.Fatal(err)
	}

	if _, err := m.Restore(bundle.ID); err == nil {
		t.Error("restore must fail on a checksum mismatch")
	}
}

func TestRestoreUnknownBundle(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.Restore("no-such-bundle"); err == nil {
		t.Error("expected a not-found error")
	}
}

func TestExportDocumentShape(t *testing.T) {
	m, s := newTestManager(t)
	seedInvoicingData(t, s)

	doc, err := m.BuildExportDocument()
	if err != nil {
		t.Fatal(err)
	}
	if doc.Application != ApplicationName {
		t.Errorf("application = %q", doc.Application)
	}
	if doc.Version != "1.6.0" {
		t.Errorf("version = %q", doc.Version)
	}
	if doc.Data.NextInvoiceNumber != 2 {
		t.Errorf("nextInvoiceNumber = %d, want 2", doc.Data.NextInvoiceNumber)
	}

	var invoices []codec.Invoice
	if err := json.Unmarshal(doc.Data.Invoices, &invoices); err != nil || len(invoices) != 3 {
		t.Errorf("export invoices unreadable: %v (%d)", err, len(invoices))
	}
}

func TestExportToLocalDestination(t *testing.T) {
	m, s := newTestManager(t)
	seedInvoicingData(t, s)

	dest, err := NewLocalDestination(&config.LocalExportConfig{BasePath: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	location, err := m.Export(context.Background(), dest)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	// The written file must import cleanly into an empty store.
	other, fresh := newTestManager(t)
	data := readFile(t, location)
	result, err := other.Import(data)
	if err != nil {
		t.Fatalf("import of exported file failed: %v", err)
	}
	if result.Invoices != 3 || result.Customers != 2 || result.SequenceSet != true {
		t.Errorf("unexpected import result: %+v", result)
	}
	if len(fresh.Invoices.List()) != 3 {
		t.Errorf("imported store has %d invoices", len(fresh.Invoices.List()))
	}
}

func TestImportMissingCollectionsLeaveDataAlone(t *testing.T) {
	m, s := newTestManager(t)
	seedInvoicingData(t, s)
	before, _ := s.Guard().Read(store.KeyInvoices)

	doc := fmt.Sprintf(`{
		"timestamp": "2026-08-26T10:00:00Z",
		"version": "1.6.0",
		"application": %q,
		"data": {"settings": {"business_name": "New Shop", "currency": "EUR"}}
	}`, ApplicationName)

	result, err := m.Import([]byte(doc))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !result.SettingsReplaced || result.Invoices != 0 {
		t.Errorf("unexpected result: %+v", result)
	}

	after, _ := s.Guard().Read(store.KeyInvoices)
	if before != after {
		t.Error("import without invoices must not touch the invoice collection")
	}
	if got := s.Settings.Load().Currency; got != "EUR" {
		t.Errorf("settings not replaced, currency = %q", got)
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	m, _ := newTestManager(t)

	tests := []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: "{nope"},
		{name: "empty data", doc: `{"application": "invoicestore", "data": {}}`},
		{name: "foreign application", doc: `{"application": "other-tool", "data": {"invoices": []}}`},
		{name: "invoices not an array", doc: `{"application": "invoicestore", "data": {"invoices": {"a": 1}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Import([]byte(tt.doc)); err == nil {
				t.Error("expected import to be rejected")
			}
		})
	}
}
