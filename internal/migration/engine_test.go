package migration

import (
	"encoding/json"
	"errors"
	"testing"

	"invoicestore/internal/codec"
	"invoicestore/internal/config"
	apperrors "invoicestore/internal/errors"
	"invoicestore/internal/logging"
	"invoicestore/internal/store"
)

type fakeBackups struct {
	calls []string
	err   error
}

func (f *fakeBackups) EnsureMigrationBackup(from, to string) (string, bool, error) {
	f.calls = append(f.calls, from+"->"+to)
	if f.err != nil {
		return "", false, f.err
	}
	return "migration-bundle-1", len(f.calls) > 1, nil
}

func newTestStore(t *testing.T) (*store.Store, *logging.Logger) {
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
	return s, logger
}

const legacyInvoices = `[{
	"id": "inv-legacy-1",
	"number": 1,
	"client": "Acme Plumbing",
	"client_email": "billing@acme.test",
	"status": "sent",
	"subtotal": 150.0,
	"tax": 12.38,
	"total": 162.38,
	"items": [
		{"description": "Service call", "quantity": "2", "unit_price": 75.0, "amount": 150.0}
	]
}]`

const legacySettings = `{"business_name": "My Shop", "currency": "USD", "next_invoice_number": 7}`

func seedLegacyData(t *testing.T, s *store.Store) {
	t.Helper()
	if err := s.Guard().Write(store.KeyInvoices, legacyInvoices); err != nil {
		t.Fatal(err)
	}
	if err := s.Guard().Write(store.KeySettings, legacySettings); err != nil {
		t.Fatal(err)
	}
}

func TestMigrateLegacyStoreToCurrent(t *testing.T) {
	s, logger := newTestStore(t)
	seedLegacyData(t, s)

	backups := &fakeBackups{}
	engine := NewEngine(s, backups, logger)

	if err := engine.MigrateToCurrent(); err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	if got := s.DataVersion(); got != CurrentVersion {
		t.Fatalf("data version = %q, want %q", got, CurrentVersion)
	}
	if len(backups.calls) != 1 || backups.calls[0] != "0.0.0->"+CurrentVersion {
		t.Errorf("unexpected backup calls: %v", backups.calls)
	}

	raw, _ := s.Guard().Read(store.KeyInvoices)
	invoices, dropped := codec.DecodeCollection[codec.Invoice](raw)
	if dropped != 0 || len(invoices) != 1 {
		t.Fatalf("migrated invoices do not decode cleanly: kept=%d dropped=%d", len(invoices), dropped)
	}
	inv := invoices[0]
	if inv.CustomerName != "Acme Plumbing" {
		t.Errorf("customer name = %q", inv.CustomerName)
	}
	if inv.CustomerEmail != "billing@acme.test" {
		t.Errorf("customer email = %q", inv.CustomerEmail)
	}
	if inv.SubtotalCents != 15000 || inv.TaxCents != 1238 || inv.TotalCents != 16238 {
		t.Errorf("money conversion wrong: %d/%d/%d", inv.SubtotalCents, inv.TaxCents, inv.TotalCents)
	}
	if inv.CustomerID == "" {
		t.Error("invoice was not linked to a customer")
	}
	if len(inv.Items) != 1 || inv.Items[0].Quantity != 2 || inv.Items[0].UnitCents != 7500 {
		t.Errorf("line item conversion wrong: %+v", inv.Items)
	}

	customers := s.Customers.List()
	if len(customers) != 1 {
		t.Fatalf("expected one backfilled customer, got %d", len(customers))
	}
	if customers[0].InvoiceCount != 1 || customers[0].TotalBilledCents != 16238 {
		t.Errorf("customer aggregates wrong: %+v", customers[0])
	}

	if got := s.Sequences.Next(store.SequenceInvoiceNumber); got != 7 {
		t.Errorf("sequence = %d, want 7", got)
	}
	rawSettings, _ := s.Guard().Read(store.KeySettings)
	var settings map[string]interface{}
	if err := json.Unmarshal([]byte(rawSettings), &settings); err != nil {
		t.Fatal(err)
	}
	if _, still := settings["next_invoice_number"]; still {
		t.Error("next_invoice_number should have been removed from settings")
	}
}

func TestMigrationIsIdempotent(t *testing.T) {
	s, logger := newTestStore(t)
	seedLegacyData(t, s)
	engine := NewEngine(s, nil, logger)

	if err := engine.MigrateToCurrent(); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	after, _ := s.Guard().Read(store.KeyInvoices)

	if err := engine.MigrateToCurrent(); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	again, _ := s.Guard().Read(store.KeyInvoices)
	if after != again {
		t.Error("running the migration twice changed the data")
	}
}

func TestRerunningAnInterruptedStepIsSafe(t *testing.T) {
	// Simulates a crash after step 1.2.0: the marker says 1.2.0 but the
	// 1.2.0 transformation already ran. Resuming must not double-convert.
	s, logger := newTestStore(t)
	seedLegacyData(t, s)
	engine := NewEngine(s, nil, logger)

	if err := engine.Run("1.2.0"); err != nil {
		t.Fatalf("partial run failed: %v", err)
	}
	if got := s.DataVersion(); got != "1.2.0" {
		t.Fatalf("data version = %q, want 1.2.0", got)
	}

	// Wind the marker back one step, as if the marker write had been lost.
	if err := s.SetDataVersion("1.1.0"); err != nil {
		t.Fatal(err)
	}
	if err := engine.MigrateToCurrent(); err != nil {
		t.Fatalf("resume failed: %v", err)
	}

	raw, _ := s.Guard().Read(store.KeyInvoices)
	invoices, _ := codec.DecodeCollection[codec.Invoice](raw)
	if invoices[0].SubtotalCents != 15000 {
		t.Errorf("re-running the cents conversion corrupted amounts: %d", invoices[0].SubtotalCents)
	}
}

func TestFailingStepHaltsAtLastGoodVersion(t *testing.T) {
	s, logger := newTestStore(t)

	stepErr := errors.New("boom")
	failing := true
	engine := &Engine{
		store:  s,
		logger: logger,
		steps: []Step{
			{OutputVersion: MustParseVersion("0.1.0"), Name: "ok", Apply: func(*Dataset) error { return nil }},
			{OutputVersion: MustParseVersion("0.2.0"), Name: "flaky", Apply: func(*Dataset) error {
				if failing {
					return stepErr
				}
				return nil
			}},
		},
	}

	err := engine.Run("0.2.0")
	if err == nil {
		t.Fatal("expected the run to fail")
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Type != apperrors.ErrorTypeMigration {
		t.Errorf("expected a migration error, got %v", err)
	}
	if got := s.DataVersion(); got != "0.1.0" {
		t.Errorf("version should halt at last good step, got %q", got)
	}

	failing = false
	if err := engine.Run("0.2.0"); err != nil {
		t.Fatalf("resumed run failed: %v", err)
	}
	if got := s.DataVersion(); got != "0.2.0" {
		t.Errorf("version = %q after resume, want 0.2.0", got)
	}
}

func TestDowngradeIsRejected(t *testing.T) {
	s, logger := newTestStore(t)
	if err := s.SetDataVersion("9.9.9"); err != nil {
		t.Fatal(err)
	}
	engine := NewEngine(s, nil, logger)
	if err := engine.MigrateToCurrent(); err == nil {
		t.Fatal("expected downgrade to be rejected")
	}
}

func TestNoOpWhenAlreadyCurrent(t *testing.T) {
	s, logger := newTestStore(t)
	if err := s.SetDataVersion(CurrentVersion); err != nil {
		t.Fatal(err)
	}
	backups := &fakeBackups{}
	engine := NewEngine(s, backups, logger)

	if err := engine.MigrateToCurrent(); err != nil {
		t.Fatalf("no-op run failed: %v", err)
	}
	if len(backups.calls) != 0 {
		t.Errorf("no-op migration must not take a backup, got %v", backups.calls)
	}
}
