package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicestore/internal/backup"
	"invoicestore/internal/codec"
	"invoicestore/internal/config"
	"invoicestore/internal/logging"
	"invoicestore/internal/migration"
	"invoicestore/internal/store"
)

func TestValidateFlagsRejectsVerboseAndQuiet(t *testing.T) {
	verbose, quiet = true, true
	defer func() { verbose, quiet = false, false }()

	err := validateFlags()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestParseLineItems(t *testing.T) {
	tests := []struct {
		name    string
		specs   []string
		want    []codec.LineItem
		wantErr bool
	}{
		{
			name:  "single item",
			specs: []string{"Consulting:2:75.00"},
			want: []codec.LineItem{
				{Description: "Consulting", Quantity: 2, UnitCents: 7500, AmountCents: 15000},
			},
		},
		{
			name:  "fractional quantity",
			specs: []string{"Support:1.5:120.50"},
			want: []codec.LineItem{
				{Description: "Support", Quantity: 1.5, UnitCents: 12050, AmountCents: 18075},
			},
		},
		{
			name:    "missing unit price",
			specs:   []string{"Consulting:2"},
			wantErr: true,
		},
		{
			name:    "zero quantity",
			specs:   []string{"Consulting:0:75.00"},
			wantErr: true,
		},
		{
			name:    "negative unit price",
			specs:   []string{"Consulting:1:-5"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLineItems(tt.specs)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTotalInvoiceAppliesTaxRate(t *testing.T) {
	invoice := codec.Invoice{
		Items: []codec.LineItem{
			{Description: "Consulting", Quantity: 2, UnitCents: 7500, AmountCents: 15000},
			{Description: "Hosting", Quantity: 1, UnitCents: 2500, AmountCents: 2500},
		},
		TaxBasisPts: 825,
	}
	totalInvoice(&invoice)

	assert.Equal(t, int64(17500), invoice.SubtotalCents)
	assert.Equal(t, int64(1444), invoice.TaxCents) // 17500 * 8.25% rounded
	assert.Equal(t, int64(18944), invoice.TotalCents)
}

func TestBuildConfigAppliesFlagOverrides(t *testing.T) {
	backendType, backendPath = "memory", ""
	defer func() { backendType, backendPath = "", "" }()

	cfg, err := buildConfig()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Backend.Type)
}

// TestOpenMigrateBackupLifecycle exercises the same wiring newApp performs:
// open a store, migrate it to the current version, and take a backup.
func TestOpenMigrateBackupLifecycle(t *testing.T) {
	cfg := &config.Config{Backend: config.BackendConfig{Type: "memory"}}
	cfg.SetDefaults()

	logger, err := logging.NewLogger(logging.Config{Level: logging.LogLevelQuiet})
	require.NoError(t, err)

	s, err := store.Open(cfg, logger)
	require.NoError(t, err)
	defer s.Close()

	manager := backup.NewManager(s, cfg, logger)
	engine := migration.NewEngine(s, manager, logger)
	require.NoError(t, engine.MigrateToCurrent())
	assert.Equal(t, migration.CurrentVersion, s.DataVersion())

	saved, err := s.Invoices.Save(codec.Invoice{
		Number:       1,
		CustomerName: "Acme Co",
		Items:        []codec.LineItem{{Description: "Consulting", Quantity: 1, UnitCents: 5000, AmountCents: 5000}},
		TotalCents:   5000,
		Status:       codec.InvoiceStatusSent,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.NotEmpty(t, saved.CustomerID)

	bundle, err := manager.Snapshot(backup.TagManual)
	require.NoError(t, err)
	assert.Equal(t, migration.CurrentVersion, bundle.SchemaVersion)
	assert.Len(t, manager.List(), 1)
}
