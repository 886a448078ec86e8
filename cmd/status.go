package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"invoicestore/internal/migration"
)

// createStatusCommand creates the status command
func createStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store health, schema version and quota usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Status reports without mutating, so the data version is shown
			// as found rather than migrated first.
			skipMigrate = true

			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			fmt.Printf("Backend:          %s\n", app.cfg.Backend.Type)
			if app.store.Degraded() {
				fmt.Println("Mode:             DEGRADED (in-memory fallback, changes will not persist)")
			}

			version := app.store.DataVersion()
			if version == "" {
				version = migration.LegacyVersion
			}
			fmt.Printf("Data version:     %s\n", version)
			fmt.Printf("Current version:  %s\n", migration.CurrentVersion)
			if needs, err := app.engine.NeedsMigration(); err == nil && needs {
				fmt.Println("Migration:        pending (runs on the next data command)")
			}

			fmt.Printf("Invoices:         %d\n", len(app.store.Invoices.List()))
			fmt.Printf("Customers:        %d\n", len(app.store.Customers.List()))
			fmt.Printf("Backups:          %d stored, %d pre-migration\n",
				len(app.backups.List()), len(app.backups.ListMigration()))

			used, capacity := app.store.Usage()
			fmt.Print(app.display.Usage(used, capacity))
			return nil
		},
	}
}

// createUsageCommand creates the usage command
func createUsageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Report estimated quota usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			used, capacity := app.store.Usage()
			fmt.Print(app.display.Usage(used, capacity))
			return nil
		},
	}
}
