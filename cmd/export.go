package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invoicestore/internal/backup"
	"invoicestore/internal/config"
)

// createExportCommand creates the export command
func createExportCommand() *cobra.Command {
	var (
		destination string
		localDir    string
		toStdout    bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current data set as a portable JSON document",
		Long: `Export invoices, customers, settings and the next invoice number as a
single JSON document. The destination comes from the configuration file and
can be overridden with --destination (local, s3, gcs, azure).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if toStdout {
				doc, err := app.backups.BuildExportDocument()
				if err != nil {
					return err
				}
				data, err := json.MarshalIndent(doc, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode export document: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			exportCfg := app.cfg.Export
			if destination != "" {
				exportCfg.Destination = destination
			}
			if localDir != "" {
				exportCfg.Local = &config.LocalExportConfig{BasePath: localDir}
			}

			dest, err := backup.NewDestination(cmd.Context(), exportCfg)
			if err != nil {
				return err
			}

			location, err := app.backups.Export(cmd.Context(), dest)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			fmt.Printf("Exported to %s\n", location)
			return nil
		},
	}

	cmd.Flags().StringVar(&destination, "destination", "", "export destination (local, s3, gcs, azure)")
	cmd.Flags().StringVar(&localDir, "dir", "", "directory for local exports")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "print the export document instead of storing it")
	return cmd
}

// createImportCommand creates the import command
func createImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a previously exported JSON document",
		Long: `Import an export document. Collections present in the document replace
the stored ones; collections absent from it are left untouched. A backup of
the current data is taken before anything is overwritten.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read import file: %w", err)
			}

			ok, err := app.confirm.Confirm(fmt.Sprintf(
				"Import %s? Collections in the document will replace the stored data.",
				args[0]), autoApprove)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted.")
				return nil
			}

			if _, err := app.backups.Snapshot(backup.TagManual); err != nil {
				return fmt.Errorf("pre-import backup failed: %w", err)
			}

			result, err := app.backups.Import(data)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			fmt.Printf("Imported %d invoices and %d customers", result.Invoices, result.Customers)
			if result.SettingsReplaced {
				fmt.Print(", settings replaced")
			}
			if result.SequenceSet {
				fmt.Print(", invoice number sequence set")
			}
			fmt.Println()
			return nil
		},
	}
}
