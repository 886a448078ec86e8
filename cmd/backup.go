package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"invoicestore/internal/backup"
)

// createBackupCommand creates the backup command group
func createBackupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list, restore and delete backups",
	}

	cmd.AddCommand(createBackupCreateCommand())
	cmd.AddCommand(createBackupListCommand())
	cmd.AddCommand(createBackupRestoreCommand())
	cmd.AddCommand(createBackupRollbackCommand())
	cmd.AddCommand(createBackupDeleteCommand())
	return cmd
}

func createBackupCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Snapshot the current data into a stored backup bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			bundle, err := app.backups.Snapshot(backup.TagManual)
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}

			fmt.Printf("Created backup %s (%d bytes, schema %s)\n",
				bundle.ID, bundle.PayloadBytes, bundle.SchemaVersion)
			return nil
		},
	}
}

func createBackupListCommand() *cobra.Command {
	var migrationBundles bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored backup bundles",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			bundles := app.backups.List()
			if migrationBundles {
				bundles = app.backups.ListMigration()
			}

			fmt.Print(app.display.BackupList(bundles))
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrationBundles, "migration", false, "list pre-migration bundles instead of regular backups")
	return cmd
}

func createBackupRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <bundle-id>",
		Short: "Replace the current data with a backup bundle's contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			bundle, err := app.backups.Find(args[0])
			if err != nil {
				return err
			}

			ok, err := app.confirm.Confirm(fmt.Sprintf(
				"Restore backup %s from %s? Current invoices, customers and settings will be replaced.",
				bundle.ID, bundle.CreatedAt.Format("2006-01-02 15:04")), autoApprove)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted.")
				return nil
			}

			result, restoreErr := app.backups.Restore(bundle.ID)
			if result != nil {
				fmt.Print(app.display.RestoreResult(result))
			}
			return restoreErr
		},
	}
}

func createBackupRollbackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <bundle-id>",
		Short: "Roll back a migration using its pre-migration bundle",
		Long: `Roll back a schema migration by restoring the pre-migration bundle taken
before it ran. Only bundles tagged pre-migration are accepted; the data
version is reset to the bundle's schema version, so the next start migrates
forward again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ok, err := app.confirm.Confirm(fmt.Sprintf(
				"Roll back to pre-migration bundle %s? Changes made since the migration will be lost.",
				args[0]), autoApprove)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted.")
				return nil
			}

			result, rollbackErr := app.backups.Rollback(args[0])
			if result != nil {
				fmt.Print(app.display.RestoreResult(result))
			}
			return rollbackErr
		},
	}
}

func createBackupDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <bundle-id>",
		Short: "Delete a stored backup bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ok, err := app.confirm.Confirm(
				fmt.Sprintf("Delete backup %s?", args[0]), autoApprove)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted.")
				return nil
			}

			if err := app.backups.Delete(args[0]); err != nil {
				return err
			}

			fmt.Printf("Deleted backup %s\n", args[0])
			return nil
		},
	}
}
