package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"invoicestore/internal/backup"
	apperrors "invoicestore/internal/errors"
)

// createWatchCommand creates the watch command running the backup scheduler
func createWatchCommand() *cobra.Command {
	var runImmediately bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the scheduled backup daemon",
		Long: `Run the backup scheduler in the foreground until interrupted. Backups
fire on the configured cron schedule; a run that comes too soon after the
previous backup is skipped, so overlapping triggers stay harmless.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if !app.cfg.AutoBackup.Enabled {
				return fmt.Errorf("auto backup is disabled; enable auto_backup in the configuration")
			}

			scheduler := backup.NewScheduler(app.backups, app.store, app.cfg.AutoBackup, app.logger)
			if err := scheduler.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			if runImmediately {
				scheduler.RunNow()
			}

			shutdown := apperrors.NewGracefulShutdownHandler()
			shutdown.RegisterShutdownFunc(func() error {
				scheduler.Stop()
				return nil
			})
			shutdown.Start()

			app.logger.Infof("backup scheduler running on %q, interrupt to stop", app.cfg.AutoBackup.Schedule)
			shutdown.WaitForShutdown()
			app.logger.Info("backup scheduler stopped")
			return nil
		},
	}

	cmd.Flags().BoolVar(&runImmediately, "now", false, "take a backup immediately on start")
	return cmd
}
