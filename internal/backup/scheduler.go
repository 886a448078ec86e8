package backup

import (
	"time"

	"github.com/robfig/cron/v3"

	"invoicestore/internal/config"
	"invoicestore/internal/logging"
	"invoicestore/internal/store"
)

// Scheduler runs periodic snapshots on a cron schedule. A run that fires
// too soon after the previous backup is skipped, so overlapping triggers
// (or a restart right after a scheduled run) do not pile up near-identical
// bundles.
type Scheduler struct {
	cron    *cron.Cron
	manager *Manager
	store   *store.Store
	cfg     config.AutoBackupConfig
	logger  *logging.Logger
}

// NewScheduler creates a scheduler over the backup manager.
func NewScheduler(manager *Manager, s *store.Store, cfg config.AutoBackupConfig, logger *logging.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		manager: manager,
		store:   s,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start registers the cron entry and begins scheduling. It is a no-op when
// auto-backup is disabled.
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		return nil
	}
	if _, err := s.cron.AddFunc(s.cfg.Schedule, s.runOnce); err != nil {
		return NewValidationError("invalid auto-backup schedule "+s.cfg.Schedule, err)
	}
	s.cron.Start()
	s.logger.Infof("auto-backup scheduled: %s", s.cfg.Schedule)
	return nil
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// RunNow takes a scheduled snapshot immediately, honoring the minimum
// interval.
func (s *Scheduler) RunNow() {
	s.runOnce()
}

func (s *Scheduler) runOnce() {
	if since, known := s.sinceLastBackup(); known && since < s.cfg.MinInterval {
		s.logger.Debugf("skipping scheduled backup, last one was %s ago", since.Round(time.Second))
		return
	}

	bundle, err := s.manager.Snapshot(TagScheduled)
	if err != nil {
		s.logger.Errorf("scheduled backup failed: %v", err)
		return
	}
	if err := s.store.Guard().Write(store.KeyLastBackupAt, time.Now().UTC().Format(time.RFC3339)); err != nil {
		s.logger.Warnf("backup %s taken but its timestamp could not be persisted: %v", bundle.ID, err)
	}
}

// sinceLastBackup returns how long ago the last scheduled backup ran.
func (s *Scheduler) sinceLastBackup() (time.Duration, bool) {
	raw, ok := s.store.Guard().Read(store.KeyLastBackupAt)
	if !ok {
		return 0, false
	}
	last, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return 0, false
	}
	return time.Since(last), true
}
