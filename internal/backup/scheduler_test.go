package backup

import (
	"testing"
	"time"

	"invoicestore/internal/config"
	"invoicestore/internal/logging"
	"invoicestore/internal/store"
)

func newTestScheduler(t *testing.T, minInterval time.Duration) (*Scheduler, *Manager, *store.Store) {
	t.Helper()
	m, s := newTestManager(t)
	logger, err := logging.NewLogger(logging.Config{Level: logging.LogLevelQuiet})
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.AutoBackupConfig{
		Enabled:     true,
		Schedule:    "@hourly",
		MinInterval: minInterval,
	}
	return NewScheduler(m, s, cfg, logger), m, s
}

func TestSchedulerRunTakesSnapshot(t *testing.T) {
	sched, m, s := newTestScheduler(t, time.Minute)
	seedInvoicingData(t, s)

	sched.RunNow()
	list := m.List()
	if len(list) != 1 {
		t.Fatalf("expected one scheduled bundle, got %d", len(list))
	}
	if list[0].Tag != TagScheduled {
		t.Errorf("bundle tag = %q", list[0].Tag)
	}
	if _, ok := s.Guard().Read(store.KeyLastBackupAt); !ok {
		t.Error("last-backup timestamp was not recorded")
	}
}

func TestSchedulerHonorsMinInterval(t *testing.T) {
	sched, m, s := newTestScheduler(t, time.Hour)
	seedInvoicingData(t, s)

	sched.RunNow()
	sched.RunNow()
	if got := len(m.List()); got != 1 {
		t.Errorf("second run inside the interval should be skipped, got %d bundles", got)
	}

	// Age the timestamp past the interval and the next run fires again.
	stale := time.Now().Add(-2 * time.Hour).UTC().Format(time.RFC3339)
	if err := s.Guard().Write(store.KeyLastBackupAt, stale); err != nil {
		t.Fatal(err)
	}
	sched.RunNow()
	if got := len(m.List()); got != 2 {
		t.Errorf("run after the interval should take a snapshot, got %d bundles", got)
	}
}

func TestSchedulerDisabled(t *testing.T) {
	sched, _, _ := newTestScheduler(t, time.Minute)
	sched.cfg.Enabled = false
	if err := sched.Start(); err != nil {
		t.Errorf("disabled scheduler should start as a no-op: %v", err)
	}
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	sched, _, _ := newTestScheduler(t, time.Minute)
	sched.cfg.Schedule = "not a schedule"
	if err := sched.Start(); err == nil {
		t.Error("expected an invalid schedule to be rejected")
	}
}
