package migration

import (
	"fmt"
	"sort"
	"time"

	apperrors "invoicestore/internal/errors"
	"invoicestore/internal/logging"
	"invoicestore/internal/store"
)

// BackupCreator is the slice of the backup manager the engine needs: a
// pre-migration bundle before any step touches data. It reports whether a
// bundle for this exact transition already existed, in which case no new
// one is taken.
type BackupCreator interface {
	EnsureMigrationBackup(fromVersion, toVersion string) (bundleID string, existed bool, err error)
}

// Engine runs schema migrations against the store. It owns the data-version
// marker: the marker is persisted after every successful step, so an
// interrupted run resumes from the last completed step, and the idempotence
// of each step makes re-running the interrupted step safe.
type Engine struct {
	store   *store.Store
	backups BackupCreator
	logger  *logging.Logger
	steps   []Step
}

// NewEngine creates a migration engine with the registered schema history.
func NewEngine(s *store.Store, backups BackupCreator, logger *logging.Logger) *Engine {
	steps := registeredSteps()
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].OutputVersion.Compare(steps[j].OutputVersion) < 0
	})
	return &Engine{store: s, backups: backups, logger: logger, steps: steps}
}

// CurrentDataVersion returns the stored schema version, mapping a missing
// marker to the legacy version.
func (e *Engine) CurrentDataVersion() string {
	version := e.store.DataVersion()
	if version == "" {
		return LegacyVersion
	}
	return version
}

// NeedsMigration reports whether stored data is older than this build.
func (e *Engine) NeedsMigration() (bool, error) {
	current, err := ParseVersion(e.CurrentDataVersion())
	if err != nil {
		return false, err
	}
	return current.Compare(MustParseVersion(CurrentVersion)) < 0, nil
}

// MigrateToCurrent upgrades stored data to this build's schema version.
func (e *Engine) MigrateToCurrent() error {
	return e.Run(CurrentVersion)
}

// Run upgrades stored data to the target version: a pre-migration bundle is
// ensured, then every registered step newer than the current version and no
// newer than the target runs in ascending order. A failing step halts the
// run with the marker left at the last completed step.
func (e *Engine) Run(target string) error {
	start := time.Now()

	currentStr := e.CurrentDataVersion()
	current, err := ParseVersion(currentStr)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrorTypeMigration, "stored data version is unreadable", err)
	}
	targetVersion, err := ParseVersion(target)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrorTypeMigration, "invalid target version", err)
	}

	switch current.Compare(targetVersion) {
	case 0:
		e.logger.Debugf("data already at version %s, nothing to migrate", target)
		return nil
	case 1:
		return apperrors.NewAppError(apperrors.ErrorTypeMigration,
			fmt.Sprintf("stored data version %s is newer than this build's %s; downgrade is not supported", currentStr, target),
			nil)
	}

	plan := e.plan(current, targetVersion)

	bundleID := ""
	if e.backups != nil {
		id, existed, err := e.backups.EnsureMigrationBackup(currentStr, target)
		if err != nil {
			return apperrors.NewAppError(apperrors.ErrorTypeMigration, "could not take a pre-migration backup", err)
		}
		bundleID = id
		if existed {
			e.logger.Debugf("reusing pre-migration backup %s for %s -> %s", id, currentStr, target)
		}
	}

	data := NewDataset(e.store.Guard())
	stepsRun := 0
	for _, step := range plan {
		if err := step.Apply(data); err != nil {
			e.logger.LogMigrationExecution(currentStr, target, stepsRun, time.Since(start), err)
			stepErr := apperrors.NewAppError(apperrors.ErrorTypeMigration,
				fmt.Sprintf("migration to %s failed at step %q; data is at version %s", target, step.Name, e.CurrentDataVersion()),
				err)
			if bundleID != "" {
				stepErr = stepErr.WithContext("pre_migration_backup", bundleID)
			}
			return stepErr
		}
		if err := e.store.SetDataVersion(step.OutputVersion.String()); err != nil {
			e.logger.LogMigrationExecution(currentStr, target, stepsRun, time.Since(start), err)
			return apperrors.NewAppError(apperrors.ErrorTypeMigration,
				fmt.Sprintf("step %q succeeded but the version marker could not be persisted", step.Name), err)
		}
		stepsRun++
	}

	if err := e.store.SetDataVersion(target); err != nil {
		return apperrors.NewAppError(apperrors.ErrorTypeMigration, "could not persist final version marker", err)
	}
	e.logger.LogMigrationExecution(currentStr, target, stepsRun, time.Since(start), nil)
	return nil
}

// plan selects the steps with current < version <= target, already sorted
// ascending.
func (e *Engine) plan(current, target Version) []Step {
	var plan []Step
	for _, step := range e.steps {
		if step.OutputVersion.Compare(current) > 0 && step.OutputVersion.Compare(target) <= 0 {
			plan = append(plan, step)
		}
	}
	return plan
}
