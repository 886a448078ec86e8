package store

import (
	"fmt"

	"invoicestore/internal/codec"
	"invoicestore/internal/config"
	apperrors "invoicestore/internal/errors"
	"invoicestore/internal/kv"
	"invoicestore/internal/logging"
)

// probeKey is written and removed once at startup to verify the backend
// accepts writes at all.
const probeKey = KeyPrefix + "availability-probe"

// Store aggregates the persistence core: the quota-guarded backend and the
// typed stores on top of it. When the configured backend fails its startup
// probe, the store falls back to an in-memory backend so the application
// keeps running with session-only persistence.
type Store struct {
	guard     *QuotaGuard
	logger    *logging.Logger
	closer    func() error
	degraded  bool
	Invoices  *InvoiceStore
	Customers *CustomerStore
	Settings  *SettingsStore
	Sequences *SequenceStore
	Caches    *CacheStore
}

// Open builds the backend named by the configuration, probes it, and wires
// the typed stores. A failed probe degrades to memory instead of failing.
func Open(cfg *config.Config, logger *logging.Logger) (*Store, error) {
	backend, closer, err := openBackend(cfg.Backend)
	degraded := false
	if err == nil {
		err = probe(backend)
	}
	if err != nil {
		logger.Warnf("backend %q unavailable (%v), continuing with in-memory storage", cfg.Backend.Type, err)
		backend = kv.NewMemoryBackend(cfg.Quota.CapacityBytes)
		closer = nil
		degraded = true
		if probeErr := probe(backend); probeErr != nil {
			return nil, apperrors.WrapError(probeErr, apperrors.ErrorTypeBackend, "in-memory fallback failed its probe")
		}
	}

	guard := NewQuotaGuard(backend, cfg.Quota, logger)
	customers := NewCollection[codec.Customer](KeyCustomers, guard, logger)

	return &Store{
		guard:     guard,
		logger:    logger,
		closer:    closer,
		degraded:  degraded,
		Invoices:  NewInvoiceStore(guard, customers, logger),
		Customers: NewCustomerStore(customers, guard, logger),
		Settings:  NewSettingsStore(guard, logger),
		Sequences: NewSequenceStore(guard, logger),
		Caches:    NewCacheStore(guard, logger),
	}, nil
}

// openBackend constructs the backend named by the configuration.
func openBackend(cfg config.BackendConfig) (kv.Backend, func() error, error) {
	switch cfg.Type {
	case "memory":
		return kv.NewMemoryBackend(0), nil, nil
	case "file":
		backend, err := kv.NewFileBackend(cfg.Path)
		return backend, nil, err
	case "sqlite":
		backend, err := kv.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return backend, backend.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend type %q", cfg.Type)
	}
}

// probe verifies the backend round-trips a value.
func probe(backend kv.Backend) error {
	if backend == nil {
		return fmt.Errorf("no backend")
	}
	if err := backend.Set(probeKey, "ok"); err != nil {
		return err
	}
	value, ok := backend.Get(probeKey)
	backend.Remove(probeKey)
	if !ok || value != "ok" {
		return fmt.Errorf("probe value did not round-trip")
	}
	return nil
}

// Degraded reports whether the store fell back to in-memory persistence.
func (s *Store) Degraded() bool {
	return s.degraded
}

// Guard exposes the quota guard for the backup and migration layers, which
// operate on raw keys.
func (s *Store) Guard() *QuotaGuard {
	return s.guard
}

// DataVersion returns the stored schema version, or the empty string when
// no version marker exists yet.
func (s *Store) DataVersion() string {
	version, _ := s.guard.Read(KeyDataVersion)
	return version
}

// SetDataVersion persists the schema version marker.
func (s *Store) SetDataVersion(version string) error {
	return s.guard.Write(KeyDataVersion, version)
}

// Usage returns the estimated managed byte usage and the configured ceiling.
func (s *Store) Usage() (used, capacity int) {
	return s.guard.EstimateUsage(), s.guard.quota.CapacityBytes
}

// Close releases the backend if it holds external resources.
func (s *Store) Close() error {
	if s.closer != nil {
		return s.closer()
	}
	return nil
}
