package store

import (
	"encoding/json"
	"sort"
	"time"

	"invoicestore/internal/codec"
	"invoicestore/internal/config"
	apperrors "invoicestore/internal/errors"
	"invoicestore/internal/kv"
	"invoicestore/internal/logging"
)

// reclaimBackupFloor is how many of the newest stored backups survive a
// reclaim pass no matter what. It is deliberately independent of the
// retention configuration: raising the migration-list cap must not make
// reclaim keep more (or fewer) regular backups.
const reclaimBackupFloor = 3

// QuotaGuard mediates every write to the backend. The backend exposes no
// quota API, so the guard works from a configured capacity ceiling and from
// the backend's own rejections: writes that would exceed the ceiling trigger
// a reclaim pass over low-value keys, then a single retry. A write that
// still fails is reported as a recoverable quota error and the previous
// value of the key is left untouched.
type QuotaGuard struct {
	backend kv.Backend
	quota   config.QuotaConfig
	logger  *logging.Logger
}

// NewQuotaGuard creates a quota guard over the given backend.
func NewQuotaGuard(backend kv.Backend, quota config.QuotaConfig, logger *logging.Logger) *QuotaGuard {
	return &QuotaGuard{
		backend: backend,
		quota:   quota,
		logger:  logger,
	}
}

// EstimateUsage sums the byte size of every managed key and its value.
// Keys outside the application namespace are not counted; they are not
// ours to reclaim either.
func (g *QuotaGuard) EstimateUsage() int {
	total := 0
	for _, key := range g.backend.Keys() {
		if !IsManagedKey(key) {
			continue
		}
		if value, ok := g.backend.Get(key); ok {
			total += len(key) + len(value)
		}
	}
	return total
}

// HasHeadroom reports whether writing additional bytes would stay under the
// ceiling minus the safety margin. A zero ceiling disables the check.
func (g *QuotaGuard) HasHeadroom(additional int) bool {
	if g.quota.CapacityBytes <= 0 {
		return true
	}
	return g.EstimateUsage()+additional <= g.quota.CapacityBytes-g.quota.SafetyMarginBytes
}

// Write stores value under key through the guard. On quota pressure it
// reclaims low-value keys and retries exactly once. A write that would
// still exceed the ceiling after reclaiming is refused without touching
// the backend, so the configured ceiling binds even when the physical
// backend has room to spare.
func (g *QuotaGuard) Write(key, value string) error {
	delta := g.writeDelta(key, value)
	reclaimed := false

	if !g.HasHeadroom(delta) {
		g.reclaim(delta)
		reclaimed = true
		if !g.HasHeadroom(delta) {
			quotaErr := apperrors.NewQuotaExceededError(key, delta)
			g.logger.LogStoreWrite(key, len(value), reclaimed, quotaErr)
			return quotaErr
		}
	}

	err := g.backend.Set(key, value)
	if err != nil && kv.IsCapacityError(err) && !reclaimed {
		g.reclaim(delta)
		reclaimed = true
		err = g.backend.Set(key, value)
	}

	if err != nil {
		if kv.IsCapacityError(err) {
			quotaErr := apperrors.NewQuotaExceededError(key, delta)
			g.logger.LogStoreWrite(key, len(value), reclaimed, quotaErr)
			return quotaErr
		}
		g.logger.LogStoreWrite(key, len(value), reclaimed, err)
		return apperrors.WrapError(err, apperrors.ErrorTypeBackend, "failed to write key "+key)
	}

	g.logger.LogStoreWrite(key, len(value), reclaimed, nil)
	return nil
}

// Remove deletes key. Removals never need the guard.
func (g *QuotaGuard) Remove(key string) {
	g.backend.Remove(key)
}

// Read returns the raw value stored under key.
func (g *QuotaGuard) Read(key string) (string, bool) {
	return g.backend.Get(key)
}

// Backend exposes the underlying backend for read-side consumers.
func (g *QuotaGuard) Backend() kv.Backend {
	return g.backend
}

// writeDelta estimates the net byte change of writing value under key,
// accounting for any value being overwritten.
func (g *QuotaGuard) writeDelta(key, value string) int {
	delta := len(key) + len(value)
	if existing, ok := g.backend.Get(key); ok {
		delta -= len(key) + len(existing)
	}
	return delta
}

// reclaim frees space in fixed priority order, cheapest loss first:
//
//  1. stored backups beyond the reclaim floor, oldest first
//  2. the convenience caches (frequent services, last-used values)
//  3. per-customer defaults whose customer no longer exists
//
// Each stage stops as soon as enough bytes are freed. User records are
// never reclaimed.
func (g *QuotaGuard) reclaim(neededBytes int) int {
	freed := 0
	var removed []string

	freed += g.trimStoredBackups(neededBytes - freed)

	for _, key := range []string{KeyFrequentServices, KeyLastUsedValues} {
		if freed >= neededBytes && neededBytes > 0 {
			break
		}
		if value, ok := g.backend.Get(key); ok {
			g.backend.Remove(key)
			freed += len(key) + len(value)
			removed = append(removed, key)
		}
	}

	if freed < neededBytes || neededBytes <= 0 {
		f, r := g.removeOrphanedCustomerDefaults()
		freed += f
		removed = append(removed, r...)
	}

	g.logger.LogQuotaReclaim(neededBytes, freed, len(removed))
	return freed
}

// trimStoredBackups drops the oldest bundles from the regular backup list
// until only the reclaim floor remains or enough space is freed.
func (g *QuotaGuard) trimStoredBackups(neededBytes int) int {
	raw, ok := g.backend.Get(KeyBackups)
	if !ok || raw == "" {
		return 0
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return 0
	}
	floor := reclaimBackupFloor
	if len(entries) <= floor {
		return 0
	}

	type stamped struct {
		CreatedAt time.Time `json:"created_at"`
	}
	sort.SliceStable(entries, func(i, j int) bool {
		var a, b stamped
		_ = json.Unmarshal(entries[i], &a)
		_ = json.Unmarshal(entries[j], &b)
		return a.CreatedAt.After(b.CreatedAt)
	})

	kept := entries
	freed := 0
	for len(kept) > floor {
		if neededBytes > 0 && freed >= neededBytes {
			break
		}
		dropped := kept[len(kept)-1]
		kept = kept[:len(kept)-1]
		freed += len(dropped)
	}
	if len(kept) == len(entries) {
		return 0
	}

	trimmed, err := json.Marshal(kept)
	if err != nil {
		return 0
	}
	before := len(raw)
	if err := g.backend.Set(KeyBackups, string(trimmed)); err != nil {
		return 0
	}
	return before - len(trimmed)
}

// removeOrphanedCustomerDefaults drops defaults caches whose customer id no
// longer appears in the customer collection.
func (g *QuotaGuard) removeOrphanedCustomerDefaults() (int, []string) {
	known := make(map[string]bool)
	if raw, ok := g.backend.Get(KeyCustomers); ok {
		customers, _ := codec.DecodeCollection[codec.Customer](raw)
		for _, c := range customers {
			known[c.ID] = true
		}
	}

	freed := 0
	var removed []string
	for _, key := range g.backend.Keys() {
		id, isDefaults := IsCustomerDefaultsKey(key)
		if !isDefaults || known[id] {
			continue
		}
		if value, ok := g.backend.Get(key); ok {
			g.backend.Remove(key)
			freed += len(key) + len(value)
			removed = append(removed, key)
		}
	}
	return freed, removed
}
