package store

import (
	"sync"

	"invoicestore/internal/codec"
	apperrors "invoicestore/internal/errors"
	"invoicestore/internal/logging"
)

// Collection is a typed record collection stored as one JSON document under
// a single key. Reads are tolerant: corrupt entries are dropped and logged,
// never propagated as errors. Writes go through the quota guard and replace
// the whole document. The mutex serializes read-modify-write sequences from
// concurrent goroutines; cross-process coordination stays out of scope.
type Collection[T codec.Record] struct {
	key    string
	guard  *QuotaGuard
	logger *logging.Logger
	mu     sync.Mutex
}

// NewCollection creates a collection bound to the given key.
func NewCollection[T codec.Record](key string, guard *QuotaGuard, logger *logging.Logger) *Collection[T] {
	return &Collection[T]{key: key, guard: guard, logger: logger}
}

// Key returns the backend key the collection is stored under.
func (c *Collection[T]) Key() string {
	return c.key
}

// LoadAll returns every valid record in the collection. A missing key, a
// malformed document, or individually corrupt entries all degrade to fewer
// records, never to an error.
func (c *Collection[T]) LoadAll() []T {
	raw, ok := c.guard.Read(c.key)
	if !ok {
		return []T{}
	}
	records, dropped := codec.DecodeCollection[T](raw)
	c.logger.LogDecodeDrops(c.key, len(records), dropped)
	return records
}

// SaveAll replaces the collection with the given records.
func (c *Collection[T]) SaveAll(records []T) error {
	encoded, err := codec.EncodeCollection(records)
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrorTypeValidation, "failed to encode collection "+c.key)
	}
	return c.guard.Write(c.key, encoded)
}

// FindByID returns the record with the given id.
func (c *Collection[T]) FindByID(id string) (T, bool) {
	for _, record := range c.LoadAll() {
		if record.RecordID() == id {
			return record, true
		}
	}
	var zero T
	return zero, false
}

// Upsert inserts the record, or replaces the existing record with the same
// id. The record is validated before anything is written.
func (c *Collection[T]) Upsert(record T) error {
	if err := record.Validate(); err != nil {
		return apperrors.WrapError(err, apperrors.ErrorTypeValidation, "invalid record for "+c.key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	records := c.LoadAll()
	replaced := false
	for i, existing := range records {
		if existing.RecordID() == record.RecordID() {
			records[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, record)
	}
	return c.SaveAll(records)
}

// Remove deletes the record with the given id. It reports whether a record
// was removed; a missing id is not an error.
func (c *Collection[T]) Remove(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records := c.LoadAll()
	kept := records[:0]
	removed := false
	for _, record := range records {
		if record.RecordID() == id {
			removed = true
			continue
		}
		kept = append(kept, record)
	}
	if !removed {
		return false, nil
	}
	return removed, c.SaveAll(kept)
}

// Count returns the number of valid records currently stored.
func (c *Collection[T]) Count() int {
	return len(c.LoadAll())
}
