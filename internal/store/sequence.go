package store

import (
	"strconv"
	"sync"

	"invoicestore/internal/logging"
)

// SequenceName identifiers for the counters the application maintains.
const (
	SequenceInvoiceNumber = "invoice-number"
)

// SequenceStore manages named monotonic counters, most importantly the next
// invoice number. Peeking at a counter never persists anything: a fresh or
// corrupted counter reads as 1 and is only written back when advanced.
type SequenceStore struct {
	guard  *QuotaGuard
	logger *logging.Logger
	mu     sync.Mutex
}

// NewSequenceStore creates a sequence store over the guard.
func NewSequenceStore(guard *QuotaGuard, logger *logging.Logger) *SequenceStore {
	return &SequenceStore{guard: guard, logger: logger}
}

// Next returns the current value of the named counter without consuming it.
// Missing and unparseable values both read as 1.
func (s *SequenceStore) Next(name string) int64 {
	raw, ok := s.guard.Read(SequenceKey(name))
	if !ok {
		return 1
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 1 {
		s.logger.LogDecodeDrops(SequenceKey(name), 0, 1)
		return 1
	}
	return value
}

// Advance allocates the current value of the named counter and persists the
// successor. It returns the allocated value: the counter stores the NEXT
// number to hand out, so the value Advance returns is the one the caller may
// stamp on an invoice. Concurrent advances are serialized so the counter
// never hands out the same number twice.
func (s *SequenceStore) Advance(name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.Next(name)
	if err := s.guard.Write(SequenceKey(name), strconv.FormatInt(current+1, 10)); err != nil {
		return 0, err
	}
	return current, nil
}

// Set forces the named counter to a specific value. Used by import and
// restore, which carry the counter inside their documents.
func (s *SequenceStore) Set(name string, value int64) error {
	if value < 1 {
		value = 1
	}
	return s.guard.Write(SequenceKey(name), strconv.FormatInt(value, 10))
}
