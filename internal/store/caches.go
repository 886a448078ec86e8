package store

import (
	"sort"

	"invoicestore/internal/codec"
	"invoicestore/internal/logging"
)

// ServiceUsage tracks how often a line-item description has been billed, so
// the most frequent services can be suggested first.
type ServiceUsage struct {
	Description string `json:"description"`
	UnitCents   int64  `json:"unit_cents"`
	Count       int    `json:"count"`
}

// CustomerDefaults remembers the values last used on an invoice for one
// customer.
type CustomerDefaults struct {
	TaxBasisPts     int64  `json:"tax_basis_points"`
	PaymentTermDays int    `json:"payment_term_days"`
	Notes           string `json:"notes,omitempty"`
}

// CacheStore manages the convenience caches: frequent services, last-used
// values, and per-customer defaults. All of them are best-effort. They are
// first in line for reclaim under quota pressure, so every reader must
// tolerate their absence and every write failure is swallowed after logging.
type CacheStore struct {
	guard  *QuotaGuard
	logger *logging.Logger
}

// NewCacheStore creates a cache store over the guard.
func NewCacheStore(guard *QuotaGuard, logger *logging.Logger) *CacheStore {
	return &CacheStore{guard: guard, logger: logger}
}

// FrequentServices returns the recorded service usages, most used first.
func (s *CacheStore) FrequentServices() []ServiceUsage {
	raw, ok := s.guard.Read(KeyFrequentServices)
	if !ok {
		return nil
	}
	usages, decoded := codec.DecodeValue[[]ServiceUsage](raw)
	if !decoded {
		s.logger.LogDecodeDrops(KeyFrequentServices, 0, 1)
		return nil
	}
	sort.SliceStable(usages, func(i, j int) bool {
		return usages[i].Count > usages[j].Count
	})
	return usages
}

// RecordServices bumps usage counts for the line items of a saved invoice.
// Failures are logged and dropped; a lost cache update never fails a save.
func (s *CacheStore) RecordServices(items []codec.LineItem) {
	usages := s.FrequentServices()
	for _, item := range items {
		if item.Description == "" {
			continue
		}
		found := false
		for i := range usages {
			if usages[i].Description == item.Description {
				usages[i].Count++
				usages[i].UnitCents = item.UnitCents
				found = true
				break
			}
		}
		if !found {
			usages = append(usages, ServiceUsage{
				Description: item.Description,
				UnitCents:   item.UnitCents,
				Count:       1,
			})
		}
	}

	encoded, err := codec.Encode(usages)
	if err == nil {
		err = s.guard.Write(KeyFrequentServices, encoded)
	}
	if err != nil {
		s.logger.Debugf("dropping frequent-services cache update: %v", err)
	}
}

// LastUsedValues remembers the values used on the most recently created
// invoice, regardless of customer.
type LastUsedValues struct {
	TaxBasisPts     int64  `json:"tax_basis_points"`
	PaymentTermDays int    `json:"payment_term_days"`
	Notes           string `json:"notes,omitempty"`
}

// LastUsed returns the values used on the most recent invoice, if recorded.
func (s *CacheStore) LastUsed() (LastUsedValues, bool) {
	raw, ok := s.guard.Read(KeyLastUsedValues)
	if !ok {
		return LastUsedValues{}, false
	}
	values, decoded := codec.DecodeValue[LastUsedValues](raw)
	return values, decoded
}

// RememberLastUsed stores the values used on the most recent invoice.
// Best-effort.
func (s *CacheStore) RememberLastUsed(values LastUsedValues) {
	encoded, err := codec.Encode(values)
	if err == nil {
		err = s.guard.Write(KeyLastUsedValues, encoded)
	}
	if err != nil {
		s.logger.Debugf("dropping last-used-values cache update: %v", err)
	}
}

// DefaultsFor returns the remembered defaults for a customer, if any.
func (s *CacheStore) DefaultsFor(customerID string) (CustomerDefaults, bool) {
	raw, ok := s.guard.Read(CustomerDefaultsKey(customerID))
	if !ok {
		return CustomerDefaults{}, false
	}
	defaults, decoded := codec.DecodeValue[CustomerDefaults](raw)
	return defaults, decoded
}

// RememberDefaults stores the values last used for a customer. Best-effort.
func (s *CacheStore) RememberDefaults(customerID string, defaults CustomerDefaults) {
	encoded, err := codec.Encode(defaults)
	if err == nil {
		err = s.guard.Write(CustomerDefaultsKey(customerID), encoded)
	}
	if err != nil {
		s.logger.Debugf("dropping customer-defaults cache update for %s: %v", customerID, err)
	}
}
