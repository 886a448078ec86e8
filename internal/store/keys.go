// Package store implements the persistence core: quota-guarded writes over a
// key-value backend, typed record collections for invoices, customers and
// settings, monotonic sequence counters, and the shared key layout.
package store

import "strings"

// KeyPrefix namespaces every key this application owns so that unrelated
// entries sharing the backend are never read, reclaimed, or restored over.
const KeyPrefix = "invoicestore:"

// Well-known keys. All are full keys including the namespace prefix.
const (
	KeyInvoices         = KeyPrefix + "invoices"
	KeyCustomers        = KeyPrefix + "customers"
	KeySettings         = KeyPrefix + "settings"
	KeyDataVersion      = KeyPrefix + "data-version"
	KeyBackups          = KeyPrefix + "backups"
	KeyMigrationBackups = KeyPrefix + "migration-backups"
	KeyLastBackupAt     = KeyPrefix + "last-backup-at"

	// Convenience caches. Reclaimable under quota pressure.
	KeyFrequentServices = KeyPrefix + "frequent-services"
	KeyLastUsedValues   = KeyPrefix + "last-used-values"
)

const (
	sequenceKeyPrefix         = KeyPrefix + "sequence:"
	customerDefaultsKeyPrefix = KeyPrefix + "customer-defaults:"
)

// SequenceKey returns the full key for a named sequence counter.
func SequenceKey(name string) string {
	return sequenceKeyPrefix + name
}

// CustomerDefaultsKey returns the full key for a customer's remembered
// per-customer defaults cache.
func CustomerDefaultsKey(customerID string) string {
	return customerDefaultsKeyPrefix + customerID
}

// IsManagedKey reports whether key belongs to this application's namespace.
func IsManagedKey(key string) bool {
	return strings.HasPrefix(key, KeyPrefix)
}

// IsSequenceKey reports whether key is a sequence counter key.
func IsSequenceKey(key string) bool {
	return strings.HasPrefix(key, sequenceKeyPrefix)
}

// IsCustomerDefaultsKey reports whether key is a per-customer defaults key,
// returning the customer id when it is.
func IsCustomerDefaultsKey(key string) (string, bool) {
	if !strings.HasPrefix(key, customerDefaultsKeyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, customerDefaultsKeyPrefix), true
}
