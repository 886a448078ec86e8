package store

import (
	"sort"
	"strings"

	"invoicestore/internal/codec"
	"invoicestore/internal/logging"
)

// CustomerStore manages the customer collection. Aggregate fields on
// customers are owned by the invoice store; this store covers the contact
// side: lookups, edits, and deletion.
type CustomerStore struct {
	customers *Collection[codec.Customer]
	guard     *QuotaGuard
}

// NewCustomerStore creates a customer store over the shared collection.
func NewCustomerStore(collection *Collection[codec.Customer], guard *QuotaGuard, logger *logging.Logger) *CustomerStore {
	return &CustomerStore{customers: collection, guard: guard}
}

// List returns all customers sorted by name.
func (s *CustomerStore) List() []codec.Customer {
	customers := s.customers.LoadAll()
	sort.Slice(customers, func(i, j int) bool {
		return strings.ToLower(customers[i].Name) < strings.ToLower(customers[j].Name)
	})
	return customers
}

// Get returns the customer with the given id.
func (s *CustomerStore) Get(id string) (codec.Customer, bool) {
	return s.customers.FindByID(id)
}

// FindByName returns the customer whose name matches case-insensitively.
func (s *CustomerStore) FindByName(name string) (codec.Customer, bool) {
	name = strings.TrimSpace(name)
	for _, c := range s.customers.LoadAll() {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return codec.Customer{}, false
}

// Save upserts the customer's contact fields. Aggregates of an existing
// customer are preserved so a contact edit cannot clobber invoice-derived
// counts.
func (s *CustomerStore) Save(customer codec.Customer) (codec.Customer, error) {
	if customer.ID == "" {
		customer.ID = codec.NewCustomerID()
	}
	if existing, found := s.customers.FindByID(customer.ID); found {
		customer.InvoiceCount = existing.InvoiceCount
		customer.TotalBilledCents = existing.TotalBilledCents
		customer.FirstSeen = existing.FirstSeen
		customer.LastSeen = existing.LastSeen
	}
	return customer, s.customers.Upsert(customer)
}

// Delete removes the customer and its remembered defaults cache.
func (s *CustomerStore) Delete(id string) (bool, error) {
	removed, err := s.customers.Remove(id)
	if removed {
		s.guard.Remove(CustomerDefaultsKey(id))
	}
	return removed, err
}
