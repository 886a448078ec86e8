package store

import (
	"strings"
	"time"

	"invoicestore/internal/codec"
	"invoicestore/internal/logging"
)

// InvoiceStore manages the invoice collection. Every invoice write also
// maintains the customer collection: the matching customer is created on
// first sight and its aggregate fields (invoice count, total billed, first
// and last seen) are recomputed from the invoices that reference it.
type InvoiceStore struct {
	invoices  *Collection[codec.Invoice]
	customers *Collection[codec.Customer]
	logger    *logging.Logger
}

// NewInvoiceStore creates an invoice store sharing the customer collection.
func NewInvoiceStore(guard *QuotaGuard, customers *Collection[codec.Customer], logger *logging.Logger) *InvoiceStore {
	return &InvoiceStore{
		invoices:  NewCollection[codec.Invoice](KeyInvoices, guard, logger),
		customers: customers,
		logger:    logger,
	}
}

// List returns all stored invoices.
func (s *InvoiceStore) List() []codec.Invoice {
	return s.invoices.LoadAll()
}

// Get returns the invoice with the given id.
func (s *InvoiceStore) Get(id string) (codec.Invoice, bool) {
	return s.invoices.FindByID(id)
}

// Save upserts the invoice and folds it into the customer collection. The
// invoice is linked to an existing customer by id, or by name when it
// carries no id yet; an unknown customer is created. Aggregates for the
// affected customer are recomputed from scratch so the operation stays
// idempotent.
func (s *InvoiceStore) Save(invoice codec.Invoice) (codec.Invoice, error) {
	if invoice.ID == "" {
		invoice.ID = codec.NewInvoiceID()
	}
	now := time.Now().UTC()
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = now
	}
	invoice.UpdatedAt = now

	customerID, err := s.ensureCustomer(invoice)
	if err != nil {
		return invoice, err
	}
	invoice.CustomerID = customerID

	if err := s.invoices.Upsert(invoice); err != nil {
		return invoice, err
	}
	return invoice, s.recomputeAggregates(customerID)
}

// Delete removes the invoice and recomputes the aggregates of the customer
// it referenced. The customer record itself is kept even at zero invoices.
func (s *InvoiceStore) Delete(id string) (bool, error) {
	invoice, found := s.invoices.FindByID(id)
	if !found {
		return false, nil
	}
	removed, err := s.invoices.Remove(id)
	if err != nil || !removed {
		return removed, err
	}
	if invoice.CustomerID != "" {
		return true, s.recomputeAggregates(invoice.CustomerID)
	}
	return true, nil
}

// RebuildCustomerAggregates recomputes every customer's aggregate fields
// from the invoice collection. Contact fields are preserved; customers not
// referenced by any invoice drop to zero counts but are not removed.
func (s *InvoiceStore) RebuildCustomerAggregates() error {
	customers := s.customers.LoadAll()
	byID := make(map[string]int, len(customers))
	for i, c := range customers {
		byID[c.ID] = i
		customers[i].InvoiceCount = 0
		customers[i].TotalBilledCents = 0
		customers[i].FirstSeen = time.Time{}
		customers[i].LastSeen = time.Time{}
	}

	for _, invoice := range s.invoices.LoadAll() {
		i, ok := byID[invoice.CustomerID]
		if !ok {
			continue
		}
		foldInvoice(&customers[i], invoice)
	}

	done := s.logger.LogOperationStart("rebuild customer aggregates", map[string]interface{}{
		"customers": len(customers),
	})
	err := s.customers.SaveAll(customers)
	done(err)
	return err
}

// ensureCustomer resolves the customer an invoice belongs to, creating one
// when none matches. Matching is by id, then by case-insensitive name.
func (s *InvoiceStore) ensureCustomer(invoice codec.Invoice) (string, error) {
	customers := s.customers.LoadAll()

	if invoice.CustomerID != "" {
		for _, c := range customers {
			if c.ID == invoice.CustomerID {
				return c.ID, nil
			}
		}
	}
	if name := strings.TrimSpace(invoice.CustomerName); name != "" {
		for _, c := range customers {
			if strings.EqualFold(c.Name, name) {
				return c.ID, nil
			}
		}
	}

	customer := codec.Customer{
		ID:    codec.NewCustomerID(),
		Name:  strings.TrimSpace(invoice.CustomerName),
		Email: invoice.CustomerEmail,
	}
	if customer.Name == "" {
		customer.Name = "Unnamed customer"
	}
	if err := s.customers.Upsert(customer); err != nil {
		return "", err
	}
	return customer.ID, nil
}

// recomputeAggregates rebuilds the aggregate fields of a single customer
// from the invoices that reference it.
func (s *InvoiceStore) recomputeAggregates(customerID string) error {
	customer, found := s.customers.FindByID(customerID)
	if !found {
		return nil
	}

	customer.InvoiceCount = 0
	customer.TotalBilledCents = 0
	customer.FirstSeen = time.Time{}
	customer.LastSeen = time.Time{}
	for _, invoice := range s.invoices.LoadAll() {
		if invoice.CustomerID != customerID {
			continue
		}
		foldInvoice(&customer, invoice)
	}
	return s.customers.Upsert(customer)
}

// foldInvoice accumulates one invoice into a customer's aggregates. Voided
// invoices count toward the invoice count but not toward the billed total.
func foldInvoice(customer *codec.Customer, invoice codec.Invoice) {
	customer.InvoiceCount++
	if invoice.Status != codec.InvoiceStatusVoid {
		customer.TotalBilledCents += invoice.TotalCents
	}

	seen := invoice.IssuedAt
	if seen.IsZero() {
		seen = invoice.CreatedAt
	}
	if customer.FirstSeen.IsZero() || seen.Before(customer.FirstSeen) {
		customer.FirstSeen = seen
	}
	if seen.After(customer.LastSeen) {
		customer.LastSeen = seen
	}
}
