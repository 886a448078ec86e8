// Package codec defines the invoicing domain records and their serialized
// form. Encoding is plain JSON; decoding is deliberately forgiving at the
// collection level so one corrupted record never takes down a whole store.
package codec

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record is implemented by every entity stored in an id-keyed collection.
type Record interface {
	// RecordID returns the record's opaque unique id within its collection.
	RecordID() string
	// Validate reports whether the record carries its required fields.
	Validate() error
}

// LineItem is a single billed line on an invoice. Quantities and amounts
// arrive pre-computed from the calculators; the store persists them unchanged.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitCents   int64   `json:"unit_cents"`
	AmountCents int64   `json:"amount_cents"`
}

// Invoice is one issued (or draft) invoice. Monetary amounts are integer
// cents. The customer-identifying fields are denormalized onto the invoice;
// the Customer store's aggregates are derived from them.
type Invoice struct {
	ID            string     `json:"id"`
	Number        int64      `json:"number"`
	CustomerID    string     `json:"customer_id"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email,omitempty"`
	IssuedAt      time.Time  `json:"issued_at"`
	DueAt         time.Time  `json:"due_at,omitempty"`
	Items         []LineItem `json:"items"`
	SubtotalCents int64      `json:"subtotal_cents"`
	TaxBasisPts   int64      `json:"tax_basis_points"`
	TaxCents      int64      `json:"tax_cents"`
	TotalCents    int64      `json:"total_cents"`
	Status        string     `json:"status"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Invoice statuses
const (
	InvoiceStatusDraft = "draft"
	InvoiceStatusSent  = "sent"
	InvoiceStatusPaid  = "paid"
	InvoiceStatusVoid  = "void"
)

// RecordID returns the invoice id
func (inv Invoice) RecordID() string {
	return inv.ID
}

// Validate checks the invoice's required fields
func (inv Invoice) Validate() error {
	if inv.ID == "" {
		return fmt.Errorf("invoice id is required")
	}
	if inv.CustomerName == "" {
		return fmt.Errorf("invoice %s: customer name is required", inv.ID)
	}
	if inv.Number < 0 {
		return fmt.Errorf("invoice %s: number cannot be negative", inv.ID)
	}
	if inv.TotalCents < 0 {
		return fmt.Errorf("invoice %s: total cannot be negative", inv.ID)
	}
	return nil
}

// Customer is one billing counterparty. InvoiceCount, TotalBilledCents and
// the seen timestamps are a denormalized cache maintained by the invoice
// store and rebuildable from invoices alone.
type Customer struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	Address          string    `json:"address,omitempty"`
	InvoiceCount     int64     `json:"invoice_count"`
	TotalBilledCents int64     `json:"total_billed_cents"`
	FirstSeen        time.Time `json:"first_seen"`
	LastSeen         time.Time `json:"last_seen"`
}

// RecordID returns the customer id
func (c Customer) RecordID() string {
	return c.ID
}

// Validate checks the customer's required fields
func (c Customer) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("customer id is required")
	}
	if c.Name == "" {
		return fmt.Errorf("customer %s: name is required", c.ID)
	}
	if c.InvoiceCount < 0 {
		return fmt.Errorf("customer %s: invoice count cannot be negative", c.ID)
	}
	return nil
}

// Settings is the singleton business profile bundle.
type Settings struct {
	BusinessName    string `json:"business_name"`
	Address         string `json:"address,omitempty"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	TaxID           string `json:"tax_id,omitempty"`
	Currency        string `json:"currency"`
	TaxBasisPts     int64  `json:"tax_basis_points"`
	PaymentTermDays int    `json:"payment_term_days"`
	InvoiceFooter   string `json:"invoice_footer,omitempty"`
}

// Validate checks structural invariants of the settings document.
func (s Settings) Validate() error {
	if s.Currency == "" {
		return fmt.Errorf("settings: currency is required")
	}
	if s.TaxBasisPts < 0 || s.TaxBasisPts > 10000 {
		return fmt.Errorf("settings: tax rate must be between 0 and 10000 basis points")
	}
	if s.PaymentTermDays < 0 {
		return fmt.Errorf("settings: payment term cannot be negative")
	}
	return nil
}

// DefaultSettings returns the settings used before the user configures any.
func DefaultSettings() Settings {
	return Settings{
		Currency:        "USD",
		PaymentTermDays: 30,
	}
}

// NewInvoiceID generates a unique invoice record id
func NewInvoiceID() string {
	return newRecordID("inv")
}

// NewCustomerID generates a unique customer record id
func NewCustomerID() string {
	return newRecordID("cus")
}

// newRecordID builds a sortable unique id: a timestamp prefix plus a short
// random suffix.
func newRecordID(prefix string) string {
	timestamp := time.Now().UTC().Format("20060102-150405")
	shortUUID := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s-%s-%s", prefix, timestamp, shortUUID)
}
