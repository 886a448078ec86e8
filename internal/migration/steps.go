package migration

import (
	"math"
	"strconv"
	"strings"

	"invoicestore/internal/codec"
	"invoicestore/internal/store"
)

// Step upgrades stored data to OutputVersion. Every step is idempotent: it
// inspects the raw shape of each record and leaves already-migrated data
// untouched, so re-running a step after an interruption is harmless.
type Step struct {
	OutputVersion Version
	Name          string
	Apply         func(data *Dataset) error
}

// registeredSteps returns the schema history in registration order. The
// engine sorts by output version once at startup, so ordering here is for
// the reader, not the machine.
func registeredSteps() []Step {
	return []Step{
		{
			OutputVersion: MustParseVersion("1.1.0"),
			Name:          "rename invoice client fields to customer fields",
			Apply:         renameClientFields,
		},
		{
			OutputVersion: MustParseVersion("1.2.0"),
			Name:          "convert invoice amounts from dollars to integer cents",
			Apply:         convertAmountsToCents,
		},
		{
			OutputVersion: MustParseVersion("1.4.0"),
			Name:          "introduce customer records with invoice aggregates",
			Apply:         introduceCustomerRecords,
		},
		{
			OutputVersion: MustParseVersion("1.5.0"),
			Name:          "move next invoice number from settings to a sequence",
			Apply:         extractInvoiceNumberSequence,
		},
		{
			OutputVersion: MustParseVersion("1.6.0"),
			Name:          "normalize line item quantity to a number",
			Apply:         normalizeQuantities,
		},
	}
}

// renameClientFields moves the pre-1.1 `client`/`client_email` fields to
// `customer_name`/`customer_email`.
func renameClientFields(data *Dataset) error {
	invoices, err := data.LoadCollection(store.KeyInvoices)
	if err != nil {
		return err
	}
	changed := false
	for _, invoice := range invoices {
		changed = renameField(invoice, "client", "customer_name") || changed
		changed = renameField(invoice, "client_email", "customer_email") || changed
	}
	if !changed {
		return nil
	}
	return data.SaveCollection(store.KeyInvoices, invoices)
}

// convertAmountsToCents replaces the pre-1.2 floating dollar fields with
// integer cent fields on invoices and their line items.
func convertAmountsToCents(data *Dataset) error {
	invoices, err := data.LoadCollection(store.KeyInvoices)
	if err != nil {
		return err
	}
	changed := false
	for _, invoice := range invoices {
		changed = convertMoneyField(invoice, "subtotal", "subtotal_cents") || changed
		changed = convertMoneyField(invoice, "tax", "tax_cents") || changed
		changed = convertMoneyField(invoice, "total", "total_cents") || changed

		items, ok := invoice["items"].([]interface{})
		if !ok {
			continue
		}
		for _, raw := range items {
			item, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			changed = convertMoneyField(item, "unit_price", "unit_cents") || changed
			changed = convertMoneyField(item, "amount", "amount_cents") || changed
		}
	}
	if !changed {
		return nil
	}
	return data.SaveCollection(store.KeyInvoices, invoices)
}

// introduceCustomerRecords backfills the customer collection from invoices:
// every invoice without a customer_id is linked to a customer matched by
// name or newly created, and aggregate fields are recomputed from scratch.
func introduceCustomerRecords(data *Dataset) error {
	invoices, err := data.LoadCollection(store.KeyInvoices)
	if err != nil {
		return err
	}
	customers, err := data.LoadCollection(store.KeyCustomers)
	if err != nil {
		return err
	}

	byName := make(map[string]map[string]interface{})
	for _, customer := range customers {
		if name, ok := customer["name"].(string); ok {
			byName[strings.ToLower(strings.TrimSpace(name))] = customer
		}
	}

	linked := false
	for _, invoice := range invoices {
		if id, ok := invoice["customer_id"].(string); ok && id != "" {
			continue
		}
		name, _ := invoice["customer_name"].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			name = "Unnamed customer"
		}

		customer, exists := byName[strings.ToLower(name)]
		if !exists {
			customer = map[string]interface{}{
				"id":   codec.NewCustomerID(),
				"name": name,
			}
			if email, ok := invoice["customer_email"].(string); ok && email != "" {
				customer["email"] = email
			}
			byName[strings.ToLower(name)] = customer
			customers = append(customers, customer)
		}
		invoice["customer_id"] = customer["id"]
		linked = true
	}

	// Recomputing from scratch keeps this step idempotent.
	for _, customer := range customers {
		customer["invoice_count"] = 0
		customer["total_billed_cents"] = 0
	}
	for _, invoice := range invoices {
		id, _ := invoice["customer_id"].(string)
		customer := findCustomerByID(customers, id)
		if customer == nil {
			continue
		}
		customer["invoice_count"] = toInt(customer["invoice_count"]) + 1
		if status, _ := invoice["status"].(string); status != codec.InvoiceStatusVoid {
			customer["total_billed_cents"] = toInt(customer["total_billed_cents"]) + toInt(invoice["total_cents"])
		}
	}

	if err := data.SaveCollection(store.KeyCustomers, customers); err != nil {
		return err
	}
	if linked {
		return data.SaveCollection(store.KeyInvoices, invoices)
	}
	return nil
}

// extractInvoiceNumberSequence moves the pre-1.5 `next_invoice_number`
// settings field into the dedicated sequence key.
func extractInvoiceNumberSequence(data *Dataset) error {
	settings, exists, err := data.LoadObject(store.KeySettings)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	raw, present := settings["next_invoice_number"]
	if !present {
		return nil
	}

	next := toInt(raw)
	if next < 1 {
		next = 1
	}
	if err := data.WriteRaw(store.SequenceKey(store.SequenceInvoiceNumber), strconv.FormatInt(next, 10)); err != nil {
		return err
	}
	delete(settings, "next_invoice_number")
	return data.SaveObject(store.KeySettings, settings)
}

// normalizeQuantities coerces line item quantities that were stored as
// strings into numbers. An unparseable quantity becomes 1.
func normalizeQuantities(data *Dataset) error {
	invoices, err := data.LoadCollection(store.KeyInvoices)
	if err != nil {
		return err
	}
	changed := false
	for _, invoice := range invoices {
		items, ok := invoice["items"].([]interface{})
		if !ok {
			continue
		}
		for _, raw := range items {
			item, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			text, isString := item["quantity"].(string)
			if !isString {
				continue
			}
			quantity, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
			if err != nil || quantity <= 0 {
				quantity = 1
			}
			item["quantity"] = quantity
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return data.SaveCollection(store.KeyInvoices, invoices)
}

// renameField moves a value from one key to another, reporting whether it
// changed anything. A record that already carries the new key is skipped.
func renameField(record map[string]interface{}, from, to string) bool {
	value, present := record[from]
	if !present {
		return false
	}
	if _, alreadyMigrated := record[to]; !alreadyMigrated {
		record[to] = value
	}
	delete(record, from)
	return true
}

// convertMoneyField replaces a floating dollar field with a rounded integer
// cent field, reporting whether it changed anything.
func convertMoneyField(record map[string]interface{}, from, to string) bool {
	value, present := record[from]
	if !present {
		return false
	}
	if _, alreadyMigrated := record[to]; !alreadyMigrated {
		record[to] = dollarsToCents(value)
	}
	delete(record, from)
	return true
}

// dollarsToCents rounds a dollar amount to integer cents.
func dollarsToCents(value interface{}) int64 {
	switch v := value.(type) {
	case float64:
		return int64(math.Round(v * 100))
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return int64(math.Round(parsed * 100))
		}
	}
	return 0
}

// toInt coerces the numeric shapes encoding/json produces into an int64.
func toInt(value interface{}) int64 {
	switch v := value.(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	}
	return 0
}

// findCustomerByID scans raw customer rows for a matching id.
func findCustomerByID(customers []map[string]interface{}, id string) map[string]interface{} {
	if id == "" {
		return nil
	}
	for _, customer := range customers {
		if cid, ok := customer["id"].(string); ok && cid == id {
			return customer
		}
	}
	return nil
}
