package display

import (
	"fmt"
	"strings"
	"time"

	"invoicestore/internal/backup"
	"invoicestore/internal/codec"
)

// Service formats domain records for terminal output.
type Service struct {
	colors ColorSystem
}

// NewService creates a display service with terminal detection.
func NewService() *Service {
	return &Service{colors: NewColorSystem()}
}

// FormatMoney renders integer cents as a decimal amount with the currency.
func FormatMoney(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, currency)
}

// FormatBytes renders a byte count in a human scale.
func FormatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// InvoiceList renders invoices as a table.
func (s *Service) InvoiceList(invoices []codec.Invoice, currency string) string {
	if len(invoices) == 0 {
		return s.colors.Colorize("no invoices", ColorDim) + "\n"
	}

	table := NewTable(s.colors, "NUMBER", "CUSTOMER", "ISSUED", "TOTAL", "STATUS")
	for _, inv := range invoices {
		issued := ""
		if !inv.IssuedAt.IsZero() {
			issued = inv.IssuedAt.Format("2006-01-02")
		}
		table.AddRow(
			fmt.Sprintf("%d", inv.Number),
			inv.CustomerName,
			issued,
			FormatMoney(inv.TotalCents, currency),
			s.statusLabel(inv.Status),
		)
	}
	return table.Render()
}

// statusLabel colors an invoice status.
func (s *Service) statusLabel(status string) string {
	switch status {
	case codec.InvoiceStatusPaid:
		return s.colors.Colorize(status, ColorGreen)
	case codec.InvoiceStatusVoid:
		return s.colors.Colorize(status, ColorDim)
	case codec.InvoiceStatusSent:
		return s.colors.Colorize(status, ColorCyan)
	default:
		return status
	}
}

// CustomerList renders customers and their aggregates as a table.
func (s *Service) CustomerList(customers []codec.Customer, currency string) string {
	if len(customers) == 0 {
		return s.colors.Colorize("no customers", ColorDim) + "\n"
	}

	table := NewTable(s.colors, "NAME", "EMAIL", "INVOICES", "TOTAL BILLED", "LAST SEEN")
	for _, c := range customers {
		lastSeen := ""
		if !c.LastSeen.IsZero() {
			lastSeen = c.LastSeen.Format("2006-01-02")
		}
		table.AddRow(
			c.Name,
			c.Email,
			fmt.Sprintf("%d", c.InvoiceCount),
			FormatMoney(c.TotalBilledCents, currency),
			lastSeen,
		)
	}
	return table.Render()
}

// BackupList renders bundles as a table.
func (s *Service) BackupList(bundles []backup.Bundle) string {
	if len(bundles) == 0 {
		return s.colors.Colorize("no backups", ColorDim) + "\n"
	}

	table := NewTable(s.colors, "ID", "TAG", "CREATED", "SCHEMA", "SIZE")
	for _, b := range bundles {
		table.AddRow(
			b.ID,
			b.Tag,
			b.CreatedAt.Format(time.RFC3339),
			b.SchemaVersion,
			FormatBytes(len(b.Payload)),
		)
	}
	return table.Render()
}

// RestoreResult renders the per-collection outcomes of a restore.
func (s *Service) RestoreResult(result *backup.RestoreResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "restored bundle %s (schema %s)\n", result.BundleID, result.SchemaVersion)
	for _, c := range result.Collections {
		switch {
		case c.Error != "":
			fmt.Fprintf(&b, "  %s %s: %s\n", s.colors.Colorize("FAIL", ColorRed), c.Key, c.Error)
		case c.Restored:
			fmt.Fprintf(&b, "  %s %s\n", s.colors.Colorize("ok", ColorGreen), c.Key)
		default:
			fmt.Fprintf(&b, "  %s %s (not in bundle)\n", s.colors.Colorize("--", ColorDim), c.Key)
		}
	}
	return b.String()
}

// Usage renders storage usage against the configured ceiling.
func (s *Service) Usage(used, capacity int) string {
	if capacity <= 0 {
		return fmt.Sprintf("storage used: %s (no ceiling configured)\n", FormatBytes(used))
	}

	percent := float64(used) / float64(capacity) * 100
	label := fmt.Sprintf("storage used: %s of %s (%.1f%%)", FormatBytes(used), FormatBytes(capacity), percent)
	switch {
	case percent >= 90:
		label = s.colors.Colorize(label, ColorRed)
	case percent >= 70:
		label = s.colors.Colorize(label, ColorYellow)
	}
	return label + "\n"
}
