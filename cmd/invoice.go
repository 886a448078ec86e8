package cmd

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"invoicestore/internal/codec"
	"invoicestore/internal/display"
	"invoicestore/internal/store"
)

// createInvoiceCommand creates the invoice command group
func createInvoiceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Manage invoices",
	}

	cmd.AddCommand(createInvoiceListCommand())
	cmd.AddCommand(createInvoiceAddCommand())
	cmd.AddCommand(createInvoiceStatusCommand())
	cmd.AddCommand(createInvoiceRemoveCommand())
	return cmd
}

func createInvoiceListCommand() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			invoices := app.store.Invoices.List()
			if status != "" {
				filtered := invoices[:0]
				for _, inv := range invoices {
					if inv.Status == status {
						filtered = append(filtered, inv)
					}
				}
				invoices = filtered
			}

			currency := app.store.Settings.Load().Currency
			fmt.Print(app.display.InvoiceList(invoices, currency))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (draft, sent, paid, void)")
	return cmd
}

func createInvoiceAddCommand() *cobra.Command {
	var (
		customerName  string
		customerEmail string
		items         []string
		taxBasisPts   int64
		dueDays       int
		notes         string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a draft invoice",
		Long: `Create a draft invoice for a customer. Each --item takes the form
"description:quantity:unit_price" with the unit price in decimal currency,
e.g. --item "Consulting:2:75.00". The invoice number is taken from the
invoice number sequence.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if customerName == "" {
				return fmt.Errorf("--customer is required")
			}
			if len(items) == 0 {
				return fmt.Errorf("at least one --item is required")
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			lineItems, err := parseLineItems(items)
			if err != nil {
				return err
			}

			settings := app.store.Settings.Load()
			if !cmd.Flags().Changed("tax-bps") {
				taxBasisPts = settings.TaxBasisPts
			}
			if !cmd.Flags().Changed("due-days") {
				dueDays = settings.PaymentTermDays
			}

			// Values from the most recent invoice win over global settings.
			if last, ok := app.store.Caches.LastUsed(); ok {
				if !cmd.Flags().Changed("tax-bps") {
					taxBasisPts = last.TaxBasisPts
				}
				if !cmd.Flags().Changed("due-days") && last.PaymentTermDays > 0 {
					dueDays = last.PaymentTermDays
				}
			}

			// Defaults remembered for the customer win over global settings.
			if existing, ok := app.store.Customers.FindByName(customerName); ok {
				if defaults, ok := app.store.Caches.DefaultsFor(existing.ID); ok {
					if !cmd.Flags().Changed("tax-bps") {
						taxBasisPts = defaults.TaxBasisPts
					}
					if !cmd.Flags().Changed("due-days") && defaults.PaymentTermDays > 0 {
						dueDays = defaults.PaymentTermDays
					}
					if notes == "" {
						notes = defaults.Notes
					}
				}
			}

			number, err := app.store.Sequences.Advance(store.SequenceInvoiceNumber)
			if err != nil {
				return fmt.Errorf("failed to advance invoice number: %w", err)
			}

			now := time.Now().UTC()
			invoice := codec.Invoice{
				Number:        number,
				CustomerName:  customerName,
				CustomerEmail: customerEmail,
				IssuedAt:      now,
				DueAt:         now.AddDate(0, 0, dueDays),
				Items:         lineItems,
				TaxBasisPts:   taxBasisPts,
				Status:        codec.InvoiceStatusDraft,
				Notes:         notes,
			}
			totalInvoice(&invoice)

			saved, err := app.store.Invoices.Save(invoice)
			if err != nil {
				return fmt.Errorf("failed to save invoice: %w", err)
			}

			app.store.Caches.RecordServices(saved.Items)
			app.store.Caches.RememberDefaults(saved.CustomerID, store.CustomerDefaults{
				TaxBasisPts:     saved.TaxBasisPts,
				PaymentTermDays: dueDays,
				Notes:           saved.Notes,
			})
			app.store.Caches.RememberLastUsed(store.LastUsedValues{
				TaxBasisPts:     saved.TaxBasisPts,
				PaymentTermDays: dueDays,
				Notes:           saved.Notes,
			})

			fmt.Printf("Created invoice %d for %s, total %s\n",
				saved.Number, saved.CustomerName, display.FormatMoney(saved.TotalCents, settings.Currency))
			return nil
		},
	}

	cmd.Flags().StringVar(&customerName, "customer", "", "customer name")
	cmd.Flags().StringVar(&customerEmail, "email", "", "customer email")
	cmd.Flags().StringArrayVar(&items, "item", nil, `line item as "description:quantity:unit_price" (repeatable)`)
	cmd.Flags().Int64Var(&taxBasisPts, "tax-bps", 0, "tax rate in basis points (default from settings)")
	cmd.Flags().IntVar(&dueDays, "due-days", 0, "payment term in days (default from settings)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	return cmd
}

func createInvoiceStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <draft|sent|paid|void>",
		Short: "Change an invoice's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, status := args[0], args[1]
			switch status {
			case codec.InvoiceStatusDraft, codec.InvoiceStatusSent, codec.InvoiceStatusPaid, codec.InvoiceStatusVoid:
			default:
				return fmt.Errorf("unknown status %q", status)
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			invoice, ok := app.store.Invoices.Get(id)
			if !ok {
				return fmt.Errorf("invoice %s not found", id)
			}

			invoice.Status = status
			if _, err := app.store.Invoices.Save(invoice); err != nil {
				return fmt.Errorf("failed to save invoice: %w", err)
			}

			fmt.Printf("Invoice %d is now %s\n", invoice.Number, status)
			return nil
		},
	}
}

func createInvoiceRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ok, err := app.confirm.Confirm(
				fmt.Sprintf("Delete invoice %s? The customer's billed totals will be recomputed.", args[0]),
				autoApprove)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted.")
				return nil
			}

			removed, err := app.store.Invoices.Delete(args[0])
			if err != nil {
				return fmt.Errorf("failed to delete invoice: %w", err)
			}
			if !removed {
				return fmt.Errorf("invoice %s not found", args[0])
			}

			fmt.Printf("Deleted invoice %s\n", args[0])
			return nil
		},
	}
}

// parseLineItems parses "description:quantity:unit_price" flags.
func parseLineItems(specs []string) ([]codec.LineItem, error) {
	items := make([]codec.LineItem, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid item %q, expected description:quantity:unit_price", spec)
		}

		quantity, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || quantity <= 0 {
			return nil, fmt.Errorf("invalid quantity in item %q", spec)
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil || price < 0 {
			return nil, fmt.Errorf("invalid unit price in item %q", spec)
		}

		unitCents := int64(math.Round(price * 100))
		items = append(items, codec.LineItem{
			Description: strings.TrimSpace(parts[0]),
			Quantity:    quantity,
			UnitCents:   unitCents,
			AmountCents: int64(math.Round(quantity * float64(unitCents))),
		})
	}
	return items, nil
}

// totalInvoice fills the derived monetary fields from the line items.
func totalInvoice(invoice *codec.Invoice) {
	var subtotal int64
	for _, item := range invoice.Items {
		subtotal += item.AmountCents
	}
	invoice.SubtotalCents = subtotal
	invoice.TaxCents = int64(math.Round(float64(subtotal) * float64(invoice.TaxBasisPts) / 10000))
	invoice.TotalCents = subtotal + invoice.TaxCents
}
