package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// createSettingsCommand creates the settings command group
func createSettingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or update business settings",
	}

	cmd.AddCommand(createSettingsShowCommand())
	cmd.AddCommand(createSettingsSetCommand())
	return cmd
}

func createSettingsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			s := app.store.Settings.Load()
			fmt.Printf("Business name:    %s\n", s.BusinessName)
			fmt.Printf("Address:          %s\n", s.Address)
			fmt.Printf("Email:            %s\n", s.Email)
			fmt.Printf("Phone:            %s\n", s.Phone)
			fmt.Printf("Tax ID:           %s\n", s.TaxID)
			fmt.Printf("Currency:         %s\n", s.Currency)
			fmt.Printf("Tax rate:         %d.%02d%%\n", s.TaxBasisPts/100, s.TaxBasisPts%100)
			fmt.Printf("Payment term:     %d days\n", s.PaymentTermDays)
			fmt.Printf("Invoice footer:   %s\n", s.InvoiceFooter)
			return nil
		},
	}
}

func createSettingsSetCommand() *cobra.Command {
	var (
		businessName  string
		address       string
		email         string
		phone         string
		taxID         string
		currency      string
		taxBasisPts   int64
		paymentDays   int
		invoiceFooter string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update settings fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			s := app.store.Settings.Load()
			if cmd.Flags().Changed("business-name") {
				s.BusinessName = businessName
			}
			if cmd.Flags().Changed("address") {
				s.Address = address
			}
			if cmd.Flags().Changed("email") {
				s.Email = email
			}
			if cmd.Flags().Changed("phone") {
				s.Phone = phone
			}
			if cmd.Flags().Changed("tax-id") {
				s.TaxID = taxID
			}
			if cmd.Flags().Changed("currency") {
				s.Currency = currency
			}
			if cmd.Flags().Changed("tax-bps") {
				s.TaxBasisPts = taxBasisPts
			}
			if cmd.Flags().Changed("payment-days") {
				s.PaymentTermDays = paymentDays
			}
			if cmd.Flags().Changed("invoice-footer") {
				s.InvoiceFooter = invoiceFooter
			}

			if err := app.store.Settings.Save(s); err != nil {
				return fmt.Errorf("failed to save settings: %w", err)
			}

			fmt.Println("Settings saved.")
			return nil
		},
	}

	cmd.Flags().StringVar(&businessName, "business-name", "", "business name printed on invoices")
	cmd.Flags().StringVar(&address, "address", "", "business address")
	cmd.Flags().StringVar(&email, "email", "", "business email")
	cmd.Flags().StringVar(&phone, "phone", "", "business phone")
	cmd.Flags().StringVar(&taxID, "tax-id", "", "tax identification number")
	cmd.Flags().StringVar(&currency, "currency", "", "ISO currency code")
	cmd.Flags().Int64Var(&taxBasisPts, "tax-bps", 0, "default tax rate in basis points")
	cmd.Flags().IntVar(&paymentDays, "payment-days", 0, "default payment term in days")
	cmd.Flags().StringVar(&invoiceFooter, "invoice-footer", "", "footer text printed on invoices")
	return cmd
}
