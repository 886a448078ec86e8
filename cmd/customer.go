package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// createCustomerCommand creates the customer command group
func createCustomerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customer",
		Short: "Manage customers",
	}

	cmd.AddCommand(createCustomerListCommand())
	cmd.AddCommand(createCustomerRemoveCommand())
	cmd.AddCommand(createCustomerRebuildCommand())
	return cmd
}

func createCustomerListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List customers with their billed totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			currency := app.store.Settings.Load().Currency
			fmt.Print(app.display.CustomerList(app.store.Customers.List(), currency))
			return nil
		},
	}
}

func createCustomerRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a customer record",
		Long: `Delete a customer record and its remembered invoice defaults.
Invoices referencing the customer are kept; they carry their own copy of
the customer name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ok, err := app.confirm.Confirm(
				fmt.Sprintf("Delete customer %s?", args[0]), autoApprove)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted.")
				return nil
			}

			removed, err := app.store.Customers.Delete(args[0])
			if err != nil {
				return fmt.Errorf("failed to delete customer: %w", err)
			}
			if !removed {
				return fmt.Errorf("customer %s not found", args[0])
			}

			fmt.Printf("Deleted customer %s\n", args[0])
			return nil
		},
	}
}

func createCustomerRebuildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Recompute customer invoice counts and billed totals from the invoices",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.store.Invoices.RebuildCustomerAggregates(); err != nil {
				return fmt.Errorf("failed to rebuild customer aggregates: %w", err)
			}

			fmt.Println("Customer aggregates rebuilt.")
			return nil
		},
	}
}
