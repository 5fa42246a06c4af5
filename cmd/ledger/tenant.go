package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
)

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
		Long:  `Every ledger belongs to a tenant. Creating a tenant seeds its default categories.`,
	}

	cmd.AddCommand(createTenantCmd(), listTenantsCmd())
	return cmd
}

func createTenantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a tenant and seed its default categories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			tenant, seeded, err := a.svc.CreateTenant(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to create tenant: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Created tenant %s (%s)", tenant.Name, tenant.ID)))
			fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Seeded %d default categories", len(seeded))))
			return nil
		},
	}
}

func listTenantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tenants",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			tenants, err := a.svc.ListTenants(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				return printJSON(out, tenants)
			}
			if len(tenants) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No tenants found. Use 'ledger tenant create <name>' to create one."))
				return nil
			}
			fmt.Fprintln(out, cli.RenderTenants(tenants))
			return nil
		},
	}
	addFormatFlag(cmd)
	return cmd
}
