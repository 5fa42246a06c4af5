package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show income, expense and balance for a period",
		Long: `Totals income and expense over the current daily, weekly, monthly or
yearly period, or over an explicit --from/--to window (both required).`,
		Example: `  ledger summary --period monthly
  ledger summary --from 2024-01-01 --to 2024-03-31`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			p, _ := cmd.Flags().GetString("period")
			from, to := windowFlags(cmd)

			return withTenant(cmd, func(ctx context.Context, a *app, tenant *model.Tenant) error {
				summary, err := a.svc.GetSummary(ctx, tenant.ID, ledger.SummaryQuery{Period: p, From: from, To: to})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if format == "json" {
					return printJSON(out, summary)
				}
				fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Summary for %s", tenant.Name)))
				fmt.Fprintln(out, cli.RenderSummary(summary))
				return nil
			})
		},
	}

	cmd.Flags().String("period", "weekly", "period (daily, weekly, monthly, yearly)")
	addWindowFlags(cmd)
	addFormatFlag(cmd)
	return cmd
}
