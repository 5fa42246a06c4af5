package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
)

func analysisCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "analysis",
		Aliases: []string{"analyze"},
		Short:   "Group totals by period and category, merchant, account or project",
		Example: `  ledger analysis --group-by merchant --period monthly --only-expense
  ledger analysis --from 2024-01-01 --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			q := ledger.AnalysisQuery{}
			q.GroupBy, _ = flags.GetString("group-by")
			q.Period, _ = flags.GetString("period")
			q.OnlyExpense, _ = flags.GetBool("only-expense")
			q.OnlyIncome, _ = flags.GetBool("only-income")
			q.From, q.To = windowFlags(cmd)

			groupBy, err := model.ParseGroupBy(q.GroupBy)
			if err != nil {
				return err
			}
			p, err := model.ParsePeriod(q.Period)
			if err != nil {
				return err
			}

			return withTenant(cmd, func(ctx context.Context, a *app, tenant *model.Tenant) error {
				records, err := a.svc.GetAnalysis(ctx, tenant.ID, q)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if format == "json" {
					return printJSON(out, records)
				}
				if len(records) == 0 {
					fmt.Fprintln(out, cli.FormatInfo("No transactions in range"))
					return nil
				}
				fmt.Fprintln(out, cli.RenderAnalysis(records, p, groupBy))
				return nil
			})
		},
	}

	cmd.Flags().String("group-by", "category", "group by (category, merchant, account, project)")
	cmd.Flags().String("period", "monthly", "bucket period (daily, weekly, monthly, yearly)")
	cmd.Flags().Bool("only-expense", false, "only expense categories")
	cmd.Flags().Bool("only-income", false, "only income categories")
	addWindowFlags(cmd)
	addFormatFlag(cmd)
	return cmd
}
