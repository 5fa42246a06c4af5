package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/Veraticus/spice-ledger/internal/sheets"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summary plus grouped analysis, optionally published to Google Sheets",
		Long: `Builds a report of one window: the income/expense summary and the analysis
of the same window grouped by --group-by. With --sheets the report is written
to the configured Google spreadsheet instead of the terminal.

Google Sheets credentials come from the sheets section of the config file
or GOOGLE_SHEETS_* environment variables. Run 'ledger report auth' once to
obtain an OAuth2 refresh token.`,
		Example: `  ledger report --period monthly --group-by merchant
  ledger report --from 2024-01-01 --to 2024-12-31 --sheets`,
		RunE: runReport,
	}

	cmd.Flags().String("group-by", "category", "group by (category, merchant, account, project)")
	cmd.Flags().String("period", "monthly", "period (daily, weekly, monthly, yearly)")
	cmd.Flags().Bool("sheets", false, "publish the report to Google Sheets")
	addWindowFlags(cmd)
	addFormatFlag(cmd)

	cmd.AddCommand(reportAuthCmd())
	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	q := ledger.ReportQuery{}
	q.GroupBy, _ = cmd.Flags().GetString("group-by")
	q.Period, _ = cmd.Flags().GetString("period")
	q.From, q.To = windowFlags(cmd)
	publish, _ := cmd.Flags().GetBool("sheets")

	return withTenant(cmd, func(ctx context.Context, a *app, tenant *model.Tenant) error {
		out := cmd.OutOrStdout()

		if publish {
			sheetsConfig, err := config.LoadSheetsConfig(viper.GetViper())
			if err != nil {
				return fmt.Errorf("google sheets is not configured: %w", err)
			}
			writer, err := sheets.NewWriter(ctx, *sheetsConfig, slog.Default())
			if err != nil {
				return err
			}
			if _, err := a.svc.PublishReport(ctx, tenant.ID, q, writer); err != nil {
				return err
			}
			fmt.Fprintln(out, cli.FormatSuccess("Report published to Google Sheets"))
			return nil
		}

		report, err := a.svc.GetReport(ctx, tenant.ID, q)
		if err != nil {
			return err
		}
		if format == "json" {
			return printJSON(out, report)
		}
		renderReport(cmd, report)
		return nil
	})
}

func renderReport(cmd *cobra.Command, report *service.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Report for %s", report.TenantName)))
	fmt.Fprintln(out, cli.RenderSummary(&report.Summary))
	if len(report.Analysis) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No transactions in range"))
		return
	}
	fmt.Fprintln(out, cli.RenderAnalysis(report.Analysis, report.Summary.Period, report.GroupBy))
}

func reportAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize Google Sheets access with OAuth2",
		Long: `Runs the OAuth2 consent flow in the browser and stores the token. Add the
printed refresh token to the sheets.refresh_token config key or the
GOOGLE_SHEETS_REFRESH_TOKEN environment variable.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := viper.GetViper()
			clientID := credential(v, "sheets.client_id", "GOOGLE_SHEETS_CLIENT_ID")
			clientSecret := credential(v, "sheets.client_secret", "GOOGLE_SHEETS_CLIENT_SECRET")
			if clientID == "" || clientSecret == "" {
				return common.NewUserError("set sheets.client_id and sheets.client_secret first", common.ErrMissingConfig)
			}

			tokenFile := config.TokenFile(v)
			token, err := sheets.GetOrCreateToken(cmd.Context(), sheets.OAuth2Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				TokenFile:    tokenFile,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess("Token saved to "+tokenFile))
			if token.RefreshToken != "" {
				fmt.Fprintln(out, cli.FormatInfo("Refresh token: "+token.RefreshToken))
			}
			return nil
		},
	}
}

// credential reads a viper key, falling back to an environment variable.
func credential(v *viper.Viper, key, env string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	return os.Getenv(env)
}
