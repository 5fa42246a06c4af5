package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/transfer"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions to CSV or XLSX",
		Long: `Export the tenant's transactions in the flat import format, sorted by date.
The output file defaults to expenses_YYYYMMDD.<format>; use --output - to
write to stdout.`,
		Example: `  ledger export --from 2024-01-01 --to 2024-01-31
  ledger export --format xlsx --output q1.xlsx`,
		RunE: runExport,
	}

	cmd.Flags().String("format", "csv", "file format (csv, xlsx)")
	cmd.Flags().StringP("output", "o", "", "output file, or - for stdout")
	addWindowFlags(cmd)
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	rawFormat, _ := cmd.Flags().GetString("format")
	format, err := transfer.ParseFormat(rawFormat)
	if err != nil {
		return err
	}
	if format == transfer.FormatOFX {
		return fmt.Errorf("%w: export supports csv and xlsx", common.ErrInvalidInput)
	}
	output, _ := cmd.Flags().GetString("output")
	from, to := windowFlags(cmd)

	return withTenant(cmd, func(ctx context.Context, a *app, tenant *model.Tenant) error {
		rows, err := a.svc.ExportRows(ctx, tenant.ID, from, to)
		if err != nil {
			return err
		}

		if output == "-" {
			return writeExport(cmd.OutOrStdout(), format, rows)
		}
		if output == "" {
			output = a.svc.ExportFilename(string(format))
		}

		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		if err := writeExport(file, format, rows); err != nil {
			_ = file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
			fmt.Sprintf("Exported %d transactions to %s", len(rows), output)))
		return nil
	})
}

func writeExport(w io.Writer, format transfer.Format, rows []model.ExportRow) error {
	if format == transfer.FormatXLSX {
		return transfer.WriteXLSX(w, rows)
	}
	return transfer.WriteCSV(w, rows)
}
