package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/transfer"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import transactions from CSV, XLSX or OFX/QFX",
		Long: `Import transactions from a file. CSV and XLSX files need category, amount
and date columns, with optional type, merchant, account, project, tags and
note columns. OFX/QFX statements are mapped onto the expense and income
categories given by --expense-category and --income-category.

The whole file is validated before anything is written, and nothing is
imported when any row fails.`,
		Example: `  ledger import january.csv
  ledger import statement.qfx --expense-category Groceries`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("format", "", "file format (csv, xlsx, ofx); detected from the extension when empty")
	cmd.Flags().String("expense-category", transfer.DefaultOFXExpenseCategory, "category for OFX debits")
	cmd.Flags().String("income-category", transfer.DefaultOFXIncomeCategory, "category for OFX credits")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	rawFormat, _ := cmd.Flags().GetString("format")

	var (
		format transfer.Format
		err    error
	)
	if rawFormat != "" {
		format, err = transfer.ParseFormat(rawFormat)
	} else {
		format, err = transfer.DetectFormat(path)
	}
	if err != nil {
		return err
	}

	return withTenant(cmd, func(ctx context.Context, a *app, tenant *model.Tenant) error {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer func() { _ = file.Close() }()

		rows, err := readRows(ctx, cmd, a, format, file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		out := cmd.OutOrStdout()
		if len(rows) == 0 {
			fmt.Fprintln(out, cli.FormatWarning("No transactions found in "+path))
			return nil
		}

		slog.Info("Importing transactions", "file", path, "format", format, "rows", len(rows), "tenant", tenant.Name)

		progress := cli.NewImportProgress(cmd.ErrOrStderr())
		result, err := a.svc.ImportRows(ctx, tenant.ID, rows, ledger.WithProgress(progress.Report))
		if err != nil {
			return fmt.Errorf("import failed, nothing was saved: %w", err)
		}

		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d transactions", result.Imported)))
		for _, category := range result.CreatedCategories {
			fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Created %s category %q", category.Kind, category.Name)))
		}
		return nil
	})
}

func readRows(ctx context.Context, cmd *cobra.Command, a *app, format transfer.Format, r io.Reader) ([]model.ImportRow, error) {
	switch format {
	case transfer.FormatXLSX:
		return transfer.ReadXLSX(r)
	case transfer.FormatOFX:
		loc, err := time.LoadLocation(a.settings.Timezone)
		if err != nil {
			return nil, err
		}
		expense, _ := cmd.Flags().GetString("expense-category")
		income, _ := cmd.Flags().GetString("income-category")
		reader := transfer.NewOFXReader(transfer.WithCategories(expense, income), transfer.WithLocation(loc))
		return reader.Read(ctx, r)
	default:
		return transfer.ReadCSV(r)
	}
}
