package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/period"
	"github.com/Veraticus/spice-ledger/internal/service"
)

const amountPattern = "#,##0.00"

// Writer implements service.ReportWriter for Google Sheets. Each Write
// replaces the contents of one worksheet with the report.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

var _ service.ReportWriter = (*Writer)(nil)

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return NewWriterFromService(srv, config, logger), nil
}

// NewWriterFromService wraps an already authenticated Sheets client.
func NewWriterFromService(srv *sheets.Service, config Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	return &Writer{
		config:  config,
		service: srv,
		logger:  logger,
	}
}

// Write publishes report, replacing whatever the worksheet held before.
func (w *Writer) Write(ctx context.Context, report *service.Report) error {
	if report == nil {
		return fmt.Errorf("%w: nil report", common.ErrInvalidInput)
	}

	w.logger.Info("starting report upload",
		"tenant", report.TenantName,
		"records", len(report.Analysis),
		"window", fmt.Sprintf("%s..%s", report.Summary.FromDate, report.Summary.ToDate))

	retryOpts := w.config.retryOptions()

	var spreadsheetID string
	var sheetID int64
	err := common.WithRetry(ctx, func() error {
		var err error
		spreadsheetID, sheetID, err = w.getOrCreateSpreadsheet(ctx)
		return err
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if err := common.WithRetry(ctx, func() error {
		return w.clearSheet(ctx, spreadsheetID)
	}, retryOpts); err != nil {
		return fmt.Errorf("failed to clear sheet: %w", err)
	}

	layout := prepareReportData(report)

	if err := common.WithRetry(ctx, func() error {
		return w.writeData(ctx, spreadsheetID, layout.values)
	}, retryOpts); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err := common.WithRetry(ctx, func() error {
			return w.applyFormatting(ctx, spreadsheetID, sheetID, layout)
		}, retryOpts)
		if err != nil {
			// The data is already written; formatting is best effort.
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("report upload completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(layout.values))

	return nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := oauthConfig(config.ClientID, config.ClientSecret, "")
		tokenSource = client.TokenSource(ctx, &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		})
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet returns the spreadsheet and worksheet ids to write
// to, creating whichever is missing.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, int64, error) {
	title := w.config.sheetName()

	if w.config.SpreadsheetID != "" {
		existing, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", 0, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		for _, sheet := range existing.Sheets {
			if sheet.Properties != nil && sheet.Properties.Title == title {
				return existing.SpreadsheetId, sheet.Properties.SheetId, nil
			}
		}

		sheetID, err := w.addSheet(ctx, existing.SpreadsheetId, title)
		if err != nil {
			return "", 0, err
		}
		return existing.SpreadsheetId, sheetID, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: title}},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", 0, fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	// Later writes go to the same spreadsheet.
	w.config.SpreadsheetID = created.SpreadsheetId

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	var sheetID int64
	if len(created.Sheets) > 0 && created.Sheets[0].Properties != nil {
		sheetID = created.Sheets[0].Properties.SheetId
	}
	return created.SpreadsheetId, sheetID, nil
}

func (w *Writer) addSheet(ctx context.Context, spreadsheetID, title string) (int64, error) {
	resp, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}}},
		},
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("unable to add sheet %q: %w", title, err)
	}

	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		return resp.Replies[0].AddSheet.Properties.SheetId, nil
	}
	return 0, nil
}

func (w *Writer) rangeRef(cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(w.config.sheetName(), "'", "''"), cells)
}

// clearSheet clears all data from the worksheet.
func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, w.rangeRef("A:Z"), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// writeData writes the values in batches to stay under API request limits.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))

		batch := values[i:end]
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, w.rangeRef(fmt.Sprintf("A%d", i+1)), &sheets.ValueRange{Values: batch}).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}

	return nil
}

// reportLayout is the cell grid of a report plus the rows needing formatting.
type reportLayout struct {
	values     [][]any
	headerRows []int
	amounts    []amountRange
}

// amountRange is a block of rows whose column holds money.
type amountRange struct {
	startRow, endRow int
	column           int
}

// prepareReportData lays the report out top to bottom: title, summary
// block, then one analysis row per record.
func prepareReportData(report *service.Report) reportLayout {
	summary := report.Summary
	values := make([][]any, 0, 14+len(report.Analysis))
	var layout reportLayout

	values = append(values,
		[]any{"Ledger Report", report.TenantName},
		[]any{"Window", fmt.Sprintf("%s to %s", summary.FromDate, summary.ToDate)},
		[]any{"Period", string(summary.Period)},
		[]any{},
	)

	layout.headerRows = append(layout.headerRows, len(values))
	values = append(values, []any{"Summary", summary.Currency})
	summaryStart := len(values)
	values = append(values,
		[]any{"Total Income", summary.TotalIncome.StringFixed(2)},
		[]any{"Total Expense", summary.TotalExpense.StringFixed(2)},
		[]any{"Balance", summary.Balance.StringFixed(2)},
	)
	layout.amounts = append(layout.amounts, amountRange{startRow: summaryStart, endRow: len(values), column: 1})
	values = append(values, []any{})

	layout.headerRows = append(layout.headerRows, len(values))
	values = append(values, []any{fmt.Sprintf("Analysis by %s", report.GroupBy)})
	layout.headerRows = append(layout.headerRows, len(values))
	values = append(values, []any{"Period", "Group", "Total"})

	analysisStart := len(values)
	for _, record := range report.Analysis {
		bucket := period.Bucket{
			Date:   record.Date,
			Period: summary.Period,
			Year:   record.Year,
			Month:  record.Month,
			Week:   record.Week,
		}
		values = append(values, []any{bucket.Key(), record.Group, record.Total.StringFixed(2)})
	}
	if len(report.Analysis) > 0 {
		layout.amounts = append(layout.amounts, amountRange{startRow: analysisStart, endRow: len(values), column: 2})
	}

	values = append(values,
		[]any{},
		[]any{"Generated", report.GeneratedAt.UTC().Format(time.RFC3339)},
	)

	layout.values = values
	return layout
}

// applyFormatting bolds the title and section headers, formats money
// columns, freezes the title row and sizes the columns.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, sheetID int64, layout reportLayout) error {
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   2,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true, FontSize: 14},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
	}

	for _, row := range layout.headerRows {
		requests = append(requests, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    int64(row),
					EndRowIndex:      int64(row + 1),
					StartColumnIndex: 0,
					EndColumnIndex:   3,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		})
	}

	for _, block := range layout.amounts {
		requests = append(requests, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    int64(block.startRow),
					EndRowIndex:      int64(block.endRow),
					StartColumnIndex: int64(block.column),
					EndColumnIndex:   int64(block.column + 1),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{Type: "NUMBER", Pattern: amountPattern},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		})
	}

	requests = append(requests,
		&sheets.Request{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   3,
				},
			},
		},
		&sheets.Request{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	)

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	return err
}
