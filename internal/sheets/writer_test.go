package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/spice-ledger/internal/aggregate"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// fakeSheets serves the subset of the Sheets v4 API the writer calls.
type fakeSheets struct {
	updates      []*sheets.ValueRange
	batchUpdates []*sheets.BatchUpdateSpreadsheetRequest
	clears       []string
	created      []*sheets.Spreadsheet
	sheetTitles  []string
	failUpdates  int
	failStatus   int
	putAttempts  int
	mu           sync.Mutex
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && path == "/v4/spreadsheets/sheet-1":
		spreadsheet := &sheets.Spreadsheet{SpreadsheetId: "sheet-1"}
		for i, title := range f.sheetTitles {
			spreadsheet.Sheets = append(spreadsheet.Sheets, &sheets.Sheet{
				Properties: &sheets.SheetProperties{SheetId: int64(i + 10), Title: title},
			})
		}
		writeJSON(w, spreadsheet)

	case r.Method == http.MethodPost && path == "/v4/spreadsheets":
		var req sheets.Spreadsheet
		decodeJSON(r, &req)
		f.created = append(f.created, &req)
		writeJSON(w, &sheets.Spreadsheet{
			SpreadsheetId: "created-1",
			Sheets: []*sheets.Sheet{
				{Properties: &sheets.SheetProperties{SheetId: 7, Title: req.Sheets[0].Properties.Title}},
			},
		})

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		f.clears = append(f.clears, path)
		writeJSON(w, &sheets.ClearValuesResponse{})

	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		f.putAttempts++
		if f.failUpdates > 0 {
			f.failUpdates--
			status := f.failStatus
			if status == 0 {
				status = http.StatusServiceUnavailable
			}
			http.Error(w, fmt.Sprintf(`{"error":{"code":%d,"message":"update failed"}}`, status), status)
			return
		}
		var req sheets.ValueRange
		decodeJSON(r, &req)
		f.updates = append(f.updates, &req)
		writeJSON(w, &sheets.UpdateValuesResponse{})

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req sheets.BatchUpdateSpreadsheetRequest
		decodeJSON(r, &req)
		f.batchUpdates = append(f.batchUpdates, &req)
		resp := &sheets.BatchUpdateSpreadsheetResponse{}
		if len(req.Requests) == 1 && req.Requests[0].AddSheet != nil {
			resp.Replies = []*sheets.Response{{
				AddSheet: &sheets.AddSheetResponse{Properties: &sheets.SheetProperties{SheetId: 42}},
			}}
		}
		writeJSON(w, resp)

	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) {
	_ = json.NewDecoder(r.Body).Decode(v)
}

func newTestWriter(t *testing.T, fake *fakeSheets, cfg Config) *Writer {
	t.Helper()

	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	srv, err := sheets.NewService(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()))
	require.NoError(t, err)

	return NewWriterFromService(srv, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testReport() *service.Report {
	food := int64(1)
	return &service.Report{
		GeneratedAt: time.Date(2024, 3, 22, 9, 30, 0, 0, time.UTC),
		TenantName:  "household",
		GroupBy:     model.GroupByCategory,
		Summary: service.SummaryReport{
			Summary: aggregate.Summary{
				TotalIncome:  decimal.RequireFromString("3000"),
				TotalExpense: decimal.RequireFromString("120.5"),
				Balance:      decimal.RequireFromString("2879.5"),
			},
			Period:   model.PeriodMonthly,
			Currency: "THB",
			FromDate: model.NewDate(2024, 3, 1),
			ToDate:   model.NewDate(2024, 3, 31),
		},
		Analysis: []aggregate.Record{
			{Group: "Food", CategoryID: &food, Total: decimal.RequireFromString("120.5"), Year: 2024, Month: 3},
			{Group: "Salary", Total: decimal.RequireFromString("3000"), Year: 2024, Month: 3},
		},
	}
}

func TestPrepareReportData(t *testing.T) {
	layout := prepareReportData(testReport())

	want := [][]any{
		{"Ledger Report", "household"},
		{"Window", "2024-03-01 to 2024-03-31"},
		{"Period", "monthly"},
		{},
		{"Summary", "THB"},
		{"Total Income", "3000.00"},
		{"Total Expense", "120.50"},
		{"Balance", "2879.50"},
		{},
		{"Analysis by category"},
		{"Period", "Group", "Total"},
		{"2024-03", "Food", "120.50"},
		{"2024-03", "Salary", "3000.00"},
		{},
		{"Generated", "2024-03-22T09:30:00Z"},
	}
	assert.Equal(t, want, layout.values)
	assert.Equal(t, []int{4, 9, 10}, layout.headerRows)
	assert.Equal(t, []amountRange{
		{startRow: 5, endRow: 8, column: 1},
		{startRow: 11, endRow: 13, column: 2},
	}, layout.amounts)
}

func TestPrepareReportDataEmptyAnalysis(t *testing.T) {
	report := testReport()
	report.Analysis = nil

	layout := prepareReportData(report)
	assert.Len(t, layout.amounts, 1)
	assert.Equal(t, []any{"Period", "Group", "Total"}, layout.values[10])
	assert.Equal(t, []any{}, layout.values[11])
}

func TestWriterWriteExistingSpreadsheet(t *testing.T) {
	fake := &fakeSheets{sheetTitles: []string{"Notes", "Report"}}
	cfg := DefaultConfig()
	cfg.SpreadsheetID = "sheet-1"
	cfg.BatchSize = 5
	cfg.RetryDelay = time.Millisecond

	writer := newTestWriter(t, fake, cfg)
	require.NoError(t, writer.Write(context.Background(), testReport()))

	require.Len(t, fake.clears, 1)
	assert.Contains(t, fake.clears[0], "'Report'!A:Z")

	// 15 rows in batches of 5.
	require.Len(t, fake.updates, 3)
	assert.Equal(t, "Ledger Report", fake.updates[0].Values[0][0])
	assert.Equal(t, "Salary", fake.updates[2].Values[2][1])

	require.Len(t, fake.batchUpdates, 1)
	for _, req := range fake.batchUpdates[0].Requests {
		if req.RepeatCell != nil {
			assert.Equal(t, int64(11), req.RepeatCell.Range.SheetId)
		}
	}
}

func TestWriterWriteCreatesSpreadsheet(t *testing.T) {
	fake := &fakeSheets{}
	cfg := DefaultConfig()
	cfg.EnableFormatting = false
	cfg.RetryDelay = time.Millisecond

	writer := newTestWriter(t, fake, cfg)
	require.NoError(t, writer.Write(context.Background(), testReport()))

	require.Len(t, fake.created, 1)
	assert.Equal(t, "Ledger Report", fake.created[0].Properties.Title)
	assert.Equal(t, "Asia/Bangkok", fake.created[0].Properties.TimeZone)
	assert.Equal(t, "created-1", writer.config.SpreadsheetID)
	assert.Len(t, fake.updates, 1)
	assert.Empty(t, fake.batchUpdates)
}

func TestWriterWriteAddsMissingSheet(t *testing.T) {
	fake := &fakeSheets{sheetTitles: []string{"Sheet1"}}
	cfg := DefaultConfig()
	cfg.SpreadsheetID = "sheet-1"
	cfg.RetryDelay = time.Millisecond

	writer := newTestWriter(t, fake, cfg)
	require.NoError(t, writer.Write(context.Background(), testReport()))

	require.Len(t, fake.batchUpdates, 2)
	addSheet := fake.batchUpdates[0].Requests[0].AddSheet
	require.NotNil(t, addSheet)
	assert.Equal(t, "Report", addSheet.Properties.Title)
	assert.Equal(t, int64(42), fake.batchUpdates[1].Requests[0].RepeatCell.Range.SheetId)
}

func TestWriterWriteRetriesTransientFailures(t *testing.T) {
	fake := &fakeSheets{sheetTitles: []string{"Report"}, failUpdates: 1}
	cfg := DefaultConfig()
	cfg.SpreadsheetID = "sheet-1"
	cfg.RetryDelay = time.Millisecond

	writer := newTestWriter(t, fake, cfg)
	require.NoError(t, writer.Write(context.Background(), testReport()))
	assert.Len(t, fake.updates, 1)
}

func TestWriterWriteDoesNotRetryClientErrors(t *testing.T) {
	fake := &fakeSheets{sheetTitles: []string{"Report"}, failUpdates: 5, failStatus: http.StatusBadRequest}
	cfg := DefaultConfig()
	cfg.SpreadsheetID = "sheet-1"
	cfg.RetryDelay = time.Millisecond

	writer := newTestWriter(t, fake, cfg)
	err := writer.Write(context.Background(), testReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write data")
	assert.Equal(t, 1, fake.putAttempts)
	assert.Empty(t, fake.updates)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "rate limited", err: &googleapi.Error{Code: http.StatusTooManyRequests}, want: true},
		{name: "unavailable", err: fmt.Errorf("update: %w", &googleapi.Error{Code: http.StatusServiceUnavailable}), want: true},
		{name: "bad request", err: &googleapi.Error{Code: http.StatusBadRequest}, want: false},
		{name: "forbidden", err: &googleapi.Error{Code: http.StatusForbidden}, want: false},
		{name: "network", err: errors.New("connection reset by peer"), want: true},
		{name: "invalid input", err: common.ErrInvalidInput, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransient(tt.err))
		})
	}
}

func TestWriterWriteNilReport(t *testing.T) {
	writer := newTestWriter(t, &fakeSheets{}, DefaultConfig())
	assert.ErrorIs(t, writer.Write(context.Background(), nil), common.ErrInvalidInput)
}

func TestMockWriter(t *testing.T) {
	mock := NewMockWriter()
	report := testReport()

	require.NoError(t, mock.Write(context.Background(), report))
	assert.Same(t, report, mock.Last())

	mock.FailWith(common.ErrStorageFailure)
	assert.ErrorIs(t, mock.Write(context.Background(), report), common.ErrStorageFailure)

	results := mock.Results()
	require.Len(t, results, 2)
	assert.NoError(t, results[0])
	assert.ErrorIs(t, results[1], common.ErrStorageFailure)

	mock.Reset()
	assert.Zero(t, mock.Calls())
	assert.Nil(t, mock.Last())
	assert.NoError(t, mock.Write(context.Background(), report))
}
