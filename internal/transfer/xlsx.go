package transfer

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// SheetName is the worksheet holding exported transactions.
const SheetName = "Transactions"

const amountFormat = 4 // #,##0.00

// WriteXLSX writes rows to a single-sheet workbook under the standard header.
// Amounts are stored as numbers so spreadsheet formulas work on them, unless
// a number cannot hold them exactly.
func WriteXLSX(w io.Writer, rows []model.ExportRow) (err error) {
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close workbook: %w", closeErr)
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(model.ExportColumns))
	for i, column := range model.ExportColumns {
		header[i] = column
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	lastColumn, err := excelize.ColumnNumberToName(len(model.ExportColumns))
	if err != nil {
		return fmt.Errorf("failed to resolve columns: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", lastColumn+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range rows {
		values := make([]any, 0, len(model.ExportColumns))
		for j, value := range row.Record() {
			if j == 1 {
				values = append(values, amountCell(value))
				continue
			}
			values = append(values, value)
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write transaction %d: %w", row.TransactionID, err)
		}
	}

	if len(rows) > 0 {
		amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: amountFormat})
		if err != nil {
			return fmt.Errorf("failed to create amount style: %w", err)
		}
		if err := f.SetCellStyle(SheetName, "B2", fmt.Sprintf("B%d", len(rows)+1), amountStyle); err != nil {
			return fmt.Errorf("failed to style amounts: %w", err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", lastColumn, 14); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Spreadsheet numbers carry 15 significant digits.
const maxCellDigits = 15

// amountCell stores an amount as a number when a float64 holds it exactly
// and as its decimal text otherwise, so no amount loses precision.
func amountCell(value string) any {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return value
	}
	f := amount.InexactFloat64()
	if amount.NumDigits() > maxCellDigits || !decimal.NewFromFloat(f).Equal(amount) {
		return amount.String()
	}
	return f
}

// ReadXLSX reads import rows from the first worksheet of a workbook. The
// sheet must start with a header row, matched the same way as ReadCSV.
func ReadXLSX(r io.Reader) (rows []model.ImportRow, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook: %w", common.ErrInvalidInput, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close workbook: %w", closeErr)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", common.ErrInvalidInput)
	}

	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %s: %w", common.ErrInvalidInput, sheets[0], err)
	}

	return mapRecords(records)
}
