package transfer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// ReadCSV parses a CSV document with a header row into import rows.
func ReadCSV(r io.Reader) ([]model.ImportRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			row := len(records)
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) && parseErr.StartLine > 1 {
				row = parseErr.StartLine - 1
			}
			return nil, &common.ImportError{Row: max(row, 1), Err: fmt.Errorf("%w: %w", common.ErrInvalidInput, err)}
		}
		records = append(records, record)
	}

	return mapRecords(records)
}

// WriteCSV writes rows under the standard header with "\n" line endings.
func WriteCSV(w io.Writer, rows []model.ExportRow) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(model.ExportColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row.Record()); err != nil {
			return fmt.Errorf("failed to write transaction %d: %w", row.TransactionID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
