// Package transfer encodes and decodes the flat ledger format used for bulk
// import and export: CSV, XLSX workbooks, and OFX/QFX bank statements.
package transfer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// Format is a supported file format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatOFX  Format = "ofx"
)

// ParseFormat parses a format name. "qfx" is an alias for ofx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	case "ofx", "qfx":
		return FormatOFX, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q", common.ErrInvalidInput, s)
	}
}

// DetectFormat infers the format from a file extension.
func DetectFormat(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// requiredColumns must be present in every import header.
var requiredColumns = []string{"category", "amount", "date"}

// mapRecords turns a header row plus data rows into import rows. Columns are
// matched by name, case-insensitively and in any order; unknown columns are
// ignored. Row numbers in errors count data rows from 1.
func mapRecords(records [][]string) ([]model.ImportRow, error) {
	if len(records) == 0 {
		return nil, &common.ImportError{Row: 1, Field: "header", Err: fmt.Errorf("%w: header", common.ErrMissingField)}
	}

	index := make(map[string]int)
	for i, name := range records[0] {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	for _, column := range requiredColumns {
		if _, ok := index[column]; !ok {
			return nil, &common.ImportError{Row: 1, Field: column, Err: fmt.Errorf("%w: column %s", common.ErrMissingField, column)}
		}
	}

	get := func(record []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rows := make([]model.ImportRow, 0, len(records)-1)
	for _, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		rows = append(rows, model.ImportRow{
			Date:     get(record, "date"),
			Amount:   get(record, "amount"),
			Category: get(record, "category"),
			Type:     get(record, "type"),
			Merchant: get(record, "merchant"),
			Account:  get(record, "account"),
			Project:  get(record, "project"),
			Tags:     get(record, "tags"),
			Note:     get(record, "note"),
		})
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
