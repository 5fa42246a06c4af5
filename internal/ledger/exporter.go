package ledger

import (
	"context"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/aggregate"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// ExportRows renders the tenant's transactions within the optional bounds,
// ordered by date then id. Transactions whose category was deleted are
// labelled model.UnknownCategory.
func (s *Service) ExportRows(ctx context.Context, tenantID, from, to string) ([]model.ExportRow, error) {
	filter, err := parseFilter(from, to)
	if err != nil {
		return nil, err
	}

	txns, idx, err := s.load(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	sortTransactions(txns)

	return exportRows(txns, idx), nil
}

func exportRows(txns []model.Transaction, idx aggregate.CategoryIndex) []model.ExportRow {
	rows := make([]model.ExportRow, 0, len(txns))
	for _, txn := range txns {
		rows = append(rows, model.ExportRow{
			TransactionID: txn.ID,
			Date:          txn.OccurredOn,
			Amount:        txn.Amount.String(),
			Category:      idx.Label(txn.CategoryID),
			Merchant:      txn.Merchant,
			Account:       txn.Account,
			Project:       txn.Project,
			Tags:          txn.Tags,
			Note:          txn.Note,
		})
	}
	return rows
}

// ExportFilename names an export file after today's date, e.g.
// expenses_20240131.csv.
func (s *Service) ExportFilename(ext string) string {
	if ext == "" {
		ext = "csv"
	}
	return fmt.Sprintf("expenses_%s.%s", s.Today().Format("20060102"), ext)
}
