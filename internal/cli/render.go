package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Veraticus/spice-ledger/internal/aggregate"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/period"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// RenderTable renders rows under headers. Columns listed in amountColumns
// are right-aligned.
func RenderTable(headers []string, rows [][]string, amountColumns ...int) string {
	amounts := make(map[int]bool, len(amountColumns))
	for _, col := range amountColumns {
		amounts[col] = true
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtleStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case amounts[col]:
				return AmountCellStyle
			default:
				return TableCellStyle
			}
		})

	return t.Render()
}

// RenderTenants lists tenants.
func RenderTenants(tenants []model.Tenant) string {
	rows := make([][]string, 0, len(tenants))
	for _, tenant := range tenants {
		rows = append(rows, []string{tenant.Name, tenant.ID, tenant.CreatedAt.Format("2006-01-02")})
	}
	return RenderTable([]string{"Name", "ID", "Created"}, rows)
}

// RenderCategories lists categories.
func RenderCategories(categories []model.Category) string {
	rows := make([][]string, 0, len(categories))
	for _, category := range categories {
		rows = append(rows, []string{strconv.FormatInt(category.ID, 10), category.Name, string(category.Kind)})
	}
	return RenderTable([]string{"ID", "Name", "Type"}, rows, 0)
}

// RenderTransactions lists transactions with their category labels.
func RenderTransactions(txns []model.Transaction, idx aggregate.CategoryIndex) string {
	rows := make([][]string, 0, len(txns))
	for _, txn := range txns {
		rows = append(rows, []string{
			strconv.FormatInt(txn.ID, 10),
			txn.OccurredOn.String(),
			txn.Amount.StringFixed(2),
			idx.Label(txn.CategoryID),
			txn.Merchant,
			txn.Account,
			txn.Project,
			txn.Tags,
			txn.Note,
		})
	}
	return RenderTable(
		[]string{"ID", "Date", "Amount", "Category", "Merchant", "Account", "Project", "Tags", "Note"},
		rows, 0, 2)
}

// RenderSummary renders income, expense and balance in a box.
func RenderSummary(summary *service.SummaryReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s .. %s\n\n", BoldStyle.Render(string(summary.Period)), summary.FromDate, summary.ToDate)
	fmt.Fprintf(&b, "Income   %s %s\n", KindStyle(model.KindIncome).Render(summary.TotalIncome.StringFixed(2)), summary.Currency)
	fmt.Fprintf(&b, "Expense  %s %s\n", KindStyle(model.KindExpense).Render(summary.TotalExpense.StringFixed(2)), summary.Currency)
	fmt.Fprintf(&b, "Balance  %s %s", FormatBalance(summary.Balance), summary.Currency)

	return RenderBox(ChartIcon+" Summary", b.String())
}

// RenderAnalysis renders one row per record: its period bucket, group and
// total.
func RenderAnalysis(records []aggregate.Record, p model.Period, groupBy model.GroupBy) string {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		bucket := period.Bucket{Date: record.Date, Period: p, Year: record.Year, Month: record.Month, Week: record.Week}
		rows = append(rows, []string{bucket.Key(), record.Group, record.Total.StringFixed(2)})
	}
	return RenderTable([]string{"Period", headerCase(string(groupBy)), "Total"}, rows, 2)
}

func headerCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
