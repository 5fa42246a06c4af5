package model

// UnknownCategory labels transactions whose category has been deleted.
const UnknownCategory = "Unknown"

// ExportColumns is the header of the flat ledger format, in column order.
var ExportColumns = []string{"date", "amount", "category", "merchant", "account", "project", "tags", "note"}

// ImportRow is one raw, unvalidated row of the flat ledger format.
type ImportRow struct {
	Category string
	Amount   string
	Date     string
	Type     string
	Merchant string
	Account  string
	Project  string
	Tags     string
	Note     string
}

// ExportRow is one transaction rendered into the flat ledger format.
type ExportRow struct {
	Date          Date
	Amount        string
	Category      string
	Merchant      string
	Account       string
	Project       string
	Tags          string
	Note          string
	TransactionID int64
}

// Record returns the row's values in ExportColumns order.
func (r ExportRow) Record() []string {
	return []string{r.Date.String(), r.Amount, r.Category, r.Merchant, r.Account, r.Project, r.Tags, r.Note}
}
