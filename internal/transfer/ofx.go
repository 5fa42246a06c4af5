package transfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// Default categories assigned to statement lines.
const (
	DefaultOFXExpenseCategory = "Miscellaneous"
	DefaultOFXIncomeCategory  = "Other Income"
)

var (
	severityPattern = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	openTagPattern  = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

var merchantPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
}

var genericDescriptions = map[string]bool{
	"DEBIT":           true,
	"CREDIT":          true,
	"PURCHASE":        true,
	"PAYMENT":         true,
	"POS TRANSACTION": true,
	"CARD PURCHASE":   true,
}

// OFXReader converts OFX/QFX bank and credit card statements into import
// rows. Debits become expenses and credits become income; statement lines
// carry no category, so every row gets the configured one for its direction.
type OFXReader struct {
	location        *time.Location
	expenseCategory string
	incomeCategory  string
}

// OFXOption configures an OFXReader.
type OFXOption func(*OFXReader)

// WithCategories overrides the category names assigned to debits and credits.
func WithCategories(expense, income string) OFXOption {
	return func(r *OFXReader) {
		if expense = strings.TrimSpace(expense); expense != "" {
			r.expenseCategory = expense
		}
		if income = strings.TrimSpace(income); income != "" {
			r.incomeCategory = income
		}
	}
}

// WithLocation sets the timezone posting timestamps are converted to before
// taking the calendar date.
func WithLocation(loc *time.Location) OFXOption {
	return func(r *OFXReader) {
		if loc != nil {
			r.location = loc
		}
	}
}

// NewOFXReader creates a reader with the default categories and UTC dates.
func NewOFXReader(opts ...OFXOption) *OFXReader {
	r := &OFXReader{
		location:        time.UTC,
		expenseCategory: DefaultOFXExpenseCategory,
		incomeCategory:  DefaultOFXIncomeCategory,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// preprocessOFX fixes common formatting issues in exported statements.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case.
	content = severityPattern.ReplaceAllStringFunc(content, strings.ToUpper)

	// Some SGML exports drop the closing bracket of bare opening tags.
	return openTagPattern.ReplaceAllString(content, "$1>")
}

// Read parses a statement and returns one import row per non-zero line, in
// statement order.
func (r *OFXReader) Read(ctx context.Context, reader io.Reader) ([]model.ImportRow, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse OFX file: %w", common.ErrInvalidInput, err)
	}

	var rows []model.ImportRow
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			rows = append(rows, r.convertList(stmt.BankTranList, string(stmt.BankAcctFrom.AcctID))...)
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			rows = append(rows, r.convertList(stmt.BankTranList, string(stmt.CCAcctFrom.AcctID))...)
		}
	}

	slog.Info("Parsed OFX file",
		"rows", len(rows),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return rows, nil
}

func (r *OFXReader) convertList(list *ofxgo.TransactionList, accountID string) []model.ImportRow {
	if list == nil {
		return nil
	}

	rows := make([]model.ImportRow, 0, len(list.Transactions))
	for _, txn := range list.Transactions {
		row, ok := r.convert(txn, accountID)
		if !ok {
			slog.Debug("Skipping zero-amount statement line", "fitid", txn.FiTID, "account", accountID)
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func (r *OFXReader) convert(txn ofxgo.Transaction, accountID string) (model.ImportRow, bool) {
	amount, err := decimal.NewFromString(txn.TrnAmt.Rat.FloatString(4))
	if err != nil || amount.IsZero() {
		return model.ImportRow{}, false
	}

	row := model.ImportRow{
		Date:     model.DateOf(txn.DtPosted.Time.In(r.location)).String(),
		Amount:   amount.Abs().String(),
		Merchant: extractMerchantName(txn),
		Account:  accountID,
		Tags:     strings.ToLower(txn.TrnType.String()),
		Note:     strings.TrimSpace(string(txn.Memo)),
	}

	if amount.IsNegative() {
		row.Category = r.expenseCategory
		row.Type = string(model.KindExpense)
	} else {
		row.Category = r.incomeCategory
		row.Type = string(model.KindIncome)
	}

	if txn.CheckNum != "" && row.Note == "" {
		row.Note = "check " + string(txn.CheckNum)
	}

	return row, true
}

// extractMerchantName prefers PAYEE, then NAME, falling back to MEMO when NAME
// is generic, and strips card-network prefixes and leading MM/DD dates.
func extractMerchantName(txn ofxgo.Transaction) string {
	if txn.Payee != nil && txn.Payee.Name != "" {
		return strings.TrimSpace(string(txn.Payee.Name))
	}

	name := string(txn.Name)
	if txn.Memo != "" && isGenericDescription(name) {
		name = string(txn.Memo)
	}
	name = strings.TrimSpace(name)

	upper := strings.ToUpper(name)
	for _, prefix := range merchantPrefixes {
		if strings.HasPrefix(upper, prefix) {
			name = name[len(prefix):]
			break
		}
	}

	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	return genericDescriptions[strings.ToUpper(strings.TrimSpace(name))]
}
