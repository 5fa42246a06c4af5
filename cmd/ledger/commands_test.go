package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/aggregate"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

type harness struct {
	t       *testing.T
	dir     string
	cfgPath string
	dbPath  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("ledger:\n  timezone: UTC\n  currency: THB\n"), 0o600))

	t.Cleanup(viper.Reset)

	return &harness{t: t, dir: dir, cfgPath: cfgPath, dbPath: filepath.Join(dir, "ledger.db")}
}

// run executes the root command with stdin and returns stdout.
func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()

	viper.Reset()
	root := newRootCmd()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", h.cfgPath, "--db", h.dbPath, "--log-level", "error"}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run("", args...)
	require.NoError(h.t, err, "ledger %s", strings.Join(args, " "))
	return out
}

func TestVersionCmd(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "ledger dev\n", h.mustRun("version"))
}

func TestTenantCommands(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("tenant", "create", "Acme")
	assert.Contains(t, out, "Created tenant Acme")
	assert.Contains(t, out, "Seeded 8 default categories")

	_, err := h.run("", "tenant", "create", "Acme")
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.Equal(t, 4, exitCode(err))

	var tenants []model.Tenant
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("tenant", "list", "--format", "json")), &tenants))
	require.Len(t, tenants, 1)
	assert.Equal(t, "Acme", tenants[0].Name)

	var categories []model.Category
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("categories", "list", "--format", "json")), &categories))
	assert.Len(t, categories, 8)
}

func TestTenantSelection(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "tx", "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingField)
	assert.Contains(t, err.Error(), "no tenants yet")

	h.mustRun("tenant", "create", "Acme")
	h.mustRun("tenant", "create", "Globex")

	_, err = h.run("", "tx", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--tenant")

	out := h.mustRun("--tenant", "Globex", "tx", "add", "--category", "Food", "--amount", "10", "--date", "2024-01-02")
	assert.Contains(t, out, "Recorded transaction 1")

	_, err = h.run("", "--tenant", "Initech", "tx", "list")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, 3, exitCode(err))
}

func TestTransactionLifecycle(t *testing.T) {
	h := newHarness(t)
	h.mustRun("tenant", "create", "Acme")

	h.mustRun("tx", "add", "--category", "Food", "--amount", "120.50", "--date", "2024-01-05", "--merchant", "Cafe Amazon")
	h.mustRun("tx", "add", "--category", "Bonus", "--amount", "30000", "--date", "2024-01-25")
	h.mustRun("tx", "add", "--category", "Transport", "--amount", "45", "--date", "2024-02-01")

	var txns []model.Transaction
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("tx", "list", "--to", "2024-01-31", "--format", "json")), &txns))
	require.Len(t, txns, 2)
	assert.Equal(t, "2024-01-05", txns[0].OccurredOn.String())
	assert.Equal(t, "Cafe Amazon", txns[0].Merchant)

	out := h.mustRun("tx", "update", "1", "--amount", "99.5", "--merchant", "")
	assert.Contains(t, out, "Updated transaction 1: 99.50")

	var updated []model.Transaction
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("tx", "list", "--format", "json")), &updated))
	require.Len(t, updated, 3)
	assert.True(t, updated[0].Amount.Equal(decimal.RequireFromString("99.5")))
	assert.Empty(t, updated[0].Merchant)

	out, err := h.run("n\n", "tx", "delete", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Deletion cancelled.")

	out, err = h.run("y\n", "tx", "delete", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted transaction 3")

	_, err = h.run("", "tx", "delete", "3", "--force")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTransactionValidation(t *testing.T) {
	h := newHarness(t)
	h.mustRun("tenant", "create", "Acme")

	tests := []struct {
		want error
		name string
		args []string
	}{
		{name: "negative amount", args: []string{"tx", "add", "--category", "Food", "--amount", "-5"}, want: common.ErrInvalidAmount},
		{name: "zero amount", args: []string{"tx", "add", "--category", "Food", "--amount", "0"}, want: common.ErrInvalidAmount},
		{name: "bad date", args: []string{"tx", "add", "--category", "Food", "--amount", "5", "--date", "2024-02-30"}, want: common.ErrInvalidDate},
		{name: "unknown category name", args: []string{"tx", "add", "--category", "Nope", "--amount", "5"}, want: common.ErrInvalidCategory},
		{name: "bad id", args: []string{"tx", "update", "abc", "--amount", "5"}, want: common.ErrInvalidInput},
		{name: "bad format", args: []string{"tx", "list", "--format", "yaml"}, want: common.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run("", tt.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 2, exitCode(err))
		})
	}
}

func TestSummaryAndAnalysis(t *testing.T) {
	h := newHarness(t)
	h.mustRun("tenant", "create", "Acme")
	h.mustRun("tx", "add", "--category", "Food", "--amount", "100.25", "--date", "2024-03-01", "--merchant", "7-Eleven")
	h.mustRun("tx", "add", "--category", "Food", "--amount", "50", "--date", "2024-03-20", "--merchant", "Makro")
	h.mustRun("tx", "add", "--category", "Bonus", "--amount", "1000", "--date", "2024-03-25")

	var summary service.SummaryReport
	out := h.mustRun("summary", "--from", "2024-03-01", "--to", "2024-03-31", "--format", "json")
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.True(t, summary.TotalExpense.Equal(decimal.RequireFromString("150.25")))
	assert.True(t, summary.TotalIncome.Equal(decimal.RequireFromString("1000")))
	assert.True(t, summary.Balance.Equal(decimal.RequireFromString("849.75")))
	assert.Equal(t, "THB", summary.Currency)
	assert.Equal(t, model.PeriodWeekly, summary.Period)

	_, err := h.run("", "summary", "--from", "2024-03-01")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = h.run("", "summary", "--from", "2024-04-01", "--to", "2024-03-01")
	assert.ErrorIs(t, err, common.ErrInvalidRange)
	assert.Equal(t, 2, exitCode(err))

	var records []aggregate.Record
	out = h.mustRun("analysis", "--group-by", "merchant", "--only-expense", "--format", "json")
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "7-Eleven", records[0].Group)
	assert.Equal(t, "Makro", records[1].Group)

	_, err = h.run("", "analysis", "--only-expense", "--only-income")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = h.run("", "analysis", "--group-by", "colour")
	assert.ErrorIs(t, err, common.ErrInvalidGroupBy)

	out = h.mustRun("analysis", "--from", "2025-01-01")
	assert.Contains(t, out, "No transactions in range")

	var report service.Report
	out = h.mustRun("report", "--from", "2024-03-01", "--to", "2024-03-31", "--format", "json")
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "Acme", report.TenantName)
	assert.Len(t, report.Analysis, 2)
}

func TestImportExport(t *testing.T) {
	h := newHarness(t)
	h.mustRun("tenant", "create", "Acme")

	csvPath := filepath.Join(h.dir, "january.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"date,amount,category,type,merchant\n"+
			"2024-01-03,80,Food,,Lotus\n"+
			"2024-01-10,2500,Consulting,income,Client A\n"), 0o600))

	out := h.mustRun("import", csvPath)
	assert.Contains(t, out, "Imported 2 transactions")
	assert.Contains(t, out, `Created income category "Consulting"`)

	out = h.mustRun("export", "--output", "-")
	assert.Equal(t,
		"date,amount,category,merchant,account,project,tags,note\n"+
			"2024-01-03,80,Food,Lotus,,,,\n"+
			"2024-01-10,2500,Consulting,Client A,,,,\n", out)

	xlsxPath := filepath.Join(h.dir, "out.xlsx")
	out = h.mustRun("export", "--format", "xlsx", "--output", xlsxPath)
	assert.Contains(t, out, "Exported 2 transactions")
	assert.FileExists(t, xlsxPath)

	badPath := filepath.Join(h.dir, "bad.csv")
	require.NoError(t, os.WriteFile(badPath, []byte(
		"date,amount,category\n"+
			"2024-01-04,10,Food\n"+
			"2024-01-05,oops,Food\n"), 0o600))

	_, err := h.run("", "import", badPath)
	var importErr *common.ImportError
	require.ErrorAs(t, err, &importErr)
	assert.Equal(t, 2, importErr.Row)

	var txns []model.Transaction
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("tx", "list", "--format", "json")), &txns))
	assert.Len(t, txns, 2, "failed import must not write any row")

	_, err = h.run("", "import", filepath.Join(h.dir, "notes.txt"))
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = h.run("", "export", "--format", "ofx")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestCategoryCommands(t *testing.T) {
	h := newHarness(t)
	h.mustRun("tenant", "create", "Acme")

	out := h.mustRun("categories", "add", "Salary", "--type", "income")
	assert.Contains(t, out, "Salary")

	_, err := h.run("", "categories", "add", "Savings", "--type", "asset")
	assert.ErrorIs(t, err, common.ErrInvalidKind)

	_, err = h.run("", "categories", "delete", "999", "--force")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, 3, exitCode(err))
}

func TestMigrateStatus(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("migrate", "--status")
	assert.Contains(t, out, "Current version: 0")

	out = h.mustRun("migrate")
	assert.Contains(t, out, "Database at schema version")

	out = h.mustRun("migrate", "--status")
	assert.NotContains(t, out, "Pending migrations")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want int
	}{
		{name: "invalid input", err: common.ErrInvalidDate, want: 2},
		{name: "invalid range", err: common.ErrInvalidRange, want: 2},
		{name: "not found", err: common.ErrNotFound, want: 3},
		{name: "conflict", err: common.ErrConflict, want: 4},
		{name: "canceled", err: context.Canceled, want: 130},
		{name: "storage", err: common.ErrStorageFailure, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
