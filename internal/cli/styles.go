// Package cli renders ledger output for the terminal with lipgloss and
// handles the few interactive bits: confirmation prompts, import progress
// and interrupts.
package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// Palette.
var (
	PrimaryColor = lipgloss.Color("#F4A261")
	IncomeColor  = lipgloss.Color("#2A9D8F")
	ExpenseColor = lipgloss.Color("#E76F51")
	WarningColor = lipgloss.Color("#E9C46A")
	InfoColor    = lipgloss.Color("#8AB17D")
	SubtleColor  = lipgloss.Color("#6C757D")
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor).MarginBottom(1)
	SuccessStyle = lipgloss.NewStyle().Foreground(IncomeColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ExpenseColor)
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor)
	InfoStyle    = lipgloss.NewStyle().Foreground(InfoColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(SubtleColor)
	BoldStyle    = lipgloss.NewStyle().Bold(true)
	PromptStyle  = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SubtleColor).
			Padding(1, 2)

	TableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor).Padding(0, 1)
	TableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	AmountCellStyle  = TableCellStyle.Align(lipgloss.Right)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	LedgerIcon  = "📒"
	ChartIcon   = "📊"
)

func iconMessage(style lipgloss.Style, icon, message string) string {
	return style.Render(icon + " " + message)
}

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string { return iconMessage(SuccessStyle, SuccessIcon, message) }

// FormatError formats an error message with icon.
func FormatError(message string) string { return iconMessage(ErrorStyle, ErrorIcon, message) }

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string { return iconMessage(WarningStyle, WarningIcon, message) }

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string { return iconMessage(InfoStyle, InfoIcon, message) }

// FormatTitle formats a title with the ledger icon.
func FormatTitle(title string) string { return iconMessage(TitleStyle, LedgerIcon, title) }

// FormatPrompt formats a prompt awaiting an answer on the same line.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt) + " "
}

// KindStyle colours amounts by category kind.
func KindStyle(kind model.CategoryKind) lipgloss.Style {
	if kind == model.KindIncome {
		return SuccessStyle
	}
	return ErrorStyle
}

// FormatBalance renders a signed balance, red when negative.
func FormatBalance(balance decimal.Decimal) string {
	if balance.IsNegative() {
		return ErrorStyle.Render(balance.StringFixed(2))
	}
	return SuccessStyle.Render(balance.StringFixed(2))
}

// RenderBox renders content under a title inside a rounded border.
func RenderBox(title, content string) string {
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.UnsetMargins().Render(title),
		content,
	))
}
