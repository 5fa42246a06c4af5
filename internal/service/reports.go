package service

import (
	"context"
	"time"

	"github.com/Veraticus/spice-ledger/internal/aggregate"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// SummaryReport is the income/expense balance of a tenant over a resolved window.
type SummaryReport struct {
	aggregate.Summary
	Period   model.Period `json:"period"`
	Currency string       `json:"currency"`
	FromDate model.Date   `json:"from_date"`
	ToDate   model.Date   `json:"to_date"`
}

// Report bundles a summary with the grouped analysis of the same window.
type Report struct {
	GeneratedAt time.Time          `json:"generated_at"`
	TenantName  string             `json:"tenant"`
	GroupBy     model.GroupBy      `json:"group_by"`
	Analysis    []aggregate.Record `json:"analysis"`
	Summary     SummaryReport      `json:"summary"`
}

// ReportWriter publishes a report to an external destination.
type ReportWriter interface {
	Write(ctx context.Context, report *Report) error
}
