package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/spice-ledger/internal/aggregate"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/period"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// SummaryQuery selects the window of a summary. From and To are YYYY-MM-DD and
// must be given together; when both are empty the current period is used.
// An empty Period means weekly.
type SummaryQuery struct {
	Period string
	From   string
	To     string
}

// AnalysisQuery selects the grouping, bucketing and window of an analysis.
// Without bounds the whole ledger is analysed; a single bound is open-ended.
type AnalysisQuery struct {
	GroupBy     string
	Period      string
	From        string
	To          string
	OnlyExpense bool
	OnlyIncome  bool
}

// ReportQuery selects a summary window and the grouping of its analysis.
type ReportQuery struct {
	GroupBy string
	Period  string
	From    string
	To      string
}

// GetSummary totals income and expense over the resolved window.
func (s *Service) GetSummary(ctx context.Context, tenantID string, q SummaryQuery) (*service.SummaryReport, error) {
	if strings.TrimSpace(q.Period) == "" {
		q.Period = string(model.PeriodWeekly)
	}
	p, err := model.ParsePeriod(q.Period)
	if err != nil {
		return nil, err
	}
	window, err := s.resolveWindow(p, q.From, q.To)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, tenantID, p, window)
}

func (s *Service) resolveWindow(p model.Period, from, to string) (period.Window, error) {
	start, err := model.ParseOptionalDate(from)
	if err != nil {
		return period.Window{}, err
	}
	end, err := model.ParseOptionalDate(to)
	if err != nil {
		return period.Window{}, err
	}
	return s.resolver.Resolve(p, start, end)
}

func (s *Service) summarize(ctx context.Context, tenantID string, p model.Period, window period.Window) (*service.SummaryReport, error) {
	txns, idx, err := s.load(ctx, tenantID, service.TransactionFilter{StartDate: &window.Start, EndDate: &window.End})
	if err != nil {
		return nil, err
	}

	return &service.SummaryReport{
		Summary:  aggregate.Summarize(txns, idx),
		Period:   p,
		Currency: s.currency,
		FromDate: window.Start,
		ToDate:   window.End,
	}, nil
}

// GetAnalysis returns grouped totals per period bucket in deterministic order.
func (s *Service) GetAnalysis(ctx context.Context, tenantID string, q AnalysisQuery) ([]aggregate.Record, error) {
	req, err := analysisRequest(q.GroupBy, q.Period, q.OnlyExpense, q.OnlyIncome)
	if err != nil {
		return nil, err
	}
	filter, err := parseFilter(q.From, q.To)
	if err != nil {
		return nil, err
	}
	return s.analyze(ctx, tenantID, req, filter)
}

func analysisRequest(groupBy, p string, onlyExpense, onlyIncome bool) (aggregate.Request, error) {
	g, err := model.ParseGroupBy(groupBy)
	if err != nil {
		return aggregate.Request{}, err
	}
	pp, err := model.ParsePeriod(p)
	if err != nil {
		return aggregate.Request{}, err
	}

	req := aggregate.Request{GroupBy: g, Period: pp, Kinds: aggregate.AllKinds}
	switch {
	case onlyExpense && onlyIncome:
		return aggregate.Request{}, fmt.Errorf("%w: only_expense and only_income are exclusive", common.ErrInvalidInput)
	case onlyExpense:
		req.Kinds = aggregate.ExpenseOnly
	case onlyIncome:
		req.Kinds = aggregate.IncomeOnly
	}
	return req, nil
}

func (s *Service) analyze(ctx context.Context, tenantID string, req aggregate.Request, filter service.TransactionFilter) ([]aggregate.Record, error) {
	txns, idx, err := s.load(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	return aggregate.Analyze(txns, idx, req)
}

// GetReport computes the summary and the grouped analysis of one window
// concurrently. Either failure fails the whole report.
func (s *Service) GetReport(ctx context.Context, tenantID string, q ReportQuery) (*service.Report, error) {
	p, err := model.ParsePeriod(q.Period)
	if err != nil {
		return nil, err
	}
	req, err := analysisRequest(q.GroupBy, q.Period, false, false)
	if err != nil {
		return nil, err
	}
	window, err := s.resolveWindow(p, q.From, q.To)
	if err != nil {
		return nil, err
	}

	tenant, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	report := &service.Report{
		GeneratedAt: time.Now().UTC(),
		TenantName:  tenant.Name,
		GroupBy:     req.GroupBy,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := s.summarize(gctx, tenantID, p, window)
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}
		report.Summary = *summary
		return nil
	})
	g.Go(func() error {
		records, err := s.analyze(gctx, tenantID, req, service.TransactionFilter{StartDate: &window.Start, EndDate: &window.End})
		if err != nil {
			return fmt.Errorf("analysis: %w", err)
		}
		report.Analysis = records
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return report, nil
}

// load reads the tenant's transactions in filter with a category index.
func (s *Service) load(ctx context.Context, tenantID string, filter service.TransactionFilter) ([]model.Transaction, aggregate.CategoryIndex, error) {
	if err := s.requireTenant(ctx, tenantID); err != nil {
		return nil, nil, err
	}

	txns, err := s.store.ListTransactions(ctx, tenantID, filter)
	if err != nil {
		return nil, nil, err
	}
	categories, err := s.store.ListCategories(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	return txns, aggregate.NewCategoryIndex(categories), nil
}

// PublishReport computes a report and hands it to w.
func (s *Service) PublishReport(ctx context.Context, tenantID string, q ReportQuery, w service.ReportWriter) (*service.Report, error) {
	report, err := s.GetReport(ctx, tenantID, q)
	if err != nil {
		return nil, err
	}
	if err := w.Write(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to publish report: %w", err)
	}
	return report, nil
}
