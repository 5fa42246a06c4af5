package model

import (
	"fmt"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// Period is the bucket granularity of a report.
type Period string

// Supported periods.
const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// Periods lists every supported period in ascending granularity.
var Periods = []Period{PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly}

// ParsePeriod parses a period name. An empty string selects monthly.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodMonthly, nil
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrInvalidPeriod, s)
	}
}

// GroupBy names the dimension an analysis groups transactions by.
type GroupBy string

// Supported grouping dimensions.
const (
	GroupByCategory GroupBy = "category"
	GroupByMerchant GroupBy = "merchant"
	GroupByAccount  GroupBy = "account"
	GroupByProject  GroupBy = "project"
)

// ParseGroupBy parses a grouping dimension. "category_id" is accepted as an
// alias for category and an empty string selects category.
func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(strings.ToLower(strings.TrimSpace(s))); g {
	case "", "category_id":
		return GroupByCategory, nil
	case GroupByCategory, GroupByMerchant, GroupByAccount, GroupByProject:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrInvalidGroupBy, s)
	}
}
