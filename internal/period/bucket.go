package period

import (
	"cmp"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// Bucket identifies the period a transaction falls into. Only the fields
// relevant to Period are set: Date for daily, Year and Week (ISO 8601) for
// weekly, Year and Month for monthly, Year for yearly.
type Bucket struct {
	Date   *model.Date
	Period model.Period
	Year   int
	Month  int
	Week   int
}

// BucketOf returns the bucket key of d for period p.
func BucketOf(d model.Date, p model.Period) Bucket {
	switch p {
	case model.PeriodDaily:
		day := d
		return Bucket{Period: p, Year: d.Year(), Date: &day}
	case model.PeriodWeekly:
		year, week := d.ISOWeek()
		return Bucket{Period: p, Year: year, Week: week}
	case model.PeriodYearly:
		return Bucket{Period: p, Year: d.Year()}
	default:
		return Bucket{Period: model.PeriodMonthly, Year: d.Year(), Month: int(d.Month())}
	}
}

// Key returns a comparable identity for the bucket.
func (b Bucket) Key() string {
	switch b.Period {
	case model.PeriodDaily:
		return b.Date.String()
	case model.PeriodWeekly:
		return fmt.Sprintf("%04d-W%02d", b.Year, b.Week)
	case model.PeriodYearly:
		return fmt.Sprintf("%04d", b.Year)
	default:
		return fmt.Sprintf("%04d-%02d", b.Year, b.Month)
	}
}

// Compare orders buckets chronologically: by year, then month, week or date.
func (b Bucket) Compare(other Bucket) int {
	if b.Period == model.PeriodDaily && b.Date != nil && other.Date != nil {
		return b.Date.Compare(*other.Date)
	}
	if c := cmp.Compare(b.Year, other.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Month, other.Month); c != 0 {
		return c
	}
	return cmp.Compare(b.Week, other.Week)
}
