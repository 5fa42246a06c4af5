// Package period resolves reporting windows and per-transaction bucket keys.
package period

import (
	"fmt"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// DefaultTimezone is used for "today" when no timezone is configured.
const DefaultTimezone = "Asia/Bangkok"

// Window is an inclusive date range.
type Window struct {
	Start model.Date `json:"from_date"`
	End   model.Date `json:"to_date"`
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d model.Date) bool {
	return w.Start.Compare(d) <= 0 && d.Compare(w.End) <= 0
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.Start, w.End)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the resolver's source of the current instant.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// Resolver turns period requests into concrete windows in a single timezone.
type Resolver struct {
	location *time.Location
	now      func() time.Time
}

// NewResolver creates a resolver for the named IANA timezone. An empty name
// selects DefaultTimezone.
func NewResolver(timezone string, opts ...Option) (*Resolver, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", common.ErrInvalidConfig, timezone, err)
	}

	r := &Resolver{
		location: location,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Location returns the resolver's timezone.
func (r *Resolver) Location() *time.Location {
	return r.location
}

// Today returns the current calendar date in the resolver's timezone.
func (r *Resolver) Today() model.Date {
	return model.DateOf(r.now().In(r.location))
}

// Resolve returns the window for p. With both bounds the explicit range is used
// as-is; with neither the current period containing today is used. Supplying
// only one bound is an input error.
func (r *Resolver) Resolve(p model.Period, from, to *model.Date) (Window, error) {
	switch {
	case from != nil && to != nil:
		return Explicit(*from, *to)
	case from == nil && to == nil:
		return Current(p, r.Today())
	default:
		return Window{}, fmt.Errorf("%w: from_date and to_date must be provided together", common.ErrInvalidInput)
	}
}

// Explicit validates and returns [from, to].
func Explicit(from, to model.Date) (Window, error) {
	if from.Compare(to) > 0 {
		return Window{}, fmt.Errorf("%w: from_date %s is after to_date %s", common.ErrInvalidRange, from, to)
	}
	return Window{Start: from, End: to}, nil
}

// Current returns the period window of kind p containing today.
func Current(p model.Period, today model.Date) (Window, error) {
	switch p {
	case model.PeriodDaily:
		return Window{Start: today, End: today}, nil
	case model.PeriodWeekly:
		// Weeks start on Monday.
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDays(-offset)
		return Window{Start: start, End: start.AddDays(6)}, nil
	case model.PeriodMonthly:
		start := model.NewDate(today.Year(), today.Month(), 1)
		end := model.NewDate(today.Year(), today.Month()+1, 0)
		return Window{Start: start, End: end}, nil
	case model.PeriodYearly:
		return Window{
			Start: model.NewDate(today.Year(), time.January, 1),
			End:   model.NewDate(today.Year(), time.December, 31),
		}, nil
	default:
		return Window{}, fmt.Errorf("%w: %q", common.ErrInvalidPeriod, p)
	}
}
