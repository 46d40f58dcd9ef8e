// Package services layers the read models and orchestration on top of the
// repositories: the dashboard snapshot, the time series, and the derived
// figures the UI and report generators consume.
package services

import (
	"context"

	"obra/internal/core"
	"obra/internal/log"
	"obra/internal/storage"
)

// CategorySlice is one wedge of the per-category rollup.
type CategorySlice struct {
	CategoryID int64
	Name       string
	Color      string
	Amount     core.Money
	PctOfSpent float64
}

// Dashboard is the coherent aggregate view for the active project. All
// figures come from a single transaction.
type Dashboard struct {
	Project         core.Project
	Budget          core.Money
	TotalSpent      core.Money
	PercentExecuted float64
	Remaining       core.Money
	PerCategory     []CategorySlice
	Recent          []core.Entry
}

// MonthPoint is one month of the monthly series; Month is the first day of
// the month.
type MonthPoint struct {
	Month core.Date
	Total core.Money
}

// DayPoint is one day of the daily series.
type DayPoint struct {
	Day   core.Date
	Total core.Money
}

const defaultTopN = 5

// Reports produces the aggregate read models. With no active project every
// method returns well-defined zeros, never NotFound.
type Reports struct {
	projects *storage.Projects
	agg      *storage.Aggregates
	logger   *log.Logger
}

func NewReports(store *storage.Store, logger *log.Logger) *Reports {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Reports{
		projects: storage.NewProjects(store, logger),
		agg:      storage.NewAggregates(store),
		logger:   logger.WithComponent(log.ComponentReports),
	}
}

// Dashboard returns the dashboard snapshot. Percentages are computed after
// the cents-to-float conversion; the sums themselves stay exact.
func (r *Reports) Dashboard(ctx context.Context) (Dashboard, error) {
	data, err := r.agg.Snapshot(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		Project:    data.Project,
		Budget:     data.Project.Budget,
		TotalSpent: core.Money{Cents: data.TotalCents},
		Remaining:  core.Money{Cents: data.Project.Budget.Cents - data.TotalCents},
		Recent:     data.Recent,
	}
	if d.Budget.Cents > 0 {
		d.PercentExecuted = d.TotalSpent.Reais() / d.Budget.Reais() * 100
	}

	total := d.TotalSpent.Reais()
	d.PerCategory = make([]CategorySlice, len(data.PerCategory))
	for i, cs := range data.PerCategory {
		slice := CategorySlice{
			CategoryID: cs.CategoryID,
			Name:       cs.Name,
			Color:      cs.Color,
			Amount:     core.Money{Cents: cs.AmountCents},
		}
		if total > 0 {
			slice.PctOfSpent = slice.Amount.Reais() / total * 100
		}
		d.PerCategory[i] = slice
	}
	return d, nil
}

// MonthlySeries returns one point per month with at least one entry,
// ascending.
func (r *Reports) MonthlySeries(ctx context.Context) ([]MonthPoint, error) {
	p, err := r.projects.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if !p.Configured() {
		return []MonthPoint{}, nil
	}

	sums, err := r.agg.MonthlyTotals(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	out := make([]MonthPoint, len(sums))
	for i, s := range sums {
		month, err := core.ParseISODate(s.Period + "-01")
		if err != nil {
			return nil, err
		}
		out[i] = MonthPoint{Month: month, Total: core.Money{Cents: s.AmountCents}}
	}
	return out, nil
}

// DailySeries returns exactly one point per calendar day in [from, to];
// days without entries carry a zero total.
func (r *Reports) DailySeries(ctx context.Context, from, to core.Date) ([]DayPoint, error) {
	if from.IsZero() || to.IsZero() {
		return nil, core.Invalid("period", core.ReasonEmptyField)
	}
	if to.Before(from.Time) {
		return nil, core.Invalid("period", core.ReasonBadDateRange)
	}

	byDay := map[string]int64{}
	p, err := r.projects.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if p.Configured() {
		sums, err := r.agg.DailyTotals(ctx, p.ID, from, to)
		if err != nil {
			return nil, err
		}
		for _, s := range sums {
			byDay[s.Period] = s.AmountCents
		}
	}

	var out []DayPoint
	for day := from; !day.After(to.Time); day = day.AddDays(1) {
		out = append(out, DayPoint{
			Day:   day,
			Total: core.Money{Cents: byDay[day.ISO()]},
		})
	}
	return out, nil
}

// TopEntries returns the n largest entries of the active project; n <= 0
// means the default of five.
func (r *Reports) TopEntries(ctx context.Context, n int) ([]core.Entry, error) {
	if n <= 0 {
		n = defaultTopN
	}
	p, err := r.projects.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if !p.Configured() {
		return []core.Entry{}, nil
	}
	return r.agg.TopEntries(ctx, p.ID, uint64(n))
}

// BurnRate sums the active project's entries over the last 30 days.
func (r *Reports) BurnRate(ctx context.Context) (core.Money, error) {
	p, err := r.projects.GetActive(ctx)
	if err != nil {
		return core.Money{}, err
	}
	if !p.Configured() {
		return core.Money{}, nil
	}
	cents, err := r.agg.SumSince(ctx, p.ID, 30)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// AverageEntry returns the mean entry amount of the active project in
// reais, zero when there are no entries.
func (r *Reports) AverageEntry(ctx context.Context) (float64, error) {
	p, err := r.projects.GetActive(ctx)
	if err != nil {
		return 0, err
	}
	if !p.Configured() {
		return 0, nil
	}
	avgCents, err := r.agg.AverageCents(ctx, p.ID)
	if err != nil {
		return 0, err
	}
	return avgCents / 100, nil
}

// Projection linearly extrapolates total spend over the project timeline:
// total / fraction-of-schedule-elapsed. ok is false when the project has no
// usable timeline or none of it has elapsed yet.
func (r *Reports) Projection(ctx context.Context) (projected float64, ok bool, err error) {
	d, err := r.Dashboard(ctx)
	if err != nil {
		return 0, false, err
	}
	p := d.Project
	if !p.Configured() || p.StartDate.IsZero() || p.PlannedEnd.IsZero() {
		return 0, false, nil
	}

	span := p.PlannedEnd.Sub(p.StartDate.Time).Hours() / 24
	elapsed := core.Today().Sub(p.StartDate.Time).Hours() / 24
	if span <= 0 || elapsed <= 0 {
		return 0, false, nil
	}
	return d.TotalSpent.Reais() / (elapsed / span), true, nil
}
