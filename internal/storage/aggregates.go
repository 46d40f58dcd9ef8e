package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"obra/internal/core"
)

// CategorySum is one per-category rollup row. Categories with no spend are
// present with a zero amount.
type CategorySum struct {
	CategoryID  int64  `db:"category_id"`
	Name        string `db:"name"`
	Color       string `db:"color"`
	AmountCents int64  `db:"amount_cents"`
}

// PeriodSum is one bucket of a time series. Period is YYYY-MM for monthly
// buckets and YYYY-MM-DD for daily ones.
type PeriodSum struct {
	Period      string `db:"period"`
	AmountCents int64  `db:"amount_cents"`
}

// SnapshotData is the raw dashboard read model, produced inside a single
// transaction so concurrent writers cannot tear it.
type SnapshotData struct {
	Project     core.Project
	TotalCents  int64
	PerCategory []CategorySum
	Recent      []core.Entry
}

// Aggregates runs the read-only rollup queries behind the dashboard and
// report surfaces. All queries are scoped to one project.
type Aggregates struct {
	s *Store
}

func NewAggregates(s *Store) *Aggregates {
	return &Aggregates{s: s}
}

// Snapshot resolves the active project and reads total spend, per-category
// rollups, and the five most recent entries in one transaction. With no
// active project it returns the unconfigured sentinel and empty rollups.
func (a *Aggregates) Snapshot(ctx context.Context) (SnapshotData, error) {
	data := SnapshotData{Project: core.UnconfiguredProject()}

	err := a.s.WithReadTx(ctx, func(tx *sqlx.Tx) error {
		d := a.s.Dialect
		b := d.Builder()

		query, args, err := b.Select(
			"id", "name", "budget_cents",
			d.DateExpr("start_date")+" AS start_date",
			d.DateExpr("planned_end_date")+" AS planned_end_date",
			"active",
		).From("projects").Where(squirrel.Eq{"active": true}).Limit(1).ToSql()
		if err != nil {
			return err
		}
		var pr projectRow
		if err := tx.GetContext(ctx, &pr, query, args...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil // unconfigured: well-defined zeros
			}
			return err
		}
		data.Project = pr.toProject()
		pid := data.Project.ID

		query, args, err = b.Select("COALESCE(SUM(amount_cents), 0)").
			From("entries").
			Where(squirrel.Eq{"project_id": pid}).
			ToSql()
		if err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &data.TotalCents, query, args...); err != nil {
			return err
		}

		// Every active category appears, spend or not.
		query, args, err = b.Select(
			"c.id AS category_id", "c.name", "c.color",
			"COALESCE(SUM(e.amount_cents), 0) AS amount_cents",
		).From("categories c").
			LeftJoin("entries e ON e.category_id = c.id AND e.project_id = ?", pid).
			Where(squirrel.Eq{"c.active": true}).
			GroupBy("c.id", "c.name", "c.color").
			OrderBy("amount_cents DESC", "c.name ASC").
			ToSql()
		if err != nil {
			return err
		}
		if err := tx.SelectContext(ctx, &data.PerCategory, query, args...); err != nil {
			return err
		}

		query, args, err = b.Select(
			"e.id", "e.project_id", "e.category_id",
			"c.name AS category_name", "c.color AS category_color",
			"e.description", "e.amount_cents",
			d.DateExpr("e.entry_date")+" AS entry_date",
			"e.notes",
		).From("entries e").
			Join("categories c ON c.id = e.category_id").
			Where(squirrel.Eq{"e.project_id": pid}).
			OrderBy("e.entry_date DESC", "e.id DESC").
			Limit(5).
			ToSql()
		if err != nil {
			return err
		}
		var rows []entryRow
		if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
			return err
		}
		data.Recent = make([]core.Entry, len(rows))
		for i, row := range rows {
			data.Recent[i] = row.toEntry()
		}
		return nil
	})
	if err != nil {
		return SnapshotData{}, wrapStorage("dashboard snapshot", err)
	}
	return data, nil
}

// MonthlyTotals sums a project's entries per calendar month, ascending.
func (a *Aggregates) MonthlyTotals(ctx context.Context, projectID int64) ([]PeriodSum, error) {
	d := a.s.Dialect
	sb := d.Builder().Select(
		d.MonthExpr("entry_date")+" AS period",
		"SUM(amount_cents) AS amount_cents",
	).From("entries").
		Where(squirrel.Eq{"project_id": projectID}).
		GroupBy("1").
		OrderBy("1 ASC")
	return a.periods(ctx, sb, "monthly totals")
}

// DailyTotals sums a project's entries per day over the inclusive range.
// Days without entries are absent here; the service layer fills the gaps.
func (a *Aggregates) DailyTotals(ctx context.Context, projectID int64, from, to core.Date) ([]PeriodSum, error) {
	d := a.s.Dialect
	sb := d.Builder().Select(
		d.DateExpr("entry_date")+" AS period",
		"SUM(amount_cents) AS amount_cents",
	).From("entries").
		Where(squirrel.Eq{"project_id": projectID}).
		Where(squirrel.GtOrEq{"entry_date": from.ISO()}).
		Where(squirrel.LtOrEq{"entry_date": to.ISO()}).
		GroupBy("1").
		OrderBy("1 ASC")
	return a.periods(ctx, sb, "daily totals")
}

func (a *Aggregates) periods(ctx context.Context, sb squirrel.SelectBuilder, op string) ([]PeriodSum, error) {
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, wrapStorage("build series query", err)
	}
	var out []PeriodSum
	if err := a.s.DB.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, wrapStorage(op, err)
	}
	return out, nil
}

// TopEntries returns the n largest entries, ties broken by newest date then
// highest id.
func (a *Aggregates) TopEntries(ctx context.Context, projectID int64, n uint64) ([]core.Entry, error) {
	d := a.s.Dialect
	query, args, err := d.Builder().Select(
		"e.id", "e.project_id", "e.category_id",
		"c.name AS category_name", "c.color AS category_color",
		"e.description", "e.amount_cents",
		d.DateExpr("e.entry_date")+" AS entry_date",
		"e.notes",
	).From("entries e").
		Join("categories c ON c.id = e.category_id").
		Where(squirrel.Eq{"e.project_id": projectID}).
		OrderBy("e.amount_cents DESC", "e.entry_date DESC", "e.id DESC").
		Limit(n).
		ToSql()
	if err != nil {
		return nil, wrapStorage("build top entries query", err)
	}

	var rows []entryRow
	if err := a.s.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapStorage("top entries", err)
	}
	out := make([]core.Entry, len(rows))
	for i, row := range rows {
		out[i] = row.toEntry()
	}
	return out, nil
}

// SumSince sums a project's entries dated within the last n days.
func (a *Aggregates) SumSince(ctx context.Context, projectID int64, days int) (int64, error) {
	d := a.s.Dialect
	query, args, err := d.Builder().
		Select("COALESCE(SUM(amount_cents), 0)").
		From("entries").
		Where(squirrel.Eq{"project_id": projectID}).
		Where(squirrel.Expr(fmt.Sprintf("entry_date >= %s", d.DaysAgoExpr(days)))).
		ToSql()
	if err != nil {
		return 0, wrapStorage("build burn rate query", err)
	}
	var total int64
	if err := a.s.DB.GetContext(ctx, &total, query, args...); err != nil {
		return 0, wrapStorage("sum recent entries", err)
	}
	return total, nil
}

// AverageCents returns AVG(amount_cents) for a project, zero when there are
// no entries. The average is computed by the database and marshalled to
// float at this boundary.
func (a *Aggregates) AverageCents(ctx context.Context, projectID int64) (float64, error) {
	query, args, err := a.s.Dialect.Builder().
		Select("COALESCE(AVG(amount_cents), 0)").
		From("entries").
		Where(squirrel.Eq{"project_id": projectID}).
		ToSql()
	if err != nil {
		return 0, wrapStorage("build average query", err)
	}
	var avg float64
	if err := a.s.DB.GetContext(ctx, &avg, query, args...); err != nil {
		return 0, wrapStorage("average entry amount", err)
	}
	return avg, nil
}
