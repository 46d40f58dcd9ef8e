package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"obra/internal/core"
	"obra/internal/log"
)

type projectRow struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	BudgetCents int64          `db:"budget_cents"`
	StartDate   sql.NullString `db:"start_date"`
	PlannedEnd  sql.NullString `db:"planned_end_date"`
	Active      bool           `db:"active"`
}

func (r projectRow) toProject() core.Project {
	start, _ := core.ParseISODate(r.StartDate.String)
	end, _ := core.ParseISODate(r.PlannedEnd.String)
	return core.Project{
		ID:         r.ID,
		Name:       r.Name,
		Budget:     core.Money{Cents: r.BudgetCents},
		StartDate:  start,
		PlannedEnd: end,
		Active:     r.Active,
	}
}

// Projects is the project repository. Projects are never hard-deleted;
// deactivation flips active, and at most one project is active at a time.
type Projects struct {
	s      *Store
	logger *log.Logger
}

func NewProjects(s *Store, logger *log.Logger) *Projects {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Projects{s: s, logger: logger.WithComponent(log.ComponentStorage)}
}

func (r *Projects) columns() []string {
	d := r.s.Dialect
	return []string{
		"id", "name", "budget_cents",
		d.DateExpr("start_date") + " AS start_date",
		d.DateExpr("planned_end_date") + " AS planned_end_date",
		"active",
	}
}

// GetActive returns the single active project, or the unconfigured sentinel
// when none exists. It never returns NotFound.
func (r *Projects) GetActive(ctx context.Context) (core.Project, error) {
	query, args, err := r.s.Dialect.Builder().
		Select(r.columns()...).
		From("projects").
		Where(squirrel.Eq{"active": true}).
		Limit(1).
		ToSql()
	if err != nil {
		return core.Project{}, wrapStorage("build active project query", err)
	}

	var row projectRow
	if err := r.s.DB.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.UnconfiguredProject(), nil
		}
		return core.Project{}, wrapStorage("get active project", err)
	}
	return row.toProject(), nil
}

// Get returns a project by id.
func (r *Projects) Get(ctx context.Context, id int64) (core.Project, error) {
	query, args, err := r.s.Dialect.Builder().
		Select(r.columns()...).
		From("projects").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return core.Project{}, wrapStorage("build project query", err)
	}

	var row projectRow
	if err := r.s.DB.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Project{}, &core.NotFoundError{Entity: "project", ID: id}
		}
		return core.Project{}, wrapStorage("get project", err)
	}
	return row.toProject(), nil
}

// UpsertActive updates the active project in place, or inserts one as
// active when none exists.
func (r *Projects) UpsertActive(ctx context.Context, name string, budget core.Money, start, plannedEnd core.Date) (core.Project, error) {
	p := core.Project{
		Name:       name,
		Budget:     budget,
		StartDate:  start,
		PlannedEnd: plannedEnd,
		Active:     true,
	}
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}

	err := r.s.WithTx(ctx, func(tx *sqlx.Tx) error {
		d := r.s.Dialect
		b := d.Builder()

		query, args, err := b.Select("id").
			From("projects").
			Where(squirrel.Eq{"active": true}).
			Limit(1).
			ToSql()
		if err != nil {
			return err
		}

		var id int64
		err = tx.GetContext(ctx, &id, query, args...)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			ib := b.Insert("projects").
				Columns("name", "budget_cents", "start_date", "planned_end_date", "active").
				Values(p.Name, p.Budget.Cents, nullDate(p.StartDate), nullDate(p.PlannedEnd), true)
			id, err = d.InsertID(ctx, tx, ib)
			if err != nil {
				return err
			}
			r.logger.InfoContext(ctx, "Project created", log.FieldProjectID, id)
		case err != nil:
			return err
		default:
			ub := b.Update("projects").
				Set("name", p.Name).
				Set("budget_cents", p.Budget.Cents).
				Set("start_date", nullDate(p.StartDate)).
				Set("planned_end_date", nullDate(p.PlannedEnd)).
				Where(squirrel.Eq{"id": id})
			ub = touchUpdatedAt(d, ub)
			uq, uargs, err := ub.ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, uq, uargs...); err != nil {
				return err
			}
			r.logger.InfoContext(ctx, "Project updated", log.FieldProjectID, id)
		}
		p.ID = id
		return nil
	})
	if err != nil {
		return core.Project{}, wrapStorage("upsert active project", err)
	}
	return p, nil
}

// SetActive flips a project's active toggle. Activating a project
// deactivates any other active one inside the same transaction, so the
// single-active invariant holds for every reachable state.
func (r *Projects) SetActive(ctx context.Context, id int64, active bool) error {
	err := r.s.WithTx(ctx, func(tx *sqlx.Tx) error {
		d := r.s.Dialect
		b := d.Builder()

		if active {
			db := b.Update("projects").
				Set("active", false).
				Where(squirrel.And{
					squirrel.Eq{"active": true},
					squirrel.NotEq{"id": id},
				})
			db = touchUpdatedAt(d, db)
			query, args, err := db.ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return err
			}
		}

		ub := b.Update("projects").
			Set("active", active).
			Where(squirrel.Eq{"id": id})
		ub = touchUpdatedAt(d, ub)
		query, args, err := ub.ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &core.NotFoundError{Entity: "project", ID: id}
		}
		return nil
	})
	return wrapStorage("set project active", err)
}

// nullDate binds a possibly-zero date as NULL.
func nullDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.ISO()
}

// touchUpdatedAt adds the explicit updated_at assignment on the backend
// without a maintaining trigger.
func touchUpdatedAt(d Dialect, ub squirrel.UpdateBuilder) squirrel.UpdateBuilder {
	if d.MaintainsUpdatedAt() {
		return ub
	}
	return ub.Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP"))
}
