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

type entryRow struct {
	ID            int64          `db:"id"`
	ProjectID     int64          `db:"project_id"`
	CategoryID    int64          `db:"category_id"`
	CategoryName  string         `db:"category_name"`
	CategoryColor string         `db:"category_color"`
	Description   string         `db:"description"`
	AmountCents   int64          `db:"amount_cents"`
	EntryDate     string         `db:"entry_date"`
	Notes         sql.NullString `db:"notes"`
}

func (r entryRow) toEntry() core.Entry {
	date, _ := core.ParseISODate(r.EntryDate)
	return core.Entry{
		ID:            r.ID,
		ProjectID:     r.ProjectID,
		CategoryID:    r.CategoryID,
		CategoryName:  r.CategoryName,
		CategoryColor: r.CategoryColor,
		Description:   r.Description,
		Amount:        core.Money{Cents: r.AmountCents},
		Date:          date,
		Notes:         r.Notes.String,
	}
}

// Entries is the entry (lançamento) repository.
type Entries struct {
	s      *Store
	logger *log.Logger
}

func NewEntries(s *Store, logger *log.Logger) *Entries {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Entries{s: s, logger: logger.WithComponent(log.ComponentStorage)}
}

func (r *Entries) columns() []string {
	d := r.s.Dialect
	return []string{
		"e.id", "e.project_id", "e.category_id",
		"c.name AS category_name", "c.color AS category_color",
		"e.description", "e.amount_cents",
		d.DateExpr("e.entry_date") + " AS entry_date",
		"e.notes",
	}
}

// Insert stores a new entry and returns it with its id. Referential
// existence of the project and category is checked inside the transaction.
func (r *Entries) Insert(ctx context.Context, e core.Entry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}

	err := r.s.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireRow(ctx, tx, r.s.Dialect, "projects", e.ProjectID, "project_id"); err != nil {
			return err
		}
		if err := requireRow(ctx, tx, r.s.Dialect, "categories", e.CategoryID, "category_id"); err != nil {
			return err
		}

		ib := r.s.Dialect.Builder().
			Insert("entries").
			Columns("project_id", "category_id", "description", "amount_cents", "entry_date", "notes").
			Values(e.ProjectID, e.CategoryID, e.Description, e.Amount.Cents, e.Date.ISO(), nullString(e.Notes))
		id, err := r.s.Dialect.InsertID(ctx, tx, ib)
		if err != nil {
			return err
		}
		e.ID = id
		return nil
	})
	if err != nil {
		return core.Entry{}, wrapStorage("insert entry", err)
	}

	r.logger.InfoContext(ctx, "Entry saved",
		log.FieldEntryID, e.ID,
		log.FieldProjectID, e.ProjectID,
		log.FieldCategoryID, e.CategoryID,
		log.FieldAmountCents, e.Amount.Cents,
		log.FieldEntryDate, e.Date.ISO())
	return e, nil
}

// Get returns a single entry joined with its category.
func (r *Entries) Get(ctx context.Context, id int64) (core.Entry, error) {
	query, args, err := r.s.Dialect.Builder().
		Select(r.columns()...).
		From("entries e").
		Join("categories c ON c.id = e.category_id").
		Where(squirrel.Eq{"e.id": id}).
		ToSql()
	if err != nil {
		return core.Entry{}, wrapStorage("build entry query", err)
	}

	var row entryRow
	if err := r.s.DB.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Entry{}, &core.NotFoundError{Entity: "entry", ID: id}
		}
		return core.Entry{}, wrapStorage("get entry", err)
	}
	return row.toEntry(), nil
}

// ListByProject returns a project's entries joined with category metadata,
// newest first.
func (r *Entries) ListByProject(ctx context.Context, projectID int64) ([]core.Entry, error) {
	sb := r.s.Dialect.Builder().
		Select(r.columns()...).
		From("entries e").
		Join("categories c ON c.id = e.category_id").
		Where(squirrel.Eq{"e.project_id": projectID}).
		OrderBy("e.entry_date DESC", "e.id DESC")
	return r.list(ctx, sb, "list entries by project")
}

// ListByPeriod returns a project's entries with entry_date in the inclusive
// range [from, to].
func (r *Entries) ListByPeriod(ctx context.Context, projectID int64, from, to core.Date) ([]core.Entry, error) {
	if from.IsZero() || to.IsZero() {
		return nil, core.Invalid("period", core.ReasonEmptyField)
	}
	if to.Before(from.Time) {
		return nil, core.Invalid("period", core.ReasonBadDateRange)
	}
	sb := r.s.Dialect.Builder().
		Select(r.columns()...).
		From("entries e").
		Join("categories c ON c.id = e.category_id").
		Where(squirrel.Eq{"e.project_id": projectID}).
		Where(squirrel.GtOrEq{"e.entry_date": from.ISO()}).
		Where(squirrel.LtOrEq{"e.entry_date": to.ISO()}).
		OrderBy("e.entry_date DESC", "e.id DESC")
	return r.list(ctx, sb, "list entries by period")
}

func (r *Entries) list(ctx context.Context, sb squirrel.SelectBuilder, op string) ([]core.Entry, error) {
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, wrapStorage("build entry query", err)
	}
	var rows []entryRow
	if err := r.s.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapStorage(op, err)
	}
	out := make([]core.Entry, len(rows))
	for i, row := range rows {
		out[i] = row.toEntry()
	}
	return out, nil
}

// Update rewrites an entry's category, description, amount, date, and notes.
func (r *Entries) Update(ctx context.Context, id int64, categoryID int64, description string, amount core.Money, date core.Date, notes string) error {
	probe := core.Entry{
		ID:          id,
		ProjectID:   1, // not updated; real existence is checked below
		CategoryID:  categoryID,
		Description: description,
		Amount:      amount,
		Date:        date,
	}
	if err := probe.Validate(); err != nil {
		return err
	}

	err := r.s.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireRow(ctx, tx, r.s.Dialect, "categories", categoryID, "category_id"); err != nil {
			return err
		}

		ub := r.s.Dialect.Builder().
			Update("entries").
			Set("category_id", categoryID).
			Set("description", description).
			Set("amount_cents", amount.Cents).
			Set("entry_date", date.ISO()).
			Set("notes", nullString(notes)).
			Where(squirrel.Eq{"id": id})
		ub = touchUpdatedAt(r.s.Dialect, ub)
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
			return &core.NotFoundError{Entity: "entry", ID: id}
		}
		return nil
	})
	return wrapStorage("update entry", err)
}

// Delete removes an entry; its attachments go with it via the FK cascade.
func (r *Entries) Delete(ctx context.Context, id int64) error {
	err := r.s.WithTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := r.s.Dialect.Builder().
			Delete("entries").
			Where(squirrel.Eq{"id": id}).
			ToSql()
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
			return &core.NotFoundError{Entity: "entry", ID: id}
		}
		return nil
	})
	if err != nil {
		return wrapStorage("delete entry", err)
	}
	r.logger.InfoContext(ctx, "Entry deleted", log.FieldEntryID, id)
	return nil
}

// CountByCategory reports how many entries reference a category. The UI
// uses it to explain why a category can only be deactivated.
func (r *Entries) CountByCategory(ctx context.Context, categoryID int64) (int64, error) {
	query, args, err := r.s.Dialect.Builder().
		Select("COUNT(*)").
		From("entries").
		Where(squirrel.Eq{"category_id": categoryID}).
		ToSql()
	if err != nil {
		return 0, wrapStorage("build entry count query", err)
	}
	var n int64
	if err := r.s.DB.GetContext(ctx, &n, query, args...); err != nil {
		return 0, wrapStorage("count entries by category", err)
	}
	return n, nil
}

// requireRow fails with a missing-fk validation error when the referenced
// row does not exist.
func requireRow(ctx context.Context, tx *sqlx.Tx, d Dialect, table string, id int64, field string) error {
	query, args, err := d.Builder().
		Select("1").
		From(table).
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return err
	}
	var one int
	err = tx.GetContext(ctx, &one, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Invalid(field, core.ReasonMissingFK)
	}
	return err
}

// nullString binds an empty string as NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
