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

type categoryRow struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	Color       string         `db:"color"`
	Active      bool           `db:"active"`
}

func (r categoryRow) toCategory() core.Category {
	return core.Category{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description.String,
		Color:       r.Color,
		Active:      r.Active,
	}
}

// Categories is the category repository. Deletion is not exposed: a
// category that has been used keeps its rows and is deactivated instead.
type Categories struct {
	s      *Store
	logger *log.Logger
}

func NewCategories(s *Store, logger *log.Logger) *Categories {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Categories{s: s, logger: logger.WithComponent(log.ComponentStorage)}
}

var categoryColumns = []string{"id", "name", "description", "color", "active"}

// ListActive returns active categories ordered by name.
func (r *Categories) ListActive(ctx context.Context) ([]core.Category, error) {
	return r.list(ctx, r.s.Dialect.Builder().
		Select(categoryColumns...).
		From("categories").
		Where(squirrel.Eq{"active": true}).
		OrderBy("name ASC"))
}

// ListAll returns every category, active ones first, each group by name.
func (r *Categories) ListAll(ctx context.Context) ([]core.Category, error) {
	return r.list(ctx, r.s.Dialect.Builder().
		Select(categoryColumns...).
		From("categories").
		OrderBy("active DESC", "name ASC"))
}

func (r *Categories) list(ctx context.Context, sb squirrel.SelectBuilder) ([]core.Category, error) {
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, wrapStorage("build category query", err)
	}
	var rows []categoryRow
	if err := r.s.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapStorage("list categories", err)
	}
	out := make([]core.Category, len(rows))
	for i, row := range rows {
		out[i] = row.toCategory()
	}
	return out, nil
}

// Get returns a category by id.
func (r *Categories) Get(ctx context.Context, id int64) (core.Category, error) {
	query, args, err := r.s.Dialect.Builder().
		Select(categoryColumns...).
		From("categories").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return core.Category{}, wrapStorage("build category query", err)
	}
	var row categoryRow
	if err := r.s.DB.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Category{}, &core.NotFoundError{Entity: "category", ID: id}
		}
		return core.Category{}, wrapStorage("get category", err)
	}
	return row.toCategory(), nil
}

// Create inserts a new active category.
func (r *Categories) Create(ctx context.Context, name, description, color string) (core.Category, error) {
	c := core.Category{Name: name, Description: description, Color: color, Active: true}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	err := r.s.WithTx(ctx, func(tx *sqlx.Tx) error {
		ib := r.s.Dialect.Builder().
			Insert("categories").
			Columns("name", "description", "color", "active").
			Values(c.Name, c.Description, c.Color, true)
		id, err := r.s.Dialect.InsertID(ctx, tx, ib)
		if err != nil {
			return err
		}
		c.ID = id
		return nil
	})
	if err != nil {
		return core.Category{}, wrapStorage("create category", err)
	}
	r.logger.InfoContext(ctx, "Category created", log.FieldCategoryID, c.ID, "name", c.Name)
	return c, nil
}

// Update rewrites a category's name, description, and color.
func (r *Categories) Update(ctx context.Context, id int64, name, description, color string) error {
	c := core.Category{ID: id, Name: name, Description: description, Color: color}
	if err := c.Validate(); err != nil {
		return err
	}

	err := r.s.WithTx(ctx, func(tx *sqlx.Tx) error {
		ub := r.s.Dialect.Builder().
			Update("categories").
			Set("name", c.Name).
			Set("description", c.Description).
			Set("color", c.Color).
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
			return &core.NotFoundError{Entity: "category", ID: id}
		}
		return nil
	})
	return wrapStorage("update category", err)
}

// SetActive flips a category's active toggle. The only removal path.
func (r *Categories) SetActive(ctx context.Context, id int64, active bool) error {
	err := r.s.WithTx(ctx, func(tx *sqlx.Tx) error {
		ub := r.s.Dialect.Builder().
			Update("categories").
			Set("active", active).
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
			return &core.NotFoundError{Entity: "category", ID: id}
		}
		return nil
	})
	if err != nil {
		return wrapStorage("set category active", err)
	}
	r.logger.InfoContext(ctx, "Category active flag changed", log.FieldCategoryID, id, "active", active)
	return nil
}
