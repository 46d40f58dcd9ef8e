package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// BackendKind identifies which of the two backends a store talks to.
type BackendKind string

const (
	BackendEmbedded BackendKind = "embedded"
	BackendServer   BackendKind = "server"
)

// Dialect hides the SQL differences between the embedded and server
// backends: placeholder style, boolean literals, generated-id retrieval,
// date rendering and truncation, and relative-date arithmetic.
//
// Repositories are authored once against these primitives and never branch
// on backend identity themselves.
type Dialect struct {
	kind BackendKind
}

func DialectFor(kind BackendKind) Dialect {
	return Dialect{kind: kind}
}

func (d Dialect) Kind() BackendKind { return d.kind }

// Builder returns a statement builder using the backend's placeholder
// style: $1..$n on the server, ? on the embedded backend.
func (d Dialect) Builder() squirrel.StatementBuilderType {
	if d.kind == BackendServer {
		return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

// BoolLit renders a boolean literal for raw SQL fragments.
func (d Dialect) BoolLit(v bool) string {
	if d.kind == BackendServer {
		if v {
			return "TRUE"
		}
		return "FALSE"
	}
	if v {
		return "1"
	}
	return "0"
}

// DateExpr renders a date column as a YYYY-MM-DD string. Both backends
// produce the same row shape through this expression.
func (d Dialect) DateExpr(col string) string {
	if d.kind == BackendServer {
		return fmt.Sprintf("to_char(%s, 'YYYY-MM-DD')", col)
	}
	return fmt.Sprintf("date(%s)", col)
}

// MonthExpr truncates a date column to its month as a YYYY-MM string.
func (d Dialect) MonthExpr(col string) string {
	if d.kind == BackendServer {
		return fmt.Sprintf("to_char(date_trunc('month', %s), 'YYYY-MM')", col)
	}
	return fmt.Sprintf("strftime('%%Y-%%m', %s)", col)
}

// DaysAgoExpr renders "today minus n days" as a date expression.
func (d Dialect) DaysAgoExpr(n int) string {
	if d.kind == BackendServer {
		return fmt.Sprintf("(CURRENT_DATE - INTERVAL '%d days')", n)
	}
	return fmt.Sprintf("date('now', '-%d days')", n)
}

// MaintainsUpdatedAt reports whether the backend keeps updated_at current
// by itself. The server schema installs a trigger; the embedded backend
// needs an explicit assignment on every UPDATE.
func (d Dialect) MaintainsUpdatedAt() bool {
	return d.kind == BackendServer
}

// ReadTxOptions returns the transaction options for read-only snapshots.
// The embedded driver does not accept the read-only flag.
func (d Dialect) ReadTxOptions() *sql.TxOptions {
	if d.kind == BackendServer {
		return &sql.TxOptions{ReadOnly: true}
	}
	return nil
}

// TableExistsSQL returns the one-parameter query probing for a table.
func (d Dialect) TableExistsSQL() string {
	if d.kind == BackendServer {
		return "SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1)"
	}
	return "SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?)"
}

// InsertID executes an insert and returns the generated id, via RETURNING
// on the server backend and last-insert-id on the embedded one.
func (d Dialect) InsertID(ctx context.Context, q sqlx.ExtContext, ib squirrel.InsertBuilder) (int64, error) {
	if d.kind == BackendServer {
		query, args, err := ib.Suffix("RETURNING id").ToSql()
		if err != nil {
			return 0, fmt.Errorf("build insert: %w", err)
		}
		var id int64
		if err := q.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	query, args, err := ib.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
