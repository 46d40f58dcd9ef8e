package storage

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectPlaceholders(t *testing.T) {
	embedded := DialectFor(BackendEmbedded)
	server := DialectFor(BackendServer)

	query, _, err := embedded.Builder().
		Select("id").From("entries").Where(squirrel.Eq{"project_id": 1}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM entries WHERE project_id = ?", query)

	query, _, err = server.Builder().
		Select("id").From("entries").Where(squirrel.Eq{"project_id": 1}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM entries WHERE project_id = $1", query)
}

func TestDialectExpressions(t *testing.T) {
	embedded := DialectFor(BackendEmbedded)
	server := DialectFor(BackendServer)

	assert.Equal(t, "date(entry_date)", embedded.DateExpr("entry_date"))
	assert.Equal(t, "to_char(entry_date, 'YYYY-MM-DD')", server.DateExpr("entry_date"))

	assert.Equal(t, "strftime('%Y-%m', entry_date)", embedded.MonthExpr("entry_date"))
	assert.Equal(t, "to_char(date_trunc('month', entry_date), 'YYYY-MM')", server.MonthExpr("entry_date"))

	assert.Equal(t, "date('now', '-30 days')", embedded.DaysAgoExpr(30))
	assert.Equal(t, "(CURRENT_DATE - INTERVAL '30 days')", server.DaysAgoExpr(30))

	assert.Equal(t, "1", embedded.BoolLit(true))
	assert.Equal(t, "0", embedded.BoolLit(false))
	assert.Equal(t, "TRUE", server.BoolLit(true))
	assert.Equal(t, "FALSE", server.BoolLit(false))
}

func TestDialectTransactionBehavior(t *testing.T) {
	embedded := DialectFor(BackendEmbedded)
	server := DialectFor(BackendServer)

	assert.False(t, embedded.MaintainsUpdatedAt())
	assert.True(t, server.MaintainsUpdatedAt())

	assert.Nil(t, embedded.ReadTxOptions())
	opts := server.ReadTxOptions()
	require.NotNil(t, opts)
	assert.True(t, opts.ReadOnly)
}
