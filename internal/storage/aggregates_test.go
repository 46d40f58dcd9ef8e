package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obra/internal/core"
)

func TestSnapshotWithoutProject(t *testing.T) {
	store := newTestStore(t)

	data, err := NewAggregates(store).Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, data.Project.Configured())
	assert.Zero(t, data.TotalCents)
	assert.Empty(t, data.PerCategory)
	assert.Empty(t, data.Recent)
}

func TestSnapshotFreshSeed(t *testing.T) {
	store := seededStore(t)

	data, err := NewAggregates(store).Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, data.Project.Configured())
	assert.Zero(t, data.TotalCents)
	require.Len(t, data.PerCategory, 10, "every active category appears even with no spend")
	for _, cs := range data.PerCategory {
		assert.Zero(t, cs.AmountCents)
	}
	assert.Empty(t, data.Recent)
}

func TestSnapshotWithEntries(t *testing.T) {
	store, p, catA, catB := ledgerFixture(t)
	ctx := context.Background()

	mustEntry(t, store, p.ID, catA.ID, "cimento", 3_000_00, core.NewDate(2026, 2, 1))
	mustEntry(t, store, p.ID, catB.ID, "pedreiro", 1_500_00, core.NewDate(2026, 2, 5))
	mustEntry(t, store, p.ID, catB.ID, "servente", 500_00, core.NewDate(2026, 2, 8))

	data, err := NewAggregates(store).Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_00), data.TotalCents)
	require.Len(t, data.PerCategory, 10)

	// Ordered by spend descending.
	assert.Equal(t, catA.ID, data.PerCategory[0].CategoryID)
	assert.Equal(t, int64(3_000_00), data.PerCategory[0].AmountCents)
	assert.Equal(t, catB.ID, data.PerCategory[1].CategoryID)
	assert.Equal(t, int64(2_000_00), data.PerCategory[1].AmountCents)
	for _, cs := range data.PerCategory[2:] {
		assert.Zero(t, cs.AmountCents)
	}

	require.Len(t, data.Recent, 3)
	assert.Equal(t, "servente", data.Recent[0].Description)
}

func TestSnapshotRecentCapsAtFive(t *testing.T) {
	store, p, cat, _ := ledgerFixture(t)

	for day := 1; day <= 7; day++ {
		mustEntry(t, store, p.ID, cat.ID, "gasto", 1_000, core.NewDate(2026, 3, day))
	}

	data, err := NewAggregates(store).Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, data.Recent, 5)
	assert.Equal(t, "2026-03-07", data.Recent[0].Date.ISO())
	assert.Equal(t, "2026-03-03", data.Recent[4].Date.ISO())
}

func TestMonthlyTotals(t *testing.T) {
	store, p, cat, _ := ledgerFixture(t)

	mustEntry(t, store, p.ID, cat.ID, "jan a", 1_000, core.NewDate(2026, 1, 10))
	mustEntry(t, store, p.ID, cat.ID, "jan b", 2_000, core.NewDate(2026, 1, 25))
	mustEntry(t, store, p.ID, cat.ID, "mar", 5_000, core.NewDate(2026, 3, 2))

	sums, err := NewAggregates(store).MonthlyTotals(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, sums, 2, "months without entries produce no bucket")
	assert.Equal(t, PeriodSum{Period: "2026-01", AmountCents: 3_000}, sums[0])
	assert.Equal(t, PeriodSum{Period: "2026-03", AmountCents: 5_000}, sums[1])
}

func TestDailyTotalsAreSparse(t *testing.T) {
	store, p, cat, _ := ledgerFixture(t)

	mustEntry(t, store, p.ID, cat.ID, "a", 1_000, core.NewDate(2026, 4, 1))
	mustEntry(t, store, p.ID, cat.ID, "b", 2_000, core.NewDate(2026, 4, 1))
	mustEntry(t, store, p.ID, cat.ID, "c", 4_000, core.NewDate(2026, 4, 5))

	sums, err := NewAggregates(store).DailyTotals(context.Background(), p.ID,
		core.NewDate(2026, 4, 1), core.NewDate(2026, 4, 7))
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, PeriodSum{Period: "2026-04-01", AmountCents: 3_000}, sums[0])
	assert.Equal(t, PeriodSum{Period: "2026-04-05", AmountCents: 4_000}, sums[1])
}

func TestTopEntriesOrdering(t *testing.T) {
	store, p, cat, _ := ledgerFixture(t)

	small := mustEntry(t, store, p.ID, cat.ID, "pequeno", 1_000, core.NewDate(2026, 5, 1))
	bigOld := mustEntry(t, store, p.ID, cat.ID, "grande antigo", 9_000, core.NewDate(2026, 4, 1))
	bigNew := mustEntry(t, store, p.ID, cat.ID, "grande novo", 9_000, core.NewDate(2026, 5, 1))

	top, err := NewAggregates(store).TopEntries(context.Background(), p.ID, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, bigNew.ID, top[0].ID, "amount ties break by newest date")
	assert.Equal(t, bigOld.ID, top[1].ID)
	assert.NotContains(t, []int64{top[0].ID, top[1].ID}, small.ID)
}

func TestSumSince(t *testing.T) {
	store, p, cat, _ := ledgerFixture(t)
	today := core.Today()

	mustEntry(t, store, p.ID, cat.ID, "recente", 2_000, today)
	mustEntry(t, store, p.ID, cat.ID, "semana passada", 3_000, today.AddDays(-7))
	mustEntry(t, store, p.ID, cat.ID, "antigo", 50_000, today.AddDays(-60))

	total, err := NewAggregates(store).SumSince(context.Background(), p.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), total)
}

func TestAverageCents(t *testing.T) {
	store, p, cat, _ := ledgerFixture(t)
	agg := NewAggregates(store)
	ctx := context.Background()

	avg, err := agg.AverageCents(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, avg, "no entries means a zero average, not an error")

	mustEntry(t, store, p.ID, cat.ID, "a", 1_000, core.NewDate(2026, 6, 1))
	mustEntry(t, store, p.ID, cat.ID, "b", 2_000, core.NewDate(2026, 6, 2))

	avg, err = agg.AverageCents(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1_500, avg, 0.001)
}
