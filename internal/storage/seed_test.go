package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obra/internal/core"
)

func TestSeedIfEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, NewSeeder(store, testLogger()).SeedIfEmpty(ctx))

	cats, err := NewCategories(store, testLogger()).ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 10)

	byName := map[string]core.Category{}
	for _, c := range cats {
		assert.True(t, c.Active, "seeded category %q must be active", c.Name)
		byName[c.Name] = c
	}
	for _, want := range defaultCategories {
		got, ok := byName[want.Name]
		require.True(t, ok, "missing seeded category %q", want.Name)
		assert.Equal(t, want.Color, got.Color, "color of %q", want.Name)
	}

	p, err := NewProjects(store, testLogger()).GetActive(ctx)
	require.NoError(t, err)
	require.True(t, p.Configured())
	assert.Equal(t, "Minha Obra", p.Name)
	assert.Equal(t, int64(100_000_00), p.Budget.Cents)
	assert.True(t, p.Active)
	assert.Equal(t, core.Today().ISO(), p.StartDate.ISO())
	assert.Equal(t, core.Today().AddDays(365).ISO(), p.PlannedEnd.ISO())
}

func TestSeedIsIdempotent(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	require.NoError(t, NewSeeder(store, testLogger()).SeedIfEmpty(ctx))

	cats, err := NewCategories(store, testLogger()).ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 10)

	var n int
	require.NoError(t, store.DB.Get(&n, "SELECT COUNT(*) FROM projects"))
	assert.Equal(t, 1, n)
}

func TestSeedSkipsNonEmptyTables(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := NewCategories(store, testLogger()).Create(ctx, "Paisagismo", "", "#00aa00")
	require.NoError(t, err)

	require.NoError(t, NewSeeder(store, testLogger()).SeedIfEmpty(ctx))

	cats, err := NewCategories(store, testLogger()).ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 1, "existing categories must not be touched")

	p, err := NewProjects(store, testLogger()).GetActive(ctx)
	require.NoError(t, err)
	assert.True(t, p.Configured(), "empty projects table must still be seeded")
}
