package orphans

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemory()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, ledger.Record(ctx, Entry{PublicID: "custom-pokemon/a", PokemonID: 1, RecordedAt: at}))
	require.NoError(t, ledger.Record(ctx, Entry{PublicID: "custom-pokemon/b", PokemonID: 2, RecordedAt: at}))

	entries, err := ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "custom-pokemon/a", entries[0].PublicID)
	assert.Equal(t, "custom-pokemon/b", entries[1].PublicID)
}

func TestMemoryListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemory()
	require.NoError(t, ledger.Record(ctx, Entry{PublicID: "x"}))

	entries, err := ledger.List(ctx)
	require.NoError(t, err)
	entries[0].PublicID = "mutated"

	again, err := ledger.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "x", again[0].PublicID)
}
