//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"skbengine/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	input := model.PopulationSnapshot{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              "run-1",
		Generation:      5,
		Individuals: []model.Individual{
			{ID: 1, Twists: [3]int{1, 0, -1}, TT: 0.1, Fitness: 0.5, Evaluated: true},
		},
		Frozen: []int{0},
	}
	require.NoError(t, store.SaveSnapshot(ctx, input))

	output, ok, err := store.GetSnapshot(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, input, output)

	_, ok, err = store.GetSnapshot(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSQLiteStoreRunArtifacts(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	require.NoError(t, store.SaveFitnessHistory(ctx, "run-1", []float64{0.1, 0.3}))
	history, ok, err := store.GetFitnessHistory(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []float64{0.1, 0.3}, history)

	stats := []model.GenerationStats{{Generation: 1, BestFitness: 0.3, CompatiblePairs: 2}}
	require.NoError(t, store.SaveGenerationStats(ctx, "run-1", stats))
	gotStats, ok, err := store.GetGenerationStats(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, stats, gotStats)

	triples := []model.StableTriple{{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		Indices:         [3]int{0, 1, 2},
		MemberIDs:       [3]int64{1, 2, 3},
		OverallScore:    1,
	}}
	require.NoError(t, store.SaveTriples(ctx, "run-1", triples))
	gotTriples, ok, err := store.GetTriples(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, triples, gotTriples)
}

func TestSQLiteStoreListRunSummariesOrdersByCreation(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	newer := model.RunSummary{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		RunID:           "run-b",
		CreatedAtUTC:    "2026-08-28T10:00:00Z",
	}
	older := model.RunSummary{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		RunID:           "run-a",
		CreatedAtUTC:    "2026-08-27T10:00:00Z",
	}
	require.NoError(t, store.SaveRunSummary(ctx, newer))
	require.NoError(t, store.SaveRunSummary(ctx, older))

	all, err := store.ListRunSummaries(ctx)
	require.NoError(t, err)
	require.Equal(t, []model.RunSummary{older, newer}, all)
}
