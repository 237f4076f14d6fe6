package skbengine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"skbengine/internal/search"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{
		StoreKind:    "memory",
		ArtifactsDir: filepath.Join(t.TempDir(), "runs"),
		ExportsDir:   filepath.Join(t.TempDir(), "exports"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRunPersistsArtifactsAndHistory(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	summary, err := client.Run(ctx, RunRequest{
		Population:  12,
		Generations: 6,
		Seed:        42,
		Workers:     2,
		DetectEvery: 2,
	})
	require.NoError(t, err)
	require.NotEmpty(t, summary.RunID)
	require.Len(t, summary.BestByGeneration, 6)
	require.DirExists(t, summary.ArtifactsDir)
	for _, file := range []string{"config.json", "fitness_history.json", "generation_stats.json", "top_individuals.json", "triples.json", "fitness_series.csv"} {
		_, err := os.Stat(filepath.Join(summary.ArtifactsDir, file))
		require.NoError(t, err, file)
	}

	runs, err := client.Runs(ctx, RunsRequest{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, summary.RunID, runs[0].RunID)
	require.Equal(t, 12, runs[0].Population)

	history, err := client.FitnessHistory(ctx, FitnessHistoryRequest{Latest: true})
	require.NoError(t, err)
	require.Equal(t, summary.BestByGeneration, history)

	genStats, err := client.GenerationStats(ctx, GenerationStatsRequest{RunID: summary.RunID})
	require.NoError(t, err)
	require.Len(t, genStats, 6)
	require.Equal(t, 1, genStats[0].Generation)
	require.Equal(t, summary.FinalBestFitness, genStats[5].BestFitness)

	snapshot, err := client.Population(ctx, PopulationRequest{Latest: true})
	require.NoError(t, err)
	require.Len(t, snapshot.Individuals, 12)
	require.Equal(t, 6, snapshot.Generation)

	triples, err := client.Triples(ctx, TriplesRequest{RunID: summary.RunID})
	require.NoError(t, err)
	require.Len(t, triples, summary.TripleCount)
}

func TestRunsLimitAndHistoryTruncation(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	for seed := int64(1); seed <= 3; seed++ {
		_, err := client.Run(ctx, RunRequest{Population: 8, Generations: 3, Seed: seed, DetectEvery: -1})
		require.NoError(t, err)
	}

	runs, err := client.Runs(ctx, RunsRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, runs, 2)

	history, err := client.FitnessHistory(ctx, FitnessHistoryRequest{Latest: true, Limit: 2})
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestExportLatestRun(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	summary, err := client.Run(ctx, RunRequest{Population: 8, Generations: 2, Seed: 7, DetectEvery: -1})
	require.NoError(t, err)

	exported, err := client.Export(ctx, ExportRequest{Latest: true})
	require.NoError(t, err)
	require.Equal(t, summary.RunID, exported.RunID)
	require.FileExists(t, filepath.Join(exported.Directory, "config.json"))
	require.FileExists(t, filepath.Join(exported.Directory, "triples.json"))
}

func TestResolveRunIDValidation(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	_, err := client.FitnessHistory(ctx, FitnessHistoryRequest{RunID: "run-x", Latest: true})
	require.Error(t, err)

	_, err = client.FitnessHistory(ctx, FitnessHistoryRequest{})
	require.Error(t, err)

	_, err = client.FitnessHistory(ctx, FitnessHistoryRequest{Latest: true})
	require.Error(t, err)

	_, err = client.Triples(ctx, TriplesRequest{RunID: "run-unknown"})
	require.Error(t, err)
}

func TestSearchThroughClient(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	report, err := client.Search(ctx, SearchRequest{Particle: "proton", Metric: search.MetricRelative})
	require.NoError(t, err)
	require.Equal(t, "proton", report.Target.Name)
	require.NotEmpty(t, report.Results)
	require.LessOrEqual(t, len(report.Results), search.MaxResults)

	_, err = client.Search(ctx, SearchRequest{Particle: "graviton"})
	require.Error(t, err)

	_, err = client.Search(ctx, SearchRequest{})
	require.Error(t, err)

	catalog := client.Particles(ctx)
	require.Len(t, catalog, 23)
}

func TestResetDropsPersistedRecords(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	summary, err := client.Run(ctx, RunRequest{Population: 8, Generations: 2, Seed: 1, DetectEvery: -1})
	require.NoError(t, err)

	_, err = client.FitnessHistory(ctx, FitnessHistoryRequest{RunID: summary.RunID})
	require.NoError(t, err)

	require.NoError(t, client.Reset(ctx))

	_, err = client.FitnessHistory(ctx, FitnessHistoryRequest{RunID: summary.RunID})
	require.Error(t, err)
}
