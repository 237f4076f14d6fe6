package storage

import (
	"context"

	"skbengine/internal/model"
)

// Store defines persistence operations for run artifacts: population
// snapshots, per-run fitness history and generation statistics, detected
// stable triples, and run summaries.
type Store interface {
	Init(ctx context.Context) error
	SaveSnapshot(ctx context.Context, snapshot model.PopulationSnapshot) error
	GetSnapshot(ctx context.Context, id string) (model.PopulationSnapshot, bool, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveGenerationStats(ctx context.Context, runID string, stats []model.GenerationStats) error
	GetGenerationStats(ctx context.Context, runID string) ([]model.GenerationStats, bool, error)
	SaveTriples(ctx context.Context, runID string, triples []model.StableTriple) error
	GetTriples(ctx context.Context, runID string) ([]model.StableTriple, bool, error)
	SaveRunSummary(ctx context.Context, summary model.RunSummary) error
	GetRunSummary(ctx context.Context, runID string) (model.RunSummary, bool, error)
	ListRunSummaries(ctx context.Context) ([]model.RunSummary, error)
}

// Resetter is implemented by stores that can drop all persisted records.
type Resetter interface {
	Reset(ctx context.Context) error
}
