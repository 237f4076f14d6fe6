// Package skbengine is the public client for running compatibility searches
// over populations of topological individuals and querying persisted run
// artifacts.
package skbengine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"skbengine/internal/evo"
	"skbengine/internal/model"
	"skbengine/internal/search"
	"skbengine/internal/stats"
	"skbengine/internal/storage"
)

const (
	defaultArtifactsDir = "runs"
	defaultExportsDir   = "exports"
	defaultDBPath       = "skbengine.db"
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
}

type Client struct {
	store       storage.Store
	initialized bool

	artifactsDir string
	exportsDir   string
}

// RunRequest configures one full evolutionary run. Zero values fall back to
// defaults; weights all zero means the default equal weighting.
type RunRequest struct {
	Population        int
	Generations       int
	Seed              int64
	Workers           int
	MutationRate      float64
	SelectionPressure int
	WeightW1          float64
	WeightEuler       float64
	WeightQ           float64
	WeightTwist       float64
	WeightCTC         float64
	TargetEuler       int
	TwistSigma        float64
	CTCEpsilon        float64
	// DetectEvery runs stable-triple detection every N generations.
	// 0 means the default cadence; negative disables detection.
	DetectEvery int
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	BestByGeneration []float64
	FinalBestFitness float64
	CompatiblePairs  int
	TripleCount      int
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	Seed             int64
	Population       int
	Generations      int
	TripleCount      int
	FinalBestFitness float64
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type TriplesRequest struct {
	RunID  string
	Latest bool
}

type PopulationRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type GenerationStatsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type SearchRequest struct {
	Particle string
	Params   *search.Params
	Metric   search.Metric
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// Reset drops all persisted records and reinitializes the store.
func (c *Client) Reset(ctx context.Context) error {
	if err := c.Init(ctx); err != nil {
		return err
	}
	if resetter, ok := c.store.(storage.Resetter); ok {
		if err := resetter.Reset(ctx); err != nil {
			return err
		}
	}
	c.initialized = false
	return c.Init(ctx)
}

// Run executes a complete evolutionary run: initialize, evolve for the
// requested number of generations with periodic stable-triple detection,
// then persist the final snapshot, history, and artifacts.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Population <= 0 {
		req.Population = 20
	}
	if req.Generations <= 0 {
		req.Generations = 50
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}
	if req.MutationRate == 0 {
		req.MutationRate = 0.1
	}
	if req.SelectionPressure <= 0 {
		req.SelectionPressure = 3
	}
	if req.DetectEvery == 0 {
		req.DetectEvery = 5
	}
	weights := evo.Weights{
		W1:    req.WeightW1,
		Euler: req.WeightEuler,
		Q:     req.WeightQ,
		Twist: req.WeightTwist,
		CTC:   req.WeightCTC,
	}
	if weights.Sum() == 0 {
		weights = evo.DefaultWeights()
	}
	targets := evo.DefaultTargets()
	targets.EulerCharacteristic = req.TargetEuler

	cfg := evo.Config{
		PopulationSize:    req.Population,
		MutationRate:      req.MutationRate,
		SelectionPressure: req.SelectionPressure,
		Weights:           weights,
		Targets:           targets,
		TwistSigma:        req.TwistSigma,
		CTCEpsilon:        req.CTCEpsilon,
		Seed:              req.Seed,
		Workers:           req.Workers,
	}
	if cfg.TwistSigma <= 0 {
		cfg.TwistSigma = evo.DefaultTwistSigma
	}
	if cfg.CTCEpsilon <= 0 {
		cfg.CTCEpsilon = evo.DefaultCTCEpsilon
	}

	engine, err := evo.NewEngine(cfg)
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}
	if err := engine.InitializePopulation(); err != nil {
		return RunSummary{}, err
	}

	now := time.Now().UTC()
	runID := fmt.Sprintf("run-%s", uuid.NewString())

	best := make([]float64, 0, req.Generations)
	genStats := make([]model.GenerationStats, 0, req.Generations)
	var lastResult evo.EvolveResult
	for gen := 1; gen <= req.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunSummary{}, err
		}
		lastResult, err = engine.Evolve(nil)
		if err != nil {
			return RunSummary{}, err
		}
		if req.DetectEvery > 0 && gen%req.DetectEvery == 0 {
			if _, err := engine.FindStableHadrons(); err != nil {
				return RunSummary{}, err
			}
		}
		best = append(best, lastResult.BestFitness)
		genStats = append(genStats, collectStats(engine.State(), lastResult))
	}

	snap := engine.State()
	snapshot := model.PopulationSnapshot{
		VersionedRecord: currentVersion(),
		ID:              runID,
		Generation:      snap.Generation,
		Individuals:     snap.Population,
		Frozen:          snap.Frozen,
	}
	triples := stampTriples(snap.Triples)

	if err := c.store.SaveSnapshot(ctx, snapshot); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, best); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveGenerationStats(ctx, runID, genStats); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveTriples(ctx, runID, triples); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveRunSummary(ctx, model.RunSummary{
		VersionedRecord: currentVersion(),
		RunID:           runID,
		Seed:            req.Seed,
		PopulationSize:  req.Population,
		Generations:     req.Generations,
		BestFitness:     lastResult.BestFitness,
		CompatiblePairs: lastResult.CompatiblePairs,
		TripleCount:     len(triples),
		CreatedAtUTC:    now.Format(time.RFC3339Nano),
	}); err != nil {
		return RunSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:             runID,
			PopulationSize:    req.Population,
			Generations:       req.Generations,
			MutationRate:      req.MutationRate,
			SelectionPressure: req.SelectionPressure,
			WeightW1:          weights.W1,
			WeightEuler:       weights.Euler,
			WeightQ:           weights.Q,
			WeightTwist:       weights.Twist,
			WeightCTC:         weights.CTC,
			TargetEuler:       targets.EulerCharacteristic,
			TargetOrientable:  targets.Orientability,
			TwistSigma:        cfg.TwistSigma,
			CTCEpsilon:        cfg.CTCEpsilon,
			Seed:              req.Seed,
			Workers:           req.Workers,
			DetectEvery:       req.DetectEvery,
		},
		BestByGeneration: best,
		GenerationStats:  genStats,
		FinalBestFitness: lastResult.BestFitness,
		TopIndividuals:   topIndividuals(snap.Population, 5),
		Triples:          triples,
	})
	if err != nil {
		return RunSummary{}, err
	}

	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:            runID,
		PopulationSize:   req.Population,
		Generations:      req.Generations,
		Seed:             req.Seed,
		Workers:          req.Workers,
		TripleCount:      len(triples),
		FinalBestFitness: lastResult.BestFitness,
		CreatedAtUTC:     now.Format(time.RFC3339Nano),
	}); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            runID,
		ArtifactsDir:     filepath.Clean(runDir),
		BestByGeneration: best,
		FinalBestFitness: lastResult.BestFitness,
		CompatiblePairs:  lastResult.CompatiblePairs,
		TripleCount:      len(triples),
	}, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:            e.RunID,
			CreatedAtUTC:     e.CreatedAtUTC,
			Seed:             e.Seed,
			Population:       e.PopulationSize,
			Generations:      e.Generations,
			TripleCount:      e.TripleCount,
			FinalBestFitness: e.FinalBestFitness,
		})
	}
	return out, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Triples(ctx context.Context, req TriplesRequest) ([]model.StableTriple, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	triples, ok, err := c.store.GetTriples(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("triples not found for run id: %s", runID)
	}
	return triples, nil
}

func (c *Client) Population(ctx context.Context, req PopulationRequest) (model.PopulationSnapshot, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return model.PopulationSnapshot{}, err
	}
	if req.Limit < 0 {
		return model.PopulationSnapshot{}, errors.New("limit must be >= 0")
	}
	if err := c.Init(ctx); err != nil {
		return model.PopulationSnapshot{}, err
	}

	snapshot, ok, err := c.store.GetSnapshot(ctx, runID)
	if err != nil {
		return model.PopulationSnapshot{}, err
	}
	if !ok {
		return model.PopulationSnapshot{}, fmt.Errorf("population not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(snapshot.Individuals) > req.Limit {
		snapshot.Individuals = snapshot.Individuals[:req.Limit]
	}
	return snapshot, nil
}

func (c *Client) GenerationStats(ctx context.Context, req GenerationStatsRequest) ([]model.GenerationStats, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	genStats, ok, err := c.store.GetGenerationStats(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("generation stats not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(genStats) > req.Limit {
		genStats = genStats[:req.Limit]
	}
	out := make([]model.GenerationStats, len(genStats))
	copy(out, genStats)
	return out, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

// Search runs the methodical grid scan against one target particle.
func (c *Client) Search(_ context.Context, req SearchRequest) (search.Report, error) {
	if req.Particle == "" {
		return search.Report{}, errors.New("particle name is required")
	}
	target, err := search.LookupParticle(req.Particle)
	if err != nil {
		return search.Report{}, err
	}
	params := search.DefaultParams()
	if req.Params != nil {
		params = *req.Params
	}
	return search.Run(target, params, req.Metric)
}

// Particles returns the searchable particle catalog.
func (c *Client) Particles(_ context.Context) []search.Particle {
	return search.Particles()
}

func (c *Client) resolveRunID(runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "", errors.New("no runs available")
		}
		return entries[0].RunID, nil
	}
	if runID == "" {
		return "", errors.New("run id or latest is required")
	}
	return runID, nil
}

func collectStats(snap evo.Snapshot, result evo.EvolveResult) model.GenerationStats {
	mean, min := 0.0, 0.0
	if len(snap.Population) > 0 {
		min = snap.Population[0].Fitness
		for _, ind := range snap.Population {
			mean += ind.Fitness
			if ind.Fitness < min {
				min = ind.Fitness
			}
		}
		mean /= float64(len(snap.Population))
	}
	return model.GenerationStats{
		Generation:      result.Generation,
		BestFitness:     result.BestFitness,
		MeanFitness:     mean,
		MinFitness:      min,
		CompatiblePairs: result.CompatiblePairs,
		FrozenCount:     len(snap.Frozen),
		TripleCount:     len(snap.Triples),
	}
}

func topIndividuals(population []model.Individual, limit int) []stats.TopIndividual {
	ranked := append([]model.Individual(nil), population...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]stats.TopIndividual, 0, len(ranked))
	for i, ind := range ranked {
		out = append(out, stats.TopIndividual{Rank: i + 1, Fitness: ind.Fitness, Individual: ind})
	}
	return out
}

func stampTriples(triples []model.StableTriple) []model.StableTriple {
	out := make([]model.StableTriple, len(triples))
	for i, triple := range triples {
		triple.VersionedRecord = currentVersion()
		out[i] = triple
	}
	return out
}

func currentVersion() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: storage.CurrentSchemaVersion,
		CodecVersion:  storage.CurrentCodecVersion,
	}
}
