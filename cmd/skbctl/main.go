package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"skbengine/internal/search"
	"skbengine/internal/storage"
	skbapi "skbengine/pkg/skbengine"
)

const (
	artifactsDir = "runs"
	exportsDir   = "exports"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "triples":
		return runTriples(ctx, args[1:])
	case "population":
		return runPopulation(ctx, args[1:])
	case "stats":
		return runStats(ctx, args[1:])
	case "search":
		return runSearch(ctx, args[1:])
	case "estimate":
		return runEstimate(ctx, args[1:])
	case "particles":
		return runParticles(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "skbengine.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := skbapi.New(skbapi.Options{
		StoreKind:    *storeKind,
		DBPath:       *dbPath,
		ArtifactsDir: artifactsDir,
		ExportsDir:   exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "skbengine.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := skbapi.New(skbapi.Options{
		StoreKind:    *storeKind,
		DBPath:       *dbPath,
		ArtifactsDir: artifactsDir,
		ExportsDir:   exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Reset(ctx); err != nil {
		return err
	}

	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config JSON path")
	population := fs.Int("pop", 20, "population size")
	generations := fs.Int("gens", 50, "generation count")
	seed := fs.Int64("seed", 1, "rng seed")
	workers := fs.Int("workers", 4, "worker count for compatibility matrix rows")
	mutationRate := fs.Float64("mutation-rate", 0.1, "per-gene mutation probability")
	pressure := fs.Int("pressure", 3, "tournament size for parent selection")
	wW1 := fs.Float64("w-w1", 1.0, "weight for the orientability component")
	wEuler := fs.Float64("w-euler", 1.0, "weight for the euler characteristic component")
	wQ := fs.Float64("w-q", 1.0, "weight for the intersection form component")
	wTwist := fs.Float64("w-twist", 1.0, "weight for the twist alignment component")
	wCTC := fs.Float64("w-ctc", 1.0, "weight for the causal loop component")
	targetEuler := fs.Int("target-euler", 0, "target combined euler characteristic")
	twistSigma := fs.Float64("twist-sigma", 0, "twist decay sigma (0 uses the default)")
	ctcEpsilon := fs.Float64("ctc-epsilon", 0, "causal loop tolerance (0 uses the default)")
	detectEvery := fs.Int("detect-every", 0, "stable-triple detection cadence in generations (0 default, <0 disables)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "skbengine.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	req, err := loadOrDefaultRunRequest(*configPath)
	if err != nil {
		return err
	}
	if *configPath == "" {
		req = skbapi.RunRequest{
			Population:        *population,
			Generations:       *generations,
			Seed:              *seed,
			Workers:           *workers,
			MutationRate:      *mutationRate,
			SelectionPressure: *pressure,
			WeightW1:          *wW1,
			WeightEuler:       *wEuler,
			WeightQ:           *wQ,
			WeightTwist:       *wTwist,
			WeightCTC:         *wCTC,
			TargetEuler:       *targetEuler,
			TwistSigma:        *twistSigma,
			CTCEpsilon:        *ctcEpsilon,
			DetectEvery:       *detectEvery,
		}
	} else {
		overrideFromFlags(&req, setFlags, map[string]any{
			"pop":           *population,
			"gens":          *generations,
			"seed":          *seed,
			"workers":       *workers,
			"mutation-rate": *mutationRate,
			"pressure":      *pressure,
			"w-w1":          *wW1,
			"w-euler":       *wEuler,
			"w-q":           *wQ,
			"w-twist":       *wTwist,
			"w-ctc":         *wCTC,
			"target-euler":  *targetEuler,
			"twist-sigma":   *twistSigma,
			"ctc-epsilon":   *ctcEpsilon,
			"detect-every":  *detectEvery,
		})
	}
	if req.WeightW1 < 0 || req.WeightEuler < 0 || req.WeightQ < 0 || req.WeightTwist < 0 || req.WeightCTC < 0 {
		return errors.New("compatibility weights must be >= 0")
	}

	client, err := skbapi.New(skbapi.Options{
		StoreKind:    *storeKind,
		DBPath:       *dbPath,
		ArtifactsDir: artifactsDir,
		ExportsDir:   exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("run completed run_id=%s pop=%d gens=%d seed=%d\n", summary.RunID, req.Population, req.Generations, req.Seed)
	for i, best := range summary.BestByGeneration {
		fmt.Printf("generation=%d best_fitness=%.6f\n", i+1, best)
	}
	fmt.Printf("final_best_fitness=%.6f compatible_pairs=%d triples=%d\n", summary.FinalBestFitness, summary.CompatiblePairs, summary.TripleCount)
	fmt.Printf("artifacts_dir=%s\n", filepath.Clean(summary.ArtifactsDir))
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := skbapi.New(skbapi.Options{ArtifactsDir: artifactsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Runs(ctx, skbapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	for _, item := range items {
		fmt.Printf("run_id=%s created_at=%s seed=%d pop=%d gens=%d triples=%d final_best_fitness=%.6f\n",
			item.RunID,
			item.CreatedAtUTC,
			item.Seed,
			item.Population,
			item.Generations,
			item.TripleCount,
			item.FinalBestFitness,
		)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show fitness history for the most recent run")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "skbengine.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := skbapi.New(skbapi.Options{
		StoreKind:    *storeKind,
		DBPath:       *dbPath,
		ArtifactsDir: artifactsDir,
		ExportsDir:   exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, skbapi.FitnessHistoryRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  max(*limit, 0),
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}
	for i, best := range history {
		fmt.Printf("generation=%d best_fitness=%.6f\n", i+1, best)
	}
	return nil
}

func runTriples(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("triples", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show stable triples for the most recent run")
	jsonOut := fs.Bool("json", false, "emit triples as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "skbengine.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := skbapi.New(skbapi.Options{
		StoreKind:    *storeKind,
		DBPath:       *dbPath,
		ArtifactsDir: artifactsDir,
		ExportsDir:   exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	triples, err := client.Triples(ctx, skbapi.TriplesRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	if len(triples) == 0 {
		fmt.Println("no stable triples")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(triples)
	}
	for _, t := range triples {
		fmt.Printf("members=%v pair_scores=[%.4f %.4f %.4f] ctc_stable=%t twist_balanced=%t topo_compatible=%t overall=%.4f generation=%d\n",
			t.MemberIDs,
			t.PairScores[0], t.PairScores[1], t.PairScores[2],
			t.CTCStable,
			t.TwistBalanced,
			t.TopoCompatible,
			t.OverallScore,
			t.Generation,
		)
	}
	return nil
}

func runPopulation(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("population", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show the final population for the most recent run")
	limit := fs.Int("limit", 20, "max individuals to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit population snapshot as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "skbengine.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := skbapi.New(skbapi.Options{
		StoreKind:    *storeKind,
		DBPath:       *dbPath,
		ArtifactsDir: artifactsDir,
		ExportsDir:   exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	snapshot, err := client.Population(ctx, skbapi.PopulationRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  max(*limit, 0),
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshot)
	}
	fmt.Printf("run_id=%s generation=%d individuals=%d frozen=%v\n", snapshot.ID, snapshot.Generation, len(snapshot.Individuals), snapshot.Frozen)
	for _, ind := range snapshot.Individuals {
		fmt.Printf("id=%d twists=%v tt=%.3f genus=%d orientable=%t euler=%d group=%s form=%s fitness=%.4f compatible=%d\n",
			ind.ID,
			ind.Twists,
			ind.TT,
			ind.Genus,
			ind.IsOrientable(),
			ind.EulerCharacteristic,
			ind.FundamentalGroup,
			ind.IntersectionForm,
			ind.Fitness,
			ind.CompatibleCount,
		)
	}
	return nil
}

func runStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show generation stats for the most recent run")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit generation stats as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "skbengine.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := skbapi.New(skbapi.Options{
		StoreKind:    *storeKind,
		DBPath:       *dbPath,
		ArtifactsDir: artifactsDir,
		ExportsDir:   exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	genStats, err := client.GenerationStats(ctx, skbapi.GenerationStatsRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  max(*limit, 0),
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(genStats)
	}
	for _, gs := range genStats {
		fmt.Printf("generation=%d best=%.6f mean=%.6f min=%.6f compatible_pairs=%d frozen=%d triples=%d\n",
			gs.Generation,
			gs.BestFitness,
			gs.MeanFitness,
			gs.MinFitness,
			gs.CompatiblePairs,
			gs.FrozenCount,
			gs.TripleCount,
		)
	}
	return nil
}

func runSearch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	particle := fs.String("particle", "", "target particle name (see the particles command)")
	metric := fs.String("metric", string(search.MetricRelative), "error metric: relative|absolute|weighted")
	jsonOut := fs.Bool("json", false, "emit search report as JSON")
	params := searchParamFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *particle == "" {
		return errors.New("search requires --particle")
	}

	client, err := skbapi.New(skbapi.Options{ArtifactsDir: artifactsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	p := params()
	report, err := client.Search(ctx, skbapi.SearchRequest{
		Particle: *particle,
		Params:   &p,
		Metric:   search.Metric(*metric),
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Printf("target=%s mass_mev=%.3f charge=%+.2f metric=%s scanned=%d\n",
		report.Target.DisplayName,
		report.Target.MassMeV,
		report.Target.Charge,
		report.Metric,
		report.Scanned,
	)
	for i, r := range report.Results {
		fmt.Printf("rank=%d twist=%+.2f link=%+d charge=%+.3f mass=%.3f error=%.6f\n",
			i+1, r.Twist, r.Link, r.CalculatedCharge, r.CalculatedMass, r.Error)
	}
	return nil
}

func runEstimate(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("estimate", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "emit space estimate as JSON")
	params := searchParamFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	estimate, err := search.EstimateSpace(params())
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(estimate)
	}
	fmt.Printf("twist_values=%d link_values=%d combinations=%d estimated_time=%s\n",
		len(estimate.TwistValues),
		len(estimate.LinkValues),
		estimate.CombinationCount,
		estimate.EstimatedTime.Round(time.Millisecond),
	)
	return nil
}

func runParticles(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("particles", flag.ContinueOnError)
	category := fs.String("category", "", "filter by category: Hadrons|Leptons|Quarks|Bosons")
	jsonOut := fs.Bool("json", false, "emit particle catalog as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := skbapi.New(skbapi.Options{ArtifactsDir: artifactsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	catalog := client.Particles(ctx)
	if *category != "" {
		filtered := catalog[:0]
		for _, p := range catalog {
			if strings.EqualFold(p.Category, *category) {
				filtered = append(filtered, p)
			}
		}
		catalog = filtered
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(catalog)
	}
	for _, p := range catalog {
		fmt.Printf("name=%s display=%s mass_mev=%.3f charge=%+.2f category=%s structure=%s\n",
			p.Name, p.DisplayName, p.MassMeV, p.Charge, p.Category, p.Structure)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export artifacts for the most recent run")
	outDir := fs.String("out", exportsDir, "export output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := skbapi.New(skbapi.Options{ArtifactsDir: artifactsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Export(ctx, skbapi.ExportRequest{
		RunID:  *runID,
		Latest: *latest,
		OutDir: *outDir,
	})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s dir=%s\n", summary.RunID, summary.Directory)
	return nil
}

// searchParamFlags registers the shared grid flags and returns a closure that
// assembles them into search params after parsing.
func searchParamFlags(fs *flag.FlagSet) func() search.Params {
	defaults := search.DefaultParams()
	twistMin := fs.Float64("twist-min", defaults.TwistMin, "minimum twist value")
	twistMax := fs.Float64("twist-max", defaults.TwistMax, "maximum twist value")
	twistStep := fs.Float64("twist-step", defaults.TwistStep, "twist axis step")
	linkMin := fs.Int("link-min", defaults.LinkMin, "minimum linking number")
	linkMax := fs.Int("link-max", defaults.LinkMax, "maximum linking number")
	linkStep := fs.Int("link-step", defaults.LinkStep, "linking number step")
	chargeScale := fs.Float64("charge-scale", defaults.ChargeScale, "charge per unit twist")
	baseMass := fs.Float64("base-mass", defaults.BaseMass, "base mass offset in MeV")
	energyScale := fs.Float64("energy-scale", defaults.EnergyScale, "mass per unit of linking in MeV")
	return func() search.Params {
		return search.Params{
			TwistMin:    *twistMin,
			TwistMax:    *twistMax,
			TwistStep:   *twistStep,
			LinkMin:     *linkMin,
			LinkMax:     *linkMax,
			LinkStep:    *linkStep,
			ChargeScale: *chargeScale,
			BaseMass:    *baseMass,
			EnergyScale: *energyScale,
		}
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: skbctl <init|reset|run|runs|fitness|triples|population|stats|search|estimate|particles|export> [flags]", msg)
}
