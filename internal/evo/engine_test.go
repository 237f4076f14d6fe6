package evo

import (
	"errors"
	"testing"

	"skbengine/internal/model"
)

func newTestEngine(t *testing.T, mutate func(*Config)) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.PopulationSize = 10
	cfg.Seed = 42
	if mutate != nil {
		mutate(&cfg)
	}
	eng, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return eng
}

func TestConfigValidate(t *testing.T) {
	bad := []func(*Config){
		func(c *Config) { c.PopulationSize = 0 },
		func(c *Config) { c.MutationRate = -0.1 },
		func(c *Config) { c.MutationRate = 1.5 },
		func(c *Config) { c.SelectionPressure = 0 },
		func(c *Config) { c.Weights.Twist = -1 },
		func(c *Config) { c.Weights = Weights{} },
		func(c *Config) { c.TwistSigma = 0 },
		func(c *Config) { c.CTCEpsilon = -0.1 },
	}
	for i, mutate := range bad {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("case %d: invalid config accepted", i)
		}
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}

func TestEngineRequiresInitialization(t *testing.T) {
	eng := newTestEngine(t, nil)

	if _, err := eng.Evolve(nil); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("evolve before init: err = %v, want ErrNotInitialized", err)
	}
	if _, err := eng.EvaluatePopulation(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("evaluate before init: err = %v, want ErrNotInitialized", err)
	}
	if _, err := eng.FindStableHadrons(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("detect before init: err = %v, want ErrNotInitialized", err)
	}
	if got := eng.State().State; got != StateUninitialized {
		t.Fatalf("state = %q, want %q", got, StateUninitialized)
	}
}

func TestInitializePopulationEvaluatesEveryone(t *testing.T) {
	eng := newTestEngine(t, nil)
	if err := eng.InitializePopulation(); err != nil {
		t.Fatalf("init: %v", err)
	}

	snap := eng.State()
	if snap.State != StateInitialized {
		t.Fatalf("state = %q, want %q", snap.State, StateInitialized)
	}
	if len(snap.Population) != 10 {
		t.Fatalf("population size = %d, want 10", len(snap.Population))
	}
	seen := map[int64]bool{}
	for _, ind := range snap.Population {
		if !ind.Evaluated {
			t.Fatalf("individual %d not evaluated", ind.ID)
		}
		if seen[ind.ID] {
			t.Fatalf("duplicate id %d", ind.ID)
		}
		seen[ind.ID] = true
	}
	if snap.Generation != 0 {
		t.Fatalf("generation = %d, want 0", snap.Generation)
	}
}

func TestEvolveKeepsPopulationSizeAndAdvancesGeneration(t *testing.T) {
	eng := newTestEngine(t, nil)
	if err := eng.InitializePopulation(); err != nil {
		t.Fatalf("init: %v", err)
	}

	for gen := 1; gen <= 5; gen++ {
		res, err := eng.Evolve(nil)
		if err != nil {
			t.Fatalf("evolve gen %d: %v", gen, err)
		}
		if res.Generation != gen {
			t.Fatalf("generation = %d, want %d", res.Generation, gen)
		}
		snap := eng.State()
		if len(snap.Population) != 10 {
			t.Fatalf("gen %d: population size = %d, want 10", gen, len(snap.Population))
		}
		if snap.State != StateEvolving {
			t.Fatalf("gen %d: state = %q, want %q", gen, snap.State, StateEvolving)
		}
	}
}

func TestEvolvePreservesFrozenIndices(t *testing.T) {
	eng := newTestEngine(t, nil)
	if err := eng.InitializePopulation(); err != nil {
		t.Fatalf("init: %v", err)
	}

	before := eng.State().Population
	frozen := []int{0, 3, 7}
	if _, err := eng.Evolve(frozen); err != nil {
		t.Fatalf("evolve: %v", err)
	}
	after := eng.State().Population

	for _, idx := range frozen {
		if after[idx].ID != before[idx].ID {
			t.Fatalf("frozen index %d replaced: id %d -> %d", idx, before[idx].ID, after[idx].ID)
		}
		if after[idx].Twists != before[idx].Twists || after[idx].TT != before[idx].TT {
			t.Fatalf("frozen index %d mutated", idx)
		}
	}

	replaced := 0
	keep := map[int64]bool{}
	for _, ind := range before {
		keep[ind.ID] = true
	}
	for i, ind := range after {
		if !keep[ind.ID] {
			replaced++
			if i == 0 || i == 3 || i == 7 {
				t.Fatalf("offspring landed on frozen index %d", i)
			}
		}
	}
	if replaced == 0 {
		t.Fatalf("no offspring produced")
	}
}

func TestEvolveRejectsBadFrozenIndex(t *testing.T) {
	eng := newTestEngine(t, nil)
	if err := eng.InitializePopulation(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := eng.Evolve([]int{10}); err == nil {
		t.Fatalf("out-of-range frozen index accepted")
	}
	if _, err := eng.Evolve([]int{-1}); err == nil {
		t.Fatalf("negative frozen index accepted")
	}
}

func TestEngineIsDeterministicForSeed(t *testing.T) {
	run := func() []model.Individual {
		eng := newTestEngine(t, func(c *Config) { c.Seed = 1234 })
		if err := eng.InitializePopulation(); err != nil {
			t.Fatalf("init: %v", err)
		}
		for i := 0; i < 4; i++ {
			if _, err := eng.Evolve(nil); err != nil {
				t.Fatalf("evolve: %v", err)
			}
		}
		return eng.State().Population
	}

	first := run()
	second := run()
	if len(first) != len(second) {
		t.Fatalf("population sizes differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Twists != second[i].Twists || first[i].TT != second[i].TT ||
			first[i].Fitness != second[i].Fitness {
			t.Fatalf("seeded runs diverge at index %d:\n%+v\n%+v", i, first[i], second[i])
		}
	}
}

func TestUpdateOptionsGrowsPopulation(t *testing.T) {
	eng := newTestEngine(t, nil)
	if err := eng.InitializePopulation(); err != nil {
		t.Fatalf("init: %v", err)
	}
	before := eng.State().Population

	cfg := eng.Config()
	cfg.PopulationSize = 14
	if err := eng.UpdateOptions(cfg); err != nil {
		t.Fatalf("update: %v", err)
	}

	after := eng.State().Population
	if len(after) != 14 {
		t.Fatalf("population size = %d, want 14", len(after))
	}
	for i := range before {
		if after[i].ID != before[i].ID {
			t.Fatalf("existing member %d replaced during growth", i)
		}
	}
	for _, ind := range after {
		if !ind.Evaluated {
			t.Fatalf("member %d not re-evaluated after growth", ind.ID)
		}
	}
}

func TestUpdateOptionsShrinksByFitness(t *testing.T) {
	eng := newTestEngine(t, nil)
	if err := eng.InitializePopulation(); err != nil {
		t.Fatalf("init: %v", err)
	}

	before := eng.State().Population
	cut := map[int64]bool{}
	for _, ind := range before {
		cut[ind.ID] = true
	}
	cfg := eng.Config()
	cfg.PopulationSize = 6
	if err := eng.UpdateOptions(cfg); err != nil {
		t.Fatalf("update: %v", err)
	}

	after := eng.State().Population
	if len(after) != 6 {
		t.Fatalf("population size = %d, want 6", len(after))
	}
	kept := map[int64]bool{}
	for _, ind := range after {
		if !cut[ind.ID] {
			t.Fatalf("shrink introduced unknown member %d", ind.ID)
		}
		kept[ind.ID] = true
	}
	// Every survivor must outrank (or tie) every evicted member on the
	// pre-shrink fitness ordering.
	var lowestKept float64 = 2
	for _, ind := range before {
		if kept[ind.ID] && ind.Fitness < lowestKept {
			lowestKept = ind.Fitness
		}
	}
	for _, ind := range before {
		if !kept[ind.ID] && ind.Fitness > lowestKept {
			t.Fatalf("evicted member %d (fitness %v) outranks survivor (fitness %v)", ind.ID, ind.Fitness, lowestKept)
		}
	}
}

func TestUpdateOptionsRejectsInvalidConfig(t *testing.T) {
	eng := newTestEngine(t, nil)
	if err := eng.InitializePopulation(); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg := eng.Config()
	cfg.PopulationSize = 0
	if err := eng.UpdateOptions(cfg); err == nil {
		t.Fatalf("invalid update accepted")
	}
	if len(eng.State().Population) != 10 {
		t.Fatalf("failed update changed the population")
	}
}

func TestResetClearsEverything(t *testing.T) {
	eng := newTestEngine(t, nil)
	if err := eng.InitializePopulation(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := eng.Evolve(nil); err != nil {
		t.Fatalf("evolve: %v", err)
	}

	eng.Reset()
	snap := eng.State()
	if snap.State != StateUninitialized || snap.Generation != 0 ||
		len(snap.Population) != 0 || len(snap.Frozen) != 0 || len(snap.Triples) != 0 {
		t.Fatalf("reset left state behind: %+v", snap)
	}
	if _, err := eng.Evolve(nil); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("evolve after reset: err = %v, want ErrNotInitialized", err)
	}

	if err := eng.InitializePopulation(); err != nil {
		t.Fatalf("re-init: %v", err)
	}
	if got := eng.State().State; got != StateInitialized {
		t.Fatalf("state after re-init = %q", got)
	}
}

