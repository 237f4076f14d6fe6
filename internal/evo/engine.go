package evo

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"skbengine/internal/model"
	"skbengine/internal/topo"
)

// ErrNotInitialized reports an engine operation invoked before
// InitializePopulation.
var ErrNotInitialized = errors.New("engine population is not initialized")

// State is the engine lifecycle phase. A frozen subset may coexist with any
// state from Initialized onward.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitialized   State = "initialized"
	StateEvolving      State = "evolving"
)

// Config carries every tunable of the engine. It is applied at construction
// and via UpdateOptions between generations, never mid-generation.
type Config struct {
	PopulationSize    int     `json:"population_size"`
	MutationRate      float64 `json:"mutation_rate"`
	SelectionPressure int     `json:"selection_pressure"`
	Weights           Weights `json:"weights"`
	Targets           Targets `json:"targets"`
	TwistSigma        float64 `json:"twist_sigma"`
	CTCEpsilon        float64 `json:"ctc_epsilon"`
	Seed              int64   `json:"seed"`
	Workers           int     `json:"workers"`
}

func DefaultConfig() Config {
	return Config{
		PopulationSize:    20,
		MutationRate:      0.1,
		SelectionPressure: 3,
		Weights:           DefaultWeights(),
		Targets:           DefaultTargets(),
		TwistSigma:        DefaultTwistSigma,
		CTCEpsilon:        DefaultCTCEpsilon,
		Workers:           1,
	}
}

// Validate rejects configurations that would silently produce degenerate
// fitness once the engine is running.
func (c Config) Validate() error {
	if c.PopulationSize < 1 {
		return fmt.Errorf("population size must be >= 1: %d", c.PopulationSize)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("mutation rate must be in [0, 1]: %v", c.MutationRate)
	}
	if c.SelectionPressure < 1 {
		return fmt.Errorf("selection pressure must be >= 1: %d", c.SelectionPressure)
	}
	for name, w := range map[string]float64{
		"w1":    c.Weights.W1,
		"euler": c.Weights.Euler,
		"q":     c.Weights.Q,
		"twist": c.Weights.Twist,
		"ctc":   c.Weights.CTC,
	} {
		if w < 0 {
			return fmt.Errorf("%s weight must be >= 0: %v", name, w)
		}
	}
	if c.Weights.Sum() <= 0 {
		return fmt.Errorf("at least one fitness weight must be > 0")
	}
	if c.TwistSigma <= 0 {
		return fmt.Errorf("twist sigma must be > 0: %v", c.TwistSigma)
	}
	if c.CTCEpsilon <= 0 {
		return fmt.Errorf("ctc epsilon must be > 0: %v", c.CTCEpsilon)
	}
	return nil
}

// EvolveResult reports the outcome of one generation step.
type EvolveResult struct {
	Generation      int     `json:"generation"`
	BestFitness     float64 `json:"best_fitness"`
	CompatiblePairs int     `json:"compatible_pairs"`
}

// Snapshot is a read-only copy of engine state for callers.
type Snapshot struct {
	State           State                `json:"state"`
	Generation      int                  `json:"generation"`
	PopulationSize  int                  `json:"population_size"`
	BestFitness     float64              `json:"best_fitness"`
	CompatiblePairs int                  `json:"compatible_pairs"`
	Population      []model.Individual   `json:"population"`
	Frozen          []int                `json:"frozen"`
	Triples         []model.StableTriple `json:"triples"`
}

// Engine owns the population exclusively. Every operation runs to completion
// before returning; the evaluator, selector, and triple detector only ever
// read snapshots the engine hands them.
type Engine struct {
	cfg       Config
	rng       *rand.Rand
	seq       *topo.Sequence
	evaluator Evaluator
	selector  Selector

	state           State
	population      []model.Individual
	generation      int
	bestFitness     float64
	compatiblePairs int
	frozen          map[int]struct{}
	triples         []model.StableTriple
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Engine{
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		seq:       topo.NewSequence(),
		evaluator: NewEvaluator(cfg.Weights, cfg.Targets, cfg.TwistSigma, cfg.CTCEpsilon),
		selector:  TournamentSelector{Pressure: cfg.SelectionPressure},
		state:     StateUninitialized,
		frozen:    map[int]struct{}{},
	}, nil
}

// InitializePopulation creates a fresh random population and evaluates it.
func (e *Engine) InitializePopulation() error {
	e.population = make([]model.Individual, 0, e.cfg.PopulationSize)
	for i := 0; i < e.cfg.PopulationSize; i++ {
		e.population = append(e.population, topo.NewRandom(e.seq, e.rng))
	}
	e.generation = 0
	e.frozen = map[int]struct{}{}
	e.triples = nil
	e.state = StateInitialized
	e.evaluate()
	return nil
}

// EvaluatePopulation recomputes fitness and compatibleCount for every
// individual against the current population snapshot.
func (e *Engine) EvaluatePopulation() (EvolveResult, error) {
	if e.state == StateUninitialized {
		return EvolveResult{}, ErrNotInitialized
	}
	e.evaluate()
	return e.result(), nil
}

func (e *Engine) evaluate() [][]float64 {
	matrix := e.evaluator.Matrix(e.population, e.cfg.Workers)
	ApplyMatrix(e.population, matrix)
	e.compatiblePairs = CountCompatiblePairs(matrix)
	e.bestFitness = 0
	for _, ind := range e.population {
		if ind.Fitness > e.bestFitness {
			e.bestFitness = ind.Fitness
		}
	}
	return matrix
}

// Evolve advances the population by one generation. Scoring of the
// pre-replacement population completes, and the frozen snapshot is fixed,
// before any offspring is generated: read strictly precedes write. Frozen
// individuals are carried into the next generation untouched at their
// indices; every other slot is refilled from tournament-selected parents via
// crossover and in-place mutation. Extra indices passed by the caller are
// frozen for this step in addition to the engine's own frozen set.
func (e *Engine) Evolve(frozenIndices []int) (EvolveResult, error) {
	if e.state == StateUninitialized {
		return EvolveResult{}, ErrNotInitialized
	}

	e.generation++
	e.state = StateEvolving
	e.evaluate()

	frozen := make(map[int]struct{}, len(e.frozen)+len(frozenIndices))
	for idx := range e.frozen {
		frozen[idx] = struct{}{}
	}
	for _, idx := range frozenIndices {
		if idx < 0 || idx >= len(e.population) {
			return EvolveResult{}, fmt.Errorf("frozen index out of range: %d", idx)
		}
		frozen[idx] = struct{}{}
	}
	live := e.liveIndices(frozen)
	if len(live) == 0 && len(frozen) < e.cfg.PopulationSize {
		return EvolveResult{}, fmt.Errorf("no live individuals to select from")
	}

	needed := e.cfg.PopulationSize - len(frozen)
	offspring := make([]model.Individual, 0, needed)
	for len(offspring) < needed {
		child1, child2, err := e.spawnPair(live)
		if err != nil {
			return EvolveResult{}, err
		}
		offspring = append(offspring, child1)
		if len(offspring) < needed {
			offspring = append(offspring, child2)
		}
	}

	next := make([]model.Individual, e.cfg.PopulationSize)
	cursor := 0
	for i := range next {
		if _, ok := frozen[i]; ok {
			next[i] = e.population[i]
			continue
		}
		next[i] = offspring[cursor]
		cursor++
	}
	e.population = next

	e.evaluate()
	return e.result(), nil
}

// spawnPair selects two parents by tournament, clones them, recombines the
// clones with probability CrossoverRate, and mutates both in place.
func (e *Engine) spawnPair(live []int) (model.Individual, model.Individual, error) {
	i, err := e.selector.PickParent(e.rng, e.population, live)
	if err != nil {
		return model.Individual{}, model.Individual{}, err
	}
	j, err := e.selector.PickParent(e.rng, e.population, live)
	if err != nil {
		return model.Individual{}, model.Individual{}, err
	}

	child1 := topo.Clone(e.seq, e.population[i])
	child2 := topo.Clone(e.seq, e.population[j])
	if e.rng.Float64() < CrossoverRate {
		child1, child2, err = Crossover(e.rng, e.seq, e.population[i], e.population[j])
		if err != nil {
			return model.Individual{}, model.Individual{}, err
		}
	}
	topo.Mutate(e.rng, &child1, e.cfg.MutationRate)
	topo.Mutate(e.rng, &child2, e.cfg.MutationRate)
	return child1, child2, nil
}

// UpdateOptions merges a new configuration between generations. Growing the
// population appends random individuals; shrinking keeps the highest-fitness
// ones. The population is re-evaluated afterwards. Frozen members that
// survive a shrink keep their frozen status under their new indices; triples
// that lose a member are dissolved.
func (e *Engine) UpdateOptions(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	oldSize := e.cfg.PopulationSize
	e.cfg = cfg
	e.evaluator = NewEvaluator(cfg.Weights, cfg.Targets, cfg.TwistSigma, cfg.CTCEpsilon)
	e.selector = TournamentSelector{Pressure: cfg.SelectionPressure}

	if e.state == StateUninitialized {
		return nil
	}

	switch {
	case cfg.PopulationSize > oldSize:
		for i := oldSize; i < cfg.PopulationSize; i++ {
			e.population = append(e.population, topo.NewRandom(e.seq, e.rng))
		}
	case cfg.PopulationSize < oldSize:
		e.shrinkPopulation(cfg.PopulationSize)
	}

	e.evaluate()
	return nil
}

func (e *Engine) shrinkPopulation(size int) {
	order := make([]int, len(e.population))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return e.population[order[a]].Fitness > e.population[order[b]].Fitness
	})
	order = order[:size]

	keptAt := make(map[int]int, size)
	next := make([]model.Individual, 0, size)
	for newIdx, oldIdx := range order {
		keptAt[oldIdx] = newIdx
		next = append(next, e.population[oldIdx])
	}
	e.population = next

	frozen := make(map[int]struct{}, len(e.frozen))
	triples := make([]model.StableTriple, 0, len(e.triples))
	for _, triple := range e.triples {
		mapped := triple.Indices
		intact := true
		for k, oldIdx := range triple.Indices {
			newIdx, ok := keptAt[oldIdx]
			if !ok {
				intact = false
				break
			}
			mapped[k] = newIdx
		}
		if !intact {
			continue
		}
		triple.Indices = mapped
		triples = append(triples, triple)
		for _, idx := range mapped {
			frozen[idx] = struct{}{}
		}
	}
	e.frozen = frozen
	e.triples = triples
}

// Reset discards the population and all derived state. The caller must
// reinitialize before evolving again.
func (e *Engine) Reset() {
	e.population = nil
	e.generation = 0
	e.bestFitness = 0
	e.compatiblePairs = 0
	e.frozen = map[int]struct{}{}
	e.triples = nil
	e.state = StateUninitialized
}

// State returns a defensive copy of the engine's observable state.
func (e *Engine) State() Snapshot {
	return Snapshot{
		State:           e.state,
		Generation:      e.generation,
		PopulationSize:  len(e.population),
		BestFitness:     e.bestFitness,
		CompatiblePairs: e.compatiblePairs,
		Population:      append([]model.Individual(nil), e.population...),
		Frozen:          e.frozenIndices(),
		Triples:         append([]model.StableTriple(nil), e.triples...),
	}
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) Generation() int {
	return e.generation
}

func (e *Engine) result() EvolveResult {
	return EvolveResult{
		Generation:      e.generation,
		BestFitness:     e.bestFitness,
		CompatiblePairs: e.compatiblePairs,
	}
}

func (e *Engine) liveIndices(frozen map[int]struct{}) []int {
	live := make([]int, 0, len(e.population))
	for i := range e.population {
		if _, ok := frozen[i]; !ok {
			live = append(live, i)
		}
	}
	return live
}

func (e *Engine) frozenIndices() []int {
	out := make([]int, 0, len(e.frozen))
	for idx := range e.frozen {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
