package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// FundamentalGroup names the fundamental group class derived from
// (genus, orientability).
type FundamentalGroup string

const (
	GroupTrivial FundamentalGroup = "trivial"
	GroupZxZ     FundamentalGroup = "ZxZ"
	GroupKlein   FundamentalGroup = "klein-group"
	GroupComplex FundamentalGroup = "complex"
)

// IntersectionForm names the intersection form class derived from the
// signs of the first two twist genes.
type IntersectionForm string

const (
	FormPositiveDefinite IntersectionForm = "positive-definite"
	FormNegativeDefinite IntersectionForm = "negative-definite"
	FormIndefinite       IntersectionForm = "indefinite"
	FormDegenerate       IntersectionForm = "degenerate"
	FormNonOrientable    IntersectionForm = "non-orientable"
)

// Individual is one candidate sub-SKB in the search population: three
// discrete twist genes plus continuous/discrete auxiliary genes, and the
// topological invariants derived from them. Derived fields are recomputed
// whenever genes change and are never mutated independently.
type Individual struct {
	ID int64 `json:"id"`

	Twists    [3]int  `json:"twists"`
	TT        float64 `json:"tt"`
	Curvature float64 `json:"curvature"`
	Genus     int     `json:"genus"`
	// Orientability is the first Stiefel-Whitney class of the surface:
	// 0 for orientable, 1 for non-orientable.
	Orientability int `json:"orientability"`

	Charges             [3]float64       `json:"charges"`
	TotalCharge         float64          `json:"total_charge"`
	W1                  int              `json:"w1"`
	EulerCharacteristic int              `json:"euler_characteristic"`
	FundamentalGroup    FundamentalGroup `json:"fundamental_group"`
	IntersectionForm    IntersectionForm `json:"intersection_form"`
	Obstruction         int              `json:"obstruction"`

	// Fitness is only meaningful relative to the population snapshot it was
	// computed against; Evaluated reports whether it has been computed at all.
	Fitness         float64 `json:"fitness"`
	Evaluated       bool    `json:"evaluated"`
	CompatibleCount int     `json:"compatible_count"`
}

// IsOrientable reports whether the surface is orientable (vanishing first
// Stiefel-Whitney class).
func (i Individual) IsOrientable() bool {
	return i.Orientability == 0
}

// StableTriple is an immutable record of three mutually compatible
// individuals. Its member indices enter the frozen set when recorded.
type StableTriple struct {
	VersionedRecord
	Indices        [3]int     `json:"indices"`
	MemberIDs      [3]int64   `json:"member_ids"`
	PairScores     [3]float64 `json:"pair_scores"`
	CTCStable      bool       `json:"ctc_stable"`
	TwistBalanced  bool       `json:"twist_balanced"`
	TopoCompatible bool       `json:"topo_compatible"`
	OverallScore   float64    `json:"overall_score"`
	Generation     int        `json:"generation"`
}

// PopulationSnapshot is a persisted copy of the engine population at the end
// of a run, together with the frozen index set at that point.
type PopulationSnapshot struct {
	VersionedRecord
	ID          string       `json:"id"`
	Generation  int          `json:"generation"`
	Individuals []Individual `json:"individuals"`
	Frozen      []int        `json:"frozen,omitempty"`
}

// GenerationStats summarizes one evaluate/select/vary/replace cycle.
type GenerationStats struct {
	Generation      int     `json:"generation"`
	BestFitness     float64 `json:"best_fitness"`
	MeanFitness     float64 `json:"mean_fitness"`
	MinFitness      float64 `json:"min_fitness"`
	CompatiblePairs int     `json:"compatible_pairs"`
	FrozenCount     int     `json:"frozen_count"`
	TripleCount     int     `json:"triple_count"`
}

// RunSummary is the persisted header of a completed engine run.
type RunSummary struct {
	VersionedRecord
	RunID           string  `json:"run_id"`
	Seed            int64   `json:"seed"`
	PopulationSize  int     `json:"population_size"`
	Generations     int     `json:"generations"`
	BestFitness     float64 `json:"best_fitness"`
	CompatiblePairs int     `json:"compatible_pairs"`
	TripleCount     int     `json:"triple_count"`
	CreatedAtUTC    string  `json:"created_at_utc"`
}
