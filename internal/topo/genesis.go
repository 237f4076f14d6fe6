package topo

import (
	"fmt"
	"math"
	"math/rand"

	"skbengine/internal/model"
)

// Sequence issues process-lifetime-unique, monotonic individual ids. It is
// owned by the engine and passed explicitly so tests can reset identity
// generation deterministically.
type Sequence struct {
	next int64
}

func NewSequence() *Sequence {
	return &Sequence{next: 1}
}

func (s *Sequence) Next() int64 {
	id := s.next
	s.next++
	return id
}

// Genes is the explicit constructor input for an individual. There is a
// single factory shape; offspring and externally supplied parameter vectors
// both go through it.
type Genes struct {
	Twists     [3]int
	TT         float64
	Curvature  float64
	Genus      int
	Orientability int
}

// FromGenes builds a fully derived individual from explicit genes. Genes
// outside their documented ranges are rejected rather than clamped, so
// externally injected vectors cannot smuggle in out-of-range state.
func FromGenes(seq *Sequence, genes Genes) (model.Individual, error) {
	for i, t := range genes.Twists {
		if t < TwistMin || t > TwistMax {
			return model.Individual{}, fmt.Errorf("twist %d out of range [%d, %d]: %d", i, TwistMin, TwistMax, t)
		}
	}
	if genes.TT < TTMin || genes.TT > TTMax {
		return model.Individual{}, fmt.Errorf("time twist out of range [%v, %v]: %v", TTMin, TTMax, genes.TT)
	}
	if genes.Curvature < CurvatureMin || genes.Curvature > CurvatureMax {
		return model.Individual{}, fmt.Errorf("curvature out of range [%v, %v]: %v", CurvatureMin, CurvatureMax, genes.Curvature)
	}
	if genes.Genus < GenusMin || genes.Genus > GenusMax {
		return model.Individual{}, fmt.Errorf("genus out of range [%d, %d]: %d", GenusMin, GenusMax, genes.Genus)
	}
	if genes.Orientability != 0 && genes.Orientability != 1 {
		return model.Individual{}, fmt.Errorf("orientability must be 0 or 1: %d", genes.Orientability)
	}

	ind := model.Individual{
		ID:         seq.Next(),
		Twists:     genes.Twists,
		TT:         genes.TT,
		Curvature:  genes.Curvature,
		Genus:      genes.Genus,
		Orientability: genes.Orientability,
	}
	Derive(&ind)
	return ind, nil
}

// NewRandom creates a random individual with twists drawn from round(U(-3,3)),
// time twist from U(-1,1), curvature from U(0,2), genus from {0,1,2}, and a
// fair-coin orientability.
func NewRandom(seq *Sequence, rng *rand.Rand) model.Individual {
	var twists [3]int
	for i := range twists {
		twists[i] = clampInt(int(math.Round(uniform(rng, -3, 3))), TwistMin, TwistMax)
	}

	orientability := 0
	if rng.Float64() < 0.5 {
		orientability = 1
	}

	ind := model.Individual{
		ID:         seq.Next(),
		Twists:     twists,
		TT:         uniform(rng, TTMin, TTMax),
		Curvature:  uniform(rng, CurvatureMin, CurvatureMax),
		Genus:      rng.Intn(GenusMax + 1),
		Orientability: orientability,
	}
	Derive(&ind)
	return ind
}

// Clone copies genes and derived values under a fresh identity. The clone's
// fitness state is cleared: fitness is only meaningful against the snapshot
// it was computed in, and a clone has not been scored against anything yet.
func Clone(seq *Sequence, ind model.Individual) model.Individual {
	out := ind
	out.ID = seq.Next()
	out.Fitness = 0
	out.Evaluated = false
	out.CompatibleCount = 0
	return out
}

// Mutate perturbs the receiver's genes in place and rederives its
// invariants. The in-place contract matches how offspring are owned by the
// caller at every call site: the caller builds the offspring, mutates it,
// and places it into the next generation.
//
// Per-gene probabilities scale down with gene stability: each twist mutates
// with probability rate, the time twist with rate/2, curvature with rate/3,
// genus with rate/4, and orientability flips with rate/5.
func Mutate(rng *rand.Rand, ind *model.Individual, rate float64) {
	for i := range ind.Twists {
		if rng.Float64() < rate {
			delta := int(math.Round(normal(rng)))
			ind.Twists[i] = clampInt(ind.Twists[i]+delta, TwistMin, TwistMax)
		}
	}
	if rng.Float64() < rate/2 {
		ind.TT = clampFloat(ind.TT+uniform(rng, -0.2, 0.2), TTMin, TTMax)
	}
	if rng.Float64() < rate/3 {
		ind.Curvature = clampFloat(ind.Curvature+uniform(rng, -0.2, 0.2), CurvatureMin, CurvatureMax)
	}
	if rng.Float64() < rate/4 {
		ind.Genus = rng.Intn(GenusMax + 1)
	}
	if rng.Float64() < rate/5 {
		ind.Orientability = 1 - ind.Orientability
	}
	Derive(ind)
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// normal draws a standard normal deviate via the Box-Muller transform.
func normal(rng *rand.Rand) float64 {
	u1 := rng.Float64()
	for u1 == 0 {
		u1 = rng.Float64()
	}
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}
