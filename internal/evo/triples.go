package evo

import (
	"sort"

	"skbengine/internal/model"
)

// TripleCandidate pairs a population index triple with its compatibility
// result. Indices are always ordered i < j < k.
type TripleCandidate struct {
	Indices [3]int
	Result  TripleResult
}

// FindCompatibleTriplets enumerates every index triple over the non-frozen
// population and returns the candidates whose members are mutually
// compatible. Candidates are ordered by overall score descending, lowest
// first index breaking ties.
func (e *Engine) FindCompatibleTriplets() ([]TripleCandidate, error) {
	if e.state == StateUninitialized {
		return nil, ErrNotInitialized
	}
	live := e.liveIndices(e.frozen)
	candidates := e.enumerateTriples(live)
	return candidates, nil
}

// FindStableHadrons detects stable triples among the non-frozen population
// and freezes their members. Candidates are computed once over the current
// snapshot, ranked best-first, and accepted greedily: a candidate sharing a
// member with an already-accepted triple is skipped. Accepted triples are
// recorded with the current generation and their members enter the frozen
// set. Returns only the triples accepted by this call.
func (e *Engine) FindStableHadrons() ([]model.StableTriple, error) {
	if e.state == StateUninitialized {
		return nil, ErrNotInitialized
	}
	live := e.liveIndices(e.frozen)
	candidates := e.enumerateTriples(live)

	taken := make(map[int]struct{})
	var accepted []model.StableTriple
	for _, cand := range candidates {
		if overlaps(cand.Indices, taken) {
			continue
		}
		triple := model.StableTriple{
			Indices: cand.Indices,
			MemberIDs: [3]int64{
				e.population[cand.Indices[0]].ID,
				e.population[cand.Indices[1]].ID,
				e.population[cand.Indices[2]].ID,
			},
			PairScores:     cand.Result.PairScores,
			CTCStable:      cand.Result.CTCStable,
			TwistBalanced:  cand.Result.TwistBalanced,
			TopoCompatible: cand.Result.TopoCompatible,
			OverallScore:   cand.Result.OverallScore,
			Generation:     e.generation,
		}
		accepted = append(accepted, triple)
		for _, idx := range cand.Indices {
			taken[idx] = struct{}{}
			e.frozen[idx] = struct{}{}
		}
	}
	e.triples = append(e.triples, accepted...)
	return accepted, nil
}

// enumerateTriples scans all i<j<k combinations of the given indices and
// keeps the compatible ones, sorted best-first with a deterministic
// tie-break so repeated runs over the same population agree.
func (e *Engine) enumerateTriples(indices []int) []TripleCandidate {
	var out []TripleCandidate
	for a := 0; a < len(indices); a++ {
		for b := a + 1; b < len(indices); b++ {
			for c := b + 1; c < len(indices); c++ {
				i, j, k := indices[a], indices[b], indices[c]
				res := e.evaluator.TripleCompatibility(
					e.population[i], e.population[j], e.population[k])
				if !res.Compatible {
					continue
				}
				out = append(out, TripleCandidate{
					Indices: [3]int{i, j, k},
					Result:  res,
				})
			}
		}
	}
	sort.SliceStable(out, func(x, y int) bool {
		if out[x].Result.OverallScore != out[y].Result.OverallScore {
			return out[x].Result.OverallScore > out[y].Result.OverallScore
		}
		if out[x].Indices[0] != out[y].Indices[0] {
			return out[x].Indices[0] < out[y].Indices[0]
		}
		if out[x].Indices[1] != out[y].Indices[1] {
			return out[x].Indices[1] < out[y].Indices[1]
		}
		return out[x].Indices[2] < out[y].Indices[2]
	})
	return out
}

func overlaps(indices [3]int, taken map[int]struct{}) bool {
	for _, idx := range indices {
		if _, ok := taken[idx]; ok {
			return true
		}
	}
	return false
}
