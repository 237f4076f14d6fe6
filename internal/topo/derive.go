// Package topo implements the individual model of the compatibility search:
// gene storage, invariant derivation, and the genetic operators that act on
// a single individual.
package topo

import (
	"math"

	"skbengine/internal/model"
)

// Gene bounds. All genes are clamped to these ranges by construction, so
// derived invariants never see out-of-range input.
const (
	TwistMin = -5
	TwistMax = 5

	TTMin = -1.0
	TTMax = 1.0

	CurvatureMin = 0.0
	CurvatureMax = 2.0

	GenusMin = 0
	GenusMax = 2
)

// ObstructionThreshold is the twist-product magnitude above which the
// surgery obstruction flag is raised.
const ObstructionThreshold = 3

// Derive recomputes every derived invariant from the current genes.
// It must be called after any gene change; derived fields are never
// mutated on their own.
func Derive(ind *model.Individual) {
	for i, t := range ind.Twists {
		ind.Charges[i] = float64(t) / 3.0
	}
	ind.TotalCharge = ind.Charges[0] + ind.Charges[1] + ind.Charges[2]

	ind.W1 = ind.Orientability
	if ind.IsOrientable() {
		ind.EulerCharacteristic = 2 - 2*ind.Genus
	} else {
		ind.EulerCharacteristic = 2 - ind.Genus
	}

	ind.FundamentalGroup = fundamentalGroup(ind.Genus, ind.Orientability)
	ind.IntersectionForm = intersectionForm(ind.Twists, ind.Orientability)

	product := ind.Twists[0] * ind.Twists[1] * ind.Twists[2]
	if product < 0 {
		product = -product
	}
	if product > ObstructionThreshold {
		ind.Obstruction = 1
	} else {
		ind.Obstruction = 0
	}
}

func fundamentalGroup(genus, orientability int) model.FundamentalGroup {
	if orientability == 0 {
		switch genus {
		case 0:
			return model.GroupTrivial
		case 1:
			return model.GroupZxZ
		default:
			return model.GroupComplex
		}
	}
	if genus <= 1 {
		return model.GroupKlein
	}
	return model.GroupComplex
}

func intersectionForm(twists [3]int, orientability int) model.IntersectionForm {
	if orientability != 0 {
		return model.FormNonOrientable
	}
	s := sign(twists[0]) * sign(twists[1])
	switch {
	case s == 0:
		return model.FormDegenerate
	case s < 0:
		return model.FormIndefinite
	case twists[0] > 0:
		return model.FormPositiveDefinite
	default:
		return model.FormNegativeDefinite
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
