package evo

import (
	"fmt"
	"math"
	"math/rand"

	"skbengine/internal/model"
	"skbengine/internal/topo"
)

// CrossoverRate is the fixed probability that a selected parent pair is
// recombined rather than cloned into the next generation.
const CrossoverRate = 0.7

// Crossover blends two parents into two fully derived offspring. One alpha
// drawn from U(0,1) drives both children: the first takes the alpha-weighted
// blend of every gene, the second the complementary blend. Orientability is
// inherited whole from either parent with equal probability, independent of
// alpha.
func Crossover(rng *rand.Rand, seq *topo.Sequence, p1, p2 model.Individual) (model.Individual, model.Individual, error) {
	if rng == nil {
		return model.Individual{}, model.Individual{}, fmt.Errorf("random source is required")
	}
	alpha := rng.Float64()

	first, err := topo.FromGenes(seq, blendGenes(rng, p1, p2, alpha))
	if err != nil {
		return model.Individual{}, model.Individual{}, fmt.Errorf("crossover offspring: %w", err)
	}
	second, err := topo.FromGenes(seq, blendGenes(rng, p1, p2, 1-alpha))
	if err != nil {
		return model.Individual{}, model.Individual{}, fmt.Errorf("crossover offspring: %w", err)
	}
	return first, second, nil
}

func blendGenes(rng *rand.Rand, p1, p2 model.Individual, alpha float64) topo.Genes {
	var genes topo.Genes
	for i := range genes.Twists {
		blended := alpha*float64(p1.Twists[i]) + (1-alpha)*float64(p2.Twists[i])
		genes.Twists[i] = int(math.Round(blended))
	}
	genes.TT = alpha*p1.TT + (1-alpha)*p2.TT
	genes.Curvature = alpha*p1.Curvature + (1-alpha)*p2.Curvature
	genes.Genus = int(math.Round(alpha*float64(p1.Genus) + (1-alpha)*float64(p2.Genus)))

	genes.Orientability = p1.Orientability
	if rng.Float64() < 0.5 {
		genes.Orientability = p2.Orientability
	}
	return genes
}
