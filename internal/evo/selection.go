package evo

import (
	"fmt"
	"math/rand"

	"skbengine/internal/model"
)

// Selector chooses a parent index from a fixed population snapshot. The
// snapshot and the live index set never change for the duration of one
// generation step.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, population []model.Individual, live []int) (int, error)
}

// TournamentSelector draws Pressure candidates uniformly with replacement
// from the live set and returns the one with maximum fitness.
type TournamentSelector struct {
	Pressure int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) PickParent(rng *rand.Rand, population []model.Individual, live []int) (int, error) {
	if rng == nil {
		return 0, fmt.Errorf("random source is required")
	}
	if len(live) == 0 {
		return 0, fmt.Errorf("no selectable individuals")
	}
	pressure := s.Pressure
	if pressure <= 0 {
		pressure = 3
	}

	best := live[rng.Intn(len(live))]
	for i := 1; i < pressure; i++ {
		candidate := live[rng.Intn(len(live))]
		if population[candidate].Fitness > population[best].Fitness {
			best = candidate
		}
	}
	return best, nil
}
