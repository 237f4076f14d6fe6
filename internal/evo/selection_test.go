package evo

import (
	"math/rand"
	"testing"

	"skbengine/internal/model"
)

func TestTournamentSelectorPrefersFitter(t *testing.T) {
	pop := []model.Individual{
		{ID: 1, Fitness: 0.1},
		{ID: 2, Fitness: 0.9},
		{ID: 3, Fitness: 0.4},
		{ID: 4, Fitness: 0.2},
	}
	live := []int{0, 1, 2, 3}
	sel := TournamentSelector{Pressure: 3}
	rng := rand.New(rand.NewSource(11))

	wins := make(map[int]int)
	for i := 0; i < 2000; i++ {
		idx, err := sel.PickParent(rng, pop, live)
		if err != nil {
			t.Fatalf("pick parent: %v", err)
		}
		wins[idx]++
	}
	if wins[1] <= wins[0] || wins[1] <= wins[3] {
		t.Fatalf("fittest should win most tournaments: %v", wins)
	}
	if wins[0] == 0 {
		t.Fatalf("weakest should still win occasionally under pressure 3: %v", wins)
	}
}

func TestTournamentSelectorOnlyPicksLive(t *testing.T) {
	pop := []model.Individual{
		{ID: 1, Fitness: 0.99},
		{ID: 2, Fitness: 0.1},
		{ID: 3, Fitness: 0.2},
	}
	live := []int{1, 2}
	sel := TournamentSelector{Pressure: 2}
	rng := rand.New(rand.NewSource(5))

	for i := 0; i < 500; i++ {
		idx, err := sel.PickParent(rng, pop, live)
		if err != nil {
			t.Fatalf("pick parent: %v", err)
		}
		if idx == 0 {
			t.Fatalf("selected frozen index 0")
		}
	}
}

func TestTournamentSelectorErrors(t *testing.T) {
	sel := TournamentSelector{Pressure: 3}
	rng := rand.New(rand.NewSource(1))

	if _, err := sel.PickParent(nil, []model.Individual{{ID: 1}}, []int{0}); err == nil {
		t.Fatalf("nil rng should error")
	}
	if _, err := sel.PickParent(rng, []model.Individual{{ID: 1}}, nil); err == nil {
		t.Fatalf("empty live set should error")
	}
}
