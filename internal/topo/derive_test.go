package topo

import (
	"math"
	"testing"

	"skbengine/internal/model"
)

func TestDeriveOrientableEulerAndGroup(t *testing.T) {
	cases := []struct {
		genus     int
		wantEuler int
		wantGroup model.FundamentalGroup
	}{
		{0, 2, model.GroupTrivial},
		{1, 0, model.GroupZxZ},
		{2, -2, model.GroupComplex},
	}
	for _, tc := range cases {
		ind := model.Individual{Genus: tc.genus, Orientability: 0}
		Derive(&ind)
		if ind.EulerCharacteristic != tc.wantEuler {
			t.Fatalf("genus %d: euler = %d, want %d", tc.genus, ind.EulerCharacteristic, tc.wantEuler)
		}
		if ind.FundamentalGroup != tc.wantGroup {
			t.Fatalf("genus %d: group = %q, want %q", tc.genus, ind.FundamentalGroup, tc.wantGroup)
		}
	}
}

func TestDeriveNonOrientableEulerAndGroup(t *testing.T) {
	cases := []struct {
		genus     int
		wantEuler int
		wantGroup model.FundamentalGroup
	}{
		{0, 2, model.GroupKlein},
		{1, 1, model.GroupKlein},
		{2, 0, model.GroupComplex},
	}
	for _, tc := range cases {
		ind := model.Individual{Genus: tc.genus, Orientability: 1}
		Derive(&ind)
		if ind.EulerCharacteristic != tc.wantEuler {
			t.Fatalf("genus %d: euler = %d, want %d", tc.genus, ind.EulerCharacteristic, tc.wantEuler)
		}
		if ind.FundamentalGroup != tc.wantGroup {
			t.Fatalf("genus %d: group = %q, want %q", tc.genus, ind.FundamentalGroup, tc.wantGroup)
		}
		if ind.W1 != 1 {
			t.Fatalf("genus %d: w1 = %d, want 1", tc.genus, ind.W1)
		}
		if ind.IntersectionForm != model.FormNonOrientable {
			t.Fatalf("genus %d: form = %q, want %q", tc.genus, ind.IntersectionForm, model.FormNonOrientable)
		}
	}
}

func TestDeriveChargesFollowTwists(t *testing.T) {
	ind := model.Individual{Twists: [3]int{3, -2, 1}, Orientability: 0}
	Derive(&ind)

	want := [3]float64{1.0, -2.0 / 3.0, 1.0 / 3.0}
	for i := range want {
		if math.Abs(ind.Charges[i]-want[i]) > 1e-12 {
			t.Fatalf("charge[%d] = %v, want %v", i, ind.Charges[i], want[i])
		}
	}
	if math.Abs(ind.TotalCharge-2.0/3.0) > 1e-12 {
		t.Fatalf("total charge = %v, want %v", ind.TotalCharge, 2.0/3.0)
	}
}

func TestDeriveIntersectionForm(t *testing.T) {
	cases := []struct {
		twists [3]int
		want   model.IntersectionForm
	}{
		{[3]int{2, 3, 0}, model.FormPositiveDefinite},
		{[3]int{-1, -2, 0}, model.FormNegativeDefinite},
		{[3]int{-2, 3, 0}, model.FormIndefinite},
		{[3]int{0, 5, 1}, model.FormDegenerate},
		{[3]int{4, 0, 1}, model.FormDegenerate},
	}
	for _, tc := range cases {
		ind := model.Individual{Twists: tc.twists, Orientability: 0}
		Derive(&ind)
		if ind.IntersectionForm != tc.want {
			t.Fatalf("twists %v: form = %q, want %q", tc.twists, ind.IntersectionForm, tc.want)
		}
	}
}

func TestDeriveObstruction(t *testing.T) {
	cases := []struct {
		twists [3]int
		want   int
	}{
		{[3]int{1, 1, 1}, 0},
		{[3]int{2, 2, 1}, 1},
		{[3]int{-2, 2, 1}, 1},
		{[3]int{3, 1, 1}, 0},
		{[3]int{0, 5, 5}, 0},
	}
	for _, tc := range cases {
		ind := model.Individual{Twists: tc.twists, Orientability: 0}
		Derive(&ind)
		if ind.Obstruction != tc.want {
			t.Fatalf("twists %v: obstruction = %d, want %d", tc.twists, ind.Obstruction, tc.want)
		}
	}
}
