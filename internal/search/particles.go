// Package search implements a methodical grid scan over twist and linking
// numbers, scoring candidate configurations against Standard Model particle
// properties.
package search

import "fmt"

// Particle holds the target properties of one Standard Model particle.
// Masses are in MeV/c^2, charges in units of elementary charge.
type Particle struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	MassMeV     float64  `json:"mass_mev"`
	Charge      float64  `json:"charge"`
	Structure   string   `json:"structure"`
	SubSKBs     []string `json:"sub_skbs"`
	Category    string   `json:"category"`
}

var particles = []Particle{
	{Name: "proton", DisplayName: "Proton", MassMeV: 938.272, Charge: 1.0, Structure: "3 Sub-SKBs", SubSKBs: []string{"Up Quark", "Up Quark", "Down Quark"}, Category: "Hadrons"},
	{Name: "neutron", DisplayName: "Neutron", MassMeV: 939.565, Charge: 0.0, Structure: "3 Sub-SKBs", SubSKBs: []string{"Up Quark", "Down Quark", "Down Quark"}, Category: "Hadrons"},
	{Name: "pion+", DisplayName: "Pion+ (π+)", MassMeV: 139.570, Charge: 1.0, Structure: "2 Sub-SKBs", SubSKBs: []string{"Up Quark", "Anti-Down Quark"}, Category: "Hadrons"},
	{Name: "pion0", DisplayName: "Pion0 (π0)", MassMeV: 134.977, Charge: 0.0, Structure: "2 Sub-SKBs", SubSKBs: []string{"Up Quark", "Anti-Up Quark"}, Category: "Hadrons"},
	{Name: "kaon+", DisplayName: "Kaon+ (K+)", MassMeV: 493.68, Charge: 1.0, Structure: "2 Sub-SKBs", SubSKBs: []string{"Up Quark", "Anti-Strange Quark"}, Category: "Hadrons"},
	{Name: "lambda", DisplayName: "Lambda (Λ)", MassMeV: 1115.68, Charge: 0.0, Structure: "3 Sub-SKBs", SubSKBs: []string{"Up Quark", "Down Quark", "Strange Quark"}, Category: "Hadrons"},
	{Name: "electron", DisplayName: "Electron", MassMeV: 0.511, Charge: -1.0, Structure: "1 Sub-SKB", SubSKBs: []string{"Electron"}, Category: "Leptons"},
	{Name: "muon", DisplayName: "Muon", MassMeV: 105.66, Charge: -1.0, Structure: "1 Sub-SKB", SubSKBs: []string{"Muon"}, Category: "Leptons"},
	{Name: "tau", DisplayName: "Tau", MassMeV: 1776.8, Charge: -1.0, Structure: "1 Sub-SKB", SubSKBs: []string{"Tau"}, Category: "Leptons"},
	{Name: "electron-neutrino", DisplayName: "Electron Neutrino", MassMeV: 0.0000022, Charge: 0.0, Structure: "1 Sub-SKB", SubSKBs: []string{"Electron Neutrino"}, Category: "Leptons"},
	{Name: "muon-neutrino", DisplayName: "Muon Neutrino", MassMeV: 0.17, Charge: 0.0, Structure: "1 Sub-SKB", SubSKBs: []string{"Muon Neutrino"}, Category: "Leptons"},
	{Name: "tau-neutrino", DisplayName: "Tau Neutrino", MassMeV: 15.5, Charge: 0.0, Structure: "1 Sub-SKB", SubSKBs: []string{"Tau Neutrino"}, Category: "Leptons"},
	{Name: "up-quark", DisplayName: "Up Quark", MassMeV: 2.16, Charge: 2.0 / 3.0, Structure: "1 Sub-SKB", SubSKBs: []string{"Up Quark"}, Category: "Quarks"},
	{Name: "down-quark", DisplayName: "Down Quark", MassMeV: 4.67, Charge: -1.0 / 3.0, Structure: "1 Sub-SKB", SubSKBs: []string{"Down Quark"}, Category: "Quarks"},
	{Name: "charm-quark", DisplayName: "Charm Quark", MassMeV: 1270.0, Charge: 2.0 / 3.0, Structure: "1 Sub-SKB", SubSKBs: []string{"Charm Quark"}, Category: "Quarks"},
	{Name: "strange-quark", DisplayName: "Strange Quark", MassMeV: 93.4, Charge: -1.0 / 3.0, Structure: "1 Sub-SKB", SubSKBs: []string{"Strange Quark"}, Category: "Quarks"},
	{Name: "top-quark", DisplayName: "Top Quark", MassMeV: 172500.0, Charge: 2.0 / 3.0, Structure: "1 Sub-SKB", SubSKBs: []string{"Top Quark"}, Category: "Quarks"},
	{Name: "bottom-quark", DisplayName: "Bottom Quark", MassMeV: 4180.0, Charge: -1.0 / 3.0, Structure: "1 Sub-SKB", SubSKBs: []string{"Bottom Quark"}, Category: "Quarks"},
	{Name: "photon", DisplayName: "Photon", MassMeV: 0.0, Charge: 0.0, Structure: "1 Sub-SKB", SubSKBs: []string{"Photon"}, Category: "Bosons"},
	{Name: "z-boson", DisplayName: "Z Boson", MassMeV: 91188.0, Charge: 0.0, Structure: "1 Sub-SKB", SubSKBs: []string{"Z Boson"}, Category: "Bosons"},
	{Name: "w-boson", DisplayName: "W Boson", MassMeV: 80379.0, Charge: 1.0, Structure: "1 Sub-SKB", SubSKBs: []string{"W Boson"}, Category: "Bosons"},
	{Name: "gluon", DisplayName: "Gluon", MassMeV: 0.0, Charge: 0.0, Structure: "1 Sub-SKB", SubSKBs: []string{"Gluon"}, Category: "Bosons"},
	{Name: "higgs", DisplayName: "Higgs Boson", MassMeV: 125180.0, Charge: 0.0, Structure: "1 Sub-SKB", SubSKBs: []string{"Higgs Boson"}, Category: "Bosons"},
}

var categoryOrder = []string{"Hadrons", "Leptons", "Quarks", "Bosons"}

// Particles returns the full particle catalog in table order.
func Particles() []Particle {
	return append([]Particle(nil), particles...)
}

// LookupParticle finds one particle by its short name.
func LookupParticle(name string) (Particle, error) {
	for _, p := range particles {
		if p.Name == name {
			return p, nil
		}
	}
	return Particle{}, fmt.Errorf("unknown particle: %s", name)
}

// ParticlesByCategory groups the catalog into its four categories,
// preserving table order inside each group.
func ParticlesByCategory() map[string][]Particle {
	out := make(map[string][]Particle, len(categoryOrder))
	for _, category := range categoryOrder {
		for _, p := range particles {
			if p.Category == category {
				out[category] = append(out[category], p)
			}
		}
	}
	return out
}

// Categories returns the category names in display order.
func Categories() []string {
	return append([]string(nil), categoryOrder...)
}
