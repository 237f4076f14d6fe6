package search

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Metric selects how a grid point's mass and charge deviations combine into
// a single error value.
type Metric string

const (
	// MetricRelative averages the normalized mass and charge deviations.
	MetricRelative Metric = "relative"
	// MetricAbsolute sums raw deviations, charge scaled up by 1000 so both
	// terms land in comparable magnitudes.
	MetricAbsolute Metric = "absolute"
	// MetricWeighted combines normalized deviations 0.3 mass / 0.7 charge.
	MetricWeighted Metric = "weighted"
)

const (
	DefaultTwistMin    = -2.0
	DefaultTwistMax    = 2.0
	DefaultTwistStep   = 0.5
	DefaultLinkMin     = -3
	DefaultLinkMax     = 3
	DefaultLinkStep    = 1
	DefaultChargeScale = 0.3
	DefaultBaseMass    = 0.0
	DefaultEnergyScale = 100.0

	MaxResults = 20

	computationTimePerPoint = 20 * time.Millisecond
)

// Params bounds the scanned twist/link grid and fixes the two prediction
// formulas' coefficients.
type Params struct {
	TwistMin    float64 `json:"twist_min"`
	TwistMax    float64 `json:"twist_max"`
	TwistStep   float64 `json:"twist_step"`
	LinkMin     int     `json:"link_min"`
	LinkMax     int     `json:"link_max"`
	LinkStep    int     `json:"link_step"`
	ChargeScale float64 `json:"charge_scale"`
	BaseMass    float64 `json:"base_mass"`
	EnergyScale float64 `json:"energy_scale"`
}

func DefaultParams() Params {
	return Params{
		TwistMin:    DefaultTwistMin,
		TwistMax:    DefaultTwistMax,
		TwistStep:   DefaultTwistStep,
		LinkMin:     DefaultLinkMin,
		LinkMax:     DefaultLinkMax,
		LinkStep:    DefaultLinkStep,
		ChargeScale: DefaultChargeScale,
		BaseMass:    DefaultBaseMass,
		EnergyScale: DefaultEnergyScale,
	}
}

func (p Params) Validate() error {
	if p.TwistStep <= 0 {
		return fmt.Errorf("twist step must be > 0: %v", p.TwistStep)
	}
	if p.TwistMax < p.TwistMin {
		return fmt.Errorf("twist range is inverted: [%v, %v]", p.TwistMin, p.TwistMax)
	}
	if p.LinkStep <= 0 {
		return fmt.Errorf("link step must be > 0: %d", p.LinkStep)
	}
	if p.LinkMax < p.LinkMin {
		return fmt.Errorf("link range is inverted: [%d, %d]", p.LinkMin, p.LinkMax)
	}
	return nil
}

// Result is one scored grid point.
type Result struct {
	Twist            float64 `json:"twist"`
	Link             int     `json:"link"`
	CalculatedCharge float64 `json:"calculated_charge"`
	CalculatedMass   float64 `json:"calculated_mass"`
	Error            float64 `json:"error"`
}

// SpaceEstimate describes the grid before scanning it.
type SpaceEstimate struct {
	TwistValues      []float64     `json:"twist_values"`
	LinkValues       []int         `json:"link_values"`
	CombinationCount int           `json:"combination_count"`
	EstimatedTime    time.Duration `json:"estimated_time"`
}

// Report is the outcome of one grid search against a target particle.
type Report struct {
	Target  Particle `json:"target"`
	Metric  Metric   `json:"metric"`
	Params  Params   `json:"params"`
	Scanned int      `json:"scanned"`
	Results []Result `json:"results"`
}

// ChargeFor predicts charge from a twist value.
func (p Params) ChargeFor(twist float64) float64 {
	return twist * p.ChargeScale
}

// MassFor predicts mass from a linking number.
func (p Params) MassFor(link int) float64 {
	return p.BaseMass + p.EnergyScale*math.Abs(float64(link))
}

// EstimateSpace enumerates the grid axes and the expected scan cost without
// scoring anything.
func EstimateSpace(params Params) (SpaceEstimate, error) {
	if err := params.Validate(); err != nil {
		return SpaceEstimate{}, err
	}
	twists := twistAxis(params)
	links := linkAxis(params)
	count := len(twists) * len(links)
	return SpaceEstimate{
		TwistValues:      twists,
		LinkValues:       links,
		CombinationCount: count,
		EstimatedTime:    time.Duration(count) * computationTimePerPoint,
	}, nil
}

// Run scans every grid point, scores it against the target particle under
// the chosen metric, and returns the best matches first, capped at
// MaxResults. Ties keep grid order so the output is deterministic.
func Run(target Particle, params Params, metric Metric) (Report, error) {
	if err := params.Validate(); err != nil {
		return Report{}, err
	}
	switch metric {
	case MetricRelative, MetricAbsolute, MetricWeighted:
	case "":
		metric = MetricRelative
	default:
		return Report{}, fmt.Errorf("unknown error metric: %s", metric)
	}

	twists := twistAxis(params)
	links := linkAxis(params)
	results := make([]Result, 0, len(twists)*len(links))
	for _, twist := range twists {
		for _, link := range links {
			charge := params.ChargeFor(twist)
			mass := params.MassFor(link)
			results = append(results, Result{
				Twist:            twist,
				Link:             link,
				CalculatedCharge: charge,
				CalculatedMass:   mass,
				Error:            scoreError(mass, charge, target, metric),
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Error < results[j].Error
	})
	scanned := len(results)
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	return Report{
		Target:  target,
		Metric:  metric,
		Params:  params,
		Scanned: scanned,
		Results: results,
	}, nil
}

func scoreError(mass, charge float64, target Particle, metric Metric) float64 {
	switch metric {
	case MetricAbsolute:
		massErr := math.Abs(mass - target.MassMeV)
		chargeErr := math.Abs(charge-target.Charge) * 1000
		return massErr + chargeErr
	case MetricWeighted:
		massErr, chargeErr := normalizedErrors(mass, charge, target)
		return 0.3*massErr + 0.7*chargeErr
	default:
		massErr, chargeErr := normalizedErrors(mass, charge, target)
		return (massErr + chargeErr) / 2
	}
}

func normalizedErrors(mass, charge float64, target Particle) (float64, float64) {
	massDenom := target.MassMeV
	if massDenom == 0 {
		massDenom = 1
	}
	chargeDenom := math.Abs(target.Charge)
	if chargeDenom == 0 {
		chargeDenom = 1
	}
	return math.Abs(mass-target.MassMeV) / massDenom, math.Abs(charge-target.Charge) / chargeDenom
}

func twistAxis(p Params) []float64 {
	var out []float64
	// Half-step slack keeps the upper bound inclusive under float drift.
	for v := p.TwistMin; v <= p.TwistMax+p.TwistStep/2; v += p.TwistStep {
		out = append(out, v)
	}
	return out
}

func linkAxis(p Params) []int {
	var out []int
	for v := p.LinkMin; v <= p.LinkMax; v += p.LinkStep {
		out = append(out, v)
	}
	return out
}
