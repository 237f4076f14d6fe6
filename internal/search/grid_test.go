package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupParticle(t *testing.T) {
	proton, err := LookupParticle("proton")
	require.NoError(t, err)
	require.Equal(t, 938.272, proton.MassMeV)
	require.Equal(t, 1.0, proton.Charge)
	require.Equal(t, "Hadrons", proton.Category)

	_, err = LookupParticle("graviton")
	require.Error(t, err)
}

func TestParticlesByCategoryCoversCatalog(t *testing.T) {
	groups := ParticlesByCategory()
	require.Len(t, groups, 4)

	total := 0
	for _, category := range Categories() {
		require.NotEmpty(t, groups[category])
		total += len(groups[category])
	}
	require.Equal(t, len(Particles()), total)
	require.Len(t, groups["Quarks"], 6)
	require.Len(t, groups["Bosons"], 5)
}

func TestEstimateSpaceCountsDefaultGrid(t *testing.T) {
	estimate, err := EstimateSpace(DefaultParams())
	require.NoError(t, err)

	// Defaults: twists -2..2 step 0.5 (9 values), links -3..3 step 1 (7 values).
	require.Len(t, estimate.TwistValues, 9)
	require.Len(t, estimate.LinkValues, 7)
	require.Equal(t, 63, estimate.CombinationCount)
	require.Equal(t, 63*computationTimePerPoint, estimate.EstimatedTime)
}

func TestRunFindsExactElectronMatch(t *testing.T) {
	electron, err := LookupParticle("electron")
	require.NoError(t, err)

	// Charge scale 0.5 puts charge -1 exactly at twist -2; mass 0.511 has
	// its closest predicted value at link 0.
	params := DefaultParams()
	params.ChargeScale = 0.5

	report, err := Run(electron, params, MetricWeighted)
	require.NoError(t, err)
	require.Equal(t, 63, report.Scanned)
	require.Len(t, report.Results, MaxResults)

	best := report.Results[0]
	require.Equal(t, -2.0, best.Twist)
	require.Equal(t, 0, best.Link)
	require.Equal(t, -1.0, best.CalculatedCharge)
	require.Equal(t, 0.0, best.CalculatedMass)

	for i := 1; i < len(report.Results); i++ {
		require.LessOrEqual(t, report.Results[i-1].Error, report.Results[i].Error)
	}
}

func TestRunMetricsDisagreeOnPriorities(t *testing.T) {
	proton, err := LookupParticle("proton")
	require.NoError(t, err)
	params := DefaultParams()

	relative, err := Run(proton, params, MetricRelative)
	require.NoError(t, err)
	absolute, err := Run(proton, params, MetricAbsolute)
	require.NoError(t, err)

	// The absolute metric is dominated by mass in MeV, so its best link
	// lands nearest the proton mass.
	require.Equal(t, 3, abs(absolute.Results[0].Link))
	require.NotEmpty(t, relative.Results)
}

func TestRunDefaultsToRelativeMetric(t *testing.T) {
	neutron, err := LookupParticle("neutron")
	require.NoError(t, err)

	report, err := Run(neutron, DefaultParams(), "")
	require.NoError(t, err)
	require.Equal(t, MetricRelative, report.Metric)

	_, err = Run(neutron, DefaultParams(), "chi-squared")
	require.Error(t, err)
}

func TestParamsValidate(t *testing.T) {
	bad := DefaultParams()
	bad.TwistStep = 0
	require.Error(t, bad.Validate())

	bad = DefaultParams()
	bad.TwistMin, bad.TwistMax = 2, -2
	require.Error(t, bad.Validate())

	bad = DefaultParams()
	bad.LinkStep = 0
	require.Error(t, bad.Validate())

	require.NoError(t, DefaultParams().Validate())
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
