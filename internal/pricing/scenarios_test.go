package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeLeasing_WithoutApport(t *testing.T) {
	figures := ComputeLeasing(240, LeasingParams{
		SubscriptionTTC: 50,
		MaintenanceTTC:  10,
		Duration:        12,
	}, 0)

	assert.InDelta(t, 300, figures.TotalHT, 1e-9)
	assert.InDelta(t, 360, figures.TotalTTC, 1e-9)
	assert.InDelta(t, 25, figures.MonthlyHT, 1e-9)
	assert.InDelta(t, 30, figures.MonthlyTTC, 1e-9)
}

func TestComputeLeasing_WithApport(t *testing.T) {
	figures := ComputeLeasing(240, LeasingParams{
		SubscriptionTTC: 50,
		MaintenanceTTC:  10,
		Duration:        12,
	}, 100)

	assert.InDelta(t, 200, figures.TotalHT, 1e-9)
	assert.InDelta(t, 240, figures.TotalTTC, 1e-9)
	assert.InDelta(t, 100, figures.Apport, 1e-9)
}

func TestComputeLeasing_FloorsAtZero(t *testing.T) {
	figures := ComputeLeasing(100, LeasingParams{Duration: 12}, 500)

	assert.Zero(t, figures.TotalHT)
	assert.Zero(t, figures.TotalTTC)
	assert.Zero(t, figures.MonthlyHT)
	assert.Zero(t, figures.MonthlyTTC)
}

func TestComputeLeasing_ZeroDuration(t *testing.T) {
	figures := ComputeLeasing(240, LeasingParams{
		SubscriptionTTC: 50,
		MaintenanceTTC:  10,
		Duration:        0,
	}, 0)

	assert.InDelta(t, 300, figures.TotalHT, 1e-9)
	assert.Zero(t, figures.MonthlyHT)
	assert.Zero(t, figures.MonthlyTTC)
}

func TestComputeScenarios(t *testing.T) {
	line, err := PriceLine(100, 2, 0.20)
	require.NoError(t, err)
	directTotals := Aggregate([]LineAmounts{line})

	set := ComputeScenarios(directTotals, directTotals, 40, LeasingParams{
		SubscriptionTTC: 50,
		MaintenanceTTC:  10,
		Duration:        12,
	}, 100)

	assert.InDelta(t, 240, set.DirectTotals.TTC, 1e-9)
	assert.InDelta(t, 200, set.DirectTTCAfterRemise, 1e-9)

	assert.InDelta(t, 300, set.LocationSansApport.TotalHT, 1e-9)
	assert.InDelta(t, 360, set.LocationSansApport.TotalTTC, 1e-9)
	assert.Zero(t, set.LocationSansApport.Apport)

	assert.InDelta(t, 200, set.LocationAvecApport.TotalHT, 1e-9)
	assert.InDelta(t, 240, set.LocationAvecApport.TotalTTC, 1e-9)
	assert.InDelta(t, 100, set.LocationAvecApport.Apport, 1e-9)
}

func TestComputeScenarios_DivergentMargins(t *testing.T) {
	directLine, err := PriceLine(140, 1, 0.20)
	require.NoError(t, err)
	locationLine, err := PriceLine(120, 1, 0.20)
	require.NoError(t, err)

	set := ComputeScenarios(
		Aggregate([]LineAmounts{directLine}),
		Aggregate([]LineAmounts{locationLine}),
		0,
		LeasingParams{Duration: 24},
		0,
	)

	// Leasing figures derive from the leasing-priced totals, not the direct ones.
	assert.InDelta(t, 168, set.DirectTotals.TTC, 1e-9)
	assert.InDelta(t, 144, set.LocationTotals.TTC, 1e-9)
	assert.InDelta(t, 144, set.LocationSansApport.TotalHT, 1e-9)
}
