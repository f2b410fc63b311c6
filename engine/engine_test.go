package engine

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func cost(v float64) *float64 { return &v }

func flandersGas() Input {
	return Input{
		Location:              RegionFlanders,
		RoofArea:              100,
		CurrentRValue:         2.0,
		ProposedRValue:        6.0,
		HeatingSource:         HeatingGas,
		EnergyPricePerKwh:     0.35,
		InsulationUpgradeCost: cost(4500),
	}
}

// =============================================================================
// FORMULA TESTS
// =============================================================================

func TestUValue(t *testing.T) {
	tests := []struct {
		r    float64
		want float64
	}{
		{r: 5.0, want: 0.2},
		{r: 2.0, want: 0.5},
		{r: 1.0, want: 1.0},
		{r: 10.0, want: 0.1},
		{r: 0.25, want: 4.0},
	}
	for _, tt := range tests {
		got, err := UValue(tt.r)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "UValue(%v)", tt.r)
	}
}

func TestUValue_NonPositiveRejected(t *testing.T) {
	for _, r := range []float64{0, -1.0, -0.0001} {
		_, err := UValue(r)
		require.Error(t, err, "r=%v", r)
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.True(t, IsClientError(err))
		assert.False(t, IsConfigError(err))
	}
}

func TestAnnualHeatLoss(t *testing.T) {
	assert.Equal(t, 3360.0, AnnualHeatLoss(0.5, 100, 2800))
	assert.Equal(t, 1344.0, AnnualHeatLoss(0.2, 100, 2800))
}

func TestAnnualHeatLoss_LinearInEachArgument(t *testing.T) {
	base := AnnualHeatLoss(0.5, 100, 2800)

	assert.InDelta(t, 2*base, AnnualHeatLoss(1.0, 100, 2800), 1e-9)
	assert.InDelta(t, 2*base, AnnualHeatLoss(0.5, 200, 2800), 1e-9)
	assert.InDelta(t, 2*base, AnnualHeatLoss(0.5, 100, 5600), 1e-9)
}

func TestAnnualHeatLoss_ColderRegionLosesMore(t *testing.T) {
	flanders := AnnualHeatLoss(0.5, 100, 2800)
	wallonia := AnnualHeatLoss(0.5, 100, 3000)
	assert.Greater(t, wallonia, flanders)
}

func TestEnergySavings(t *testing.T) {
	tests := []struct {
		name              string
		current, proposed float64
		want              float64
	}{
		{name: "positive", current: 3360, proposed: 1344, want: 2016},
		{name: "equal", current: 1000, proposed: 1000, want: 0},
		{name: "upgrade worse than baseline is clamped", current: 1000, proposed: 1500, want: 0},
		{name: "negative inputs", current: -10, proposed: -30, want: 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnergySavings(tt.current, tt.proposed)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0.0)
		})
	}
}

func TestCostSavings(t *testing.T) {
	assert.InDelta(t, 705.6, CostSavings(2016, 0.35), 1e-9)
	assert.InDelta(t, 700.0, CostSavings(2000, 0.35), 1e-9)
	assert.Greater(t, CostSavings(1000, 0.40), CostSavings(1000, 0.30))
}

func TestPaybackPeriod(t *testing.T) {
	// GIVEN: A 4500 EUR upgrade saving 700 EUR a year
	// WHEN: Computing the payback
	// THEN: It takes about 6.43 years
	p := PaybackPeriod(4500, 700)
	years, ok := p.Years()
	require.True(t, ok)
	assert.Equal(t, 6.43, round(years, 2))

	p = PaybackPeriod(1000, 500)
	assert.Equal(t, 2.0, p.Value())
}

func TestPaybackPeriod_NoSavingsMeansNoPayback(t *testing.T) {
	for _, savings := range []float64{0, -100} {
		p := PaybackPeriod(1000, savings)
		_, ok := p.Years()
		assert.False(t, ok)
		assert.Equal(t, 999.0, p.Value())
	}
}

func TestCO2Reduction(t *testing.T) {
	assert.InDelta(t, 402.0, CO2Reduction(2000, 0.201), 1e-9)
	assert.InDelta(t, 110.0, CO2Reduction(2000, 0.055), 1e-9)
	assert.Equal(t, 0.0, CO2Reduction(0, 0.201))
}

func TestEstimateInsulationCost(t *testing.T) {
	assert.Equal(t, 4500.0, EstimateInsulationCost(100, 45))
	assert.Equal(t, 2250.0, EstimateInsulationCost(50, 45))
	assert.Equal(t, 9000.0, EstimateInsulationCost(200, 45))
}

// =============================================================================
// PIPELINE TESTS
// =============================================================================

func TestFullCalculation_Flanders(t *testing.T) {
	res, err := FullCalculation(flandersGas(), DefaultConstants())
	require.NoError(t, err)

	assert.Equal(t, 0.5, res.CurrentUValue)
	assert.InDelta(t, 0.1667, res.ProposedUValue, 1e-9)
	assert.Equal(t, 3360.0, res.AnnualHeatLossCurrent)
	assert.Equal(t, 1120.0, res.AnnualHeatLossProposed)
	assert.Equal(t, 2240.0, res.AnnualEnergySavings)
	assert.Greater(t, res.AnnualCostSavings, 0.0)
	assert.Greater(t, res.AnnualCO2Reduction, 0.0)
	assert.InDelta(t, res.AnnualCostSavings*10-4500, res.TenYearTotalSavings, 0.01)
	assert.InDelta(t, res.AnnualCO2Reduction*10, res.TenYearCO2Reduction, 0.01)

	assert.Equal(t, 2800.0, res.HeatingDegreeDays)
	assert.Equal(t, 0.201, res.CO2IntensityFactor)
	assert.Equal(t, RegionFlanders, res.Location)
	assert.Equal(t, HeatingGas, res.HeatingSource)
}

func TestFullCalculation_EstimatesCostWhenAbsent(t *testing.T) {
	// GIVEN: No quote for the upgrade in Wallonia with oil heating
	in := Input{
		Location:          RegionWallonia,
		RoofArea:          100,
		CurrentRValue:     2.0,
		ProposedRValue:    6.0,
		HeatingSource:     HeatingOil,
		EnergyPricePerKwh: 0.33,
	}

	// WHEN: Running the pipeline
	res, err := FullCalculation(in, DefaultConstants())

	// THEN: The cost is area x 45 EUR/m2
	require.NoError(t, err)
	assert.Equal(t, 4500.0, res.InsulationUpgradeCost)
	assert.Greater(t, res.AnnualEnergySavings, 0.0)
}

func TestFullCalculation_HeatPumpSameEnergyLessCO2(t *testing.T) {
	gasIn := flandersGas()
	pumpIn := flandersGas()
	pumpIn.HeatingSource = HeatingHeatPump

	gas, err := FullCalculation(gasIn, DefaultConstants())
	require.NoError(t, err)
	pump, err := FullCalculation(pumpIn, DefaultConstants())
	require.NoError(t, err)

	assert.Equal(t, gas.AnnualEnergySavings, pump.AnnualEnergySavings)
	assert.Less(t, pump.AnnualCO2Reduction, gas.AnnualCO2Reduction)
}

func TestFullCalculation_TenYearSavings(t *testing.T) {
	in := flandersGas()
	in.Location = RegionBrussels
	in.EnergyPricePerKwh = 0.34

	res, err := FullCalculation(in, DefaultConstants())
	require.NoError(t, err)
	assert.InDelta(t, res.AnnualCostSavings*10-4500, res.TenYearTotalSavings, 0.01)
}

func TestFullCalculation_NegativeTenYearSavingsKept(t *testing.T) {
	// GIVEN: A very expensive upgrade
	in := flandersGas()
	in.InsulationUpgradeCost = cost(50000)

	res, err := FullCalculation(in, DefaultConstants())

	// THEN: Ten-year savings are negative, not clamped
	require.NoError(t, err)
	assert.Less(t, res.TenYearTotalSavings, 0.0)
	assert.GreaterOrEqual(t, res.AnnualEnergySavings, 0.0)
}

func TestFullCalculation_NoImprovementHasNoPayback(t *testing.T) {
	in := flandersGas()
	in.ProposedRValue = 1.0 // worse than current

	res, err := FullCalculation(in, DefaultConstants())
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.AnnualEnergySavings)
	assert.Equal(t, 0.0, res.AnnualCostSavings)
	_, ok := res.PaybackPeriod.Years()
	assert.False(t, ok)
	assert.Equal(t, NoPaybackSentinel, res.PaybackPeriod.Value())
}

func TestFullCalculation_Idempotent(t *testing.T) {
	a, err := FullCalculation(flandersGas(), DefaultConstants())
	require.NoError(t, err)
	b, err := FullCalculation(flandersGas(), DefaultConstants())
	require.NoError(t, err)

	assert.Equal(t, a, b)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, string(ja), string(jb))
}

func TestFullCalculation_MoreDegreeDaysMoreSavings(t *testing.T) {
	c := DefaultConstants()
	low, err := FullCalculation(flandersGas(), c)
	require.NoError(t, err)

	c.HeatingDegreeDays = map[Region]float64{RegionFlanders: 3500}
	high, err := FullCalculation(flandersGas(), c)
	require.NoError(t, err)

	assert.Greater(t, high.AnnualHeatLossCurrent, low.AnnualHeatLossCurrent)
	assert.Greater(t, high.AnnualEnergySavings, low.AnnualEnergySavings)
}

func TestFullCalculation_Rounding(t *testing.T) {
	in := flandersGas()
	in.ProposedRValue = 3.0
	in.EnergyPricePerKwh = 0.333

	res, err := FullCalculation(in, DefaultConstants())
	require.NoError(t, err)

	assert.Equal(t, 0.3333, res.ProposedUValue)
	assert.Equal(t, 1120.0, res.AnnualEnergySavings)
	assert.Equal(t, 372.96, res.AnnualCostSavings)
	assert.Equal(t, 12.07, res.PaybackPeriod.Value())
}

func TestFullCalculation_InvalidRValue(t *testing.T) {
	in := flandersGas()
	in.CurrentRValue = 0

	_, err := FullCalculation(in, DefaultConstants())
	require.Error(t, err)
	assert.True(t, IsClientError(err))

	var ie *InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "current_r_value", ie.Field)
}

func TestFullCalculation_MissingConstant(t *testing.T) {
	// GIVEN: A constants table without Brussels
	c := DefaultConstants()
	delete(c.HeatingDegreeDays, RegionBrussels)

	in := flandersGas()
	in.Location = RegionBrussels

	// WHEN: Calculating for Brussels
	_, err := FullCalculation(in, c)

	// THEN: A lookup failure, distinct from invalid input
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLookupFailure)
	assert.True(t, IsConfigError(err))
	assert.False(t, IsClientError(err))

	var le *LookupError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "heating_degree_days", le.Table)
	assert.Equal(t, "Brussels-Hoofdstedelijk", le.Key)
}

func TestFullCalculation_UnknownHeatingSource(t *testing.T) {
	in := flandersGas()
	in.HeatingSource = HeatingSource("wood")

	_, err := FullCalculation(in, DefaultConstants())
	assert.ErrorIs(t, err, ErrLookupFailure)
}

// =============================================================================
// TYPES
// =============================================================================

func TestConstants_Validate(t *testing.T) {
	require.NoError(t, DefaultConstants().Validate())

	c := DefaultConstants()
	delete(c.CO2Intensity, HeatingOil)
	c.DefaultInsulationCostPerSqm = 0

	err := c.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLookupFailure)
	assert.Contains(t, err.Error(), "oil")
	assert.Contains(t, err.Error(), "default_insulation_cost_per_sqm")
}

func TestParseEnumerations(t *testing.T) {
	r, err := ParseRegion("Waals")
	require.NoError(t, err)
	assert.Equal(t, RegionWallonia, r)

	_, err = ParseRegion("Limburg")
	assert.Error(t, err)

	h, err := ParseHeatingSource("heat_pump")
	require.NoError(t, err)
	assert.Equal(t, HeatingHeatPump, h)
	assert.Equal(t, "Heat Pump", h.Label())

	_, err = ParseHeatingSource("coal")
	assert.Error(t, err)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Heat Pump", DisplayName("heat_pump"))
	assert.Equal(t, "Gas", DisplayName("gas"))
	assert.Equal(t, "", DisplayName(""))
	assert.Equal(t, "Électrique Pompe", DisplayName("électrique_pompe"))
	assert.Equal(t, "Öl", DisplayName("ÖL"))
}

func TestPayback_JSON(t *testing.T) {
	b, err := json.Marshal(PaybackYears(6.43))
	require.NoError(t, err)
	assert.Equal(t, "6.43", string(b))

	b, err = json.Marshal(NoPayback())
	require.NoError(t, err)
	assert.Equal(t, "999", string(b))

	var p Payback
	require.NoError(t, json.Unmarshal([]byte("999"), &p))
	_, ok := p.Years()
	assert.False(t, ok)

	require.NoError(t, json.Unmarshal([]byte("4.5"), &p))
	years, ok := p.Years()
	assert.True(t, ok)
	assert.Equal(t, 4.5, years)

	// GIVEN: A payback longer than the sentinel
	// THEN: It stays a real payback
	require.NoError(t, json.Unmarshal([]byte("2551.02"), &p))
	years, ok = p.Years()
	assert.True(t, ok)
	assert.Equal(t, 2551.02, years)

	err = json.Unmarshal([]byte("-1"), &p)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
