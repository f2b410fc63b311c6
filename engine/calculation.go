/*
calculation.go - The full calculation pipeline

PURPOSE:
  FullCalculation composes the formulas in formulas.go into one pass:

    1. look up HDD (region) and CO2 intensity (heating source)
    2. current and proposed U-values
    3. current and proposed annual heat loss (same HDD)
    4. annual energy savings (clamped at zero)
    5. annual cost savings
    6. upgrade cost: caller's quote, or area x default cost per m2
    7. payback period
    8. ten-year total savings = 10 x annual savings - cost (may be negative)
    9. annual and ten-year CO2 reduction
   10. round: 4 decimals for U-values, 2 for every other derived value

ROUNDING:
  Rounding goes through decimal.Decimal (half away from zero) so the same
  inputs always serialize to the same digits. Echoed inputs and the
  methodology constants are passed through untouched.

NEGATIVE TEN-YEAR SAVINGS:
  Energy savings are clamped, ten-year savings are not. A negative value
  means the upgrade has not paid for itself within ten years.
*/
package engine

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

const (
	uValuePlaces  = 4
	defaultPlaces = 2
	horizonYears  = 10
)

// FullCalculation runs the whole pipeline for one building.
func FullCalculation(in Input, c Constants) (Result, error) {
	hdd, err := c.HeatingDegreeDaysFor(in.Location)
	if err != nil {
		return Result{}, err
	}
	co2Intensity, err := c.CO2IntensityFor(in.HeatingSource)
	if err != nil {
		return Result{}, err
	}

	currentU, err := UValue(in.CurrentRValue)
	if err != nil {
		return Result{}, withField(err, "current_r_value")
	}
	proposedU, err := UValue(in.ProposedRValue)
	if err != nil {
		return Result{}, withField(err, "proposed_r_value")
	}

	currentLoss := AnnualHeatLoss(currentU, in.RoofArea, hdd)
	proposedLoss := AnnualHeatLoss(proposedU, in.RoofArea, hdd)

	energySavings := EnergySavings(currentLoss, proposedLoss)
	costSavings := CostSavings(energySavings, in.EnergyPricePerKwh)

	upgradeCost := EstimateInsulationCost(in.RoofArea, c.DefaultInsulationCostPerSqm)
	if in.InsulationUpgradeCost != nil {
		upgradeCost = *in.InsulationUpgradeCost
	}

	payback := PaybackPeriod(upgradeCost, costSavings)
	tenYearSavings := costSavings*horizonYears - upgradeCost

	annualCO2 := CO2Reduction(energySavings, co2Intensity)
	tenYearCO2 := annualCO2 * horizonYears

	if years, ok := payback.Years(); ok {
		payback = PaybackYears(round(years, defaultPlaces))
	}

	return Result{
		Location:          in.Location,
		RoofArea:          in.RoofArea,
		CurrentRValue:     in.CurrentRValue,
		ProposedRValue:    in.ProposedRValue,
		HeatingSource:     in.HeatingSource,
		EnergyPricePerKwh: in.EnergyPricePerKwh,

		CurrentUValue:  round(currentU, uValuePlaces),
		ProposedUValue: round(proposedU, uValuePlaces),

		AnnualHeatLossCurrent:  round(currentLoss, defaultPlaces),
		AnnualHeatLossProposed: round(proposedLoss, defaultPlaces),
		AnnualEnergySavings:    round(energySavings, defaultPlaces),

		AnnualCostSavings:     round(costSavings, defaultPlaces),
		InsulationUpgradeCost: round(upgradeCost, defaultPlaces),
		PaybackPeriod:         payback,
		TenYearTotalSavings:   round(tenYearSavings, defaultPlaces),

		AnnualCO2Reduction:  round(annualCO2, defaultPlaces),
		TenYearCO2Reduction: round(tenYearCO2, defaultPlaces),

		HeatingDegreeDays:  hdd,
		CO2IntensityFactor: co2Intensity,
	}, nil
}

// round rounds half away from zero to the given number of decimals.
func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// withField relabels an InputError with the input that produced it.
func withField(err error, field string) error {
	var ie *InputError
	if errors.As(err, &ie) {
		return &InputError{Field: field, Value: ie.Value, Reason: ie.Reason}
	}
	return err
}
