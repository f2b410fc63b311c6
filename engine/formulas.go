/*
formulas.go - The individual engineering and financial formulas

PURPOSE:
  Each formula is a small pure function so it can be tested on its own.
  calculation.go composes them into the full pipeline.

FORMULAS:
  U   = 1 / R
  Q   = U x A x HDD x 24 / 1000          (kWh/year; 24 h/day, Wh -> kWh)
  dQ  = max(0, Q_current - Q_proposed)   (never report a loss as savings)
  EUR = dQ x price
  PB  = cost / EUR                       (none when EUR <= 0)
  CO2 = dQ x intensity
*/
package engine

import "math"

const (
	hoursPerDay = 24
	whPerKwh    = 1000
)

// UValue returns the thermal transmittance for a thermal resistance.
// A resistance of zero or below is physically meaningless.
func UValue(rValue float64) (float64, error) {
	if rValue <= 0 || math.IsNaN(rValue) {
		return 0, &InputError{Field: "r_value", Value: rValue, Reason: "must be greater than 0"}
	}
	return 1.0 / rValue, nil
}

// AnnualHeatLoss returns the yearly heat loss through the roof in kWh.
func AnnualHeatLoss(uValue, roofArea, heatingDegreeDays float64) float64 {
	return uValue * roofArea * heatingDegreeDays * hoursPerDay / whPerKwh
}

// EnergySavings returns the kWh saved per year, clamped at zero.
func EnergySavings(currentHeatLoss, proposedHeatLoss float64) float64 {
	return math.Max(0, currentHeatLoss-proposedHeatLoss)
}

// CostSavings returns the yearly saving in EUR.
func CostSavings(energySavings, pricePerKwh float64) float64 {
	return energySavings * pricePerKwh
}

// PaybackPeriod returns the simple payback of an upgrade.
// Without positive savings the upgrade never pays back.
func PaybackPeriod(upgradeCost, annualSavings float64) Payback {
	if annualSavings <= 0 {
		return NoPayback()
	}
	return PaybackYears(upgradeCost / annualSavings)
}

// CO2Reduction returns the kg of CO2 avoided per year.
func CO2Reduction(energySavings, co2Intensity float64) float64 {
	return energySavings * co2Intensity
}

// EstimateInsulationCost prices an upgrade when the caller has no quote.
func EstimateInsulationCost(roofArea, costPerSqm float64) float64 {
	return roofArea * costPerSqm
}
