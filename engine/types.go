/*
Package engine computes the payoff of a roof insulation upgrade.

PURPOSE:
  Turns roof geometry, current and proposed thermal resistance, heating
  fuel and energy price into heat-loss, savings, payback and CO2 figures.
  Everything in this package is a pure function: no I/O, no shared state,
  identical inputs always produce identical results.

KEY CONCEPTS IN THIS FILE (types.go):
  - Region:        Closed set of Belgian regions (keys the HDD table)
  - HeatingSource: Closed set of fuels (keys the CO2 intensity table)
  - Input:         Validated calculation inputs
  - Payback:       Payback period, or the explicit absence of one
  - Result:        The immutable, pre-rounded output record

UNITS:
  R-value   m2.K/W      U-value  W/m2.K
  Area      m2          HDD      K.days/year
  Energy    kWh/year    CO2      kg
  Money     EUR

SEE ALSO:
  - formulas.go:    Individual physics/financial formulas
  - calculation.go: FullCalculation pipeline
  - constants.go:   Regional constants table
*/
package engine

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// =============================================================================
// REGION - Where the building is (drives heating degree days)
// =============================================================================

type Region string

const (
	RegionFlanders Region = "Vlaams"
	RegionWallonia Region = "Waals"
	RegionBrussels Region = "Brussels-Hoofdstedelijk"
)

// Regions returns every region in canonical order.
func Regions() []Region {
	return []Region{RegionFlanders, RegionWallonia, RegionBrussels}
}

// ParseRegion converts an external identifier into a Region.
func ParseRegion(s string) (Region, error) {
	for _, r := range Regions() {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown region %q", s)
}

func (r Region) String() string { return string(r) }

// =============================================================================
// HEATING SOURCE - What is burned (drives CO2 intensity)
// =============================================================================

type HeatingSource string

const (
	HeatingGas      HeatingSource = "gas"
	HeatingOil      HeatingSource = "oil"
	HeatingElectric HeatingSource = "electric"
	HeatingHeatPump HeatingSource = "heat_pump"
)

// HeatingSources returns every heating source in canonical order.
func HeatingSources() []HeatingSource {
	return []HeatingSource{HeatingGas, HeatingOil, HeatingElectric, HeatingHeatPump}
}

// ParseHeatingSource converts an external identifier into a HeatingSource.
func ParseHeatingSource(s string) (HeatingSource, error) {
	for _, h := range HeatingSources() {
		if string(h) == s {
			return h, nil
		}
	}
	return "", fmt.Errorf("unknown heating source %q", s)
}

func (h HeatingSource) String() string { return string(h) }

// Label is the product name shown to users.
func (h HeatingSource) Label() string {
	switch h {
	case HeatingGas:
		return "Natural Gas"
	case HeatingOil:
		return "Heating Oil"
	case HeatingElectric:
		return "Electric Heating"
	case HeatingHeatPump:
		return "Heat Pump"
	default:
		return DisplayName(string(h))
	}
}

// DisplayName turns an identifier like "heat_pump" into "Heat Pump".
func DisplayName(id string) string {
	words := strings.Fields(strings.ReplaceAll(id, "_", " "))
	for i, w := range words {
		first, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(first)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

// =============================================================================
// INPUT - Already validated by the caller
// =============================================================================

// Input holds the calculation inputs. Range checks (area limits,
// proposed > current, ...) are the caller's job; the engine only enforces
// that thermal resistances are strictly positive.
type Input struct {
	Location          Region
	RoofArea          float64
	CurrentRValue     float64
	ProposedRValue    float64
	HeatingSource     HeatingSource
	EnergyPricePerKwh float64

	// InsulationUpgradeCost is optional. When nil the cost is estimated
	// from the roof area and the default cost per m2.
	InsulationUpgradeCost *float64
}

// =============================================================================
// PAYBACK - Years until savings cover the upgrade, if ever
// =============================================================================

// NoPaybackSentinel is what older clients expect in place of a payback
// period when the upgrade never pays for itself.
const NoPaybackSentinel = 999.0

// Payback is either a number of years or "no payback".
// The zero value means no payback.
type Payback struct {
	years float64
	ok    bool
}

// PaybackYears returns a payback of y years.
func PaybackYears(y float64) Payback { return Payback{years: y, ok: true} }

// NoPayback returns the absent payback.
func NoPayback() Payback { return Payback{} }

// Years returns the payback period and whether there is one.
func (p Payback) Years() (float64, bool) { return p.years, p.ok }

// Value returns the years, or NoPaybackSentinel when there is no payback.
func (p Payback) Value() float64 {
	if !p.ok {
		return NoPaybackSentinel
	}
	return p.years
}

// MarshalJSON keeps the wire format numeric: 999 means no payback.
func (p Payback) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Value())
}

// UnmarshalJSON maps the exact 999 sentinel back to NoPayback. Any other
// non-negative value is a real payback, however long.
func (p *Payback) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch {
	case v == NoPaybackSentinel:
		*p = NoPayback()
	case v < 0:
		return &InputError{Field: "payback_period", Value: v, Reason: "must not be negative"}
	default:
		*p = PaybackYears(v)
	}
	return nil
}

// =============================================================================
// RESULT - Output record, produced once per calculation
// =============================================================================

// Result is the flat output of FullCalculation. Derived numbers are already
// rounded: 4 decimals for U-values, 2 for everything else.
type Result struct {
	// Echoed inputs
	Location          Region        `json:"location"`
	RoofArea          float64       `json:"roof_area"`
	CurrentRValue     float64       `json:"current_r_value"`
	ProposedRValue    float64       `json:"proposed_r_value"`
	HeatingSource     HeatingSource `json:"heating_source"`
	EnergyPricePerKwh float64       `json:"energy_price_per_kwh"`

	// Thermal
	CurrentUValue  float64 `json:"current_u_value"`
	ProposedUValue float64 `json:"proposed_u_value"`

	// Energy (kWh/year)
	AnnualHeatLossCurrent  float64 `json:"annual_heat_loss_current"`
	AnnualHeatLossProposed float64 `json:"annual_heat_loss_proposed"`
	AnnualEnergySavings    float64 `json:"annual_energy_savings"`

	// Financial (EUR)
	AnnualCostSavings     float64 `json:"annual_cost_savings"`
	InsulationUpgradeCost float64 `json:"insulation_upgrade_cost"`
	PaybackPeriod         Payback `json:"payback_period"`
	TenYearTotalSavings   float64 `json:"ten_year_total_savings"`

	// Environmental (kg CO2)
	AnnualCO2Reduction  float64 `json:"annual_co2_reduction"`
	TenYearCO2Reduction float64 `json:"ten_year_co2_reduction"`

	// Methodology
	HeatingDegreeDays  float64 `json:"heating_degree_days"`
	CO2IntensityFactor float64 `json:"co2_intensity_factor"`
}
