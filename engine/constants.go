package engine

import (
	"errors"
)

// Constants is the regional lookup table the engine reads from.
// It is supplied by the configuration layer and passed explicitly to every
// calculation, so different tables can be used concurrently.
type Constants struct {
	HeatingDegreeDays map[Region]float64
	CO2Intensity      map[HeatingSource]float64

	// EnergyPrices are suggested defaults per region. The engine never
	// reads them; they are published to clients alongside the HDD values.
	EnergyPrices map[Region]float64

	DefaultInsulationCostPerSqm float64
}

// DefaultConstants returns the 2024 Belgian reference table.
// HDD are annual averages at base 18C.
func DefaultConstants() Constants {
	return Constants{
		HeatingDegreeDays: map[Region]float64{
			RegionFlanders: 2800,
			RegionWallonia: 3000,
			RegionBrussels: 2850,
		},
		CO2Intensity: map[HeatingSource]float64{
			HeatingGas:      0.201,
			HeatingOil:      0.264,
			HeatingElectric: 0.166,
			HeatingHeatPump: 0.055,
		},
		EnergyPrices: map[Region]float64{
			RegionFlanders: 0.35,
			RegionWallonia: 0.33,
			RegionBrussels: 0.34,
		},
		DefaultInsulationCostPerSqm: 45.0,
	}
}

// HeatingDegreeDaysFor returns the HDD of a region.
func (c Constants) HeatingDegreeDaysFor(r Region) (float64, error) {
	hdd, ok := c.HeatingDegreeDays[r]
	if !ok || hdd <= 0 {
		return 0, &LookupError{Table: "heating_degree_days", Key: string(r)}
	}
	return hdd, nil
}

// CO2IntensityFor returns the kg CO2 per kWh of a heating source.
func (c Constants) CO2IntensityFor(h HeatingSource) (float64, error) {
	f, ok := c.CO2Intensity[h]
	if !ok || f <= 0 {
		return 0, &LookupError{Table: "co2_intensity", Key: string(h)}
	}
	return f, nil
}

// Validate checks that every enumerated region and heating source has a
// positive constant. Run it once when the table is loaded; after that the
// per-call lookups in FullCalculation cannot fail.
func (c Constants) Validate() error {
	var errs []error
	for _, r := range Regions() {
		if _, err := c.HeatingDegreeDaysFor(r); err != nil {
			errs = append(errs, err)
		}
		if p, ok := c.EnergyPrices[r]; !ok || p <= 0 {
			errs = append(errs, &LookupError{Table: "energy_prices", Key: string(r)})
		}
	}
	for _, h := range HeatingSources() {
		if _, err := c.CO2IntensityFor(h); err != nil {
			errs = append(errs, err)
		}
	}
	if c.DefaultInsulationCostPerSqm <= 0 {
		errs = append(errs, &LookupError{Table: "default_insulation_cost_per_sqm", Key: "default"})
	}
	return errors.Join(errs...)
}
