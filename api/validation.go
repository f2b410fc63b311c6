package api

import (
	"fmt"
	"math"
	"strings"

	"github.com/warp/insulation-engine/engine"
	"github.com/warp/insulation-engine/materials"
)

// Request limits.
const (
	maxRoofArea    = 10000.0
	maxRValue      = 20.0
	maxEnergyPrice = 2.0
)

// FieldError is one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every problem with a request. It unwraps to
// engine.ErrInvalidInput so callers treat it as a client fault.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return engine.ErrInvalidInput
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// ToInput validates the request and converts it into engine input.
// When no upgrade cost is given but a material is, the cost is priced from
// the catalog.
func (req CalculationRequest) ToInput(catalog *materials.Catalog) (engine.Input, error) {
	verr := &ValidationError{}
	var in engine.Input

	if req.Location == "" {
		verr.add("location", "field required")
	} else if r, err := engine.ParseRegion(req.Location); err != nil {
		verr.add("location", "must be one of %s", joinValues(engine.Regions()))
	} else {
		in.Location = r
	}

	if req.HeatingSource == "" {
		verr.add("heating_source", "field required")
	} else if h, err := engine.ParseHeatingSource(req.HeatingSource); err != nil {
		verr.add("heating_source", "must be one of %s", joinValues(engine.HeatingSources()))
	} else {
		in.HeatingSource = h
	}

	checkRange(verr, "roof_area", req.RoofArea, &in.RoofArea, false, maxRoofArea)
	checkRange(verr, "current_r_value", req.CurrentRValue, &in.CurrentRValue, true, maxRValue)
	checkRange(verr, "proposed_r_value", req.ProposedRValue, &in.ProposedRValue, false, maxRValue)
	checkRange(verr, "energy_price_per_kwh", req.EnergyPricePerKwh, &in.EnergyPricePerKwh, false, maxEnergyPrice)

	if req.CurrentRValue != nil && req.ProposedRValue != nil && *req.ProposedRValue <= *req.CurrentRValue {
		verr.add("proposed_r_value", "Proposed R-value must be greater than current R-value")
	}

	roofType, err := materials.ParseRoofType(req.RoofType)
	if err != nil {
		verr.add("roof_type", "must be flat or pitched")
	}

	switch {
	case req.InsulationUpgradeCost != nil:
		c := *req.InsulationUpgradeCost
		if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
			verr.add("insulation_upgrade_cost", "must be greater than or equal to 0")
		} else {
			in.InsulationUpgradeCost = &c
		}
	case req.MaterialID != "":
		m, err := catalog.Get(req.MaterialID)
		if err != nil {
			verr.add("material_id", "unknown material %q", req.MaterialID)
		} else if req.RoofArea != nil {
			cost := m.EstimateCost(*req.RoofArea, roofType).TotalCost
			in.InsulationUpgradeCost = &cost
		}
	}

	if len(verr.Fields) > 0 {
		return engine.Input{}, verr
	}
	return in, nil
}

// checkRange validates lo < v <= hi (or lo <= v <= hi when inclusive) with lo = 0.
func checkRange(verr *ValidationError, field string, v *float64, dst *float64, inclusive bool, hi float64) {
	if v == nil {
		verr.add(field, "field required")
		return
	}
	x := *v
	switch {
	case math.IsNaN(x) || math.IsInf(x, 0):
		verr.add(field, "must be a finite number")
	case inclusive && x < 0:
		verr.add(field, "must be greater than or equal to 0")
	case !inclusive && x <= 0:
		verr.add(field, "must be greater than 0")
	case x > hi:
		verr.add(field, "must be less than or equal to %g", hi)
	default:
		*dst = x
	}
}

func joinValues[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
