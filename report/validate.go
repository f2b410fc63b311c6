package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/warp/insulation-engine/engine"
)

// ErrMalformedResult means the record handed to the renderer does not have
// the shape the engine produces. It is a contract violation, not a user
// error.
var ErrMalformedResult = errors.New("malformed calculation result")

// MalformedResultError lists the fields that were missing or unusable.
type MalformedResultError struct {
	Fields []string
	Reason string
}

func (e *MalformedResultError) Error() string {
	msg := ErrMalformedResult.Error()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if len(e.Fields) > 0 {
		msg += ": missing " + strings.Join(e.Fields, ", ")
	}
	return msg
}

func (e *MalformedResultError) Unwrap() error {
	return ErrMalformedResult
}

// resultKeys are the JSON keys of engine.Result, in declaration order.
var resultKeys = []string{
	"location",
	"roof_area",
	"current_r_value",
	"proposed_r_value",
	"heating_source",
	"energy_price_per_kwh",
	"current_u_value",
	"proposed_u_value",
	"annual_heat_loss_current",
	"annual_heat_loss_proposed",
	"annual_energy_savings",
	"annual_cost_savings",
	"insulation_upgrade_cost",
	"payback_period",
	"ten_year_total_savings",
	"annual_co2_reduction",
	"ten_year_co2_reduction",
	"heating_degree_days",
	"co2_intensity_factor",
}

// Validate checks the fields the renderer cannot do without. A zero value
// in these fields can only come from a record that was never filled in by
// the engine.
func Validate(r engine.Result) error {
	var missing []string
	if r.Location == "" {
		missing = append(missing, "location")
	}
	if r.HeatingSource == "" {
		missing = append(missing, "heating_source")
	}
	if r.CurrentUValue <= 0 {
		missing = append(missing, "current_u_value")
	}
	if r.HeatingDegreeDays <= 0 {
		missing = append(missing, "heating_degree_days")
	}
	if len(missing) > 0 {
		return &MalformedResultError{Fields: missing}
	}
	return nil
}

// DecodeResult reads a flat JSON result record, as returned by the
// savings endpoint. Every key of engine.Result must be present and
// non-null; all absent keys are reported together.
func DecodeResult(r io.Reader) (engine.Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return engine.Result{}, fmt.Errorf("read result: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return engine.Result{}, &MalformedResultError{Reason: err.Error()}
	}

	var missing []string
	for _, k := range resultKeys {
		v, ok := raw[k]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return engine.Result{}, &MalformedResultError{Fields: missing}
	}

	var res engine.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return engine.Result{}, &MalformedResultError{Reason: err.Error()}
	}
	if err := Validate(res); err != nil {
		return engine.Result{}, err
	}
	return res, nil
}
