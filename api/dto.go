/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. The calculation
  result itself is engine.Result, which already carries the snake_case
  wire names clients depend on; everything else lives here.

NAMING CONVENTION:
  - *DTO: Response items returned to clients
  - *Request: Request body types from clients
  - *Response: Top-level response wrappers

REQUIRED FIELDS:
  Numeric request fields are pointers so that an absent field can be told
  apart from an explicit zero. Validation lives in validation.go.

SEE ALSO:
  - handlers.go:   Uses these types
  - validation.go: CalculationRequest validation
*/
package api

import (
	"github.com/warp/insulation-engine/materials"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CalculationRequest is the body of POST /calculate/savings and
// POST /calculate/pdf.
type CalculationRequest struct {
	Location          string   `json:"location"`
	RoofArea          *float64 `json:"roof_area"`
	CurrentRValue     *float64 `json:"current_r_value"`
	ProposedRValue    *float64 `json:"proposed_r_value"`
	HeatingSource     string   `json:"heating_source"`
	EnergyPricePerKwh *float64 `json:"energy_price_per_kwh"`

	// InsulationUpgradeCost wins over MaterialID when both are given.
	InsulationUpgradeCost *float64 `json:"insulation_upgrade_cost,omitempty"`

	// MaterialID prices the upgrade from the catalog when no cost is given.
	MaterialID string `json:"material_id,omitempty"`
	RoofType   string `json:"roof_type,omitempty"` // flat | pitched
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// RootResponse describes the API.
type RootResponse struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// RegionDTO is one region with its published defaults.
type RegionDTO struct {
	Name               string  `json:"name"`
	DefaultEnergyPrice float64 `json:"default_energy_price"`
	HeatingDegreeDays  float64 `json:"heating_degree_days"`
}

// HeatingSourceDTO is one selectable heating source.
type HeatingSourceDTO struct {
	Value        string  `json:"value"`
	Label        string  `json:"label"`
	CO2Intensity float64 `json:"co2_intensity"`
}

// RegionsResponse is returned by GET /config/regions.
type RegionsResponse struct {
	Regions        []RegionDTO        `json:"regions"`
	HeatingSources []HeatingSourceDTO `json:"heating_sources"`
}

// MaterialDTO is a catalog entry with its derived thickness.
type MaterialDTO struct {
	materials.Material
	ThicknessCm float64 `json:"thickness_cm"`
}

// MaterialsResponse is returned by GET /config/materials.
type MaterialsResponse struct {
	Materials []MaterialDTO `json:"materials"`
	RoofTypes []RoofTypeDTO `json:"roof_types"`
}

// RoofTypeDTO describes how a roof type scales the insulated surface.
type RoofTypeDTO struct {
	Value             string  `json:"value"`
	SurfaceMultiplier float64 `json:"surface_multiplier"`
}

// StatusResponse is returned by the health endpoints.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every error.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
