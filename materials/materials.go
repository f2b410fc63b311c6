/*
Package materials is the catalog of insulation products offered to users.

PURPOSE:
  When a user picks a product instead of entering a quote, the catalog
  prices the job: surface area (adjusted for roof pitch) times the
  product's price per m2. The resulting cost is handed to the engine as an
  explicit upgrade cost, so the engine itself never knows about products.

PRESETS:
  glass_wool    Budget          17.50 EUR/m2   0.035 m2.K/W per cm
  pir_pur_foam  Mid-Range       35.00 EUR/m2   0.028 m2.K/W per cm
  wood_fiber    Premium Eco     55.00 EUR/m2   0.038 m2.K/W per cm
  eps_graphite  Mid-Range Plus  28.00 EUR/m2   0.032 m2.K/W per cm

  All presets target R = 6.0, the Belgian EPB 2023 requirement for new
  roofs.

SEE ALSO:
  - api/handlers.go:    resolves upgrade cost from a material
  - store/sqlite:       persists the catalog
*/
package materials

import (
	"errors"
	"fmt"
)

// TargetRValue is the EPB 2023 roof requirement in m2.K/W.
const TargetRValue = 6.0

// PitchedRoofMultiplier converts a pitched roof's floor area to its
// insulated surface.
const PitchedRoofMultiplier = 1.25

// ErrUnknownMaterial is returned when a material id is not in the catalog.
var ErrUnknownMaterial = errors.New("unknown insulation material")

// =============================================================================
// ROOF TYPE
// =============================================================================

type RoofType string

const (
	RoofFlat    RoofType = "flat"
	RoofPitched RoofType = "pitched"
)

// ParseRoofType accepts "flat" or "pitched". An empty string means flat.
func ParseRoofType(s string) (RoofType, error) {
	switch RoofType(s) {
	case "", RoofFlat:
		return RoofFlat, nil
	case RoofPitched:
		return RoofPitched, nil
	default:
		return "", fmt.Errorf("unknown roof type %q", s)
	}
}

// SurfaceMultiplier is the ratio of insulated surface to floor area.
func (rt RoofType) SurfaceMultiplier() float64 {
	if rt == RoofPitched {
		return PitchedRoofMultiplier
	}
	return 1.0
}

// =============================================================================
// MATERIAL
// =============================================================================

// Material is one insulation product.
type Material struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Category     string   `json:"category" yaml:"category"`
	CostPerSqm   float64  `json:"cost_per_m2" yaml:"cost_per_m2"`
	RValuePerCm  float64  `json:"r_value_per_cm" yaml:"r_value_per_cm"`
	TargetRValue float64  `json:"target_r_value" yaml:"target_r_value"`
	Description  string   `json:"description" yaml:"description"`
	Benefits     []string `json:"benefits" yaml:"benefits"`
}

// Thickness returns the centimetres needed to reach the target R-value.
func (m Material) Thickness() float64 {
	if m.RValuePerCm <= 0 {
		return 0
	}
	return m.TargetRValue / m.RValuePerCm
}

// Estimate is a priced job for one material and roof.
type Estimate struct {
	SurfaceArea float64 `json:"surface_area"`
	TotalCost   float64 `json:"total_cost"`
}

// EstimateCost prices an installation over the roof's insulated surface.
func (m Material) EstimateCost(roofArea float64, rt RoofType) Estimate {
	surface := roofArea * rt.SurfaceMultiplier()
	return Estimate{SurfaceArea: surface, TotalCost: surface * m.CostPerSqm}
}

// Validate rejects materials that cannot be priced.
func (m Material) Validate() error {
	switch {
	case m.ID == "":
		return errors.New("material id is required")
	case m.CostPerSqm <= 0:
		return fmt.Errorf("material %s: cost_per_m2 must be positive", m.ID)
	case m.RValuePerCm <= 0:
		return fmt.Errorf("material %s: r_value_per_cm must be positive", m.ID)
	case m.TargetRValue <= 0:
		return fmt.Errorf("material %s: target_r_value must be positive", m.ID)
	}
	return nil
}

// =============================================================================
// CATALOG
// =============================================================================

// Catalog is an ordered, read-only set of materials.
type Catalog struct {
	items []Material
	byID  map[string]int
}

// NewCatalog validates the materials and indexes them by id.
func NewCatalog(items []Material) (*Catalog, error) {
	c := &Catalog{
		items: make([]Material, 0, len(items)),
		byID:  make(map[string]int, len(items)),
	}
	for _, m := range items {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate material id %q", m.ID)
		}
		c.byID[m.ID] = len(c.items)
		c.items = append(c.items, m)
	}
	return c, nil
}

// Get returns the material with the given id.
func (c *Catalog) Get(id string) (Material, error) {
	i, ok := c.byID[id]
	if !ok {
		return Material{}, fmt.Errorf("%w: %s", ErrUnknownMaterial, id)
	}
	return c.items[i], nil
}

// All returns a copy of the catalog in its original order.
func (c *Catalog) All() []Material {
	out := make([]Material, len(c.items))
	copy(out, c.items)
	return out
}

// Defaults returns the Belgian market presets.
func Defaults() []Material {
	return []Material{
		{
			ID:           "glass_wool",
			Name:         "Glass Wool / Mineral Wool",
			Category:     "Budget",
			CostPerSqm:   17.5,
			RValuePerCm:  0.035,
			TargetRValue: TargetRValue,
			Description:  "Cost-effective traditional insulation. Good thermal performance.",
			Benefits:     []string{"Most affordable option", "Easy to install", "Fire resistant", "Good sound insulation"},
		},
		{
			ID:           "pir_pur_foam",
			Name:         "PIR/PUR Foam Boards",
			Category:     "Mid-Range",
			CostPerSqm:   35,
			RValuePerCm:  0.028,
			TargetRValue: TargetRValue,
			Description:  "Excellent thermal performance with thin profile. Popular choice.",
			Benefits:     []string{"High R-value per cm", "Moisture resistant", "Thin profile saves space", "Long lifespan"},
		},
		{
			ID:           "wood_fiber",
			Name:         "Wood Fiber Boards",
			Category:     "Premium Eco",
			CostPerSqm:   55,
			RValuePerCm:  0.038,
			TargetRValue: TargetRValue,
			Description:  "Sustainable ecological insulation. Excellent moisture regulation.",
			Benefits:     []string{"Eco-friendly & sustainable", "Breathable material", "Summer heat protection", "Carbon negative"},
		},
		{
			ID:           "eps_graphite",
			Name:         "EPS Graphite",
			Category:     "Mid-Range Plus",
			CostPerSqm:   28,
			RValuePerCm:  0.032,
			TargetRValue: TargetRValue,
			Description:  "Enhanced EPS with graphite for better insulation. Great value.",
			Benefits:     []string{"Good price-performance", "Lightweight", "Easy to cut and fit", "Water resistant"},
		},
	}
}
