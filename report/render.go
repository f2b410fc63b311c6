/*
render.go - Building a Document from an engine.Result

PURPOSE:
  The Renderer owns the two non-deterministic parts of a report: when it
  was generated and its reference number. Both are injectable so tests
  can pin them. Everything else in the document is a pure function of the
  result record.

DERIVED DISPLAY VALUES:
  U-value reduction %  = (current - proposed) / current x 100
  trees planted        = ten-year CO2 reduction / 411
*/
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/oklog/ulid/v2"

	"github.com/warp/insulation-engine/engine"
)

const (
	// Title is the document title.
	Title = "Roof Insulation Savings Analysis"

	// KgCO2PerTree is the average CO2 a tree absorbs over ten years.
	KgCO2PerTree = 411.0

	dateLayout = "January 02, 2006"
)

// Disclaimer is printed at the end of every report.
const Disclaimer = "This report provides estimated savings based on standard calculation " +
	"methods and regional averages. Actual results may vary depending on building characteristics, " +
	"occupancy patterns, climate variations, and other factors. This report is for informational " +
	"purposes only and should not be considered professional advice. Consult with certified " +
	"energy auditors and insulation professionals for specific recommendations."

// =============================================================================
// RENDERER
// =============================================================================

// Renderer builds and encodes reports. The zero value is not usable; use
// NewRenderer. A Renderer is safe for concurrent use.
type Renderer struct {
	clock     clockwork.Clock
	reference func(time.Time) string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock sets the timestamp source.
func WithClock(c clockwork.Clock) Option {
	return func(r *Renderer) { r.clock = c }
}

// WithReference sets the report reference generator.
func WithReference(fn func(time.Time) string) Option {
	return func(r *Renderer) { r.reference = fn }
}

// NewRenderer returns a Renderer using the wall clock and ULID references.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		clock:     clockwork.NewRealClock(),
		reference: newULID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// newULID returns a sortable reference whose prefix encodes t.
func newULID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}

// Render builds the document and encodes it as PDF.
func (rn *Renderer) Render(r engine.Result) ([]byte, error) {
	doc, err := rn.Build(r)
	if err != nil {
		return nil, err
	}
	return EncodePDF(doc)
}

// RenderTo writes the PDF to w.
func (rn *Renderer) RenderTo(w io.Writer, r engine.Result) error {
	b, err := rn.Render(r)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Build projects the result into a document. It fails with
// ErrMalformedResult when the record is missing required fields.
func (rn *Renderer) Build(r engine.Result) (Document, error) {
	if err := Validate(r); err != nil {
		return Document{}, err
	}

	now := rn.clock.Now()
	doc := Document{
		Title:       Title,
		GeneratedAt: now,
		Reference:   rn.reference(now),
	}
	doc.Sections = []Section{
		headerSection(doc),
		inputSummarySection(r),
		technicalSection(r),
		financialSection(r),
		environmentalSection(r),
		methodologySection(r),
		disclaimerSection(),
	}
	return doc, nil
}

// =============================================================================
// SECTIONS
// =============================================================================

func headerSection(doc Document) Section {
	return Section{
		Kind:    SectionHeader,
		Heading: doc.Title,
		Paragraphs: []string{
			"Report Generated: " + doc.GeneratedAt.Format(dateLayout),
			"Reference: " + doc.Reference,
		},
	}
}

func inputSummarySection(r engine.Result) Section {
	return Section{
		Kind:    SectionInputSummary,
		Heading: "Input Summary",
		Table: &Table{
			Columns: []string{"Parameter", "Value"},
			Rows: [][]string{
				{"Location", r.Location.String()},
				{"Roof Area", FormatFloat(r.RoofArea, 2) + " m²"},
				{"Current R-value", FormatFloat(r.CurrentRValue, 2) + " m²·K/W"},
				{"Proposed R-value", FormatFloat(r.ProposedRValue, 2) + " m²·K/W"},
				{"Heating Source", engine.DisplayName(r.HeatingSource.String())},
				{"Energy Price", "€" + FormatFloat(r.EnergyPricePerKwh, 3) + "/kWh"},
			},
		},
	}
}

func technicalSection(r engine.Result) Section {
	reduction := (r.CurrentUValue - r.ProposedUValue) / r.CurrentUValue * 100
	return Section{
		Kind:    SectionTechnical,
		Heading: "Technical Analysis",
		Table: &Table{
			Columns: []string{"Metric", "Current", "Proposed", "Change"},
			Rows: [][]string{
				{
					"U-value (W/m²·K)",
					FormatFloat(r.CurrentUValue, 4),
					FormatFloat(r.ProposedUValue, 4),
					FormatPercent(reduction) + " reduction",
				},
				{
					"Annual Heat Loss (kWh)",
					FormatFloat(r.AnnualHeatLossCurrent, 2),
					FormatFloat(r.AnnualHeatLossProposed, 2),
					FormatFloat(r.AnnualEnergySavings, 2) + " saved",
				},
			},
		},
	}
}

func financialSection(r engine.Result) Section {
	return Section{
		Kind:    SectionFinancial,
		Heading: "Financial Analysis",
		Table: &Table{
			Columns: []string{"Metric", "Value"},
			Rows: [][]string{
				{"Annual Energy Savings", FormatFloat(r.AnnualEnergySavings, 2) + " kWh"},
				{"Annual Cost Savings", FormatCurrency(r.AnnualCostSavings)},
				{"Insulation Upgrade Cost", FormatCurrency(r.InsulationUpgradeCost)},
				{"Payback Period", FormatPayback(r.PaybackPeriod)},
				{"10-Year Total Savings", FormatCurrency(r.TenYearTotalSavings)},
			},
		},
	}
}

// FormatPayback shows the payback in years, or "No payback".
func FormatPayback(p engine.Payback) string {
	years, ok := p.Years()
	if !ok {
		return "No payback"
	}
	return FormatFloat(years, 2) + " years"
}

func environmentalSection(r engine.Result) Section {
	trees := r.TenYearCO2Reduction / KgCO2PerTree
	return Section{
		Kind:    SectionEnvironmental,
		Heading: "Environmental Impact",
		Table: &Table{
			Columns: []string{"Metric", "Value"},
			Rows: [][]string{
				{"Annual CO₂ Reduction", FormatFloat(r.AnnualCO2Reduction, 2) + " kg"},
				{"10-Year CO₂ Reduction", FormatFloat(r.TenYearCO2Reduction, 2) + " kg"},
				{"Equivalent to", FormatFloat(trees, 1) + " trees planted*"},
			},
		},
		Notes: []string{
			fmt.Sprintf("*Based on average CO₂ absorption of %.0f kg per tree over 10 years", KgCO2PerTree),
		},
	}
}

func methodologySection(r engine.Result) Section {
	return Section{
		Kind:    SectionMethodology,
		Heading: "Calculation Methodology",
		Paragraphs: []string{
			"U-value Calculation: U = 1 / R, where R is the thermal resistance.",
			"Heat Loss Calculation: Q = U × A × HDD × 24 / 1000, where:",
			"• Q = annual heat loss (kWh/year)",
			"• U = U-value (W/m²·K)",
			fmt.Sprintf("• A = roof area (%.2f m²)", r.RoofArea),
			fmt.Sprintf("• HDD = heating degree days (%.0f K·days/year)", r.HeatingDegreeDays),
			"Energy Savings: Difference between current and proposed heat loss.",
			fmt.Sprintf("Cost Savings: Energy savings × energy price (€%.3f/kWh)", r.EnergyPricePerKwh),
			fmt.Sprintf("CO₂ Reduction: Energy savings × CO₂ intensity factor (%.3f kg CO₂/kWh for %s)",
				r.CO2IntensityFactor, r.HeatingSource),
			"Payback Period: Insulation upgrade cost ÷ annual cost savings",
		},
	}
}

func disclaimerSection() Section {
	return Section{
		Kind:       SectionDisclaimer,
		Heading:    "Disclaimer",
		Paragraphs: []string{Disclaimer},
	}
}
