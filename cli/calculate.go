package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/insulation-engine/api"
	"github.com/warp/insulation-engine/engine"
	"github.com/warp/insulation-engine/materials"
	"github.com/warp/insulation-engine/report"
)

type calculateOptions struct {
	location      string
	roofArea      float64
	currentR      float64
	proposedR     float64
	heatingSource string
	energyPrice   float64
	upgradeCost   float64
	materialID    string
	roofType      string

	asJSON  bool
	pdfPath string
}

func newCalculateCmd(s *settings) *cobra.Command {
	opts := &calculateOptions{}
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate the savings of a roof insulation upgrade",
		Long: `Runs the full calculation for one roof and prints the report.

When --price is omitted the region's default energy price is used. When
--cost is omitted the upgrade is priced from --material, or from the
default cost per m2 when no material is given either.`,
		Example: `  # 100 m2 Flemish roof from R 2 to R 6, heated with gas
  insulcalc calculate --location Vlaams --area 100 --current-r 2 --proposed-r 6 --heating gas

  # Price the upgrade with PIR boards on a pitched roof and keep a PDF
  insulcalc calculate --location Waals --area 80 --current-r 1.5 --proposed-r 6 \
    --heating oil --material pir_pur_foam --roof-type pitched --pdf report.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCalculate(cmd, s, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.location, "location", "", "region: Vlaams, Waals or Brussels-Hoofdstedelijk")
	f.Float64Var(&opts.roofArea, "area", 0, "roof area in m2")
	f.Float64Var(&opts.currentR, "current-r", 0, "current thermal resistance in m2.K/W")
	f.Float64Var(&opts.proposedR, "proposed-r", 0, "proposed thermal resistance in m2.K/W")
	f.StringVar(&opts.heatingSource, "heating", "", "heating source: gas, oil, electric or heat_pump")
	f.Float64Var(&opts.energyPrice, "price", 0, "energy price in EUR/kWh (default: the region's price)")
	f.Float64Var(&opts.upgradeCost, "cost", 0, "quoted upgrade cost in EUR")
	f.StringVar(&opts.materialID, "material", "", "price the upgrade from this catalog material")
	f.StringVar(&opts.roofType, "roof-type", "", "flat or pitched (default flat)")
	f.BoolVar(&opts.asJSON, "json", false, "print the result record as JSON")
	f.StringVar(&opts.pdfPath, "pdf", "", "also write the PDF report to this file")

	return cmd
}

func runCalculate(cmd *cobra.Command, s *settings, opts *calculateOptions) error {
	ctx := cmd.Context()
	src, closeSource, err := openSource(ctx, s.cfg, s.log)
	if err != nil {
		return err
	}
	defer closeSource()

	constants, err := src.Constants(ctx)
	if err != nil {
		return err
	}
	mats, err := src.Materials(ctx)
	if err != nil {
		return err
	}
	catalog, err := materials.NewCatalog(mats)
	if err != nil {
		return err
	}

	req := opts.request(cmd, constants)
	in, err := req.ToInput(catalog)
	if err != nil {
		return err
	}
	res, err := engine.FullCalculation(in, constants)
	if err != nil {
		return err
	}
	s.log.Debug().
		Str("location", res.Location.String()).
		Float64("annual_energy_savings", res.AnnualEnergySavings).
		Msg("calculation complete")

	out := cmd.OutOrStdout()
	var doc report.Document
	if opts.pdfPath != "" || !opts.asJSON {
		// Both encoders share this document so the PDF and the text report
		// carry the same reference and timestamp.
		doc, err = report.NewRenderer().Build(res)
		if err != nil {
			return err
		}
	}
	if opts.pdfPath != "" {
		if err := writePDF(opts.pdfPath, doc); err != nil {
			return err
		}
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Fprint(out, report.EncodeText(doc))
	if opts.pdfPath != "" {
		fmt.Fprintf(out, "PDF report written to %s\n", opts.pdfPath)
	}
	return nil
}

// request mirrors the HTTP body so the CLI goes through the same
// validation. Flags the user did not set stay nil.
func (o *calculateOptions) request(cmd *cobra.Command, c engine.Constants) api.CalculationRequest {
	f := cmd.Flags()
	set := func(name string, v float64) *float64 {
		if !f.Changed(name) {
			return nil
		}
		return &v
	}

	req := api.CalculationRequest{
		Location:              o.location,
		RoofArea:              set("area", o.roofArea),
		CurrentRValue:         set("current-r", o.currentR),
		ProposedRValue:        set("proposed-r", o.proposedR),
		HeatingSource:         o.heatingSource,
		EnergyPricePerKwh:     set("price", o.energyPrice),
		InsulationUpgradeCost: set("cost", o.upgradeCost),
		MaterialID:            o.materialID,
		RoofType:              o.roofType,
	}
	if req.EnergyPricePerKwh == nil {
		if r, err := engine.ParseRegion(o.location); err == nil {
			if p, ok := c.EnergyPrices[r]; ok {
				req.EnergyPricePerKwh = &p
			}
		}
	}
	return req
}

func writePDF(path string, doc report.Document) error {
	pdf, err := report.EncodePDF(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
