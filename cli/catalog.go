package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/warp/insulation-engine/engine"
	"github.com/warp/insulation-engine/materials"
	"github.com/warp/insulation-engine/report"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

func newRegionsCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List regions and heating sources with their constants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			src, closeSource, err := openSource(ctx, s.cfg, s.log)
			if err != nil {
				return err
			}
			defer closeSource()

			c, err := src.Constants(ctx)
			if err != nil {
				return err
			}

			regions := make([][]string, 0, len(engine.Regions()))
			for _, r := range engine.Regions() {
				regions = append(regions, []string{
					r.String(),
					report.FormatFloat(c.HeatingDegreeDays[r], 0),
					fmt.Sprintf("€%.3f/kWh", c.EnergyPrices[r]),
				})
			}
			sources := make([][]string, 0, len(engine.HeatingSources()))
			for _, h := range engine.HeatingSources() {
				sources = append(sources, []string{
					h.String(),
					h.Label(),
					fmt.Sprintf("%.3f", c.CO2Intensity[h]),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, headingStyle.Render("Regions"))
			fmt.Fprintln(out, listTable([]string{"Region", "Heating Degree Days", "Default Price"}, regions))
			fmt.Fprintln(out, headingStyle.Render("Heating Sources"))
			fmt.Fprintln(out, listTable([]string{"Value", "Label", "kg CO₂/kWh"}, sources))
			return nil
		},
	}
}

func newMaterialsCmd(s *settings) *cobra.Command {
	var area float64
	var roofType string

	cmd := &cobra.Command{
		Use:   "materials",
		Short: "List the insulation material catalog",
		Long: `Lists every catalog material with its price, thermal resistance per cm and
the thickness needed to reach its target R-value. With --area the cost of
insulating that roof is estimated for each material.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := materials.ParseRoofType(roofType)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			src, closeSource, err := openSource(ctx, s.cfg, s.log)
			if err != nil {
				return err
			}
			defer closeSource()

			mats, err := src.Materials(ctx)
			if err != nil {
				return err
			}

			headers := []string{"ID", "Name", "Cost/m²", "R/cm", "Thickness"}
			if area > 0 {
				headers = append(headers, "Estimated Cost")
			}
			rows := make([][]string, 0, len(mats))
			for _, m := range mats {
				row := []string{
					m.ID,
					m.Name,
					report.FormatCurrency(m.CostPerSqm),
					fmt.Sprintf("%.3f", m.RValuePerCm),
					report.FormatFloat(m.Thickness(), 1) + " cm",
				}
				if area > 0 {
					row = append(row, report.FormatCurrency(m.EstimateCost(area, rt).TotalCost))
				}
				rows = append(rows, row)
			}

			fmt.Fprintln(cmd.OutOrStdout(), listTable(headers, rows))
			return nil
		},
	}

	cmd.Flags().Float64Var(&area, "area", 0, "roof area in m2 to estimate costs for")
	cmd.Flags().StringVar(&roofType, "roof-type", "", "flat or pitched (default flat)")
	return cmd
}

func listTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return cellStyle.Bold(true)
			}
			return cellStyle
		}).
		Render()
}
