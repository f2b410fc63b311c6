package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/warp/insulation-engine/engine"
	"github.com/warp/insulation-engine/materials"
	"github.com/warp/insulation-engine/report"
	"github.com/warp/insulation-engine/store/sqlite"
)

// newConstantsCmd groups the commands that edit the SQLite constants store.
// Every subcommand needs --db (or DB_PATH); a running server picks the
// change up on its next request.
func newConstantsCmd(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "constants",
		Short: "Edit the constants store (requires --db)",
		Example: `  insulcalc constants set-region Vlaams --hdd 2900 --db ./data/insulation.db
  insulcalc constants set-co2 heat_pump 0.05 --db ./data/insulation.db
  insulcalc constants set-cost 48.50 --db ./data/insulation.db
  insulcalc constants set-material glass_wool --cost 19 --db ./data/insulation.db`,
	}
	cmd.AddCommand(
		newSetRegionCmd(s),
		newSetCO2Cmd(s),
		newSetCostCmd(s),
		newSetMaterialCmd(s),
	)
	return cmd
}

// withStore opens the configured store, runs fn and closes the store.
func withStore(cmd *cobra.Command, s *settings, fn func(*sqlite.Store) error) error {
	store, err := openStore(cmd.Context(), s.cfg, s.log)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newSetRegionCmd(s *settings) *cobra.Command {
	var hdd, price float64
	cmd := &cobra.Command{
		Use:   "set-region REGION",
		Short: "Set a region's heating degree days and default energy price",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			region, err := engine.ParseRegion(args[0])
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if !f.Changed("hdd") && !f.Changed("price") {
				return fmt.Errorf("nothing to update: pass --hdd and/or --price")
			}

			return withStore(cmd, s, func(store *sqlite.Store) error {
				ctx := cmd.Context()
				c, err := store.Constants(ctx)
				if err != nil {
					return err
				}
				if !f.Changed("hdd") {
					hdd = c.HeatingDegreeDays[region]
				}
				if !f.Changed("price") {
					price = c.EnergyPrices[region]
				}
				if err := store.SaveRegion(ctx, region, hdd, price); err != nil {
					return err
				}
				s.log.Info().Str("region", region.String()).Float64("hdd", hdd).Float64("price", price).Msg("region updated")
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s heating degree days, €%.3f/kWh\n",
					region, report.FormatFloat(hdd, 0), price)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&hdd, "hdd", 0, "heating degree days (K.days/year)")
	cmd.Flags().Float64Var(&price, "price", 0, "default energy price in EUR/kWh")
	return cmd
}

func newSetCO2Cmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "set-co2 HEATING_SOURCE KG_PER_KWH",
		Short: "Set a heating source's CO2 intensity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := engine.ParseHeatingSource(args[0])
			if err != nil {
				return err
			}
			v, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid CO2 intensity %q: %w", args[1], err)
			}
			if !v.IsPositive() {
				return fmt.Errorf("CO2 intensity must be greater than 0, got %s", v)
			}

			return withStore(cmd, s, func(store *sqlite.Store) error {
				if err := store.SaveHeatingSource(cmd.Context(), h, v.InexactFloat64()); err != nil {
					return err
				}
				s.log.Info().Str("heating_source", h.String()).Str("co2_intensity", v.String()).Msg("heating source updated")
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s kg CO₂/kWh\n", h.Label(), v)
				return nil
			})
		},
	}
}

func newSetCostCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "set-cost EUR_PER_M2",
		Short: "Set the default insulation cost per m2",
		Long: `Sets the cost per m2 used when a calculation names neither a quoted cost
nor a catalog material.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid cost %q: %w", args[0], err)
			}
			if !v.IsPositive() {
				return fmt.Errorf("cost must be greater than 0, got %s", v)
			}

			return withStore(cmd, s, func(store *sqlite.Store) error {
				if err := store.SetDefaultCostPerSqm(cmd.Context(), v); err != nil {
					return err
				}
				s.log.Info().Str("cost_per_sqm", v.String()).Msg("default cost updated")
				fmt.Fprintf(cmd.OutOrStdout(), "Updated default insulation cost: %s/m²\n",
					report.FormatCurrency(v.InexactFloat64()))
				return nil
			})
		},
	}
}

func newSetMaterialCmd(s *settings) *cobra.Command {
	var m materials.Material
	var position int

	cmd := &cobra.Command{
		Use:   "set-material ID",
		Short: "Add a catalog material or update an existing one",
		Long: `Updates the flags given on an existing material, or adds a new one. A new
material needs --name, --cost and --r-per-cm; its target R-value defaults
to 6 and it is appended to the catalog unless --position is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			return withStore(cmd, s, func(store *sqlite.Store) error {
				ctx := cmd.Context()
				existing, err := store.Materials(ctx)
				if err != nil {
					return err
				}

				out := materials.Material{ID: args[0], TargetRValue: materials.TargetRValue}
				pos := len(existing)
				for i, e := range existing {
					if e.ID == args[0] {
						out, pos = e, i
						break
					}
				}

				if f.Changed("name") {
					out.Name = m.Name
				}
				if f.Changed("category") {
					out.Category = m.Category
				}
				if f.Changed("cost") {
					out.CostPerSqm = m.CostPerSqm
				}
				if f.Changed("r-per-cm") {
					out.RValuePerCm = m.RValuePerCm
				}
				if f.Changed("target-r") {
					out.TargetRValue = m.TargetRValue
				}
				if f.Changed("description") {
					out.Description = m.Description
				}
				if f.Changed("benefit") {
					out.Benefits = m.Benefits
				}
				if f.Changed("position") {
					pos = position
				}

				if err := store.SaveMaterial(ctx, pos, out); err != nil {
					return err
				}
				s.log.Info().Str("material", out.ID).Int("position", pos).Msg("material saved")
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s): %s/m², %s cm for R %s\n",
					out.ID, out.Name, report.FormatCurrency(out.CostPerSqm),
					report.FormatFloat(out.Thickness(), 1), report.FormatFloat(out.TargetRValue, 1))
				return nil
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&m.Name, "name", "", "display name")
	fl.StringVar(&m.Category, "category", "", "category, e.g. mineral, synthetic, natural")
	fl.Float64Var(&m.CostPerSqm, "cost", 0, "installed cost in EUR/m2")
	fl.Float64Var(&m.RValuePerCm, "r-per-cm", 0, "thermal resistance per cm of thickness")
	fl.Float64Var(&m.TargetRValue, "target-r", materials.TargetRValue, "R-value the thickness is sized for")
	fl.StringVar(&m.Description, "description", "", "short description")
	fl.StringArrayVar(&m.Benefits, "benefit", nil, "benefit line (repeatable)")
	fl.IntVar(&position, "position", 0, "catalog position (0 = first)")
	return cmd
}
