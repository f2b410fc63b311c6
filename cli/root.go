/*
Package cli holds the cobra commands behind cmd/insulcalc and cmd/server.

COMMANDS:
  insulcalc calculate   Run one calculation (text, --json, --pdf FILE)
  insulcalc regions     Regions and heating sources with their constants
  insulcalc materials   The insulation material catalog
  insulcalc constants   Edit the SQLite constants store (set-region,
                        set-co2, set-cost, set-material)
  server                The HTTP API

SHARED FLAGS:
  --config     YAML config file (see config.Load)
  --db         SQLite constants store; overrides store.path
  --log-level  zerolog level; overrides logging.level

SEE ALSO:
  - config/config.go: Defaults, YAML and environment layering
  - api/server.go:    Router served by the server command
*/
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/warp/insulation-engine/config"
	"github.com/warp/insulation-engine/observability"
)

// settings are the flags shared by every command plus what they resolve to.
type settings struct {
	configPath string
	dbPath     string
	logLevel   string

	cfg *config.Config
	log zerolog.Logger
}

func (s *settings) bind(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&s.configPath, "config", "", "path to a YAML config file")
	f.StringVar(&s.dbPath, "db", "", "SQLite constants store (\":memory:\" for a throwaway one)")
	f.StringVar(&s.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
}

// load resolves the configuration. Flags win over the environment, which
// wins over the file.
func (s *settings) load(cmd *cobra.Command) error {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return err
	}
	if s.dbPath != "" {
		cfg.Store.Path = s.dbPath
	}
	if s.logLevel != "" {
		cfg.Logging.Level = s.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.cfg = cfg
	s.log = observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	return nil
}

// NewRootCmd creates the insulcalc command tree.
func NewRootCmd() *cobra.Command {
	s := &settings{}
	cmd := &cobra.Command{
		Use:   "insulcalc",
		Short: "Belgian roof insulation savings calculator",
		Long: `Estimates heat loss, energy and cost savings, payback period and CO2
reduction of a roof insulation upgrade in Flanders, Wallonia or Brussels.`,
		Version:       config.Defaults().App.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.load(cmd)
		},
	}
	s.bind(cmd)

	cmd.AddCommand(
		newCalculateCmd(s),
		newRegionsCmd(s),
		newMaterialsCmd(s),
		newConstantsCmd(s),
	)
	return cmd
}
