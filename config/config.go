/*
Package config loads the service settings and the regional constant tables.

PURPOSE:
  One Config value is built at startup and passed explicitly to everything
  that needs it. There is no package-level settings object.

LOAD ORDER (later wins):
  1. Defaults()
  2. YAML file, when a path is given. Constant tables merge key by key;
     lists (cors_origins, materials) replace the default list.
  3. Environment variables:
       HTTP_ADDR, LOG_LEVEL, LOG_FORMAT, CORS_ORIGINS (comma-separated),
       DB_PATH, SHUTDOWN_TIMEOUT, DEFAULT_INSULATION_COST_PER_SQM
  4. Validate()

SEE ALSO:
  - engine/constants.go: The constants table this package fills in
  - materials:           The catalog this package fills in
*/
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/warp/insulation-engine/engine"
	"github.com/warp/insulation-engine/materials"
)

// =============================================================================
// CONFIG TYPES
// =============================================================================

// Config holds every setting of the service and CLI.
type Config struct {
	App         AppConfig            `yaml:"app"`
	HTTP        HTTPConfig           `yaml:"http"`
	Logging     LoggingConfig        `yaml:"logging"`
	Store       StoreConfig          `yaml:"store"`
	Calculation CalculationConfig    `yaml:"calculation"`
	Materials   []materials.Material `yaml:"materials"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
}

// StoreConfig points at an optional SQLite constants store. An empty path
// means the tables in this config are used directly.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// CalculationConfig is the YAML form of engine.Constants, keyed by the
// external region and heating source identifiers.
type CalculationConfig struct {
	HeatingDegreeDays           map[string]float64 `yaml:"heating_degree_days"`
	CO2Intensity                map[string]float64 `yaml:"co2_intensity"`
	EnergyPrices                map[string]float64 `yaml:"energy_prices"`
	DefaultInsulationCostPerSqm float64            `yaml:"default_insulation_cost_per_sqm"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Defaults returns the Belgian settings the service ships with.
func Defaults() *Config {
	c := engine.DefaultConstants()
	calc := CalculationConfig{
		HeatingDegreeDays:           make(map[string]float64, len(c.HeatingDegreeDays)),
		CO2Intensity:                make(map[string]float64, len(c.CO2Intensity)),
		EnergyPrices:                make(map[string]float64, len(c.EnergyPrices)),
		DefaultInsulationCostPerSqm: c.DefaultInsulationCostPerSqm,
	}
	for r, v := range c.HeatingDegreeDays {
		calc.HeatingDegreeDays[string(r)] = v
	}
	for h, v := range c.CO2Intensity {
		calc.CO2Intensity[string(h)] = v
	}
	for r, v := range c.EnergyPrices {
		calc.EnergyPrices[string(r)] = v
	}

	return &Config{
		App: AppConfig{
			Name:    "Belgian Roof Insulation Calculator API",
			Version: "1.0.0",
		},
		HTTP: HTTPConfig{
			Addr:            ":8000",
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Calculation: calc,
		Materials:   materials.Defaults(),
	}
}

// =============================================================================
// LOAD
// =============================================================================

// Load builds the configuration from defaults, an optional YAML file and
// the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.HTTP.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q: %w", v, err)
		}
		c.HTTP.ShutdownTimeout = d
	}
	if v := os.Getenv("DEFAULT_INSULATION_COST_PER_SQM"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid DEFAULT_INSULATION_COST_PER_SQM %q: %w", v, err)
		}
		c.Calculation.DefaultInsulationCostPerSqm = f
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}
	if _, err := semver.StrictNewVersion(c.App.Version); err != nil {
		errs = append(errs, fmt.Errorf("app.version %q is not a semantic version: %w", c.App.Version, err))
	}

	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	for name, d := range map[string]time.Duration{
		"read_timeout":     c.HTTP.ReadTimeout,
		"write_timeout":    c.HTTP.WriteTimeout,
		"idle_timeout":     c.HTTP.IdleTimeout,
		"shutdown_timeout": c.HTTP.ShutdownTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("http.%s must be positive", name))
		}
	}

	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil || c.Logging.Level == "" {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("invalid log format %q (want console or json)", c.Logging.Format))
	}

	if _, err := c.EngineConstants(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Catalog(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// =============================================================================
// CONVERSIONS
// =============================================================================

// EngineConstants converts the calculation tables into engine.Constants
// and checks that every region and heating source is covered.
func (c *Config) EngineConstants() (engine.Constants, error) {
	out := engine.Constants{
		HeatingDegreeDays:           make(map[engine.Region]float64, len(c.Calculation.HeatingDegreeDays)),
		CO2Intensity:                make(map[engine.HeatingSource]float64, len(c.Calculation.CO2Intensity)),
		EnergyPrices:                make(map[engine.Region]float64, len(c.Calculation.EnergyPrices)),
		DefaultInsulationCostPerSqm: c.Calculation.DefaultInsulationCostPerSqm,
	}

	for k, v := range c.Calculation.HeatingDegreeDays {
		r, err := engine.ParseRegion(k)
		if err != nil {
			return engine.Constants{}, fmt.Errorf("calculation.heating_degree_days: %w", err)
		}
		out.HeatingDegreeDays[r] = v
	}
	for k, v := range c.Calculation.EnergyPrices {
		r, err := engine.ParseRegion(k)
		if err != nil {
			return engine.Constants{}, fmt.Errorf("calculation.energy_prices: %w", err)
		}
		out.EnergyPrices[r] = v
	}
	for k, v := range c.Calculation.CO2Intensity {
		h, err := engine.ParseHeatingSource(k)
		if err != nil {
			return engine.Constants{}, fmt.Errorf("calculation.co2_intensity: %w", err)
		}
		out.CO2Intensity[h] = v
	}

	if err := out.Validate(); err != nil {
		return engine.Constants{}, err
	}
	return out, nil
}

// Catalog builds the material catalog.
func (c *Config) Catalog() (*materials.Catalog, error) {
	return materials.NewCatalog(c.Materials)
}
