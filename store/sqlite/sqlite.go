/*
Package sqlite stores the regional constants and material catalog in SQLite.

PURPOSE:
  The calculation engine reads its constants from an external collaborator.
  When the server is started with a database path, that collaborator is
  this store: operators can tune heating degree days, CO2 factors, prices
  and materials with `insulcalc constants ...` without redeploying. Calculation results are never
  persisted.

KEY TABLES:
  regions:              name, heating_degree_days, default_energy_price
  heating_sources:      id, label, co2_intensity
  insulation_materials: catalog rows, ordered by position
  settings:             key/value pairs (decimal strings for numbers)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Reads take the read lock; Seed and
  the Save* methods take the write lock.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers never block
  on an operator update.

USAGE:
  store, err := sqlite.New("./data/constants.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  seeded, err := store.Seed(ctx, engine.DefaultConstants(), materials.Defaults())
  constants, err := store.Constants(ctx)

  // insulcalc constants set-region Vlaams --hdd 2900 --db ./data/constants.db
  err = store.SaveRegion(ctx, engine.RegionFlanders, 2900, 0.35)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - engine/constants.go: The table this store fills in
  - config:              The file/env alternative when no database is used
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/insulation-engine/engine"
	"github.com/warp/insulation-engine/materials"
)

// SettingDefaultCostPerSqm is the settings key for the fallback cost per m2.
const SettingDefaultCostPerSqm = "default_insulation_cost_per_sqm"

// Store holds the constants tables.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if strings.Contains(dbPath, ":memory:") {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS regions (
		name TEXT PRIMARY KEY,
		heating_degree_days REAL NOT NULL CHECK (heating_degree_days > 0),
		default_energy_price REAL NOT NULL CHECK (default_energy_price > 0)
	);

	CREATE TABLE IF NOT EXISTS heating_sources (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		co2_intensity REAL NOT NULL CHECK (co2_intensity > 0)
	);

	CREATE TABLE IF NOT EXISTS insulation_materials (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		cost_per_m2 REAL NOT NULL CHECK (cost_per_m2 > 0),
		r_value_per_cm REAL NOT NULL CHECK (r_value_per_cm > 0),
		target_r_value REAL NOT NULL CHECK (target_r_value > 0),
		description TEXT NOT NULL DEFAULT '',
		benefits_json TEXT NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_insulation_materials_position
		ON insulation_materials(position);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SEEDING
// =============================================================================

// Seed fills an empty store with the given constants and materials.
// A store that already has regions is left untouched. Returns whether
// anything was written.
func (s *Store) Seed(ctx context.Context, c engine.Constants, mats []materials.Material) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM regions").Scan(&n); err != nil {
		return false, fmt.Errorf("failed to count regions: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, r := range engine.Regions() {
		hdd, hasHDD := c.HeatingDegreeDays[r]
		price, hasPrice := c.EnergyPrices[r]
		if !hasHDD || !hasPrice {
			continue
		}
		if err := saveRegion(ctx, sqlTx, r, hdd, price); err != nil {
			return false, err
		}
	}
	for _, h := range engine.HeatingSources() {
		f, ok := c.CO2Intensity[h]
		if !ok {
			continue
		}
		if err := saveHeatingSource(ctx, sqlTx, h, f); err != nil {
			return false, err
		}
	}
	for i, m := range mats {
		if err := saveMaterial(ctx, sqlTx, i, m); err != nil {
			return false, err
		}
	}
	if err := setSetting(ctx, sqlTx, SettingDefaultCostPerSqm,
		decimal.NewFromFloat(c.DefaultInsulationCostPerSqm).String()); err != nil {
		return false, err
	}

	if err := sqlTx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// =============================================================================
// WRITES
// =============================================================================

// SaveRegion inserts or updates a region's HDD and default energy price.
func (s *Store) SaveRegion(ctx context.Context, r engine.Region, hdd, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveRegion(ctx, s.db, r, hdd, price)
}

// SaveHeatingSource inserts or updates a heating source's CO2 intensity.
func (s *Store) SaveHeatingSource(ctx context.Context, h engine.HeatingSource, co2 float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveHeatingSource(ctx, s.db, h, co2)
}

// SaveMaterial inserts or updates a material at the given catalog position.
func (s *Store) SaveMaterial(ctx context.Context, position int, m materials.Material) error {
	if err := m.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveMaterial(ctx, s.db, position, m)
}

// SetDefaultCostPerSqm updates the fallback insulation cost.
func (s *Store) SetDefaultCostPerSqm(ctx context.Context, v decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setSetting(ctx, s.db, SettingDefaultCostPerSqm, v.String())
}

func saveRegion(ctx context.Context, db execer, r engine.Region, hdd, price float64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO regions (name, heating_degree_days, default_energy_price)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			heating_degree_days = excluded.heating_degree_days,
			default_energy_price = excluded.default_energy_price
	`, string(r), hdd, price)
	if err != nil {
		return fmt.Errorf("failed to save region %s: %w", r, err)
	}
	return nil
}

func saveHeatingSource(ctx context.Context, db execer, h engine.HeatingSource, co2 float64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO heating_sources (id, label, co2_intensity)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			label = excluded.label,
			co2_intensity = excluded.co2_intensity
	`, string(h), h.Label(), co2)
	if err != nil {
		return fmt.Errorf("failed to save heating source %s: %w", h, err)
	}
	return nil
}

func saveMaterial(ctx context.Context, db execer, position int, m materials.Material) error {
	benefits := m.Benefits
	if benefits == nil {
		benefits = []string{}
	}
	benefitsJSON, err := json.Marshal(benefits)
	if err != nil {
		return fmt.Errorf("failed to marshal benefits: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO insulation_materials
			(id, position, name, category, cost_per_m2, r_value_per_cm, target_r_value, description, benefits_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			position = excluded.position,
			name = excluded.name,
			category = excluded.category,
			cost_per_m2 = excluded.cost_per_m2,
			r_value_per_cm = excluded.r_value_per_cm,
			target_r_value = excluded.target_r_value,
			description = excluded.description,
			benefits_json = excluded.benefits_json
	`, m.ID, position, m.Name, m.Category, m.CostPerSqm, m.RValuePerCm, m.TargetRValue,
		m.Description, string(benefitsJSON))
	if err != nil {
		return fmt.Errorf("failed to save material %s: %w", m.ID, err)
	}
	return nil
}

func setSetting(ctx context.Context, db execer, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// =============================================================================
// READS
// =============================================================================

// Constants loads the full constants table and validates it. An incomplete
// table fails with engine.ErrLookupFailure.
func (s *Store) Constants(ctx context.Context) (engine.Constants, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := engine.Constants{
		HeatingDegreeDays: make(map[engine.Region]float64),
		CO2Intensity:      make(map[engine.HeatingSource]float64),
		EnergyPrices:      make(map[engine.Region]float64),
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, heating_degree_days, default_energy_price FROM regions")
	if err != nil {
		return engine.Constants{}, err
	}
	for rows.Next() {
		var name string
		var hdd, price float64
		if err := rows.Scan(&name, &hdd, &price); err != nil {
			rows.Close()
			return engine.Constants{}, err
		}
		r, err := engine.ParseRegion(name)
		if err != nil {
			rows.Close()
			return engine.Constants{}, fmt.Errorf("regions table: %w", err)
		}
		c.HeatingDegreeDays[r] = hdd
		c.EnergyPrices[r] = price
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return engine.Constants{}, err
	}
	if err := rows.Close(); err != nil {
		return engine.Constants{}, err
	}

	rows, err = s.db.QueryContext(ctx, "SELECT id, co2_intensity FROM heating_sources")
	if err != nil {
		return engine.Constants{}, err
	}
	for rows.Next() {
		var id string
		var f float64
		if err := rows.Scan(&id, &f); err != nil {
			rows.Close()
			return engine.Constants{}, err
		}
		h, err := engine.ParseHeatingSource(id)
		if err != nil {
			rows.Close()
			return engine.Constants{}, fmt.Errorf("heating_sources table: %w", err)
		}
		c.CO2Intensity[h] = f
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return engine.Constants{}, err
	}
	if err := rows.Close(); err != nil {
		return engine.Constants{}, err
	}

	var raw string
	err = s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", SettingDefaultCostPerSqm).Scan(&raw)
	switch {
	case err == sql.ErrNoRows:
		// Left at zero; Validate reports it.
	case err != nil:
		return engine.Constants{}, err
	default:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return engine.Constants{}, fmt.Errorf("setting %s: %w", SettingDefaultCostPerSqm, err)
		}
		c.DefaultInsulationCostPerSqm = d.InexactFloat64()
	}

	if err := c.Validate(); err != nil {
		return engine.Constants{}, fmt.Errorf("constants store incomplete: %w", err)
	}
	return c, nil
}

// Materials returns the catalog in position order.
func (s *Store) Materials(ctx context.Context) ([]materials.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, cost_per_m2, r_value_per_cm, target_r_value, description, benefits_json
		FROM insulation_materials
		ORDER BY position, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []materials.Material
	for rows.Next() {
		var m materials.Material
		var benefitsJSON string
		if err := rows.Scan(&m.ID, &m.Name, &m.Category, &m.CostPerSqm, &m.RValuePerCm,
			&m.TargetRValue, &m.Description, &benefitsJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(benefitsJSON), &m.Benefits); err != nil {
			return nil, fmt.Errorf("material %s benefits: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
