package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/warp/insulation-engine/api"
	"github.com/warp/insulation-engine/config"
	"github.com/warp/insulation-engine/store/sqlite"
)

var errNoStore = errors.New("no constants store configured (use --db or DB_PATH)")

// openSource returns the constants source selected by the configuration:
// the SQLite store when store.path is set, the config tables otherwise.
func openSource(ctx context.Context, cfg *config.Config, log zerolog.Logger) (api.ConstantsSource, func() error, error) {
	if cfg.Store.Path == "" {
		constants, err := cfg.EngineConstants()
		if err != nil {
			return nil, nil, err
		}
		return api.NewStaticSource(constants, cfg.Materials), func() error { return nil }, nil
	}

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

// openStore opens the SQLite store at store.path. An empty store is seeded
// from the config tables on first use.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sqlite.Store, error) {
	if cfg.Store.Path == "" {
		return nil, errNoStore
	}
	constants, err := cfg.EngineConstants()
	if err != nil {
		return nil, err
	}

	store, err := sqlite.New(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open constants store: %w", err)
	}
	seeded, err := store.Seed(ctx, constants, cfg.Materials)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("seed constants store: %w", err)
	}
	if _, err := store.Constants(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("constants store %s: %w", cfg.Store.Path, err)
	}

	log.Info().
		Str("path", cfg.Store.Path).
		Bool("seeded", seeded).
		Msg("using sqlite constants store")
	return store, nil
}
