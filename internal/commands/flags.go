// Package commands implements the todod CLI commands.
package commands

import (
	"context"
	"fmt"

	"github.com/colonyops/todod/internal/core/config"
	"github.com/colonyops/todod/internal/core/task"
	"github.com/colonyops/todod/internal/store/jsonfile"
	"github.com/colonyops/todod/internal/store/postgres"
)

// Flags holds global CLI flag values shared by all commands.
type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string

	// Overrides for config file values. Empty means "use the config".
	StoreBackend string
	FilePath     string
	DatabaseURL  string
}

// LoadConfig reads the config file and applies flag overrides.
func (f *Flags) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return nil, err
	}

	if f.StoreBackend != "" {
		cfg.Store.Backend = f.StoreBackend
	}
	if f.FilePath != "" {
		cfg.Store.FilePath = f.FilePath
	}
	if f.DatabaseURL != "" {
		cfg.Store.DatabaseURL = f.DatabaseURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// newStore constructs the configured storage backend. The returned cleanup
// releases any held connections and is safe to call exactly once.
func newStore(ctx context.Context, cfg *config.Config) (task.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendFile:
		return jsonfile.NewTaskStore(cfg.Store.FilePath), func() {}, nil

	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}

		store := postgres.NewTaskStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}

		return store, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
