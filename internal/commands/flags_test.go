package commands

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/todod/internal/core/config"
	"github.com/colonyops/todod/internal/store/jsonfile"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults without a config file", func(t *testing.T) {
		f := &Flags{ConfigPath: filepath.Join(t.TempDir(), "missing.yml")}

		cfg, err := f.LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, config.BackendFile, cfg.Store.Backend)
		assert.Equal(t, "todod.json", cfg.Store.FilePath)
	})

	t.Run("flags override config", func(t *testing.T) {
		f := &Flags{
			ConfigPath:  filepath.Join(t.TempDir(), "missing.yml"),
			FilePath:    "/tmp/other.json",
			DatabaseURL: "postgres://localhost/todod",
		}

		cfg, err := f.LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/other.json", cfg.Store.FilePath)
		assert.Equal(t, "postgres://localhost/todod", cfg.Store.DatabaseURL)
	})

	t.Run("override to postgres still requires a url", func(t *testing.T) {
		f := &Flags{
			ConfigPath:   filepath.Join(t.TempDir(), "missing.yml"),
			StoreBackend: config.BackendPostgres,
		}

		_, err := f.LoadConfig()
		assert.ErrorContains(t, err, "requires a database URL")
	})

	t.Run("unknown backend override rejected", func(t *testing.T) {
		f := &Flags{
			ConfigPath:   filepath.Join(t.TempDir(), "missing.yml"),
			StoreBackend: "redis",
		}

		_, err := f.LoadConfig()
		assert.ErrorContains(t, err, "unknown store backend")
	})
}

func TestNewStore(t *testing.T) {
	t.Run("file backend", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Store.FilePath = filepath.Join(t.TempDir(), "todod.json")

		store, cleanup, err := newStore(context.Background(), &cfg)
		require.NoError(t, err)
		defer cleanup()

		assert.IsType(t, &jsonfile.TaskStore{}, store)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Store.Backend = "redis"

		_, _, err := newStore(context.Background(), &cfg)
		assert.ErrorContains(t, err, "unknown store backend")
	})
}
