package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/todod/internal/api"
	"github.com/colonyops/todod/internal/core/config"
	"github.com/colonyops/todod/internal/store/jsonfile"
)

// ServeCmd implements the todod serve command.
type ServeCmd struct {
	flags *Flags

	listen     string
	corsOrigin string
}

// NewServeCmd creates a new serve command.
func NewServeCmd(flags *Flags) *ServeCmd {
	return &ServeCmd{flags: flags}
}

// Register adds the serve command to the application.
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Run the HTTP API server",
		UsageText: "todod serve [--listen <addr>] [--cors-origin <origin>]",
		Description: `Serves the task store over a JSON HTTP API.

Endpoints:
  GET    /api/todos       list all todos
  POST   /api/todos       create a todo
  GET    /api/todos/:id   get one todo
  PATCH  /api/todos/:id   partially update a todo
  DELETE /api/todos/:id   delete a todo`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "listen",
				Usage:       "address to listen on",
				Sources:     cli.EnvVars("TODOD_LISTEN"),
				Destination: &cmd.listen,
			},
			&cli.StringFlag{
				Name:        "cors-origin",
				Usage:       "allowed CORS origin (\"*\" permits any)",
				Sources:     cli.EnvVars("TODOD_CORS_ORIGIN"),
				Destination: &cmd.corsOrigin,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ServeCmd) run(ctx context.Context, _ *cli.Command) error {
	cfg, err := cmd.flags.LoadConfig()
	if err != nil {
		return err
	}
	if cmd.listen != "" {
		cfg.HTTP.Listen = cmd.listen
	}
	if cmd.corsOrigin != "" {
		cfg.HTTP.CORSOrigin = cmd.corsOrigin
	}

	store, cleanup, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	server := api.NewServer(store, cfg.HTTP.CORSOrigin, log.Logger)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The file backend has no cross-process locking, so surface rewrites
	// made by other processes (an MCP session on the same file, manual
	// edits) in the log.
	if cfg.Store.Backend == config.BackendFile {
		watcher, err := jsonfile.NewWatcher(cfg.Store.FilePath)
		if err != nil {
			log.Warn().Err(err).Msg("collection file watcher unavailable")
		} else {
			defer watcher.Close() //nolint:errcheck
			go func() {
				for ev := range watcher.Watch(sigCtx) {
					log.Debug().Str("path", ev.Path).Msg("task collection file changed")
				}
			}()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen(cfg.HTTP.Listen)
	}()

	log.Info().
		Str("listen", cfg.HTTP.Listen).
		Str("backend", cfg.Store.Backend).
		Msg("api server started")

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
		log.Info().Msg("shutting down")
		return server.Shutdown()
	}
}
