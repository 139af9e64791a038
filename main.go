package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/todod/internal/commands"
	"github.com/colonyops/todod/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var logCloser func()

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "todod",
		Usage:     "Task store with HTTP and MCP access surfaces",
		UsageText: "todod [global options] command [command options]",
		Description: `Todod stores task records (title, description, priority, due date, tags,
completion state) in a JSON file or a PostgreSQL database and serves them
over two surfaces: a JSON HTTP API ("todod serve") and an MCP tool server
on stdio ("todod mcp").`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("TODOD_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to stderr)",
				Sources:     cli.EnvVars("TODOD_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TODOD_CONFIG"),
				Value:       "todod.yml",
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "store",
				Usage:       "storage backend (file or postgres), overrides config",
				Sources:     cli.EnvVars("TODOD_STORE"),
				Destination: &flags.StoreBackend,
			},
			&cli.StringFlag{
				Name:        "file-path",
				Usage:       "task collection file for the file backend, overrides config",
				Sources:     cli.EnvVars("TODOD_FILE_PATH"),
				Destination: &flags.FilePath,
			},
			&cli.StringFlag{
				Name:        "database-url",
				Usage:       "postgres DSN for the postgres backend, overrides config",
				Sources:     cli.EnvVars("TODOD_DATABASE_URL"),
				Destination: &flags.DatabaseURL,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewServeCmd(flags).Register(app)
	app = commands.NewMCPCmd(flags, version).Register(app)

	exitCode := 0
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
