package commands

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/todod/internal/mcptools"
)

// MCPCmd implements the todod mcp command.
type MCPCmd struct {
	flags   *Flags
	version string
}

// NewMCPCmd creates a new mcp command.
func NewMCPCmd(flags *Flags, version string) *MCPCmd {
	return &MCPCmd{flags: flags, version: version}
}

// Register adds the mcp command to the application.
func (cmd *MCPCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "mcp",
		Usage:     "Run the MCP tool server on stdio",
		UsageText: "todod mcp",
		Description: `Serves the task store as an MCP tool catalog over stdio.

Tools: list_todos, add_todo, update_todo, delete_todo, complete_todo,
search_todos. Point an MCP client at this command to manage todos.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *MCPCmd) run(ctx context.Context, _ *cli.Command) error {
	cfg, err := cmd.flags.LoadConfig()
	if err != nil {
		return err
	}

	store, cleanup, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	catalog := mcptools.NewCatalog(store, log.Logger)

	log.Info().Str("backend", cfg.Store.Backend).Msg("mcp server started")

	return server.ServeStdio(catalog.MCPServer(cmd.version))
}
