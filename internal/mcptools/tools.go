// Package mcptools exposes the task store as an MCP tool catalog.
//
// Six tools are advertised with typed argument schemas. Every outcome,
// success or failure, travels as a structured text result with an error
// flag; a store fault never becomes a transport-level error.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/colonyops/todod/internal/core/task"
)

// Catalog dispatches tool invocations onto a task.Store.
type Catalog struct {
	store task.Store
	log   zerolog.Logger
}

// NewCatalog creates a tool catalog backed by the given store.
func NewCatalog(store task.Store, log zerolog.Logger) *Catalog {
	return &Catalog{
		store: store,
		log:   log.With().Str("cmp", "mcptools").Logger(),
	}
}

// MCPServer builds an MCP server advertising the catalog.
func (c *Catalog) MCPServer(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"todod",
		version,
		server.WithToolCapabilities(false),
		server.WithInstructions("Todo management server. Use list_todos and search_todos to find "+
			"tasks, add_todo to create them, and update_todo, complete_todo, or delete_todo to "+
			"change them. Priorities are low, medium, or high."),
	)
	s.AddTools(c.Tools()...)
	return s
}

// Tools returns the full tool catalog with handlers bound to the store.
func (c *Catalog) Tools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool("list_todos",
				mcp.WithDescription("List all todos, optionally filtered by status or priority"),
				mcp.WithBoolean("completed", mcp.Description("Filter by completion status")),
				mcp.WithString("priority", mcp.Description("Filter by priority level"), mcp.Enum("low", "medium", "high")),
				mcp.WithString("tag", mcp.Description("Filter by tag")),
			),
			Handler: c.wrap("list_todos", c.handleList),
		},
		{
			Tool: mcp.NewTool("add_todo",
				mcp.WithDescription("Add a new todo item"),
				mcp.WithString("title", mcp.Required(), mcp.Description("The todo title")),
				mcp.WithString("description", mcp.Description("Optional detailed description")),
				mcp.WithString("priority", mcp.Description("Priority level (defaults to medium)"), mcp.Enum("low", "medium", "high")),
				mcp.WithString("dueDate", mcp.Description("Due date in ISO format")),
				mcp.WithArray("tags", mcp.Description("Tags for categorization"), mcp.WithStringItems()),
			),
			Handler: c.wrap("add_todo", c.handleAdd),
		},
		{
			Tool: mcp.NewTool("update_todo",
				mcp.WithDescription("Update an existing todo item"),
				mcp.WithString("id", mcp.Required(), mcp.Description("The todo ID to update")),
				mcp.WithString("title", mcp.Description("New title")),
				mcp.WithString("description", mcp.Description("New description")),
				mcp.WithBoolean("completed", mcp.Description("Mark as completed or not")),
				mcp.WithString("priority", mcp.Description("New priority level"), mcp.Enum("low", "medium", "high")),
				mcp.WithString("dueDate", mcp.Description("New due date")),
				mcp.WithArray("tags", mcp.Description("New tags"), mcp.WithStringItems()),
			),
			Handler: c.wrap("update_todo", c.handleUpdate),
		},
		{
			Tool: mcp.NewTool("delete_todo",
				mcp.WithDescription("Delete a todo item"),
				mcp.WithString("id", mcp.Required(), mcp.Description("The todo ID to delete")),
			),
			Handler: c.wrap("delete_todo", c.handleDelete),
		},
		{
			Tool: mcp.NewTool("complete_todo",
				mcp.WithDescription("Mark a todo as completed"),
				mcp.WithString("id", mcp.Required(), mcp.Description("The todo ID to complete")),
			),
			Handler: c.wrap("complete_todo", c.handleComplete),
		},
		{
			Tool: mcp.NewTool("search_todos",
				mcp.WithDescription("Search todos by text in title or description"),
				mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
			),
			Handler: c.wrap("search_todos", c.handleSearch),
		},
	}
}

// Dispatch invokes a tool by name. Unknown names produce an error-flagged
// result rather than a transport fault.
func (c *Catalog) Dispatch(ctx context.Context, name string, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	for _, t := range c.Tools() {
		if t.Tool.Name == name {
			return t.Handler(ctx, req)
		}
	}

	return mcp.NewToolResultError(fmt.Sprintf("Unknown tool: %s", name)), nil
}

type toolHandler func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

// wrap converts any handler error into an error-flagged result that names
// the tool, so store faults surface to the caller instead of the transport.
func (c *Catalog) wrap(name string, fn toolHandler) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := fn(ctx, req)
		if err != nil {
			c.log.Error().Err(err).Str("tool", name).Msg("tool invocation failed")
			return mcp.NewToolResultError(fmt.Sprintf("Error in %s: %v", name, err)), nil
		}
		return res, nil
	}
}

func (c *Catalog) handleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	filter := task.ListFilter{
		Priority: task.Priority(req.GetString("priority", "")),
		Tag:      req.GetString("tag", ""),
	}
	if v, ok := args["completed"].(bool); ok {
		filter.Completed = &v
	}

	tasks, err := c.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return jsonResult(tasks)
}

func (c *Catalog) handleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("title is required"), nil
	}

	in := task.CreateInput{
		Title:    title,
		Priority: task.Priority(req.GetString("priority", "")),
		Tags:     req.GetStringSlice("tags", nil),
	}
	if v, ok := req.GetArguments()["description"].(string); ok {
		in.Description = &v
	}
	if v, ok := req.GetArguments()["dueDate"].(string); ok {
		in.DueDate = &v
	}

	t, err := c.store.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	return textWithRecord("Created todo: ", t)
}

func (c *Catalog) handleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}

	args := req.GetArguments()

	var fields task.UpdateFields
	if v, ok := args["title"].(string); ok {
		fields.Title = &v
	}
	if v, ok := args["description"].(string); ok {
		fields.Description = &v
	}
	if v, ok := args["completed"].(bool); ok {
		fields.Completed = &v
	}
	if v, ok := args["priority"].(string); ok {
		p := task.Priority(v)
		fields.Priority = &p
	}
	if v, ok := args["dueDate"].(string); ok {
		fields.DueDate = &v
	}
	if _, ok := args["tags"]; ok {
		tags := req.GetStringSlice("tags", []string{})
		fields.Tags = &tags
	}

	t, err := c.store.Update(ctx, id, fields)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			return mcp.NewToolResultError("Todo not found: " + id), nil
		}
		return nil, err
	}

	return textWithRecord("Updated todo: ", t)
}

func (c *Catalog) handleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}

	deleted, err := c.store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return mcp.NewToolResultError("Todo not found: " + id), nil
	}

	return mcp.NewToolResultText("Deleted todo: " + id), nil
}

func (c *Catalog) handleComplete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}

	t, err := c.store.Complete(ctx, id)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			return mcp.NewToolResultError("Todo not found: " + id), nil
		}
		return nil, err
	}

	return mcp.NewToolResultText("Completed: " + t.Title), nil
}

func (c *Catalog) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}

	tasks, err := c.store.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	return jsonResult(tasks)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

func textWithRecord(prefix string, t task.Task) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(prefix + string(b)), nil
}
