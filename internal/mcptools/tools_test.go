package mcptools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/todod/internal/core/task"
	"github.com/colonyops/todod/internal/store/jsonfile"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	store := jsonfile.NewTaskStore(filepath.Join(t.TempDir(), "todod.json"))
	return NewCatalog(store, zerolog.Nop())
}

func callTool(t *testing.T, c *Catalog, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := c.Dispatch(context.Background(), name, req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()

	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func addTodo(t *testing.T, c *Catalog, args map[string]any) task.Task {
	t.Helper()

	res := callTool(t, c, "add_todo", args)
	require.False(t, res.IsError)

	text := resultText(t, res)
	require.True(t, strings.HasPrefix(text, "Created todo: "), text)

	var created task.Task
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(text, "Created todo: ")), &created))
	return created
}

func TestAddTodo(t *testing.T) {
	t.Run("creates and reports the record", func(t *testing.T) {
		c := newTestCatalog(t)

		created := addTodo(t, c, map[string]any{
			"title":    "Buy milk",
			"priority": "high",
			"tags":     []any{"errand"},
		})

		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "Buy milk", created.Title)
		assert.Equal(t, task.PriorityHigh, created.Priority)
		assert.Equal(t, []string{"errand"}, created.Tags)
		assert.False(t, created.Completed)
	})

	t.Run("missing title is an error result", func(t *testing.T) {
		c := newTestCatalog(t)

		res := callTool(t, c, "add_todo", map[string]any{"description": "no title"})
		assert.True(t, res.IsError)
	})

	t.Run("blank title is an error result", func(t *testing.T) {
		c := newTestCatalog(t)

		res := callTool(t, c, "add_todo", map[string]any{"title": "   "})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "Error in add_todo")
	})
}

func TestListTodos(t *testing.T) {
	t.Run("empty store returns empty array text", func(t *testing.T) {
		c := newTestCatalog(t)

		res := callTool(t, c, "list_todos", nil)
		require.False(t, res.IsError)
		assert.JSONEq(t, `[]`, resultText(t, res))
	})

	t.Run("filters by completion", func(t *testing.T) {
		c := newTestCatalog(t)
		addTodo(t, c, map[string]any{"title": "open item"})
		done := addTodo(t, c, map[string]any{"title": "done item"})
		callTool(t, c, "complete_todo", map[string]any{"id": done.ID})

		res := callTool(t, c, "list_todos", map[string]any{"completed": true})
		require.False(t, res.IsError)

		var got []task.Task
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "done item", got[0].Title)
	})

	t.Run("filters by priority and tag", func(t *testing.T) {
		c := newTestCatalog(t)
		addTodo(t, c, map[string]any{"title": "a", "priority": "high", "tags": []any{"work"}})
		addTodo(t, c, map[string]any{"title": "b", "priority": "high"})
		addTodo(t, c, map[string]any{"title": "c", "priority": "low", "tags": []any{"work"}})

		res := callTool(t, c, "list_todos", map[string]any{"priority": "high", "tag": "work"})
		require.False(t, res.IsError)

		var got []task.Task
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "a", got[0].Title)
	})
}

func TestUpdateTodo(t *testing.T) {
	t.Run("partial update reports the record", func(t *testing.T) {
		c := newTestCatalog(t)
		created := addTodo(t, c, map[string]any{"title": "Buy milk", "priority": "high"})

		res := callTool(t, c, "update_todo", map[string]any{"id": created.ID, "completed": true})
		require.False(t, res.IsError)

		text := resultText(t, res)
		require.True(t, strings.HasPrefix(text, "Updated todo: "), text)

		var got task.Task
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(text, "Updated todo: ")), &got))
		assert.True(t, got.Completed)
		assert.Equal(t, "Buy milk", got.Title)
		assert.Equal(t, task.PriorityHigh, got.Priority)
	})

	t.Run("unknown id", func(t *testing.T) {
		c := newTestCatalog(t)

		res := callTool(t, c, "update_todo", map[string]any{"id": "nonexistent", "completed": true})
		assert.True(t, res.IsError)
		assert.Equal(t, "Todo not found: nonexistent", resultText(t, res))
	})

	t.Run("empty tags clear the list", func(t *testing.T) {
		c := newTestCatalog(t)
		created := addTodo(t, c, map[string]any{"title": "Buy milk", "tags": []any{"errand"}})

		res := callTool(t, c, "update_todo", map[string]any{"id": created.ID, "tags": []any{}})
		require.False(t, res.IsError)

		var got task.Task
		text := strings.TrimPrefix(resultText(t, res), "Updated todo: ")
		require.NoError(t, json.Unmarshal([]byte(text), &got))
		assert.Empty(t, got.Tags)
	})
}

func TestDeleteTodo(t *testing.T) {
	t.Run("reports the deleted id", func(t *testing.T) {
		c := newTestCatalog(t)
		created := addTodo(t, c, map[string]any{"title": "Buy milk"})

		res := callTool(t, c, "delete_todo", map[string]any{"id": created.ID})
		require.False(t, res.IsError)
		assert.Equal(t, "Deleted todo: "+created.ID, resultText(t, res))
	})

	t.Run("unknown id", func(t *testing.T) {
		c := newTestCatalog(t)

		res := callTool(t, c, "delete_todo", map[string]any{"id": "nonexistent"})
		assert.True(t, res.IsError)
		assert.Equal(t, "Todo not found: nonexistent", resultText(t, res))
	})
}

func TestCompleteTodo(t *testing.T) {
	t.Run("reports the title", func(t *testing.T) {
		c := newTestCatalog(t)
		created := addTodo(t, c, map[string]any{"title": "Buy milk"})

		res := callTool(t, c, "complete_todo", map[string]any{"id": created.ID})
		require.False(t, res.IsError)
		assert.Equal(t, "Completed: Buy milk", resultText(t, res))
	})

	t.Run("unknown id", func(t *testing.T) {
		c := newTestCatalog(t)

		res := callTool(t, c, "complete_todo", map[string]any{"id": "nonexistent"})
		assert.True(t, res.IsError)
		assert.Equal(t, "Todo not found: nonexistent", resultText(t, res))
	})
}

func TestSearchTodos(t *testing.T) {
	c := newTestCatalog(t)
	addTodo(t, c, map[string]any{"title": "Buy milk", "description": "from the corner shop"})
	addTodo(t, c, map[string]any{"title": "Walk the dog"})

	t.Run("matches title and description", func(t *testing.T) {
		res := callTool(t, c, "search_todos", map[string]any{"query": "CORNER"})
		require.False(t, res.IsError)

		var got []task.Task
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "Buy milk", got[0].Title)
	})

	t.Run("no match yields empty array text", func(t *testing.T) {
		res := callTool(t, c, "search_todos", map[string]any{"query": "xyz-no-match"})
		require.False(t, res.IsError)
		assert.JSONEq(t, `[]`, resultText(t, res))
	})

	t.Run("missing query is an error result", func(t *testing.T) {
		res := callTool(t, c, "search_todos", nil)
		assert.True(t, res.IsError)
	})
}

func TestDispatchUnknownTool(t *testing.T) {
	c := newTestCatalog(t)

	res := callTool(t, c, "rename_todo", map[string]any{"id": "x"})
	assert.True(t, res.IsError)
	assert.Equal(t, "Unknown tool: rename_todo", resultText(t, res))
}

func TestMCPServer(t *testing.T) {
	c := newTestCatalog(t)
	assert.NotNil(t, c.MCPServer("test"))
}
