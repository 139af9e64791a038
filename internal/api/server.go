// Package api exposes the task store over a conventional JSON HTTP API.
package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog"

	"github.com/colonyops/todod/internal/core/task"
)

// errorResponse is the JSON body for every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// Server maps HTTP verbs and paths onto task.Store operations.
type Server struct {
	store task.Store
	log   zerolog.Logger
	app   *fiber.App
}

// NewServer builds the fiber app with routes and CORS configured.
// allowOrigin is the allowed cross-origin value; "*" permits any origin.
func NewServer(store task.Store, allowOrigin string, log zerolog.Logger) *Server {
	s := &Server{
		store: store,
		log:   log.With().Str("cmp", "api").Logger(),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigin,
	}))

	app.Get("/health", s.health)

	todos := app.Group("/api/todos")
	todos.Get("/", s.listTodos)
	todos.Post("/", s.createTodo)
	todos.Get("/:id", s.getTodo)
	todos.Patch("/:id", s.updateTodo)
	todos.Delete("/:id", s.deleteTodo)

	s.app = app
	return s
}

// Listen serves the API on the given address until the listener fails.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// listTodos handles GET /api/todos. No filters are applied by this surface.
func (s *Server) listTodos(c *fiber.Ctx) error {
	tasks, err := s.store.List(c.Context(), task.ListFilter{})
	if err != nil {
		return s.storeFailure(c, "list todos", err)
	}

	return c.JSON(tasks)
}

// getTodo handles GET /api/todos/:id.
func (s *Server) getTodo(c *fiber.Ctx) error {
	t, err := s.store.Get(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "Todo not found"})
		}
		return s.storeFailure(c, "get todo", err)
	}

	return c.JSON(t)
}

// createTodo handles POST /api/todos. Body fields pass through verbatim;
// the store owns validation and defaulting.
func (s *Server) createTodo(c *fiber.Ctx) error {
	var in task.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "Invalid request body"})
	}

	t, err := s.store.Create(c.Context(), in)
	if err != nil {
		if task.IsValidationError(err) {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: err.Error()})
		}
		return s.storeFailure(c, "create todo", err)
	}

	return c.Status(fiber.StatusCreated).JSON(t)
}

// updateTodo handles PATCH /api/todos/:id. The body is a raw partial-fields
// object; absent fields are left unchanged.
func (s *Server) updateTodo(c *fiber.Ctx) error {
	var fields task.UpdateFields
	if err := c.BodyParser(&fields); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "Invalid request body"})
	}

	t, err := s.store.Update(c.Context(), c.Params("id"), fields)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "Todo not found"})
		}
		if task.IsValidationError(err) {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: err.Error()})
		}
		return s.storeFailure(c, "update todo", err)
	}

	return c.JSON(t)
}

// deleteTodo handles DELETE /api/todos/:id.
func (s *Server) deleteTodo(c *fiber.Ctx) error {
	deleted, err := s.store.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return s.storeFailure(c, "delete todo", err)
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "Todo not found"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// storeFailure logs a backend fault and responds with a generic 500.
// Backend detail never leaks into the response body.
func (s *Server) storeFailure(c *fiber.Ctx, op string, err error) error {
	s.log.Error().Err(err).Str("op", op).Msg("store operation failed")
	return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "Operation failed"})
}
