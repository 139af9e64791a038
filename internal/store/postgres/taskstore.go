// Package postgres implements task.Store against a remote PostgreSQL
// database using pgx. Every operation is a single point query or mutation
// keyed by id; filtering and search run server-side.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/colonyops/todod/internal/core/task"
)

// taskColumns is the select list shared by every query. Column order must
// match scanTask.
const taskColumns = "id, title, description, completed, priority, due_date, tags, created_at, updated_at"

const schema = `
CREATE TABLE IF NOT EXISTS todos (
	id          uuid PRIMARY KEY,
	title       text NOT NULL,
	description text,
	completed   boolean NOT NULL DEFAULT false,
	priority    text NOT NULL DEFAULT 'medium',
	due_date    text,
	tags        text[] NOT NULL DEFAULT '{}',
	created_at  timestamptz NOT NULL,
	updated_at  timestamptz NOT NULL
)`

// Connect opens a connection pool and verifies the database is reachable.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// TaskStore implements task.Store using PostgreSQL.
type TaskStore struct {
	pool *pgxpool.Pool
}

var _ task.Store = (*TaskStore)(nil)

// NewTaskStore creates a postgres-backed task store.
func NewTaskStore(pool *pgxpool.Pool) *TaskStore {
	return &TaskStore{pool: pool}
}

// EnsureSchema creates the todos table if it does not exist.
func (s *TaskStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure todos schema: %w", err)
	}
	return nil
}

// Create validates the input and inserts a new row.
func (s *TaskStore) Create(ctx context.Context, in task.CreateInput) (task.Task, error) {
	if err := in.Validate(); err != nil {
		return task.Task{}, err
	}

	t := task.NewTask(uuid.NewString(), in, time.Now().UTC())

	_, err := s.pool.Exec(ctx,
		`INSERT INTO todos (id, title, description, completed, priority, due_date, tags, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.Title, t.Description, t.Completed, string(t.Priority), t.DueDate, t.Tags, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return task.Task{}, fmt.Errorf("insert task: %w", err)
	}

	return t, nil
}

// Get returns a task by id. Returns task.ErrNotFound if no row matches.
func (s *TaskStore) Get(ctx context.Context, id string) (task.Task, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+taskColumns+" FROM todos WHERE id = $1", id)

	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, fmt.Errorf("get task: %w", err)
	}

	return t, nil
}

// List returns tasks matching the filter, newest-created first. The filter
// predicates translate to equality and array-containment conditions.
func (s *TaskStore) List(ctx context.Context, filter task.ListFilter) ([]task.Task, error) {
	var (
		conds []string
		args  []any
	)

	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		conds = append(conds, fmt.Sprintf("completed = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, string(filter.Priority))
		conds = append(conds, fmt.Sprintf("priority = $%d", len(args)))
	}
	if filter.Tag != "" {
		args = append(args, []string{filter.Tag})
		conds = append(conds, fmt.Sprintf("tags @> $%d", len(args)))
	}

	query := "SELECT " + taskColumns + " FROM todos"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	return s.queryTasks(ctx, query, args...)
}

// Update writes the supplied fields onto an existing row.
func (s *TaskStore) Update(ctx context.Context, id string, fields task.UpdateFields) (task.Task, error) {
	if err := fields.Validate(); err != nil {
		return task.Task{}, err
	}

	set := []string{"updated_at = $1"}
	args := []any{time.Now().UTC()}

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if fields.Title != nil {
		add("title", *fields.Title)
	}
	if fields.Description != nil {
		add("description", *fields.Description)
	}
	if fields.Completed != nil {
		add("completed", *fields.Completed)
	}
	if fields.Priority != nil {
		priority, _ := task.ParsePriority(string(*fields.Priority))
		add("priority", string(priority))
	}
	if fields.DueDate != nil {
		add("due_date", *fields.DueDate)
	}
	if fields.Tags != nil {
		tags := *fields.Tags
		if tags == nil {
			tags = []string{}
		}
		add("tags", tags)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE todos SET %s WHERE id = $%d RETURNING %s",
		strings.Join(set, ", "), len(args), taskColumns)

	t, err := scanTask(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, fmt.Errorf("update task: %w", err)
	}

	return t, nil
}

// Complete marks a task as completed.
func (s *TaskStore) Complete(ctx context.Context, id string) (task.Task, error) {
	completed := true
	return s.Update(ctx, id, task.UpdateFields{Completed: &completed})
}

// Delete removes a row. Reports whether a record existed.
func (s *TaskStore) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM todos WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Search matches query case-insensitively against title or description,
// newest-created first.
func (s *TaskStore) Search(ctx context.Context, query string) ([]task.Task, error) {
	pattern := "%" + query + "%"

	return s.queryTasks(ctx,
		"SELECT "+taskColumns+` FROM todos
		 WHERE title ILIKE $1 OR description ILIKE $1
		 ORDER BY created_at DESC`,
		pattern,
	)
}

func (s *TaskStore) queryTasks(ctx context.Context, query string, args ...any) ([]task.Task, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]task.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}

// scanTask converts a row into the domain record, translating snake_case
// columns back to the external vocabulary.
func scanTask(row pgx.Row) (task.Task, error) {
	var t task.Task

	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Completed,
		&t.Priority,
		&t.DueDate,
		&t.Tags,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return task.Task{}, err
	}

	if t.Tags == nil {
		t.Tags = []string{}
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()

	return t, nil
}
