package task

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a task does not exist.
	ErrNotFound = errors.New("task not found")
	// ErrTitleRequired is returned when a title is missing or blank.
	ErrTitleRequired = errors.New("title is required")
	// ErrInvalidPriority is returned for priority values outside low/medium/high.
	ErrInvalidPriority = errors.New("invalid priority")
)

// IsValidationError reports whether err is a boundary validation failure
// rather than a missing record or a backend fault.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrTitleRequired) || errors.Is(err, ErrInvalidPriority)
}

// Store defines the interface for task persistence. Both the file-backed
// and the postgres implementations satisfy the same contract; callers never
// know which one is active.
type Store interface {
	// Create validates and persists a new task, assigning a fresh id and
	// timestamps. Returns the stored record.
	Create(ctx context.Context, in CreateInput) (Task, error)

	// Get returns a single task by id.
	// Returns ErrNotFound if the task does not exist.
	Get(ctx context.Context, id string) (Task, error)

	// List returns tasks matching the filter, newest-created first.
	// An empty result is a non-nil empty slice, never an error.
	List(ctx context.Context, filter ListFilter) ([]Task, error)

	// Update writes the supplied fields onto an existing task and advances
	// UpdatedAt. Returns ErrNotFound if the task does not exist.
	Update(ctx context.Context, id string, fields UpdateFields) (Task, error)

	// Complete marks a task as completed. Equivalent to Update with
	// Completed=true. Returns ErrNotFound if the task does not exist.
	Complete(ctx context.Context, id string) (Task, error)

	// Delete removes a task permanently. Reports whether a record existed;
	// a missing id is a normal false outcome, not an error.
	Delete(ctx context.Context, id string) (bool, error)

	// Search returns tasks whose title or description contains query,
	// case-insensitively, newest-created first.
	Search(ctx context.Context, query string) ([]Task, error)
}
