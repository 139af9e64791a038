// Package task defines the task record domain model shared by every
// storage backend and access surface.
package task

import (
	"fmt"
	"strings"
	"time"
)

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority validates a priority value. The empty string maps to
// PriorityMedium so callers can omit the field entirely.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
}

// Task is a single todo record. Field names on the wire use the camelCase
// vocabulary; the postgres backend translates to snake_case columns.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	Priority    Priority  `json:"priority"`
	DueDate     *string   `json:"dueDate,omitempty"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateInput carries the caller-supplied fields for a new task.
// Everything except Title is optional.
type CreateInput struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Priority    Priority `json:"priority"`
	DueDate     *string  `json:"dueDate"`
	Tags        []string `json:"tags"`
}

// Validate checks the input against the store's boundary rules.
func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrTitleRequired
	}
	if _, err := ParsePriority(string(in.Priority)); err != nil {
		return err
	}
	return nil
}

// NewTask builds a fully-defaulted task record from validated input.
// The caller supplies the id and creation timestamp so both backends
// produce identical records.
func NewTask(id string, in CreateInput, now time.Time) Task {
	priority, _ := ParsePriority(string(in.Priority))

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	return Task{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Completed:   false,
		Priority:    priority,
		DueDate:     in.DueDate,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UpdateFields is a partial update. A nil field is left unchanged; only
// explicitly supplied fields are written. Tags uses a slice pointer so an
// explicit empty list clears the tags while an absent field keeps them.
type UpdateFields struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Completed   *bool     `json:"completed"`
	Priority    *Priority `json:"priority"`
	DueDate     *string   `json:"dueDate"`
	Tags        *[]string `json:"tags"`
}

// Validate checks only the fields that are present.
func (f UpdateFields) Validate() error {
	if f.Title != nil && strings.TrimSpace(*f.Title) == "" {
		return ErrTitleRequired
	}
	if f.Priority != nil {
		if _, err := ParsePriority(string(*f.Priority)); err != nil {
			return err
		}
	}
	return nil
}

// Apply writes the supplied fields onto t and advances UpdatedAt.
func (f UpdateFields) Apply(t *Task, now time.Time) {
	if f.Title != nil {
		t.Title = *f.Title
	}
	if f.Description != nil {
		t.Description = f.Description
	}
	if f.Completed != nil {
		t.Completed = *f.Completed
	}
	if f.Priority != nil {
		priority, _ := ParsePriority(string(*f.Priority))
		t.Priority = priority
	}
	if f.DueDate != nil {
		t.DueDate = f.DueDate
	}
	if f.Tags != nil {
		tags := *f.Tags
		if tags == nil {
			tags = []string{}
		}
		t.Tags = tags
	}
	t.UpdatedAt = now
}

// ListFilter narrows List results. All supplied predicates must hold;
// nil/empty fields impose no constraint.
type ListFilter struct {
	Completed *bool    `json:"completed"`
	Priority  Priority `json:"priority"`
	Tag       string   `json:"tag"`
}

// Matches reports whether t satisfies every supplied predicate.
func (f ListFilter) Matches(t Task) bool {
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Tag != "" && !containsTag(t.Tags, f.Tag) {
		return false
	}
	return true
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// MatchesQuery reports whether query is a case-insensitive substring of
// the task's title or description. A task without a description never
// matches on description. The empty query matches every task.
func MatchesQuery(t Task, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(t.Title), q) {
		return true
	}
	if t.Description != nil && strings.Contains(strings.ToLower(*t.Description), q) {
		return true
	}
	return false
}
