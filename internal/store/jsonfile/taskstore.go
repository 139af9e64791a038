// Package jsonfile implements task.Store using a single JSON file for
// persistence. The whole collection is loaded, mutated in memory, and
// rewritten on every operation, which keeps the format trivially
// inspectable at the cost of O(n) writes.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/colonyops/todod/internal/core/task"
)

// TaskStore implements task.Store using a JSON array on disk.
type TaskStore struct {
	path string
	mu   sync.RWMutex
}

var _ task.Store = (*TaskStore)(nil)

// NewTaskStore creates a file-backed task store at the given path.
// The file is created lazily on the first write.
func NewTaskStore(path string) *TaskStore {
	return &TaskStore{path: path}
}

// Create validates the input and appends a new task to the collection.
func (s *TaskStore) Create(ctx context.Context, in task.CreateInput) (task.Task, error) {
	if err := in.Validate(); err != nil {
		return task.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return task.Task{}, err
	}

	t := task.NewTask(uuid.NewString(), in, time.Now().UTC())

	// Prepend so the on-disk order stays newest-first.
	tasks = append([]task.Task{t}, tasks...)

	if err := s.save(tasks); err != nil {
		return task.Task{}, err
	}

	return t, nil
}

// Get returns a task by id. Returns task.ErrNotFound if missing.
func (s *TaskStore) Get(ctx context.Context, id string) (task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks, err := s.load()
	if err != nil {
		return task.Task{}, err
	}

	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}

	return task.Task{}, task.ErrNotFound
}

// List returns tasks matching the filter, newest-created first.
func (s *TaskStore) List(ctx context.Context, filter task.ListFilter) ([]task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks, err := s.load()
	if err != nil {
		return nil, err
	}

	matched := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if filter.Matches(t) {
			matched = append(matched, t)
		}
	}

	sortNewestFirst(matched)

	return matched, nil
}

// Update writes the supplied fields onto an existing task.
func (s *TaskStore) Update(ctx context.Context, id string, fields task.UpdateFields) (task.Task, error) {
	if err := fields.Validate(); err != nil {
		return task.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return task.Task{}, err
	}

	for i := range tasks {
		if tasks[i].ID != id {
			continue
		}

		fields.Apply(&tasks[i], time.Now().UTC())

		if err := s.save(tasks); err != nil {
			return task.Task{}, err
		}

		return tasks[i], nil
	}

	return task.Task{}, task.ErrNotFound
}

// Complete marks a task as completed.
func (s *TaskStore) Complete(ctx context.Context, id string) (task.Task, error) {
	completed := true
	return s.Update(ctx, id, task.UpdateFields{Completed: &completed})
}

// Delete removes a task. Reports whether a record existed.
func (s *TaskStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return false, err
	}

	for i := range tasks {
		if tasks[i].ID != id {
			continue
		}

		tasks = append(tasks[:i], tasks[i+1:]...)

		if err := s.save(tasks); err != nil {
			return false, err
		}

		return true, nil
	}

	return false, nil
}

// Search returns tasks whose title or description contains query,
// case-insensitively, newest-created first.
func (s *TaskStore) Search(ctx context.Context, query string) ([]task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks, err := s.load()
	if err != nil {
		return nil, err
	}

	matched := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if task.MatchesQuery(t, query) {
			matched = append(matched, t)
		}
	}

	sortNewestFirst(matched)

	return matched, nil
}

// load reads the collection from disk.
// A missing or empty file reads as an empty collection.
func (s *TaskStore) load() ([]task.Task, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read task file: %w", err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("parse task file: %w", err)
	}

	return tasks, nil
}

// save writes the collection to disk atomically via temp-file rename.
func (s *TaskStore) save(tasks []task.Task) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("encode task file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write task file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace task file: %w", err)
	}

	return nil
}

func sortNewestFirst(tasks []task.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}
