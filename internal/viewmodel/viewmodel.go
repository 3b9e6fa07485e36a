// Package viewmodel mirrors the task store in memory, derives the display
// views and applies user mutations through the repository.
package viewmodel

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"zero/internal/task"
)

type Repository interface {
	AllTasks(ctx context.Context) (<-chan []task.Task, error)
	TaskByID(ctx context.Context, id string) (<-chan *task.Task, error)
	InsertTask(ctx context.Context, t task.Task) error
	UpdateTask(ctx context.Context, t task.Task) error
	DeleteTask(ctx context.Context, t task.Task) error
	SaveTheme(theme task.Theme) error
	LoadTheme() (task.Theme, error)
}

// Publisher receives every task list the view model observes.
type Publisher interface {
	Publish(tasks []task.Task) error
}

type ViewModel struct {
	repo    Repository
	mirror  Publisher
	logger  *log.Logger
	updates chan struct{}

	mu     sync.RWMutex
	tasks  []task.Task
	theme  task.Theme
	loaded bool
}

// New loads the theme preference; mirror may be nil.
func New(repo Repository, mirror Publisher, logger *log.Logger) *ViewModel {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	theme, err := repo.LoadTheme()
	if err != nil {
		logger.Printf("viewmodel: loading theme: %v", err)
	}
	return &ViewModel{
		repo:    repo,
		mirror:  mirror,
		logger:  logger,
		updates: make(chan struct{}, 1),
		theme:   theme,
	}
}

// Run mirrors the repository stream until ctx is done. Each emission
// replaces the cached list and refreshes the widget mirror.
func (vm *ViewModel) Run(ctx context.Context) error {
	stream, err := vm.repo.AllTasks(ctx)
	if err != nil {
		return fmt.Errorf("subscribing to tasks: %w", err)
	}
	for snap := range stream {
		vm.mu.Lock()
		vm.tasks = snap
		vm.loaded = true
		vm.mu.Unlock()

		if vm.mirror != nil {
			if err := vm.mirror.Publish(snap); err != nil {
				vm.logger.Printf("viewmodel: widget mirror: %v", err)
			}
		}
		vm.notify()
	}
	return ctx.Err()
}

func (vm *ViewModel) notify() {
	select {
	case vm.updates <- struct{}{}:
	default:
	}
}

// Updates signals after each new task list or theme change. Signals
// coalesce; read the state again on every receive.
func (vm *ViewModel) Updates() <-chan struct{} {
	return vm.updates
}

// Loaded reports whether the first snapshot has arrived.
func (vm *ViewModel) Loaded() bool {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.loaded
}

// Tasks returns a copy of the cached task list in store order.
func (vm *ViewModel) Tasks() []task.Task {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	out := make([]task.Task, len(vm.tasks))
	for i, t := range vm.tasks {
		out[i] = t.Clone()
	}
	return out
}

func (vm *ViewModel) Theme() task.Theme {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.theme
}

func (vm *ViewModel) View(query string) View {
	return Derive(vm.Tasks(), query)
}

// Task returns the cached task with the given id.
func (vm *ViewModel) Task(id string) (task.Task, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	for _, t := range vm.tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return task.Task{}, false
}

func (vm *ViewModel) TaskByID(ctx context.Context, id string) (<-chan *task.Task, error) {
	return vm.repo.TaskByID(ctx, id)
}

// AddTask validates and inserts a task that already carries its id.
func (vm *ViewModel) AddTask(ctx context.Context, t task.Task) error {
	if err := vm.validate(t); err != nil {
		return err
	}
	return vm.repo.InsertTask(ctx, t)
}

// SaveTask replaces the stored task sharing t's id with t. A task deleted
// in the meantime is not re-created: the save fails with storage.ErrNotFound.
func (vm *ViewModel) SaveTask(ctx context.Context, t task.Task) error {
	if err := vm.validate(t); err != nil {
		return err
	}
	return vm.repo.UpdateTask(ctx, t)
}

func (vm *ViewModel) DeleteTask(ctx context.Context, t task.Task) error {
	return vm.repo.DeleteTask(ctx, t)
}

func (vm *ViewModel) SetCompleted(ctx context.Context, t task.Task, completed bool) error {
	u := t.Clone()
	u.IsCompleted = completed
	return vm.repo.UpdateTask(ctx, u)
}

func (vm *ViewModel) TogglePin(ctx context.Context, t task.Task) error {
	u := t.Clone()
	u.IsPinned = !t.IsPinned
	return vm.repo.UpdateTask(ctx, u)
}

// SetSubtaskCompleted updates the first loaded task owning the subtask. An
// unknown subtask id is ignored.
func (vm *ViewModel) SetSubtaskCompleted(ctx context.Context, subtaskID string, completed bool) error {
	owner, idx, ok := vm.subtaskOwner(subtaskID)
	if !ok {
		return nil
	}
	owner.Subtasks[idx].IsCompleted = completed
	return vm.repo.UpdateTask(ctx, owner)
}

func (vm *ViewModel) subtaskOwner(subtaskID string) (task.Task, int, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	for _, t := range vm.tasks {
		if i := t.SubtaskIndex(subtaskID); i >= 0 {
			return t.Clone(), i, true
		}
	}
	return task.Task{}, -1, false
}

// ChangeTheme advances the theme cycle and persists the result.
func (vm *ViewModel) ChangeTheme() (task.Theme, error) {
	vm.mu.Lock()
	next := vm.theme.Next()
	vm.theme = next
	vm.mu.Unlock()
	vm.notify()
	if err := vm.repo.SaveTheme(next); err != nil {
		return next, fmt.Errorf("saving theme: %w", err)
	}
	return next, nil
}

// validate applies the form rules and keeps subtask ids unique across all
// loaded tasks, so a toggle by id resolves to exactly one subtask.
func (vm *ViewModel) validate(t task.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if len(t.Subtasks) == 0 {
		return nil
	}
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	for _, other := range vm.tasks {
		if other.ID == t.ID {
			continue
		}
		for _, s := range t.Subtasks {
			if other.SubtaskIndex(s.ID) >= 0 {
				return fmt.Errorf("subtask %s belongs to task %s: %w", s.ID, other.ID, task.ErrDuplicateSubtaskID)
			}
		}
	}
	return nil
}
