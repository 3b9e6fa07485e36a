// Package repository is the single entry point the rest of the app uses for
// task records and the theme preference. It performs no validation.
package repository

import (
	"context"

	"zero/internal/prefs"
	"zero/internal/storage"
	"zero/internal/task"
)

const themeKey = "theme"

type Repository struct {
	store *storage.Store
	prefs *prefs.Store
}

func New(store *storage.Store, themePrefs *prefs.Store) *Repository {
	return &Repository{store: store, prefs: themePrefs}
}

// AllTasks streams the full task list, once now and again after every write.
func (r *Repository) AllTasks(ctx context.Context) (<-chan []task.Task, error) {
	return r.store.Subscribe(ctx)
}

// TaskByID streams one task; nil means it does not exist (or was deleted).
func (r *Repository) TaskByID(ctx context.Context, id string) (<-chan *task.Task, error) {
	return r.store.Watch(ctx, id)
}

// Tasks reads the current task list once.
func (r *Repository) Tasks(ctx context.Context) ([]task.Task, error) {
	return r.store.All(ctx)
}

func (r *Repository) Task(ctx context.Context, id string) (task.Task, error) {
	return r.store.Get(ctx, id)
}

func (r *Repository) InsertTask(ctx context.Context, t task.Task) error {
	return r.store.Insert(ctx, t)
}

// UpdateTask replaces an existing task and fails with storage.ErrNotFound
// when it has been deleted.
func (r *Repository) UpdateTask(ctx context.Context, t task.Task) error {
	return r.store.Update(ctx, t)
}

// SaveTask writes t whether or not its id is stored yet.
func (r *Repository) SaveTask(ctx context.Context, t task.Task) error {
	return r.store.Upsert(ctx, t)
}

func (r *Repository) DeleteTask(ctx context.Context, t task.Task) error {
	return r.store.Delete(ctx, t.ID)
}

func (r *Repository) SaveTheme(theme task.Theme) error {
	return r.prefs.Set(themeKey, string(theme))
}

// LoadTheme returns System when no theme was saved.
func (r *Repository) LoadTheme() (task.Theme, error) {
	v, err := r.prefs.GetOr(themeKey, string(task.ThemeSystem))
	return task.ParseTheme(v), err
}
