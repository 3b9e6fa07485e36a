// Package widget maintains the pinned-task mirror read by the home screen
// widget, a separate process that only sees the mirror file.
package widget

import (
	"fmt"

	"zero/internal/codec"
	"zero/internal/prefs"
	"zero/internal/task"
)

// PinnedKey is the mirror entry holding the JSON array of pinned tasks.
const PinnedKey = "pinned_tasks"

// Pinned keeps the pinned tasks in source order.
func Pinned(tasks []task.Task) []task.Task {
	var out []task.Task
	for _, t := range tasks {
		if t.IsPinned {
			out = append(out, t)
		}
	}
	return out
}

type Mirror struct {
	prefs *prefs.Store
}

func NewMirror(p *prefs.Store) *Mirror {
	return &Mirror{prefs: p}
}

// Publish replaces the mirror with the pinned subset of tasks.
func (m *Mirror) Publish(tasks []task.Task) error {
	blob, err := codec.EncodeTasks(Pinned(tasks))
	if err != nil {
		return fmt.Errorf("encoding pinned tasks: %w", err)
	}
	return m.prefs.Set(PinnedKey, blob)
}

// Load decodes the mirror the way the widget does: anything unreadable is
// an empty list.
func (m *Mirror) Load() codec.Result[[]task.Task] {
	blob, err := m.prefs.GetOr(PinnedKey, "[]")
	if err != nil {
		return codec.Result[[]task.Task]{Err: err}
	}
	return codec.DecodeTasks(blob)
}
