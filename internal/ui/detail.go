package ui

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// detailState tracks the open task by id; the task itself is read from the
// view model on every render so deletions are noticed.
type detailState struct {
	taskID string
	// cursor runs over subtasks first, then references.
	cursor int
}

var writeClipboard = clipboard.WriteAll

func (m Model) updateDetailMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	t, ok := m.vm.Task(m.detail.taskID)
	if !ok {
		m.closeGone()
		return m, nil
	}
	items := len(t.Subtasks) + len(t.References)

	switch key {
	case k.Cancel, k.Quit:
		m.detail = nil
		m.mode = modeList
		m.status = ""
	case k.Down, "down":
		m.detail.cursor = clampCursor(m.detail.cursor+1, items)
	case k.Up, "up":
		m.detail.cursor = clampCursor(m.detail.cursor-1, items)
	case k.Toggle:
		if m.detail.cursor >= len(t.Subtasks) {
			return m, nil
		}
		s := t.Subtasks[m.detail.cursor]
		return m, m.run("Subtask updated", func(ctx context.Context) error {
			return m.vm.SetSubtaskCompleted(ctx, s.ID, !s.IsCompleted)
		})
	case k.CopyRef:
		i := m.detail.cursor - len(t.Subtasks)
		if i < 0 || i >= len(t.References) {
			m.status = "Select a reference to copy"
			return m, nil
		}
		// A failed copy is only logged.
		if err := writeClipboard(t.References[i]); err != nil {
			m.logger.Printf("ui: clipboard: %v", err)
			return m, nil
		}
		m.status = fmt.Sprintf("Copied %s", t.References[i])
	case k.Pin:
		status := "Pinned"
		if t.IsPinned {
			status = "Unpinned"
		}
		return m, m.run(status, func(ctx context.Context) error {
			return m.vm.TogglePin(ctx, t)
		})
	case k.Edit:
		return m.startForm(&t)
	case k.Delete:
		m.confirmDel = true
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", t.Title)
	}
	return m, nil
}
