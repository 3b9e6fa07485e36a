package viewmodel

import (
	"cmp"
	"slices"
	"strings"

	"zero/internal/task"
)

// View is the home screen projection of the task list.
type View struct {
	// ToDo holds open tasks, pinned first, then by priority, then store order.
	ToDo []task.Task
	// Completed holds finished tasks in store order. The search query does
	// not apply to it.
	Completed []task.Task
}

// Derive partitions, sorts and filters tasks for display.
func Derive(tasks []task.Task, query string) View {
	var v View
	for _, t := range tasks {
		if t.IsCompleted {
			v.Completed = append(v.Completed, t)
		} else {
			v.ToDo = append(v.ToDo, t)
		}
	}
	slices.SortStableFunc(v.ToDo, compareOpen)
	v.ToDo = Filter(v.ToDo, query)
	return v
}

func compareOpen(a, b task.Task) int {
	if a.IsPinned != b.IsPinned {
		if a.IsPinned {
			return -1
		}
		return 1
	}
	return cmp.Compare(b.Priority.Rank(), a.Priority.Rank())
}

// Filter keeps tasks whose title or description contains query, ignoring
// case. An empty query keeps everything.
func Filter(tasks []task.Task, query string) []task.Task {
	if query == "" {
		return tasks
	}
	q := strings.ToLower(query)
	var out []task.Task
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), q) || strings.Contains(strings.ToLower(t.Description), q) {
			out = append(out, t)
		}
	}
	return out
}
