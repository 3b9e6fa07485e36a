package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"zero/internal/task"
)

type styles struct {
	title    lipgloss.Style
	section  lipgloss.Style
	selected lipgloss.Style
	muted    lipgloss.Style
	status   lipgloss.Style
	pinned   lipgloss.Style
	priority map[task.Priority]lipgloss.Style
}

func newStyles(theme task.Theme) styles {
	pick := func(light, dark string) lipgloss.TerminalColor {
		switch theme {
		case task.ThemeLight:
			return lipgloss.Color(light)
		case task.ThemeDark:
			return lipgloss.Color(dark)
		default:
			return lipgloss.AdaptiveColor{Light: light, Dark: dark}
		}
	}
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(pick("#4A148C", "#CE93D8")),
		section:  lipgloss.NewStyle().Bold(true).Underline(true).Foreground(pick("#212121", "#EEEEEE")),
		selected: lipgloss.NewStyle().Bold(true).Foreground(pick("#0D47A1", "#90CAF9")),
		muted:    lipgloss.NewStyle().Foreground(pick("#757575", "#9E9E9E")),
		status:   lipgloss.NewStyle().Italic(true).Foreground(pick("#37474F", "#B0BEC5")),
		pinned:   lipgloss.NewStyle().Foreground(pick("#F57F17", "#FFE082")),
		priority: map[task.Priority]lipgloss.Style{
			task.High:   lipgloss.NewStyle().Foreground(pick("#C62828", "#EF9A9A")),
			task.Medium: lipgloss.NewStyle().Foreground(pick("#EF6C00", "#FFCC80")),
			task.Low:    lipgloss.NewStyle().Foreground(pick("#2E7D32", "#A5D6A7")),
		},
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render("Zero Management"))
	b.WriteString(m.styles.muted.Render(fmt.Sprintf("  theme: %s", m.vm.Theme())))
	b.WriteString("\n\n")

	switch {
	case m.form != nil:
		b.WriteString(m.renderForm())
	case m.detail != nil:
		b.WriteString(m.renderDetail())
	default:
		if m.mode == modeSearch || m.query != "" {
			b.WriteString("Search: ")
			if m.mode == modeSearch {
				b.WriteString(m.input.View())
			} else {
				b.WriteString(m.query)
			}
			b.WriteString("\n\n")
		}
		b.WriteString(m.renderSection("To-Do", m.view.ToDo, panelToDo))
		b.WriteString("\n")
		b.WriteString(m.renderSection("Completed", m.view.Completed, panelCompleted))
		b.WriteString("\n---\n")
		b.WriteString(m.renderSummary())
	}

	b.WriteString("\n\n")
	b.WriteString(m.styles.status.Render(m.status))
	b.WriteString("\n")
	b.WriteString(m.styles.muted.Render(renderHelp(m.cfg.Keys)))
	return b.String()
}

func (m Model) renderSection(name string, tasks []task.Task, p panel) string {
	var b strings.Builder
	b.WriteString(m.styles.section.Render(fmt.Sprintf("%s (%d)", name, len(tasks))))
	b.WriteString("\n")
	if len(tasks) == 0 {
		if p == panelToDo && m.query != "" {
			b.WriteString(m.styles.muted.Render("  No matching tasks."))
		} else if p == panelToDo {
			b.WriteString(m.styles.muted.Render(fmt.Sprintf("  Nothing to do. Press '%s' to add a task.", m.cfg.Keys.Add)))
		} else {
			b.WriteString(m.styles.muted.Render("  Nothing completed yet."))
		}
		b.WriteString("\n")
		return b.String()
	}
	for i, t := range tasks {
		cursor := " "
		active := m.panel == p && m.cursor == i && m.mode != modeSearch
		if active {
			cursor = ">"
		}
		line := fmt.Sprintf("%s %s %s", cursor, checkbox(t.IsCompleted), t.Title)
		if active {
			line = m.styles.selected.Render(line)
		}
		b.WriteString(line)
		b.WriteString(" ")
		b.WriteString(m.styles.priority[t.Priority].Render("●"))
		if t.IsPinned {
			b.WriteString(m.styles.pinned.Render(" 📌"))
		}
		if !t.IsCompleted {
			b.WriteString(m.styles.muted.Render(" due " + relative(t.DueDate)))
		}
		if n := len(t.Subtasks); n > 0 {
			b.WriteString(m.styles.muted.Render(fmt.Sprintf(" [%d/%d]", doneSubtasks(t), n)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderSummary() string {
	t, ok := m.selected()
	if !ok {
		return "No task selected"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Title     : %s\n", t.Title))
	b.WriteString(fmt.Sprintf("Priority  : %s\n", t.Priority))
	b.WriteString(fmt.Sprintf("From      : %s\n", formatDate(t.FromDate)))
	b.WriteString(fmt.Sprintf("Due       : %s (%s)\n", formatDate(t.DueDate), relative(t.DueDate)))
	if t.ReminderDate != nil {
		b.WriteString(fmt.Sprintf("Reminder  : %s\n", formatDate(*t.ReminderDate)))
	}
	b.WriteString(fmt.Sprintf("Subtasks  : %d/%d done\n", doneSubtasks(t), len(t.Subtasks)))
	b.WriteString(fmt.Sprintf("Images    : %d\n", len(t.ImageURIs)))
	return b.String()
}

func (m Model) renderDetail() string {
	t, ok := m.vm.Task(m.detail.taskID)
	if !ok {
		return "Task no longer exists"
	}
	var b strings.Builder
	header := t.Title
	if t.IsPinned {
		header += " 📌"
	}
	b.WriteString(m.styles.section.Render(header))
	b.WriteString("\n")
	b.WriteString(m.styles.priority[t.Priority].Render(t.Priority.String()))
	b.WriteString(m.styles.muted.Render(fmt.Sprintf("  %s → %s", formatDate(t.FromDate), formatDate(t.DueDate))))
	if t.IsCompleted {
		b.WriteString(m.styles.muted.Render("  (completed)"))
	}
	b.WriteString("\n")
	if t.ReminderDate != nil {
		b.WriteString(fmt.Sprintf("Reminder: %s\n", formatDate(*t.ReminderDate)))
	}
	if strings.TrimSpace(t.Description) != "" {
		b.WriteString("\n")
		b.WriteString(t.Description)
		b.WriteString("\n")
	}

	idx := 0
	line := func(text string) {
		cursor := " "
		if idx == m.detail.cursor {
			cursor = ">"
			text = m.styles.selected.Render(text)
		}
		b.WriteString(cursor + " " + text + "\n")
		idx++
	}
	if len(t.Subtasks) > 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.section.Render("Subtasks"))
		b.WriteString("\n")
		for _, s := range t.Subtasks {
			line(checkbox(s.IsCompleted) + " " + s.Title)
		}
	}
	if len(t.References) > 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.section.Render("References"))
		b.WriteString("\n")
		for _, r := range t.References {
			line(r)
		}
	}
	if len(t.ImageURIs) > 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.section.Render("Images"))
		b.WriteString("\n")
		for _, u := range t.ImageURIs {
			b.WriteString("  " + u + "\n")
		}
	}
	return b.String()
}

func (m Model) renderForm() string {
	var b strings.Builder
	if m.form.editing == nil {
		b.WriteString(m.styles.section.Render("New task"))
	} else {
		b.WriteString(m.styles.section.Render("Edit task"))
	}
	b.WriteString("\n\n")
	for i := 0; i < fieldCount; i++ {
		prefix := " "
		val := m.form.values[i]
		if i == m.form.index {
			prefix = ">"
			val = m.input.Value()
		}
		if strings.TrimSpace(val) == "" {
			val = m.styles.muted.Render("(empty)")
		}
		b.WriteString(fmt.Sprintf("%s %-40s : %s\n", prefix, fieldLabels[i], val))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func doneSubtasks(t task.Task) int {
	n := 0
	for _, s := range t.Subtasks {
		if s.IsCompleted {
			n++
		}
	}
	return n
}

func relative(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}
