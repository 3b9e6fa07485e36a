package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"zero/internal/storage"
	"zero/internal/task"
)

const (
	fieldTitle = iota
	fieldFrom
	fieldDue
	fieldReminder
	fieldPriority
	fieldDescription
	fieldReferences
	fieldImages
	fieldSubtasks
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"title",
	"from date (YYYY-MM-DD [HH:MM])",
	"due date (YYYY-MM-DD [HH:MM])",
	"reminder (YYYY-MM-DD [HH:MM], optional)",
	"priority (low/medium/high)",
	"description",
	"references (comma separated)",
	"images (comma separated, max 3)",
	"subtasks (semicolon separated)",
}

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

type formState struct {
	editing *task.Task
	values  [fieldCount]string
	index   int
	saving  bool
}

type formSavedMsg struct {
	status string
	err    error
}

func newFormState(t *task.Task) *formState {
	fs := &formState{}
	if t == nil {
		fs.values[fieldPriority] = strings.ToLower(task.Medium.String())
		return fs
	}
	c := t.Clone()
	fs.editing = &c
	fs.values[fieldTitle] = c.Title
	fs.values[fieldFrom] = formatDate(c.FromDate)
	fs.values[fieldDue] = formatDate(c.DueDate)
	if c.ReminderDate != nil {
		fs.values[fieldReminder] = formatDate(*c.ReminderDate)
	}
	fs.values[fieldPriority] = strings.ToLower(c.Priority.String())
	fs.values[fieldDescription] = c.Description
	fs.values[fieldReferences] = strings.Join(c.References, ", ")
	fs.values[fieldImages] = strings.Join(c.ImageURIs, ", ")
	titles := make([]string, len(c.Subtasks))
	for i, s := range c.Subtasks {
		titles[i] = s.Title
	}
	fs.values[fieldSubtasks] = strings.Join(titles, "; ")
	return fs
}

func (m Model) startForm(t *task.Task) (tea.Model, tea.Cmd) {
	m.form = newFormState(t)
	m.mode = modeForm
	m.input.SetValue(m.form.values[m.form.index])
	m.input.Placeholder = fieldLabels[m.form.index]
	m.input.Focus()
	if t == nil {
		m.status = "New task: enter to advance, tab/shift+tab to move, esc to cancel"
	} else {
		m.status = "Editing task: enter to advance, tab/shift+tab to move, esc to cancel"
	}
	return m, nil
}

func (m Model) updateFormMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		m.mode = modeList
		return m, nil
	}
	if m.form.saving {
		return m, nil
	}
	switch key {
	case m.cfg.Keys.Cancel:
		m.form = nil
		m.mode = modeList
		m.input.Blur()
		m.status = "Cancelled"
		if m.detail != nil {
			m.mode = modeDetail
		}
		return m, nil
	case m.cfg.Keys.NextField, "down":
		return m.moveField(1), nil
	case m.cfg.Keys.PrevField, "up":
		return m.moveField(-1), nil
	case m.cfg.Keys.Confirm:
		m.form.values[m.form.index] = m.input.Value()
		if m.form.index >= fieldCount-1 {
			return m.submitForm()
		}
		return m.moveField(1), nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) moveField(delta int) Model {
	m.form.values[m.form.index] = m.input.Value()
	m.form.index = wrapIndex(m.form.index+delta, fieldCount)
	m.input.SetValue(m.form.values[m.form.index])
	m.input.Placeholder = fieldLabels[m.form.index]
	m.status = fmt.Sprintf("Editing %s (field %d of %d)", fieldLabels[m.form.index], m.form.index+1, fieldCount)
	return m
}

// submitForm validates before anything reaches the repository; on failure
// the form stays open.
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	t, err := m.form.build()
	if err == nil {
		err = t.Validate()
	}
	if err != nil {
		m.status = fmt.Sprintf("Cannot save: %v", err)
		return m, nil
	}
	m.form.saving = true
	m.status = "Saving..."
	vm, ctx, isNew := m.vm, m.ctx, m.form.editing == nil
	return m, func() tea.Msg {
		if isNew {
			return formSavedMsg{status: "Added task", err: vm.AddTask(ctx, t)}
		}
		return formSavedMsg{status: "Task saved", err: vm.SaveTask(ctx, t)}
	}
}

func (m Model) formSaved(msg formSavedMsg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	m.form.saving = false
	if errors.Is(msg.err, storage.ErrNotFound) {
		m.closeGone()
		return m, nil
	}
	if msg.err != nil {
		m.logger.Printf("ui: save: %v", msg.err)
		m.status = fmt.Sprintf("Cannot save: %v", msg.err)
		return m, nil
	}
	m.form = nil
	m.input.Blur()
	m.input.SetValue("")
	m.status = msg.status
	m.mode = modeList
	if m.detail != nil {
		m.mode = modeDetail
	}
	return m, nil
}

// build turns the field values into a task. Edits start from the original
// record so completion, pin state and subtask ids survive.
func (fs *formState) build() (task.Task, error) {
	var t task.Task
	if fs.editing != nil {
		t = fs.editing.Clone()
	} else {
		t = task.New("", time.Time{}, time.Time{})
	}
	t.Title = strings.TrimSpace(fs.values[fieldTitle])

	var err error
	if t.FromDate, err = parseDate(fs.values[fieldFrom]); err != nil {
		return t, fmt.Errorf("from date: %w", err)
	}
	if t.DueDate, err = parseDate(fs.values[fieldDue]); err != nil {
		return t, fmt.Errorf("due date: %w", err)
	}
	reminder, err := parseDate(fs.values[fieldReminder])
	if err != nil {
		return t, fmt.Errorf("reminder: %w", err)
	}
	t.ReminderDate = nil
	if !reminder.IsZero() {
		t.ReminderDate = &reminder
	}
	if t.Priority, err = task.ParsePriority(fs.values[fieldPriority]); err != nil {
		return t, err
	}
	t.Description = fs.values[fieldDescription]
	t.References = task.ParseReferences(fs.values[fieldReferences])

	images := splitList(fs.values[fieldImages], ",")
	if len(images) > task.MaxImages {
		return t, task.ErrTooManyImages
	}
	t.ImageURIs = task.CapImages(images)

	var existing []task.Subtask
	if fs.editing != nil {
		existing = fs.editing.Subtasks
	}
	t.Subtasks = mergeSubtasks(existing, splitList(fs.values[fieldSubtasks], ";"))
	return t, nil
}

// mergeSubtasks keeps the entered order and reuses an existing subtask for
// each title that matches one not yet claimed.
func mergeSubtasks(existing []task.Subtask, titles []string) []task.Subtask {
	if len(titles) == 0 {
		return nil
	}
	used := make([]bool, len(existing))
	out := make([]task.Subtask, 0, len(titles))
	for _, title := range titles {
		reused := false
		for i, s := range existing {
			if !used[i] && s.Title == title {
				used[i] = true
				out = append(out, s)
				reused = true
				break
			}
		}
		if !reused {
			out = append(out, task.NewSubtask(title))
		}
	}
	return out
}

func splitList(v, sep string) []string {
	var out []string
	for _, part := range strings.Split(v, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(dateTimeLayout, v, time.Local); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, time.Local)
	if err != nil {
		return time.Time{}, errors.New("use YYYY-MM-DD or YYYY-MM-DD HH:MM")
	}
	return t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Local()
	if t.Hour() == 0 && t.Minute() == 0 {
		return t.Format(dateLayout)
	}
	return t.Format(dateTimeLayout)
}
