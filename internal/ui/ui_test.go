package ui

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zero/internal/config"
	"zero/internal/prefs"
	"zero/internal/repository"
	"zero/internal/storage"
	"zero/internal/task"
	"zero/internal/viewmodel"
	"zero/internal/widget"
)

func newTestModel(t *testing.T) (Model, *viewmodel.ViewModel) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.Open(filepath.Join(dir, "tasks.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	themePrefs, err := prefs.Open(filepath.Join(dir, "prefs.toml"))
	require.NoError(t, err)
	widgetPrefs, err := prefs.Open(filepath.Join(dir, "widget.yaml"))
	require.NoError(t, err)

	vm := viewmodel.New(repository.New(store, themePrefs), widget.NewMirror(widgetPrefs), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		vm.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	require.Eventually(t, vm.Loaded, 2*time.Second, 5*time.Millisecond)

	cfg := config.Config{Keys: config.DefaultKeymap()}
	return NewModel(ctx, vm, NewInbox(), cfg, nil), vm
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, s string) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key(s))
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

// exec runs a command synchronously and feeds its message back.
func exec(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(Model)
}

func waitTasks(t *testing.T, vm *viewmodel.ViewModel, cond func([]task.Task) bool) {
	t.Helper()
	require.Eventually(t, func() bool { return cond(vm.Tasks()) }, 2*time.Second, 5*time.Millisecond)
}

func sampleTask(title string) task.Task {
	from := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	return task.New(title, from, from.Add(48*time.Hour))
}

func TestFormBuild_NewTask(t *testing.T) {
	fs := newFormState(nil)
	fs.values[fieldTitle] = "  Ship release  "
	fs.values[fieldFrom] = "2024-06-01"
	fs.values[fieldDue] = "2024-06-03 17:30"
	fs.values[fieldPriority] = "high"
	fs.values[fieldDescription] = "tag and publish"
	fs.values[fieldReferences] = "a.com, , b.com"
	fs.values[fieldImages] = "one.png, two.png"
	fs.values[fieldSubtasks] = "build; test"

	got, err := fs.build()
	require.NoError(t, err)
	require.NoError(t, got.Validate())

	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "Ship release", got.Title)
	assert.Equal(t, task.High, got.Priority)
	assert.Equal(t, []string{"a.com", "b.com"}, got.References)
	assert.Equal(t, []string{"one.png", "two.png"}, got.ImageURIs)
	require.Len(t, got.Subtasks, 2)
	assert.Equal(t, "build", got.Subtasks[0].Title)
	assert.Nil(t, got.ReminderDate)
	assert.Equal(t, 17, got.DueDate.Hour())
}

func TestFormBuild_RejectsTooManyImages(t *testing.T) {
	fs := newFormState(nil)
	fs.values[fieldTitle] = "x"
	fs.values[fieldFrom] = "2024-06-01"
	fs.values[fieldDue] = "2024-06-02"
	fs.values[fieldImages] = "1, 2, 3, 4"

	_, err := fs.build()
	assert.ErrorIs(t, err, task.ErrTooManyImages)
}

func TestFormBuild_BadDate(t *testing.T) {
	fs := newFormState(nil)
	fs.values[fieldTitle] = "x"
	fs.values[fieldFrom] = "June 1st"

	_, err := fs.build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from date")
}

func TestFormBuild_EditKeepsIdentity(t *testing.T) {
	orig := sampleTask("Write report")
	orig.IsCompleted = true
	orig.IsPinned = true
	orig.Subtasks = []task.Subtask{task.NewSubtask("outline"), task.NewSubtask("draft")}
	orig.Subtasks[1].IsCompleted = true

	fs := newFormState(&orig)
	fs.values[fieldSubtasks] = "draft; polish"

	got, err := fs.build()
	require.NoError(t, err)
	assert.Equal(t, orig.ID, got.ID)
	assert.True(t, got.IsCompleted)
	assert.True(t, got.IsPinned)
	require.Len(t, got.Subtasks, 2)
	assert.Equal(t, orig.Subtasks[1], got.Subtasks[0])
	assert.Equal(t, "polish", got.Subtasks[1].Title)
	assert.NotEqual(t, orig.Subtasks[0].ID, got.Subtasks[1].ID)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	d, err = parseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.February, d.Month())
	assert.Equal(t, "2024-02-29", formatDate(d))

	d, err = parseDate("2024-02-29 08:15")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29 08:15", formatDate(d))

	_, err = parseDate("29/02/2024")
	assert.Error(t, err)
}

func TestInbox_DropsWhenFull(t *testing.T) {
	in := NewInbox()
	for i := 0; i < cap(in.ch); i++ {
		require.NoError(t, in.Notify("t", "b"))
	}
	assert.Error(t, in.Notify("t", "overflow"))
}

func TestModel_AddTaskThroughForm(t *testing.T) {
	m, vm := newTestModel(t)

	m, _ = press(t, m, "a")
	require.Equal(t, modeForm, m.mode)

	values := [fieldCount]string{"Plan sprint", "2024-06-01", "2024-06-02", "", "low", "", "", "", ""}
	var cmd tea.Cmd
	for i, v := range values {
		m.input.SetValue(v)
		m, cmd = press(t, m, "enter")
		if i < fieldCount-1 {
			assert.Nil(t, cmd)
		}
	}
	require.True(t, m.form.saving)
	m = exec(t, m, cmd)

	assert.Equal(t, modeList, m.mode)
	assert.Nil(t, m.form)
	waitTasks(t, vm, func(ts []task.Task) bool { return len(ts) == 1 && ts[0].Title == "Plan sprint" })
}

func TestModel_InvalidFormStaysOpen(t *testing.T) {
	m, vm := newTestModel(t)

	m, _ = press(t, m, "a")
	var cmd tea.Cmd
	for i := 0; i < fieldCount; i++ {
		m, cmd = press(t, m, "enter")
	}
	assert.Nil(t, cmd)
	assert.Equal(t, modeForm, m.mode)
	assert.Contains(t, m.status, "Cannot save")
	assert.Empty(t, vm.Tasks())
}

func TestModel_ToggleDoneMovesTask(t *testing.T) {
	m, vm := newTestModel(t)
	require.NoError(t, vm.AddTask(context.Background(), sampleTask("Laundry")))
	waitTasks(t, vm, func(ts []task.Task) bool { return len(ts) == 1 })
	m.refresh()
	require.Len(t, m.view.ToDo, 1)

	m, cmd := press(t, m, " ")
	m = exec(t, m, cmd)
	assert.Equal(t, "Marked done", m.status)

	waitTasks(t, vm, func(ts []task.Task) bool { return ts[0].IsCompleted })
	m.refresh()
	assert.Empty(t, m.view.ToDo)
	assert.Len(t, m.view.Completed, 1)
}

func TestModel_DeleteNeedsConfirmation(t *testing.T) {
	m, vm := newTestModel(t)
	require.NoError(t, vm.AddTask(context.Background(), sampleTask("Old idea")))
	waitTasks(t, vm, func(ts []task.Task) bool { return len(ts) == 1 })
	m.refresh()

	m, _ = press(t, m, "d")
	require.True(t, m.confirmDel)
	m, _ = press(t, m, "n")
	assert.False(t, m.confirmDel)
	assert.Len(t, vm.Tasks(), 1)

	m, _ = press(t, m, "d")
	m, cmd := press(t, m, "y")
	m = exec(t, m, cmd)
	assert.Equal(t, "Deleted task", m.status)
	waitTasks(t, vm, func(ts []task.Task) bool { return len(ts) == 0 })
}

func TestModel_SearchFiltersToDo(t *testing.T) {
	m, vm := newTestModel(t)
	ctx := context.Background()
	require.NoError(t, vm.AddTask(ctx, sampleTask("Buy milk")))
	require.NoError(t, vm.AddTask(ctx, sampleTask("Call bank")))
	waitTasks(t, vm, func(ts []task.Task) bool { return len(ts) == 2 })
	m.refresh()

	m, _ = press(t, m, "/")
	require.Equal(t, modeSearch, m.mode)
	for _, r := range "MILK" {
		m, _ = press(t, m, string(r))
	}
	require.Len(t, m.view.ToDo, 1)
	assert.Equal(t, "Buy milk", m.view.ToDo[0].Title)

	m, _ = press(t, m, "esc")
	assert.Equal(t, modeList, m.mode)
	assert.Len(t, m.view.ToDo, 2)
}

func TestModel_DetailCopiesReference(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { writeClipboard = orig })

	m, vm := newTestModel(t)
	tk := sampleTask("Read docs")
	tk.Subtasks = []task.Subtask{task.NewSubtask("skim")}
	tk.References = []string{"https://go.dev/doc"}
	require.NoError(t, vm.AddTask(context.Background(), tk))
	waitTasks(t, vm, func(ts []task.Task) bool { return len(ts) == 1 })
	m.refresh()

	m, _ = press(t, m, "enter")
	require.Equal(t, modeDetail, m.mode)

	m, _ = press(t, m, "y")
	assert.Empty(t, copied)
	assert.Equal(t, "Select a reference to copy", m.status)

	m, _ = press(t, m, "j")
	m, _ = press(t, m, "y")
	assert.Equal(t, "https://go.dev/doc", copied)
	assert.Contains(t, m.View(), "References")
}

func TestModel_DetailCopyFailureOnlyLogged(t *testing.T) {
	orig := writeClipboard
	writeClipboard = func(string) error { return errors.New("no clipboard") }
	t.Cleanup(func() { writeClipboard = orig })

	m, vm := newTestModel(t)
	tk := sampleTask("Read docs")
	tk.References = []string{"ref"}
	require.NoError(t, vm.AddTask(context.Background(), tk))
	waitTasks(t, vm, func(ts []task.Task) bool { return len(ts) == 1 })
	m.refresh()

	m, _ = press(t, m, "enter")
	before := m.status
	m, _ = press(t, m, "y")
	assert.Equal(t, before, m.status)
	assert.Equal(t, modeDetail, m.mode)
}

func TestModel_DetailClosesWhenTaskDeleted(t *testing.T) {
	m, vm := newTestModel(t)
	tk := sampleTask("Ephemeral")
	require.NoError(t, vm.AddTask(context.Background(), tk))
	waitTasks(t, vm, func(ts []task.Task) bool { return len(ts) == 1 })
	m.refresh()

	m, _ = press(t, m, "enter")
	require.Equal(t, modeDetail, m.mode)

	require.NoError(t, vm.DeleteTask(context.Background(), tk))
	waitTasks(t, vm, func(ts []task.Task) bool { return len(ts) == 0 })
	next, _ := m.Update(tasksChangedMsg{})
	m = next.(Model)

	assert.Equal(t, modeList, m.mode)
	assert.Nil(t, m.detail)
	assert.Equal(t, "Task no longer exists", m.status)
}

func TestModel_EditFormClosesWhenTaskDeleted(t *testing.T) {
	m, vm := newTestModel(t)
	tk := sampleTask("Doomed")
	require.NoError(t, vm.AddTask(context.Background(), tk))
	waitTasks(t, vm, func(ts []task.Task) bool { return len(ts) == 1 })
	m.refresh()

	m, _ = press(t, m, "e")
	require.Equal(t, modeForm, m.mode)

	require.NoError(t, vm.DeleteTask(context.Background(), tk))
	waitTasks(t, vm, func(ts []task.Task) bool { return len(ts) == 0 })
	next, _ := m.Update(tasksChangedMsg{})
	m = next.(Model)

	assert.Equal(t, modeList, m.mode)
	assert.Nil(t, m.form)
	assert.Equal(t, "Task no longer exists", m.status)
}

func TestModel_SavingEditOfDeletedTaskDoesNotRecreateIt(t *testing.T) {
	m, vm := newTestModel(t)
	tk := sampleTask("Doomed")
	require.NoError(t, vm.AddTask(context.Background(), tk))
	waitTasks(t, vm, func(ts []task.Task) bool { return len(ts) == 1 })
	m.refresh()

	m, _ = press(t, m, "e")
	require.NoError(t, vm.DeleteTask(context.Background(), tk))
	waitTasks(t, vm, func(ts []task.Task) bool { return len(ts) == 0 })

	// The deletion has not reached the model yet; submit the stale form.
	var cmd tea.Cmd
	for i := 0; i < fieldCount; i++ {
		m, cmd = press(t, m, "enter")
	}
	m = exec(t, m, cmd)

	assert.Equal(t, modeList, m.mode)
	assert.Nil(t, m.form)
	assert.Equal(t, "Task no longer exists", m.status)
	assert.Never(t, func() bool { return len(vm.Tasks()) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestModel_DetailEditClosesWhenTaskDeleted(t *testing.T) {
	m, vm := newTestModel(t)
	tk := sampleTask("Ephemeral")
	require.NoError(t, vm.AddTask(context.Background(), tk))
	waitTasks(t, vm, func(ts []task.Task) bool { return len(ts) == 1 })
	m.refresh()

	m, _ = press(t, m, "enter")
	m, _ = press(t, m, "e")
	require.Equal(t, modeForm, m.mode)
	require.NotNil(t, m.detail)

	require.NoError(t, vm.DeleteTask(context.Background(), tk))
	waitTasks(t, vm, func(ts []task.Task) bool { return len(ts) == 0 })
	next, _ := m.Update(tasksChangedMsg{})
	m = next.(Model)

	assert.Equal(t, modeList, m.mode)
	assert.Nil(t, m.form)
	assert.Nil(t, m.detail)
	assert.False(t, m.input.Focused())
	assert.NotContains(t, m.View(), "Edit task")
}

func TestModel_NotificationShownInStatus(t *testing.T) {
	m, _ := newTestModel(t)
	next, cmd := m.Update(notificationMsg{title: "Task Reminder", body: "You have 2 tasks due today!"})
	m = next.(Model)
	assert.Contains(t, m.status, "You have 2 tasks due today!")
	assert.NotNil(t, cmd)
}

func TestModel_ThemeKeyCycles(t *testing.T) {
	m, vm := newTestModel(t)
	require.Equal(t, task.ThemeSystem, vm.Theme())

	m, cmd := press(t, m, "t")
	m = exec(t, m, cmd)
	assert.Equal(t, task.ThemeLight, vm.Theme())
	assert.Equal(t, "Theme: Light", m.status)
	assert.Contains(t, m.View(), "theme: Light")
}

func TestClampAndWrap(t *testing.T) {
	assert.Equal(t, 0, clampCursor(5, 0))
	assert.Equal(t, 2, clampCursor(5, 3))
	assert.Equal(t, 0, clampCursor(-1, 3))
	assert.Equal(t, 8, wrapIndex(-1, 9))
	assert.Equal(t, 0, wrapIndex(9, 9))
}
