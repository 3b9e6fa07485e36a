package ui

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"zero/internal/config"
	"zero/internal/task"
	"zero/internal/viewmodel"
)

type mode int

const (
	modeList mode = iota
	modeSearch
	modeForm
	modeDetail
)

type panel int

const (
	panelToDo panel = iota
	panelCompleted
)

type tasksChangedMsg struct{}

type themeChangedMsg struct {
	theme task.Theme
	err   error
}

type notificationMsg struct {
	title, body string
}

// opDoneMsg reports the outcome of a write started from the UI.
type opDoneMsg struct {
	status string
	err    error
}

type Model struct {
	ctx    context.Context
	vm     *viewmodel.ViewModel
	inbox  *Inbox
	cfg    config.Config
	logger *log.Logger

	view       viewmodel.View
	panel      panel
	cursor     int
	mode       mode
	input      textinput.Model
	query      string
	status     string
	confirmDel bool
	pendingDel *task.Task
	form       *formState
	detail     *detailState
	styles     styles
	width      int
}

// Run starts the interactive program. The view model must already be running.
func Run(ctx context.Context, vm *viewmodel.ViewModel, inbox *Inbox, cfg config.Config, logger *log.Logger) error {
	m := NewModel(ctx, vm, inbox, cfg, logger)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func NewModel(ctx context.Context, vm *viewmodel.ViewModel, inbox *Inbox, cfg config.Config, logger *log.Logger) Model {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	ti := textinput.New()
	ti.Placeholder = "Search"
	ti.CharLimit = 256
	ti.Width = 40

	return Model{
		ctx:    ctx,
		vm:     vm,
		inbox:  inbox,
		cfg:    cfg,
		logger: logger,
		view:   vm.View(""),
		status: fmt.Sprintf("Press '%s' to add, '%s' to search, '%s' for help below.", cfg.Keys.Add, cfg.Keys.Search, cfg.Keys.Detail),
		input:  ti,
		mode:   modeList,
		styles: newStyles(vm.Theme()),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.vm), waitForNotification(m.inbox))
}

func waitForUpdate(vm *viewmodel.ViewModel) tea.Cmd {
	return func() tea.Msg {
		<-vm.Updates()
		return tasksChangedMsg{}
	}
}

func waitForNotification(inbox *Inbox) tea.Cmd {
	if inbox == nil {
		return nil
	}
	return func() tea.Msg {
		n := <-inbox.ch
		return notificationMsg{title: n.title, body: n.body}
	}
}

// run performs a write off the UI goroutine.
func (m Model) run(status string, op func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{status: status, err: op(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		switch m.mode {
		case modeForm:
			return m.updateFormMode(msg.String(), msg)
		case modeSearch:
			return m.updateSearchMode(msg.String(), msg)
		case modeDetail:
			return m.updateDetailMode(msg.String())
		}
		return m.updateListMode(msg.String())
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - 10
	case tasksChangedMsg:
		m.refresh()
		return m, waitForUpdate(m.vm)
	case notificationMsg:
		m.status = fmt.Sprintf("🔔 %s: %s", msg.title, msg.body)
		return m, waitForNotification(m.inbox)
	case formSavedMsg:
		return m.formSaved(msg)
	case themeChangedMsg:
		if msg.err != nil {
			m.logger.Printf("ui: theme: %v", msg.err)
			m.status = fmt.Sprintf("theme not saved: %v", msg.err)
		} else {
			m.status = "Theme: " + string(msg.theme)
		}
		m.styles = newStyles(msg.theme)
	case opDoneMsg:
		if msg.err != nil {
			m.logger.Printf("ui: %s: %v", msg.status, msg.err)
			m.status = fmt.Sprintf("%s failed: %v", msg.status, msg.err)
		} else {
			m.status = msg.status
		}
	}
	return m, nil
}

// refresh re-derives the view after the task list or theme changed.
func (m *Model) refresh() {
	m.view = m.vm.View(m.query)
	m.styles = newStyles(m.vm.Theme())
	m.cursor = clampCursor(m.cursor, len(m.current()))
	if m.form != nil && m.form.editing != nil {
		if _, ok := m.vm.Task(m.form.editing.ID); !ok {
			m.closeGone()
			return
		}
	}
	if m.detail != nil {
		if _, ok := m.vm.Task(m.detail.taskID); !ok {
			m.closeGone()
		}
	}
}

// closeGone leaves every screen bound to a task that no longer exists.
func (m *Model) closeGone() {
	m.form = nil
	m.detail = nil
	m.input.Blur()
	m.input.SetValue("")
	m.mode = modeList
	m.status = "Task no longer exists"
}

func (m Model) current() []task.Task {
	if m.panel == panelCompleted {
		return m.view.Completed
	}
	return m.view.ToDo
}

func (m Model) selected() (task.Task, bool) {
	tasks := m.current()
	if len(tasks) == 0 {
		return task.Task{}, false
	}
	return tasks[clampCursor(m.cursor, len(tasks))], true
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case k.Quit:
		return m, tea.Quit
	case k.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.current()))
	case k.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, len(m.current()))
		}
	case k.SwitchPanel:
		if m.panel == panelToDo {
			m.panel = panelCompleted
		} else {
			m.panel = panelToDo
		}
		m.cursor = clampCursor(0, len(m.current()))
	case k.Add:
		return m.startForm(nil)
	case k.Edit:
		t, ok := m.selected()
		if !ok {
			m.status = "No task to edit"
			return m, nil
		}
		return m.startForm(&t)
	case k.Toggle:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		status := "Marked done"
		if t.IsCompleted {
			status = "Marked not done"
		}
		return m, m.run(status, func(ctx context.Context) error {
			return m.vm.SetCompleted(ctx, t, !t.IsCompleted)
		})
	case k.Pin:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		status := "Pinned"
		if t.IsPinned {
			status = "Unpinned"
		}
		return m, m.run(status, func(ctx context.Context) error {
			return m.vm.TogglePin(ctx, t)
		})
	case k.Delete:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.confirmDel = true
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", t.Title)
	case k.Detail:
		t, ok := m.selected()
		if !ok {
			m.status = "No tasks"
			return m, nil
		}
		m.detail = &detailState{taskID: t.ID}
		m.mode = modeDetail
		m.status = fmt.Sprintf("%s toggle subtask • %s copy reference • %s edit • %s back", keyName(k.Toggle), k.CopyRef, k.Edit, k.Cancel)
	case k.Search:
		m.mode = modeSearch
		m.input.Placeholder = "Search title or description"
		m.input.SetValue(m.query)
		m.input.Focus()
		m.status = "Type to filter To-Do, enter to keep, esc to clear"
	case k.Theme:
		vm := m.vm
		return m, func() tea.Msg {
			theme, err := vm.ChangeTheme()
			return themeChangedMsg{theme: theme, err: err}
		}
	}
	return m, nil
}

func (m Model) updateSearchMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.query = ""
		m.input.SetValue("")
		m.input.Blur()
		m.mode = modeList
		m.status = "Search cleared"
	case m.cfg.Keys.Confirm:
		m.input.Blur()
		m.mode = modeList
		m.status = fmt.Sprintf("Filter: %q", m.query)
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.query = m.input.Value()
		m.panel = panelToDo
		m.view = m.vm.View(m.query)
		m.cursor = clampCursor(m.cursor, len(m.view.ToDo))
		return m, cmd
	}
	m.view = m.vm.View(m.query)
	m.cursor = clampCursor(m.cursor, len(m.current()))
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.confirmDel = false
			return m, nil
		}
		t := *m.pendingDel
		m.confirmDel = false
		m.pendingDel = nil
		if m.detail != nil && m.detail.taskID == t.ID {
			m.detail = nil
			m.mode = modeList
		}
		return m, m.run("Deleted task", func(ctx context.Context) error {
			return m.vm.DeleteTask(ctx, t)
		})
	default:
		return m, nil
	}
}

func renderHelp(k config.Keymap) string {
	keys := []string{
		fmt.Sprintf("%s/%s move", k.Up, k.Down),
		k.Add + " add",
		k.Edit + " edit",
		k.Detail + " detail",
		keyName(k.Toggle) + " done",
		k.Pin + " pin",
		k.Delete + " delete",
		k.Search + " search",
		k.SwitchPanel + " to-do/completed",
		k.Theme + " theme",
		k.Quit + " quit",
	}
	return strings.Join(keys, " • ")
}

func keyName(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}
