package task

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxImages is the number of image locators a task can carry.
const MaxImages = 3

var (
	ErrTitleRequired        = errors.New("title is required")
	ErrDatesRequired        = errors.New("from date and due date are required")
	ErrTooManyImages        = errors.New("a task holds at most 3 images")
	ErrSubtaskTitleRequired = errors.New("subtask title is required")
	ErrDuplicateSubtaskID   = errors.New("subtask id is already in use")
)

type Subtask struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"isCompleted"`
}

type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	FromDate     time.Time  `json:"fromDate"`
	DueDate      time.Time  `json:"dueDate"`
	Description  string     `json:"description"`
	References   []string   `json:"references"`
	IsCompleted  bool       `json:"isCompleted"`
	Priority     Priority   `json:"priority"`
	ImageURIs    []string   `json:"imageUris"`
	Subtasks     []Subtask  `json:"subtasks"`
	ReminderDate *time.Time `json:"reminderDate,omitempty"`
	IsPinned     bool       `json:"isPinned"`
}

// New returns a task with a fresh id and the default priority.
func New(title string, from, due time.Time) Task {
	return Task{
		ID:       uuid.NewString(),
		Title:    title,
		FromDate: from,
		DueDate:  due,
		Priority: Medium,
	}
}

func NewSubtask(title string) Subtask {
	return Subtask{ID: uuid.NewString(), Title: title}
}

// Validate checks the fields the create and edit forms require.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrTitleRequired
	}
	if t.FromDate.IsZero() || t.DueDate.IsZero() {
		return ErrDatesRequired
	}
	if len(t.ImageURIs) > MaxImages {
		return ErrTooManyImages
	}
	seen := make(map[string]struct{}, len(t.Subtasks))
	for _, s := range t.Subtasks {
		if strings.TrimSpace(s.Title) == "" {
			return ErrSubtaskTitleRequired
		}
		if _, dup := seen[s.ID]; dup {
			return ErrDuplicateSubtaskID
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

// Clone returns a copy that shares no slices or pointers with t.
func (t Task) Clone() Task {
	c := t
	c.References = cloneStrings(t.References)
	c.ImageURIs = cloneStrings(t.ImageURIs)
	if t.Subtasks != nil {
		c.Subtasks = make([]Subtask, len(t.Subtasks))
		copy(c.Subtasks, t.Subtasks)
	}
	if t.ReminderDate != nil {
		r := *t.ReminderDate
		c.ReminderDate = &r
	}
	return c
}

// SubtaskIndex returns the position of the subtask with the given id, or -1.
func (t Task) SubtaskIndex(id string) int {
	for i, s := range t.Subtasks {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// ParseReferences splits a comma separated field into trimmed, non-blank references.
func ParseReferences(v string) []string {
	var refs []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		refs = append(refs, part)
	}
	return refs
}

// CapImages keeps the first MaxImages picker results.
func CapImages(uris []string) []string {
	if len(uris) > MaxImages {
		uris = uris[:MaxImages]
	}
	return cloneStrings(uris)
}

func cloneStrings(v []string) []string {
	if v == nil {
		return nil
	}
	out := make([]string, len(v))
	copy(out, v)
	return out
}
