// Package scanner implements the daily due/reminder check. A scan reads the
// whole task list once, keeps no state between runs and raises at most one
// notification per category.
package scanner

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"zero/internal/task"
)

const NotificationTitle = "Task Reminder"

// Source reads the current task list once.
type Source interface {
	Tasks(ctx context.Context) ([]task.Task, error)
}

// Notifier delivers a notification. Delivery is fire-and-forget.
type Notifier interface {
	Notify(title, body string) error
}

type NotifierFunc func(title, body string) error

func (f NotifierFunc) Notify(title, body string) error {
	return f(title, body)
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) Notify(title, body string) error {
	n.Logger.Printf("%s: %s", title, body)
	return nil
}

// Report is the result of one scan.
type Report struct {
	Day       time.Time
	DueToday  []task.Task
	Reminders []task.Task
}

type Scanner struct {
	source   Source
	notifier Notifier
	logger   *log.Logger
	now      func() time.Time

	// SkipCompleted leaves finished tasks out of the due-today count. Off by
	// default: a completed task due today still counts.
	SkipCompleted bool
}

func New(source Source, notifier Notifier, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Scanner{source: source, notifier: notifier, logger: logger, now: time.Now}
}

// WithClock replaces the time source; the clock's location defines "today".
func (s *Scanner) WithClock(now func() time.Time) *Scanner {
	s.now = now
	return s
}

// Scan runs one pass. Notification failures are logged and not retried; only
// a failure to read tasks is returned.
func (s *Scanner) Scan(ctx context.Context) (Report, error) {
	tasks, err := s.source.Tasks(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("reading tasks: %w", err)
	}
	today := s.now()
	r := Report{Day: today}
	for _, t := range tasks {
		if SameDay(t.DueDate, today) && !(s.SkipCompleted && t.IsCompleted) {
			r.DueToday = append(r.DueToday, t)
		}
		if t.ReminderDate != nil && SameDay(*t.ReminderDate, today) {
			r.Reminders = append(r.Reminders, t)
		}
	}

	if n := len(r.DueToday); n > 0 {
		s.send(fmt.Sprintf("You have %d tasks due today!", n))
	}
	if n := len(r.Reminders); n > 0 {
		s.send(fmt.Sprintf("You have %d tasks with reminders today!", n))
	}
	s.logger.Printf("scanner: %s: %d due, %d reminders", today.Format("2006-01-02"), len(r.DueToday), len(r.Reminders))
	return r, nil
}

func (s *Scanner) send(body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(NotificationTitle, body); err != nil {
		s.logger.Printf("scanner: notify: %v", err)
	}
}

// Loop scans immediately and then once per interval until ctx is done. A
// failed scan is logged and the loop keeps going.
func (s *Scanner) Loop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("scan interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.Scan(ctx); err != nil {
			s.logger.Printf("scanner: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SameDay reports whether t falls on ref's calendar day in ref's location.
func SameDay(t, ref time.Time) bool {
	t = t.In(ref.Location())
	return t.Year() == ref.Year() && t.YearDay() == ref.YearDay()
}
