package scanner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zero/internal/task"
)

type staticSource []task.Task

func (s staticSource) Tasks(context.Context) ([]task.Task, error) {
	return s, nil
}

type failingSource struct{}

func (failingSource) Tasks(context.Context) ([]task.Task, error) {
	return nil, errors.New("disk gone")
}

type recorder struct {
	mu     sync.Mutex
	bodies []string
}

func (r *recorder) Notify(title, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bodies = append(r.bodies, title+"|"+body)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bodies)
}

var today = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func fixed() time.Time { return today }

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func withDue(id string, due time.Time) task.Task {
	return task.Task{ID: id, Title: id, FromDate: due, DueDate: due}
}

func TestScan_DueTodayIgnoresTimeOfDay(t *testing.T) {
	rec := &recorder{}
	src := staticSource{
		withDue("late-today", at(2024, 6, 1, 23, 0)),
		withDue("tomorrow", at(2024, 6, 2, 0, 30)),
	}
	r, err := New(src, rec, nil).WithClock(fixed).Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, r.DueToday, 1)
	assert.Equal(t, "late-today", r.DueToday[0].ID)
	assert.Empty(t, r.Reminders)
	assert.Equal(t, []string{"Task Reminder|You have 1 tasks due today!"}, rec.bodies)
}

func TestScan_ReminderRegardlessOfDueDate(t *testing.T) {
	rec := &recorder{}
	remind := at(2024, 6, 1, 6, 45)
	tk := withDue("next-week", at(2024, 6, 8, 12, 0))
	tk.ReminderDate = &remind

	r, err := New(staticSource{tk}, rec, nil).WithClock(fixed).Scan(context.Background())
	require.NoError(t, err)

	assert.Empty(t, r.DueToday)
	require.Len(t, r.Reminders, 1)
	assert.Equal(t, []string{"Task Reminder|You have 1 tasks with reminders today!"}, rec.bodies)
}

func TestScan_OneNotificationPerCategory(t *testing.T) {
	rec := &recorder{}
	remind := at(2024, 6, 1, 0, 0)
	a := withDue("a", at(2024, 6, 1, 9, 0))
	a.ReminderDate = &remind
	b := withDue("b", at(2024, 6, 1, 18, 0))
	c := withDue("c", at(2023, 6, 1, 9, 0))

	_, err := New(staticSource{a, b, c}, rec, nil).WithClock(fixed).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Task Reminder|You have 2 tasks due today!",
		"Task Reminder|You have 1 tasks with reminders today!",
	}, rec.bodies)
}

func TestScan_NothingDueSendsNothing(t *testing.T) {
	rec := &recorder{}
	r, err := New(staticSource{withDue("x", at(2024, 5, 31, 23, 59))}, rec, nil).WithClock(fixed).Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, r.DueToday)
	assert.Zero(t, rec.count())
}

// A completed task due today still counts unless SkipCompleted is set.
func TestScan_CompletedTasksCountByDefault(t *testing.T) {
	done := withDue("done", at(2024, 6, 1, 12, 0))
	done.IsCompleted = true
	src := staticSource{done, withDue("open", at(2024, 6, 1, 13, 0))}

	r, err := New(src, nil, nil).WithClock(fixed).Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, r.DueToday, 2)

	s := New(src, nil, nil).WithClock(fixed)
	s.SkipCompleted = true
	r, err = s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, r.DueToday, 1)
	assert.Equal(t, "open", r.DueToday[0].ID)
}

func TestScan_RerunSameDayNotifiesAgain(t *testing.T) {
	rec := &recorder{}
	s := New(staticSource{withDue("a", today)}, rec, nil).WithClock(fixed)
	for i := 0; i < 2; i++ {
		_, err := s.Scan(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 2, rec.count())
}

func TestScan_NotifierFailureIsNotAnError(t *testing.T) {
	calls := 0
	n := NotifierFunc(func(string, string) error {
		calls++
		return errors.New("channel unavailable")
	})
	remind := today
	tk := withDue("a", today)
	tk.ReminderDate = &remind

	_, err := New(staticSource{tk}, n, nil).WithClock(fixed).Scan(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestScan_SourceFailure(t *testing.T) {
	_, err := New(failingSource{}, nil, nil).Scan(context.Background())
	assert.Error(t, err)
}

func TestSameDay_UsesReferenceLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	ref := time.Date(2024, 6, 1, 8, 0, 0, 0, tokyo)

	// 2024-05-31T23:30Z is already June 1st in Tokyo.
	assert.True(t, SameDay(time.Date(2024, 5, 31, 23, 30, 0, 0, time.UTC), ref))
	assert.False(t, SameDay(time.Date(2024, 5, 31, 14, 0, 0, 0, time.UTC), ref))
	// Same day-of-year, different year.
	assert.False(t, SameDay(time.Date(2023, 6, 1, 8, 0, 0, 0, tokyo), ref))
}

func TestLoop_ScansUntilCancelled(t *testing.T) {
	rec := &recorder{}
	s := New(staticSource{withDue("a", today)}, rec, nil).WithClock(fixed)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Loop(ctx, 10*time.Millisecond) }()

	require.Eventually(t, func() bool { return rec.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestLoop_RejectsBadInterval(t *testing.T) {
	s := New(staticSource{}, nil, nil)
	assert.Error(t, s.Loop(context.Background(), 0))
}
