package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"zero/internal/codec"
	"zero/internal/task"
)

var (
	ErrNotFound    = errors.New("task not found")
	ErrDuplicateID = errors.New("task id already exists")
)

// Store keeps tasks in a SQLite table and pushes a full snapshot to every
// subscriber after each committed write.
type Store struct {
	db     *sql.DB
	logger *log.Logger

	// mu serializes writes with their snapshot publication, so subscribers
	// observe commits in order.
	mu      sync.Mutex
	subs    map[int]chan []task.Task
	nextSub int
}

func Open(dbPath string, logger *log.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, err
		}
	}
	dsn := sqliteDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger, subs: map[int]chan []task.Task{}}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", dbPath, err)
	}
	return s, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	from_date TEXT NOT NULL,
	due_date TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	refs TEXT NOT NULL DEFAULT '',
	completed INTEGER NOT NULL DEFAULT 0,
	priority TEXT NOT NULL DEFAULT 'MEDIUM',
	image_uris TEXT NOT NULL DEFAULT '',
	subtasks TEXT NOT NULL DEFAULT '',
	reminder_at TEXT DEFAULT NULL,
	pinned INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	return s.ensureTaskColumns()
}

// ensureTaskColumns upgrades databases created before images, subtasks,
// reminders and pinning existed.
func (s *Store) ensureTaskColumns() error {
	required := map[string]string{
		"image_uris":  "ALTER TABLE tasks ADD COLUMN image_uris TEXT NOT NULL DEFAULT '';",
		"subtasks":    "ALTER TABLE tasks ADD COLUMN subtasks TEXT NOT NULL DEFAULT '';",
		"reminder_at": "ALTER TABLE tasks ADD COLUMN reminder_at TEXT DEFAULT NULL;",
		"pinned":      "ALTER TABLE tasks ADD COLUMN pinned INTEGER NOT NULL DEFAULT 0;",
	}
	existing := map[string]struct{}{}
	rows, err := s.db.Query(`PRAGMA table_info(tasks);`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			rows.Close()
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()
	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := s.db.Exec(alter); err != nil {
			return err
		}
		s.logger.Printf("storage: added column %s", col)
	}
	return nil
}

const selectColumns = `id, title, from_date, due_date, description, refs, completed, priority, image_uris, subtasks, reminder_at, pinned`

// All returns every task in insertion order.
func (s *Store) All(ctx context.Context) ([]task.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM tasks ORDER BY rowid;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		t, err := s.scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *Store) Get(ctx context.Context, id string) (task.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM tasks WHERE id = ?;`, id)
	t, err := s.scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, ErrNotFound
	}
	return t, err
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanTask(row scanner) (task.Task, error) {
	var t task.Task
	var completed, pinned int
	var fromStr, dueStr, refs, priority, images, subtasks string
	var reminderStr sql.NullString

	if err := row.Scan(&t.ID, &t.Title, &fromStr, &dueStr, &t.Description, &refs, &completed, &priority, &images, &subtasks, &reminderStr, &pinned); err != nil {
		return task.Task{}, err
	}
	t.IsCompleted = completed == 1
	t.IsPinned = pinned == 1
	t.FromDate = parseTime(fromStr)
	t.DueDate = parseTime(dueStr)
	if reminderStr.Valid {
		if r := parseTime(reminderStr.String); !r.IsZero() {
			t.ReminderDate = &r
		}
	}
	if p, err := task.ParsePriority(priority); err == nil {
		t.Priority = p
	}

	// Broken blobs degrade to empty lists.
	refRes := codec.DecodeStrings(refs)
	if !refRes.OK {
		s.logger.Printf("storage: task %s: references unreadable: %v", t.ID, refRes.Err)
	}
	t.References = refRes.Value
	imgRes := codec.DecodeStrings(images)
	if !imgRes.OK {
		s.logger.Printf("storage: task %s: image uris unreadable: %v", t.ID, imgRes.Err)
	}
	t.ImageURIs = imgRes.Value
	subRes := codec.DecodeSubtasks(subtasks)
	if !subRes.OK {
		s.logger.Printf("storage: task %s: subtasks unreadable: %v", t.ID, subRes.Err)
	}
	t.Subtasks = subRes.Value
	return t, nil
}

type row struct {
	refs, images, subtasks string
	from, due              string
	reminder               sql.NullString
	completed, pinned      int
}

func encodeRow(t task.Task) (row, error) {
	var r row
	var err error
	if r.refs, err = codec.EncodeStrings(t.References); err != nil {
		return r, fmt.Errorf("encoding references: %w", err)
	}
	if r.images, err = codec.EncodeStrings(t.ImageURIs); err != nil {
		return r, fmt.Errorf("encoding image uris: %w", err)
	}
	if r.subtasks, err = codec.EncodeSubtasks(t.Subtasks); err != nil {
		return r, fmt.Errorf("encoding subtasks: %w", err)
	}
	r.from = formatTime(t.FromDate)
	r.due = formatTime(t.DueDate)
	if t.ReminderDate != nil {
		r.reminder = sql.NullString{String: formatTime(*t.ReminderDate), Valid: true}
	}
	r.completed = boolToInt(t.IsCompleted)
	r.pinned = boolToInt(t.IsPinned)
	return r, nil
}

// Insert adds a new task. The id must not be in use.
func (s *Store) Insert(ctx context.Context, t task.Task) error {
	r, err := encodeRow(t)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE id = ?;`, t.ID).Scan(&exists)
	switch {
	case err == nil:
		return ErrDuplicateID
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `INSERT INTO tasks (id, title, from_date, due_date, description, refs, completed, priority, image_uris, subtasks, reminder_at, pinned, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		t.ID, t.Title, r.from, r.due, t.Description, r.refs, r.completed, t.Priority.String(), r.images, r.subtasks, r.reminder, r.pinned, now)
	if err != nil {
		return err
	}
	s.publishLocked(ctx)
	return nil
}

// Update replaces every field of an existing task.
func (s *Store) Update(ctx context.Context, t task.Task) error {
	r, err := encodeRow(t)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET title = ?, from_date = ?, due_date = ?, description = ?, refs = ?, completed = ?, priority = ?, image_uris = ?, subtasks = ?, reminder_at = ?, pinned = ? WHERE id = ?;`,
		t.Title, r.from, r.due, t.Description, r.refs, r.completed, t.Priority.String(), r.images, r.subtasks, r.reminder, r.pinned, t.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	s.publishLocked(ctx)
	return nil
}

// Upsert inserts the task or replaces the record sharing its id. A replaced
// record keeps its position in insertion order.
func (s *Store) Upsert(ctx context.Context, t task.Task) error {
	r, err := encodeRow(t)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `INSERT INTO tasks (id, title, from_date, due_date, description, refs, completed, priority, image_uris, subtasks, reminder_at, pinned, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title = excluded.title,
	from_date = excluded.from_date,
	due_date = excluded.due_date,
	description = excluded.description,
	refs = excluded.refs,
	completed = excluded.completed,
	priority = excluded.priority,
	image_uris = excluded.image_uris,
	subtasks = excluded.subtasks,
	reminder_at = excluded.reminder_at,
	pinned = excluded.pinned;`,
		t.ID, t.Title, r.from, r.due, t.Description, r.refs, r.completed, t.Priority.String(), r.images, r.subtasks, r.reminder, r.pinned, now)
	if err != nil {
		return err
	}
	s.publishLocked(ctx)
	return nil
}

// Delete removes the task with the given id. Deleting a missing id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil
	}
	s.publishLocked(ctx)
	return nil
}

// Times are stored as UTC instants. A time read back is Equal to the one
// written but carries the UTC location.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
