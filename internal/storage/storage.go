package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/k991020/daily-planner/internal/planner"
)

// SQLite is the local-file variant of the persistence collaborator.
type SQLite struct {
	db *sql.DB
}

var _ planner.Backend = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the planner database at dbPath.
func OpenSQLite(dbPath string) (*SQLite, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	dsn := sqliteDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	text TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	category_id TEXT NOT NULL DEFAULT '',
	due_date TEXT DEFAULT NULL,
	location TEXT NOT NULL DEFAULT '',
	time TEXT NOT NULL DEFAULT '',
	priority INTEGER NOT NULL DEFAULT 0,
	tags TEXT NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS categories (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	color TEXT NOT NULL DEFAULT '',
	icon TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS habit_completions (
	user_id TEXT NOT NULL,
	habit_id TEXT NOT NULL,
	completed_date TEXT NOT NULL,
	PRIMARY KEY (user_id, habit_id, completed_date)
);`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	return s.ensureTaskColumns()
}

// ensureTaskColumns backfills columns added after the first release for
// databases created before them.
func (s *SQLite) ensureTaskColumns() error {
	required := map[string]string{
		"priority": "ALTER TABLE tasks ADD COLUMN priority INTEGER NOT NULL DEFAULT 0;",
		"tags":     "ALTER TABLE tasks ADD COLUMN tags TEXT NOT NULL DEFAULT '[]';",
	}
	existing := map[string]struct{}{}
	rows, err := s.db.Query(`PRAGMA table_info(tasks);`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		existing[name] = struct{}{}
	}
	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := s.db.Exec(alter); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLite) ListTasks(ctx context.Context, userID string) ([]planner.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, text, completed, created_at, category_id, due_date, location, time, priority, tags
FROM tasks WHERE user_id = ? ORDER BY created_at DESC;`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []planner.Task
	for rows.Next() {
		var t planner.Task
		var completed, priority int
		var createdStr, tagsJSON string
		var dueStr sql.NullString

		if err := rows.Scan(&t.ID, &t.Text, &completed, &createdStr, &t.CategoryID, &dueStr, &t.Location, &t.Time, &priority, &tagsJSON); err != nil {
			return nil, err
		}
		t.Completed = completed == 1
		t.Priority = priority == 1
		if created, err := time.Parse(time.RFC3339, createdStr); err == nil {
			t.CreatedAt = created.Local()
		}
		if dueStr.Valid {
			if due, err := time.Parse(time.RFC3339, dueStr.String); err == nil {
				due = due.Local()
				t.DueDate = &due
			}
		}
		if err := json.Unmarshal([]byte(tagsJSON), &t.Tags); err != nil {
			t.Tags = nil
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *SQLite) CreateTask(ctx context.Context, userID string, t planner.Task) (planner.Task, error) {
	t.ID = uuid.NewString()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	tagsJSON, err := json.Marshal(t.Tags)
	if err != nil {
		return planner.Task{}, fmt.Errorf("marshal tags: %w", err)
	}
	dueStr := sql.NullString{}
	if t.DueDate != nil {
		dueStr = sql.NullString{String: t.DueDate.UTC().Format(time.RFC3339), Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO tasks (id, user_id, text, completed, created_at, category_id, due_date, location, time, priority, tags)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		t.ID, userID, t.Text, boolToInt(t.Completed), t.CreatedAt.UTC().Format(time.RFC3339),
		t.CategoryID, dueStr, t.Location, t.Time, boolToInt(t.Priority), string(tagsJSON))
	if err != nil {
		return planner.Task{}, err
	}
	return t, nil
}

func (s *SQLite) UpdateTask(ctx context.Context, id string, upd planner.TaskUpdate) error {
	var set []string
	var args []any
	if upd.Text != nil {
		set = append(set, "text = ?")
		args = append(args, *upd.Text)
	}
	if upd.Tags != nil {
		tagsJSON, err := json.Marshal(*upd.Tags)
		if err != nil {
			return fmt.Errorf("marshal tags: %w", err)
		}
		set = append(set, "tags = ?")
		args = append(args, string(tagsJSON))
	}
	if upd.Completed != nil {
		set = append(set, "completed = ?")
		args = append(args, boolToInt(*upd.Completed))
	}
	if upd.Priority != nil {
		set = append(set, "priority = ?")
		args = append(args, boolToInt(*upd.Priority))
	}
	if upd.ClearCategory {
		set = append(set, "category_id = ''")
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := s.db.ExecContext(ctx, `UPDATE tasks SET `+strings.Join(set, ", ")+` WHERE id = ?;`, args...)
	return err
}

func (s *SQLite) DeleteTask(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?;`, id)
	return err
}

func (s *SQLite) DeleteCompletedTasks(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = ? AND completed = 1;`, userID)
	return err
}

func (s *SQLite) DeleteAllTasks(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = ?;`, userID)
	return err
}

func (s *SQLite) ListCategories(ctx context.Context, userID string) ([]planner.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, color, icon FROM categories WHERE user_id = ? ORDER BY rowid;`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []planner.Category
	for rows.Next() {
		var c planner.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.Icon); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (s *SQLite) SaveCategory(ctx context.Context, userID string, c planner.Category) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO categories (id, user_id, name, color, icon) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, color = excluded.color, icon = excluded.icon;`,
		c.ID, userID, c.Name, c.Color, c.Icon)
	return err
}

func (s *SQLite) DeleteCategory(ctx context.Context, userID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE user_id = ? AND id = ?;`, userID, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE tasks SET category_id = '' WHERE user_id = ? AND category_id = ?;`, userID, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) ListHabitCompletions(ctx context.Context, userID string) ([]planner.HabitCompletion, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT habit_id, completed_date FROM habit_completions WHERE user_id = ?;`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comps []planner.HabitCompletion
	for rows.Next() {
		var c planner.HabitCompletion
		if err := rows.Scan(&c.HabitID, &c.Date); err != nil {
			return nil, err
		}
		comps = append(comps, c)
	}
	return comps, rows.Err()
}

func (s *SQLite) AddHabitCompletion(ctx context.Context, userID, habitID, date string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO habit_completions (user_id, habit_id, completed_date) VALUES (?, ?, ?)
ON CONFLICT DO NOTHING;`, userID, habitID, date)
	return err
}

func (s *SQLite) RemoveHabitCompletion(ctx context.Context, userID, habitID, date string) error {
	_, err := s.db.ExecContext(ctx, `
DELETE FROM habit_completions WHERE user_id = ? AND habit_id = ? AND completed_date = ?;`, userID, habitID, date)
	return err
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
