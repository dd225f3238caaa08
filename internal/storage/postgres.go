package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/k991020/daily-planner/internal/planner"
)

// Postgres is the remote-relational variant of the persistence
// collaborator.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ planner.Backend = (*Postgres)(nil)

// OpenPostgres connects to the database at dsn and ensures the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	p := &Postgres{pool: pool}
	if err := p.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			text        TEXT NOT NULL,
			completed   BOOLEAN NOT NULL DEFAULT FALSE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			category_id TEXT NOT NULL DEFAULT '',
			due_date    TIMESTAMPTZ,
			location    TEXT NOT NULL DEFAULT '',
			time        TEXT NOT NULL DEFAULT '',
			priority    BOOLEAN NOT NULL DEFAULT FALSE,
			tags        TEXT[] NOT NULL DEFAULT '{}'
		)`)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id)`)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS categories (
			id      TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name    TEXT NOT NULL,
			color   TEXT NOT NULL DEFAULT '',
			icon    TEXT NOT NULL DEFAULT '',
			seq     SERIAL
		)`)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS habit_completions (
			user_id        TEXT NOT NULL,
			habit_id       TEXT NOT NULL,
			completed_date TEXT NOT NULL,
			PRIMARY KEY (user_id, habit_id, completed_date)
		)`)
	return err
}

func (p *Postgres) ListTasks(ctx context.Context, userID string) ([]planner.Task, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, text, completed, created_at, category_id, due_date, location, time, priority, tags
		FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []planner.Task
	for rows.Next() {
		var t planner.Task
		if err := rows.Scan(&t.ID, &t.Text, &t.Completed, &t.CreatedAt, &t.CategoryID, &t.DueDate, &t.Location, &t.Time, &t.Priority, &t.Tags); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return tasks, nil
}

func (p *Postgres) CreateTask(ctx context.Context, userID string, t planner.Task) (planner.Task, error) {
	t.ID = uuid.NewString()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().Truncate(time.Microsecond)
	}
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO tasks (id, user_id, text, completed, created_at, category_id, due_date, location, time, priority, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, userID, t.Text, t.Completed, t.CreatedAt, t.CategoryID, t.DueDate, t.Location, t.Time, t.Priority, tags)
	if err != nil {
		return planner.Task{}, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

func (p *Postgres) UpdateTask(ctx context.Context, id string, upd planner.TaskUpdate) error {
	var set []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if upd.Text != nil {
		set = append(set, "text = "+arg(*upd.Text))
	}
	if upd.Tags != nil {
		set = append(set, "tags = "+arg(*upd.Tags))
	}
	if upd.Completed != nil {
		set = append(set, "completed = "+arg(*upd.Completed))
	}
	if upd.Priority != nil {
		set = append(set, "priority = "+arg(*upd.Priority))
	}
	if upd.ClearCategory {
		set = append(set, "category_id = ''")
	}
	if len(set) == 0 {
		return nil
	}
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = %s", strings.Join(set, ", "), arg(id))
	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	return nil
}

func (p *Postgres) DeleteTask(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

func (p *Postgres) DeleteCompletedTasks(ctx context.Context, userID string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM tasks WHERE user_id = $1 AND completed`, userID)
	return err
}

func (p *Postgres) DeleteAllTasks(ctx context.Context, userID string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM tasks WHERE user_id = $1`, userID)
	return err
}

func (p *Postgres) ListCategories(ctx context.Context, userID string) ([]planner.Category, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name, color, icon FROM categories WHERE user_id = $1 ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
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

func (p *Postgres) SaveCategory(ctx context.Context, userID string, c planner.Category) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO categories (id, user_id, name, color, icon) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, color = EXCLUDED.color, icon = EXCLUDED.icon`,
		c.ID, userID, c.Name, c.Color, c.Icon)
	return err
}

func (p *Postgres) DeleteCategory(ctx context.Context, userID, id string) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if _, err := tx.Exec(ctx, `DELETE FROM categories WHERE user_id = $1 AND id = $2`, userID, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE tasks SET category_id = '' WHERE user_id = $1 AND category_id = $2`, userID, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *Postgres) ListHabitCompletions(ctx context.Context, userID string) ([]planner.HabitCompletion, error) {
	rows, err := p.pool.Query(ctx, `SELECT habit_id, completed_date FROM habit_completions WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list habit completions: %w", err)
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

func (p *Postgres) AddHabitCompletion(ctx context.Context, userID, habitID, date string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO habit_completions (user_id, habit_id, completed_date) VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`, userID, habitID, date)
	return err
}

func (p *Postgres) RemoveHabitCompletion(ctx context.Context, userID, habitID, date string) error {
	_, err := p.pool.Exec(ctx, `
		DELETE FROM habit_completions WHERE user_id = $1 AND habit_id = $2 AND completed_date = $3`,
		userID, habitID, date)
	return err
}
