package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/k991020/daily-planner/internal/textparse"
)

// Errors reported back to the user as-is.
var (
	ErrEmptyText         = errors.New("task text is empty")
	ErrProtectedCategory = errors.New("default categories cannot be deleted")
	ErrNothingToRestore  = errors.New("nothing to restore")
)

// Session owns the in-memory task and habit collections for one
// authenticated user and keeps them in step with the backend. All
// methods run on the UI event loop; nothing here is safe for concurrent
// use.
type Session struct {
	user    User
	backend Backend
	tasks   []Task
	cats    []Category
	habits  []Habit
	undo    undoBuffer
}

func NewSession(user User, backend Backend) *Session {
	return &Session{user: user, backend: backend, habits: DefaultHabits()}
}

// Load pulls tasks, categories and habit completions from the backend.
// First launch seeds the default categories.
func (s *Session) Load(ctx context.Context) error {
	tasks, err := s.backend.ListTasks(ctx, s.user.ID)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	cats, err := s.backend.ListCategories(ctx, s.user.ID)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	if len(cats) == 0 {
		cats = DefaultCategories()
		for _, c := range cats {
			if err := s.backend.SaveCategory(ctx, s.user.ID, c); err != nil {
				return fmt.Errorf("seed categories: %w", err)
			}
		}
	}
	comps, err := s.backend.ListHabitCompletions(ctx, s.user.ID)
	if err != nil {
		return fmt.Errorf("load habit completions: %w", err)
	}
	habits := DefaultHabits()
	for i := range habits {
		for _, c := range comps {
			if c.HabitID == habits[i].ID {
				habits[i].CompletedDates[c.Date] = true
			}
		}
	}
	s.tasks, s.cats, s.habits = tasks, cats, habits
	return nil
}

func (s *Session) User() User { return s.user }

func (s *Session) Tasks() []Task { return s.tasks }

func (s *Session) Categories() []Category { return s.cats }

func (s *Session) Habits() []Habit { return s.habits }

func (s *Session) UndoArmed() bool { return s.undo.armed() }

// CategoryByID resolves a category reference; ok is false for cleared or
// unknown references.
func (s *Session) CategoryByID(id string) (Category, bool) {
	for _, c := range s.cats {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// CompletedCount reports how many tasks are done, across all filters.
func (s *Session) CompletedCount() int {
	n := 0
	for _, t := range s.tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

// CountByCategory reports how many tasks reference the category.
func (s *Session) CountByCategory(id string) int {
	n := 0
	for _, t := range s.tasks {
		if t.CategoryID == id {
			n++
		}
	}
	return n
}

// Draft is raw task entry before parsing: the free text plus the manual
// fallback fields from the entry form. Values the parser extracts win
// over the manual ones.
type Draft struct {
	Text       string
	CategoryID string // "" or "all" means uncategorized
	DueDate    *time.Time
	Location   string
	Time       string
}

// Insert runs the smart parser over the draft text, persists the task
// and, on success, prepends it to the collection (newest first). On
// persistence failure nothing is added.
func (s *Session) Insert(ctx context.Context, d Draft) (Task, error) {
	if strings.TrimSpace(d.Text) == "" {
		return Task{}, ErrEmptyText
	}
	p := textparse.ParseInput(d.Text)
	title := p.Title
	if title == "" {
		title = strings.TrimSpace(d.Text)
	}
	catID := d.CategoryID
	if catID == "all" {
		catID = ""
	}
	t := Task{
		Text:       title,
		CreatedAt:  time.Now(),
		CategoryID: catID,
		DueDate:    d.DueDate,
		Location:   firstNonEmpty(p.Location, strings.TrimSpace(d.Location)),
		Time:       firstNonEmpty(p.Time, d.Time),
		Tags:       p.Tags,
	}
	created, err := s.backend.CreateTask(ctx, s.user.ID, t)
	if err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}
	s.tasks = append([]Task{created}, s.tasks...)
	return created, nil
}

// UpdateText rewrites a task's text, re-extracting hashtags. Empty text
// is rejected; on persistence failure the prior state stands.
func (s *Session) UpdateText(ctx context.Context, id, newText string) error {
	if strings.TrimSpace(newText) == "" {
		return ErrEmptyText
	}
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("no task %s", id)
	}
	tags, clean := textparse.ExtractTags(newText)
	if clean == "" {
		clean = strings.TrimSpace(newText)
	}
	if err := s.backend.UpdateTask(ctx, id, TaskUpdate{Text: &clean, Tags: &tags}); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	s.tasks[i].Text = clean
	s.tasks[i].Tags = tags
	return nil
}

// ToggleCompletion flips the flag in memory first and reverts it if the
// backend rejects the write.
func (s *Session) ToggleCompletion(ctx context.Context, id string) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("no task %s", id)
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	completed := s.tasks[i].Completed
	if err := s.backend.UpdateTask(ctx, id, TaskUpdate{Completed: &completed}); err != nil {
		s.tasks[i].Completed = !completed
		return fmt.Errorf("toggle completion: %w", err)
	}
	return nil
}

// TogglePriority flips the priority flag in memory only. The flag still
// reaches the backend when the task is created or restored, but a toggle
// on its own is session state; reloading drops it.
func (s *Session) TogglePriority(id string) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("no task %s", id)
	}
	s.tasks[i].Priority = !s.tasks[i].Priority
	return nil
}

// Delete removes the task from the backend first; only on success does
// it leave memory and arm the undo buffer. The returned generation pairs
// the caller's expiry timer with this deletion.
func (s *Session) Delete(ctx context.Context, id string) (gen uint64, err error) {
	i := s.indexOf(id)
	if i < 0 {
		return 0, fmt.Errorf("no task %s", id)
	}
	if err := s.backend.DeleteTask(ctx, id); err != nil {
		return 0, fmt.Errorf("delete task: %w", err)
	}
	t := s.tasks[i]
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	return s.undo.arm(t, i), nil
}

// Restore re-inserts the last deleted task at its original index. The
// backend issues a fresh id; every other field is preserved. On failure
// the record stays armed.
func (s *Session) Restore(ctx context.Context) (Task, error) {
	rec, ok := s.undo.peek()
	if !ok {
		return Task{}, ErrNothingToRestore
	}
	created, err := s.backend.CreateTask(ctx, s.user.ID, rec.task)
	if err != nil {
		return Task{}, fmt.Errorf("restore task: %w", err)
	}
	s.undo.clear()
	i := rec.index
	if i > len(s.tasks) {
		i = len(s.tasks)
	}
	s.tasks = append(s.tasks[:i:i], append([]Task{created}, s.tasks[i:]...)...)
	return created, nil
}

// ExpireUndo discards the buffered deletion if gen still matches the
// most recent arming; stale timers are ignored.
func (s *Session) ExpireUndo(gen uint64) {
	s.undo.expire(gen)
}

// ClearCompleted drops every completed task, in the backend and in
// memory.
func (s *Session) ClearCompleted(ctx context.Context) error {
	if err := s.backend.DeleteCompletedTasks(ctx, s.user.ID); err != nil {
		return fmt.Errorf("clear completed: %w", err)
	}
	kept := s.tasks[:0:0]
	for _, t := range s.tasks {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	return nil
}

// ClearAll drops every task. The UI asks for confirmation before calling
// this.
func (s *Session) ClearAll(ctx context.Context) error {
	if err := s.backend.DeleteAllTasks(ctx, s.user.ID); err != nil {
		return fmt.Errorf("clear all: %w", err)
	}
	s.tasks = nil
	s.undo.clear()
	return nil
}

// AddCategory creates a category with a random color and an icon chosen
// from its name.
func (s *Session) AddCategory(ctx context.Context, name string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, errors.New("category name is empty")
	}
	c := Category{
		ID:    uuid.NewString(),
		Name:  name,
		Color: randomColor(),
		Icon:  IconFor(name),
	}
	if err := s.backend.SaveCategory(ctx, s.user.ID, c); err != nil {
		return Category{}, fmt.Errorf("save category: %w", err)
	}
	s.cats = append(s.cats, c)
	return c, nil
}

// DeleteCategory removes a user-created category and clears the
// reference from every task that pointed at it. Seeded categories are
// protected.
func (s *Session) DeleteCategory(ctx context.Context, id string) error {
	if protectedCategories[id] {
		return ErrProtectedCategory
	}
	found := false
	for _, c := range s.cats {
		if c.ID == id {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("no category %s", id)
	}
	if err := s.backend.DeleteCategory(ctx, s.user.ID, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	kept := s.cats[:0:0]
	for _, c := range s.cats {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.cats = kept
	for i := range s.tasks {
		if s.tasks[i].CategoryID == id {
			s.tasks[i].CategoryID = ""
		}
	}
	return nil
}

// ToggleHabit flips the habit's completion bit for the given calendar
// day, optimistically, reverting if the backend write fails. Toggling
// the same day twice lands back where it started.
func (s *Session) ToggleHabit(ctx context.Context, habitID string, day time.Time) error {
	var h *Habit
	for i := range s.habits {
		if s.habits[i].ID == habitID {
			h = &s.habits[i]
			break
		}
	}
	if h == nil {
		return fmt.Errorf("no habit %s", habitID)
	}
	key := DateKey(day)
	done := h.CompletedDates[key]
	if done {
		delete(h.CompletedDates, key)
	} else {
		h.CompletedDates[key] = true
	}
	var err error
	if done {
		err = s.backend.RemoveHabitCompletion(ctx, s.user.ID, habitID, key)
	} else {
		err = s.backend.AddHabitCompletion(ctx, s.user.ID, habitID, key)
	}
	if err != nil {
		if done {
			h.CompletedDates[key] = true
		} else {
			delete(h.CompletedDates, key)
		}
		return fmt.Errorf("toggle habit: %w", err)
	}
	return nil
}

func (s *Session) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
