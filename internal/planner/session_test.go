package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// fakeBackend is an in-memory Backend with per-operation failure
// injection for exercising the optimistic-update-then-revert paths.
type fakeBackend struct {
	tasks       []Task
	cats        []Category
	completions map[string]bool // habitID + "|" + date
	nextID      int

	failCreate bool
	failUpdate bool
	failDelete bool
	failHabit  bool
}

var errInjected = errors.New("backend unavailable")

func newFakeBackend() *fakeBackend {
	return &fakeBackend{completions: map[string]bool{}}
}

func (f *fakeBackend) ListTasks(ctx context.Context, userID string) ([]Task, error) {
	out := make([]Task, len(f.tasks))
	copy(out, f.tasks)
	return out, nil
}

func (f *fakeBackend) CreateTask(ctx context.Context, userID string, t Task) (Task, error) {
	if f.failCreate {
		return Task{}, errInjected
	}
	f.nextID++
	t.ID = fmt.Sprintf("task-%d", f.nextID)
	f.tasks = append(f.tasks, t)
	return t, nil
}

func (f *fakeBackend) UpdateTask(ctx context.Context, id string, upd TaskUpdate) error {
	if f.failUpdate {
		return errInjected
	}
	for i := range f.tasks {
		if f.tasks[i].ID != id {
			continue
		}
		if upd.Text != nil {
			f.tasks[i].Text = *upd.Text
		}
		if upd.Tags != nil {
			f.tasks[i].Tags = *upd.Tags
		}
		if upd.Completed != nil {
			f.tasks[i].Completed = *upd.Completed
		}
		if upd.Priority != nil {
			f.tasks[i].Priority = *upd.Priority
		}
		if upd.ClearCategory {
			f.tasks[i].CategoryID = ""
		}
		return nil
	}
	return fmt.Errorf("no task %s", id)
}

func (f *fakeBackend) DeleteTask(ctx context.Context, id string) error {
	if f.failDelete {
		return errInjected
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no task %s", id)
}

func (f *fakeBackend) DeleteCompletedTasks(ctx context.Context, userID string) error {
	kept := f.tasks[:0:0]
	for _, t := range f.tasks {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	f.tasks = kept
	return nil
}

func (f *fakeBackend) DeleteAllTasks(ctx context.Context, userID string) error {
	f.tasks = nil
	return nil
}

func (f *fakeBackend) ListCategories(ctx context.Context, userID string) ([]Category, error) {
	out := make([]Category, len(f.cats))
	copy(out, f.cats)
	return out, nil
}

func (f *fakeBackend) SaveCategory(ctx context.Context, userID string, c Category) error {
	f.cats = append(f.cats, c)
	return nil
}

func (f *fakeBackend) DeleteCategory(ctx context.Context, userID, id string) error {
	kept := f.cats[:0:0]
	for _, c := range f.cats {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	f.cats = kept
	for i := range f.tasks {
		if f.tasks[i].CategoryID == id {
			f.tasks[i].CategoryID = ""
		}
	}
	return nil
}

func (f *fakeBackend) ListHabitCompletions(ctx context.Context, userID string) ([]HabitCompletion, error) {
	var out []HabitCompletion
	for k := range f.completions {
		parts := strings.SplitN(k, "|", 2)
		out = append(out, HabitCompletion{HabitID: parts[0], Date: parts[1]})
	}
	return out, nil
}

func (f *fakeBackend) AddHabitCompletion(ctx context.Context, userID, habitID, date string) error {
	if f.failHabit {
		return errInjected
	}
	f.completions[habitID+"|"+date] = true
	return nil
}

func (f *fakeBackend) RemoveHabitCompletion(ctx context.Context, userID, habitID, date string) error {
	if f.failHabit {
		return errInjected
	}
	delete(f.completions, habitID+"|"+date)
	return nil
}

func (f *fakeBackend) Close() error { return nil }

func newTestSession(t *testing.T) (*Session, *fakeBackend) {
	t.Helper()
	b := newFakeBackend()
	s := NewSession(User{ID: "u1", Name: "민지", Email: "minji@example.com"}, b)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s, b
}

func mustInsert(t *testing.T, s *Session, text string) Task {
	t.Helper()
	task, err := s.Insert(context.Background(), Draft{Text: text})
	if err != nil {
		t.Fatalf("Insert(%q): %v", text, err)
	}
	return task
}

func TestSessionLoadSeedsDefaults(t *testing.T) {
	s, b := newTestSession(t)
	if len(s.Categories()) != 3 {
		t.Fatalf("expected 3 seeded categories, got %d", len(s.Categories()))
	}
	if len(b.cats) != 3 {
		t.Errorf("seeded categories not persisted: %d", len(b.cats))
	}
	if len(s.Habits()) != 5 {
		t.Errorf("expected 5 habits, got %d", len(s.Habits()))
	}
}

func TestInsertParsesSmartInput(t *testing.T) {
	s, _ := newTestSession(t)
	task := mustInsert(t, s, "오후 3시에 강남에서 미팅#업무")
	if task.Text != "미팅" {
		t.Errorf("text = %q, want 미팅", task.Text)
	}
	if task.Time != "오후 03:00" {
		t.Errorf("time = %q", task.Time)
	}
	if task.Location != "강남" {
		t.Errorf("location = %q", task.Location)
	}
	if len(task.Tags) != 1 || task.Tags[0] != "#업무" {
		t.Errorf("tags = %v", task.Tags)
	}
}

func TestInsertPrependsNewestFirst(t *testing.T) {
	s, _ := newTestSession(t)
	mustInsert(t, s, "첫번째")
	mustInsert(t, s, "두번째")
	if s.Tasks()[0].Text != "두번째" {
		t.Errorf("newest task should be first, got %q", s.Tasks()[0].Text)
	}
}

func TestInsertManualFieldsAreFallbacksOnly(t *testing.T) {
	s, _ := newTestSession(t)
	task, err := s.Insert(context.Background(), Draft{
		Text:     "홍대에서 저녁",
		Location: "강남",
		Time:     "오전 08:00",
	})
	if err != nil {
		t.Fatal(err)
	}
	if task.Location != "홍대" {
		t.Errorf("parsed location should win, got %q", task.Location)
	}
	if task.Time != "오전 08:00" {
		t.Errorf("manual time should fill the gap, got %q", task.Time)
	}
}

func TestInsertRejectsEmptyAndFailure(t *testing.T) {
	s, b := newTestSession(t)
	if _, err := s.Insert(context.Background(), Draft{Text: "   "}); !errors.Is(err, ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
	b.failCreate = true
	if _, err := s.Insert(context.Background(), Draft{Text: "할 일"}); err == nil {
		t.Fatal("expected insert failure")
	}
	if len(s.Tasks()) != 0 {
		t.Errorf("failed insert must not add to the collection")
	}
}

func TestToggleCompletionRevertsOnFailure(t *testing.T) {
	s, b := newTestSession(t)
	task := mustInsert(t, s, "빨래")

	if err := s.ToggleCompletion(context.Background(), task.ID); err != nil {
		t.Fatal(err)
	}
	if !s.Tasks()[0].Completed {
		t.Fatal("toggle did not apply")
	}

	b.failUpdate = true
	if err := s.ToggleCompletion(context.Background(), task.ID); err == nil {
		t.Fatal("expected toggle failure")
	}
	if !s.Tasks()[0].Completed {
		t.Error("failed toggle must leave the flag exactly as it was")
	}
}

func TestUpdateTextReextractsTags(t *testing.T) {
	s, _ := newTestSession(t)
	task := mustInsert(t, s, "문서 정리")

	if err := s.UpdateText(context.Background(), task.ID, "보고서 작성 #업무"); err != nil {
		t.Fatal(err)
	}
	got := s.Tasks()[0]
	if got.Text != "보고서 작성" {
		t.Errorf("text = %q", got.Text)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "#업무" {
		t.Errorf("tags = %v", got.Tags)
	}
	if err := s.UpdateText(context.Background(), task.ID, "  "); !errors.Is(err, ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
}

func TestDeleteRestoreRoundTrip(t *testing.T) {
	s, _ := newTestSession(t)
	mustInsert(t, s, "셋")
	target := mustInsert(t, s, "둘")
	mustInsert(t, s, "하나")
	// list is now 하나, 둘, 셋; target sits at index 1

	if _, err := s.Delete(context.Background(), target.ID); err != nil {
		t.Fatal(err)
	}
	if len(s.Tasks()) != 2 {
		t.Fatalf("delete did not remove, len = %d", len(s.Tasks()))
	}

	restored, err := s.Restore(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if restored.ID == target.ID {
		t.Log("backend reused the id; acceptable but unexpected for this fake")
	}
	if restored.Text != target.Text || restored.Time != target.Time || restored.Location != target.Location {
		t.Errorf("restored task differs: %+v vs %+v", restored, target)
	}
	if s.Tasks()[1].Text != "둘" {
		t.Errorf("restored task should be back at index 1, list: %v", taskTexts(s.Tasks()))
	}
	if _, err := s.Restore(context.Background()); !errors.Is(err, ErrNothingToRestore) {
		t.Errorf("second restore should find nothing, got %v", err)
	}
}

func TestSecondDeleteSupersedesFirst(t *testing.T) {
	s, _ := newTestSession(t)
	first := mustInsert(t, s, "첫번째")
	second := mustInsert(t, s, "두번째")

	if _, err := s.Delete(context.Background(), first.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Delete(context.Background(), second.ID); err != nil {
		t.Fatal(err)
	}

	restored, err := s.Restore(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if restored.Text != "두번째" {
		t.Errorf("only the later deletion is restorable, got %q", restored.Text)
	}
	if _, err := s.Restore(context.Background()); !errors.Is(err, ErrNothingToRestore) {
		t.Error("first deletion must be unrecoverable")
	}
}

func TestStaleUndoTimerIsIgnored(t *testing.T) {
	s, _ := newTestSession(t)
	first := mustInsert(t, s, "첫번째")
	second := mustInsert(t, s, "두번째")

	gen1, err := s.Delete(context.Background(), first.ID)
	if err != nil {
		t.Fatal(err)
	}
	gen2, err := s.Delete(context.Background(), second.ID)
	if err != nil {
		t.Fatal(err)
	}

	s.ExpireUndo(gen1) // the first deletion's timer fires late
	if !s.UndoArmed() {
		t.Fatal("stale expiry must not discard the newer record")
	}
	s.ExpireUndo(gen2)
	if s.UndoArmed() {
		t.Error("matching expiry should empty the buffer")
	}
}

func TestDeleteFailureKeepsTask(t *testing.T) {
	s, b := newTestSession(t)
	task := mustInsert(t, s, "지우기")
	b.failDelete = true
	if _, err := s.Delete(context.Background(), task.ID); err == nil {
		t.Fatal("expected delete failure")
	}
	if len(s.Tasks()) != 1 {
		t.Error("failed delete must keep the task")
	}
	if s.UndoArmed() {
		t.Error("failed delete must not arm the undo buffer")
	}
}

func TestClearCompleted(t *testing.T) {
	s, _ := newTestSession(t)
	done := mustInsert(t, s, "끝난 일")
	mustInsert(t, s, "남은 일")
	if err := s.ToggleCompletion(context.Background(), done.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.ClearCompleted(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(s.Tasks()) != 1 || s.Tasks()[0].Text != "남은 일" {
		t.Errorf("tasks after clear: %v", taskTexts(s.Tasks()))
	}
}

func TestClearAll(t *testing.T) {
	s, _ := newTestSession(t)
	mustInsert(t, s, "하나")
	mustInsert(t, s, "둘")
	if err := s.ClearAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(s.Tasks()) != 0 {
		t.Errorf("tasks left after clear all: %v", taskTexts(s.Tasks()))
	}
}

func TestCategoryLifecycle(t *testing.T) {
	s, _ := newTestSession(t)
	cat, err := s.AddCategory(context.Background(), "헬스")
	if err != nil {
		t.Fatal(err)
	}
	if cat.Icon != "💪" {
		t.Errorf("icon heuristic missed: %q", cat.Icon)
	}

	task, err := s.Insert(context.Background(), Draft{Text: "스쿼트", CategoryID: cat.ID})
	if err != nil {
		t.Fatal(err)
	}
	if task.CategoryID != cat.ID {
		t.Fatalf("task not categorized")
	}

	if err := s.DeleteCategory(context.Background(), "personal"); !errors.Is(err, ErrProtectedCategory) {
		t.Errorf("seeded category must be protected, got %v", err)
	}
	if err := s.DeleteCategory(context.Background(), cat.ID); err != nil {
		t.Fatal(err)
	}
	if s.Tasks()[0].CategoryID != "" {
		t.Error("deleting a category must clear task references")
	}
	if _, ok := s.CategoryByID(cat.ID); ok {
		t.Error("category still resolvable after delete")
	}
}

func TestToggleHabit(t *testing.T) {
	s, b := newTestSession(t)
	day := time.Date(2026, 3, 14, 23, 50, 0, 0, time.Local)
	key := DateKey(day)

	if err := s.ToggleHabit(context.Background(), "running", day); err != nil {
		t.Fatal(err)
	}
	if !s.Habits()[2].CompletedDates[key] {
		t.Fatal("toggle on did not apply")
	}
	if !b.completions["running|"+key] {
		t.Error("completion not persisted")
	}

	// Same calendar day at a different time-of-day flips the same bit.
	later := time.Date(2026, 3, 14, 8, 0, 0, 0, time.Local)
	if err := s.ToggleHabit(context.Background(), "running", later); err != nil {
		t.Fatal(err)
	}
	if s.Habits()[2].CompletedDates[key] {
		t.Error("second toggle should clear the membership bit")
	}

	b.failHabit = true
	if err := s.ToggleHabit(context.Background(), "running", day); err == nil {
		t.Fatal("expected habit toggle failure")
	}
	if s.Habits()[2].CompletedDates[key] {
		t.Error("failed toggle must revert the membership bit")
	}
}

func TestTogglePriorityIsLocal(t *testing.T) {
	s, b := newTestSession(t)
	task := mustInsert(t, s, "중요한 일")
	b.failUpdate = true // a backend write here would fail the test
	if err := s.TogglePriority(task.ID); err != nil {
		t.Fatal(err)
	}
	if !s.Tasks()[0].Priority {
		t.Error("priority flag not set")
	}
}

func taskTexts(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Text
	}
	return out
}
