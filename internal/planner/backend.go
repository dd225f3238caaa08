package planner

import "context"

// User identifies the authenticated account a session works on behalf
// of. It is supplied externally; the planner performs no authentication
// and stays inert without an ID.
type User struct {
	ID    string
	Name  string
	Email string
}

// HabitCompletion is one habit checked off on one calendar day.
type HabitCompletion struct {
	HabitID string
	Date    string // DateKey form
}

// TaskUpdate names the task fields a partial update may touch. Nil
// pointers leave the stored value alone.
type TaskUpdate struct {
	Text          *string
	Tags          *[]string
	Completed     *bool
	Priority      *bool
	ClearCategory bool
}

// Backend is the persistence collaborator: the system of record for
// tasks, categories and habit completions across sessions. Everything is
// scoped to a user ID.
type Backend interface {
	ListTasks(ctx context.Context, userID string) ([]Task, error)
	CreateTask(ctx context.Context, userID string, t Task) (Task, error)
	UpdateTask(ctx context.Context, id string, upd TaskUpdate) error
	DeleteTask(ctx context.Context, id string) error
	DeleteCompletedTasks(ctx context.Context, userID string) error
	DeleteAllTasks(ctx context.Context, userID string) error

	ListCategories(ctx context.Context, userID string) ([]Category, error)
	SaveCategory(ctx context.Context, userID string, c Category) error
	// DeleteCategory also clears the category reference from tasks.
	DeleteCategory(ctx context.Context, userID, id string) error

	ListHabitCompletions(ctx context.Context, userID string) ([]HabitCompletion, error)
	AddHabitCompletion(ctx context.Context, userID, habitID, date string) error
	RemoveHabitCompletion(ctx context.Context, userID, habitID, date string) error

	Close() error
}
