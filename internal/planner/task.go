package planner

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Task is a single to-do entry with optional scheduling metadata. The
// backend assigns IDs; a restored task gets a fresh one.
type Task struct {
	ID         string
	Text       string
	Completed  bool
	CreatedAt  time.Time
	CategoryID string
	DueDate    *time.Time
	Location   string
	Time       string // display form, e.g. "오후 03:00"
	Priority   bool
	Tags       []string
}

// Category groups tasks. The three seeded categories cannot be deleted.
type Category struct {
	ID    string
	Name  string
	Color string
	Icon  string
}

// Habit is a recurring daily check-off item tracked by calendar date.
// The habit set is fixed; only CompletedDates mutates.
type Habit struct {
	ID             string
	Name           string
	Color          string
	Icon           string
	CompletedDates map[string]bool // keys are DateKey values
}

// Filter narrows the visible list by completion status.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// SortOption selects the ordering of the visible list. SortManual keeps
// insertion order.
type SortOption string

const (
	SortManual       SortOption = "manual"
	SortDateDesc     SortOption = "date_desc"
	SortDateAsc      SortOption = "date_asc"
	SortPriorityDesc SortOption = "priority_desc"
	SortPriorityAsc  SortOption = "priority_asc"
	SortTitleAsc     SortOption = "title_asc"
	SortTitleDesc    SortOption = "title_desc"
)

// SortOptions lists every ordering in UI cycle order.
func SortOptions() []SortOption {
	return []SortOption{
		SortManual, SortDateDesc, SortDateAsc,
		SortPriorityDesc, SortPriorityAsc,
		SortTitleAsc, SortTitleDesc,
	}
}

var protectedCategories = map[string]bool{
	"personal": true,
	"work":     true,
	"shopping": true,
}

// DefaultCategories returns the three seeded categories every account
// starts with.
func DefaultCategories() []Category {
	return []Category{
		{ID: "personal", Name: "개인", Color: "#10B981", Icon: "👤"},
		{ID: "work", Name: "업무", Color: "#3B82F6", Icon: "💼"},
		{ID: "shopping", Name: "쇼핑", Color: "#F59E0B", Icon: "🛒"},
	}
}

// DefaultHabits returns the fixed five tracked habits with empty
// completion sets.
func DefaultHabits() []Habit {
	return []Habit{
		{ID: "exercise", Name: "운동", Color: "#EF4444", Icon: "💪", CompletedDates: map[string]bool{}},
		{ID: "diet", Name: "식단", Color: "#10B981", Icon: "🍽", CompletedDates: map[string]bool{}},
		{ID: "running", Name: "러닝", Color: "#3B82F6", Icon: "🌀", CompletedDates: map[string]bool{}},
		{ID: "diary", Name: "일기", Color: "#F59E0B", Icon: "📓", CompletedDates: map[string]bool{}},
		{ID: "reading", Name: "독서", Color: "#A855F7", Icon: "📖", CompletedDates: map[string]bool{}},
	}
}

// DateKey normalizes a calendar date to YYYY-MM-DD, independent of
// time-of-day, so repeated toggles on the same day hit one membership bit.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// DDayLabel renders a due date relative to now: D-Day on the day itself,
// D-n before, D+n after.
func DDayLabel(due, now time.Time) string {
	d := dateOnly(due)
	n := dateOnly(now)
	days := int(math.Round(d.Sub(n).Hours() / 24))
	switch {
	case days == 0:
		return "D-Day"
	case days > 0:
		return fmt.Sprintf("D-%d", days)
	default:
		return fmt.Sprintf("D+%d", -days)
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatCreatedAt renders a creation timestamp the way task rows show it.
func FormatCreatedAt(t time.Time) string {
	return t.Format("2006. 01. 02 15:04")
}

var iconRules = []struct {
	icon     string
	keywords []string
}{
	{"✈", []string{"여행", "trip", "travel", "비행기"}},
	{"🎓", []string{"공부", "study", "학교", "책"}},
	{"💪", []string{"운동", "gym", "health", "헬스"}},
	{"💰", []string{"돈", "money", "금융", "bank"}},
	{"🛒", []string{"쇼핑", "shop", "마트", "장보기"}},
	{"🏠", []string{"집", "home", "가족", "청소"}},
	{"💻", []string{"코딩", "code", "dev", "작업"}},
	{"🎵", []string{"음악", "music", "노래"}},
	{"🎬", []string{"영화", "movie", "youtube", "영상"}},
	{"🎮", []string{"게임", "game"}},
	{"☕", []string{"약속", "카페", "coffee", "미팅"}},
	{"🎁", []string{"생일", "선물", "기념일"}},
	{"❤", []string{"데이트", "연애", "사랑"}},
	{"💼", []string{"업무", "work", "직장"}},
}

// IconFor picks a category icon from its name by keyword match; the
// first rule that hits wins.
func IconFor(name string) string {
	n := strings.ToLower(name)
	for _, r := range iconRules {
		for _, k := range r.keywords {
			if strings.Contains(n, k) {
				return r.icon
			}
		}
	}
	return "📁"
}

func randomColor() string {
	return fmt.Sprintf("hsl(%d, 70%%, 70%%)", rand.Intn(360))
}
