package planner

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Query selects and orders the visible slice of the task collection.
type Query struct {
	CategoryID string // "" or "all" matches every category
	Filter     Filter
	Tag        string // task must carry this tag when set
	Search     string // case-insensitive substring on the title
	Sort       SortOption
}

var titleCollator = collate.New(language.Korean)

// Visible derives the displayed list: category, status, tag and search
// filters in that order, then a stable sort by the active key. The input
// slice is left untouched.
func Visible(tasks []Task, q Query) []Task {
	search := strings.ToLower(q.Search)
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if q.CategoryID != "" && q.CategoryID != "all" && t.CategoryID != q.CategoryID {
			continue
		}
		if q.Filter == FilterActive && t.Completed {
			continue
		}
		if q.Filter == FilterCompleted && !t.Completed {
			continue
		}
		if q.Tag != "" && !hasTag(t, q.Tag) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Text), search) {
			continue
		}
		out = append(out, t)
	}
	sortTasks(out, q.Sort)
	return out
}

func sortTasks(tasks []Task, opt SortOption) {
	switch opt {
	case SortDateDesc:
		sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	case SortDateAsc:
		sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].CreatedAt.Before(tasks[j].CreatedAt) })
	case SortPriorityDesc:
		sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Priority && !tasks[j].Priority })
	case SortPriorityAsc:
		sort.SliceStable(tasks, func(i, j int) bool { return !tasks[i].Priority && tasks[j].Priority })
	case SortTitleAsc:
		sort.SliceStable(tasks, func(i, j int) bool { return titleCollator.CompareString(tasks[i].Text, tasks[j].Text) < 0 })
	case SortTitleDesc:
		sort.SliceStable(tasks, func(i, j int) bool { return titleCollator.CompareString(tasks[i].Text, tasks[j].Text) > 0 })
	}
	// SortManual: insertion order stands.
}

func hasTag(t Task, tag string) bool {
	for _, tg := range t.Tags {
		if tg == tag {
			return true
		}
	}
	return false
}

// AllTags returns the distinct tags across tasks in first-seen order.
func AllTags(tasks []Task) []string {
	seen := map[string]bool{}
	var tags []string
	for _, t := range tasks {
		for _, tg := range t.Tags {
			if !seen[tg] {
				seen[tg] = true
				tags = append(tags, tg)
			}
		}
	}
	return tags
}
