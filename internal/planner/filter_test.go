package planner

import (
	"testing"
	"time"
)

func sampleTasks() []Task {
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.Local)
	return []Task{
		{ID: "1", Text: "가 보고서", CategoryID: "work", CreatedAt: base.Add(3 * time.Hour), Tags: []string{"#업무"}},
		{ID: "2", Text: "나 장보기", CategoryID: "shopping", CreatedAt: base.Add(2 * time.Hour), Completed: true},
		{ID: "3", Text: "다 운동", CategoryID: "personal", CreatedAt: base.Add(1 * time.Hour), Priority: true},
		{ID: "4", Text: "라 회의 준비", CategoryID: "work", CreatedAt: base, Tags: []string{"#업무", "#급함"}},
	}
}

func TestVisibleFilters(t *testing.T) {
	tasks := sampleTasks()

	got := Visible(tasks, Query{CategoryID: "work", Filter: FilterAll, Sort: SortManual})
	if len(got) != 2 {
		t.Errorf("category filter: got %d tasks", len(got))
	}

	got = Visible(tasks, Query{CategoryID: "all", Filter: FilterActive, Sort: SortManual})
	if len(got) != 3 {
		t.Errorf("active filter: got %d tasks", len(got))
	}

	got = Visible(tasks, Query{Filter: FilterCompleted, Sort: SortManual})
	if len(got) != 1 || got[0].ID != "2" {
		t.Errorf("completed filter: %v", taskTexts(got))
	}

	got = Visible(tasks, Query{Filter: FilterAll, Tag: "#급함", Sort: SortManual})
	if len(got) != 1 || got[0].ID != "4" {
		t.Errorf("tag filter: %v", taskTexts(got))
	}

	got = Visible(tasks, Query{Filter: FilterAll, Search: "회의", Sort: SortManual})
	if len(got) != 1 || got[0].ID != "4" {
		t.Errorf("search filter: %v", taskTexts(got))
	}
}

func TestVisibleManualKeepsOrder(t *testing.T) {
	tasks := sampleTasks()
	got := Visible(tasks, Query{Filter: FilterAll, Sort: SortManual})
	for i, task := range got {
		if task.ID != tasks[i].ID {
			t.Fatalf("manual sort reordered: %v", taskTexts(got))
		}
	}
}

func TestVisibleDoesNotMutateInput(t *testing.T) {
	tasks := sampleTasks()
	Visible(tasks, Query{Filter: FilterAll, Sort: SortTitleDesc})
	if tasks[0].ID != "1" || tasks[3].ID != "4" {
		t.Error("input slice was reordered")
	}
}

func TestSortByDate(t *testing.T) {
	tasks := sampleTasks()
	got := Visible(tasks, Query{Filter: FilterAll, Sort: SortDateAsc})
	if got[0].ID != "4" || got[len(got)-1].ID != "1" {
		t.Errorf("date_asc order: %v", taskTexts(got))
	}
	got = Visible(tasks, Query{Filter: FilterAll, Sort: SortDateDesc})
	if got[0].ID != "1" {
		t.Errorf("date_desc order: %v", taskTexts(got))
	}
}

func TestSortByPriorityIsStable(t *testing.T) {
	tasks := sampleTasks()
	got := Visible(tasks, Query{Filter: FilterAll, Sort: SortPriorityDesc})
	if got[0].ID != "3" {
		t.Fatalf("priority task should lead: %v", taskTexts(got))
	}
	// Equal keys keep their relative order.
	if got[1].ID != "1" || got[2].ID != "2" || got[3].ID != "4" {
		t.Errorf("stable order broken: %v", taskTexts(got))
	}
}

func TestTitleSortsAreReverses(t *testing.T) {
	tasks := sampleTasks()
	asc := Visible(tasks, Query{Filter: FilterAll, Sort: SortTitleAsc})
	desc := Visible(tasks, Query{Filter: FilterAll, Sort: SortTitleDesc})
	for i := range asc {
		if asc[i].ID != desc[len(desc)-1-i].ID {
			t.Fatalf("asc %v and desc %v are not reverses", taskTexts(asc), taskTexts(desc))
		}
	}
	if asc[0].Text != "가 보고서" {
		t.Errorf("collation order: %v", taskTexts(asc))
	}
}

func TestAllTags(t *testing.T) {
	tags := AllTags(sampleTasks())
	if len(tags) != 2 || tags[0] != "#업무" || tags[1] != "#급함" {
		t.Errorf("tags = %v", tags)
	}
}

func TestDDayLabel(t *testing.T) {
	now := time.Date(2026, 9, 1, 15, 0, 0, 0, time.Local)
	tests := []struct {
		due  time.Time
		want string
	}{
		{time.Date(2026, 9, 1, 8, 0, 0, 0, time.Local), "D-Day"},
		{time.Date(2026, 9, 4, 0, 0, 0, 0, time.Local), "D-3"},
		{time.Date(2026, 8, 30, 23, 0, 0, 0, time.Local), "D+2"},
	}
	for _, tt := range tests {
		if got := DDayLabel(tt.due, now); got != tt.want {
			t.Errorf("DDayLabel(%v) = %q, want %q", tt.due, got, tt.want)
		}
	}
}

func TestIconFor(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"제주 여행", "✈"},
		{"Study Group", "🎓"},
		{"기타", "📁"},
	}
	for _, tt := range tests {
		if got := IconFor(tt.name); got != tt.want {
			t.Errorf("IconFor(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
