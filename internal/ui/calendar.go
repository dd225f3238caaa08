package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/k991020/daily-planner/internal/planner"
)

var weekdayHeaders = []string{"일", "월", "화", "수", "목", "금", "토"}

// renderMonth draws one month of a habit's completions as a week grid.
// The day of the selected time is bracketed; completed days carry a dot.
func renderMonth(h planner.Habit, selected, today time.Time) string {
	var b strings.Builder

	for _, w := range weekdayHeaders {
		fmt.Fprintf(&b, " %s  ", w)
	}
	b.WriteString("\n")

	first := time.Date(selected.Year(), selected.Month(), 1, 0, 0, 0, 0, selected.Location())
	offset := int(first.Weekday())
	b.WriteString(strings.Repeat("     ", offset))

	days := daysIn(selected)
	col := offset
	for day := 1; day <= days; day++ {
		date := time.Date(selected.Year(), selected.Month(), day, 0, 0, 0, 0, selected.Location())
		key := planner.DateKey(date)

		cell := fmt.Sprintf("%2d", day)
		switch {
		case day == selected.Day():
			cell = "[" + cell + "]"
		case h.CompletedDates[key]:
			cell = " " + cell + "•"
		case sameDay(date, today):
			cell = "(" + cell + ")"
		default:
			cell = " " + cell + " "
		}
		b.WriteString(cell)
		b.WriteString(" ")

		col++
		if col%7 == 0 && day != days {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

// countMonth reports how many days of the habit are checked off in the
// month containing t.
func countMonth(h planner.Habit, t time.Time) int {
	prefix := t.Format("2006-01")
	n := 0
	for key, done := range h.CompletedDates {
		if done && strings.HasPrefix(key, prefix) {
			n++
		}
	}
	return n
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
