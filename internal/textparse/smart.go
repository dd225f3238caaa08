package textparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Time-of-day period labels as they appear in input and on task rows.
const (
	Morning   = "오전"
	Afternoon = "오후"
)

var (
	// "오전 9시", "오후 3시 30분"
	ampmTimePattern = regexp.MustCompile(`(오전|오후)\s*(\d{1,2})시(?:\s*(\d{1,2})분)?`)
	// "14시", "9시 30분"
	bareTimePattern = regexp.MustCompile(`(\d{1,2})시(?:\s*(\d{1,2})분)?`)
	// "강남에서" -> location "강남"
	locationPattern = regexp.MustCompile(`([가-힣a-zA-Z0-9]+)에서`)
)

// Parsed is the result of running ParseInput over raw task entry text.
// Time and Location are empty when the corresponding pattern found
// nothing; a non-match is not an error.
type Parsed struct {
	Title    string
	Time     string // "오전|오후 HH:MM"
	Location string
	Tags     []string
}

// ParseInput extracts an optional time-of-day expression and an optional
// location phrase from free text. The am/pm time form is tried first;
// once it matches, the bare form is not consulted even if the matched
// span fails range validation. The location pattern runs on whatever
// text remains. The remainder, stripped of hashtags, becomes the title.
func ParseInput(input string) Parsed {
	text := input

	var timeStr string
	if m := ampmTimePattern.FindStringSubmatchIndex(text); m != nil {
		period := text[m[2]:m[3]]
		hour := atoiSpan(text, m, 2)
		minute := 0
		if m[6] >= 0 {
			minute = atoiSpan(text, m, 3)
		}
		if hour >= 1 && hour <= 12 && minute >= 0 && minute <= 59 {
			timeStr = FormatClock(period, hour, minute)
			text = removeTimeSpan(text, m[0], m[1])
		}
	} else if m := bareTimePattern.FindStringSubmatchIndex(text); m != nil {
		hour := atoiSpan(text, m, 1)
		minute := 0
		if m[4] >= 0 {
			minute = atoiSpan(text, m, 2)
		}
		if hour >= 0 && hour <= 24 && minute >= 0 && minute <= 59 {
			period := Morning
			if hour >= 12 {
				period = Afternoon
			}
			display := hour
			switch {
			case hour == 0:
				display = 12
			case hour > 12:
				display = hour - 12
			}
			timeStr = FormatClock(period, display, minute)
			text = removeTimeSpan(text, m[0], m[1])
		}
	}

	var location string
	if m := locationPattern.FindStringSubmatchIndex(text); m != nil {
		location = text[m[2]:m[3]]
		text = strings.TrimSpace(text[:m[0]] + text[m[1]:])
	}

	tags, title := ExtractTags(text)
	if title == "" {
		// The remainder was nothing but tags; keep them visible as the
		// title rather than creating a blank task.
		title = strings.TrimSpace(text)
	}
	return Parsed{Title: title, Time: timeStr, Location: location, Tags: tags}
}

// FormatClock renders a time-of-day as it appears on a task row.
func FormatClock(period string, hour, minute int) string {
	return fmt.Sprintf("%s %02d:%02d", period, hour, minute)
}

// removeTimeSpan drops text[start:end]. A locative 에 particle stranded
// directly after the removed time ("3시에 강남에서" would otherwise leave
// a bare 에 in the title) is dropped with it; 에서 is the location suffix
// and is left alone.
func removeTimeSpan(text string, start, end int) string {
	rest := text[end:]
	if strings.HasPrefix(rest, "에") && !strings.HasPrefix(rest, "에서") {
		rest = rest[len("에"):]
	}
	return strings.TrimSpace(text[:start] + rest)
}

// atoiSpan converts capture group g of a FindStringSubmatchIndex result.
func atoiSpan(text string, m []int, g int) int {
	n, err := strconv.Atoi(text[m[2*g]:m[2*g+1]])
	if err != nil {
		return -1
	}
	return n
}
