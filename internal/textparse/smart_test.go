package textparse

import (
	"reflect"
	"testing"
)

func TestParseInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		title    string
		time     string
		location string
		tags     []string
	}{
		{
			name:     "ampm time with location and tag",
			input:    "오후 3시에 강남에서 미팅#업무",
			title:    "미팅",
			time:     "오후 03:00",
			location: "강남",
			tags:     []string{"#업무"},
		},
		{
			name:  "bare 24h time with minutes",
			input: "14시 30분",
			time:  "오후 02:30",
		},
		{
			name:  "out of range hour leaves text unchanged",
			input: "25시",
			title: "25시",
		},
		{
			name:  "invalid ampm hour does not fall through to bare form",
			input: "오후 13시 회의",
			title: "오후 13시 회의",
		},
		{
			name:  "midnight maps to morning twelve",
			input: "0시 정리",
			title: "정리",
			time:  "오전 12:00",
		},
		{
			name:  "hour 24 maps to afternoon twelve",
			input: "24시 마감",
			title: "마감",
			time:  "오후 12:00",
		},
		{
			name:     "ampm with minutes and location",
			input:    "오전 9시 30분 카페에서 공부",
			title:    "공부",
			time:     "오전 09:30",
			location: "카페",
		},
		{
			name:     "location only",
			input:    "강남에서 약속",
			title:    "약속",
			location: "강남",
		},
		{
			name:     "bare hour shape inside location token does not misfire",
			input:    "오후 2시 5시장에서 쇼핑",
			title:    "쇼핑",
			time:     "오후 02:00",
			location: "5시장",
		},
		{
			name:  "plain text passes through",
			input: "우유 사기",
			title: "우유 사기",
		},
		{
			name:  "tags only keeps text as title",
			input: "#업무 #회의",
			title: "#업무 #회의",
			tags:  []string{"#업무", "#회의"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseInput(tt.input)
			if got.Title != tt.title {
				t.Errorf("title = %q, want %q", got.Title, tt.title)
			}
			if got.Time != tt.time {
				t.Errorf("time = %q, want %q", got.Time, tt.time)
			}
			if got.Location != tt.location {
				t.Errorf("location = %q, want %q", got.Location, tt.location)
			}
			if len(got.Tags) != 0 || len(tt.tags) != 0 {
				if !reflect.DeepEqual(got.Tags, tt.tags) {
					t.Errorf("tags = %v, want %v", got.Tags, tt.tags)
				}
			}
		})
	}
}

func TestExtractTags(t *testing.T) {
	tags, clean := ExtractTags("#태그 사용 #test_1 정리")
	if len(tags) != 2 || tags[0] != "#태그" || tags[1] != "#test_1" {
		t.Errorf("tags = %v", tags)
	}
	if clean != "사용 정리" {
		t.Errorf("clean = %q", clean)
	}
}

func TestExtractTagsIdempotent(t *testing.T) {
	_, clean := ExtractTags("회의 준비 #업무 #급함")
	tags2, clean2 := ExtractTags(clean)
	if len(tags2) != 0 {
		t.Errorf("second pass found tags: %v", tags2)
	}
	if clean2 != clean {
		t.Errorf("second pass changed text: %q -> %q", clean, clean2)
	}
}
