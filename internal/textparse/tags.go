package textparse

import (
	"regexp"
	"strings"
)

// Hashtag tokens: ASCII word characters plus Hangul, so Korean tags work.
var tagPattern = regexp.MustCompile(`#[\w가-힣]+`)

// ExtractTags pulls #tag tokens out of text in order of appearance and
// returns the text with the tokens removed and whitespace collapsed.
// Running it again on the cleaned text yields no tags and the same text.
func ExtractTags(text string) (tags []string, clean string) {
	tags = tagPattern.FindAllString(text, -1)
	clean = tagPattern.ReplaceAllString(text, "")
	clean = strings.Join(strings.Fields(clean), " ")
	return tags, clean
}
