package note

import (
	"fmt"
	"strings"
)

// tagKeywords maps case-insensitive keyword substrings to tags. Order matters
// for the resulting tag order; several keywords may map to the same tag.
var tagKeywords = []struct {
	keyword string
	tag     string
}{
	{"python", "python"},
	{"flask", "flask"},
	{"sql", "database"},
	{"mysql", "database"},
	{"ai", "ai"},
	{"machine learning", "ml"},
	{"network", "networking"},
	{"cloud", "cloud"},
	{"security", "security"},
	{"data", "data-science"},
}

// DefaultTag is assigned when no keyword matches.
const DefaultTag = "general"

// AutoTagSummary derives tags and a one-sentence summary from a note's title
// and subject. Matching is a case-insensitive substring scan; duplicate tags
// (two keywords mapping to the same tag) are collapsed, keeping first-match
// order. Deterministic, no side effects.
func AutoTagSummary(title, subject string) ([]string, string) {
	text := strings.ToLower(title + " " + subject)

	var tags []string
	seen := make(map[string]bool, len(tagKeywords))
	for _, kw := range tagKeywords {
		if strings.Contains(text, kw.keyword) && !seen[kw.tag] {
			seen[kw.tag] = true
			tags = append(tags, kw.tag)
		}
	}
	if len(tags) == 0 {
		tags = []string{DefaultTag}
	}

	summary := fmt.Sprintf(
		"This note covers %s concepts related to %s. It includes important explanations and academic material.",
		subject, title)
	return tags, summary
}
