package note

import (
	"reflect"
	"testing"
)

func TestAutoTagSummary_tags(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		subject  string
		wantTags []string
	}{
		{
			name:     "single keyword",
			title:    "Python Basics",
			subject:  "Programming",
			wantTags: []string{"python"},
		},
		{
			name:     "case insensitive",
			title:    "FLASK Deep Dive",
			subject:  "Web",
			wantTags: []string{"flask"},
		},
		{
			name:     "duplicate tags collapsed",
			title:    "SQL vs MySQL",
			subject:  "Storage",
			wantTags: []string{"database"},
		},
		{
			name:     "keyword order preserved",
			title:    "Cloud Network Security",
			subject:  "Infrastructure",
			wantTags: []string{"networking", "cloud", "security"},
		},
		{
			name:     "subject contributes matches",
			title:    "Machine Learning Intro",
			subject:  "AI",
			wantTags: []string{"ai", "ml"},
		},
		{
			name:     "no match falls back to default",
			title:    "Gardening 101",
			subject:  "Botany",
			wantTags: []string{DefaultTag},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags, _ := AutoTagSummary(tt.title, tt.subject)
			if !reflect.DeepEqual(tags, tt.wantTags) {
				t.Errorf("AutoTagSummary() tags = %v, want %v", tags, tt.wantTags)
			}
		})
	}
}

func TestAutoTagSummary_summary(t *testing.T) {
	_, summary := AutoTagSummary("Flask SQL Guide", "Programming")

	want := "This note covers Programming concepts related to Flask SQL Guide. " +
		"It includes important explanations and academic material."
	if summary != want {
		t.Errorf("AutoTagSummary() summary = %s, want %s", summary, want)
	}
}
