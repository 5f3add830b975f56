package search

import (
	"strings"
	"testing"

	"github.com/maine/moodle_bot_reminders/internal/announce"
)

func sampleBatch() []announce.Announcement {
	return []announce.Announcement{
		{
			ID:          "a1",
			Title:       "COMP333:quiz 3",
			SubjectName: "Algorithms",
			Message:     "The quiz covers chapters 4 and 5.",
		},
		{
			ID:          "a2",
			Title:       "PHYS201:lab report",
			SubjectName: "Physics II",
			Message:     "Submit the lab report by Friday.",
		},
		{
			ID:      "a3",
			Title:   "CMPS211:session moved",
			Message: "The lab session moves to room 301.",
		},
	}
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{name: "match in message", query: "chapters", wantIDs: []string{"a1"}},
		{name: "match in title", query: "quiz", wantIDs: []string{"a1"}},
		{name: "case insensitive", query: "QUIZ", wantIDs: []string{"a1"}},
		{name: "multiple matches", query: "lab", wantIDs: []string{"a2", "a3"}},
		{name: "no match", query: "holiday", wantIDs: nil},
		{name: "blank query", query: "   ", wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, _ := Search(sampleBatch(), tt.query)

			var ids []string
			for _, a := range found {
				ids = append(ids, a.ID)
			}
			if len(ids) != len(tt.wantIDs) {
				t.Fatalf("Search() ids = %v, want %v", ids, tt.wantIDs)
			}
			for i := range ids {
				if ids[i] != tt.wantIDs[i] {
					t.Errorf("Search() ids = %v, want %v", ids, tt.wantIDs)
				}
			}
		})
	}
}

func TestHighlight(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		query string
		want  string
	}{
		{
			name:  "exact match wrapped",
			text:  "Submit the lab report.",
			query: "lab",
			want:  "Submit the [lab] report.",
		},
		{
			name:  "other case variants wrapped too",
			text:  "Lab work and lab report.",
			query: "lab",
			want:  "[Lab] work and [lab] report.",
		},
		{
			name:  "empty query untouched",
			text:  "Nothing changes.",
			query: "",
			want:  "Nothing changes.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Highlight(tt.text, tt.query); got != tt.want {
				t.Errorf("Highlight() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestService_Answer(t *testing.T) {
	s := NewService()
	batch := sampleBatch()

	t.Run("no matches", func(t *testing.T) {
		if got := s.Answer(batch, "holiday"); got != "Nothing found." {
			t.Errorf("Answer() = %q", got)
		}
	})

	t.Run("single match returns highlighted message", func(t *testing.T) {
		got := s.Answer(batch, "chapters")
		if !strings.Contains(got, "[chapters]") {
			t.Errorf("Answer() = %q, want highlighted match", got)
		}
	})

	t.Run("multiple matches return numbered list", func(t *testing.T) {
		got := s.Answer(batch, "lab")
		if !strings.Contains(got, "1. PHYS201:lab report (Physics II)") {
			t.Errorf("Answer() missing first entry: %q", got)
		}
		if !strings.Contains(got, "2. CMPS211:session moved") {
			t.Errorf("Answer() missing second entry: %q", got)
		}
	})
}

func TestView(t *testing.T) {
	got := View([]announce.Announcement{
		{ID: "a1", Title: "COMP333:quiz 3", SubjectName: "Algorithms"},
		{ID: "a2", Title: "PHYS201:lab report"},
	})

	want := "1. COMP333:quiz 3 (Algorithms)\n2. PHYS201:lab report"
	if got != want {
		t.Errorf("View() = %q, want %q", got, want)
	}
}
