package dedup

import (
	"testing"
	"time"

	"github.com/maine/moodle_bot_reminders/internal/announce"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical", a: "quiz 3", b: "quiz 3", want: 1},
		{name: "both empty", a: "", b: "", want: 1},
		{name: "completely different", a: "abc", b: "xyz", want: 0},
		{name: "half shared", a: "ab", b: "ax", want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ratio(tt.a, tt.b); got != tt.want {
				t.Errorf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRatio_SimilarTitles(t *testing.T) {
	a := "comp333:quiz 3 announcement"
	b := "comp333:quiz 3 announcement postponed"
	if got := Ratio(a, b); got < 0.7 {
		t.Errorf("Ratio() = %v, want >= 0.7 for near-identical titles", got)
	}
}

func TestResolver_Resolve(t *testing.T) {
	r := New()
	base := time.Date(2022, 3, 20, 10, 0, 0, 0, time.UTC)

	batch := []announce.Announcement{
		{
			ID:          "old",
			Title:       "COMP333:quiz 3 announcement",
			SubjectCode: "COMP333",
			Kind:        announce.KindExam,
			CreatedAt:   base,
		},
		{
			ID:          "newer",
			Title:       "COMP333:quiz 3 announcement postponed",
			Message:     "The quiz is postponed, new date to follow.",
			SubjectCode: "COMP333",
			Kind:        announce.KindExam,
			CreatedAt:   base.Add(24 * time.Hour),
		},
		{
			ID:          "unrelated",
			Title:       "PHYS201:lab 4",
			SubjectCode: "PHYS201",
			Kind:        announce.KindLab,
			CreatedAt:   base,
		},
	}

	got := r.Resolve(batch)

	byID := map[string]announce.Announcement{}
	for _, a := range got {
		byID[a.ID] = a
	}

	if byID["old"].Kind != announce.KindNone {
		t.Errorf("superseded announcement kept kind %q, want none", byID["old"].Kind)
	}
	if byID["newer"].Kind != announce.KindExam {
		t.Errorf("superseding announcement lost kind, got %q", byID["newer"].Kind)
	}
	if byID["unrelated"].Kind != announce.KindLab {
		t.Errorf("unrelated announcement touched, got kind %q", byID["unrelated"].Kind)
	}
}

// Если после переноса вышла ещё более свежая версия, выживает она,
// а не само объявление о переносе.
func TestResolver_LatestVersionSurvives(t *testing.T) {
	r := New()
	base := time.Date(2022, 3, 20, 10, 0, 0, 0, time.UTC)

	batch := []announce.Announcement{
		{
			ID:          "postponed",
			Title:       "COMP333:quiz 3 postponed",
			SubjectCode: "COMP333",
			Kind:        announce.KindExam,
			CreatedAt:   base,
		},
		{
			ID:          "final",
			Title:       "COMP333:quiz 3 postponed again",
			SubjectCode: "COMP333",
			Kind:        announce.KindExam,
			CreatedAt:   base.Add(48 * time.Hour),
		},
	}

	got := r.Resolve(batch)

	byID := map[string]announce.Announcement{}
	for _, a := range got {
		byID[a.ID] = a
	}

	if byID["postponed"].Kind != announce.KindNone {
		t.Errorf("older postponement kept kind %q, want none", byID["postponed"].Kind)
	}
	if byID["final"].Kind != announce.KindExam {
		t.Errorf("latest version lost kind, got %q", byID["final"].Kind)
	}
}

func TestResolver_NoFalsePositives(t *testing.T) {
	r := New()

	batch := []announce.Announcement{
		{
			ID:          "a",
			Title:       "COMP333:quiz 3 postponed",
			SubjectCode: "COMP333",
			Kind:        announce.KindExam,
		},
		{
			ID:          "b",
			Title:       "COMP333:completely different topic",
			SubjectCode: "COMP333",
			Kind:        announce.KindSession,
		},
	}

	got := r.Resolve(batch)
	for _, a := range got {
		if a.Kind == announce.KindNone {
			t.Errorf("announcement %s lost kind despite dissimilar titles", a.ID)
		}
	}
}
