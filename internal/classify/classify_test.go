package classify

import (
	"errors"
	"testing"

	"github.com/maine/moodle_bot_reminders/internal/announce"
)

var testSubjects = map[string]string{
	"COMP333": "Algorithms",
	"PHYS201": "Electricity and Magnetism",
}

func TestClassifier_Classify(t *testing.T) {
	c := New()

	tests := []struct {
		name     string
		title    string
		wantCode string
		wantKind announce.Kind
		wantErr  bool
	}{
		{
			name:     "exam family token",
			title:    "COMP333:quiz 3 announcement",
			wantCode: "COMP333",
			wantKind: announce.KindExam,
		},
		{
			name:     "midterms collapse into exam",
			title:    "COMP333: midterms schedule",
			wantCode: "COMP333",
			wantKind: announce.KindExam,
		},
		{
			name:     "non-exam token stays literal",
			title:    "PHYS201:lab session cancelled",
			wantCode: "PHYS201",
			// lab и session - два разных типа, классификация неоднозначна
			wantKind: announce.KindNone,
		},
		{
			name:     "single lab token",
			title:    "PHYS201:lab 4",
			wantCode: "PHYS201",
			wantKind: announce.KindLab,
		},
		{
			name:     "no colon means no kind",
			title:    "COMP333",
			wantCode: "COMP333",
			wantKind: announce.KindNone,
		},
		{
			name:     "no kind token",
			title:    "COMP333: general announcement",
			wantCode: "COMP333",
			wantKind: announce.KindNone,
		},
		{
			name:    "unknown subject code",
			title:   "MATH999:quiz",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(announce.Announcement{ID: "a1", Title: tt.title}, testSubjects)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Classify() expected error, got nil")
				}
				var unknown *announce.UnknownSubjectError
				if !errors.As(err, &unknown) {
					t.Errorf("Classify() error = %T, want UnknownSubjectError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if got.SubjectCode != tt.wantCode {
				t.Errorf("SubjectCode = %q, want %q", got.SubjectCode, tt.wantCode)
			}
			if got.SubjectName != testSubjects[tt.wantCode] {
				t.Errorf("SubjectName = %q, want %q", got.SubjectName, testSubjects[tt.wantCode])
			}
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", got.Kind, tt.wantKind)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    announce.Kind
		wantErr bool
	}{
		{name: "plural quiz", text: "two quizzes next week", want: announce.KindExam},
		{name: "grades", text: "grades are out", want: announce.KindExam},
		{name: "project", text: "projects due", want: announce.KindProject},
		{name: "same kind twice is fine", text: "quiz and another quiz", want: announce.KindExam},
		{name: "two distinct kinds", text: "quiz and lab", want: announce.KindNone, wantErr: true},
		{name: "no token", text: "nothing here", want: announce.KindNone, wantErr: true},
		{name: "token inside word ignored", text: "prequizzical", want: announce.KindNone, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := KindOf(tt.text)
			if got != tt.want {
				t.Errorf("KindOf(%q) = %q, want %q", tt.text, got, tt.want)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("KindOf(%q) error = %v, wantErr %v", tt.text, err, tt.wantErr)
			}
		})
	}
}
