package ingest

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/maine/moodle_bot_reminders/internal/announce"
)

const testBanner = "---------------------------------------------------------------------"

func TestIngestor_Ingest(t *testing.T) {
	ing := New()
	created := time.Date(2022, 3, 20, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		rec         announce.RawRecord
		wantMessage string
		wantErr     bool
	}{
		{
			name: "plain text after banner",
			rec: announce.RawRecord{
				ID:          "1",
				Subject:     "COMP333:quiz",
				FullMessage: "header noise\n" + testBanner + "\nQuiz next Monday.",
				CreatedAt:   created,
			},
			wantMessage: "Quiz next Monday.",
		},
		{
			name: "last banner wins",
			rec: announce.RawRecord{
				ID:          "2",
				Subject:     "COMP333:quiz",
				FullMessage: testBanner + "\nfirst part\n" + testBanner + "\nsecond part",
			},
			wantMessage: "second part",
		},
		{
			name: "html body is flattened",
			rec: announce.RawRecord{
				ID:          "3",
				Subject:     "PHYS201:lab",
				FullMessage: "<div>header</div><p>" + testBanner + "</p><p>Lab report due &amp; graded.</p>",
			},
			wantMessage: "Lab report due & graded.",
		},
		{
			name: "missing banner",
			rec: announce.RawRecord{
				ID:          "4",
				Subject:     "COMP333:quiz",
				FullMessage: "no separator here",
			},
			wantErr: true,
		},
		{
			name: "empty subject",
			rec: announce.RawRecord{
				ID:          "5",
				Subject:     "   ",
				FullMessage: testBanner + "\nbody",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ing.Ingest(tt.rec)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Ingest() expected error, got nil")
				}
				var malformed *announce.MalformedRecordError
				if !errors.As(err, &malformed) {
					t.Errorf("Ingest() error = %T, want MalformedRecordError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Ingest() error = %v", err)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("Ingest() message = %q, want %q", got.Message, tt.wantMessage)
			}
			if got.Title != tt.rec.Subject {
				t.Errorf("Ingest() title = %q, want %q", got.Title, tt.rec.Subject)
			}
		})
	}
}

func TestFlattenHTML_NonHTMLUntouched(t *testing.T) {
	in := "plain text with 5 &lt; 6"
	got := flattenHTML(in)
	if !strings.Contains(got, "5 < 6") {
		t.Errorf("flattenHTML() = %q, want unescaped entities", got)
	}
}
