package deadline

import (
	"testing"
	"time"
)

func TestExtractor_Extract(t *testing.T) {
	e := NewExtractor()
	now := time.Date(2022, 3, 25, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		message    string
		wantDate   string
		wantOffset int
		wantOK     bool
	}{
		{
			name:       "month first with year and time",
			message:    "The quiz is on Monday March 28 2022 at 10:00 sharp.",
			wantDate:   "Monday March 28 2022",
			wantOffset: 3,
			wantOK:     true,
		},
		{
			name:       "day first without year defaults to current",
			message:    "Submission closes on the 28th of March.",
			wantDate:   "Monday March 28 2022",
			wantOffset: 3,
			wantOK:     true,
		},
		{
			name:       "numeric date qualified by weekday",
			message:    "Lab moved to Friday 01/04/2022, same room.",
			wantDate:   "Friday April 1 2022",
			wantOffset: 7,
			wantOK:     true,
		},
		{
			name:    "numeric date without context rejected",
			message: "Build 01/04/2022 has been deployed.",
			wantOK:  false,
		},
		{
			name:       "past date gives negative offset",
			message:    "The session was held on March 20 2022.",
			wantDate:   "Sunday March 20 2022",
			wantOffset: -5,
			wantOK:     true,
		},
		{
			name:    "no date at all",
			message: "Please read chapter 4 before class.",
			wantOK:  false,
		},
		{
			name:       "timezone echo stripped before re-extract",
			message:    "Posted at 14:30. Exam on Monday March 28 2022 at 14:30 GMT.",
			wantDate:   "Monday March 28 2022",
			wantOffset: 3,
			wantOK:     true,
		},
		{
			// Раннее время, не совпадающее с эхом, не вырезается:
			// иначе сдвиг текста притягивает "Monday" в контекстное
			// окно числовой даты и побеждает не тот кандидат.
			name:       "unrelated earlier clock left in place",
			message:    "Fee 450 paid 01/04/2022 via the portal, receipt 09:15, quiz 3 Monday March 28 2022 at 14:30 GMT.",
			wantDate:   "Monday March 28 2022",
			wantOffset: 3,
			wantOK:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.Extract(tt.message, now)
			if ok != tt.wantOK {
				t.Fatalf("Extract() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Date != tt.wantDate {
				t.Errorf("Extract() date = %q, want %q", got.Date, tt.wantDate)
			}
			if got.DayOffset != tt.wantOffset {
				t.Errorf("Extract() offset = %d, want %d", got.DayOffset, tt.wantOffset)
			}
		})
	}
}

func TestExtractor_FirstMatchWins(t *testing.T) {
	e := NewExtractor()
	now := time.Date(2022, 3, 25, 0, 0, 0, 0, time.UTC)

	got, ok := e.Extract("First on March 26 2022, then again on March 30 2022.", now)
	if !ok {
		t.Fatal("Extract() ok = false, want true")
	}
	if got.Date != "Saturday March 26 2022" {
		t.Errorf("Extract() date = %q, want first date in document order", got.Date)
	}
}
