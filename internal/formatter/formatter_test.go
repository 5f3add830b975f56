package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/maine/moodle_bot_reminders/internal/announce"
)

func TestFormatter_BuildMessages(t *testing.T) {
	f := New()
	created := time.Date(2022, 3, 25, 9, 30, 0, 0, time.UTC)

	anns := []announce.Announcement{
		{
			ID:          "a1",
			Title:       "COMP333:quiz 3",
			SubjectName: "Algorithms",
			Message:     "Quiz on Monday.",
			CreatedAt:   created,
			Deadline:    &announce.Deadline{Date: "Monday March 28 2022", DayOffset: 3},
		},
	}

	messages, err := f.BuildMessages(anns, nil)
	if err != nil {
		t.Fatalf("BuildMessages() error = %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("BuildMessages() = %d messages, want 1", len(messages))
	}

	msg := messages[0]
	for _, want := range []string{
		"Title: COMP333:quiz 3",
		"Subject: Algorithms",
		"Message: Quiz on Monday.",
		"Deadline: Monday March 28 2022",
		"Time created: Friday March 25 2022 09:30",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	// Порядок полей фиксирован
	if strings.Index(msg, "Title:") > strings.Index(msg, "Subject:") ||
		strings.Index(msg, "Subject:") > strings.Index(msg, "Deadline:") {
		t.Errorf("field order broken:\n%s", msg)
	}
}

func TestFormatter_SkipsEmptyFields(t *testing.T) {
	f := New()

	messages, err := f.BuildMessages([]announce.Announcement{
		{ID: "a1", Title: "COMP333:note", Message: "Short note."},
	}, nil)
	if err != nil {
		t.Fatalf("BuildMessages() error = %v", err)
	}

	msg := messages[0]
	for _, absent := range []string{"Subject:", "Deadline:", "Time created:"} {
		if strings.Contains(msg, absent) {
			t.Errorf("message contains %q for empty field:\n%s", absent, msg)
		}
	}
}

func TestFormatter_OverrideReplacesMessage(t *testing.T) {
	f := New()

	messages, err := f.BuildMessages([]announce.Announcement{
		{ID: "a1", Title: "COMP333:quiz", Message: "A very long original text."},
	}, map[string]string{"a1": "Condensed."})
	if err != nil {
		t.Fatalf("BuildMessages() error = %v", err)
	}

	if !strings.Contains(messages[0], "Message: Condensed.") {
		t.Errorf("override not applied:\n%s", messages[0])
	}
	if strings.Contains(messages[0], "original text") {
		t.Errorf("original message leaked through override:\n%s", messages[0])
	}
}

func TestFormatter_EmptyBatch(t *testing.T) {
	f := New()
	messages, err := f.BuildMessages(nil, nil)
	if err != nil {
		t.Fatalf("BuildMessages() error = %v", err)
	}
	if messages != nil {
		t.Errorf("BuildMessages(nil) = %v, want nil", messages)
	}
}

func TestPackBlocks_SplitsOnLimit(t *testing.T) {
	big := strings.Repeat("x", telegramMaxMessageLength-100)
	blocks := []string{big, big, "small"}

	messages := packBlocks(blocks)

	// Два больших блока не помещаются вместе; "small" доезжает
	// во втором сообщении.
	if len(messages) != 2 {
		t.Fatalf("packBlocks() = %d messages, want 2", len(messages))
	}
	if !strings.HasPrefix(messages[0], "Reminders (1/2)") {
		t.Errorf("multi-part messages not numbered: %q", messages[0][:40])
	}
	if !strings.Contains(messages[1], "small") {
		t.Error("trailing block lost")
	}
}

func TestPackBlocks_OversizedBlockTruncated(t *testing.T) {
	big := strings.Repeat("x", telegramMaxMessageLength+500)

	messages := packBlocks([]string{big})

	if len(messages) != 1 {
		t.Fatalf("packBlocks() = %d messages, want 1", len(messages))
	}
	if len(messages[0]) > telegramMaxMessageLength {
		t.Errorf("truncated block still exceeds limit: %d", len(messages[0]))
	}
	if !strings.HasSuffix(messages[0], "...") {
		t.Error("truncated block lacks ellipsis")
	}
}
