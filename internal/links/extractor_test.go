package links

import (
	"reflect"
	"testing"
)

func TestExtractor_Extract(t *testing.T) {
	e := New()

	tests := []struct {
		name    string
		message string
		want    []string
	}{
		{
			name:    "zoom link kept",
			message: "Join at https://us02web.zoom.us/j/123456 before class.",
			want:    []string{"https://us02web.zoom.us/j/123456"},
		},
		{
			name:    "teams link kept",
			message: "Lecture: https://teams.microsoft.com/l/meetup-join/abc",
			want:    []string{"https://teams.microsoft.com/l/meetup-join/abc"},
		},
		{
			name:    "non-meeting link dropped",
			message: "Slides at https://example.com/slides.pdf",
			want:    nil,
		},
		{
			name: "order of appearance preserved",
			message: "First https://zoom.us/j/1 then https://example.com/x " +
				"then https://meet.google.com/abc-defg",
			want: []string{"https://zoom.us/j/1", "https://meet.google.com/abc-defg"},
		},
		{
			name:    "no links at all",
			message: "Nothing to click here.",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.message)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract() = %v, want %v", got, tt.want)
			}
		})
	}
}
