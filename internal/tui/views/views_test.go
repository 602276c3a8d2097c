package views

import (
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/imsg/internal/chatdb"
	"github.com/matheus3301/imsg/internal/tui/ui"
)

func strp(s string) *string { return &s }

func TestTitle(t *testing.T) {
	tests := []struct {
		name string
		conv chatdb.Conversation
		want string
	}{
		{"display name", chatdb.Conversation{DisplayName: strp("Family"), ChatIdentifier: "chat1"}, "Family"},
		{"participants", chatdb.Conversation{DisplayName: strp(""), ChatIdentifier: "chat1", Participants: []chatdb.Participant{{Address: "a"}, {Address: "b"}}}, "a, b"},
		{"identifier", chatdb.Conversation{ChatIdentifier: "+15550001"}, "+15550001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title(tt.conv); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	conv := chatdb.Conversation{
		ChatIdentifier: "chat42",
		Participants:   []chatdb.Participant{{Address: "bob@example.com"}},
		LastMessage:    &chatdb.Message{Text: strp("Lunch tomorrow?")},
	}
	for _, filter := range []string{"", "BOB", "lunch", "chat4"} {
		if !Matches(conv, filter) {
			t.Errorf("Matches(%q) = false", filter)
		}
	}
	if Matches(conv, "alice") {
		t.Error("Matches(alice) = true")
	}
}

func TestConversationListFilterSelection(t *testing.T) {
	cl := NewConversationList(ui.DefaultTheme())
	cl.Update([]chatdb.Conversation{
		{GUID: "c1", ChatIdentifier: "alice"},
		{GUID: "c2", ChatIdentifier: "bob"},
	})
	cl.SetFilter("bob")
	cl.Select(1, 0)
	if got := cl.Selected(); got != "c2" {
		t.Errorf("Selected() = %q, want c2", got)
	}
	if !strings.Contains(cl.GetTitle(), "(1/2)") {
		t.Errorf("title = %q", cl.GetTitle())
	}
}

func TestFormatTimestamp(t *testing.T) {
	now := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	if got := formatTimestamp(0, now); got != "" {
		t.Errorf("zero = %q", got)
	}
	if got := formatTimestamp(now.Add(-2*time.Hour).UnixMilli(), now); got != "16:00" {
		t.Errorf("today = %q, want 16:00", got)
	}
	if got := formatTimestamp(now.AddDate(0, 0, -3).UnixMilli(), now); got != "02/27" {
		t.Errorf("earlier = %q, want 02/27", got)
	}
}

func TestFormatMessage(t *testing.T) {
	now := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	m := &chatdb.Message{
		Text:        strp("see [red]this"),
		Sender:      &chatdb.Participant{Address: "+15550001"},
		DateCreated: now.UnixMilli(),
		Attachments: []chatdb.Attachment{{GUID: "a"}},
	}
	got := FormatMessage(m, now)
	if !strings.Contains(got, "+15550001") || !strings.Contains(got, "18:00") {
		t.Errorf("FormatMessage = %q", got)
	}
	if !strings.Contains(got, "[red[]") {
		t.Errorf("markup in text must be escaped: %q", got)
	}
	if !strings.Contains(got, "1 attachment(s)") {
		t.Errorf("attachment count missing: %q", got)
	}

	m.IsFromMe = true
	if got := FormatMessage(m, now); !strings.HasPrefix(got, "[::b]You") {
		t.Errorf("from me = %q", got)
	}
}

func TestSanitizeForTerminal(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"\U0001F44D\U0001F3FB", "\U0001F44D"},
		{"\u2764\uFE0F", "\u2764"},
		{"a\u200db", "ab"},
	}
	for _, tt := range tests {
		if got := sanitizeForTerminal(tt.in); got != tt.want {
			t.Errorf("sanitizeForTerminal(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatusBarLine(t *testing.T) {
	sb := NewStatusBar(ui.DefaultTheme())
	sb.SetSession("main")
	sb.SetState("DEGRADED")
	sb.SetHints([]string{"q:quit"})
	sb.SetFlash("poll failed", true)

	got := sb.line(time.Date(2024, 3, 1, 9, 5, 0, 0, time.UTC))
	for _, want := range []string{"main", "[yellow]DEGRADED", "09:05", "q:quit", "[yellow]poll failed"} {
		if !strings.Contains(got, want) {
			t.Errorf("line %q missing %q", got, want)
		}
	}
}
