package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDir(t *testing.T) {
	home, _ := os.UserHomeDir()
	got := Dir("main")
	want := filepath.Join(home, ".imsg", "sessions", "main")
	if got != want {
		t.Errorf("Dir(main) = %q, want %q", got, want)
	}
}

func TestSocketPath(t *testing.T) {
	got := SocketPath("test")
	if !strings.HasSuffix(got, filepath.Join("sessions", "test", "daemon.sock")) {
		t.Errorf("SocketPath(test) = %q, want suffix sessions/test/daemon.sock", got)
	}
}

func TestLockPath(t *testing.T) {
	got := LockPath("test")
	if !strings.HasSuffix(got, filepath.Join("sessions", "test", "LOCK")) {
		t.Errorf("LockPath(test) = %q, want suffix sessions/test/LOCK", got)
	}
}

func TestLogPath(t *testing.T) {
	got := LogPath("test")
	if filepath.Base(got) != "imsgd.log" || filepath.Dir(got) != LogDir("test") {
		t.Errorf("LogPath(test) = %q", got)
	}
}

func TestStorePath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(string) bool
	}{
		{"absolute", "/var/db/chat.db", func(s string) bool { return s == "/var/db/chat.db" }},
		{"tilde", "~/Library/Messages/chat.db", func(s string) bool {
			return filepath.IsAbs(s) && strings.HasSuffix(s, filepath.Join("Library", "Messages", "chat.db")) && !strings.Contains(s, "~")
		}},
		{"relative", "chat.db", filepath.IsAbs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StorePath(tt.input)
			if err != nil {
				t.Fatalf("StorePath(%q) error = %v", tt.input, err)
			}
			if !tt.check(got) {
				t.Errorf("StorePath(%q) = %q", tt.input, got)
			}
		})
	}
}
