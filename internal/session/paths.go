package session

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// BaseDir returns ~/.imsg.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".imsg")
}

// Dir returns the session-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "sessions", name)
}

// SocketPath returns the UDS socket path for a session.
func SocketPath(name string) string {
	return filepath.Join(Dir(name), "daemon.sock")
}

// LockPath returns the lock file path for a session.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// LogDir returns the log directory for a session.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the daemon log file path.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "imsgd.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// StorePath expands a configured chat.db location ("~/Library/...") to an
// absolute path.
func StorePath(configured string) (string, error) {
	expanded, err := homedir.Expand(configured)
	if err != nil {
		return "", err
	}
	return filepath.Abs(expanded)
}

// EnsureDir creates the session directory tree with proper permissions.
func EnsureDir(name string) error {
	dirs := []string{
		Dir(name),
		LogDir(name),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
