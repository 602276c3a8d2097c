package client

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// DaemonBinary is the daemon executable name.
const DaemonBinary = "imsgd"

// Probe reports whether a daemon answers GetStatus on socketPath.
func Probe(socketPath string) bool {
	c, err := New(socketPath)
	if err != nil {
		return false
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = c.Status(ctx)
	return err == nil
}

// StartDaemon launches imsgd for the session in the background. The binary
// next to the running executable wins over one on PATH.
func StartDaemon(sessionName string) error {
	bin := DaemonBinary
	if executable, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(executable), DaemonBinary)
		if _, err := os.Stat(sibling); err == nil {
			bin = sibling
		}
	}

	cmd := exec.Command(bin, "--session", sessionName)
	// Inherit stderr so daemon startup errors are visible.
	cmd.Stderr = os.Stderr
	return cmd.Start()
}

// WaitForDaemon polls Probe until it succeeds or timeout passes.
func WaitForDaemon(socketPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if Probe(socketPath) {
			return true
		}
		time.Sleep(300 * time.Millisecond)
	}
	return false
}

// Ensure returns a client for a running daemon, starting one when none
// answers.
func Ensure(sessionName, socketPath string) (*Client, error) {
	if !Probe(socketPath) {
		fmt.Fprintf(os.Stderr, "daemon not running for session %q, starting...\n", sessionName)
		if err := StartDaemon(sessionName); err != nil {
			return nil, fmt.Errorf("start daemon: %w", err)
		}
		if !WaitForDaemon(socketPath, 10*time.Second) {
			return nil, fmt.Errorf("daemon did not become ready")
		}
	}
	return New(socketPath)
}
