// Package model holds TUI state fetched from the daemon.
package model

import (
	"sync"
	"time"
)

// Flash holds one transient notification.
type Flash struct {
	mu      sync.RWMutex
	message string
	warn    bool
	expires time.Time
	now     func() time.Time
}

// Info shows msg for d.
func (f *Flash) Info(msg string, d time.Duration) { f.set(msg, false, d) }

// Warn shows msg for d, highlighted.
func (f *Flash) Warn(msg string, d time.Duration) { f.set(msg, true, d) }

func (f *Flash) set(msg string, warn bool, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = msg
	f.warn = warn
	f.expires = f.clock().Add(d)
}

// Get returns the current message and whether it is a warning. The message
// is empty once expired.
func (f *Flash) Get() (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.clock().After(f.expires) {
		return "", false
	}
	return f.message, f.warn
}

func (f *Flash) clock() time.Time {
	if f.now != nil {
		return f.now()
	}
	return time.Now()
}
