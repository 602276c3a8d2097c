package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/imsg/internal/tui/ui"
	"github.com/rivo/tview"
)

// StatusBar displays session, daemon state, key hints and flash messages.
type StatusBar struct {
	*tview.TextView
	session string
	state   string
	hints   []string
	flash   string
	warn    bool
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.StatusBg)

	return &StatusBar{TextView: tv}
}

// SetSession updates the session name display.
func (sb *StatusBar) SetSession(name string) {
	sb.session = name
	sb.render()
}

// SetState updates the daemon state display.
func (sb *StatusBar) SetState(state string) {
	sb.state = state
	sb.render()
}

// SetHints updates the key hints.
func (sb *StatusBar) SetHints(hints []string) {
	sb.hints = hints
	sb.render()
}

// SetFlash sets a temporary message.
func (sb *StatusBar) SetFlash(msg string, warn bool) {
	sb.flash = msg
	sb.warn = warn
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()
	_, _ = fmt.Fprint(sb, sb.line(time.Now()))
}

func (sb *StatusBar) line(now time.Time) string {
	state := sb.state
	if state == "" {
		state = "UNKNOWN"
	}
	line := fmt.Sprintf(" [::b]%s[-:-:-] | [%s]%s[-] | %s",
		tview.Escape(sb.session), ui.StateColor(state), state, now.Format("15:04"))
	if len(sb.hints) > 0 {
		line += " | " + tview.Escape(strings.Join(sb.hints, " "))
	}
	if sb.flash != "" {
		color := "white"
		if sb.warn {
			color = "yellow"
		}
		line += fmt.Sprintf(" | [%s]%s[-]", color, tview.Escape(sb.flash))
	}
	return line
}
