package views

import (
	"fmt"
	"time"

	"github.com/matheus3301/imsg/internal/chatdb"
	"github.com/matheus3301/imsg/internal/tui/ui"
	"github.com/rivo/tview"
)

// MessageThread displays one conversation's messages, oldest first.
type MessageThread struct {
	*tview.TextView
	theme *ui.Theme
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Messages ")
	tv.SetTitleColor(theme.TitleColor)

	return &MessageThread{TextView: tv, theme: theme}
}

// SetConversation updates the title.
func (mt *MessageThread) SetConversation(conv chatdb.Conversation) {
	mt.SetTitle(fmt.Sprintf(" %s ", tview.Escape(sanitizeForTerminal(Title(conv)))))
}

// Update redraws the thread and scrolls to the newest message.
func (mt *MessageThread) Update(msgs []chatdb.Message) {
	mt.Clear()
	now := time.Now()
	for i := range msgs {
		_, _ = fmt.Fprint(mt, FormatMessage(&msgs[i], now))
	}
	mt.ScrollToEnd()
}

// FormatMessage renders one message as tview markup.
func FormatMessage(m *chatdb.Message, now time.Time) string {
	sender := "?"
	switch {
	case m.IsFromMe:
		sender = "You"
	case m.Sender != nil:
		sender = m.Sender.Address
	}

	body := text(m)
	if m.Text != nil && len(m.Attachments) > 0 {
		body += fmt.Sprintf(" [%d attachment(s)]", len(m.Attachments))
	}

	return fmt.Sprintf("[::b]%s[-:-:-] [::d]%s[-:-:-]\n%s\n\n",
		tview.Escape(sanitizeForTerminal(sender)),
		formatTimestamp(m.DateCreated, now),
		tview.Escape(sanitizeForTerminal(body)))
}
