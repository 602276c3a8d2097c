package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/imsg/internal/chatdb"
	"github.com/matheus3301/imsg/internal/tui/ui"
	"github.com/rivo/tview"
)

// ConversationList is the main conversation table.
type ConversationList struct {
	*tview.Table
	theme   *ui.Theme
	convs   []chatdb.Conversation
	visible []chatdb.Conversation
	filter  string
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Conversations ")
	table.SetTitleColor(theme.TitleColor)

	return &ConversationList{Table: table, theme: theme}
}

// Update replaces the listed conversations.
func (cl *ConversationList) Update(convs []chatdb.Conversation) {
	cl.convs = convs
	cl.render()
}

// SetFilter keeps only conversations whose name, participants or last
// message contain filter, ignoring case.
func (cl *ConversationList) SetFilter(filter string) {
	cl.filter = filter
	cl.render()
}

// Filter returns the active filter.
func (cl *ConversationList) Filter() string { return cl.filter }

func (cl *ConversationList) render() {
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" NAME", 1},
		{" LAST MESSAGE", 2},
		{" TIME", 0},
		{" SERVICE", 0},
	}
	for col, h := range headers {
		cell := tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp)
		cl.SetCell(0, col, cell)
	}

	cl.visible = cl.visible[:0]
	for _, conv := range cl.convs {
		if !Matches(conv, cl.filter) {
			continue
		}
		cl.visible = append(cl.visible, conv)
		row := len(cl.visible)

		var preview string
		var at int64
		if conv.LastMessage != nil {
			preview = text(conv.LastMessage)
			at = conv.LastMessage.DateCreated
		}
		service := ""
		if conv.ServiceName != nil {
			service = *conv.ServiceName
		}

		cl.SetCell(row, 0, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(Title(conv)))).SetExpansion(1).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(oneLine(preview)))).SetExpansion(2).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 2, tview.NewTableCell(formatTimestamp(at, time.Now())).SetTextColor(cl.theme.FgColor).SetAlign(tview.AlignRight))
		cl.SetCell(row, 3, tview.NewTableCell(" "+service).SetTextColor(cl.theme.MutedColor).SetAlign(tview.AlignRight))
	}

	if cl.filter != "" {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d/%d) filter: %s ", len(cl.visible), len(cl.convs), tview.Escape(cl.filter)))
	} else {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d) ", len(cl.convs)))
	}
}

// Selected returns the GUID of the selected conversation.
func (cl *ConversationList) Selected() string {
	row, _ := cl.GetSelection()
	idx := row - 1 // account for header
	if idx < 0 || idx >= len(cl.visible) {
		return ""
	}
	return cl.visible[idx].GUID
}

// Title names a conversation: display name, else participants, else its
// identifier.
func Title(conv chatdb.Conversation) string {
	if conv.DisplayName != nil && *conv.DisplayName != "" {
		return *conv.DisplayName
	}
	if len(conv.Participants) > 0 {
		addrs := make([]string, len(conv.Participants))
		for i, p := range conv.Participants {
			addrs[i] = p.Address
		}
		return strings.Join(addrs, ", ")
	}
	return conv.ChatIdentifier
}

// Matches reports whether filter selects conv.
func Matches(conv chatdb.Conversation, filter string) bool {
	if filter == "" {
		return true
	}
	filter = strings.ToLower(filter)
	fields := []string{Title(conv), conv.ChatIdentifier}
	for _, p := range conv.Participants {
		fields = append(fields, p.Address)
	}
	if conv.LastMessage != nil {
		fields = append(fields, text(conv.LastMessage))
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), filter) {
			return true
		}
	}
	return false
}

func text(m *chatdb.Message) string {
	if m.Text != nil {
		return *m.Text
	}
	if len(m.Attachments) > 0 {
		return fmt.Sprintf("[%d attachment(s)]", len(m.Attachments))
	}
	return ""
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func formatTimestamp(ms int64, now time.Time) string {
	if ms == 0 {
		return ""
	}
	t := time.UnixMilli(ms).In(now.Location())
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}
