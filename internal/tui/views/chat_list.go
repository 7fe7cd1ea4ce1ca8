package views

import (
	"fmt"
	"time"

	"github.com/rafaelpm/gram/internal/state"
	"github.com/rivo/tview"
)

// ChatList is the main chat list view (K9s-inspired table).
type ChatList struct {
	*tview.Table
	chats      []state.ChatID
	selectedFn func() (int, int)
}

// NewChatList creates a new chat list table.
func NewChatList() *ChatList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Chats ")

	cl := &ChatList{Table: table}
	cl.selectedFn = table.GetSelection
	return cl
}

// Update refreshes the chat list from the current store state.
func (cl *ChatList) Update(s *state.State) {
	cl.chats = state.Chats(s)
	cl.Clear()

	cl.SetCell(0, 0, tview.NewTableCell(" Chat").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	cl.SetCell(0, 1, tview.NewTableCell(" Msgs").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	cl.SetCell(0, 2, tview.NewTableCell(" Last Message").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	cl.SetCell(0, 3, tview.NewTableCell(" Time").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))

	for i, chat := range cl.chats {
		row := i + 1
		msgs := state.MessagesInChat(s, chat)

		preview := ""
		var lastDate int64
		if len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			preview = sanitizeForTerminal(last.Content)
			lastDate = last.Date
		}

		cl.SetCell(row, 0, tview.NewTableCell(fmt.Sprintf(" %d", chat)).SetMaxWidth(16).SetExpansion(1))
		cl.SetCell(row, 1, tview.NewTableCell(fmt.Sprintf(" %d", len(msgs))).SetMaxWidth(8))
		cl.SetCell(row, 2, tview.NewTableCell(" "+preview).SetMaxWidth(40).SetExpansion(2))
		cl.SetCell(row, 3, tview.NewTableCell(" "+formatTimestamp(lastDate)).SetMaxWidth(12))
	}
}

// SelectedChat returns the currently selected chat, or false when the
// cursor is not on a chat row.
func (cl *ChatList) SelectedChat() (state.ChatID, bool) {
	row, _ := cl.selectedFn()
	idx := row - 1 // account for header
	if idx >= 0 && idx < len(cl.chats) {
		return cl.chats[idx], true
	}
	return 0, false
}

func formatTimestamp(sec int64) string {
	if sec == 0 {
		return ""
	}
	t := time.Unix(sec, 0)
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}
