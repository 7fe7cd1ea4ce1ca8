package views

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rafaelpm/gram/internal/state"
	"github.com/rivo/tview"
)

// MessageView renders one thread for one tab. It prefers the tab's
// viewport window; when the tab has no window it falls back to the tail
// of the thread's listed history.
type MessageView struct {
	*tview.TextView
	cursor int
	ids    []state.MessageID
}

// NewMessageView creates a new message view.
func NewMessageView() *MessageView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Messages ")

	return &MessageView{TextView: tv}
}

// Update re-renders the view from the current store state.
func (mv *MessageView) Update(s *state.State, chat state.ChatID, thread state.ThreadID, tab state.TabID) {
	mv.Clear()

	mv.ids = windowFor(s, chat, thread, tab)
	if mv.cursor >= len(mv.ids) {
		mv.cursor = len(mv.ids) - 1
	}
	if mv.cursor < 0 {
		mv.cursor = 0
	}

	title := fmt.Sprintf(" Chat %d ", chat)
	if thread != state.MainThread {
		title = fmt.Sprintf(" Chat %d / Thread %d ", chat, thread)
	}
	if state.TabTyping(s, chat, thread, tab) {
		title += "[green]typing...[-] "
	}
	mv.SetTitle(title)

	pinned := state.PinnedIDs(s, chat, thread)
	focus := state.FocusFor(s, tab)

	for i, id := range mv.ids {
		m := state.MessageByID(s, chat, id)
		if m == nil {
			continue
		}
		var marks []string
		if state.IsSelected(s, tab, id) {
			marks = append(marks, "[yellow]*[-]")
		}
		if containsID(pinned, id) {
			marks = append(marks, "[red]pin[-]")
		}
		if focus != nil && focus.ChatID == chat && focus.MessageID == id && focus.Highlight {
			marks = append(marks, "[::r]focus[-:-:-]")
		}
		if i == mv.cursor {
			marks = append(marks, "[::b]>[-:-:-]")
		}

		prefix := ""
		if len(marks) > 0 {
			prefix = strings.Join(marks, " ") + " "
		}
		sender := fmt.Sprintf("%d", m.SenderID)
		if m.IsOutgoing {
			sender = "You"
		}
		body := renderBody(m)
		line := fmt.Sprintf("%s[::b]%s[-:-:-] [::d]%s[-:-:-]\n%s\n\n",
			prefix, sender, formatTimestamp(m.Date), body)
		_, _ = fmt.Fprint(mv, line)
	}

	mv.ScrollToEnd()
}

// CursorID returns the id under the cursor, or false when the window is
// empty.
func (mv *MessageView) CursorID() (state.MessageID, bool) {
	if mv.cursor < 0 || mv.cursor >= len(mv.ids) {
		return 0, false
	}
	return mv.ids[mv.cursor], true
}

// MoveCursor shifts the cursor by delta, clamped to the window.
func (mv *MessageView) MoveCursor(delta int) {
	mv.cursor += delta
	if mv.cursor < 0 {
		mv.cursor = 0
	}
	if mv.cursor >= len(mv.ids) {
		mv.cursor = len(mv.ids) - 1
	}
}

func windowFor(s *state.State, chat state.ChatID, thread state.ThreadID, tab state.TabID) []state.MessageID {
	if ids := state.ViewportIDs(s, chat, thread, tab); ids != nil {
		return ids
	}
	listed := state.ListedIDs(s, chat, thread)
	limit := s.Limits().ViewportLimit
	if len(listed) > limit {
		listed = listed[len(listed)-limit:]
	}
	return listed
}

func renderBody(m *state.Message) string {
	switch {
	case m.IsExpiredVoice:
		return "[::d](expired voice message)[-:-:-]"
	case m.IsExpiredRoundVideo:
		return "[::d](expired video message)[-:-:-]"
	case m.IsVoice:
		return "[cyan](voice message)[-]"
	case m.IsRoundVideo:
		return "[cyan](video message)[-]"
	}
	return sanitizeForTerminal(m.Content)
}

func containsID(ids []state.MessageID, id state.MessageID) bool {
	for _, have := range ids {
		if have == id {
			return true
		}
	}
	return false
}

// sanitizeForTerminal removes Unicode codepoints that break tcell cell
// accounting: skin tone modifiers, zero width joiners and variation
// selectors collapse multi-codepoint emoji into renderable base runes.
func sanitizeForTerminal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isProblematicRune(r) {
			b.WriteRune(r)
		}
		i += size
	}
	return b.String()
}

func isProblematicRune(r rune) bool {
	switch {
	case r >= 0x1F3FB && r <= 0x1F3FF: // skin tone modifiers
		return true
	case r == 0x200D: // zero width joiner
		return true
	case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
		return true
	case r >= 0xE0100 && r <= 0xE01EF: // variation selectors supplement
		return true
	default:
		return false
	}
}
