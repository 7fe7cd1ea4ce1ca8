package state

import (
	"slices"
)

// Read-only accessors for the UI and collaborators. Returned slices and
// entities are shared with the store and must not be mutated.

// MessageByID returns one message, or nil when unknown.
func MessageByID(s *State, chat ChatID, id MessageID) *Message {
	return s.messages[chat][id]
}

// ScheduledByID returns one scheduled message, or nil when unknown.
func ScheduledByID(s *State, chat ChatID, id MessageID) *Message {
	return s.scheduled[chat][id]
}

// Chats lists every chat with stored messages, ascending.
func Chats(s *State) []ChatID {
	out := make([]ChatID, 0, len(s.messages))
	for chat := range s.messages {
		out = append(out, chat)
	}
	slices.Sort(out)
	return out
}

// ScheduledChats lists every chat with stored scheduled messages,
// ascending.
func ScheduledChats(s *State) []ChatID {
	out := make([]ChatID, 0, len(s.scheduled))
	for chat := range s.scheduled {
		out = append(out, chat)
	}
	slices.Sort(out)
	return out
}

// MessagesInChat returns the chat's messages in ascending id order.
func MessagesInChat(s *State, chat ChatID) []*Message {
	byID := s.messages[chat]
	if len(byID) == 0 {
		return nil
	}
	ids := make([]MessageID, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]*Message, len(ids))
	for i, id := range ids {
		out[i] = byID[id]
	}
	return out
}

// ScheduledInChat returns the chat's scheduled messages in ascending id
// order.
func ScheduledInChat(s *State, chat ChatID) []*Message {
	byID := s.scheduled[chat]
	if len(byID) == 0 {
		return nil
	}
	ids := make([]MessageID, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]*Message, len(ids))
	for i, id := range ids {
		out[i] = byID[id]
	}
	return out
}

// HasThread reports whether a thread record exists.
func HasThread(s *State, chat ChatID, thread ThreadID) bool {
	return threadAt(s, chat, thread) != nil
}

// ThreadKeys lists every known thread, ordered by chat then thread id.
func ThreadKeys(s *State) []ThreadKey {
	out := make([]ThreadKey, 0, len(s.threads))
	for key := range s.threads {
		out = append(out, key)
	}
	slices.SortFunc(out, func(a, b ThreadKey) int {
		if a.Chat != b.Chat {
			return int(a.Chat - b.Chat)
		}
		return int(a.Thread - b.Thread)
	})
	return out
}

// ListedIDs returns the thread's contiguous-history ids.
func ListedIDs(s *State, chat ChatID, thread ThreadID) []MessageID {
	if th := threadAt(s, chat, thread); th != nil {
		return th.ListedIDs
	}
	return nil
}

// OutlyingLists returns the thread's disjoint out-of-context ranges.
func OutlyingLists(s *State, chat ChatID, thread ThreadID) [][]MessageID {
	if th := threadAt(s, chat, thread); th != nil {
		return th.OutlyingLists
	}
	return nil
}

// PinnedIDs returns the thread's pinned ids.
func PinnedIDs(s *State, chat ChatID, thread ThreadID) []MessageID {
	if th := threadAt(s, chat, thread); th != nil {
		return th.PinnedIDs
	}
	return nil
}

// ScheduledIDs returns the thread's scheduled ids.
func ScheduledIDs(s *State, chat ChatID, thread ThreadID) []MessageID {
	if th := threadAt(s, chat, thread); th != nil {
		return th.ScheduledIDs
	}
	return nil
}

// ThreadInfoFor returns the thread's aggregate info, or nil.
func ThreadInfoFor(s *State, chat ChatID, thread ThreadID) *ThreadInfo {
	if th := threadAt(s, chat, thread); th != nil {
		return th.Info
	}
	return nil
}

// ViewportIDs returns one tab's rendered window, or nil when the tab has
// no window (the default view).
func ViewportIDs(s *State, chat ChatID, thread ThreadID, tab TabID) []MessageID {
	if tt := s.tabs[TabKey{Chat: chat, Thread: thread, Tab: tab}]; tt != nil {
		return tt.ViewportIDs
	}
	return nil
}

// TabTyping returns the tab's transient typing flag.
func TabTyping(s *State, chat ChatID, thread ThreadID, tab TabID) bool {
	if tt := s.tabs[TabKey{Chat: chat, Thread: thread, Tab: tab}]; tt != nil {
		return tt.Typing
	}
	return false
}

// TabsViewing lists the tabs whose active view is the given chat and
// thread, sorted for deterministic fan-out.
func TabsViewing(s *State, chat ChatID, thread ThreadID) []TabID {
	var out []TabID
	for tab, view := range s.active {
		if view.Chat == chat && view.Thread == thread {
			out = append(out, tab)
		}
	}
	slices.Sort(out)
	return out
}

// ActiveViewFor returns the tab's current chat/thread.
func ActiveViewFor(s *State, tab TabID) (ActiveView, bool) {
	view, ok := s.active[tab]
	return view, ok
}

// SelectedIDs returns the tab's selection set; nil means selection mode
// is off.
func SelectedIDs(s *State, tab TabID) []MessageID {
	if sel := s.selections[tab]; sel != nil {
		return sel.MessageIDs
	}
	return nil
}

// IsSelected reports whether one message is in the tab's selection.
func IsSelected(s *State, tab TabID, id MessageID) bool {
	return s.selections[tab].has(id)
}

// SelectionFor returns the tab's selection record, or nil.
func SelectionFor(s *State, tab TabID) *Selection {
	return s.selections[tab]
}

// FocusFor returns the tab's focus target, or nil.
func FocusFor(s *State, tab TabID) *Focus {
	return s.focus[tab]
}
