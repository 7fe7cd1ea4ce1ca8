package state

import "slices"

// Selection is a tab's active selection: a deduplicated set of message
// ids scoped to one chat. Presence of the record is what "selection
// mode" means; an emptied selection is removed, never stored empty.
type Selection struct {
	ChatID       ChatID
	MessageIDs   []MessageID
	LastSelected MessageID
}

func (sel *Selection) has(id MessageID) bool {
	return sel != nil && slices.Contains(sel.MessageIDs, id)
}

// Focus is a tab's ephemeral scroll-to/highlight target. Re-focusing
// overwrites it; there is no focus history.
type Focus struct {
	ChatID    ChatID
	MessageID MessageID
	Highlight bool
}

// ToggleSelected toggles a message in the tab's selection. Album members
// toggle as one atomic group. With the range modifier the selection
// extends from the previously last-selected id to id along the current
// viewport order, so range selection is bounded by what is actually
// windowed. Deselecting the final id exits selection mode.
func ToggleSelected(s *State, tab TabID, chat ChatID, thread ThreadID, id MessageID, withRange bool) *State {
	sel := s.selections[tab]
	if sel != nil && sel.ChatID != chat {
		// Selection is scoped to one chat; switching chats starts over.
		sel = nil
	}

	viewport := s.tabs[TabKey{Chat: chat, Thread: thread, Tab: tab}]
	var window []MessageID
	if viewport != nil {
		window = viewport.ViewportIDs
	}

	var targets []MessageID
	if withRange && sel != nil && sel.LastSelected != 0 {
		targets = rangeAlong(window, sel.LastSelected, id)
	}
	if targets == nil {
		targets = groupFor(s, chat, window, id)
	}

	var next []MessageID
	if withRange && sel != nil {
		// Range extension only ever adds.
		next = slices.Clone(sel.MessageIDs)
		for _, t := range targets {
			if !slices.Contains(next, t) {
				next = append(next, t)
			}
		}
	} else {
		allSelected := true
		for _, t := range targets {
			if !sel.has(t) {
				allSelected = false
				break
			}
		}
		if sel != nil {
			next = slices.Clone(sel.MessageIDs)
		}
		if allSelected && sel != nil {
			for _, t := range targets {
				if i := slices.Index(next, t); i >= 0 {
					next = slices.Delete(next, i, i+1)
				}
			}
		} else {
			for _, t := range targets {
				if !slices.Contains(next, t) {
					next = append(next, t)
				}
			}
		}
	}

	if len(next) == 0 {
		if s.selections[tab] == nil {
			return s
		}
		return s.withSelection(tab, nil)
	}
	return s.withSelection(tab, &Selection{
		ChatID:       chat,
		MessageIDs:   next,
		LastSelected: id,
	})
}

// rangeAlong returns the inclusive run of window ids between from and
// to, in window order. Either endpoint missing from the window yields
// nil and the caller falls back to a plain toggle.
func rangeAlong(window []MessageID, from, to MessageID) []MessageID {
	i := slices.Index(window, from)
	j := slices.Index(window, to)
	if i < 0 || j < 0 {
		return nil
	}
	if i > j {
		i, j = j, i
	}
	return slices.Clone(window[i : j+1])
}

// groupFor expands an album member to its whole group, scanning only the
// currently windowed ids. Ungrouped messages resolve to themselves.
func groupFor(s *State, chat ChatID, window []MessageID, id MessageID) []MessageID {
	m := s.messages[chat][id]
	if m == nil || m.GroupedID == 0 {
		return []MessageID{id}
	}
	group := []MessageID{id}
	for _, wid := range window {
		if wid == id {
			continue
		}
		wm := s.messages[chat][wid]
		if wm != nil && wm.GroupedID == m.GroupedID {
			group = append(group, wid)
		}
	}
	return group
}

// ClearSelection exits selection mode for a tab.
func ClearSelection(s *State, tab TabID) *State {
	if s.selections[tab] == nil {
		return s
	}
	return s.withSelection(tab, nil)
}

// SetFocus records the tab's scroll/highlight target, replacing any
// prior one.
func SetFocus(s *State, tab TabID, f Focus) *State {
	if cur := s.focus[tab]; cur != nil && *cur == f {
		return s
	}
	return s.withFocus(tab, &f)
}

// ClearFocus drops the tab's focus target.
func ClearFocus(s *State, tab TabID) *State {
	if s.focus[tab] == nil {
		return s
	}
	return s.withFocus(tab, nil)
}
