package state

// TabThread is the per-open-view overlay of a thread: the rendered
// window of ids plus transient UI flags. Durable thread data never
// lives here.
type TabThread struct {
	ViewportIDs []MessageID
	Typing      bool
}

func (t *TabThread) clone() *TabThread {
	if t == nil {
		return &TabThread{}
	}
	c := *t
	return &c
}

// AddViewportID appends one id to the tab's viewport if absent. At
// capacity the window first drops down to its newest half-slice; history
// is access-ordered by recency, so plain tail-keeping beats LRU here.
func AddViewportID(s *State, chat ChatID, thread ThreadID, tab TabID, id MessageID) *State {
	key := TabKey{Chat: chat, Thread: thread, Tab: tab}
	tt := s.tabs[key]

	var ids []MessageID
	if tt != nil {
		ids = tt.ViewportIDs
	}
	for _, have := range ids {
		if have == id {
			return s
		}
	}

	var next []MessageID
	if len(ids) >= s.limits.ViewportLimit {
		keep := s.limits.Slice / 2
		if keep > len(ids) {
			keep = len(ids)
		}
		tail := ids[len(ids)-keep:]
		next = make([]MessageID, 0, keep+1)
		next = append(next, tail...)
	} else {
		next = make([]MessageID, 0, len(ids)+1)
		next = append(next, ids...)
	}
	next = append(next, id)

	c := tt.clone()
	c.ViewportIDs = next
	return s.withTab(key, c)
}

// ReplaceViewport swaps the whole window for a sorted, deduped copy of
// ids. An identical window keeps its reference so downstream render
// signaling stays quiet; an empty window is deleted, not stored.
func ReplaceViewport(s *State, chat ChatID, thread ThreadID, tab TabID, ids []MessageID) *State {
	key := TabKey{Chat: chat, Thread: thread, Tab: tab}
	tt := s.tabs[key]

	next := sortUnique(ids)
	if len(next) == 0 {
		if tt == nil {
			return s
		}
		return s.withTab(key, nil)
	}
	if tt != nil && equalIDs(tt.ViewportIDs, next) {
		return s
	}
	c := tt.clone()
	c.ViewportIDs = next
	return s.withTab(key, c)
}

// ExcludeViewportIDs removes ids from the tab's window preserving order.
// An emptied window is deleted entirely; absence signals "fall back to
// the default view".
func ExcludeViewportIDs(s *State, chat ChatID, thread ThreadID, tab TabID, removed []MessageID) *State {
	key := TabKey{Chat: chat, Thread: thread, Tab: tab}
	return excludeTabIDs(s, key, sortUnique(removed))
}

func excludeTabIDs(s *State, key TabKey, removed []MessageID) *State {
	tt := s.tabs[key]
	if tt == nil || len(tt.ViewportIDs) == 0 || len(removed) == 0 {
		return s
	}
	kept := tt.ViewportIDs[:0:0]
	hit := false
	for _, id := range tt.ViewportIDs {
		if containsSorted(removed, id) {
			hit = true
			continue
		}
		kept = append(kept, id)
	}
	if !hit {
		return s
	}
	if len(kept) == 0 {
		return s.withTab(key, nil)
	}
	c := tt.clone()
	c.ViewportIDs = kept
	return s.withTab(key, c)
}

// SetTabTyping flips the tab's transient typing flag.
func SetTabTyping(s *State, chat ChatID, thread ThreadID, tab TabID, typing bool) *State {
	key := TabKey{Chat: chat, Thread: thread, Tab: tab}
	tt := s.tabs[key]
	if tt == nil {
		if !typing {
			return s
		}
	} else if tt.Typing == typing {
		return s
	}
	c := tt.clone()
	c.Typing = typing
	return s.withTab(key, c)
}

// CloseTab drops the tab's overlay for one thread, e.g. when the view
// closes.
func CloseTab(s *State, chat ChatID, thread ThreadID, tab TabID) *State {
	key := TabKey{Chat: chat, Thread: thread, Tab: tab}
	if s.tabs[key] == nil {
		return s
	}
	return s.withTab(key, nil)
}

// SetActiveView points a tab at a chat/thread. Thread MainThread means
// the chat's default view.
func SetActiveView(s *State, tab TabID, chat ChatID, thread ThreadID) *State {
	view := ActiveView{Chat: chat, Thread: thread}
	if cur, ok := s.active[tab]; ok && cur == view {
		return s
	}
	return s.withActive(tab, view)
}
