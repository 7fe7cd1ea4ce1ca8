package state

// Limits bounds the per-tab viewport window.
type Limits struct {
	// ViewportLimit is the hard cap on viewport length.
	ViewportLimit int
	// Slice is the fetch slice size; on overflow the window keeps the
	// newest Slice/2 ids before appending.
	Slice int
}

// DefaultLimits returns the stock window sizing.
func DefaultLimits() Limits {
	return Limits{ViewportLimit: 84, Slice: 42}
}

// ActiveView is the chat/thread a tab currently shows. Thread is
// MainThread when no specific thread is open.
type ActiveView struct {
	Chat   ChatID
	Thread ThreadID
}

// State is the whole message/thread store as one immutable value. Every
// operation takes a *State and returns a new *State sharing all
// untouched substructure; callers must never mutate a State they have
// been handed.
type State struct {
	limits Limits

	messages  map[ChatID]map[MessageID]*Message
	scheduled map[ChatID]map[MessageID]*Message

	threads map[ThreadKey]*Thread
	tabs    map[TabKey]*TabThread

	active     map[TabID]ActiveView
	selections map[TabID]*Selection
	focus      map[TabID]*Focus
}

// New returns an empty store with the given window limits.
func New(limits Limits) *State {
	if limits.ViewportLimit <= 0 || limits.Slice <= 0 {
		limits = DefaultLimits()
	}
	return &State{
		limits:     limits,
		messages:   map[ChatID]map[MessageID]*Message{},
		scheduled:  map[ChatID]map[MessageID]*Message{},
		threads:    map[ThreadKey]*Thread{},
		tabs:       map[TabKey]*TabThread{},
		active:     map[TabID]ActiveView{},
		selections: map[TabID]*Selection{},
		focus:      map[TabID]*Focus{},
	}
}

// Limits returns the window sizing the store was built with.
func (s *State) Limits() Limits { return s.limits }

func (s *State) shallow() *State {
	c := *s
	return &c
}

func (s *State) withChatMessages(chat ChatID, byID map[MessageID]*Message) *State {
	c := s.shallow()
	c.messages = cloneMap(s.messages)
	if byID == nil {
		delete(c.messages, chat)
	} else {
		c.messages[chat] = byID
	}
	return c
}

func (s *State) withChatScheduled(chat ChatID, byID map[MessageID]*Message) *State {
	c := s.shallow()
	c.scheduled = cloneMap(s.scheduled)
	if byID == nil {
		delete(c.scheduled, chat)
	} else {
		c.scheduled[chat] = byID
	}
	return c
}

func (s *State) withThread(key ThreadKey, th *Thread) *State {
	c := s.shallow()
	c.threads = cloneMap(s.threads)
	if th == nil {
		delete(c.threads, key)
	} else {
		c.threads[key] = th
	}
	return c
}

func (s *State) withTab(key TabKey, tt *TabThread) *State {
	c := s.shallow()
	c.tabs = cloneMap(s.tabs)
	if tt == nil {
		delete(c.tabs, key)
	} else {
		c.tabs[key] = tt
	}
	return c
}

func (s *State) withActive(tab TabID, view ActiveView) *State {
	c := s.shallow()
	c.active = cloneMap(s.active)
	c.active[tab] = view
	return c
}

func (s *State) withSelection(tab TabID, sel *Selection) *State {
	c := s.shallow()
	c.selections = cloneMap(s.selections)
	if sel == nil {
		delete(c.selections, tab)
	} else {
		c.selections[tab] = sel
	}
	return c
}

func (s *State) withFocus(tab TabID, f *Focus) *State {
	c := s.shallow()
	c.focus = cloneMap(s.focus)
	if f == nil {
		delete(c.focus, tab)
	} else {
		c.focus[tab] = f
	}
	return c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
