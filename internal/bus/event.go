package bus

import "time"

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Event kinds published by the feed (inbound updates) and the
// dispatcher (state deltas). Subscribers filter by namespace prefix,
// e.g. "net." or "state.".
const (
	KindNetMessages         = "net.messages"
	KindNetScheduled        = "net.scheduled"
	KindNetPatch            = "net.patch"
	KindNetDeleted          = "net.deleted"
	KindNetDeletedScheduled = "net.deleted_scheduled"
	KindNetThreadInfo       = "net.thread_info"
	KindNetPinned           = "net.pinned"
	KindNetTyping           = "net.typing"

	KindStateMessages  = "state.messages_changed"
	KindStateThreads   = "state.threads_changed"
	KindStateViewports = "state.viewports_changed"
	KindStateSelection = "state.selection_changed"

	KindSessionStatus = "session.status_changed"
)

// Now stamps an event with the current time.
func Now(kind string, payload any) Event {
	return Event{Kind: kind, Timestamp: time.Now(), Payload: payload}
}
