package state

// ForwardInfo describes where a forwarded message originated.
type ForwardInfo struct {
	FromChatID    ChatID
	FromMessageID MessageID
	// IsLinkedChannelPost marks the auto-forwarded copy of a channel
	// post that heads a discussion thread in the linked group.
	IsLinkedChannelPost bool
}

// Message is one stored message entity. Messages are immutable once in
// the table; updates replace the entity with a patched copy.
type Message struct {
	ID       MessageID
	ChatID   ChatID
	SenderID int64
	Content  string
	Date     int64

	IsOutgoing bool

	// GroupedID ties album members together; zero means ungrouped.
	GroupedID int64

	// TopicID is set when the message lives in a forum topic.
	TopicID ThreadID
	// CommentsThreadID is set when the message belongs to a comments
	// sub-thread rather than a topic.
	CommentsThreadID ThreadID

	ForwardInfo *ForwardInfo

	IsScheduled bool

	// Self-destructing media bookkeeping.
	TTLSeconds          int
	IsMediaUnread       bool
	IsVoice             bool
	IsRoundVideo        bool
	IsExpiredVoice      bool
	IsExpiredRoundVideo bool
}

// MessagePatch is a field-level partial update. Only non-nil fields are
// applied; a patch never carries identity, so it cannot re-key or
// orphan an entity.
type MessagePatch struct {
	Content       *string
	Date          *int64
	GroupedID     *int64
	ForwardInfo   *ForwardInfo
	TTLSeconds    *int
	IsMediaUnread *bool
	IsVoice       *bool
	IsRoundVideo  *bool
}

// applyPatch returns a patched copy of m, or m itself when the patch
// changes nothing. Clearing the media-unread flag on a message with a
// TTL drops the heavy media payload and leaves an explicit expired
// marker, mirroring server-side self-destructing media.
func applyPatch(m *Message, p MessagePatch) *Message {
	out := *m
	changed := false

	if p.Content != nil && *p.Content != out.Content {
		out.Content = *p.Content
		changed = true
	}
	if p.Date != nil && *p.Date != out.Date {
		out.Date = *p.Date
		changed = true
	}
	if p.GroupedID != nil && *p.GroupedID != out.GroupedID {
		out.GroupedID = *p.GroupedID
		changed = true
	}
	if p.ForwardInfo != nil && p.ForwardInfo != out.ForwardInfo {
		fwd := *p.ForwardInfo
		out.ForwardInfo = &fwd
		changed = true
	}
	if p.TTLSeconds != nil && *p.TTLSeconds != out.TTLSeconds {
		out.TTLSeconds = *p.TTLSeconds
		changed = true
	}
	if p.IsVoice != nil && *p.IsVoice != out.IsVoice {
		out.IsVoice = *p.IsVoice
		changed = true
	}
	if p.IsRoundVideo != nil && *p.IsRoundVideo != out.IsRoundVideo {
		out.IsRoundVideo = *p.IsRoundVideo
		changed = true
	}
	if p.IsMediaUnread != nil && *p.IsMediaUnread != out.IsMediaUnread {
		wasUnread := out.IsMediaUnread
		out.IsMediaUnread = *p.IsMediaUnread
		changed = true

		if wasUnread && !out.IsMediaUnread && out.TTLSeconds > 0 {
			switch {
			case out.IsVoice:
				out.IsVoice = false
				out.IsExpiredVoice = true
				out.Content = ""
			case out.IsRoundVideo:
				out.IsRoundVideo = false
				out.IsExpiredRoundVideo = true
				out.Content = ""
			}
		}
	}

	if !changed {
		return m
	}
	return &out
}
