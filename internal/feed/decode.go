package feed

import (
	"encoding/json"
	"fmt"

	"github.com/rafaelpm/gram/internal/bus"
	"github.com/rafaelpm/gram/internal/state"
)

// The feed speaks newline-delimited JSON, one update per line. Wire
// shapes are kept separate from the store's entities so the core stays
// free of serialization concerns.

// MessagesUpdate delivers a batch of full message entities.
type MessagesUpdate struct {
	ChatID   state.ChatID
	Messages map[state.MessageID]*state.Message
}

// PatchUpdate delivers a field-level patch for one message.
type PatchUpdate struct {
	ChatID state.ChatID
	ID     state.MessageID
	Patch  state.MessagePatch
}

// DeleteUpdate delivers a deletion notice.
type DeleteUpdate struct {
	ChatID state.ChatID
	IDs    []state.MessageID
}

// ThreadInfoUpdate delivers a thread-info snapshot.
type ThreadInfoUpdate struct {
	ChatID   state.ChatID
	ThreadID state.ThreadID
	Patch    state.ThreadInfoPatch
}

// PinnedUpdate delivers the authoritative pinned id list for a thread.
type PinnedUpdate struct {
	ChatID   state.ChatID
	ThreadID state.ThreadID
	IDs      []state.MessageID
}

// TypingUpdate delivers a transient typing indicator for a thread.
type TypingUpdate struct {
	ChatID   state.ChatID
	ThreadID state.ThreadID
	Typing   bool
}

type record struct {
	Type     string          `json:"type"`
	ChatID   int64           `json:"chat_id"`
	ThreadID int64           `json:"thread_id"`
	ID       int64           `json:"id"`
	IDs      []int64         `json:"ids"`
	Messages []wireMessage   `json:"messages"`
	Patch    *wirePatch      `json:"patch"`
	Info     *wireThreadInfo `json:"info"`
	Typing   bool            `json:"typing"`
}

type wireMessage struct {
	ID               int64            `json:"id"`
	SenderID         int64            `json:"sender_id"`
	Content          string           `json:"content"`
	Date             int64            `json:"date"`
	IsOutgoing       bool             `json:"is_outgoing"`
	GroupedID        int64            `json:"grouped_id"`
	TopicID          int64            `json:"topic_id"`
	CommentsThreadID int64            `json:"comments_thread_id"`
	Forward          *wireForwardInfo `json:"forward"`
	IsScheduled      bool             `json:"is_scheduled"`
	TTLSeconds       int              `json:"ttl_seconds"`
	IsMediaUnread    bool             `json:"is_media_unread"`
	IsVoice          bool             `json:"is_voice"`
	IsRoundVideo     bool             `json:"is_round_video"`
}

type wireForwardInfo struct {
	FromChatID          int64 `json:"from_chat_id"`
	FromMessageID       int64 `json:"from_message_id"`
	IsLinkedChannelPost bool  `json:"is_linked_channel_post"`
}

type wirePatch struct {
	Content       *string          `json:"content"`
	Date          *int64           `json:"date"`
	GroupedID     *int64           `json:"grouped_id"`
	Forward       *wireForwardInfo `json:"forward"`
	TTLSeconds    *int             `json:"ttl_seconds"`
	IsMediaUnread *bool            `json:"is_media_unread"`
	IsVoice       *bool            `json:"is_voice"`
	IsRoundVideo  *bool            `json:"is_round_video"`
}

type wireThreadInfo struct {
	MessagesCount   *int            `json:"messages_count"`
	LastMessageID   *int64          `json:"last_message_id"`
	LastReadInboxID *int64          `json:"last_read_inbox_id"`
	Link            *wireThreadLink `json:"link"`
}

type wireThreadLink struct {
	Kind      string `json:"kind"` // "comments_of" | "origin_of"
	ChatID    int64  `json:"chat_id"`
	ThreadID  int64  `json:"thread_id"`
	MessageID int64  `json:"message_id"`
}

// Decode parses one feed line into a bus event.
func Decode(line []byte) (bus.Event, error) {
	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		return bus.Event{}, fmt.Errorf("decode feed line: %w", err)
	}
	chat := state.ChatID(rec.ChatID)

	switch rec.Type {
	case "messages", "scheduled":
		msgs := make(map[state.MessageID]*state.Message, len(rec.Messages))
		for _, wm := range rec.Messages {
			m := wm.toMessage(chat)
			msgs[m.ID] = m
		}
		kind := bus.KindNetMessages
		if rec.Type == "scheduled" {
			kind = bus.KindNetScheduled
		}
		return bus.Now(kind, MessagesUpdate{ChatID: chat, Messages: msgs}), nil

	case "patch":
		if rec.Patch == nil {
			return bus.Event{}, fmt.Errorf("patch record without patch body")
		}
		return bus.Now(bus.KindNetPatch, PatchUpdate{
			ChatID: chat,
			ID:     state.MessageID(rec.ID),
			Patch:  rec.Patch.toPatch(),
		}), nil

	case "delete", "delete_scheduled":
		kind := bus.KindNetDeleted
		if rec.Type == "delete_scheduled" {
			kind = bus.KindNetDeletedScheduled
		}
		return bus.Now(kind, DeleteUpdate{ChatID: chat, IDs: toMessageIDs(rec.IDs)}), nil

	case "thread_info":
		if rec.Info == nil {
			return bus.Event{}, fmt.Errorf("thread_info record without info body")
		}
		return bus.Now(bus.KindNetThreadInfo, ThreadInfoUpdate{
			ChatID:   chat,
			ThreadID: state.ThreadID(rec.ThreadID),
			Patch:    rec.Info.toPatch(),
		}), nil

	case "pinned":
		return bus.Now(bus.KindNetPinned, PinnedUpdate{
			ChatID:   chat,
			ThreadID: state.ThreadID(rec.ThreadID),
			IDs:      toMessageIDs(rec.IDs),
		}), nil

	case "typing":
		return bus.Now(bus.KindNetTyping, TypingUpdate{
			ChatID:   chat,
			ThreadID: state.ThreadID(rec.ThreadID),
			Typing:   rec.Typing,
		}), nil

	default:
		return bus.Event{}, fmt.Errorf("unknown feed record type %q", rec.Type)
	}
}

func (wm wireMessage) toMessage(chat state.ChatID) *state.Message {
	m := &state.Message{
		ID:               state.MessageID(wm.ID),
		ChatID:           chat,
		SenderID:         wm.SenderID,
		Content:          wm.Content,
		Date:             wm.Date,
		IsOutgoing:       wm.IsOutgoing,
		GroupedID:        wm.GroupedID,
		TopicID:          state.ThreadID(wm.TopicID),
		CommentsThreadID: state.ThreadID(wm.CommentsThreadID),
		IsScheduled:      wm.IsScheduled,
		TTLSeconds:       wm.TTLSeconds,
		IsMediaUnread:    wm.IsMediaUnread,
		IsVoice:          wm.IsVoice,
		IsRoundVideo:     wm.IsRoundVideo,
	}
	if wm.Forward != nil {
		m.ForwardInfo = wm.Forward.toForwardInfo()
	}
	return m
}

func (wf *wireForwardInfo) toForwardInfo() *state.ForwardInfo {
	return &state.ForwardInfo{
		FromChatID:          state.ChatID(wf.FromChatID),
		FromMessageID:       state.MessageID(wf.FromMessageID),
		IsLinkedChannelPost: wf.IsLinkedChannelPost,
	}
}

func (wp *wirePatch) toPatch() state.MessagePatch {
	p := state.MessagePatch{
		Content:       wp.Content,
		Date:          wp.Date,
		GroupedID:     wp.GroupedID,
		TTLSeconds:    wp.TTLSeconds,
		IsMediaUnread: wp.IsMediaUnread,
		IsVoice:       wp.IsVoice,
		IsRoundVideo:  wp.IsRoundVideo,
	}
	if wp.Forward != nil {
		p.ForwardInfo = wp.Forward.toForwardInfo()
	}
	return p
}

func (wi *wireThreadInfo) toPatch() state.ThreadInfoPatch {
	p := state.ThreadInfoPatch{
		MessagesCount: wi.MessagesCount,
	}
	if wi.LastMessageID != nil {
		id := state.MessageID(*wi.LastMessageID)
		p.LastMessageID = &id
	}
	if wi.LastReadInboxID != nil {
		id := state.MessageID(*wi.LastReadInboxID)
		p.LastReadInboxID = &id
	}
	if wi.Link != nil {
		link := wi.Link.toLink()
		p.Link = &link
	}
	return p
}

func (wl *wireThreadLink) toLink() state.ThreadLink {
	link := state.ThreadLink{
		ChatID:    state.ChatID(wl.ChatID),
		ThreadID:  state.ThreadID(wl.ThreadID),
		MessageID: state.MessageID(wl.MessageID),
	}
	switch wl.Kind {
	case "comments_of":
		link.Kind = state.LinkCommentsOf
	case "origin_of":
		link.Kind = state.LinkOriginOf
	default:
		link.Kind = state.LinkNone
	}
	return link
}

func toMessageIDs(raw []int64) []state.MessageID {
	if len(raw) == 0 {
		return nil
	}
	out := make([]state.MessageID, len(raw))
	for i, id := range raw {
		out[i] = state.MessageID(id)
	}
	return out
}
