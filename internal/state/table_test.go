package state

import "testing"

func newMsg(chat ChatID, id MessageID, content string) *Message {
	return &Message{ID: id, ChatID: chat, Content: content}
}

func upsertOne(t *testing.T, s *State, m *Message) *State {
	t.Helper()
	return UpsertMessages(s, m.ChatID, map[MessageID]*Message{m.ID: m})
}

func TestUpsertMessages(t *testing.T) {
	s := New(DefaultLimits())
	s = upsertOne(t, s, newMsg(1, 10, "hello"))

	if m := MessageByID(s, 1, 10); m == nil || m.Content != "hello" {
		t.Fatalf("message not stored: %v", m)
	}
	if MessageByID(s, 1, 11) != nil {
		t.Error("unknown id should be nil")
	}
}

func TestUpsertIdempotentOnSameReference(t *testing.T) {
	s := New(DefaultLimits())
	m := newMsg(1, 10, "hello")
	s1 := upsertOne(t, s, m)
	s2 := upsertOne(t, s1, m)
	if s2 != s1 {
		t.Error("re-upserting the identical batch should return the same state")
	}
}

func TestUpsertReplacesChangedEntity(t *testing.T) {
	s := New(DefaultLimits())
	s = upsertOne(t, s, newMsg(1, 10, "v1"))
	s = upsertOne(t, s, newMsg(1, 10, "v2"))
	if m := MessageByID(s, 1, 10); m.Content != "v2" {
		t.Errorf("content = %q, want v2", m.Content)
	}
}

func TestUpsertSharesUnaffectedChats(t *testing.T) {
	s := New(DefaultLimits())
	s = upsertOne(t, s, newMsg(1, 10, "a"))
	other := MessageByID(s, 1, 10)

	s = upsertOne(t, s, newMsg(2, 20, "b"))
	if MessageByID(s, 1, 10) != other {
		t.Error("entities in untouched chats should keep their references")
	}
}

func TestUpsertDiscardsIdentityless(t *testing.T) {
	s := New(DefaultLimits())
	s2 := UpsertMessages(s, 1, map[MessageID]*Message{0: {ChatID: 1, Content: "ghost"}})
	if s2 != s {
		t.Error("an entity without an id must not be stored")
	}
}

func TestUpsertDiscardsMismatchedKey(t *testing.T) {
	s := New(DefaultLimits())
	s2 := UpsertMessages(s, 1, map[MessageID]*Message{5: {ID: 7, ChatID: 1, Content: "stray"}})
	if s2 != s {
		t.Error("an entity filed under a foreign key must not be stored")
	}
}

func TestUpsertKeepsValidEntriesOfMixedBatch(t *testing.T) {
	s := New(DefaultLimits())
	s = UpsertMessages(s, 1, map[MessageID]*Message{
		5:  {ID: 7, ChatID: 1, Content: "stray"},
		10: newMsg(1, 10, "kept"),
	})

	if m := MessageByID(s, 1, 10); m == nil || m.Content != "kept" {
		t.Fatalf("well-keyed entity not stored: %v", m)
	}
	if MessageByID(s, 1, 5) != nil || MessageByID(s, 1, 7) != nil {
		t.Error("mismatched entry must be stored under neither its key nor its id")
	}
}

func TestUpsertScheduledDiscardsMismatchedKey(t *testing.T) {
	s := New(DefaultLimits())
	s2 := UpsertScheduledMessages(s, 1, map[MessageID]*Message{5: {ID: 7, ChatID: 1, IsScheduled: true}})
	if s2 != s {
		t.Error("an entity filed under a foreign key must not be stored")
	}
}

func TestPatchMessage(t *testing.T) {
	s := New(DefaultLimits())
	s = upsertOne(t, s, newMsg(1, 10, "old"))

	content := "new"
	s = PatchMessage(s, 1, 10, MessagePatch{Content: &content})
	if m := MessageByID(s, 1, 10); m.Content != "new" {
		t.Errorf("content = %q, want new", m.Content)
	}
}

func TestPatchMissingMessageIsNoop(t *testing.T) {
	s := New(DefaultLimits())
	content := "x"
	if s2 := PatchMessage(s, 1, 10, MessagePatch{Content: &content}); s2 != s {
		t.Error("patching an unknown message should be a no-op")
	}
}

func TestPatchNoChangeKeepsState(t *testing.T) {
	s := New(DefaultLimits())
	s = upsertOne(t, s, newMsg(1, 10, "same"))
	content := "same"
	if s2 := PatchMessage(s, 1, 10, MessagePatch{Content: &content}); s2 != s {
		t.Error("a patch that changes nothing should return the same state")
	}
}

func TestPatchExpiresSelfDestructVoice(t *testing.T) {
	s := New(DefaultLimits())
	s = upsertOne(t, s, &Message{
		ID: 10, ChatID: 1, Content: "voice.ogg",
		TTLSeconds: 30, IsMediaUnread: true, IsVoice: true,
	})

	read := false
	s = PatchMessage(s, 1, 10, MessagePatch{IsMediaUnread: &read})

	m := MessageByID(s, 1, 10)
	if m.IsVoice || !m.IsExpiredVoice {
		t.Errorf("voice flags = (voice=%v expired=%v), want (false true)", m.IsVoice, m.IsExpiredVoice)
	}
	if m.Content != "" {
		t.Errorf("media payload should be cleared, got %q", m.Content)
	}
}

func TestPatchExpiresSelfDestructRoundVideo(t *testing.T) {
	s := New(DefaultLimits())
	s = upsertOne(t, s, &Message{
		ID: 11, ChatID: 1, Content: "round.mp4",
		TTLSeconds: 60, IsMediaUnread: true, IsRoundVideo: true,
	})

	read := false
	s = PatchMessage(s, 1, 11, MessagePatch{IsMediaUnread: &read})

	m := MessageByID(s, 1, 11)
	if m.IsRoundVideo || !m.IsExpiredRoundVideo {
		t.Errorf("round video flags = (round=%v expired=%v), want (false true)", m.IsRoundVideo, m.IsExpiredRoundVideo)
	}
}

func TestPatchWithoutTTLKeepsMedia(t *testing.T) {
	s := New(DefaultLimits())
	s = upsertOne(t, s, &Message{
		ID: 12, ChatID: 1, Content: "voice.ogg",
		IsMediaUnread: true, IsVoice: true,
	})

	read := false
	s = PatchMessage(s, 1, 12, MessagePatch{IsMediaUnread: &read})

	m := MessageByID(s, 1, 12)
	if !m.IsVoice || m.IsExpiredVoice || m.Content == "" {
		t.Error("clearing media-unread without a TTL must not expire the media")
	}
}

func TestScheduledTableIsSeparate(t *testing.T) {
	s := New(DefaultLimits())
	s = UpsertScheduledMessages(s, 1, map[MessageID]*Message{
		10: {ID: 10, ChatID: 1, Content: "later", IsScheduled: true},
	})

	if ScheduledByID(s, 1, 10) == nil {
		t.Fatal("scheduled message not stored")
	}
	if MessageByID(s, 1, 10) != nil {
		t.Error("scheduled message leaked into the message table")
	}
}

func TestRemoveMessagesDropsEmptyChat(t *testing.T) {
	s := New(DefaultLimits())
	s = upsertOne(t, s, newMsg(1, 10, "a"))
	s = removeMessages(s, 1, []MessageID{10})
	if len(Chats(s)) != 0 {
		t.Error("chat with no messages should not be listed")
	}
}
