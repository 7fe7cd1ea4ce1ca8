package state

import "testing"

// seedThread stores messages and indexes them in one thread's listed
// list, mirroring how ingestion wires a fetched history slice.
func seedThread(t *testing.T, s *State, chat ChatID, thread ThreadID, msgs ...*Message) *State {
	t.Helper()
	batch := make(map[MessageID]*Message, len(msgs))
	ids := make([]MessageID, 0, len(msgs))
	for _, m := range msgs {
		batch[m.ID] = m
		ids = append(ids, m.ID)
	}
	s = UpsertMessages(s, chat, batch)
	return MergeListedIDs(s, chat, thread, ids)
}

func TestDeleteMessagesCompleteness(t *testing.T) {
	s := New(DefaultLimits())
	s = seedThread(t, s, 1, MainThread,
		newMsg(1, 10, "a"), newMsg(1, 11, "b"), newMsg(1, 12, "c"))
	s = MergeOutlyingRange(s, 1, MainThread, []MessageID{11, 12})
	s = ReplacePinnedIDs(s, 1, MainThread, []MessageID{11})
	s = ReplaceViewport(s, 1, MainThread, tabA, []MessageID{10, 11, 12})

	s = DeleteMessages(s, 1, []MessageID{11, 12})

	if got := ListedIDs(s, 1, MainThread); !equalIDs(got, []MessageID{10}) {
		t.Errorf("listed = %v, want [10]", got)
	}
	for _, r := range OutlyingLists(s, 1, MainThread) {
		for _, id := range r {
			if id == 11 || id == 12 {
				t.Errorf("outlying range still holds deleted id %d", id)
			}
		}
	}
	if got := PinnedIDs(s, 1, MainThread); len(got) != 0 {
		t.Errorf("pinned = %v, want empty", got)
	}
	if got := ViewportIDs(s, 1, MainThread, tabA); !equalIDs(got, []MessageID{10}) {
		t.Errorf("viewport = %v, want [10]", got)
	}
	if MessageByID(s, 1, 11) != nil || MessageByID(s, 1, 12) != nil {
		t.Error("deleted messages still in the table")
	}
	if MessageByID(s, 1, 10) == nil {
		t.Error("surviving message lost")
	}
}

func TestDeleteMessagesUnknownChatIsNoop(t *testing.T) {
	s := New(DefaultLimits())
	if s2 := DeleteMessages(s, 9, []MessageID{1, 2}); s2 != s {
		t.Error("deleting from an unknown chat should be a no-op")
	}
}

func TestDeleteMessagesDropsEmptiedOutlyingRange(t *testing.T) {
	s := New(DefaultLimits())
	s = seedThread(t, s, 1, MainThread, newMsg(1, 5, "a"), newMsg(1, 6, "b"))
	s = MergeOutlyingRange(s, 1, MainThread, []MessageID{5, 6})

	s = DeleteMessages(s, 1, []MessageID{5, 6})

	if lists := OutlyingLists(s, 1, MainThread); len(lists) != 0 {
		t.Errorf("emptied range should be dropped, got %v", lists)
	}
}

func TestDeleteMessagesRoutesTopicThread(t *testing.T) {
	s := New(DefaultLimits())
	topic := ThreadID(77)
	m := &Message{ID: 20, ChatID: 1, TopicID: topic, Content: "in topic"}
	s = UpsertMessages(s, 1, map[MessageID]*Message{20: m})
	s = MergeListedIDs(s, 1, MainThread, []MessageID{20})
	s = MergeListedIDs(s, 1, topic, []MessageID{20})

	s = DeleteMessages(s, 1, []MessageID{20})

	if got := ListedIDs(s, 1, topic); len(got) != 0 {
		t.Errorf("topic listed = %v, want empty", got)
	}
	if got := ListedIDs(s, 1, MainThread); len(got) != 0 {
		t.Errorf("main listed = %v, want empty (main always takes the full set)", got)
	}
}

func TestDeleteMessagesCountSkipsLocalIDs(t *testing.T) {
	s := New(DefaultLimits())
	local := LocalMinID + 1
	s = UpsertMessages(s, 1, map[MessageID]*Message{
		10:    newMsg(1, 10, "server"),
		local: {ID: local, ChatID: 1, Content: "pending"},
	})
	s = MergeListedIDs(s, 1, MainThread, []MessageID{10, local})
	count := 5
	s = UpdateThreadInfo(s, 1, MainThread, ThreadInfoPatch{MessagesCount: &count}, false)

	s = DeleteMessages(s, 1, []MessageID{10, local})

	if got := ThreadInfoFor(s, 1, MainThread).MessagesCount; got != 4 {
		t.Errorf("count = %d, want 4 (local ids never counted)", got)
	}
}

func TestDeleteMessagesCascadesCount(t *testing.T) {
	s := New(DefaultLimits())
	// Comments thread 500 in chat 2 mirrors origin thread 42 in chat 1.
	link := ThreadLink{Kind: LinkCommentsOf, ChatID: 1, ThreadID: 42}
	count := 10
	s = UpdateThreadInfo(s, 2, 500, ThreadInfoPatch{Link: &link, MessagesCount: &count}, false)

	m := &Message{ID: 600, ChatID: 2, CommentsThreadID: 500, Content: "comment"}
	s = UpsertMessages(s, 2, map[MessageID]*Message{600: m})
	s = MergeListedIDs(s, 2, 500, []MessageID{600})

	s = DeleteMessages(s, 2, []MessageID{600})

	if got := ThreadInfoFor(s, 2, 500).MessagesCount; got != 9 {
		t.Errorf("comments count = %d, want 9", got)
	}
	if got := ThreadInfoFor(s, 1, 42).MessagesCount; got != 9 {
		t.Errorf("origin count = %d, want 9 (cascade path)", got)
	}
}

func TestDeleteLinkedChannelPostResetsActiveView(t *testing.T) {
	s := New(DefaultLimits())

	// Message 42 in the discussion chat is the forwarded channel post
	// heading discussion thread 42; its origin is post 7 in chat 100.
	post := &Message{
		ID: 42, ChatID: 2,
		ForwardInfo: &ForwardInfo{FromChatID: 100, FromMessageID: 7, IsLinkedChannelPost: true},
	}
	s = UpsertMessages(s, 2, map[MessageID]*Message{42: post})
	s = MergeListedIDs(s, 2, MainThread, []MessageID{42})

	// The origin-keyed virtual comments thread is cached.
	last := MessageID(42)
	s = UpdateThreadInfo(s, 100, 7, ThreadInfoPatch{LastMessageID: &last}, true)

	// A tab is viewing the post's discussion thread.
	s = SetActiveView(s, tabA, 2, 42)

	s = DeleteMessages(s, 2, []MessageID{42})

	view, ok := ActiveViewFor(s, tabA)
	if !ok || view.Thread != MainThread || view.Chat != 2 {
		t.Errorf("active view = %+v, want chat 2 main thread", view)
	}
	if HasThread(s, 100, 7) {
		t.Error("origin-keyed virtual thread should be dropped")
	}
	if MessageByID(s, 2, 42) != nil {
		t.Error("post still in the table")
	}
}

func TestDeleteLinkedPostLeavesOtherTabsAlone(t *testing.T) {
	const tabB TabID = "tab-b"
	s := New(DefaultLimits())
	post := &Message{
		ID: 42, ChatID: 2,
		ForwardInfo: &ForwardInfo{FromChatID: 100, FromMessageID: 7, IsLinkedChannelPost: true},
	}
	s = UpsertMessages(s, 2, map[MessageID]*Message{42: post})
	s = SetActiveView(s, tabA, 2, 42)
	s = SetActiveView(s, tabB, 3, MainThread)

	s = DeleteMessages(s, 2, []MessageID{42})

	if view, _ := ActiveViewFor(s, tabB); view.Chat != 3 {
		t.Errorf("unrelated tab view changed: %+v", view)
	}
}

func TestDeleteMessagesPrunesSelectionAndFocus(t *testing.T) {
	s := New(DefaultLimits())
	s = seedThread(t, s, 1, MainThread, newMsg(1, 10, "a"), newMsg(1, 11, "b"))
	s = ReplaceViewport(s, 1, MainThread, tabA, []MessageID{10, 11})
	s = ToggleSelected(s, tabA, 1, MainThread, 10, false)
	s = ToggleSelected(s, tabA, 1, MainThread, 11, false)
	s = SetFocus(s, tabA, Focus{ChatID: 1, MessageID: 11, Highlight: true})

	s = DeleteMessages(s, 1, []MessageID{11})

	if got := SelectedIDs(s, tabA); !equalIDs(got, []MessageID{10}) {
		t.Errorf("selection = %v, want [10]", got)
	}
	if FocusFor(s, tabA) != nil {
		t.Error("focus on a deleted message should be cleared")
	}

	s = DeleteMessages(s, 1, []MessageID{10})
	if SelectedIDs(s, tabA) != nil {
		t.Error("emptied selection should exit selection mode")
	}
}

func TestDeleteMessagesIdempotent(t *testing.T) {
	s := New(DefaultLimits())
	s = seedThread(t, s, 1, MainThread, newMsg(1, 10, "a"), newMsg(1, 11, "b"))

	s1 := DeleteMessages(s, 1, []MessageID{11})
	s2 := DeleteMessages(s1, 1, []MessageID{11})

	if !equalIDs(ListedIDs(s2, 1, MainThread), ListedIDs(s1, 1, MainThread)) {
		t.Error("re-deleting should leave listed ids unchanged")
	}
	if MessageByID(s2, 1, 10) == nil {
		t.Error("unrelated message lost on re-delete")
	}
}

func TestDeleteScheduledMessages(t *testing.T) {
	s := New(DefaultLimits())
	topic := ThreadID(77)
	s = UpsertScheduledMessages(s, 1, map[MessageID]*Message{
		10: {ID: 10, ChatID: 1, IsScheduled: true},
		11: {ID: 11, ChatID: 1, IsScheduled: true, TopicID: topic},
	})
	s = ReplaceScheduledIDs(s, 1, MainThread, []MessageID{10, 11})
	s = ReplaceScheduledIDs(s, 1, topic, []MessageID{11})

	s = DeleteScheduledMessages(s, 1, []MessageID{10, 11})

	if got := ScheduledIDs(s, 1, MainThread); len(got) != 0 {
		t.Errorf("main scheduled = %v, want empty", got)
	}
	if got := ScheduledIDs(s, 1, topic); len(got) != 0 {
		t.Errorf("topic scheduled = %v, want empty", got)
	}
	if ScheduledByID(s, 1, 10) != nil || ScheduledByID(s, 1, 11) != nil {
		t.Error("scheduled table still holds deleted ids")
	}
}

func TestDeleteScheduledUnknownChatIsNoop(t *testing.T) {
	s := New(DefaultLimits())
	if s2 := DeleteScheduledMessages(s, 5, []MessageID{1}); s2 != s {
		t.Error("no scheduled table for chat: should be a no-op")
	}
}
