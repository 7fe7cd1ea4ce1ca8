package store

import (
	"path/filepath"
	"testing"

	"github.com/rafaelpm/gram/internal/state"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateAppliesOnFreshDB(t *testing.T) {
	db := testDB(t)

	// testDB already ran Migrate, so a second run must be a no-op.
	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 1 {
		t.Errorf("version = %d, want 1", result.Version)
	}
}

func seedState(t *testing.T) *state.State {
	t.Helper()
	s := state.New(state.DefaultLimits())
	s = state.UpsertMessages(s, 1, map[state.MessageID]*state.Message{
		10: {ID: 10, ChatID: 1, SenderID: 5, Content: "hello", Date: 1000},
		11: {ID: 11, ChatID: 1, Content: "fwd", ForwardInfo: &state.ForwardInfo{
			FromChatID: 9, FromMessageID: 3, IsLinkedChannelPost: true,
		}},
		12: {ID: 12, ChatID: 1, TopicID: 7, IsVoice: true, TTLSeconds: 60},
	})
	s = state.UpsertScheduledMessages(s, 1, map[state.MessageID]*state.Message{
		30: {ID: 30, ChatID: 1, IsScheduled: true, Date: 2000},
	})
	s = state.MergeListedIDs(s, 1, state.MainThread, []state.MessageID{10, 11})
	s = state.MergeListedIDs(s, 1, 7, []state.MessageID{12})
	s = state.MergeOutlyingRange(s, 1, state.MainThread, []state.MessageID{100, 101})
	s = state.MergeOutlyingRange(s, 1, state.MainThread, []state.MessageID{200})
	s = state.ReplacePinnedIDs(s, 1, state.MainThread, []state.MessageID{11})
	s = state.ReplaceScheduledIDs(s, 1, state.MainThread, []state.MessageID{30})
	count := 2
	last := state.MessageID(11)
	s = state.UpdateThreadInfo(s, 1, state.MainThread, state.ThreadInfoPatch{
		MessagesCount: &count,
		LastMessageID: &last,
	}, true)
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	db := testDB(t)
	s := seedState(t)

	if err := db.Save(s); err != nil {
		t.Fatal(err)
	}
	got, err := db.Load(state.DefaultLimits())
	if err != nil {
		t.Fatal(err)
	}

	m := state.MessageByID(got, 1, 10)
	if m == nil || m.Content != "hello" || m.SenderID != 5 {
		t.Errorf("message 10 = %+v", m)
	}
	fwd := state.MessageByID(got, 1, 11)
	if fwd == nil || fwd.ForwardInfo == nil || !fwd.ForwardInfo.IsLinkedChannelPost {
		t.Errorf("forward info lost: %+v", fwd)
	}
	if sched := state.ScheduledByID(got, 1, 30); sched == nil || !sched.IsScheduled {
		t.Errorf("scheduled message lost: %+v", sched)
	}

	if listed := state.ListedIDs(got, 1, state.MainThread); len(listed) != 2 {
		t.Errorf("listed = %v, want [10 11]", listed)
	}
	if listed := state.ListedIDs(got, 1, 7); len(listed) != 1 || listed[0] != 12 {
		t.Errorf("topic listed = %v, want [12]", listed)
	}
	out := state.OutlyingLists(got, 1, state.MainThread)
	if len(out) != 2 || len(out[0]) != 2 || out[1][0] != 200 {
		t.Errorf("outlying = %v, want [[100 101] [200]]", out)
	}
	if pinned := state.PinnedIDs(got, 1, state.MainThread); len(pinned) != 1 || pinned[0] != 11 {
		t.Errorf("pinned = %v, want [11]", pinned)
	}
	if ids := state.ScheduledIDs(got, 1, state.MainThread); len(ids) != 1 || ids[0] != 30 {
		t.Errorf("scheduled ids = %v, want [30]", ids)
	}

	info := state.ThreadInfoFor(got, 1, state.MainThread)
	if info == nil || info.MessagesCount != 2 || info.LastMessageID != 11 {
		t.Errorf("thread info = %+v", info)
	}
}

func TestSnapshotRoundTripKeepsLinks(t *testing.T) {
	db := testDB(t)
	s := state.New(state.DefaultLimits())
	link := state.ThreadLink{Kind: state.LinkCommentsOf, ChatID: 1, ThreadID: state.MainThread}
	s = state.UpdateThreadInfo(s, 2, 500, state.ThreadInfoPatch{Link: &link}, true)

	if err := db.Save(s); err != nil {
		t.Fatal(err)
	}
	got, err := db.Load(state.DefaultLimits())
	if err != nil {
		t.Fatal(err)
	}

	info := state.ThreadInfoFor(got, 2, 500)
	if info == nil || info.Link.Kind != state.LinkCommentsOf || info.Link.ChatID != 1 {
		t.Errorf("link = %+v", info)
	}
	// Restore must not have re-mirrored onto the counterpart.
	if state.HasThread(got, 1, state.MainThread) {
		t.Error("load created a counterpart thread the snapshot never had")
	}
}

func TestSaveOverwritesPreviousSnapshot(t *testing.T) {
	db := testDB(t)
	if err := db.Save(seedState(t)); err != nil {
		t.Fatal(err)
	}

	small := state.New(state.DefaultLimits())
	small = state.UpsertMessages(small, 2, map[state.MessageID]*state.Message{
		1: {ID: 1, ChatID: 2, Content: "only"},
	})
	if err := db.Save(small); err != nil {
		t.Fatal(err)
	}

	got, err := db.Load(state.DefaultLimits())
	if err != nil {
		t.Fatal(err)
	}
	if state.MessageByID(got, 1, 10) != nil {
		t.Error("old snapshot rows survived the overwrite")
	}
	if state.MessageByID(got, 2, 1) == nil {
		t.Error("new snapshot row missing")
	}
}

func TestLoadEmptySnapshot(t *testing.T) {
	db := testDB(t)
	got, err := db.Load(state.DefaultLimits())
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Chats(got)) != 0 {
		t.Errorf("chats = %v, want none", state.Chats(got))
	}
}
