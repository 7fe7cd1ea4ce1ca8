package state

// LinkKind enumerates how a thread relates to a counterpart thread.
type LinkKind int

const (
	// LinkNone means the thread stands alone.
	LinkNone LinkKind = iota
	// LinkCommentsOf marks a discussion-comments thread; the link names
	// the origin thread it comments on.
	LinkCommentsOf
	// LinkOriginOf marks a channel-post thread; the link names the chat
	// and root message of the comments thread mirroring it.
	LinkOriginOf
)

// ThreadLink is the explicit bipartite tie between a comments thread and
// its origin. Links never form cycles: each side points at the other and
// cascade stops after one hop.
type ThreadLink struct {
	Kind LinkKind
	// ChatID of the counterpart thread.
	ChatID ChatID
	// ThreadID of the counterpart, set for LinkCommentsOf.
	ThreadID ThreadID
	// MessageID rooting the counterpart thread, set for LinkOriginOf.
	MessageID MessageID
}

// counterpart resolves the thread on the other end of the link.
func (l ThreadLink) counterpart() (ThreadKey, bool) {
	switch l.Kind {
	case LinkCommentsOf:
		return ThreadKey{Chat: l.ChatID, Thread: l.ThreadID}, true
	case LinkOriginOf:
		return ThreadKey{Chat: l.ChatID, Thread: ThreadID(l.MessageID)}, true
	default:
		return ThreadKey{}, false
	}
}

// ThreadInfo carries aggregate metadata for one thread. MessagesCount is
// -1 until the server has reported a count.
type ThreadInfo struct {
	MessagesCount   int
	LastMessageID   MessageID
	LastReadInboxID MessageID
	Link            ThreadLink
}

// ThreadInfoPatch is a partial ThreadInfo update; only non-nil fields
// are applied.
type ThreadInfoPatch struct {
	MessagesCount   *int
	LastMessageID   *MessageID
	LastReadInboxID *MessageID
	Link            *ThreadLink
}

// Thread holds the per-thread ordered id lists and aggregate info.
// ListedIDs, every member of OutlyingLists, PinnedIDs and ScheduledIDs
// are each ascending with unique elements.
type Thread struct {
	ListedIDs     []MessageID
	OutlyingLists [][]MessageID
	PinnedIDs     []MessageID
	ScheduledIDs  []MessageID
	Info          *ThreadInfo
}

func (t *Thread) clone() *Thread {
	if t == nil {
		return &Thread{}
	}
	c := *t
	return &c
}

func threadAt(s *State, chat ChatID, thread ThreadID) *Thread {
	return s.threads[ThreadKey{Chat: chat, Thread: thread}]
}

// MergeListedIDs folds newly fetched contiguous-history ids into the
// thread's listed list. Ids already present are skipped; when nothing is
// new the state is returned unchanged.
func MergeListedIDs(s *State, chat ChatID, thread ThreadID, ids []MessageID) *State {
	incoming := sortUnique(ids)
	if len(incoming) == 0 {
		return s
	}
	th := threadAt(s, chat, thread)
	var listed []MessageID
	if th != nil {
		listed = th.ListedIDs
	}

	fresh := incoming[:0:0]
	for _, id := range incoming {
		if !containsSorted(listed, id) {
			fresh = append(fresh, id)
		}
	}
	if len(fresh) == 0 {
		return s
	}

	next := th.clone()
	next.ListedIDs = mergeSortedUnique(listed, fresh)
	return s.withThread(ThreadKey{Chat: chat, Thread: thread}, next)
}

// MergeOutlyingRange folds an out-of-context fetch (e.g. jump to
// message) into the thread's outlying ranges. The candidate is unioned
// with every existing range it overlaps or touches; otherwise it is kept
// as a new disjoint range. Ranges stay ordered by their first id.
func MergeOutlyingRange(s *State, chat ChatID, thread ThreadID, ids []MessageID) *State {
	cand := sortUnique(ids)
	if len(cand) == 0 {
		return s
	}
	th := threadAt(s, chat, thread)

	var kept [][]MessageID
	var absorbed []MessageID
	touched := 0
	merged := cand
	if th != nil {
		for _, r := range th.OutlyingLists {
			if len(r) == 0 {
				continue
			}
			if rangesTouch(r, merged) {
				merged = mergeSortedUnique(r, merged)
				absorbed = r
				touched++
			} else {
				kept = append(kept, r)
			}
		}
	}
	// Re-fetching ids an existing range already covers changes nothing.
	if touched == 1 && equalIDs(merged, absorbed) {
		return s
	}

	// Insert the merged range in first-id order among the survivors.
	at := len(kept)
	for i, r := range kept {
		if merged[0] < r[0] {
			at = i
			break
		}
	}
	lists := make([][]MessageID, 0, len(kept)+1)
	lists = append(lists, kept[:at]...)
	lists = append(lists, merged)
	lists = append(lists, kept[at:]...)

	next := th.clone()
	next.OutlyingLists = lists
	return s.withThread(ThreadKey{Chat: chat, Thread: thread}, next)
}

// rangesTouch reports overlap or inclusive adjacency between two
// ascending ranges: [..7] touches [8..], and any true overlap touches.
func rangesTouch(a, b []MessageID) bool {
	return a[len(a)-1]+1 >= b[0] && b[len(b)-1]+1 >= a[0]
}

// RemoveOutlyingRange drops one range by slice identity, for when a
// fetched range goes stale. An unknown range is a no-op.
func RemoveOutlyingRange(s *State, chat ChatID, thread ThreadID, rng []MessageID) *State {
	th := threadAt(s, chat, thread)
	if th == nil || len(th.OutlyingLists) == 0 {
		return s
	}
	at := -1
	for i, r := range th.OutlyingLists {
		if sameSlice(r, rng) {
			at = i
			break
		}
	}
	if at < 0 {
		return s
	}
	lists := make([][]MessageID, 0, len(th.OutlyingLists)-1)
	lists = append(lists, th.OutlyingLists[:at]...)
	lists = append(lists, th.OutlyingLists[at+1:]...)
	if len(lists) == 0 {
		lists = nil
	}
	next := th.clone()
	next.OutlyingLists = lists
	return s.withThread(ThreadKey{Chat: chat, Thread: thread}, next)
}

// ReplaceListedIDs swaps the thread's listed list for a sorted, deduped
// copy of ids, keeping the existing reference when nothing differs.
func ReplaceListedIDs(s *State, chat ChatID, thread ThreadID, ids []MessageID) *State {
	return replaceThreadIDs(s, chat, thread, ids,
		func(t *Thread) []MessageID { return t.ListedIDs },
		func(t *Thread, v []MessageID) { t.ListedIDs = v })
}

// ReplacePinnedIDs swaps the thread's pinned list, with the same
// change-detection as ReplaceListedIDs.
func ReplacePinnedIDs(s *State, chat ChatID, thread ThreadID, ids []MessageID) *State {
	return replaceThreadIDs(s, chat, thread, ids,
		func(t *Thread) []MessageID { return t.PinnedIDs },
		func(t *Thread, v []MessageID) { t.PinnedIDs = v })
}

// ReplaceScheduledIDs swaps the thread's scheduled list, with the same
// change-detection as ReplaceListedIDs.
func ReplaceScheduledIDs(s *State, chat ChatID, thread ThreadID, ids []MessageID) *State {
	return replaceThreadIDs(s, chat, thread, ids,
		func(t *Thread) []MessageID { return t.ScheduledIDs },
		func(t *Thread, v []MessageID) { t.ScheduledIDs = v })
}

func replaceThreadIDs(s *State, chat ChatID, thread ThreadID, ids []MessageID, get func(*Thread) []MessageID, set func(*Thread, []MessageID)) *State {
	next := sortUnique(ids)
	th := threadAt(s, chat, thread)
	var cur []MessageID
	if th != nil {
		cur = get(th)
	}
	if equalIDs(cur, next) {
		return s
	}
	c := th.clone()
	set(c, next)
	return s.withThread(ThreadKey{Chat: chat, Thread: thread}, c)
}

// UpdateThreadInfo merges a partial info update into the thread,
// creating the thread lazily. Unless suppressCascade is set, the
// mirrored field subset (count, last message, last read) is propagated
// one hop to the linked counterpart with cascade suppressed, so linked
// pairs can never ping-pong.
func UpdateThreadInfo(s *State, chat ChatID, thread ThreadID, p ThreadInfoPatch, suppressCascade bool) *State {
	th := threadAt(s, chat, thread)

	var info ThreadInfo
	if th != nil && th.Info != nil {
		info = *th.Info
	} else {
		info = ThreadInfo{MessagesCount: -1}
	}

	changed := false
	if p.MessagesCount != nil && *p.MessagesCount != info.MessagesCount {
		info.MessagesCount = *p.MessagesCount
		changed = true
	}
	if p.LastMessageID != nil && *p.LastMessageID != info.LastMessageID {
		info.LastMessageID = *p.LastMessageID
		changed = true
	}
	if p.LastReadInboxID != nil && *p.LastReadInboxID != info.LastReadInboxID {
		info.LastReadInboxID = *p.LastReadInboxID
		changed = true
	}
	if p.Link != nil && *p.Link != info.Link {
		info.Link = *p.Link
		changed = true
	}
	if !changed && th != nil && th.Info != nil {
		return s
	}

	next := th.clone()
	next.Info = &info
	s = s.withThread(ThreadKey{Chat: chat, Thread: thread}, next)

	if suppressCascade {
		return s
	}
	ck, ok := info.Link.counterpart()
	if !ok {
		return s
	}
	mirror := ThreadInfoPatch{
		MessagesCount:   p.MessagesCount,
		LastMessageID:   p.LastMessageID,
		LastReadInboxID: p.LastReadInboxID,
	}
	if mirror.MessagesCount == nil && mirror.LastMessageID == nil && mirror.LastReadInboxID == nil {
		return s
	}
	return UpdateThreadInfo(s, ck.Chat, ck.Thread, mirror, true)
}
