package state

// DeleteMessages removes a set of messages from chat everywhere they are
// indexed: listed/outlying/pinned lists of every affected thread, every
// open tab's viewport, selection and focus state, linked-thread
// bookkeeping, and finally the message table itself. Ids are processed
// as one batch so the count arithmetic stays correct.
func DeleteMessages(s *State, chat ChatID, ids []MessageID) *State {
	byID := s.messages[chat]
	if len(byID) == 0 {
		return s
	}
	sorted := sortUnique(ids)
	if len(sorted) == 0 {
		return s
	}

	// Group the batch by thread. The main timeline always takes the
	// full set: every message conceptually exists there.
	perThread := map[ThreadID][]MessageID{MainThread: sorted}
	var linkedPosts []*Message
	for _, id := range sorted {
		m := byID[id]
		if m == nil {
			continue
		}
		if tid := ThreadForMessage(m); tid != MainThread {
			perThread[tid] = append(perThread[tid], id)
		}
		if m.ForwardInfo != nil && m.ForwardInfo.IsLinkedChannelPost {
			linkedPosts = append(linkedPosts, m)
		}
	}

	for tid, idsFor := range perThread {
		s = deleteFromThread(s, chat, tid, idsFor, byID)
	}

	for _, post := range linkedPosts {
		s = dropLinkedPostThread(s, chat, post)
	}

	s = pruneSelections(s, chat, sorted)
	return removeMessages(s, chat, sorted)
}

// deleteFromThread strips idsFor (ascending, unique) from one thread's
// id lists and from every tab window onto that thread, then pushes the
// adjusted message count through the thread-info cascade path.
func deleteFromThread(s *State, chat ChatID, tid ThreadID, idsFor []MessageID, byID map[MessageID]*Message) *State {
	key := ThreadKey{Chat: chat, Thread: tid}
	th := s.threads[key]

	if th != nil {
		listed := subtractSorted(th.ListedIDs, idsFor)
		pinned := subtractSorted(th.PinnedIDs, idsFor)

		outlying := th.OutlyingLists
		rebuilt := false
		for i, r := range outlying {
			cut := subtractSorted(r, idsFor)
			if sameSlice(cut, r) {
				continue
			}
			if !rebuilt {
				clone := make([][]MessageID, len(outlying))
				copy(clone, outlying)
				outlying = clone
				rebuilt = true
			}
			if len(cut) == 0 {
				outlying[i] = nil
			} else {
				outlying[i] = cut
			}
		}
		if rebuilt {
			compacted := outlying[:0:0]
			for _, r := range outlying {
				if len(r) > 0 {
					compacted = append(compacted, r)
				}
			}
			outlying = compacted
		}

		if !sameSlice(listed, th.ListedIDs) || !sameSlice(pinned, th.PinnedIDs) || rebuilt {
			next := th.clone()
			next.ListedIDs = listed
			next.PinnedIDs = pinned
			next.OutlyingLists = outlying
			s = s.withThread(key, next)
		}

		// Only server-confirmed ids count toward the persisted total;
		// client-local pending ids never did.
		if th.Info != nil && th.Info.MessagesCount >= 0 {
			removed := 0
			for _, id := range idsFor {
				if byID[id] != nil && !IsLocalID(id) {
					removed++
				}
			}
			if removed > 0 {
				count := th.Info.MessagesCount - removed
				if count < 0 {
					count = 0
				}
				s = UpdateThreadInfo(s, chat, tid, ThreadInfoPatch{MessagesCount: &count}, false)
			}
		}
	}

	for tk := range s.tabs {
		if tk.Chat == chat && tk.Thread == tid {
			s = excludeTabIDs(s, tk, idsFor)
		}
	}
	return s
}

// dropLinkedPostThread handles a deleted message that was the canonical
// forwarded channel post heading a discussion thread: any tab viewing
// that discussion falls back to the chat's default view, and the cached
// thread keyed by the post's origin is dropped so it cannot be served
// stale.
func dropLinkedPostThread(s *State, chat ChatID, post *Message) *State {
	gone := ActiveView{Chat: chat, Thread: ThreadID(post.ID)}
	for tab, view := range s.active {
		if view == gone {
			s = SetActiveView(s, tab, chat, MainThread)
		}
	}

	originKey := ThreadKey{
		Chat:   post.ForwardInfo.FromChatID,
		Thread: ThreadID(post.ForwardInfo.FromMessageID),
	}
	if s.threads[originKey] != nil {
		s = s.withThread(originKey, nil)
	}
	return s
}

// pruneSelections reacts to a deletion: selected ids that no longer
// exist are dropped (exiting selection mode when emptied) and a focus
// target pointing at a deleted message is cleared.
func pruneSelections(s *State, chat ChatID, sorted []MessageID) *State {
	for tab, sel := range s.selections {
		if sel.ChatID != chat {
			continue
		}
		kept := sel.MessageIDs[:0:0]
		for _, id := range sel.MessageIDs {
			if !containsSorted(sorted, id) {
				kept = append(kept, id)
			}
		}
		if len(kept) == len(sel.MessageIDs) {
			continue
		}
		if len(kept) == 0 {
			s = s.withSelection(tab, nil)
		} else {
			s = s.withSelection(tab, &Selection{
				ChatID:       sel.ChatID,
				MessageIDs:   kept,
				LastSelected: sel.LastSelected,
			})
		}
	}
	for tab, f := range s.focus {
		if f.ChatID == chat && containsSorted(sorted, f.MessageID) {
			s = s.withFocus(tab, nil)
		}
	}
	return s
}

// DeleteScheduledMessages removes scheduled messages from chat: the
// scheduled table plus every thread's scheduled id list. Scheduled
// messages are never windowed or cross-linked, so there is no viewport
// or cascade handling.
func DeleteScheduledMessages(s *State, chat ChatID, ids []MessageID) *State {
	if len(s.scheduled[chat]) == 0 {
		return s
	}
	sorted := sortUnique(ids)
	if len(sorted) == 0 {
		return s
	}

	for key, th := range s.threads {
		if key.Chat != chat || len(th.ScheduledIDs) == 0 {
			continue
		}
		cut := subtractSorted(th.ScheduledIDs, sorted)
		if sameSlice(cut, th.ScheduledIDs) {
			continue
		}
		next := th.clone()
		next.ScheduledIDs = cut
		s = s.withThread(key, next)
	}

	return removeScheduledMessages(s, chat, sorted)
}
