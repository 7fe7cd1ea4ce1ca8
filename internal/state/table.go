package state

// UpsertMessages merges a batch of message entities into chat's table.
// New ids are inserted; existing ids are replaced only when the incoming
// entity is a different reference, so re-delivering an identical batch
// returns the state unchanged and triggers no downstream recomputation.
// Entities without an id, or filed under a key that is not their id, are
// discarded: every index resolves membership through the entity's own
// id, so a mismatched key could never be found again.
func UpsertMessages(s *State, chat ChatID, msgs map[MessageID]*Message) *State {
	if len(msgs) == 0 {
		return s
	}
	cur := s.messages[chat]

	changed := false
	for id, m := range msgs {
		if m == nil || m.ID == 0 || m.ID != id {
			continue
		}
		if cur[id] != m {
			changed = true
			break
		}
	}
	if !changed {
		return s
	}

	byID := cloneMap(cur)
	for id, m := range msgs {
		if m == nil || m.ID == 0 || m.ID != id {
			continue
		}
		byID[id] = m
	}
	return s.withChatMessages(chat, byID)
}

// PatchMessage applies a partial update to one stored message. Patching
// a message the table does not hold is a no-op: a patch carries no
// identity, so there is nothing valid to store.
func PatchMessage(s *State, chat ChatID, id MessageID, p MessagePatch) *State {
	m := s.messages[chat][id]
	if m == nil {
		return s
	}
	patched := applyPatch(m, p)
	if patched == m {
		return s
	}
	if patched.ID == 0 {
		// Never store an entity without an identity.
		return s
	}
	byID := cloneMap(s.messages[chat])
	byID[id] = patched
	return s.withChatMessages(chat, byID)
}

// removeMessages drops ids from chat's table. Indices pointing at the
// ids must already have been cleaned by the caller; the table knows
// nothing about threads or viewports.
func removeMessages(s *State, chat ChatID, ids []MessageID) *State {
	cur := s.messages[chat]
	if len(cur) == 0 {
		return s
	}
	hit := false
	for _, id := range ids {
		if _, ok := cur[id]; ok {
			hit = true
			break
		}
	}
	if !hit {
		return s
	}
	byID := cloneMap(cur)
	for _, id := range ids {
		delete(byID, id)
	}
	if len(byID) == 0 {
		return s.withChatMessages(chat, nil)
	}
	return s.withChatMessages(chat, byID)
}

// UpsertScheduledMessages merges entities into the chat's scheduled
// table. A message lives in exactly one of the two tables; callers hand
// scheduled sends here and confirmed history to UpsertMessages.
func UpsertScheduledMessages(s *State, chat ChatID, msgs map[MessageID]*Message) *State {
	if len(msgs) == 0 {
		return s
	}
	cur := s.scheduled[chat]

	changed := false
	for id, m := range msgs {
		if m == nil || m.ID == 0 || m.ID != id {
			continue
		}
		if cur[id] != m {
			changed = true
			break
		}
	}
	if !changed {
		return s
	}

	byID := cloneMap(cur)
	for id, m := range msgs {
		if m == nil || m.ID == 0 || m.ID != id {
			continue
		}
		byID[id] = m
	}
	return s.withChatScheduled(chat, byID)
}

func removeScheduledMessages(s *State, chat ChatID, ids []MessageID) *State {
	cur := s.scheduled[chat]
	if len(cur) == 0 {
		return s
	}
	hit := false
	for _, id := range ids {
		if _, ok := cur[id]; ok {
			hit = true
			break
		}
	}
	if !hit {
		return s
	}
	byID := cloneMap(cur)
	for _, id := range ids {
		delete(byID, id)
	}
	if len(byID) == 0 {
		return s.withChatScheduled(chat, nil)
	}
	return s.withChatScheduled(chat, byID)
}
