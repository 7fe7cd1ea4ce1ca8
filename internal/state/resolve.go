package state

// ThreadForMessage resolves which thread a message belongs to beyond the
// main timeline: topic membership wins, then comments membership, else
// the main timeline. Every message also conceptually exists in the main
// timeline regardless of the result.
func ThreadForMessage(m *Message) ThreadID {
	if m == nil {
		return MainThread
	}
	if m.TopicID != 0 {
		return m.TopicID
	}
	if m.CommentsThreadID != 0 {
		return m.CommentsThreadID
	}
	return MainThread
}
