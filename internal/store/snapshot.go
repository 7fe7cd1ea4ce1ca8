package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rafaelpm/gram/internal/state"
)

// Save replaces the persisted snapshot with the given state. The write
// is one transaction; a crash mid-save leaves the previous snapshot
// intact.
func (db *DB) Save(s *state.State) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"messages", "scheduled_messages", "threads"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, chat := range state.Chats(s) {
		for _, m := range state.MessagesInChat(s, chat) {
			if err := insertMessage(tx, "messages", m); err != nil {
				return err
			}
		}
	}
	for _, chat := range state.ScheduledChats(s) {
		for _, m := range state.ScheduledInChat(s, chat) {
			if err := insertMessage(tx, "scheduled_messages", m); err != nil {
				return err
			}
		}
	}

	for _, key := range state.ThreadKeys(s) {
		if err := insertThread(tx, s, key); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func insertMessage(tx *sql.Tx, table string, m *state.Message) error {
	var hasFwd bool
	var fwdChat state.ChatID
	var fwdMsg state.MessageID
	var fwdLinked bool
	if m.ForwardInfo != nil {
		hasFwd = true
		fwdChat = m.ForwardInfo.FromChatID
		fwdMsg = m.ForwardInfo.FromMessageID
		fwdLinked = m.ForwardInfo.IsLinkedChannelPost
	}
	_, err := tx.Exec(`
		INSERT INTO `+table+` (
			chat_id, id, sender_id, content, date, is_outgoing, grouped_id,
			topic_id, comments_thread_id,
			has_forward, fwd_from_chat_id, fwd_from_message_id, fwd_linked_post,
			is_scheduled, ttl_seconds, is_media_unread,
			is_voice, is_round_video, is_expired_voice, is_expired_round)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ChatID, m.ID, m.SenderID, m.Content, m.Date, m.IsOutgoing, m.GroupedID,
		m.TopicID, m.CommentsThreadID,
		hasFwd, fwdChat, fwdMsg, fwdLinked,
		m.IsScheduled, m.TTLSeconds, m.IsMediaUnread,
		m.IsVoice, m.IsRoundVideo, m.IsExpiredVoice, m.IsExpiredRoundVideo)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

func insertThread(tx *sql.Tx, s *state.State, key state.ThreadKey) error {
	listed, err := json.Marshal(orEmpty(state.ListedIDs(s, key.Chat, key.Thread)))
	if err != nil {
		return err
	}
	outlying, err := json.Marshal(orEmptyLists(state.OutlyingLists(s, key.Chat, key.Thread)))
	if err != nil {
		return err
	}
	pinned, err := json.Marshal(orEmpty(state.PinnedIDs(s, key.Chat, key.Thread)))
	if err != nil {
		return err
	}
	scheduled, err := json.Marshal(orEmpty(state.ScheduledIDs(s, key.Chat, key.Thread)))
	if err != nil {
		return err
	}

	var hasInfo bool
	info := state.ThreadInfo{MessagesCount: -1}
	if got := state.ThreadInfoFor(s, key.Chat, key.Thread); got != nil {
		hasInfo = true
		info = *got
	}

	_, err = tx.Exec(`
		INSERT INTO threads (
			chat_id, thread_id, listed_ids, outlying_lists, pinned_ids, scheduled_ids,
			has_info, messages_count, last_message_id, last_read_inbox_id,
			link_kind, link_chat_id, link_thread_id, link_message_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key.Chat, key.Thread, string(listed), string(outlying), string(pinned), string(scheduled),
		hasInfo, info.MessagesCount, info.LastMessageID, info.LastReadInboxID,
		int(info.Link.Kind), info.Link.ChatID, info.Link.ThreadID, info.Link.MessageID)
	if err != nil {
		return fmt.Errorf("insert thread: %w", err)
	}
	return nil
}

// Load rebuilds a state value from the persisted snapshot. Thread info
// is restored with cascade suppressed: both sides of every link were
// saved, so mirroring again would be redundant.
func (db *DB) Load(limits state.Limits) (*state.State, error) {
	s := state.New(limits)

	msgs, err := db.loadMessages("messages")
	if err != nil {
		return nil, err
	}
	for chat, batch := range msgs {
		s = state.UpsertMessages(s, chat, batch)
	}

	scheduled, err := db.loadMessages("scheduled_messages")
	if err != nil {
		return nil, err
	}
	for chat, batch := range scheduled {
		s = state.UpsertScheduledMessages(s, chat, batch)
	}

	rows, err := db.Query(`
		SELECT chat_id, thread_id, listed_ids, outlying_lists, pinned_ids, scheduled_ids,
		       has_info, messages_count, last_message_id, last_read_inbox_id,
		       link_kind, link_chat_id, link_thread_id, link_message_id
		FROM threads`)
	if err != nil {
		return nil, fmt.Errorf("load threads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			chat                                    state.ChatID
			thread                                  state.ThreadID
			listedJSON, outJSON, pinJSON, schedJSON string
			hasInfo                                 bool
			count                                   int
			lastMsg, lastRead                       state.MessageID
			linkKind                                int
			linkChat                                state.ChatID
			linkThread                              state.ThreadID
			linkMsg                                 state.MessageID
		)
		if err := rows.Scan(&chat, &thread, &listedJSON, &outJSON, &pinJSON, &schedJSON,
			&hasInfo, &count, &lastMsg, &lastRead,
			&linkKind, &linkChat, &linkThread, &linkMsg); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}

		var listed, pinnedIDs, schedIDs []state.MessageID
		var outlying [][]state.MessageID
		if err := json.Unmarshal([]byte(listedJSON), &listed); err != nil {
			return nil, fmt.Errorf("decode listed ids: %w", err)
		}
		if err := json.Unmarshal([]byte(outJSON), &outlying); err != nil {
			return nil, fmt.Errorf("decode outlying lists: %w", err)
		}
		if err := json.Unmarshal([]byte(pinJSON), &pinnedIDs); err != nil {
			return nil, fmt.Errorf("decode pinned ids: %w", err)
		}
		if err := json.Unmarshal([]byte(schedJSON), &schedIDs); err != nil {
			return nil, fmt.Errorf("decode scheduled ids: %w", err)
		}

		s = state.ReplaceListedIDs(s, chat, thread, listed)
		for _, rng := range outlying {
			s = state.MergeOutlyingRange(s, chat, thread, rng)
		}
		s = state.ReplacePinnedIDs(s, chat, thread, pinnedIDs)
		s = state.ReplaceScheduledIDs(s, chat, thread, schedIDs)

		if hasInfo {
			link := state.ThreadLink{
				Kind:      state.LinkKind(linkKind),
				ChatID:    linkChat,
				ThreadID:  linkThread,
				MessageID: linkMsg,
			}
			s = state.UpdateThreadInfo(s, chat, thread, state.ThreadInfoPatch{
				MessagesCount:   &count,
				LastMessageID:   &lastMsg,
				LastReadInboxID: &lastRead,
				Link:            &link,
			}, true)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate threads: %w", err)
	}
	return s, nil
}

func (db *DB) loadMessages(table string) (map[state.ChatID]map[state.MessageID]*state.Message, error) {
	rows, err := db.Query(`
		SELECT chat_id, id, sender_id, content, date, is_outgoing, grouped_id,
		       topic_id, comments_thread_id,
		       has_forward, fwd_from_chat_id, fwd_from_message_id, fwd_linked_post,
		       is_scheduled, ttl_seconds, is_media_unread,
		       is_voice, is_round_video, is_expired_voice, is_expired_round
		FROM ` + table)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[state.ChatID]map[state.MessageID]*state.Message)
	for rows.Next() {
		var m state.Message
		var hasFwd, fwdLinked bool
		var fwdChat state.ChatID
		var fwdMsg state.MessageID
		if err := rows.Scan(&m.ChatID, &m.ID, &m.SenderID, &m.Content, &m.Date,
			&m.IsOutgoing, &m.GroupedID, &m.TopicID, &m.CommentsThreadID,
			&hasFwd, &fwdChat, &fwdMsg, &fwdLinked,
			&m.IsScheduled, &m.TTLSeconds, &m.IsMediaUnread,
			&m.IsVoice, &m.IsRoundVideo, &m.IsExpiredVoice, &m.IsExpiredRoundVideo); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		if hasFwd {
			m.ForwardInfo = &state.ForwardInfo{
				FromChatID:          fwdChat,
				FromMessageID:       fwdMsg,
				IsLinkedChannelPost: fwdLinked,
			}
		}
		byID := out[m.ChatID]
		if byID == nil {
			byID = make(map[state.MessageID]*state.Message)
			out[m.ChatID] = byID
		}
		entity := m
		byID[m.ID] = &entity
	}
	return out, rows.Err()
}

func orEmpty(ids []state.MessageID) []state.MessageID {
	if ids == nil {
		return []state.MessageID{}
	}
	return ids
}

func orEmptyLists(lists [][]state.MessageID) [][]state.MessageID {
	if lists == nil {
		return [][]state.MessageID{}
	}
	return lists
}
