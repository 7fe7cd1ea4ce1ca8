package dispatch

import (
	"context"
	"sync"

	"github.com/rafaelpm/gram/internal/bus"
	"github.com/rafaelpm/gram/internal/feed"
	"github.com/rafaelpm/gram/internal/state"
	"go.uber.org/zap"
)

// Transform is one atomic step against the store. It must be pure:
// derive the next state from the given one and return it, returning the
// argument unchanged to signal a no-op.
type Transform func(*state.State) *state.State

// Dispatcher owns the current state value and serializes every
// mutation. Each transform runs to completion under the lock before the
// next one starts, so readers always observe a state where every
// invariant holds. It subscribes to "net." events on the bus and applies
// the matching store operation, then announces what changed under the
// "state." namespace.
type Dispatcher struct {
	mu     sync.Mutex
	cur    *state.State
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
}

// New creates a dispatcher starting from initial.
func New(initial *state.State, b *bus.Bus, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{cur: initial, bus: b, logger: logger}
}

// Snapshot returns the current state value. The value is immutable;
// callers may hold it for as long as they like.
func (d *Dispatcher) Snapshot() *state.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cur
}

// Apply runs one transform and reports whether the state changed.
func (d *Dispatcher) Apply(fn Transform) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	next := fn(d.cur)
	if next == d.cur {
		return false
	}
	d.cur = next
	return true
}

// apply runs the transform and, when it changed the state, publishes
// the given delta kinds.
func (d *Dispatcher) apply(fn Transform, kinds ...string) {
	if !d.Apply(fn) {
		return
	}
	for _, kind := range kinds {
		d.bus.Publish(bus.Now(kind, nil))
	}
}

// Start subscribes to inbound feed events on the bus.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)
	ch, unsub := d.bus.Subscribe("net.", 256)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				d.handleEvent(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the dispatcher.
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
}

func (d *Dispatcher) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.KindNetMessages:
		up, ok := evt.Payload.(feed.MessagesUpdate)
		if !ok {
			return
		}
		d.IngestMessages(up.ChatID, up.Messages)

	case bus.KindNetScheduled:
		up, ok := evt.Payload.(feed.MessagesUpdate)
		if !ok {
			return
		}
		d.IngestScheduled(up.ChatID, up.Messages)

	case bus.KindNetPatch:
		up, ok := evt.Payload.(feed.PatchUpdate)
		if !ok {
			return
		}
		d.apply(func(s *state.State) *state.State {
			return state.PatchMessage(s, up.ChatID, up.ID, up.Patch)
		}, bus.KindStateMessages)

	case bus.KindNetDeleted:
		up, ok := evt.Payload.(feed.DeleteUpdate)
		if !ok {
			return
		}
		d.DeleteMessages(up.ChatID, up.IDs)

	case bus.KindNetDeletedScheduled:
		up, ok := evt.Payload.(feed.DeleteUpdate)
		if !ok {
			return
		}
		d.apply(func(s *state.State) *state.State {
			return state.DeleteScheduledMessages(s, up.ChatID, up.IDs)
		}, bus.KindStateMessages, bus.KindStateThreads)

	case bus.KindNetThreadInfo:
		up, ok := evt.Payload.(feed.ThreadInfoUpdate)
		if !ok {
			return
		}
		d.apply(func(s *state.State) *state.State {
			return state.UpdateThreadInfo(s, up.ChatID, up.ThreadID, up.Patch, false)
		}, bus.KindStateThreads)

	case bus.KindNetPinned:
		up, ok := evt.Payload.(feed.PinnedUpdate)
		if !ok {
			return
		}
		d.apply(func(s *state.State) *state.State {
			return state.ReplacePinnedIDs(s, up.ChatID, up.ThreadID, up.IDs)
		}, bus.KindStateThreads)

	case bus.KindNetTyping:
		up, ok := evt.Payload.(feed.TypingUpdate)
		if !ok {
			return
		}
		// The wire knows only chat and thread; fan the flag out to
		// every tab currently showing that view.
		d.apply(func(s *state.State) *state.State {
			for _, tab := range state.TabsViewing(s, up.ChatID, up.ThreadID) {
				s = state.SetTabTyping(s, up.ChatID, up.ThreadID, tab, up.Typing)
			}
			return s
		}, bus.KindStateViewports)
	}
}

// IngestMessages upserts a batch and folds each message's id into the
// listed list of the thread it resolves to.
func (d *Dispatcher) IngestMessages(chat state.ChatID, msgs map[state.MessageID]*state.Message) {
	if len(msgs) == 0 {
		return
	}
	perThread := make(map[state.ThreadID][]state.MessageID)
	for id, m := range msgs {
		thread := state.ThreadForMessage(m)
		perThread[thread] = append(perThread[thread], id)
	}
	d.apply(func(s *state.State) *state.State {
		s = state.UpsertMessages(s, chat, msgs)
		for thread, ids := range perThread {
			s = state.MergeListedIDs(s, chat, thread, ids)
		}
		return s
	}, bus.KindStateMessages, bus.KindStateThreads)
	d.logger.Debug("messages ingested",
		zap.Int64("chat", int64(chat)), zap.Int("count", len(msgs)))
}

// IngestScheduled upserts a scheduled batch and folds the ids into the
// per-thread scheduled lists.
func (d *Dispatcher) IngestScheduled(chat state.ChatID, msgs map[state.MessageID]*state.Message) {
	if len(msgs) == 0 {
		return
	}
	perThread := make(map[state.ThreadID][]state.MessageID)
	for id, m := range msgs {
		thread := state.ThreadForMessage(m)
		perThread[thread] = append(perThread[thread], id)
	}
	d.apply(func(s *state.State) *state.State {
		s = state.UpsertScheduledMessages(s, chat, msgs)
		for thread, ids := range perThread {
			merged := append(ids, state.ScheduledIDs(s, chat, thread)...)
			s = state.ReplaceScheduledIDs(s, chat, thread, merged)
		}
		return s
	}, bus.KindStateMessages, bus.KindStateThreads)
}

// IngestOutlying upserts an out-of-context fetch (jump to message,
// pinned browse) and folds its ids into the thread's outlying ranges.
func (d *Dispatcher) IngestOutlying(chat state.ChatID, thread state.ThreadID, msgs map[state.MessageID]*state.Message) {
	if len(msgs) == 0 {
		return
	}
	ids := make([]state.MessageID, 0, len(msgs))
	for id := range msgs {
		ids = append(ids, id)
	}
	d.apply(func(s *state.State) *state.State {
		s = state.UpsertMessages(s, chat, msgs)
		return state.MergeOutlyingRange(s, chat, thread, ids)
	}, bus.KindStateMessages, bus.KindStateThreads)
}

// DropOutlyingRange discards one stale fetched range.
func (d *Dispatcher) DropOutlyingRange(chat state.ChatID, thread state.ThreadID, rng []state.MessageID) {
	d.apply(func(s *state.State) *state.State {
		return state.RemoveOutlyingRange(s, chat, thread, rng)
	}, bus.KindStateThreads)
}

// DeleteMessages runs the full deletion pass for a set of ids.
func (d *Dispatcher) DeleteMessages(chat state.ChatID, ids []state.MessageID) {
	d.apply(func(s *state.State) *state.State {
		return state.DeleteMessages(s, chat, ids)
	}, bus.KindStateMessages, bus.KindStateThreads, bus.KindStateViewports, bus.KindStateSelection)
	d.logger.Info("messages deleted",
		zap.Int64("chat", int64(chat)), zap.Int("count", len(ids)))
}

// The operations below are the UI surface. Each serializes through the
// same lock as feed ingestion, so a keystroke never interleaves with a
// half-applied update.

func (d *Dispatcher) SetActiveView(tab state.TabID, chat state.ChatID, thread state.ThreadID) {
	d.apply(func(s *state.State) *state.State {
		return state.SetActiveView(s, tab, chat, thread)
	}, bus.KindStateViewports)
}

func (d *Dispatcher) ReplaceViewport(chat state.ChatID, thread state.ThreadID, tab state.TabID, ids []state.MessageID) {
	d.apply(func(s *state.State) *state.State {
		return state.ReplaceViewport(s, chat, thread, tab, ids)
	}, bus.KindStateViewports)
}

func (d *Dispatcher) AddViewportID(chat state.ChatID, thread state.ThreadID, tab state.TabID, id state.MessageID) {
	d.apply(func(s *state.State) *state.State {
		return state.AddViewportID(s, chat, thread, tab, id)
	}, bus.KindStateViewports)
}

func (d *Dispatcher) SetTabTyping(chat state.ChatID, thread state.ThreadID, tab state.TabID, typing bool) {
	d.apply(func(s *state.State) *state.State {
		return state.SetTabTyping(s, chat, thread, tab, typing)
	}, bus.KindStateViewports)
}

func (d *Dispatcher) CloseTab(chat state.ChatID, thread state.ThreadID, tab state.TabID) {
	d.apply(func(s *state.State) *state.State {
		return state.CloseTab(s, chat, thread, tab)
	}, bus.KindStateViewports)
}

func (d *Dispatcher) ToggleSelected(tab state.TabID, chat state.ChatID, thread state.ThreadID, id state.MessageID, withRange bool) {
	d.apply(func(s *state.State) *state.State {
		return state.ToggleSelected(s, tab, chat, thread, id, withRange)
	}, bus.KindStateSelection)
}

func (d *Dispatcher) ClearSelection(tab state.TabID) {
	d.apply(func(s *state.State) *state.State {
		return state.ClearSelection(s, tab)
	}, bus.KindStateSelection)
}

func (d *Dispatcher) SetFocus(tab state.TabID, f state.Focus) {
	d.apply(func(s *state.State) *state.State {
		return state.SetFocus(s, tab, f)
	}, bus.KindStateSelection)
}

func (d *Dispatcher) ClearFocus(tab state.TabID) {
	d.apply(func(s *state.State) *state.State {
		return state.ClearFocus(s, tab)
	}, bus.KindStateSelection)
}
