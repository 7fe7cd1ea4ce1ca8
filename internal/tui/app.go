package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/rafaelpm/gram/internal/bus"
	"github.com/rafaelpm/gram/internal/dispatch"
	"github.com/rafaelpm/gram/internal/state"
	"github.com/rafaelpm/gram/internal/status"
	"github.com/rafaelpm/gram/internal/tui/keys"
	"github.com/rafaelpm/gram/internal/tui/model"
	"github.com/rafaelpm/gram/internal/tui/views"
	"github.com/rivo/tview"
)

// App is the main TUI application shell. Each run is one tab: it gets a
// fresh tab id, so its viewport, selection and focus never collide with
// another client on the same store.
type App struct {
	app       *tview.Application
	pages     *tview.Pages
	d         *dispatch.Dispatcher
	bus       *bus.Bus
	tab       state.TabID
	flash     *model.Flash
	registry  *keys.Registry
	statusBar *views.StatusBar
	chatList  *views.ChatList
	msgView   *views.MessageView
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(d *dispatch.Dispatcher, b *bus.Bus, sessionName string) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		d:         d,
		bus:       b,
		tab:       state.TabID(uuid.New().String()),
		flash:     &model.Flash{},
		registry:  keys.NewRegistry(),
		statusBar: views.NewStatusBar(),
		chatList:  views.NewChatList(),
		msgView:   views.NewMessageView(),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.statusBar.SetSession(sessionName)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal("quit", &keys.Action{
		Rune: 'q', Key: tcell.KeyRune,
		Description: "q:quit", Visible: true,
		Handler: func() { a.app.Stop() },
	})

	a.registry.AddView("chat", "down", &keys.Action{
		Rune: 'j', Key: tcell.KeyRune,
		Handler: func() { a.msgView.MoveCursor(1); a.redraw() },
	})
	a.registry.AddView("chat", "up", &keys.Action{
		Rune: 'k', Key: tcell.KeyRune,
		Handler: func() { a.msgView.MoveCursor(-1); a.redraw() },
	})
	a.registry.AddView("chat", "select", &keys.Action{
		Rune: ' ', Key: tcell.KeyRune,
		Description: "space:select", Visible: true,
		Handler: func() { a.toggleSelect(false) },
	})
	a.registry.AddView("chat", "select-range", &keys.Action{
		Rune: 'V', Key: tcell.KeyRune,
		Description: "V:select to here", Visible: true,
		Handler: func() { a.toggleSelect(true) },
	})
	a.registry.AddView("chat", "delete", &keys.Action{
		Rune: 'd', Key: tcell.KeyRune,
		Description: "d:delete selected", Visible: true,
		Handler: func() { a.deleteSelected() },
	})
	a.registry.AddView("chat", "focus", &keys.Action{
		Rune: 'f', Key: tcell.KeyRune,
		Handler: func() { a.focusCursor() },
	})
}

func (a *App) setupCallbacks() {
	a.chatList.SetSelectedFunc(func(row, col int) {
		if chat, ok := a.chatList.SelectedChat(); ok {
			a.openChat(chat)
		}
	})
}

func (a *App) setupLayout() {
	a.pages.AddPage("chats", a.chatList, true, true)
	a.pages.AddPage("chat", a.msgView, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := a.pages.GetFrontPage()

		if event.Key() == tcell.KeyEscape && currentPage == "chat" {
			// First Esc leaves selection mode, second leaves the chat.
			if state.SelectionFor(a.d.Snapshot(), a.tab) != nil {
				a.d.ClearSelection(a.tab)
				a.redraw()
				return nil
			}
			a.closeChat()
			return nil
		}

		if a.registry.HandleEvent(currentPage, event) {
			return nil
		}
		return event
	})
}

func (a *App) activeView() (state.ActiveView, bool) {
	return state.ActiveViewFor(a.d.Snapshot(), a.tab)
}

func (a *App) openChat(chat state.ChatID) {
	a.d.SetActiveView(a.tab, chat, state.MainThread)
	a.seedViewport(chat, state.MainThread)
	a.pages.SwitchToPage("chat")
	a.app.SetFocus(a.msgView)
	a.redraw()
}

// seedViewport fills the tab's window with the tail of the thread's
// listed history, so range selection and deletion exclusion operate on
// a real window rather than the ad-hoc fallback render.
func (a *App) seedViewport(chat state.ChatID, thread state.ThreadID) {
	s := a.d.Snapshot()
	ids := state.ListedIDs(s, chat, thread)
	if limit := s.Limits().ViewportLimit; len(ids) > limit {
		ids = ids[len(ids)-limit:]
	}
	a.d.ReplaceViewport(chat, thread, a.tab, ids)
}

// syncViewport folds newly listed ids into the open window. Called on
// message deltas only; the viewport deltas it causes do not loop back
// through it.
func (a *App) syncViewport() {
	view, ok := a.activeView()
	if !ok {
		return
	}
	s := a.d.Snapshot()
	window := state.ViewportIDs(s, view.Chat, view.Thread, a.tab)
	if len(window) == 0 {
		return
	}
	newest := window[len(window)-1]
	for _, id := range state.ListedIDs(s, view.Chat, view.Thread) {
		if id > newest {
			a.d.AddViewportID(view.Chat, view.Thread, a.tab, id)
		}
	}
}

func (a *App) closeChat() {
	if view, ok := a.activeView(); ok {
		a.d.CloseTab(view.Chat, view.Thread, a.tab)
	}
	a.d.ClearFocus(a.tab)
	a.pages.SwitchToPage("chats")
	a.app.SetFocus(a.chatList)
	a.redraw()
}

func (a *App) toggleSelect(withRange bool) {
	view, ok := a.activeView()
	if !ok {
		return
	}
	id, ok := a.msgView.CursorID()
	if !ok {
		return
	}
	a.d.ToggleSelected(a.tab, view.Chat, view.Thread, id, withRange)
	a.redraw()
}

func (a *App) deleteSelected() {
	view, ok := a.activeView()
	if !ok {
		return
	}
	sel := state.SelectionFor(a.d.Snapshot(), a.tab)
	if sel == nil || len(sel.MessageIDs) == 0 {
		return
	}
	n := len(sel.MessageIDs)
	a.d.DeleteMessages(view.Chat, sel.MessageIDs)
	a.flash.Set(fmt.Sprintf("deleted %d message(s)", n), 3*time.Second)
	a.redraw()
}

func (a *App) focusCursor() {
	view, ok := a.activeView()
	if !ok {
		return
	}
	id, ok := a.msgView.CursorID()
	if !ok {
		return
	}
	a.d.SetFocus(a.tab, state.Focus{ChatID: view.Chat, MessageID: id, Highlight: true})
	a.redraw()
}

// redraw re-renders every visible view from the current state value.
func (a *App) redraw() {
	s := a.d.Snapshot()
	a.chatList.Update(s)
	if view, ok := state.ActiveViewFor(s, a.tab); ok {
		a.msgView.Update(s, view.Chat, view.Thread, a.tab)
	}
	a.statusBar.SetSelected(len(state.SelectedIDs(s, a.tab)))
	a.statusBar.SetFlash(a.flash.Get())
}

// Run starts the TUI application.
func (a *App) Run() error {
	ch, unsub := a.bus.Subscribe("", 256)
	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				if change, ok := evt.Payload.(status.StatusChange); ok {
					a.statusBar.SetStatus(string(change.To))
				}
				if evt.Kind == bus.KindStateMessages {
					a.syncViewport()
				}
				a.app.QueueUpdateDraw(a.redraw)
			case <-a.ctx.Done():
				return
			}
		}
	}()

	a.redraw()
	return a.app.Run()
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
