package state

import "testing"

const tabA TabID = "tab-a"

func TestAddViewportID(t *testing.T) {
	s := New(DefaultLimits())
	s = AddViewportID(s, 1, MainThread, tabA, 10)
	s = AddViewportID(s, 1, MainThread, tabA, 11)

	if got := ViewportIDs(s, 1, MainThread, tabA); !equalIDs(got, []MessageID{10, 11}) {
		t.Errorf("viewport = %v, want [10 11]", got)
	}
}

func TestAddViewportIDPresentIsNoop(t *testing.T) {
	s := New(DefaultLimits())
	s = AddViewportID(s, 1, MainThread, tabA, 10)
	if s2 := AddViewportID(s, 1, MainThread, tabA, 10); s2 != s {
		t.Error("adding a present id should return the same state")
	}
}

func TestAddViewportIDEvictsToHalfSlice(t *testing.T) {
	limits := Limits{ViewportLimit: 8, Slice: 4}
	s := New(limits)
	for id := MessageID(1); id <= 8; id++ {
		s = AddViewportID(s, 1, MainThread, tabA, id)
	}
	if got := ViewportIDs(s, 1, MainThread, tabA); len(got) != 8 {
		t.Fatalf("window length = %d, want 8", len(got))
	}

	// At capacity: keep the newest Slice/2 ids, then append.
	s = AddViewportID(s, 1, MainThread, tabA, 9)
	got := ViewportIDs(s, 1, MainThread, tabA)
	if !equalIDs(got, []MessageID{7, 8, 9}) {
		t.Errorf("window after eviction = %v, want [7 8 9]", got)
	}
}

func TestViewportNeverExceedsLimit(t *testing.T) {
	limits := Limits{ViewportLimit: 8, Slice: 4}
	s := New(limits)
	for id := MessageID(1); id <= 100; id++ {
		s = AddViewportID(s, 1, MainThread, tabA, id)
		if got := ViewportIDs(s, 1, MainThread, tabA); len(got) > limits.ViewportLimit {
			t.Fatalf("window length %d exceeds limit after adding %d", len(got), id)
		}
	}
}

func TestReplaceViewport(t *testing.T) {
	s := New(DefaultLimits())
	s = ReplaceViewport(s, 1, MainThread, tabA, []MessageID{30, 10, 20, 10})

	if got := ViewportIDs(s, 1, MainThread, tabA); !equalIDs(got, []MessageID{10, 20, 30}) {
		t.Errorf("viewport = %v", got)
	}
	if s2 := ReplaceViewport(s, 1, MainThread, tabA, []MessageID{20, 30, 10}); s2 != s {
		t.Error("identical replacement should keep the state reference")
	}
}

func TestReplaceViewportEmptyDeletesWindow(t *testing.T) {
	s := New(DefaultLimits())
	s = ReplaceViewport(s, 1, MainThread, tabA, []MessageID{10})
	s = ReplaceViewport(s, 1, MainThread, tabA, nil)
	if ViewportIDs(s, 1, MainThread, tabA) != nil {
		t.Error("empty window should be absence, not an empty sequence")
	}
}

func TestExcludeViewportIDs(t *testing.T) {
	s := New(DefaultLimits())
	s = ReplaceViewport(s, 1, MainThread, tabA, []MessageID{10, 11, 12, 13})
	s = ExcludeViewportIDs(s, 1, MainThread, tabA, []MessageID{11, 13, 99})

	if got := ViewportIDs(s, 1, MainThread, tabA); !equalIDs(got, []MessageID{10, 12}) {
		t.Errorf("viewport = %v, want [10 12]", got)
	}
}

func TestExcludeViewportIDsEmptiesToAbsence(t *testing.T) {
	s := New(DefaultLimits())
	s = ReplaceViewport(s, 1, MainThread, tabA, []MessageID{10, 11})
	s = ExcludeViewportIDs(s, 1, MainThread, tabA, []MessageID{10, 11})
	if ViewportIDs(s, 1, MainThread, tabA) != nil {
		t.Error("fully excluded window should be deleted")
	}
}

func TestExcludeViewportNoHitKeepsState(t *testing.T) {
	s := New(DefaultLimits())
	s = ReplaceViewport(s, 1, MainThread, tabA, []MessageID{10, 11})
	if s2 := ExcludeViewportIDs(s, 1, MainThread, tabA, []MessageID{50}); s2 != s {
		t.Error("excluding unknown ids should return the same state")
	}
}

func TestTabsAreIndependent(t *testing.T) {
	const tabB TabID = "tab-b"
	s := New(DefaultLimits())
	s = AddViewportID(s, 1, MainThread, tabA, 10)
	s = AddViewportID(s, 1, MainThread, tabB, 20)

	if got := ViewportIDs(s, 1, MainThread, tabA); !equalIDs(got, []MessageID{10}) {
		t.Errorf("tab A viewport = %v", got)
	}
	if got := ViewportIDs(s, 1, MainThread, tabB); !equalIDs(got, []MessageID{20}) {
		t.Errorf("tab B viewport = %v", got)
	}
}

func TestSetTabTyping(t *testing.T) {
	s := New(DefaultLimits())
	if s2 := SetTabTyping(s, 1, MainThread, tabA, false); s2 != s {
		t.Error("clearing typing on an absent tab should be a no-op")
	}
	s = SetTabTyping(s, 1, MainThread, tabA, true)
	if !TabTyping(s, 1, MainThread, tabA) {
		t.Error("typing flag not set")
	}
}

func TestCloseTab(t *testing.T) {
	s := New(DefaultLimits())
	s = AddViewportID(s, 1, MainThread, tabA, 10)
	s = CloseTab(s, 1, MainThread, tabA)
	if ViewportIDs(s, 1, MainThread, tabA) != nil {
		t.Error("closed tab should drop its overlay")
	}
}

func TestSetActiveView(t *testing.T) {
	s := New(DefaultLimits())
	s = SetActiveView(s, tabA, 1, 42)

	view, ok := ActiveViewFor(s, tabA)
	if !ok || view.Chat != 1 || view.Thread != 42 {
		t.Errorf("active view = %+v, %v", view, ok)
	}
	if s2 := SetActiveView(s, tabA, 1, 42); s2 != s {
		t.Error("re-setting the same view should keep the state")
	}
}
