package state

import "slices"

// ChatID identifies a chat.
type ChatID int64

// MessageID identifies a message within a chat. Server-assigned ids are
// positive and monotonically increasing per chat; ids at or above
// LocalMinID are client-local (not yet confirmed by the server).
type MessageID int64

// ThreadID identifies a timeline within a chat. MainThread is the chat's
// main history; any other value names a topic or a comments sub-thread,
// keyed by the thread's root message id.
type ThreadID int64

// TabID identifies one open view. Multiple tabs may show the same thread.
type TabID string

// MainThread is the implicit main timeline every message belongs to.
const MainThread ThreadID = 0

// LocalMinID is the bottom of the reserved client-local id range.
const LocalMinID MessageID = 1 << 52

// IsLocalID reports whether id is a client-assigned local id.
func IsLocalID(id MessageID) bool {
	return id >= LocalMinID
}

// ThreadKey addresses one thread.
type ThreadKey struct {
	Chat   ChatID
	Thread ThreadID
}

// TabKey addresses one thread as seen by one open view.
type TabKey struct {
	Chat   ChatID
	Thread ThreadID
	Tab    TabID
}

// sortUnique returns a sorted, deduplicated copy of ids. The input is
// never modified.
func sortUnique(ids []MessageID) []MessageID {
	if len(ids) == 0 {
		return nil
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// mergeSortedUnique merges two ascending unique slices into a new
// ascending unique slice by linear merge.
func mergeSortedUnique(a, b []MessageID) []MessageID {
	out := make([]MessageID, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// subtractSorted removes every element of remove from a. Both inputs must
// be ascending and unique. When nothing is removed the original slice is
// returned unchanged, so repeated subtraction is reference-stable.
func subtractSorted(a, remove []MessageID) []MessageID {
	if len(a) == 0 || len(remove) == 0 {
		return a
	}
	i, j, hit := 0, 0, false
	for i < len(a) && j < len(remove) {
		switch {
		case a[i] < remove[j]:
			i++
		case a[i] > remove[j]:
			j++
		default:
			hit = true
			i = len(a) // force exit; real work happens below
		}
	}
	if !hit {
		return a
	}
	out := make([]MessageID, 0, len(a))
	j = 0
	for _, id := range a {
		for j < len(remove) && remove[j] < id {
			j++
		}
		if j < len(remove) && remove[j] == id {
			continue
		}
		out = append(out, id)
	}
	return out
}

// containsSorted reports whether an ascending unique slice contains id.
func containsSorted(a []MessageID, id MessageID) bool {
	_, ok := slices.BinarySearch(a, id)
	return ok
}

// equalIDs reports element-wise equality.
func equalIDs(a, b []MessageID) bool {
	return slices.Equal(a, b)
}

// sameSlice reports whether two non-empty slices share backing storage
// and length, i.e. are the same range by identity.
func sameSlice(a, b []MessageID) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}
