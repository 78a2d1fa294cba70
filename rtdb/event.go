package rtdb

// EventType identifies a listener event.
type EventType string

const (
	// EventValue delivers a full snapshot of the listened location. It
	// fires once after the initial sync and again whenever the server
	// replaces the whole location.
	EventValue EventType = "value"

	// EventChildAdded fires when a child appears.
	EventChildAdded EventType = "child_added"

	// EventChildChanged fires when an existing child's data changes.
	EventChildChanged EventType = "child_changed"

	// EventChildRemoved fires when a child is deleted.
	EventChildRemoved EventType = "child_removed"

	// EventChildMoved fires when a child's sort position changes. It is
	// followed by a child_changed event for the same child.
	EventChildMoved EventType = "child_moved"
)

// Event is a single listener notification.
//
// For child events, Snapshot holds the affected child and PrevKey is
// the key of the sibling immediately before it in sort order, or ""
// when the child is first. For value events, Snapshot holds the whole
// location and PrevKey is always "".
type Event struct {
	Type     EventType
	Snapshot *Snapshot
	PrevKey  string
}
