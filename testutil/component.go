package testutil

import (
	"context"

	"github.com/kbukum/firekit/component"
)

// TestComponent extends component.Component with testing-specific
// lifecycle methods. A test database seeds its tree in Start, wipes it
// in Reset, and can snapshot the tree to roll back between cases.
type TestComponent interface {
	component.Component

	// Reset restores the component to its initial state, typically
	// between test cases to keep them isolated.
	Reset(ctx context.Context) error

	// Snapshot captures the current state of the component. The
	// returned value can be passed to Restore.
	Snapshot(ctx context.Context) (any, error)

	// Restore returns the component to a state captured by Snapshot.
	Restore(ctx context.Context, snapshot any) error
}
