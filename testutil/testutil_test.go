package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/kbukum/firekit/component"
)

// seededTree is a TestComponent holding an in-memory JSON-like tree,
// seeded on start and wiped on reset, the way a test database fixture
// behaves.
type seededTree struct {
	name    string
	seed    map[string]any
	data    map[string]any
	started bool

	startErr error
	stopErr  error
}

func newSeededTree(name string, seed map[string]any) *seededTree {
	return &seededTree{name: name, seed: seed}
}

func (s *seededTree) Name() string { return s.name }

func (s *seededTree) Start(_ context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.started = true
	s.data = cloneTree(s.seed)
	return nil
}

func (s *seededTree) Stop(_ context.Context) error {
	if s.stopErr != nil {
		return s.stopErr
	}
	s.started = false
	s.data = nil
	return nil
}

func (s *seededTree) Health(_ context.Context) component.Health {
	status := component.StatusHealthy
	if !s.started {
		status = component.StatusUnhealthy
	}
	return component.Health{Name: s.name, Status: status}
}

func (s *seededTree) Reset(_ context.Context) error {
	if !s.started {
		return errors.New("not started")
	}
	s.data = cloneTree(s.seed)
	return nil
}

func (s *seededTree) Snapshot(_ context.Context) (any, error) {
	return cloneTree(s.data), nil
}

func (s *seededTree) Restore(_ context.Context, snapshot any) error {
	tree, ok := snapshot.(map[string]any)
	if !ok {
		return errors.New("bad snapshot type")
	}
	s.data = cloneTree(tree)
	return nil
}

func cloneTree(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func TestSetupAndCleanup(t *testing.T) {
	db := newSeededTree("rtdb", map[string]any{"rooms": 2})

	cleanup, err := Setup(db)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if !db.started {
		t.Fatal("component must be started after Setup")
	}
	if db.data["rooms"] != 2 {
		t.Fatalf("seed not applied: %v", db.data)
	}

	if err := cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if db.started {
		t.Fatal("component must be stopped after cleanup")
	}
}

func TestSetupStartFailure(t *testing.T) {
	db := newSeededTree("rtdb", nil)
	db.startErr = errors.New("connect refused")

	if _, err := Setup(db); err == nil {
		t.Fatal("Setup must surface the start error")
	}
}

func TestTHelperSetupAndReset(t *testing.T) {
	db := newSeededTree("rtdb", map[string]any{"rooms": 1})
	h := T(t)
	h.Setup(db)

	db.data["rooms"] = 99
	h.Reset(db)
	if db.data["rooms"] != 1 {
		t.Fatalf("Reset must restore the seed, got %v", db.data)
	}
}

func TestTHelperSnapshotRestore(t *testing.T) {
	db := newSeededTree("rtdb", map[string]any{"rooms": 1})
	h := T(t)
	h.Setup(db)

	snap := h.Snapshot(db)
	db.data["rooms"] = 42
	h.Restore(db, snap)
	if db.data["rooms"] != 1 {
		t.Fatalf("Restore must roll back, got %v", db.data)
	}
}

func TestManagerLifecycle(t *testing.T) {
	db := newSeededTree("rtdb", map[string]any{"rooms": 1})
	store := newSeededTree("storage", map[string]any{"objects": 0})

	m := NewManager(context.Background())
	m.Add(db)
	m.Add(store)

	if err := m.StartAll(); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	if !db.started || !store.started {
		t.Fatal("all components must be started")
	}

	if got := m.Get("storage"); got != store {
		t.Fatalf("Get(storage) = %v", got)
	}
	if m.Get("missing") != nil {
		t.Fatal("Get must return nil for unknown name")
	}
	if len(m.Components()) != 2 {
		t.Fatalf("Components() = %d", len(m.Components()))
	}

	db.data["rooms"] = 5
	if err := m.ResetAll(); err != nil {
		t.Fatalf("ResetAll: %v", err)
	}
	if db.data["rooms"] != 1 {
		t.Fatalf("ResetAll must restore seeds, got %v", db.data)
	}

	if err := m.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if db.started || store.started {
		t.Fatal("all components must be stopped")
	}
}

func TestManagerStopAllContinuesOnError(t *testing.T) {
	first := newSeededTree("first", nil)
	second := newSeededTree("second", nil)
	second.stopErr = errors.New("hang")

	m := NewManager(context.Background())
	m.Add(first)
	m.Add(second)

	if err := m.StartAll(); err != nil {
		t.Fatalf("StartAll: %v", err)
	}

	err := m.StopAll()
	if err == nil {
		t.Fatal("StopAll must report the stop failure")
	}
	if first.started {
		t.Fatal("earlier components must still be stopped")
	}
}

func TestManagerStartAllStopsOnFirstError(t *testing.T) {
	first := newSeededTree("first", nil)
	second := newSeededTree("second", nil)
	second.startErr = errors.New("boom")
	third := newSeededTree("third", nil)

	m := NewManager(context.Background())
	m.Add(first)
	m.Add(second)
	m.Add(third)

	if err := m.StartAll(); err == nil {
		t.Fatal("StartAll must surface the failure")
	}
	if third.started {
		t.Fatal("components after the failure must not be started")
	}
}
