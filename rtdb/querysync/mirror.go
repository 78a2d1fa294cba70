package querysync

import (
	"context"
	"sync"

	apperrors "github.com/kbukum/firekit/errors"
	"github.com/kbukum/firekit/logger"
	"github.com/kbukum/firekit/rtdb"
)

// Options configures a Mirror's callbacks. Both are optional and are
// invoked from the mirror's own goroutine, never concurrently.
type Options struct {
	// OnUpdate fires after every applied change with a copy of the list.
	OnUpdate func(entries []Entry)
	// OnError fires once if the underlying stream fails terminally.
	OnError func(err error)
}

// Mirror synchronizes a query's results into an ordered local list.
//
// The list order always matches the server's sort order for the query.
// Until the first value event arrives the mirror is unsynced and child
// events are ignored; the value event seeds the list, and child events
// mutate it incrementally from then on.
type Mirror struct {
	query *rtdb.Query
	opts  Options
	log   *logger.Logger

	mu      sync.RWMutex
	entries []Entry
	index   map[string]int
	synced  bool

	attached bool
	listener *rtdb.Listener
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a detached mirror for the given query.
func New(query *rtdb.Query, opts Options) *Mirror {
	return &Mirror{
		query: query,
		opts:  opts,
		log:   logger.WithComponent("querysync"),
		index: make(map[string]int),
	}
}

// Attach opens the query stream and starts mirroring. A mirror can be
// attached at most once at a time; call Detach before re-attaching.
func (m *Mirror) Attach(ctx context.Context) error {
	m.mu.Lock()
	if m.attached {
		m.mu.Unlock()
		return apperrors.InvalidInput("mirror", "already attached")
	}
	m.attached = true
	m.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	listener, err := m.query.Listen(ctx)
	if err != nil {
		cancel()
		m.mu.Lock()
		m.attached = false
		m.mu.Unlock()
		return err
	}

	m.listener = listener
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run()
	return nil
}

// Detach stops mirroring and clears the local list.
func (m *Mirror) Detach() {
	m.mu.Lock()
	if !m.attached {
		m.mu.Unlock()
		return
	}
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	cancel()
	<-done

	m.mu.Lock()
	m.attached = false
	m.entries = nil
	m.index = make(map[string]int)
	m.synced = false
	m.listener = nil
	m.mu.Unlock()
}

// Synced reports whether the initial snapshot has been applied.
func (m *Mirror) Synced() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.synced
}

// Len returns the number of mirrored entries.
func (m *Mirror) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Entries returns a copy of the mirrored list in sort order.
func (m *Mirror) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Get returns the entry for a key, if mirrored.
func (m *Mirror) Get(key string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.entries[i], true
}

// Keys returns the mirrored keys in sort order.
func (m *Mirror) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Key()
	}
	return out
}

func (m *Mirror) run() {
	defer close(m.done)
	for ev := range m.listener.Events() {
		if m.apply(ev) && m.opts.OnUpdate != nil {
			m.opts.OnUpdate(m.Entries())
		}
	}
	if err := m.listener.Err(); err != nil {
		m.log.Error("query stream failed", logger.Fields(
			logger.FieldPath, m.query.Ref().Path(),
			logger.FieldError, err.Error(),
		))
		if m.opts.OnError != nil {
			m.opts.OnError(err)
		}
	}
}

// apply mutates the list for one event and reports whether anything
// changed.
func (m *Mirror) apply(ev rtdb.Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ev.Type == rtdb.EventValue {
		m.applyValueLocked(ev.Snapshot)
		return true
	}

	// Child events before the initial snapshot carry state the value
	// event will deliver anyway.
	if !m.synced {
		return false
	}

	key := ev.Snapshot.Key()
	switch ev.Type {
	case rtdb.EventChildAdded:
		return m.insertLocked(key, ev.Snapshot.Value(), ev.PrevKey)
	case rtdb.EventChildChanged:
		return m.changeLocked(key, ev.Snapshot.Value())
	case rtdb.EventChildRemoved:
		return m.removeLocked(key)
	case rtdb.EventChildMoved:
		return m.moveLocked(key, ev.PrevKey)
	}
	return false
}

// applyValueLocked rebuilds the list from a full snapshot.
func (m *Mirror) applyValueLocked(snap *rtdb.Snapshot) {
	m.entries = m.entries[:0]
	m.index = make(map[string]int)
	snap.ForEach(func(child *rtdb.Snapshot) bool {
		m.index[child.Key()] = len(m.entries)
		m.entries = append(m.entries, wrapEntry(child.Key(), child.Value()))
		return false
	})
	m.synced = true
}

// insertLocked places a new entry after prevKey. Duplicate adds for a
// key already mirrored are skipped; a change event follows when the
// value actually differs. An unknown prevKey inserts at the front.
func (m *Mirror) insertLocked(key string, value any, prevKey string) bool {
	if _, ok := m.index[key]; ok {
		return false
	}

	pos := 0
	if prevKey != "" {
		if i, ok := m.index[prevKey]; ok {
			pos = i + 1
		}
	}

	m.entries = append(m.entries, nil)
	copy(m.entries[pos+1:], m.entries[pos:])
	m.entries[pos] = wrapEntry(key, value)
	m.reindexLocked(pos)
	return true
}

// changeLocked replaces an entry's fields with the child's new value.
// Fields absent from the new value disappear; scalars are replaced
// wholesale.
func (m *Mirror) changeLocked(key string, value any) bool {
	i, ok := m.index[key]
	if !ok {
		return false
	}
	m.entries[i] = wrapEntry(key, value)
	return true
}

func (m *Mirror) removeLocked(key string) bool {
	i, ok := m.index[key]
	if !ok {
		return false
	}
	delete(m.index, key)
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	m.reindexLocked(i)
	return true
}

// moveLocked relocates an existing entry after prevKey.
func (m *Mirror) moveLocked(key, prevKey string) bool {
	i, ok := m.index[key]
	if !ok {
		return false
	}
	entry := m.entries[i]
	m.entries = append(m.entries[:i], m.entries[i+1:]...)

	pos := 0
	if prevKey != "" {
		if j, ok := m.index[prevKey]; ok {
			if j > i {
				j--
			}
			pos = j + 1
		}
	}

	m.entries = append(m.entries, nil)
	copy(m.entries[pos+1:], m.entries[pos:])
	m.entries[pos] = entry
	from := i
	if pos < from {
		from = pos
	}
	m.reindexLocked(from)
	return true
}

// reindexLocked refreshes the key index from position from onward.
func (m *Mirror) reindexLocked(from int) {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(m.entries); i++ {
		m.index[m.entries[i].Key()] = i
	}
}
