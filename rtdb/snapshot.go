package rtdb

// Snapshot is an immutable view of the data at a location, with
// children ordered per the query that produced it.
type Snapshot struct {
	key       string
	value     any
	ord       order
	childKeys []string
}

// NewSnapshot builds a snapshot from a decoded JSON value with children
// ordered by key. Intended for fakes and tests of snapshot consumers.
func NewSnapshot(key string, value any) *Snapshot {
	return newSnapshot(key, value, defaultOrder())
}

func newSnapshot(key string, value any, ord order) *Snapshot {
	s := &Snapshot{key: key, value: value, ord: ord}
	if m, ok := value.(map[string]any); ok {
		s.childKeys = ord.sortChildren(m)
	}
	return s
}

// Key returns the key of this location.
func (s *Snapshot) Key() string { return s.key }

// Value returns the decoded JSON value, or nil if the location is empty.
func (s *Snapshot) Value() any { return s.value }

// Exists reports whether any data is present.
func (s *Snapshot) Exists() bool { return s.value != nil }

// HasChildren reports whether the value is an object with children.
func (s *Snapshot) HasChildren() bool { return len(s.childKeys) > 0 }

// NumChildren returns the number of direct children.
func (s *Snapshot) NumChildren() int { return len(s.childKeys) }

// Keys returns the child keys in sort order.
func (s *Snapshot) Keys() []string {
	out := make([]string, len(s.childKeys))
	copy(out, s.childKeys)
	return out
}

// Child returns the snapshot of a direct child. A missing child yields
// an empty snapshot, never nil.
func (s *Snapshot) Child(key string) *Snapshot {
	if m, ok := s.value.(map[string]any); ok {
		return newSnapshot(key, m[key], defaultOrder())
	}
	return newSnapshot(key, nil, defaultOrder())
}

// ForEach visits each child in sort order. Returning true from fn stops
// iteration early; ForEach reports whether iteration was stopped.
func (s *Snapshot) ForEach(fn func(child *Snapshot) bool) bool {
	m, _ := s.value.(map[string]any)
	for _, k := range s.childKeys {
		if fn(newSnapshot(k, m[k], defaultOrder())) {
			return true
		}
	}
	return false
}
