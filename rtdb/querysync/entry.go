package querysync

// Reserved field names injected into mirrored entries.
const (
	// KeyField carries the database key of the entry.
	KeyField = "$key"
	// ValueField carries the raw value of scalar entries.
	ValueField = "$val"
)

// Entry is one mirrored child. Object children keep their own fields
// plus KeyField; scalar children are wrapped as {KeyField, ValueField}.
type Entry map[string]any

// Key returns the database key of the entry.
func (e Entry) Key() string {
	k, _ := e[KeyField].(string)
	return k
}

// wrapEntry converts a child value into an Entry without mutating the
// source value.
func wrapEntry(key string, value any) Entry {
	if m, ok := value.(map[string]any); ok {
		e := make(Entry, len(m)+1)
		for k, v := range m {
			e[k] = v
		}
		e[KeyField] = key
		return e
	}
	return Entry{KeyField: key, ValueField: value}
}
