package rtdb

import (
	"sort"
	"strconv"
)

// orderMode selects which value a query's children are sorted by.
type orderMode int

const (
	orderByKeyMode orderMode = iota
	orderByValueMode
	orderByChildMode
)

// order is the resolved sort criterion for a set of children.
type order struct {
	mode  orderMode
	field string
}

func defaultOrder() order { return order{mode: orderByKeyMode} }

// restParam returns the JSON-quoted orderBy value for the REST surface.
func (o order) restParam() string {
	switch o.mode {
	case orderByValueMode:
		return `"$value"`
	case orderByChildMode:
		return strconv.Quote(o.field)
	default:
		return `"$key"`
	}
}

// sortValueOf extracts the value a child sorts by under this order.
func (o order) sortValueOf(key string, value any) any {
	switch o.mode {
	case orderByValueMode:
		return value
	case orderByChildMode:
		if m, ok := value.(map[string]any); ok {
			return m[o.field]
		}
		return nil
	default:
		return key
	}
}

// sortChildren returns the child keys sorted per this order. Ties are
// broken by key so the result is deterministic.
func (o order) sortChildren(children map[string]any) []string {
	keys := make([]string, 0, len(children))
	for k := range children {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if o.mode == orderByKeyMode {
			return compareKeys(keys[i], keys[j]) < 0
		}
		vi := o.sortValueOf(keys[i], children[keys[i]])
		vj := o.sortValueOf(keys[j], children[keys[j]])
		if c := compareValues(vi, vj); c != 0 {
			return c < 0
		}
		return compareKeys(keys[i], keys[j]) < 0
	})
	return keys
}

// valueRank buckets a value into the database's type ordering:
// null < false < true < numbers < strings < objects.
func valueRank(v any) int {
	switch t := v.(type) {
	case nil:
		return 0
	case bool:
		if !t {
			return 1
		}
		return 2
	case float64, int, int64:
		return 3
	case string:
		return 4
	default:
		return 5
	}
}

// compareValues orders two values per the database's sort semantics.
// Objects compare equal to each other; callers tie-break by key.
func compareValues(a, b any) int {
	ra, rb := valueRank(a), valueRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case 3:
		fa, fb := toFloat(a), toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
	case 4:
		sa, sb := a.(string), b.(string)
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		}
	}
	return 0
}

// compareKeys orders child keys: keys that parse as integers sort
// numerically before all other keys, which sort lexicographically.
func compareKeys(a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		if na < nb {
			return -1
		}
		if na > nb {
			return 1
		}
		return 0
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	}
	return 0
}
