package rtdb

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	apperrors "github.com/kbukum/firekit/errors"
	"github.com/kbukum/firekit/observability"
)

// Query is an immutable-ish builder for filtered, ordered reads over a
// reference. Build it from a Ref, then Get for a one-shot snapshot or
// Listen for a live stream.
type Query struct {
	ref   *Ref
	ord   order
	hasOrd bool

	startAt  any
	endAt    any
	equalTo  any
	hasStart bool
	hasEnd   bool
	hasEqual bool

	limitFirst int
	limitLast  int
}

func newQuery(ref *Ref) *Query {
	return &Query{ref: ref, ord: defaultOrder()}
}

// OrderByChild sorts children by the named field of each child object.
func (q *Query) OrderByChild(field string) *Query {
	q.ord = order{mode: orderByChildMode, field: field}
	q.hasOrd = true
	return q
}

// OrderByKey sorts children by their key.
func (q *Query) OrderByKey() *Query {
	q.ord = order{mode: orderByKeyMode}
	q.hasOrd = true
	return q
}

// OrderByValue sorts children by their value.
func (q *Query) OrderByValue() *Query {
	q.ord = order{mode: orderByValueMode}
	q.hasOrd = true
	return q
}

// StartAt restricts results to children whose sort value is >= v.
func (q *Query) StartAt(v any) *Query {
	q.startAt = v
	q.hasStart = true
	return q
}

// EndAt restricts results to children whose sort value is <= v.
func (q *Query) EndAt(v any) *Query {
	q.endAt = v
	q.hasEnd = true
	return q
}

// EqualTo restricts results to children whose sort value equals v.
func (q *Query) EqualTo(v any) *Query {
	q.equalTo = v
	q.hasEqual = true
	return q
}

// LimitToFirst keeps only the first n children in sort order.
func (q *Query) LimitToFirst(n int) *Query {
	q.limitFirst = n
	return q
}

// LimitToLast keeps only the last n children in sort order.
func (q *Query) LimitToLast(n int) *Query {
	q.limitLast = n
	return q
}

// Ref returns the reference this query reads from.
func (q *Query) Ref() *Ref { return q.ref }

func (q *Query) validate() error {
	if q.limitFirst > 0 && q.limitLast > 0 {
		return apperrors.InvalidInput("limit", "limitToFirst and limitToLast are mutually exclusive")
	}
	if q.limitFirst < 0 || q.limitLast < 0 {
		return apperrors.InvalidInput("limit", "limits must be positive")
	}
	if q.hasEqual && (q.hasStart || q.hasEnd) {
		return apperrors.InvalidInput("equalTo", "equalTo cannot be combined with startAt or endAt")
	}
	return nil
}

// params renders the query as REST parameters. Filter and limit values
// are JSON-encoded per the REST surface's requirements.
func (q *Query) params() (map[string]string, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	p := map[string]string{}
	filtered := q.hasStart || q.hasEnd || q.hasEqual || q.limitFirst > 0 || q.limitLast > 0
	if q.hasOrd || filtered {
		p["orderBy"] = q.ord.restParam()
	}

	encode := func(name string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return apperrors.InvalidInput(name, "value is not encodable")
		}
		p[name] = string(b)
		return nil
	}

	if q.hasStart {
		if err := encode("startAt", q.startAt); err != nil {
			return nil, err
		}
	}
	if q.hasEnd {
		if err := encode("endAt", q.endAt); err != nil {
			return nil, err
		}
	}
	if q.hasEqual {
		if err := encode("equalTo", q.equalTo); err != nil {
			return nil, err
		}
	}
	if q.limitFirst > 0 {
		p["limitToFirst"] = strconv.Itoa(q.limitFirst)
	}
	if q.limitLast > 0 {
		p["limitToLast"] = strconv.Itoa(q.limitLast)
	}
	return p, nil
}

// Get runs the query once and returns an ordered snapshot. The server
// filters and limits; children are re-sorted locally since the REST
// surface returns an unordered JSON object.
func (q *Query) Get(ctx context.Context) (*Snapshot, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanQueryGet)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrPath, q.ref.path)

	start := time.Now()
	params, err := q.params()
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	value, err := q.ref.client.get(ctx, q.ref.path, params)
	if err != nil {
		observability.SetSpanError(ctx, err)
		observability.DefaultMetrics().RecordQuery(ctx, q.ref.path, "error", time.Since(start))
		return nil, err
	}
	observability.DefaultMetrics().RecordQuery(ctx, q.ref.path, "ok", time.Since(start))
	return newSnapshot(q.ref.Key(), value, q.ord), nil
}

// Listen opens a live event stream for this query. The listener runs
// until ctx is canceled, Close is called, or the server ends the stream.
func (q *Query) Listen(ctx context.Context) (*Listener, error) {
	if _, err := q.params(); err != nil {
		return nil, err
	}
	return startListener(ctx, q)
}
