package rtdb

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	apperrors "github.com/kbukum/firekit/errors"
	"github.com/kbukum/firekit/httpclient/sse"
	"github.com/kbukum/firekit/logger"
	"github.com/kbukum/firekit/observability"
	"github.com/kbukum/firekit/resilience"
)

// streamPayload is the body of a put or patch stream event.
type streamPayload struct {
	Path string `json:"path"`
	Data any    `json:"data"`
}

// Listener consumes the raw put/patch event stream for a query and
// synthesizes value and child events with predecessor keys.
//
// The server opens every subscription with a put at "/" carrying the
// full current state; the listener turns that into a value event.
// Subsequent puts and patches at child paths become child_added,
// child_changed, child_removed and child_moved events. After a
// reconnect the server re-sends the full state, which surfaces as a
// fresh value event so consumers can rebuild.
type Listener struct {
	query  *Query
	client *Client
	log    *logger.Logger

	events chan Event
	cancel context.CancelFunc
	done   chan struct{}

	// children mirrors the listened location, one entry per direct child.
	children map[string]any
	sorted   []string
	primed   bool

	mu  sync.Mutex
	err error
}

func startListener(ctx context.Context, q *Query) (*Listener, error) {
	ctx, cancel := context.WithCancel(ctx)
	l := &Listener{
		query:    q,
		client:   q.ref.client,
		log:      q.ref.client.log.WithFields(logger.Fields(logger.FieldPath, q.ref.Path())),
		events:   make(chan Event, 64),
		cancel:   cancel,
		done:     make(chan struct{}),
		children: make(map[string]any),
	}
	go l.run(ctx)
	return l, nil
}

// Events returns the event channel. It is closed when the listener
// stops; check Err afterwards.
func (l *Listener) Events() <-chan Event { return l.events }

// Err returns the terminal error, if any, once Events is closed.
func (l *Listener) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Close stops the listener and releases the stream.
func (l *Listener) Close() {
	l.cancel()
	<-l.done
}

func (l *Listener) fail(err error) {
	l.mu.Lock()
	if l.err == nil {
		l.err = err
	}
	l.mu.Unlock()
}

// run owns the connect/read/reconnect loop.
func (l *Listener) run(ctx context.Context) {
	defer close(l.events)
	defer close(l.done)

	cfg := l.client.cfg
	backoff := resilience.NewBackoff(resilience.RetryConfig{
		InitialBackoff: cfg.StreamBackoffMin,
		MaxBackoff:     cfg.StreamBackoffMax,
		BackoffFactor:  2.0,
		Jitter:         0.25,
	})

	params, err := l.query.params()
	if err != nil {
		l.fail(err)
		return
	}

	for {
		if ctx.Err() != nil {
			return
		}

		stream, err := l.client.stream(ctx, l.query.ref.path, params)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !apperrors.IsRetryable(err) {
				l.fail(err)
				return
			}
			l.log.Warn("stream connect failed, backing off",
				logger.Fields(logger.FieldAttempt, backoff.Attempt()+1, logger.FieldError, err.Error()))
			observability.DefaultMetrics().RecordStreamReconnect(ctx, l.query.ref.Path())
			if !sleep(ctx, backoff.Next()) {
				return
			}
			continue
		}

		if stream.SSE == nil {
			stream.Close()
			l.fail(apperrors.StreamClosed(l.query.ref.Path(), nil))
			return
		}

		terminal := l.consume(ctx, stream.SSE, backoff)
		stream.Close()
		if terminal || ctx.Err() != nil {
			return
		}
		observability.DefaultMetrics().RecordStreamReconnect(ctx, l.query.ref.Path())
		if !sleep(ctx, backoff.Next()) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// consume reads one stream until it ends. It returns true when the
// listener must stop instead of reconnecting.
func (l *Listener) consume(ctx context.Context, r sse.Reader, backoff *resilience.Backoff) bool {
	for {
		ev, err := r.Next()
		if err != nil {
			if ctx.Err() != nil {
				return true
			}
			l.log.Warn("event stream ended",
				logger.Fields(logger.FieldError, apperrors.StreamClosed(l.query.ref.Path(), err).Error()))
			return false
		}

		switch ev.Event {
		case "put":
			if !l.handlePut(ctx, ev.Data) {
				return true
			}
			// A put means the subscription is healthy again.
			backoff.Reset()
		case "patch":
			if !l.handlePatch(ctx, ev.Data) {
				return true
			}
		case "keep-alive":
			// Heartbeat only.
		case "cancel":
			l.fail(apperrors.QueryCanceled(l.query.ref.Path()))
			return true
		case "auth_revoked":
			l.fail(apperrors.AuthRevoked())
			return true
		default:
			l.log.Debug("ignoring unknown stream event", logger.Fields(logger.FieldEvent, ev.Event))
		}
	}
}

// handlePut applies a put event. Returns false on a malformed payload.
func (l *Listener) handlePut(ctx context.Context, data string) bool {
	var p streamPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		l.fail(apperrors.QueryFailed(l.query.ref.Path(), err))
		return false
	}

	segs := splitStreamPath(p.Path)
	if len(segs) == 0 {
		l.applyRoot(ctx, p.Data)
		return true
	}

	key := segs[0]
	if len(segs) == 1 {
		l.applyChildPut(ctx, key, p.Data)
		return true
	}

	// Deep put inside an existing child.
	child := l.children[key]
	child = setAtPath(child, segs[1:], p.Data)
	l.applyChildPut(ctx, key, child)
	return true
}

// handlePatch applies a patch event. Returns false on a malformed payload.
func (l *Listener) handlePatch(ctx context.Context, data string) bool {
	var p streamPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		l.fail(apperrors.QueryFailed(l.query.ref.Path(), err))
		return false
	}

	fields, ok := p.Data.(map[string]any)
	if !ok {
		return true
	}

	segs := splitStreamPath(p.Path)
	if len(segs) == 0 {
		for k, v := range fields {
			l.applyChildPut(ctx, k, v)
		}
		return true
	}

	key := segs[0]
	child := l.children[key]
	for k, v := range fields {
		child = setAtPath(child, append(segs[1:], k), v)
	}
	l.applyChildPut(ctx, key, child)
	return true
}

// applyRoot replaces the whole mirrored location and emits a value event.
func (l *Listener) applyRoot(ctx context.Context, data any) {
	l.children = make(map[string]any)
	if m, ok := data.(map[string]any); ok {
		for k, v := range m {
			l.children[k] = v
		}
	}
	l.sorted = l.query.ord.sortChildren(l.children)
	l.primed = true

	l.emit(ctx, Event{
		Type:     EventValue,
		Snapshot: newSnapshot(l.query.ref.Key(), data, l.query.ord),
	})
}

// applyChildPut inserts, replaces, or removes one direct child and
// emits the corresponding child events.
func (l *Listener) applyChildPut(ctx context.Context, key string, value any) {
	old, existed := l.children[key]

	switch {
	case value == nil && !existed:
		return

	case value == nil:
		delete(l.children, key)
		l.sorted = l.query.ord.sortChildren(l.children)
		if l.primed {
			l.emit(ctx, Event{
				Type:     EventChildRemoved,
				Snapshot: newSnapshot(key, old, defaultOrder()),
			})
		}

	case !existed:
		l.children[key] = value
		l.sorted = l.query.ord.sortChildren(l.children)
		if l.primed {
			l.emit(ctx, Event{
				Type:     EventChildAdded,
				Snapshot: newSnapshot(key, value, defaultOrder()),
				PrevKey:  l.prevKey(key),
			})
		}

	default:
		oldPrev := l.prevKey(key)
		l.children[key] = value
		l.sorted = l.query.ord.sortChildren(l.children)
		newPrev := l.prevKey(key)
		if !l.primed {
			return
		}
		if newPrev != oldPrev {
			l.emit(ctx, Event{
				Type:     EventChildMoved,
				Snapshot: newSnapshot(key, value, defaultOrder()),
				PrevKey:  newPrev,
			})
		}
		l.emit(ctx, Event{
			Type:     EventChildChanged,
			Snapshot: newSnapshot(key, value, defaultOrder()),
			PrevKey:  newPrev,
		})
	}
}

// prevKey returns the key of the sibling before key in sort order.
func (l *Listener) prevKey(key string) string {
	for i, k := range l.sorted {
		if k == key {
			if i == 0 {
				return ""
			}
			return l.sorted[i-1]
		}
	}
	return ""
}

func (l *Listener) emit(ctx context.Context, ev Event) {
	select {
	case l.events <- ev:
		observability.DefaultMetrics().RecordStreamEvent(ctx, l.query.ref.Path(), string(ev.Type))
	case <-ctx.Done():
	}
}

// splitStreamPath splits an event payload path into segments. "/" maps
// to the listened location itself.
func splitStreamPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// setAtPath writes value at the given path inside root, creating
// intermediate objects as needed. A nil value deletes the leaf.
func setAtPath(root any, segs []string, value any) any {
	if len(segs) == 0 {
		return value
	}
	m, ok := root.(map[string]any)
	if !ok {
		m = make(map[string]any)
	}
	head := segs[0]
	child := setAtPath(m[head], segs[1:], value)
	if child == nil {
		delete(m, head)
	} else {
		m[head] = child
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
