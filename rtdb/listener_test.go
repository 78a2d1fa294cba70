package rtdb

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/kbukum/firekit/errors"
)

// sseHandler serves a fixed sequence of stream events and then blocks
// until the client goes away.
func sseHandler(t *testing.T, events []string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		for _, ev := range events {
			fmt.Fprint(w, ev)
			flusher.Flush()
		}
		<-r.Context().Done()
	}
}

func streamEvent(name, data string) string {
	return fmt.Sprintf("event: %s\ndata: %s\n\n", name, data)
}

func collectEvents(t *testing.T, l *Listener, n int) []Event {
	t.Helper()
	out := make([]Event, 0, n)
	timeout := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case ev, ok := <-l.Events():
			if !ok {
				t.Fatalf("stream closed after %d events (want %d): err=%v", len(out), n, l.Err())
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("timed out after %d events (want %d)", len(out), n)
		}
	}
	return out
}

func TestListenerInitialSnapshotIsValueEvent(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t, []string{
		streamEvent("put", `{"path":"/","data":{"a":{"ts":1},"b":{"ts":2}}}`),
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := c.Ref("messages").OrderByChild("ts").Listen(ctx)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	evs := collectEvents(t, l, 1)
	if evs[0].Type != EventValue {
		t.Fatalf("first event = %s, want value", evs[0].Type)
	}
	keys := evs[0].Snapshot.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("value snapshot keys = %v", keys)
	}
}

func TestListenerChildLifecycle(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t, []string{
		streamEvent("put", `{"path":"/","data":{"a":{"ts":1},"b":{"ts":2}}}`),
		streamEvent("keep-alive", "null"),
		streamEvent("put", `{"path":"/c","data":{"ts":3}}`),
		streamEvent("patch", `{"path":"/a","data":{"ts":9}}`),
		streamEvent("put", `{"path":"/b","data":null}`),
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := c.Ref("messages").OrderByChild("ts").Listen(ctx)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	evs := collectEvents(t, l, 5)

	// Initial snapshot.
	if evs[0].Type != EventValue {
		t.Fatalf("event 0 = %s, want value", evs[0].Type)
	}

	// New child c lands after b.
	if evs[1].Type != EventChildAdded || evs[1].Snapshot.Key() != "c" || evs[1].PrevKey != "b" {
		t.Fatalf("event 1 = %+v, want child_added c after b", evs[1])
	}

	// Patch bumps a's sort value past c: moved then changed.
	if evs[2].Type != EventChildMoved || evs[2].Snapshot.Key() != "a" || evs[2].PrevKey != "c" {
		t.Fatalf("event 2 = %+v, want child_moved a after c", evs[2])
	}
	if evs[3].Type != EventChildChanged || evs[3].Snapshot.Key() != "a" {
		t.Fatalf("event 3 = %+v, want child_changed a", evs[3])
	}
	if ts := evs[3].Snapshot.Child("ts").Value(); ts != float64(9) {
		t.Fatalf("changed child ts = %v, want 9", ts)
	}

	// Null put removes b.
	if evs[4].Type != EventChildRemoved || evs[4].Snapshot.Key() != "b" {
		t.Fatalf("event 4 = %+v, want child_removed b", evs[4])
	}
}

func TestListenerPatchMergePreservesOtherFields(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t, []string{
		streamEvent("put", `{"path":"/","data":{"a":{"ts":1,"text":"hi"}}}`),
		streamEvent("patch", `{"path":"/a","data":{"ts":2}}`),
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := c.Ref("messages").OrderByChild("ts").Listen(ctx)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	evs := collectEvents(t, l, 2)
	changed := evs[1]
	if changed.Type != EventChildChanged {
		t.Fatalf("event = %s, want child_changed", changed.Type)
	}
	if text := changed.Snapshot.Child("text").Value(); text != "hi" {
		t.Fatalf("patch must merge, text = %v", text)
	}
	if ts := changed.Snapshot.Child("ts").Value(); ts != float64(2) {
		t.Fatalf("patched ts = %v", ts)
	}
}

func TestListenerCancelEventStops(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t, []string{
		streamEvent("put", `{"path":"/","data":null}`),
		streamEvent("cancel", "null"),
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	l, err := c.Ref("messages").Query().Listen(context.Background())
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	for range l.Events() {
	}
	if appErr := apperrors.AsAppError(l.Err()); appErr.Code != apperrors.ErrCodeQueryCanceled {
		t.Fatalf("Err = %v, want QUERY_CANCELED", l.Err())
	}
}

func TestListenerAuthRevokedStops(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t, []string{
		streamEvent("auth_revoked", `"token expired"`),
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	l, err := c.Ref("messages").Query().Listen(context.Background())
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	for range l.Events() {
	}
	if appErr := apperrors.AsAppError(l.Err()); appErr.Code != apperrors.ErrCodeAuthRevoked {
		t.Fatalf("Err = %v, want AUTH_REVOKED", l.Err())
	}
}

func TestListenerReconnectEmitsFreshValue(t *testing.T) {
	conns := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conns++
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		if conns == 1 {
			// First connection drops after the initial snapshot.
			fmt.Fprint(w, streamEvent("put", `{"path":"/","data":{"a":{"ts":1}}}`))
			flusher.Flush()
			return
		}
		fmt.Fprint(w, streamEvent("put", `{"path":"/","data":{"a":{"ts":1},"b":{"ts":2}}}`))
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL, StreamBackoffMin: 10 * time.Millisecond, StreamBackoffMax: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := c.Ref("messages").OrderByChild("ts").Listen(ctx)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	evs := collectEvents(t, l, 2)
	if evs[0].Type != EventValue || evs[1].Type != EventValue {
		t.Fatalf("expected two value events across reconnect, got %s then %s", evs[0].Type, evs[1].Type)
	}
	if evs[1].Snapshot.NumChildren() != 2 {
		t.Fatalf("post-reconnect snapshot children = %d, want 2", evs[1].Snapshot.NumChildren())
	}
}
