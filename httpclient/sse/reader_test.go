package sse

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func newTestReader(s string) Reader {
	return NewReader(io.NopCloser(strings.NewReader(s)))
}

func TestNextSingleEvent(t *testing.T) {
	r := newTestReader("event: put\ndata: {\"path\":\"/\",\"data\":null}\n\n")

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.Event != "put" {
		t.Errorf("expected event 'put', got %q", ev.Event)
	}
	if ev.Data != `{"path":"/","data":null}` {
		t.Errorf("unexpected data: %q", ev.Data)
	}

	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestNextMultipleEvents(t *testing.T) {
	stream := "event: put\ndata: one\n\nevent: patch\ndata: two\n\n"
	r := newTestReader(stream)

	first, err := r.Next()
	if err != nil || first.Event != "put" || first.Data != "one" {
		t.Fatalf("unexpected first event: %+v, %v", first, err)
	}

	second, err := r.Next()
	if err != nil || second.Event != "patch" || second.Data != "two" {
		t.Fatalf("unexpected second event: %+v, %v", second, err)
	}
}

func TestNextMultilineData(t *testing.T) {
	r := newTestReader("data: line1\ndata: line2\n\n")

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.Data != "line1\nline2" {
		t.Errorf("expected joined data, got %q", ev.Data)
	}
}

func TestNextSkipsComments(t *testing.T) {
	r := newTestReader(": keep-alive comment\nevent: keep-alive\ndata: null\n\n")

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.Event != "keep-alive" || ev.Data != "null" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestNextTrailingEventWithoutBlankLine(t *testing.T) {
	r := newTestReader("event: put\ndata: tail")

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.Data != "tail" {
		t.Errorf("expected trailing event, got %+v", ev)
	}
}

func TestNextNoSpaceAfterColon(t *testing.T) {
	r := newTestReader("data:compact\n\n")

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.Data != "compact" {
		t.Errorf("expected 'compact', got %q", ev.Data)
	}
}

func TestNextEventID(t *testing.T) {
	r := newTestReader("id: 42\ndata: x\n\n")

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.ID != "42" {
		t.Errorf("expected id 42, got %q", ev.ID)
	}
}
