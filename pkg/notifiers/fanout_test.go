package notifiers

import (
	"context"
	"errors"
	"testing"
)

type stubNotifier struct {
	id     string
	typ    string
	err    error
	calls  int
	closed bool
}

func (s *stubNotifier) ID() string   { return s.id }
func (s *stubNotifier) Type() string { return s.typ }
func (s *stubNotifier) Notify(context.Context, Event) error {
	s.calls++
	return s.err
}

type closingNotifier struct {
	stubNotifier
}

func (c *closingNotifier) Close() error {
	c.closed = true
	return nil
}

func TestFanoutNotifyAggregatesErrors(t *testing.T) {
	ok := &stubNotifier{id: "ok", typ: "http"}
	bad := &stubNotifier{id: "bad", typ: "http", err: errors.New("failed")}
	fanout := NewFanout([]Notifier{ok, nil, bad})

	if fanout.Size() != 2 {
		t.Fatalf("expected nil notifiers to be dropped, size=%d", fanout.Size())
	}

	count, err := fanout.Notify(context.Background(), Event{})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	if ok.calls != 1 || bad.calls != 1 {
		t.Fatalf("expected every notifier to be called once")
	}
}

func TestFanoutCloseReleasesClosers(t *testing.T) {
	c := &closingNotifier{stubNotifier{id: "ps", typ: TypePubSub}}
	fanout := NewFanout([]Notifier{&stubNotifier{id: "h", typ: TypeHTTP}, c})

	if err := fanout.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !c.closed {
		t.Fatalf("expected closer notifier to be closed")
	}
}

func TestNilFanoutIsInert(t *testing.T) {
	var f *Fanout
	if n, err := f.Notify(context.Background(), Event{}); n != 0 || err != nil {
		t.Fatalf("nil fanout Notify = %d, %v", n, err)
	}
	if f.Size() != 0 || f.Close() != nil {
		t.Fatalf("nil fanout should be empty")
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	ns, err := BuildAll(context.Background(), reg, []NotifierConfig{
		{ID: "hook", Type: TypeHTTP, HTTP: &HTTPConfig{URL: "https://example.com", TimeoutSeconds: 1}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(ns) != 1 || ns[0].ID() != "hook" || ns[0].Type() != TypeHTTP {
		t.Fatalf("unexpected notifiers %#v", ns)
	}
}

func TestBuildAllRejectsUnknownType(t *testing.T) {
	_, err := BuildAll(context.Background(), DefaultRegistry(), []NotifierConfig{
		{ID: "x", Type: "carrier-pigeon"},
	}, nil)
	if err == nil {
		t.Fatalf("expected error for unknown notifier type")
	}
}
