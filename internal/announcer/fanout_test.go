package announcer

import (
	"context"
	"errors"
	"testing"
)

type stubSink struct {
	id    string
	typ   string
	err   error
	calls int
}

func (s *stubSink) ID() string   { return s.id }
func (s *stubSink) Type() string { return s.typ }
func (s *stubSink) Send(context.Context, Announcement) error {
	s.calls++
	return s.err
}

func TestFanoutAggregatesErrorsAndCountsDeliveries(t *testing.T) {
	ok := &stubSink{id: "ok", typ: "http"}
	bad := &stubSink{id: "bad", typ: "http", err: errors.New("failed")}
	fanout := NewFanout([]Sink{ok, bad})

	res, err := fanout.AnnounceContent(context.Background(), Announcement{ContentID: "c1"})
	if res.Delivered != 1 {
		t.Fatalf("Delivered = %d, want 1", res.Delivered)
	}
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	if ok.calls != 1 || bad.calls != 1 {
		t.Fatalf("every sink must be attempted, got ok=%d bad=%d", ok.calls, bad.calls)
	}
}

func TestFanoutRejectsEmptySinkList(t *testing.T) {
	fanout := NewFanout(nil)
	if _, err := fanout.AnnounceContent(context.Background(), Announcement{}); err == nil {
		t.Fatalf("expected error when no sinks configured")
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	sinks, err := BuildAll(context.Background(), reg, []SinkConfig{
		{ID: "hook", Type: TypeHTTP, HTTP: &HTTPSinkConfig{URL: "https://example.com"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(sinks) != 1 {
		t.Fatalf("expected 1 sink, got %d", len(sinks))
	}
}
