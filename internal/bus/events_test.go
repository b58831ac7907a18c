package bus

import (
	"strings"
	"testing"
)

func TestNewTurnEvent(t *testing.T) {
	ev := NewTurnEvent("host", "steve", "guard", "hello")
	if ev.Kind != EventTurn {
		t.Errorf("unexpected kind: %q", ev.Kind)
	}
	if ev.TurnID == "" {
		t.Error("expected a correlation id")
	}
	if ev.Timestamp.IsZero() {
		t.Error("expected a timestamp")
	}

	other := NewTurnEvent("host", "steve", "guard", "hello")
	if other.TurnID == ev.TurnID {
		t.Error("correlation ids must be unique per turn")
	}
}

func TestPreview_TruncatesLongContent(t *testing.T) {
	ev := NewTurnEvent("host", "steve", "guard", strings.Repeat("x", 200))
	p := ev.Preview()
	if len(p) != 83 || !strings.HasSuffix(p, "...") {
		t.Errorf("unexpected preview: %q (len %d)", p, len(p))
	}

	short := NewTurnEvent("host", "steve", "guard", "hi")
	if short.Preview() != "hi" {
		t.Errorf("short content altered: %q", short.Preview())
	}
}

func TestMessageBus_RoundTrip(t *testing.T) {
	b := NewMessageBus(1)

	b.PublishInbound(NewSessionEndEvent("host", "steve", "guard"))
	ev := <-b.InboundChan()
	if ev.Kind != EventSessionEnd {
		t.Errorf("unexpected kind: %q", ev.Kind)
	}

	b.PublishOutbound(OutboundReply{Channel: "host", Content: "hi"})
	reply := <-b.OutboundChan()
	if reply.Channel != "host" || reply.Content != "hi" {
		t.Errorf("unexpected reply: %+v", reply)
	}
}
