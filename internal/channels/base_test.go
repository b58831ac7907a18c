package channels

import (
	"strings"
	"testing"

	"github.com/npcgate/npcgate/internal/bus"
)

func TestIsAllowed_EmptyListAllowsAll(t *testing.T) {
	b := NewBase("test", bus.NewMessageBus(1), nil)
	if !b.IsAllowed("anyone") {
		t.Error("empty allowlist should allow everyone")
	}
}

func TestIsAllowed_Allowlist(t *testing.T) {
	b := NewBase("test", bus.NewMessageBus(1), []string{"steve", "12345"})

	if !b.IsAllowed("steve") {
		t.Error("listed actor denied")
	}
	if b.IsAllowed("alex") {
		t.Error("unlisted actor allowed")
	}
	// Telegram-style "id|username" matches on either part.
	if !b.IsAllowed("12345|someuser") {
		t.Error("id part of composite actor denied")
	}
	if !b.IsAllowed("99999|steve") {
		t.Error("username part of composite actor denied")
	}
	if b.IsAllowed("99999|nobody") {
		t.Error("unlisted composite actor allowed")
	}
}

func TestPublishTurn_Allowed(t *testing.T) {
	mb := bus.NewMessageBus(1)
	b := NewBase("test", mb, nil)

	turnID := b.PublishTurn("steve", "guard", "chat-1", "hello", "be gruff", map[string]any{"k": "v"})
	if turnID == "" {
		t.Fatal("expected a turn id")
	}

	select {
	case ev := <-mb.InboundChan():
		if ev.Kind != bus.EventTurn {
			t.Errorf("unexpected kind: %q", ev.Kind)
		}
		if ev.ActorID != "steve" || ev.AgentID != "guard" || ev.Content != "hello" {
			t.Errorf("unexpected event: %+v", ev)
		}
		if ev.ChatID != "chat-1" || ev.SystemPrompt != "be gruff" {
			t.Errorf("routing fields lost: %+v", ev)
		}
		if ev.TurnID != turnID {
			t.Errorf("turn id mismatch")
		}
	default:
		t.Fatal("no event published")
	}
}

func TestPublishTurn_Denied(t *testing.T) {
	mb := bus.NewMessageBus(1)
	b := NewBase("test", mb, []string{"steve"})

	if turnID := b.PublishTurn("alex", "guard", "", "hello", "", nil); turnID != "" {
		t.Errorf("expected denied publish, got turn id %q", turnID)
	}
	select {
	case ev := <-mb.InboundChan():
		t.Fatalf("denied actor's event published: %+v", ev)
	default:
	}
}

func TestPublishLifecycleEvents(t *testing.T) {
	mb := bus.NewMessageBus(2)
	b := NewBase("test", mb, nil)

	b.PublishSessionEnd("steve", "guard")
	b.PublishActorEnd("steve")

	ev := <-mb.InboundChan()
	if ev.Kind != bus.EventSessionEnd || ev.AgentID != "guard" {
		t.Errorf("unexpected first event: %+v", ev)
	}
	ev = <-mb.InboundChan()
	if ev.Kind != bus.EventActorEnd || ev.ActorID != "steve" {
		t.Errorf("unexpected second event: %+v", ev)
	}
}

func TestSplitMessage(t *testing.T) {
	if got := splitMessage("short", 100); len(got) != 1 || got[0] != "short" {
		t.Errorf("short message split: %v", got)
	}

	long := strings.Repeat("word ", 100) // 500 chars
	chunks := splitMessage(long, 120)
	if len(chunks) < 4 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 120 {
			t.Errorf("chunk %d exceeds limit: %d chars", i, len(c))
		}
	}

	// Prefers newline breaks.
	chunks = splitMessage("line one\nline two that is much longer", 12)
	if chunks[0] != "line one" {
		t.Errorf("expected break at newline, got %q", chunks[0])
	}
}
