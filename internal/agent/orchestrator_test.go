package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/npcgate/npcgate/internal/completion"
	"github.com/npcgate/npcgate/internal/schema"
	"github.com/npcgate/npcgate/internal/session"
)

// fakeCompleter records the transcript it was handed and returns a canned
// reply or error.
type fakeCompleter struct {
	reply string
	err   error

	gotTurns  []schema.Turn
	gotPrompt string
	calls     int
}

func (f *fakeCompleter) Complete(_ context.Context, turns []schema.Turn, systemPrompt string) (string, error) {
	f.calls++
	f.gotTurns = turns
	f.gotPrompt = systemPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompleter) Model() string { return "fake" }

func TestHandleTurn_Success(t *testing.T) {
	store := session.NewStore(5)
	fake := &fakeCompleter{reply: "Well met."}
	orch := NewOrchestrator(store, fake)
	key := session.Key{ActorID: "steve", AgentID: "guard"}

	reply, err := orch.HandleTurn(context.Background(), key, "hello", "You are a guard.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Well met." {
		t.Errorf("unexpected reply: %q", reply)
	}
	if fake.calls != 1 {
		t.Errorf("expected exactly one completion call, got %d", fake.calls)
	}
	if fake.gotPrompt != "You are a guard." {
		t.Errorf("system prompt not forwarded: %q", fake.gotPrompt)
	}

	// The transcript handed to the completer includes the just-appended user turn.
	if len(fake.gotTurns) != 1 || fake.gotTurns[0].Content != "hello" {
		t.Fatalf("unexpected transcript: %v", fake.gotTurns)
	}
	if fake.gotTurns[0].Role != schema.RoleUser {
		t.Errorf("expected user role, got %q", fake.gotTurns[0].Role)
	}

	// Both turns are recorded afterwards.
	snap := store.SnapshotFor(key)
	if len(snap) != 2 {
		t.Fatalf("expected 2 recorded turns, got %d", len(snap))
	}
	if snap[1].Role != schema.RoleAssistant || snap[1].Content != "Well met." {
		t.Errorf("assistant turn not recorded: %+v", snap[1])
	}
}

func TestHandleTurn_FailureKeepsUserTurn(t *testing.T) {
	store := session.NewStore(5)
	cause := &completion.ServiceError{StatusCode: 500}
	fake := &fakeCompleter{err: cause}
	orch := NewOrchestrator(store, fake)
	key := session.Key{ActorID: "steve", AgentID: "guard"}

	_, err := orch.HandleTurn(context.Background(), key, "hello", "")
	if err == nil {
		t.Fatal("expected error")
	}

	var cErr *CompletionError
	if !errors.As(err, &cErr) {
		t.Fatalf("expected *CompletionError, got %T", err)
	}
	if cErr.Key != key {
		t.Errorf("error carries wrong key: %v", cErr.Key)
	}
	var svcErr *completion.ServiceError
	if !errors.As(err, &svcErr) {
		t.Error("typed cause not reachable through Unwrap")
	}

	snap := store.SnapshotFor(key)
	if len(snap) != 1 {
		t.Fatalf("expected the user turn to stay recorded, got %d turns", len(snap))
	}
	if snap[0].Role != schema.RoleUser {
		t.Errorf("expected user turn, got %+v", snap[0])
	}
}

func TestHandleTurn_EmptyReplyIsProtocolError(t *testing.T) {
	store := session.NewStore(5)
	orch := NewOrchestrator(store, &fakeCompleter{reply: ""})
	key := session.Key{ActorID: "steve", AgentID: "guard"}

	_, err := orch.HandleTurn(context.Background(), key, "hello", "")
	var protoErr *completion.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected *ProtocolError cause, got %v", err)
	}
	if len(store.SnapshotFor(key)) != 1 {
		t.Error("expected only the user turn recorded")
	}
}

func TestHandleTurn_RetryAfterFailureKeepsContinuity(t *testing.T) {
	store := session.NewStore(5)
	fake := &fakeCompleter{err: &completion.TransportError{Err: errors.New("refused")}}
	orch := NewOrchestrator(store, fake)
	key := session.Key{ActorID: "steve", AgentID: "guard"}

	if _, err := orch.HandleTurn(context.Background(), key, "first", ""); err == nil {
		t.Fatal("expected first turn to fail")
	}

	fake.err = nil
	fake.reply = "back online"
	if _, err := orch.HandleTurn(context.Background(), key, "second", ""); err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}

	// The failed turn's user text is still part of the transcript.
	if len(fake.gotTurns) != 2 {
		t.Fatalf("expected 2 user turns in transcript, got %d", len(fake.gotTurns))
	}
	if fake.gotTurns[0].Content != "first" || fake.gotTurns[1].Content != "second" {
		t.Errorf("unexpected transcript: %v", fake.gotTurns)
	}
}

func TestEndSession(t *testing.T) {
	store := session.NewStore(5)
	orch := NewOrchestrator(store, &fakeCompleter{reply: "ok"})
	key := session.Key{ActorID: "steve", AgentID: "guard"}

	_, _ = orch.HandleTurn(context.Background(), key, "hello", "")
	orch.EndSession(key)
	if store.Len() != 0 {
		t.Errorf("expected session cleared, store has %d", store.Len())
	}
	// Ending an absent session is a no-op.
	orch.EndSession(key)
}

func TestEndAllSessions(t *testing.T) {
	store := session.NewStore(5)
	orch := NewOrchestrator(store, &fakeCompleter{reply: "ok"})

	_, _ = orch.HandleTurn(context.Background(), session.Key{ActorID: "steve", AgentID: "guard"}, "a", "")
	_, _ = orch.HandleTurn(context.Background(), session.Key{ActorID: "steve", AgentID: "innkeeper"}, "b", "")
	_, _ = orch.HandleTurn(context.Background(), session.Key{ActorID: "alex", AgentID: "guard"}, "c", "")

	if removed := orch.EndAllSessions("steve"); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 remaining session, got %d", store.Len())
	}
}
