// Package agent contains the completion orchestrator and the event loop that
// drive conversations between channels and the completion service.
package agent

import (
	"context"
	"fmt"

	"github.com/npcgate/npcgate/internal/completion"
	"github.com/npcgate/npcgate/internal/schema"
	"github.com/npcgate/npcgate/internal/session"
)

// CompletionError is the single failure outcome of a turn: the external call
// did not produce usable reply text. The typed cause (transport, service,
// protocol, missing key) stays reachable through Unwrap for operator logging;
// end users only ever see a generic could-not-respond reply.
type CompletionError struct {
	Key session.Key
	Err error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion failed for session %s: %v", e.Key, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// Orchestrator runs one turn end to end against the store and the completion
// service. It reaches session records only through the store's API; no record
// reference survives across the external call.
type Orchestrator struct {
	store     *session.Store
	completer schema.Completer
}

func NewOrchestrator(store *session.Store, completer schema.Completer) *Orchestrator {
	return &Orchestrator{store: store, completer: completer}
}

// HandleTurn appends the user turn, snapshots the history (including that
// turn), issues exactly one completion request, and on success appends and
// returns the reply.
//
// On failure the user turn stays recorded, no assistant turn is appended, and
// the caller receives a *CompletionError; a retried attempt keeps the
// conversational continuity.
func (o *Orchestrator) HandleTurn(ctx context.Context, key session.Key, userText, systemPrompt string) (string, error) {
	o.store.AppendTurn(key, schema.RoleUser, userText)
	transcript := o.store.SnapshotFor(key)

	reply, err := o.completer.Complete(ctx, transcript, systemPrompt)
	if err != nil {
		return "", &CompletionError{Key: key, Err: err}
	}
	if reply == "" {
		return "", &CompletionError{Key: key, Err: &completion.ProtocolError{Reason: "empty reply"}}
	}

	o.store.AppendTurn(key, schema.RoleAssistant, reply)
	return reply, nil
}

// EndSession clears one session. Ending an absent session is a no-op.
func (o *Orchestrator) EndSession(key session.Key) {
	o.store.Clear(key)
}

// EndAllSessions clears every session belonging to actorID and returns how
// many were removed.
func (o *Orchestrator) EndAllSessions(actorID string) int {
	return o.store.ClearActor(actorID)
}
