// Package bus defines the event types that flow between channels and the
// agent core.
package bus

import (
	"time"

	"github.com/google/uuid"
)

// EventKind discriminates inbound events.
type EventKind string

const (
	// EventTurn carries one user utterance for an (actor, agent) session.
	EventTurn EventKind = "turn"
	// EventSessionEnd ends a single (actor, agent) session.
	EventSessionEnd EventKind = "session_end"
	// EventActorEnd ends every session belonging to one actor, e.g. when a
	// player disconnects from the host.
	EventActorEnd EventKind = "actor_end"
)

// InboundEvent is a session event received from a channel.
type InboundEvent struct {
	Kind    EventKind
	Channel string // originating channel name ("host", "telegram", ...)

	ActorID string // who is speaking (player, platform user)
	AgentID string // which agent persona they are speaking to

	Content      string // turn text; empty for lifecycle events
	SystemPrompt string // optional per-turn prompt override from the host

	TurnID    string // correlation id for logging, set on turn events
	ChatID    string // channel-specific reply routing (chat id, slack channel)
	Timestamp time.Time

	Metadata map[string]any // channel-specific extras (message_id, conn, ...)
}

// NewTurnEvent creates a turn event with a fresh correlation id.
func NewTurnEvent(channel, actorID, agentID, content string) InboundEvent {
	return InboundEvent{
		Kind:      EventTurn,
		Channel:   channel,
		ActorID:   actorID,
		AgentID:   agentID,
		Content:   content,
		TurnID:    uuid.NewString(),
		Timestamp: time.Now(),
	}
}

// NewSessionEndEvent creates an event that ends one session.
func NewSessionEndEvent(channel, actorID, agentID string) InboundEvent {
	return InboundEvent{
		Kind:      EventSessionEnd,
		Channel:   channel,
		ActorID:   actorID,
		AgentID:   agentID,
		Timestamp: time.Now(),
	}
}

// NewActorEndEvent creates an event that ends all of an actor's sessions.
func NewActorEndEvent(channel, actorID string) InboundEvent {
	return InboundEvent{
		Kind:      EventActorEnd,
		Channel:   channel,
		ActorID:   actorID,
		Timestamp: time.Now(),
	}
}

// Preview returns a short snippet of the turn content for logging.
func (e InboundEvent) Preview() string {
	preview := e.Content
	if len(preview) > 80 {
		preview = preview[:80] + "..."
	}
	return preview
}

// OutboundReply is a response to be delivered back through a channel.
type OutboundReply struct {
	Channel string
	ActorID string
	AgentID string
	ChatID  string

	Content string
	// Failed marks a generic could-not-respond reply; the underlying cause
	// is logged by the agent loop, never sent to the end user.
	Failed bool

	TurnID   string
	Metadata map[string]any
}
