package agent

import (
	"context"
	"errors"
	"log/slog"

	"github.com/npcgate/npcgate/internal/bus"
	"github.com/npcgate/npcgate/internal/completion"
	"github.com/npcgate/npcgate/internal/config"
	"github.com/npcgate/npcgate/internal/observability"
	"github.com/npcgate/npcgate/internal/session"
)

// Settings holds the loop's behavioural knobs.
type Settings struct {
	// DefaultPersonality is the system prompt of last resort.
	DefaultPersonality string
	// FallbackReply is delivered when a completion call fails.
	FallbackReply string
}

// Loop is the core processing engine.
//
// It reads session events from the bus, drives the orchestrator, and
// publishes replies. Each event is handled in its own goroutine; per-session
// ordering is the store's concern, not the loop's.
type Loop struct {
	bus      bus.Bus
	orch     *Orchestrator
	personas *config.PersonaRegistry
	settings Settings
	metrics  *observability.Metrics // may be nil
}

func NewLoop(
	b bus.Bus,
	orch *Orchestrator,
	personas *config.PersonaRegistry,
	settings Settings,
	metrics *observability.Metrics,
) *Loop {
	return &Loop{
		bus:      b,
		orch:     orch,
		personas: personas,
		settings: settings,
		metrics:  metrics,
	}
}

// Run reads from the inbound bus and processes each event in a goroutine.
// Blocks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	slog.Info("agent loop started")

	for {
		select {
		case ev := <-l.bus.InboundChan():
			go l.handleEvent(ctx, ev)
		case <-ctx.Done():
			slog.Info("agent loop stopping")
			return ctx.Err()
		}
	}
}

func (l *Loop) handleEvent(ctx context.Context, ev bus.InboundEvent) {
	switch ev.Kind {
	case bus.EventTurn:
		l.handleTurn(ctx, ev)
	case bus.EventSessionEnd:
		key := session.Key{ActorID: ev.ActorID, AgentID: ev.AgentID}
		l.orch.EndSession(key)
		slog.Info("session ended", "channel", ev.Channel, "session", key)
	case bus.EventActorEnd:
		removed := l.orch.EndAllSessions(ev.ActorID)
		slog.Info("actor sessions ended", "channel", ev.Channel, "actor", ev.ActorID, "removed", removed)
	default:
		slog.Warn("unknown event kind", "kind", ev.Kind, "channel", ev.Channel)
	}
}

func (l *Loop) handleTurn(ctx context.Context, ev bus.InboundEvent) {
	key := session.Key{ActorID: ev.ActorID, AgentID: ev.AgentID}
	prompt := l.resolvePrompt(ev)

	slog.Info("processing turn",
		"turn", ev.TurnID,
		"channel", ev.Channel,
		"session", key,
		"content", ev.Preview(),
	)

	reply, err := l.orch.HandleTurn(ctx, key, ev.Content, prompt)
	if err != nil {
		kind := failureKind(err)
		slog.Error("completion failed", "turn", ev.TurnID, "session", key, "kind", kind, "err", err)
		if l.metrics != nil {
			l.metrics.CompletionFailures.WithLabelValues(kind).Inc()
		}
		l.publish(ev, l.settings.FallbackReply, true)
		return
	}

	slog.Info("turn completed", "turn", ev.TurnID, "session", key, "length", len(reply))
	if l.metrics != nil {
		l.metrics.Turns.WithLabelValues(ev.Channel).Inc()
	}
	l.publish(ev, reply, false)
}

// resolvePrompt picks the system prompt: host override first, then the
// persona registry, then the configured default personality.
func (l *Loop) resolvePrompt(ev bus.InboundEvent) string {
	if ev.SystemPrompt != "" {
		return ev.SystemPrompt
	}
	if l.personas != nil {
		if p := l.personas.Prompt(ev.AgentID); p != "" {
			return p
		}
	}
	return l.settings.DefaultPersonality
}

func (l *Loop) publish(ev bus.InboundEvent, content string, failed bool) {
	l.bus.PublishOutbound(bus.OutboundReply{
		Channel:  ev.Channel,
		ActorID:  ev.ActorID,
		AgentID:  ev.AgentID,
		ChatID:   ev.ChatID,
		Content:  content,
		Failed:   failed,
		TurnID:   ev.TurnID,
		Metadata: ev.Metadata,
	})
}

// failureKind maps a completion failure to its observability label.
func failureKind(err error) string {
	var (
		transport *completion.TransportError
		service   *completion.ServiceError
		protocol  *completion.ProtocolError
	)
	switch {
	case errors.Is(err, completion.ErrNoAPIKey):
		return "config"
	case errors.As(err, &transport):
		return "transport"
	case errors.As(err, &service):
		return "service"
	case errors.As(err, &protocol):
		return "protocol"
	default:
		return "other"
	}
}
