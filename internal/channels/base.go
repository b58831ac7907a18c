// Package channels provides the adapters that connect platforms to the bus:
// the game-host WebSocket bridge, the interactive console, Telegram and Slack.
package channels

import (
	"log/slog"
	"strings"

	"github.com/npcgate/npcgate/internal/bus"
)

// Base holds common state and helper methods shared by all channels.
type Base struct {
	channelName string
	b           bus.Bus
	allowFrom   []string // empty = allow all
}

// NewBase creates a Base with the given channel name, bus, and allowlist.
func NewBase(name string, b bus.Bus, allowFrom []string) Base {
	return Base{channelName: name, b: b, allowFrom: allowFrom}
}

// IsAllowed checks whether actorID is on the allowlist.
// actorID may be "id|username" (Telegram) or a plain string.
func (b *Base) IsAllowed(actorID string) bool {
	if len(b.allowFrom) == 0 {
		return true
	}
	for _, allowed := range b.allowFrom {
		if allowed == actorID {
			return true
		}
	}
	// Handle "id|username" format used by Telegram.
	if strings.Contains(actorID, "|") {
		for _, part := range strings.Split(actorID, "|") {
			if part == "" {
				continue
			}
			for _, allowed := range b.allowFrom {
				if allowed == part {
					return true
				}
			}
		}
	}
	return false
}

// PublishTurn verifies the actor is allowed, then pushes a turn event to the
// bus. Returns the correlation id of the published turn, or "" when denied.
func (b *Base) PublishTurn(actorID, agentID, chatID, content, systemPrompt string, metadata map[string]any) string {
	if !b.IsAllowed(actorID) {
		slog.Warn("access denied", "channel", b.channelName, "actor", actorID)
		return ""
	}

	ev := bus.NewTurnEvent(b.channelName, actorID, agentID, content)
	ev.ChatID = chatID
	ev.SystemPrompt = systemPrompt
	ev.Metadata = metadata
	b.b.PublishInbound(ev)
	return ev.TurnID
}

// PublishSessionEnd ends a single (actor, agent) session.
func (b *Base) PublishSessionEnd(actorID, agentID string) {
	b.b.PublishInbound(bus.NewSessionEndEvent(b.channelName, actorID, agentID))
}

// PublishActorEnd ends every session belonging to actorID.
func (b *Base) PublishActorEnd(actorID string) {
	b.b.PublishInbound(bus.NewActorEndEvent(b.channelName, actorID))
}

// splitMessage splits content into chunks that fit within maxLen,
// preferring newline breaks, then space breaks, then hard cut.
func splitMessage(content string, maxLen int) []string {
	if len(content) <= maxLen {
		return []string{content}
	}
	var chunks []string
	for len(content) > 0 {
		if len(content) <= maxLen {
			chunks = append(chunks, content)
			break
		}
		cut := content[:maxLen]
		pos := strings.LastIndex(cut, "\n")
		if pos <= 0 {
			pos = strings.LastIndex(cut, " ")
		}
		if pos <= 0 {
			pos = maxLen
		}
		chunks = append(chunks, content[:pos])
		content = strings.TrimLeft(content[pos:], " \t")
	}
	return chunks
}
