package schema

import (
	"context"

	"github.com/npcgate/npcgate/internal/bus"
)

// Channel is the interface every host/chat adapter must implement.
type Channel interface {
	// Name returns the unique channel identifier (e.g. "host").
	Name() string
	// Start begins listening for session events; it blocks until ctx is cancelled.
	Start(ctx context.Context) error
	// Send delivers an agent reply back to the platform.
	Send(ctx context.Context, reply bus.OutboundReply) error
}
