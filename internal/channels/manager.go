package channels

import (
	"context"
	"log/slog"

	"github.com/npcgate/npcgate/internal/bus"
	"github.com/npcgate/npcgate/internal/config"
	"github.com/npcgate/npcgate/internal/schema"
)

// Manager owns all enabled channels and routes outbound replies.
type Manager struct {
	channels map[string]schema.Channel
	b        bus.Bus
}

// NewManager creates a Manager and initialises all enabled channels.
// withConsole additionally registers the interactive console channel for
// local testing.
func NewManager(cfg *config.Config, b bus.Bus, withConsole bool) *Manager {
	m := &Manager{
		channels: make(map[string]schema.Channel),
		b:        b,
	}

	if cfg.Channels.Host.Enabled {
		m.register(NewHostChannel(&cfg.Channels.Host, b))
	}
	if cfg.Channels.Telegram.Enabled {
		m.register(NewTelegramChannel(&cfg.Channels.Telegram, b))
	}
	if cfg.Channels.Slack.Enabled {
		m.register(NewSlackChannel(&cfg.Channels.Slack, b))
	}
	if withConsole {
		m.register(NewConsoleChannel(b, ""))
	}

	return m
}

func (m *Manager) register(ch schema.Channel) {
	m.channels[ch.Name()] = ch
	slog.Info("channel enabled", "name", ch.Name())
}

// EnabledChannels returns the names of all enabled channels.
func (m *Manager) EnabledChannels() []string {
	names := make([]string, 0, len(m.channels))
	for n := range m.channels {
		names = append(names, n)
	}
	return names
}

// StartAll starts all channels concurrently and dispatches outbound replies.
// Blocks until ctx is cancelled.
func (m *Manager) StartAll(ctx context.Context) error {
	go m.dispatchOutbound(ctx)

	for name, ch := range m.channels {
		go func(n string, c schema.Channel) {
			slog.Info("starting channel", "name", n)
			if err := c.Start(ctx); err != nil && ctx.Err() == nil {
				slog.Error("channel exited with error", "name", n, "err", err)
			}
		}(name, ch)
	}

	<-ctx.Done()
	return ctx.Err()
}

// dispatchOutbound reads replies from the bus and routes each one to the
// channel its turn arrived on.
func (m *Manager) dispatchOutbound(ctx context.Context) {
	for {
		select {
		case reply := <-m.b.OutboundChan():
			ch, ok := m.channels[reply.Channel]
			if !ok {
				slog.Debug("unknown channel for outbound reply", "channel", reply.Channel)
				continue
			}
			if err := ch.Send(ctx, reply); err != nil {
				slog.Error("send error", "channel", reply.Channel, "err", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
