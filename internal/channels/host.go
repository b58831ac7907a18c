package channels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/npcgate/npcgate/internal/bus"
	"github.com/npcgate/npcgate/internal/config"
)

// hostFrame is the wire format spoken with game hosts over the WebSocket
// bridge. The host pushes turn and lifecycle frames; the gateway pushes
// reply frames.
type hostFrame struct {
	Type         string `json:"type"` // "turn", "session_end", "actor_left", "reply"
	Actor        string `json:"actor,omitempty"`
	Agent        string `json:"agent,omitempty"`
	Text         string `json:"text,omitempty"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
	OK           *bool  `json:"ok,omitempty"`
}

// hostConn wraps a websocket connection with a write mutex, since gorilla
// connections allow only one concurrent writer.
type hostConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *hostConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// HostChannel is the WebSocket bridge game hosts connect to. Each connected
// host pushes dialogue turns for its players and receives agent replies on
// the same connection.
type HostChannel struct {
	Base
	cfg *config.HostConfig

	upgrader websocket.Upgrader
	server   *http.Server
}

func NewHostChannel(cfg *config.HostConfig, b bus.Bus) *HostChannel {
	return &HostChannel{
		Base: NewBase("host", b, nil),
		cfg:  cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

func (h *HostChannel) Name() string { return "host" }

// Start runs the WebSocket server until ctx is cancelled.
func (h *HostChannel) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)

	h.server = &http.Server{
		Addr:              h.cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("host: listening", "addr", h.cfg.ListenAddr)
		errCh <- h.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("host: serve: %w", err)
	}
}

// authorized checks the optional shared token, accepted either as a bearer
// header or a ?token= query parameter.
func (h *HostChannel) authorized(r *http.Request) bool {
	if h.cfg.AuthToken == "" {
		return true
	}
	if r.Header.Get("Authorization") == "Bearer "+h.cfg.AuthToken {
		return true
	}
	return r.URL.Query().Get("token") == h.cfg.AuthToken
}

func (h *HostChannel) handleWS(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("host: upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	slog.Info("host: connected", "remote", r.RemoteAddr)

	hc := &hostConn{conn: conn}
	defer func() {
		_ = conn.Close()
		slog.Info("host: disconnected", "remote", r.RemoteAddr)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.handleFrame(hc, data)
	}
}

func (h *HostChannel) handleFrame(hc *hostConn, data []byte) {
	var frame hostFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		slog.Warn("host: malformed frame", "err", err)
		return
	}

	switch frame.Type {
	case "turn":
		if frame.Actor == "" || frame.Agent == "" || frame.Text == "" {
			slog.Warn("host: incomplete turn frame", "actor", frame.Actor, "agent", frame.Agent)
			return
		}
		h.PublishTurn(frame.Actor, frame.Agent, "", frame.Text, frame.SystemPrompt,
			map[string]any{"conn": hc})
	case "session_end":
		if frame.Actor == "" || frame.Agent == "" {
			return
		}
		h.PublishSessionEnd(frame.Actor, frame.Agent)
	case "actor_left":
		if frame.Actor == "" {
			return
		}
		h.PublishActorEnd(frame.Actor)
	default:
		slog.Warn("host: unknown frame type", "type", frame.Type)
	}
}

// Send delivers a reply frame back over the connection the turn arrived on.
func (h *HostChannel) Send(_ context.Context, reply bus.OutboundReply) error {
	hc, ok := reply.Metadata["conn"].(*hostConn)
	if !ok {
		return fmt.Errorf("host: reply has no connection")
	}
	succeeded := !reply.Failed
	return hc.writeJSON(hostFrame{
		Type:  "reply",
		Actor: reply.ActorID,
		Agent: reply.AgentID,
		Text:  reply.Content,
		OK:    &succeeded,
	})
}
