// Package admin exposes the operator HTTP surface: health, status and
// Prometheus metrics.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/npcgate/npcgate/internal/config"
	"github.com/npcgate/npcgate/internal/observability"
	"github.com/npcgate/npcgate/internal/session"
)

// Status is the JSON payload of GET /status.
type Status struct {
	Model              string `json:"model"`
	HistoryPairs       int    `json:"historyPairs"`
	IdleTimeoutMinutes int    `json:"idleTimeoutMinutes"`
	ActiveSessions     int    `json:"activeSessions"`
	APIKeyConfigured   bool   `json:"apiKeyConfigured"`
}

// Server is the admin HTTP server.
type Server struct {
	cfg     *config.Config
	store   *session.Store
	metrics *observability.Metrics
	http    *http.Server
}

func NewServer(cfg *config.Config, store *session.Store, metrics *observability.Metrics) *Server {
	return &Server{cfg: cfg, store: store, metrics: metrics}
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/status", s.handleStatus)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	st := Status{
		Model:              s.cfg.Claude.Model,
		HistoryPairs:       s.cfg.NPC.HistoryPairs,
		IdleTimeoutMinutes: s.cfg.NPC.IdleTimeoutMinutes,
		ActiveSessions:     s.store.Len(),
		APIKeyConfigured:   s.cfg.Claude.APIKey != "",
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

// Start serves until ctx is cancelled. A blank listen address disables the
// server entirely.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.Admin.ListenAddr == "" {
		slog.Info("admin server disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	s.http = &http.Server{
		Addr:              s.cfg.Admin.ListenAddr,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("admin: listening", "addr", s.cfg.Admin.ListenAddr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.http.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("admin: serve: %w", err)
	}
}
