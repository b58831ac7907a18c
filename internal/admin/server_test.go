package admin

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/npcgate/npcgate/internal/config"
	"github.com/npcgate/npcgate/internal/observability"
	"github.com/npcgate/npcgate/internal/schema"
	"github.com/npcgate/npcgate/internal/session"
)

func newTestServer(t *testing.T) (*Server, *session.Store) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Claude.APIKey = "sk-test"
	store := session.NewStore(cfg.NPC.HistoryPairs)
	metrics := observability.NewMetrics("npcgate_test", nil)
	return NewServer(&cfg, store, metrics), store
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.router())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestStatus(t *testing.T) {
	srv, store := newTestServer(t)
	store.AppendTurn(session.Key{ActorID: "steve", AgentID: "guard"}, schema.RoleUser, "hi")
	store.AppendTurn(session.Key{ActorID: "alex", AgentID: "guard"}, schema.RoleUser, "hi")

	ts := httptest.NewServer(srv.router())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/status")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.Model != "claude-3-5-haiku-20241022" {
		t.Errorf("unexpected model: %q", st.Model)
	}
	if st.HistoryPairs != 5 || st.IdleTimeoutMinutes != 30 {
		t.Errorf("unexpected limits: %+v", st)
	}
	if st.ActiveSessions != 2 {
		t.Errorf("expected 2 active sessions, got %d", st.ActiveSessions)
	}
	if !st.APIKeyConfigured {
		t.Error("expected apiKeyConfigured true")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.router())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
