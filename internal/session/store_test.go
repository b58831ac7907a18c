package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/npcgate/npcgate/internal/schema"
)

func TestStore_AppendAndSnapshot(t *testing.T) {
	s := NewStore(5)
	key := Key{ActorID: "steve", AgentID: "blacksmith"}

	s.AppendTurn(key, schema.RoleUser, "hello")
	s.AppendTurn(key, schema.RoleAssistant, "greetings, traveler")

	snap := s.SnapshotFor(key)
	if len(snap) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(snap))
	}
	if snap[0].Role != schema.RoleUser || snap[0].Content != "hello" {
		t.Errorf("unexpected first turn: %+v", snap[0])
	}
	if snap[1].Role != schema.RoleAssistant {
		t.Errorf("unexpected second turn: %+v", snap[1])
	}
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	s := NewStore(5)
	s.AppendTurn(Key{"steve", "blacksmith"}, schema.RoleUser, "a sword please")
	s.AppendTurn(Key{"steve", "innkeeper"}, schema.RoleUser, "a room please")
	s.AppendTurn(Key{"alex", "blacksmith"}, schema.RoleUser, "a shield please")

	if s.Len() != 3 {
		t.Fatalf("expected 3 sessions, got %d", s.Len())
	}
	snap := s.SnapshotFor(Key{"steve", "blacksmith"})
	if len(snap) != 1 || snap[0].Content != "a sword please" {
		t.Errorf("cross-session leak: %v", snap)
	}
}

func TestStore_ConcurrentFirstAccessCreatesOneRecord(t *testing.T) {
	s := NewStore(5)
	key := Key{ActorID: "steve", AgentID: "guard"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.AppendTurn(key, schema.RoleUser, fmt.Sprintf("m%d", n))
		}(i)
	}
	wg.Wait()

	if s.Len() != 1 {
		t.Fatalf("expected a single record, got %d", s.Len())
	}
	if got := len(s.SnapshotFor(key)); got != 10 {
		t.Errorf("expected history capped at 10, got %d", got)
	}
}

func TestStore_Clear(t *testing.T) {
	s := NewStore(5)
	key := Key{ActorID: "steve", AgentID: "guard"}
	s.AppendTurn(key, schema.RoleUser, "hi")

	s.Clear(key)
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d", s.Len())
	}
	// Clearing an absent key is a no-op.
	s.Clear(key)

	// A fresh turn starts a new, empty history.
	s.AppendTurn(key, schema.RoleUser, "hi again")
	if got := len(s.SnapshotFor(key)); got != 1 {
		t.Errorf("expected fresh history of 1 turn, got %d", got)
	}
}

func TestStore_ClearActor(t *testing.T) {
	s := NewStore(5)
	s.AppendTurn(Key{"steve", "blacksmith"}, schema.RoleUser, "x")
	s.AppendTurn(Key{"steve", "innkeeper"}, schema.RoleUser, "y")
	s.AppendTurn(Key{"alex", "blacksmith"}, schema.RoleUser, "z")

	if removed := s.ClearActor("steve"); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 remaining session, got %d", s.Len())
	}
	if got := len(s.SnapshotFor(Key{"alex", "blacksmith"})); got != 1 {
		t.Errorf("other actor's session was disturbed: %d turns", got)
	}
}

func TestStore_SweepIdle(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name        string
		idleFor     time.Duration
		timeout     time.Duration
		wantRemoved int
	}{
		{"not yet idle", 10 * time.Minute, 30 * time.Minute, 0},
		{"exactly at timeout stays", 30 * time.Minute, 30 * time.Minute, 0},
		{"past timeout evicted", 31 * time.Minute, 30 * time.Minute, 1},
		{"zero timeout disables", time.Hour, 0, 0},
		{"negative timeout disables", time.Hour, -time.Minute, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(5)
			key := Key{ActorID: "steve", AgentID: "guard"}
			s.AppendTurn(key, schema.RoleUser, "hi")
			// Backdate the record.
			s.mu.Lock()
			s.records[key].lastTouched = now.Add(-tt.idleFor)
			s.mu.Unlock()

			if removed := s.SweepIdle(now, tt.timeout); removed != tt.wantRemoved {
				t.Errorf("SweepIdle = %d, want %d", removed, tt.wantRemoved)
			}
			if want := 1 - tt.wantRemoved; s.Len() != want {
				t.Errorf("Len = %d, want %d", s.Len(), want)
			}
		})
	}
}

func TestStore_SnapshotRefreshesIdleClock(t *testing.T) {
	s := NewStore(5)
	key := Key{ActorID: "steve", AgentID: "guard"}
	s.AppendTurn(key, schema.RoleUser, "hi")
	s.mu.Lock()
	s.records[key].lastTouched = time.Now().Add(-time.Hour)
	s.mu.Unlock()

	// Reading the history counts as activity.
	_ = s.SnapshotFor(key)

	if removed := s.SweepIdle(time.Now(), 30*time.Minute); removed != 0 {
		t.Errorf("expected snapshot to refresh last-touched, but %d evicted", removed)
	}
}

func TestStore_ConcurrentSweepAndAppend(t *testing.T) {
	s := NewStore(5)
	key := Key{ActorID: "steve", AgentID: "guard"}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.AppendTurn(key, schema.RoleUser, "ping")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.Clear(key)
		}
	}()
	wg.Wait()

	// Whatever interleaving happened, the store must still be usable.
	s.AppendTurn(key, schema.RoleUser, "still alive")
	if got := s.SnapshotFor(key); len(got) == 0 {
		t.Error("store unusable after concurrent clear/append")
	}
}
