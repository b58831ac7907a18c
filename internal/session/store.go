// Package session implements the in-memory conversation store: a concurrent
// map from (actor, agent) keys to bounded, recency-tracked turn histories.
//
// Histories never touch disk; process shutdown discards all records.
package session

import (
	"sync"
	"time"

	"github.com/npcgate/npcgate/internal/schema"
)

// Key identifies one conversation: who is talking to which agent.
type Key struct {
	ActorID string
	AgentID string
}

func (k Key) String() string { return k.ActorID + ":" + k.AgentID }

// record pairs a bounded history with its last-touched timestamp.
// Guarded by its own mutex so store map access never waits on a busy record.
type record struct {
	mu          sync.Mutex
	history     *history
	lastTouched time.Time
	evicted     bool // set when removed from the map; stale holders must retry
}

// Store owns all session records. At most one record exists per key; creation
// is atomic with respect to concurrent first-access races.
type Store struct {
	mu       sync.Mutex
	records  map[Key]*record
	maxPairs int
}

// NewStore creates a Store whose histories hold at most 2×historyPairs turns.
func NewStore(historyPairs int) *Store {
	if historyPairs < 1 {
		historyPairs = 1
	}
	return &Store{
		records:  make(map[Key]*record),
		maxPairs: historyPairs,
	}
}

// getOrCreate returns the record for key, inserting a fresh one if absent.
func (s *Store) getOrCreate(key Key) *record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		rec = &record{
			history:     newHistory(s.maxPairs),
			lastTouched: time.Now(),
		}
		s.records[key] = rec
	}
	return rec
}

// withRecord runs fn with the key's record locked. If the record was evicted
// between lookup and lock (a concurrent sweep or clear), the lookup retries
// so the mutation lands on a live record.
func (s *Store) withRecord(key Key, fn func(*record)) {
	for {
		rec := s.getOrCreate(key)
		rec.mu.Lock()
		if rec.evicted {
			rec.mu.Unlock()
			continue
		}
		fn(rec)
		rec.mu.Unlock()
		return
	}
}

// AppendTurn resolves (or creates) the record for key, appends one turn, and
// refreshes the last-touched timestamp.
func (s *Store) AppendTurn(key Key, role schema.Role, content string) {
	s.withRecord(key, func(rec *record) {
		rec.history.append(schema.Turn{Role: role, Content: content})
		rec.lastTouched = time.Now()
	})
}

// SnapshotFor resolves (or creates) the record for key, refreshes its
// last-touched timestamp, and returns an independent copy of the history.
func (s *Store) SnapshotFor(key Key) []schema.Turn {
	var snap []schema.Turn
	s.withRecord(key, func(rec *record) {
		rec.lastTouched = time.Now()
		snap = rec.history.snapshot()
	})
	return snap
}

// Clear removes the record for key if present. Clearing an absent key is not
// an error.
func (s *Store) Clear(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(key)
}

// ClearActor removes every record whose key belongs to actorID and returns
// how many were removed.
func (s *Store) ClearActor(actorID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int
	for key := range s.records {
		if key.ActorID == actorID {
			s.evictLocked(key)
			removed++
		}
	}
	return removed
}

// SweepIdle removes every record whose last-touched timestamp is older than
// now−idleTimeout and returns how many were removed. A non-positive timeout
// disables idle eviction and sweeps nothing.
func (s *Store) SweepIdle(now time.Time, idleTimeout time.Duration) int {
	if idleTimeout <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int
	for key, rec := range s.records {
		rec.mu.Lock()
		idle := now.Sub(rec.lastTouched) > idleTimeout
		rec.mu.Unlock()
		if idle {
			s.evictLocked(key)
			removed++
		}
	}
	return removed
}

// Len returns the number of live session records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// evictLocked deletes key from the map and marks its record dead so that a
// concurrent withRecord retries instead of mutating an orphan.
// Caller must hold s.mu.
func (s *Store) evictLocked(key Key) {
	rec, ok := s.records[key]
	if !ok {
		return
	}
	delete(s.records, key)
	rec.mu.Lock()
	rec.evicted = true
	rec.mu.Unlock()
}
