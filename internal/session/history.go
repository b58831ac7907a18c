package session

import "github.com/npcgate/npcgate/internal/schema"

// history is a fixed-capacity ring of turns capped at 2×maxPairs.
//
// Capping by pairs keeps the request/response symmetry of a dialogue intact
// after eviction: when the cap is exceeded the oldest turns fall off the
// front, preserving recency. The ring avoids O(n) front-removal shifts on
// every append once a busy session reaches its cap.
type history struct {
	turns []schema.Turn
	head  int // index of the oldest turn
	size  int
}

// newHistory creates an empty history holding at most 2×maxPairs turns.
// maxPairs below 1 is clamped to 1.
func newHistory(maxPairs int) *history {
	if maxPairs < 1 {
		maxPairs = 1
	}
	return &history{turns: make([]schema.Turn, 2*maxPairs)}
}

// append adds t at the end, dropping the oldest turn when the ring is full.
func (h *history) append(t schema.Turn) {
	if h.size == len(h.turns) {
		h.turns[h.head] = t
		h.head = (h.head + 1) % len(h.turns)
		return
	}
	h.turns[(h.head+h.size)%len(h.turns)] = t
	h.size++
}

// snapshot returns an independent copy of the current turns in order.
// Later appends never alter a snapshot already handed out.
func (h *history) snapshot() []schema.Turn {
	out := make([]schema.Turn, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.turns[(h.head+i)%len(h.turns)]
	}
	return out
}

func (h *history) len() int { return h.size }
