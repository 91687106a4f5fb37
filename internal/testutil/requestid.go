package testutil

import (
	"fmt"
	"sync"
)

// FixedRequestIDs returns predetermined request ids in order, then
// "req-N" once the list is exhausted.
//
// This keeps X-Request-ID headers deterministic in transport tests.
//
// Thread-safety: FixedRequestIDs is safe for concurrent use via internal mutex.
type FixedRequestIDs struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedRequestIDs creates a generator that returns ids in order.
//
// Example:
//
//	gen := NewFixedRequestIDs("a", "b")
//	gen.Generate() // "a"
//	gen.Generate() // "b"
//	gen.Generate() // "req-3"
func NewFixedRequestIDs(ids ...string) *FixedRequestIDs {
	return &FixedRequestIDs{ids: ids}
}

// Generate returns the next id.
func (g *FixedRequestIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.idx++
	if g.idx <= len(g.ids) {
		return g.ids[g.idx-1]
	}
	return fmt.Sprintf("req-%d", g.idx)
}
