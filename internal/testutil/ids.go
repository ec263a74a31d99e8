package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates UUID-shaped session IDs in sequence:
// 00000000-0000-0000-0000-000000000001, ...02, and so on.
//
// The same test run with a fresh SequentialIDs produces byte-identical
// output, which keeps golden files stable.
type SequentialIDs struct {
	mu sync.Mutex
	n  uint64
}

// NewSequentialIDs creates a generator whose first ID ends in 1.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// Next returns the next ID. Safe for concurrent use.
func (g *SequentialIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("00000000-0000-0000-0000-%012x", g.n)
}

// FixedID returns a generator that always yields id, or
// "test-session-default" when id is empty.
func FixedID(id string) func() string {
	if id == "" {
		id = "test-session-default"
	}
	return func() string { return id }
}
