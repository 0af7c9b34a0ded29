// Package alloc hands out instance numbers to collaborators that build nodes.
//
// An Allocator is passed to each producer explicitly so tests can construct a
// fresh one, or Reset a shared one, and get deterministic coordinates.
package alloc

import (
	"sync"

	"github.com/roach88/axiom/internal/coord"
)

type prefix struct {
	major, typ, subtype int
}

// Allocator returns the next unused instance for a (major, type, subtype)
// prefix, starting at 1 and incrementing per call.
//
// It only counts its own calls. It does not look at any Space, so two
// allocators (or an allocator and hand-built nodes) can collide; the Space
// rejects the duplicate on Add.
//
// Thread-safety: all methods are safe for concurrent use.
type Allocator struct {
	mu       sync.Mutex
	counters map[prefix]int
}

// New creates an Allocator with all counters at zero.
func New() *Allocator {
	return &Allocator{counters: make(map[prefix]int)}
}

// Next allocates a coordinate under the given prefix.
// Returns coord.ErrRange if a prefix field is out of range or the instance
// space for the prefix is exhausted. A failed call does not consume an instance.
func (a *Allocator) Next(major, typ, subtype int) (coord.Coordinate, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := prefix{major, typ, subtype}
	id, err := coord.New(major, typ, subtype, a.counters[key]+1)
	if err != nil {
		return coord.Coordinate{}, err
	}
	a.counters[key]++
	return id, nil
}

// Current returns the last instance handed out for the prefix, 0 if none.
func (a *Allocator) Current(major, typ, subtype int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counters[prefix{major, typ, subtype}]
}

// Reset sets every counter back to zero.
func (a *Allocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters = make(map[prefix]int)
}
