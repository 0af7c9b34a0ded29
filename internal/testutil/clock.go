package testutil

import (
	"sync"
	"time"
)

// Epoch is the first timestamp a StepClock returns.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// StepClock provides deterministic, strictly increasing timestamps for tests.
//
// Each call to Now() returns the previous value plus Step. Two chains driven
// by fresh StepClocks through the same operations produce byte-identical
// hashes. Reset rewinds to Epoch for test reuse.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu    sync.Mutex
	step  time.Duration
	calls int64
}

// NewStepClock creates a clock advancing one millisecond per call.
//
// The first call to Now() returns Epoch.
func NewStepClock() *StepClock {
	return &StepClock{step: time.Millisecond}
}

// Now returns Epoch + calls*step and advances.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := Epoch.Add(time.Duration(c.calls) * c.step)
	c.calls++
	return t
}

// Calls returns how many timestamps have been handed out.
func (c *StepClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Reset rewinds the clock. After Reset(), the next call to Now() returns Epoch.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = 0
}
