package audit

import "time"

// Clock stamps entries. Timestamps are recorded, not used for ordering:
// order is the entry index.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }
