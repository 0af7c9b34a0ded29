package audit

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrChainBroken is returned by Check when an entry's linkage or digest does
// not match its content.
var ErrChainBroken = errors.New("audit chain broken")

// Entry is one immutable record in the chain.
type Entry struct {
	Index     int
	Timestamp time.Time
	Action    string
	Args      []Value
	PrevHash  string
	Hash      string
}

// clone returns e with its own copy of Args.
func (e Entry) clone() Entry {
	if e.Args != nil {
		args := make([]Value, len(e.Args))
		for i, a := range e.Args {
			args[i] = clone(a)
		}
		e.Args = args
	}
	return e
}

// Map renders the entry with plain Go values, for output.
func (e Entry) Map() map[string]any {
	args := make([]any, len(e.Args))
	for i, a := range e.Args {
		args[i] = Native(a)
	}
	return map[string]any{
		"index":     e.Index,
		"timestamp": e.Timestamp.UnixNano(),
		"action":    e.Action,
		"args":      args,
		"prev_hash": e.PrevHash,
		"hash":      e.Hash,
	}
}

// Observer is notified after each append, outside the chain's lock. Each
// observer receives its own copy of the entry.
type Observer interface {
	Observe(Entry)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Entry)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Entry) { f(e) }

// Option configures a Chain.
type Option func(*Chain)

// WithClock sets the timestamp source. Default: SystemClock.
func WithClock(c Clock) Option {
	return func(ch *Chain) {
		ch.clock = c
	}
}

// WithObserver registers an observer. May be given more than once.
func WithObserver(o Observer) Option {
	return func(ch *Chain) {
		ch.observers = append(ch.observers, o)
	}
}

// Chain is an append-only, hash-linked log.
//
// Append is the only way entries enter the chain; there is no update or
// delete. The chain grows for the life of the process.
//
// Thread-safety: all methods are safe for concurrent use. Append order is
// the order in which callers acquire the lock.
type Chain struct {
	mu        sync.RWMutex
	entries   []Entry
	clock     Clock
	observers []Observer
}

// NewChain creates an empty chain.
func NewChain(opts ...Option) *Chain {
	c := &Chain{clock: SystemClock{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddObserver registers an observer on an existing chain.
func (c *Chain) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// Append records an action and returns a copy of the stored entry.
//
// Args are stored through Canonicalize, so strings are kept NFC normalized
// and the stored value is exactly the hashed value. A nil arg or invalid
// UTF-8 is a programming error and panics, like the Must* helpers. Use
// AppendAny for unchecked Go values.
func (c *Chain) Append(action string, args ...Value) Entry {
	stored := make([]Value, len(args))
	for i, a := range args {
		v, err := Canonicalize(a)
		if err != nil {
			panic(errors.Wrapf(err, "audit append %s arg %d", action, i))
		}
		stored[i] = v
	}

	c.mu.Lock()
	prev := GenesisHash
	if n := len(c.entries); n > 0 {
		prev = c.entries[n-1].Hash
	}

	e := Entry{
		Index:     len(c.entries),
		Timestamp: c.clock.Now(),
		Action:    action,
		Args:      stored,
		PrevHash:  prev,
	}
	h, err := EntryHash(e)
	if err != nil {
		c.mu.Unlock()
		panic(errors.Wrap(err, "audit append"))
	}
	e.Hash = h
	c.entries = append(c.entries, e)
	observers := c.observers
	c.mu.Unlock()

	for _, o := range observers {
		o.Observe(e.clone())
	}
	return e.clone()
}

// AppendAny converts each arg with ToValue and Canonicalize, then appends.
// Nothing is appended if any arg is unsupported.
func (c *Chain) AppendAny(action string, args ...any) (Entry, error) {
	vals := make([]Value, len(args))
	for i, a := range args {
		v, err := ToValue(a)
		if err == nil {
			v, err = Canonicalize(v)
		}
		if err != nil {
			return Entry{}, errors.Wrapf(err, "%s arg %d", action, i)
		}
		vals[i] = v
	}
	return c.Append(action, vals...), nil
}

// Check walks every entry in order. For each it confirms prev_hash equals
// the previous entry's stored hash (GenesisHash for index 0) and that the
// recomputed digest equals the stored hash. Returns ErrChainBroken for the
// first mismatch. O(n) in chain length.
func (c *Chain) Check() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i, e := range c.entries {
		expectedPrev := GenesisHash
		if i > 0 {
			expectedPrev = c.entries[i-1].Hash
		}
		if e.PrevHash != expectedPrev {
			return errors.Wrapf(ErrChainBroken, "entry %d: prev_hash does not link to entry %d", i, i-1)
		}
		if e.Index != i {
			return errors.Wrapf(ErrChainBroken, "entry %d: stored index %d", i, e.Index)
		}
		h, err := EntryHash(e)
		if err != nil {
			return errors.Wrapf(ErrChainBroken, "entry %d: %v", i, err)
		}
		if h != e.Hash {
			return errors.Wrapf(ErrChainBroken, "entry %d: content hash mismatch", i)
		}
	}
	return nil
}

// Verify reports whether the whole chain is internally consistent.
func (c *Chain) Verify() bool {
	return c.Check() == nil
}

// Len returns the number of entries.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Entries returns a copy of all entries in order.
func (c *Chain) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.clone()
	}
	return out
}

// Last returns the final n entries in original order.
// n <= 0 yields none; n larger than the chain yields all.
func (c *Chain) Last(n int) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n <= 0 {
		return []Entry{}
	}
	if n > len(c.entries) {
		n = len(c.entries)
	}
	out := make([]Entry, n)
	for i, e := range c.entries[len(c.entries)-n:] {
		out[i] = e.clone()
	}
	return out
}

// Head returns the last entry's hash, GenesisHash if the chain is empty.
func (c *Chain) Head() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.entries) == 0 {
		return GenesisHash
	}
	return c.entries[len(c.entries)-1].Hash
}
