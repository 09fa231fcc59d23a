package server

import (
	"sync"
	"time"
)

// EventKind discriminates sandbox messages.
type EventKind string

const (
	EventLog   EventKind = "log"
	EventError EventKind = "error"
)

// SandboxEvent is one message posted by the preview sandbox. Generation
// ties the event to the build that produced the running document so
// output from torn-down previews can be discarded.
type SandboxEvent struct {
	Kind       EventKind `json:"kind"`
	Message    string    `json:"message"`
	Line       *int      `json:"line,omitempty"`
	Generation uint64    `json:"generation"`
}

// ConsoleEntry is a received event plus its arrival time.
type ConsoleEntry struct {
	SandboxEvent
	ReceivedAt time.Time `json:"receivedAt"`
}

const consoleCapacity = 500

// Console keeps the most recent sandbox output in a bounded ring.
type Console struct {
	mu      sync.Mutex
	entries []ConsoleEntry
}

// Append records an event, evicting the oldest past capacity.
func (c *Console) Append(ev SandboxEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, ConsoleEntry{SandboxEvent: ev, ReceivedAt: time.Now()})
	if len(c.entries) > consoleCapacity {
		c.entries = c.entries[len(c.entries)-consoleCapacity:]
	}
}

// Entries returns a copy of the buffered output, oldest first.
func (c *Console) Entries() []ConsoleEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ConsoleEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Clear drops all buffered output.
func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}
