package applog

import (
	"sync"
	"time"
)

// DefaultCapacity is the number of lines kept before the oldest are
// dropped.
const DefaultCapacity = 100

// TimeLayout formats the line prefix.
const TimeLayout = "2006-01-02 15:04:05"

// FormatLine renders one buffered line.
func FormatLine(t time.Time, msg string) string {
	return t.Format(TimeLayout) + ": " + msg
}

// Buffer is a bounded, concurrency-safe FIFO of log lines.
type Buffer struct {
	mu       sync.Mutex
	lines    []string
	capacity int
	dropped  int
}

// NewBuffer creates a buffer holding at most capacity lines.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{capacity: capacity}
}

// Add appends a line, dropping the oldest when full.
func (b *Buffer) Add(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.lines) >= b.capacity {
		n := len(b.lines) - b.capacity + 1
		b.lines = append(b.lines[:0], b.lines[n:]...)
		b.dropped += n
	}
	b.lines = append(b.lines, line)
}

// Addf prefixes msg with t and appends it.
func (b *Buffer) Addf(t time.Time, msg string) {
	b.Add(FormatLine(t, msg))
}

// Drain returns all buffered lines in order and empties the buffer.
// It returns nil when the buffer is empty.
func (b *Buffer) Drain() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.lines) == 0 {
		return nil
	}
	out := b.lines
	b.lines = nil
	return out
}

// Len returns the number of buffered lines.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// Dropped returns how many lines were discarded for lack of room.
func (b *Buffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
