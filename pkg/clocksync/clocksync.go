// Package clocksync tracks the offset between the server clock and the
// local clock.
//
// Each connection cycle performs one full sync, which yields the server's
// authoritative timestamp. The difference between the local receive time
// and that timestamp is added to every later alert timestamp, so delay
// arithmetic happens in local time even when the two clocks drift apart.
package clocksync

import (
	"sync"
	"time"
)

// Sync holds the last computed offset and the per-cycle sync flag.
type Sync struct {
	mu sync.RWMutex

	offset     time.Duration
	serverTime time.Time
	localTime  time.Time
	hasOffset  bool

	// synced is reset at the start of every connection cycle.
	synced bool
}

// New creates a Sync with a zero offset.
func New() *Sync {
	return &Sync{}
}

// Record stores a new offset computed from a server timestamp and the
// local time it was received at, and marks the current cycle as synced.
// It returns the new offset.
func (s *Sync) Record(serverTime, localReceive time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.offset = localReceive.Sub(serverTime)
	s.serverTime = serverTime
	s.localTime = localReceive
	s.hasOffset = true
	s.synced = true
	return s.offset
}

// Offset returns the current offset (local minus server).
func (s *Sync) Offset() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offset
}

// HasOffset reports whether any sync has succeeded yet.
func (s *Sync) HasOffset() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasOffset
}

// Correct converts a server timestamp into local time.
func (s *Sync) Correct(serverTime time.Time) time.Time {
	return serverTime.Add(s.Offset())
}

// LastServerTime returns the server timestamp of the last full sync.
// The zero time means no sync has happened.
func (s *Sync) LastServerTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serverTime
}

// NeedsSync reports whether the current connection cycle still lacks a
// successful full sync.
func (s *Sync) NeedsSync() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.synced
}

// ResetCycle marks the start of a new connection cycle. The offset is kept.
func (s *Sync) ResetCycle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced = false
}
