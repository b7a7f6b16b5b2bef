// Package notify surfaces alarms to the user.
//
// The session talks to a Sink; the host decides what a notification
// looks like. Ids are local alarm ids, so Cancel with the same id removes
// what Notify showed. StatusNotificationID is reserved for the link
// status and never collides with an alarm id.
package notify

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// StatusNotificationID is the id of the "disconnected" status notice.
const StatusNotificationID = -1

// Channel is the kind of notification.
type Channel uint8

const (
	// ChannelAudible rings and vibrates.
	ChannelAudible Channel = iota
	// ChannelSilent only shows.
	ChannelSilent
)

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case ChannelAudible:
		return "audible"
	case ChannelSilent:
		return "silent"
	default:
		return "unknown"
	}
}

// Sink shows and withdraws notifications. Implementations must be safe
// for concurrent use; the session calls them from timer goroutines too.
type Sink interface {
	Notify(ch Channel, id int, title, body string)
	Cancel(id int)
}

// Notification is one shown notification.
type Notification struct {
	ID      int
	Channel Channel
	Title   string
	Body    string
}

// MemorySink remembers what is currently shown.
type MemorySink struct {
	mu    sync.Mutex
	shown map[int]Notification
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{shown: make(map[int]Notification)}
}

// Notify records the notification, replacing any with the same id.
func (m *MemorySink) Notify(ch Channel, id int, title, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shown[id] = Notification{ID: id, Channel: ch, Title: title, Body: body}
}

// Cancel forgets id.
func (m *MemorySink) Cancel(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.shown, id)
}

// Get returns the notification shown under id.
func (m *MemorySink) Get(id int) (Notification, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.shown[id]
	return n, ok
}

// Shown returns the shown notifications ordered by id.
func (m *MemorySink) Shown() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, 0, len(m.shown))
	for _, n := range m.shown {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SlogSink logs notifications.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink writing to logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Notify logs at Warn for audible and Info for silent notifications.
func (s *SlogSink) Notify(ch Channel, id int, title, body string) {
	level := slog.LevelWarn
	if ch == ChannelSilent {
		level = slog.LevelInfo
	}
	s.logger.Log(context.Background(), level, "notify", "id", id, "channel", ch.String(), "title", title, "body", body)
}

// Cancel logs the withdrawal.
func (s *SlogSink) Cancel(id int) {
	s.logger.Info("cancel notification", "id", id)
}

// Multi fans out to several sinks in order.
type Multi []Sink

// Notify implements Sink.
func (m Multi) Notify(ch Channel, id int, title, body string) {
	for _, s := range m {
		s.Notify(ch, id, title, body)
	}
}

// Cancel implements Sink.
func (m Multi) Cancel(id int) {
	for _, s := range m {
		s.Cancel(id)
	}
}

var (
	_ Sink = (*MemorySink)(nil)
	_ Sink = (*SlogSink)(nil)
	_ Sink = Multi(nil)
)
