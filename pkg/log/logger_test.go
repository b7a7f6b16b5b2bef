package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type recordingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingLogger) Log(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func TestNoopLogger(t *testing.T) {
	var logger NoopLogger
	logger.Log(Event{})
	logger.Log(Event{Alert: &AlertEvent{}, Error: &ErrorEventData{}})
}

func TestMultiLogger(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	multi := NewMultiLogger(a, nil, b)

	multi.Log(Event{ConnectionID: "conn-1"})

	for i, r := range []*recordingLogger{a, b} {
		if len(r.events) != 1 || r.events[0].ConnectionID != "conn-1" {
			t.Errorf("logger %d got %v", i, r.events)
		}
	}

	NewMultiLogger().Log(Event{})
}

func TestSlogAdapter(t *testing.T) {
	decode := func(t *testing.T, buf *bytes.Buffer) map[string]any {
		t.Helper()
		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
		}
		return entry
	}
	newAdapter := func(buf *bytes.Buffer) *SlogAdapter {
		h := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
		return NewSlogAdapter(slog.New(h))
	}

	t.Run("Datagram", func(t *testing.T) {
		var buf bytes.Buffer
		newAdapter(&buf).Log(Event{
			Timestamp:    time.Now(),
			ConnectionID: "conn-123",
			Direction:    DirectionOut,
			Category:     CategoryDatagram,
			Datagram:     NewDatagramEvent([]byte(`{"Ack":3}`)),
		})

		entry := decode(t, &buf)
		if entry["conn_id"] != "conn-123" {
			t.Errorf("conn_id = %v", entry["conn_id"])
		}
		if entry["direction"] != "OUT" {
			t.Errorf("direction = %v", entry["direction"])
		}
		if entry["data"] != `{"Ack":3}` {
			t.Errorf("data = %v", entry["data"])
		}
	})

	t.Run("Alert", func(t *testing.T) {
		var buf bytes.Buffer
		newAdapter(&buf).Log(Event{
			Category: CategoryAlert,
			Alert:    &AlertEvent{Action: AlertDropped, LocalID: 1000000, ServerID: "door-a"},
		})

		entry := decode(t, &buf)
		if entry["action"] != "DROPPED" {
			t.Errorf("action = %v", entry["action"])
		}
		if entry["server_id"] != "door-a" {
			t.Errorf("server_id = %v", entry["server_id"])
		}
	})

	t.Run("State", func(t *testing.T) {
		var buf bytes.Buffer
		newAdapter(&buf).Log(Event{
			Category:    CategoryState,
			StateChange: &StateChangeEvent{Entity: StateEntityWatchdog, NewState: "STALE", Reason: "silent 91s"},
		})

		entry := decode(t, &buf)
		if entry["entity"] != "WATCHDOG" || entry["reason"] != "silent 91s" {
			t.Errorf("entry = %v", entry)
		}
	})
}
