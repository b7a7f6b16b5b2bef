package log

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func createTestLogFile(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.plog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}

func readAll(t *testing.T, r *Reader) []Event {
	t.Helper()
	var out []Event
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		out = append(out, ev)
	}
}

func TestFileLoggerAppends(t *testing.T) {
	path := createTestLogFile(t, []Event{{ConnectionID: "a"}})

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	logger.Log(Event{ConnectionID: "b"})
	if logger.Written() != 1 {
		t.Errorf("Written() = %d, want 1", logger.Written())
	}
	logger.Close()

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	events := readAll(t, r)
	if len(events) != 2 || events[0].ConnectionID != "a" || events[1].ConnectionID != "b" {
		t.Errorf("events = %+v", events)
	}
}

func TestFileLoggerClose(t *testing.T) {
	logger, err := NewFileLogger(filepath.Join(t.TempDir(), "c.plog"))
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	// Ignored after close.
	logger.Log(Event{})
	if logger.Written() != 0 {
		t.Errorf("Written() = %d after close, want 0", logger.Written())
	}
}

func TestFileLoggerBadPath(t *testing.T) {
	if _, err := NewFileLogger(filepath.Join(t.TempDir(), "missing", "x.plog")); err == nil {
		t.Error("NewFileLogger succeeded for a missing directory")
	}
}

func TestFileLoggerThreadSafe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concurrent.plog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				logger.Log(Event{Timestamp: time.Now(), Category: CategoryDatagram, Datagram: NewDatagramEvent([]byte("{}"))})
			}
		}()
	}
	wg.Wait()
	logger.Close()

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()
	if n := len(readAll(t, r)); n != 200 {
		t.Errorf("read %d events, want 200", n)
	}
}

func TestReaderTruncatedFile(t *testing.T) {
	path := createTestLogFile(t, []Event{{ConnectionID: "a"}, {ConnectionID: "b"}})

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Truncate(path, info.Size()-2); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	if _, err := r.Next(); err != nil {
		t.Fatalf("first Next failed: %v", err)
	}
	_, err = r.Next()
	if err == nil || errors.Is(err, io.EOF) {
		t.Errorf("second Next error = %v, want a decode error", err)
	}
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{Timestamp: base, ConnectionID: "c1", Direction: DirectionIn, Category: CategoryDatagram},
		{Timestamp: base.Add(time.Second), ConnectionID: "c1", Direction: DirectionOut, Category: CategoryDatagram},
		{Timestamp: base.Add(2 * time.Second), ConnectionID: "c2", Category: CategoryAlert, Alert: &AlertEvent{Action: AlertNotified, LocalID: 7}},
		{Timestamp: base.Add(3 * time.Second), ConnectionID: "c2", Category: CategoryAlert, Alert: &AlertEvent{Action: AlertCleared, LocalID: 50, Affected: []int{51}}},
		{Timestamp: base.Add(4 * time.Second), ConnectionID: "c2", Category: CategoryState, StateChange: &StateChangeEvent{NewState: "CONNECTED"}},
	}
	path := createTestLogFile(t, events)

	out := DirectionOut
	alerts := CategoryAlert
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)
	id51 := 51

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"All", Filter{}, 5},
		{"Connection", Filter{ConnectionID: "c2"}, 3},
		{"Direction", Filter{Direction: &out}, 1},
		{"Category", Filter{Category: &alerts}, 2},
		{"TimeRange", Filter{TimeStart: &start, TimeEnd: &end}, 2},
		{"LocalIDAffected", Filter{LocalID: &id51}, 1},
		{"Combined", Filter{ConnectionID: "c1", Category: &alerts}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatalf("NewFilteredReader failed: %v", err)
			}
			defer r.Close()

			if got := len(readAll(t, r)); got != tt.want {
				t.Errorf("got %d events, want %d", got, tt.want)
			}
		})
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "nope.plog")); err == nil {
		t.Error("NewReader succeeded for a missing file")
	}
}
