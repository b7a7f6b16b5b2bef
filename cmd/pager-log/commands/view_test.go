package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/poltys-apps/dcare-pager-gw/pkg/log"
)

func TestFormatDatagramEvent(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	var buf bytes.Buffer
	formatEvent(&buf, log.Event{
		Timestamp:    ts,
		ConnectionID: "3f2a9c1e-aaaa-bbbb",
		Direction:    log.DirectionOut,
		Category:     log.CategoryDatagram,
		RemoteAddr:   "10.0.4.2:18806",
		Datagram:     log.NewDatagramEvent([]byte(`{"Ack":{"SeqNo":3}}`)),
	})

	out := buf.String()
	for _, want := range []string{
		"2026-01-28T10:15:32.123456Z [conn:3f2a9c1e] OUT Datagram",
		"Remote: 10.0.4.2:18806",
		"Size: 19 bytes",
		`Data: {"Ack":{"SeqNo":3}}`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestFormatBinaryDatagram(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, log.Event{
		Category: log.CategoryDatagram,
		Datagram: &log.DatagramEvent{Size: 2, Data: []byte{0xff, 0xfe}, Truncated: true},
	})
	if !strings.Contains(buf.String(), "Data: fffe (truncated)") {
		t.Errorf("expected hex payload, got:\n%s", buf.String())
	}
}

func TestFormatAlertEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, log.Event{
		Category: log.CategoryAlert,
		Alert: &log.AlertEvent{
			Action:   log.AlertCleared,
			LocalID:  50,
			ServerID: "50",
			SeqNo:    9,
			Affected: []int{50, 52},
		},
	})

	out := buf.String()
	if !strings.Contains(out, "[conn:-] -   Alert CLEARED") {
		t.Errorf("unexpected header:\n%s", out)
	}
	if !strings.Contains(out, "LocalID: 50  ServerID: 50  SeqNo: 9") {
		t.Errorf("missing ids:\n%s", out)
	}
	if !strings.Contains(out, "Affected: 50, 52") {
		t.Errorf("missing affected ids:\n%s", out)
	}
}

func TestFormatStateAndError(t *testing.T) {
	code := 111
	var buf bytes.Buffer
	formatEvent(&buf, log.Event{
		Category:    log.CategoryState,
		StateChange: &log.StateChangeEvent{Entity: log.StateEntityLogin, NewState: "LOGGED_IN", Reason: "night"},
	})
	formatEvent(&buf, log.Event{
		Category: log.CategoryError,
		Error:    &log.ErrorEventData{Message: "refused", Code: &code, Context: "socket"},
	})

	out := buf.String()
	for _, want := range []string{"Entity: LOGIN", "-> LOGGED_IN", "Reason: night", "Message: refused", "Code: 111", "Context: socket"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRunViewFilters(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, Direction: log.DirectionIn, Category: log.CategoryDatagram, Datagram: log.NewDatagramEvent([]byte("in"))},
		{Timestamp: ts, Direction: log.DirectionOut, Category: log.CategoryDatagram, Datagram: log.NewDatagramEvent([]byte("out"))},
		{Timestamp: ts, Category: log.CategoryAlert, Alert: &log.AlertEvent{Action: log.AlertNotified, LocalID: 7}},
		{Timestamp: ts, Category: log.CategoryAlert, Alert: &log.AlertEvent{Action: log.AlertCleared, LocalID: 8, Affected: []int{8}}},
	}
	path := createTestLogFile(t, events)

	t.Run("Direction", func(t *testing.T) {
		d := log.DirectionOut
		var buf bytes.Buffer
		if err := RunView(path, ViewFilter{Direction: &d}, &buf); err != nil {
			t.Fatalf("RunView failed: %v", err)
		}
		if strings.Count(buf.String(), "Datagram") != 1 || !strings.Contains(buf.String(), "Data: out") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("Alarm", func(t *testing.T) {
		id := 8
		var buf bytes.Buffer
		if err := RunView(path, ViewFilter{LocalID: &id}, &buf); err != nil {
			t.Fatalf("RunView failed: %v", err)
		}
		if strings.Count(buf.String(), "Alert") != 1 || !strings.Contains(buf.String(), "CLEARED") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})
}

func TestRunViewMissingFile(t *testing.T) {
	var buf bytes.Buffer
	if err := RunView(t.TempDir()+"/none.plog", ViewFilter{}, &buf); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseFlags(t *testing.T) {
	if d, err := ParseDirectionFlag("IN"); err != nil || d != log.DirectionIn {
		t.Errorf("ParseDirectionFlag(IN) = %v, %v", d, err)
	}
	if _, err := ParseDirectionFlag("sideways"); err == nil {
		t.Error("expected error for invalid direction")
	}
	for s, want := range map[string]log.Category{
		"datagram": log.CategoryDatagram,
		"Alert":    log.CategoryAlert,
		"state":    log.CategoryState,
		"ERROR":    log.CategoryError,
	} {
		got, err := ParseCategoryFlag(s)
		if err != nil || got != want {
			t.Errorf("ParseCategoryFlag(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := ParseCategoryFlag("message"); err == nil {
		t.Error("expected error for invalid category")
	}
}
