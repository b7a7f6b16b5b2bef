package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/poltys-apps/dcare-pager-gw/pkg/log"
)

func TestStatsCounts(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	code := 111
	events := []log.Event{
		{Timestamp: ts, ConnectionID: "conn-aaaa-bbbb", RemoteAddr: "10.0.4.2:18806", Direction: log.DirectionOut,
			Category: log.CategoryDatagram, Datagram: log.NewDatagramEvent([]byte("{}"))},
		{Timestamp: ts.Add(time.Second), ConnectionID: "conn-aaaa-bbbb", Direction: log.DirectionIn,
			Category: log.CategoryDatagram, Datagram: log.NewDatagramEvent([]byte("{}"))},
		{Timestamp: ts.Add(time.Second), ConnectionID: "conn-aaaa-bbbb",
			Category: log.CategoryAlert, Alert: &log.AlertEvent{Action: log.AlertNotified, LocalID: 7}},
		{Timestamp: ts.Add(2 * time.Second), ConnectionID: "conn-cccc-dddd",
			Category: log.CategoryAlert, Alert: &log.AlertEvent{Action: log.AlertStale, LocalID: 8}},
		{Timestamp: ts.Add(3 * time.Second),
			Category: log.CategoryError, Error: &log.ErrorEventData{Message: "refused", Code: &code}},
		{Timestamp: ts.Add(4 * time.Second),
			Category: log.CategoryError, Error: &log.ErrorEventData{Message: "refused", Code: &code}},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Total Events: 6",
		"Duration:   4s",
		"DATAGRAM:", "ALERT:", "ERROR:",
		"IN:", "OUT:",
		"NOTIFIED:", "STALE:",
		"Connections: 2",
		"[conn-aaa] 3 events, duration 1s",
		"Remote: 10.0.4.2:18806",
		"Datagrams: 2, alerts: 1",
		"Errors: 2",
		"errno 111",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestStatsEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "Time Range") {
		t.Error("empty file should not print a time range")
	}
}
