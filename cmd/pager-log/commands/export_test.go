package commands

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poltys-apps/dcare-pager-gw/pkg/log"
)

// createTestLogFile writes events to a capture file in a temp dir.
func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.plog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func TestExportToJSONL(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	events := []log.Event{
		{
			Timestamp:    ts,
			ConnectionID: "abc12345",
			Direction:    log.DirectionIn,
			Category:     log.CategoryDatagram,
			RemoteAddr:   "10.0.4.2:18806",
			Datagram:     log.NewDatagramEvent([]byte(`{"Alert":{"SeqNo":3}}`)),
		},
		{
			Timestamp:    ts.Add(time.Millisecond),
			ConnectionID: "abc12345",
			Category:     log.CategoryAlert,
			Alert:        &log.AlertEvent{Action: log.AlertNotified, LocalID: 7, ServerID: "7"},
		},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines int
	for scanner.Scan() {
		var ev log.Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines+1, err)
		}
		lines++
	}
	if lines != 2 {
		t.Errorf("expected 2 lines, got %d", lines)
	}
}

func TestExportToCSV(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	code := 111
	events := []log.Event{
		{Timestamp: ts, ConnectionID: "c1", Category: log.CategoryAlert,
			Alert: &log.AlertEvent{Action: log.AlertScheduled, LocalID: 12034, ServerID: "12034", Delay: 5 * time.Minute}},
		{Timestamp: ts, ConnectionID: "c1", Category: log.CategoryError,
			Error: &log.ErrorEventData{Message: "connection refused", Code: &code, Context: "socket"}},
		{Timestamp: ts, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{Entity: log.StateEntityWatchdog, OldState: "HEALTHY", NewState: "STALE"}},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "timestamp" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][5] != "SCHEDULED" || rows[1][6] != "12034" {
		t.Errorf("unexpected alert row: %v", rows[1])
	}
	if rows[2][5] != "error" || rows[2][7] != "connection refused" {
		t.Errorf("unexpected error row: %v", rows[2])
	}
	if rows[3][5] != "WATCHDOG" || rows[3][7] != "STALE" {
		t.Errorf("unexpected state row: %v", rows[3])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, nil)
	if err := RunExport(path, "xml", filepath.Join(t.TempDir(), "out")); err == nil {
		t.Error("expected error for unknown format")
	}
}
