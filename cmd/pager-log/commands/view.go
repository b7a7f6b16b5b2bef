// Package commands implements the pager-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/poltys-apps/dcare-pager-gw/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Direction *log.Direction
	Category  *log.Category
	LocalID   *int
}

func (f ViewFilter) logFilter() log.Filter {
	return log.Filter{
		Direction: f.Direction,
		Category:  f.Category,
		LocalID:   f.LocalID,
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [conn:id] DIRECTION Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	connID := shortenConnID(event.ConnectionID)

	var typeLabel string
	switch {
	case event.Datagram != nil:
		typeLabel = "Datagram"
	case event.Alert != nil:
		typeLabel = "Alert " + event.Alert.Action.String()
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	dir := "-"
	if event.Datagram != nil {
		dir = event.Direction.String()
	}
	fmt.Fprintf(w, "%s [conn:%s] %-3s %s\n", ts, connID, dir, typeLabel)
	if event.RemoteAddr != "" {
		fmt.Fprintf(w, "  Remote: %s\n", event.RemoteAddr)
	}

	switch {
	case event.Datagram != nil:
		formatDatagramDetails(w, event.Datagram)
	case event.Alert != nil:
		formatAlertDetails(w, event.Alert)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatDatagramDetails writes the payload. Datagrams are JSON, so they
// are printed as text unless they are not valid UTF-8.
func formatDatagramDetails(w io.Writer, d *log.DatagramEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", d.Size)
	if len(d.Data) == 0 {
		return
	}
	if utf8.Valid(d.Data) {
		fmt.Fprintf(w, "  Data: %s", string(d.Data))
	} else {
		fmt.Fprintf(w, "  Data: %x", d.Data)
	}
	if d.Truncated {
		fmt.Fprint(w, " (truncated)")
	}
	fmt.Fprintln(w)
}

func formatAlertDetails(w io.Writer, a *log.AlertEvent) {
	fmt.Fprintf(w, "  LocalID: %d", a.LocalID)
	if a.ServerID != "" {
		fmt.Fprintf(w, "  ServerID: %s", a.ServerID)
	}
	if a.SeqNo != 0 {
		fmt.Fprintf(w, "  SeqNo: %d", a.SeqNo)
	}
	fmt.Fprintln(w)
	if a.Delay > 0 {
		fmt.Fprintf(w, "  Delay: %s\n", a.Delay)
	}
	if len(a.Affected) > 0 {
		ids := make([]string, len(a.Affected))
		for i, id := range a.Affected {
			ids[i] = fmt.Sprint(id)
		}
		fmt.Fprintf(w, "  Affected: %s\n", strings.Join(ids, ", "))
	}
}

// formatStateChangeDetails writes state change details.
func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity.String())
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Code != nil {
		fmt.Fprintf(w, "  Code: %d\n", *err.Code)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// ParseDirectionFlag parses a direction string from command-line flag (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "datagram":
		return log.CategoryDatagram, nil
	case "alert":
		return log.CategoryAlert, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be datagram, alert, state, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.logFilter())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
