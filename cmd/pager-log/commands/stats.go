package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/poltys-apps/dcare-pager-gw/pkg/log"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	DatagramsByDir   map[log.Direction]int
	AlertsByAction   map[log.AlertAction]int
	ErrorsByCode     map[int]int
	Connections      map[string]*ConnectionStats
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// ConnectionStats holds statistics for a single connection cycle.
type ConnectionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Remote    string
	Datagrams int
	Alerts    int
}

// collectStats reads every event from reader.
func collectStats(reader *log.Reader) (*Stats, error) {
	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		DatagramsByDir:   make(map[log.Direction]int),
		AlertsByAction:   make(map[log.AlertAction]int),
		ErrorsByCode:     make(map[int]int),
		Connections:      make(map[string]*ConnectionStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		// Events outside a connection cycle (watchdog, idle state) have
		// no connection id.
		var conn *ConnectionStats
		if event.ConnectionID != "" {
			var ok bool
			conn, ok = stats.Connections[event.ConnectionID]
			if !ok {
				conn = &ConnectionStats{
					FirstSeen: event.Timestamp,
					LastSeen:  event.Timestamp,
				}
				stats.Connections[event.ConnectionID] = conn
			}
			conn.Events++
			if event.Timestamp.After(conn.LastSeen) {
				conn.LastSeen = event.Timestamp
			}
			if conn.Remote == "" {
				conn.Remote = event.RemoteAddr
			}
		}

		switch {
		case event.Datagram != nil:
			stats.DatagramsByDir[event.Direction]++
			if conn != nil {
				conn.Datagrams++
			}
		case event.Alert != nil:
			stats.AlertsByAction[event.Alert.Action]++
			if conn != nil {
				conn.Alerts++
			}
		case event.Error != nil:
			stats.Errors++
			if event.Error.Code != nil {
				stats.ErrorsByCode[*event.Error.Code]++
			}
		}
	}
	return stats, nil
}

// RunStats analyzes the capture file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats, err := collectStats(reader)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Pager Capture Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryDatagram, log.CategoryAlert, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Datagrams:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.DatagramsByDir[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.AlertsByAction) > 0 {
		fmt.Fprintln(w, "Alerts by Action:")
		for a := log.AlertNotified; a <= log.AlertPromoted; a++ {
			if count := stats.AlertsByAction[a]; count > 0 {
				fmt.Fprintf(w, "  %-12s %d\n", a.String()+":", count)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Connections: %d\n", len(stats.Connections))
	if len(stats.Connections) > 0 {
		type connInfo struct {
			id    string
			stats *ConnectionStats
		}
		conns := make([]connInfo, 0, len(stats.Connections))
		for id, cs := range stats.Connections {
			conns = append(conns, connInfo{id, cs})
		}
		sort.Slice(conns, func(i, j int) bool {
			return conns[i].stats.FirstSeen.Before(conns[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, c := range conns {
			duration := c.stats.LastSeen.Sub(c.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenConnID(c.id), c.stats.Events, duration)
			if c.stats.Remote != "" {
				fmt.Fprintf(w, "           Remote: %s\n", c.stats.Remote)
			}
			fmt.Fprintf(w, "           Datagrams: %d, alerts: %d\n", c.stats.Datagrams, c.stats.Alerts)
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
		codes := make([]int, 0, len(stats.ErrorsByCode))
		for code := range stats.ErrorsByCode {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		for _, code := range codes {
			fmt.Fprintf(w, "  errno %-6d %d\n", code, stats.ErrorsByCode[code])
		}
	}
}
