// Package log captures a machine-readable trace of the pager link.
//
// This is separate from operational logging (slog). The capture records
// every datagram exchanged with the server, what the session decided for
// each alert, and link state changes, so that a field problem can be
// replayed offline with the pager-log tool.
//
// # Basic Usage
//
//	// Console, for development
//	cfg.CaptureLogger = log.NewSlogAdapter(slog.Default())
//
//	// File, for production
//	cfg.CaptureLogger, _ = log.NewFileLogger("/var/log/dcare/pager.plog")
//
//	// Both
//	cfg.CaptureLogger = log.NewMultiLogger(console, file)
//
// # Event Types
//
//   - Datagram: raw UDP payloads in either direction
//   - Alert: the outcome for one alert entry (notify, schedule, drop, clear)
//   - State: connection, watchdog and login state changes
//   - Error: faults at any point
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events with integer keys and
// use the .plog extension.
package log
