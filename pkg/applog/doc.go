// Package applog keeps the recent diagnostic log lines that the pager
// uploads to the server with each heartbeat.
//
// Buffer is a bounded queue owned by whoever creates it; it is passed by
// reference to the session, which drains it once per heartbeat. Handler
// is an slog.Handler that copies Info and above into a Buffer while
// forwarding every record to the next handler:
//
//	buf := applog.NewBuffer(applog.DefaultCapacity)
//	logger := slog.New(applog.NewHandler(buf, slog.NewTextHandler(os.Stderr, nil)))
package applog
