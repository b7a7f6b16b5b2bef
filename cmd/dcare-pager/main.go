// Command dcare-pager runs a pager client against a dcare alarm server.
//
// The client registers with the server over UDP, acknowledges alert
// datagrams, applies the escalation delays of the logged-in user and shows
// active alarms as notifications (logged, or printed on the console).
//
// Usage:
//
//	dcare-pager [flags]
//
// Flags:
//
//	-config string       YAML configuration file
//	-settings string     Settings file (default: user config dir)
//	-destination string  Server address (overrides the stored setting)
//	-port int            Server UDP port (default 18806)
//	-api-port int        Server HTTP port (default: scheme default)
//	-name string         Friendly name reported to the server
//	-log-level string    Log level: debug, info, warn, error (default "info")
//	-capture string      Write protocol capture events to this file
//	-metrics string      Serve Prometheus metrics on this address
//	-discover            Browse mDNS for a server when no destination is set
//	-iface string        Network interface for discovery
//	-site string         Only accept discovered servers for this site
//	-kick duration       Registration kick interval (default 1m0s)
//	-interactive         Start the interactive console
//
// Examples:
//
//	# Connect to a known server
//	dcare-pager -destination 10.0.4.2 -name "Ward 3 desk"
//
//	# Find the server via mDNS, capture traffic and expose metrics
//	dcare-pager -discover -capture pager.plog -metrics :9118
//
//	# Use a configuration file and the console
//	dcare-pager -config /etc/dcare/pager.yaml -interactive
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/poltys-apps/dcare-pager-gw/pkg/applog"
	"github.com/poltys-apps/dcare-pager-gw/pkg/discovery"
	"github.com/poltys-apps/dcare-pager-gw/pkg/log"
	"github.com/poltys-apps/dcare-pager-gw/pkg/metrics"
	"github.com/poltys-apps/dcare-pager-gw/pkg/notify"
	"github.com/poltys-apps/dcare-pager-gw/pkg/serverapi"
	"github.com/poltys-apps/dcare-pager-gw/pkg/session"
	"github.com/poltys-apps/dcare-pager-gw/pkg/settings"
)

// discoveryRetry is the wait between unsuccessful discovery attempts.
const discoveryRetry = 30 * time.Second

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		con *console
		out io.Writer = os.Stderr
	)
	if cfg.Interactive {
		var err error
		if con, err = openConsole(); err != nil {
			return err
		}
		out = con.Stderr()
	}

	buf := applog.NewBuffer(applog.DefaultCapacity)
	logger := setupLogging(cfg.LogLevel, buf, out)

	store, err := settings.Open(settings.Config{
		File:     settings.NewFileStore(cfg.SettingsPath),
		Defaults: map[settings.Key]string{settings.FriendlyName: defaultFriendlyName()},
		Logger:   logger.With("component", "settings"),
	})
	if err != nil {
		return err
	}
	if err := applyOverrides(cfg, store); err != nil {
		return err
	}

	capture, closeCapture, err := setupCapture(cfg, logger)
	if err != nil {
		return err
	}
	defer closeCapture()

	m := metrics.New()
	reg := prometheus.NewRegistry()
	m.MustRegister(reg)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sinks := notify.Multi{notify.NewSlogSink(logger.With("component", "notify"))}
	if con != nil {
		sinks = append(sinks, con)
	}

	apiConfig := serverapi.DefaultConfig()
	apiConfig.Port = cfg.APIPort
	apiConfig.Logger = logger.With("component", "api")

	s, err := session.Start(session.Config{
		Settings: store,
		Sink:     sinks,
		API:      serverapi.NewClient(apiConfig),
		Buffer:   buf,
		Port:     cfg.Port,
		Capture:  capture,
		Metrics:  m,
		Logger:   logger.With("component", "session"),
	})
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer s.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		runKicker(ctx, s, cfg.KickInterval)
		return nil
	})

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("serving metrics", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if cfg.Discover {
		browser := discovery.NewMDNSBrowser(cfg.browserConfig())
		g.Go(func() error {
			defer browser.Stop()
			runDiscovery(ctx, browser, store, logger.With("component", "discovery"))
			return nil
		})
	}

	if con != nil {
		con.attach(s, store)
		g.Go(func() error {
			con.Run(ctx, stop)
			return nil
		})
	}

	logger.Info("pager client running",
		"destination", store.String(settings.DestinationAddress),
		"port", cfg.Port,
		"settings", cfg.SettingsPath)

	<-ctx.Done()
	logger.Info("shutting down")
	s.Stop()
	if con != nil {
		con.Close()
	}
	return g.Wait()
}

// setupLogging builds the operational logger. Info and above is also kept
// in buf for upload to the server.
func setupLogging(level string, buf *applog.Buffer, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	text := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(applog.NewHandler(buf, text))
}

// setupCapture returns the capture logger for cfg and a function that
// closes any file it opened. At debug level events are also logged.
func setupCapture(cfg Config, logger *slog.Logger) (log.Logger, func(), error) {
	var loggers []log.Logger
	closeFn := func() {}

	if cfg.CaptureFile != "" {
		fl, err := log.NewFileLogger(cfg.CaptureFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open capture file: %w", err)
		}
		loggers = append(loggers, fl)
		closeFn = func() {
			if err := fl.Close(); err != nil {
				logger.Warn("closing capture file", "error", err)
			}
		}
	}
	if cfg.LogLevel == "debug" {
		loggers = append(loggers, log.NewSlogAdapter(logger.With("component", "capture")))
	}

	switch len(loggers) {
	case 0:
		return log.NoopLogger{}, closeFn, nil
	case 1:
		return loggers[0], closeFn, nil
	default:
		return log.NewMultiLogger(loggers...), closeFn, nil
	}
}

// applyOverrides writes command-line values into the settings store.
func applyOverrides(cfg Config, store *settings.Store) error {
	if d := strings.TrimSpace(cfg.Destination); d != "" {
		if err := store.Set(settings.DestinationAddress, d); err != nil {
			return err
		}
	}
	if n := strings.TrimSpace(cfg.FriendlyName); n != "" {
		if err := store.Set(settings.FriendlyName, n); err != nil {
			return err
		}
	}
	return nil
}

func defaultFriendlyName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "dcare-pager"
	}
	return host
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	return mux
}

// runKicker re-registers the connection at every interval until ctx ends.
func runKicker(ctx context.Context, s *session.Session, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Kick()
		}
	}
}

// runDiscovery looks for a server until one is stored or ctx ends.
// Resolve returns at once while a destination is configured.
func runDiscovery(ctx context.Context, b discovery.Browser, store *settings.Store, logger *slog.Logger) {
	for {
		dest, err := discovery.Resolve(ctx, b, store, logger)
		if err == nil {
			logger.Debug("destination resolved", "address", dest)
			return
		}
		if ctx.Err() != nil {
			return
		}
		logger.Info("no pager server found, retrying", "error", err, "retry_in", discoveryRetry)

		select {
		case <-ctx.Done():
			return
		case <-time.After(discoveryRetry):
		}
	}
}
