package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poltys-apps/dcare-pager-gw/pkg/applog"
	"github.com/poltys-apps/dcare-pager-gw/pkg/connection"
	"github.com/poltys-apps/dcare-pager-gw/pkg/log"
	"github.com/poltys-apps/dcare-pager-gw/pkg/metrics"
	"github.com/poltys-apps/dcare-pager-gw/pkg/notify"
	"github.com/poltys-apps/dcare-pager-gw/pkg/serverapi"
	"github.com/poltys-apps/dcare-pager-gw/pkg/settings"
	"github.com/poltys-apps/dcare-pager-gw/pkg/watchdog"
)

// Timing and transport defaults.
const (
	// DefaultPort is the server's UDP alert port.
	DefaultPort = 18806

	// DefaultReadTimeout bounds one receive; a timeout only triggers
	// housekeeping.
	DefaultReadTimeout = 15 * time.Second

	// DefaultHeartbeatInterval is the minimum gap between Register messages.
	DefaultHeartbeatInterval = 30 * time.Second

	// DefaultSyncRetryInterval is the minimum gap between failed full
	// sync attempts within one connection cycle.
	DefaultSyncRetryInterval = 30 * time.Second
)

// Configuration errors.
var (
	ErrNoSettings = errors.New("session: settings store required")
	ErrNoSink     = errors.New("session: notification sink required")
	ErrStopped    = errors.New("session stopped")
	ErrPanic      = errors.New("session loop panic")
)

// API is the server's HTTP interface as used by the session.
type API interface {
	EscalateConfig(ctx context.Context, host, pin, name string) (*serverapi.EscalateConfig, error)
	Alarms(ctx context.Context, host string) (*serverapi.AlarmList, time.Time, error)
}

// Config configures a Session.
type Config struct {
	// Settings supplies destination, friendly name, PIN and channel
	// preferences. Required.
	Settings *settings.Store

	// Sink shows notifications. Required.
	Sink notify.Sink

	// API defaults to a serverapi.Client with default configuration.
	API API

	// Buffer holds diagnostic lines uploaded with each heartbeat.
	// Defaults to a new buffer of applog.DefaultCapacity lines.
	Buffer *applog.Buffer

	// Port is the server UDP port.
	Port int

	ReadTimeout       time.Duration
	HeartbeatInterval time.Duration
	SyncRetryInterval time.Duration

	// RetryDelay is the fixed wait after a socket fault.
	RetryDelay time.Duration

	// WatchdogTimeout is how long the link may stay silent before the
	// status notification is shown.
	WatchdogTimeout time.Duration

	// LoginInterval is how long a login stays fresh.
	LoginInterval time.Duration

	// Capture receives protocol capture events. Optional.
	Capture log.Logger

	// Metrics is optional.
	Metrics *metrics.Metrics

	// Logger is the optional operational logger.
	Logger *slog.Logger
}

// DefaultConfig returns a configuration with the protocol defaults.
// Settings and Sink still have to be set.
func DefaultConfig() Config {
	return Config{
		Port:              DefaultPort,
		ReadTimeout:       DefaultReadTimeout,
		HeartbeatInterval: DefaultHeartbeatInterval,
		SyncRetryInterval: DefaultSyncRetryInterval,
		RetryDelay:        connection.DefaultRetryDelay,
		WatchdogTimeout:   watchdog.DefaultTimeout,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Port == 0 {
		c.Port = d.Port
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}
	if c.SyncRetryInterval <= 0 {
		c.SyncRetryInterval = d.SyncRetryInterval
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.WatchdogTimeout <= 0 {
		c.WatchdogTimeout = d.WatchdogTimeout
	}
	if c.Buffer == nil {
		c.Buffer = applog.NewBuffer(applog.DefaultCapacity)
	}
	if c.Capture == nil {
		c.Capture = log.NoopLogger{}
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.API == nil {
		cfg := serverapi.DefaultConfig()
		cfg.Logger = c.Logger
		c.API = serverapi.NewClient(cfg)
	}
	return c
}
