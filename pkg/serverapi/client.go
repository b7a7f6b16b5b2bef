// Package serverapi fetches configuration and alarm state from the pager
// server's HTTP interface.
//
// Both endpoints are read-only and polled by the session:
//
//	GET /config/escalate_config.json?pin=<pin>&name=<name>
//	GET /alarms.json
package serverapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shimmeringbee/retry"

	"github.com/poltys-apps/dcare-pager-gw/pkg/wire"
)

// Request defaults.
const (
	// DefaultAttemptTimeout bounds a single HTTP attempt.
	DefaultAttemptTimeout = 10 * time.Second

	// DefaultRetries is the number of extra attempts within one poll.
	DefaultRetries = 1

	// maxBodySize caps how much of a response is read.
	maxBodySize = 1 << 20
)

// Client errors.
var (
	ErrNoAddress      = errors.New("server address not configured")
	ErrUnexpectedHTTP = errors.New("unexpected HTTP status")
)

// SignIn is one entry of the escalate_config sign-in list.
type SignIn struct {
	Username string `json:"username"`
}

// EscalateConfig is the response of the login endpoint.
type EscalateConfig struct {
	SignIns  []SignIn          `json:"sign_ins"`
	Profiles map[string]string `json:"profiles"`
}

// AlarmEntry is one alarm of the full alarm list.
type AlarmEntry struct {
	ID            wire.AlarmID   `json:"id"`
	DeviceName    string         `json:"device_name"`
	Subject       string         `json:"subject"`
	Timestamp     wire.Timestamp `json:"timestamp"`
	Priority      *int           `json:"priority,omitempty"`
	ProfileDelays map[string]int `json:"profile_delays,omitempty"`
}

// PriorityOrDefault returns the priority or wire.DefaultPriority.
func (e *AlarmEntry) PriorityOrDefault() int {
	if e.Priority == nil {
		return wire.DefaultPriority
	}
	return *e.Priority
}

// AlarmList is the response of the full-sync endpoint.
type AlarmList struct {
	Timestamp wire.Timestamp `json:"timestamp"`
	Alarms    []AlarmEntry   `json:"alarms"`
}

// Config configures a Client.
type Config struct {
	// Scheme is "http" unless overridden.
	Scheme string

	// Port overrides the HTTP port; 0 keeps the scheme default.
	Port int

	// AttemptTimeout bounds one HTTP attempt.
	AttemptTimeout time.Duration

	// Retries is the number of extra attempts within one call.
	Retries int

	// HTTPClient is used for requests. Defaults to a client without a
	// global timeout; AttemptTimeout applies per attempt.
	HTTPClient *http.Client

	// Logger is the optional logger for debug output.
	Logger *slog.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		Scheme:         "http",
		AttemptTimeout: DefaultAttemptTimeout,
		Retries:        DefaultRetries,
	}
}

// Client talks to one pager server. The host is passed per call because
// the destination address can change at any time.
type Client struct {
	config Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a client.
func NewClient(config Config) *Client {
	if config.Scheme == "" {
		config.Scheme = "http"
	}
	if config.AttemptTimeout <= 0 {
		config.AttemptTimeout = DefaultAttemptTimeout
	}
	if config.Retries < 0 {
		config.Retries = 0
	}
	hc := config.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{config: config, http: hc, logger: logger}
}

// EscalateConfig fetches the sign-in list and profiles for pin.
func (c *Client) EscalateConfig(ctx context.Context, host, pin, name string) (*EscalateConfig, error) {
	q := url.Values{}
	q.Set("pin", pin)
	q.Set("name", name)

	var out EscalateConfig
	if err := c.getJSON(ctx, host, "/config/escalate_config.json", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Alarms fetches the authoritative alarm list. receivedAt is the local
// time the response arrived, for clock offset computation.
func (c *Client) Alarms(ctx context.Context, host string) (list *AlarmList, receivedAt time.Time, err error) {
	var out AlarmList
	if err := c.getJSON(ctx, host, "/alarms.json", nil, &out); err != nil {
		return nil, time.Time{}, err
	}
	return &out, time.Now(), nil
}

// BaseURL returns the server base URL for host.
func (c *Client) BaseURL(host string) (*url.URL, error) {
	if host == "" {
		return nil, ErrNoAddress
	}
	h := host
	if c.config.Port != 0 {
		h = net.JoinHostPort(host, strconv.Itoa(c.config.Port))
	}
	return &url.URL{Scheme: c.config.Scheme, Host: h}, nil
}

func (c *Client) getJSON(ctx context.Context, host, path string, query url.Values, out any) error {
	base, err := c.BaseURL(host)
	if err != nil {
		return err
	}
	u := base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	target := u.String()

	return retry.Retry(ctx, c.config.AttemptTimeout, c.config.Retries, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			c.logger.Debug("HTTP request failed", "path", path, "error", err)
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
			return fmt.Errorf("%w: %s %s", ErrUnexpectedHTTP, path, resp.Status)
		}

		if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return nil
	})
}
