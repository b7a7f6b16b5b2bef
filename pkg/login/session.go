// Package login keeps the pager's escalation profiles in step with the
// PIN the user signed in with.
//
// A sync runs when the PIN changes or when the refresh interval has passed
// since the previous attempt. A successful sync replaces the subscribed
// profile set in one step; any failure keeps the previous set.
package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poltys-apps/dcare-pager-gw/pkg/escalation"
	"github.com/poltys-apps/dcare-pager-gw/pkg/serverapi"
)

// DefaultRefreshInterval is how long a login stays fresh.
const DefaultRefreshInterval = 1200 * time.Second

// ErrInvalidPIN is returned when the server signs nobody in for the PIN.
var ErrInvalidPIN = errors.New("invalid PIN")

// Fetcher retrieves the escalate configuration for a PIN.
type Fetcher interface {
	EscalateConfig(ctx context.Context, host, pin, name string) (*serverapi.EscalateConfig, error)
}

// ProfileSink receives the subscribed profile set.
type ProfileSink interface {
	SetProfiles(p escalation.Profiles)
}

// Result is the outcome of a successful sync.
type Result struct {
	LoginName string
	Profiles  escalation.Profiles
	// Descriptions maps profile name to the server's description.
	Descriptions map[string]string
}

// Config configures a Session.
type Config struct {
	RefreshInterval time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time

	Logger *slog.Logger
}

// Session tracks when the last login attempt happened and for which PIN.
type Session struct {
	mu sync.Mutex

	fetcher Fetcher
	sink    ProfileSink
	config  Config
	logger  *slog.Logger

	lastPIN     string
	lastAttempt time.Time
	attempted   bool
	last        *Result
}

// NewSession creates a login session that publishes profiles to sink.
func NewSession(fetcher Fetcher, sink ProfileSink, config Config) *Session {
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = DefaultRefreshInterval
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		fetcher: fetcher,
		sink:    sink,
		config:  config,
		logger:  logger,
	}
}

// Due reports whether Sync would contact the server for pin now.
func (s *Session) Due(pin string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dueLocked(pin)
}

func (s *Session) dueLocked(pin string) bool {
	if pin == "" {
		return false
	}
	if !s.attempted || pin != s.lastPIN {
		return true
	}
	return s.config.Now().Sub(s.lastAttempt) > s.config.RefreshInterval
}

// Sync logs in with pin if due. It returns the new result and true when
// the profile set was replaced, or false when nothing changed. A failed
// attempt still counts towards the refresh interval.
func (s *Session) Sync(ctx context.Context, host, pin, name string) (*Result, bool, error) {
	s.mu.Lock()
	if pin == "" {
		s.mu.Unlock()
		return nil, false, nil
	}
	if !s.dueLocked(pin) {
		s.mu.Unlock()
		return nil, false, nil
	}
	s.lastPIN = pin
	s.lastAttempt = s.config.Now()
	s.attempted = true
	s.mu.Unlock()

	cfg, err := s.fetcher.EscalateConfig(ctx, host, pin, name)
	if err != nil {
		s.logger.Warn("login sync failed", "error", err)
		return nil, false, fmt.Errorf("login sync: %w", err)
	}
	if len(cfg.SignIns) == 0 {
		s.logger.Warn("login sync rejected: invalid PIN")
		return nil, false, ErrInvalidPIN
	}

	res := &Result{
		LoginName:    cfg.SignIns[0].Username,
		Profiles:     make(escalation.Profiles, len(cfg.Profiles)),
		Descriptions: make(map[string]string, len(cfg.Profiles)),
	}
	for profile, desc := range cfg.Profiles {
		res.Profiles[profile] = struct{}{}
		res.Descriptions[profile] = desc
	}

	s.sink.SetProfiles(res.Profiles)

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()

	s.logger.Info("login synced", "login", res.LoginName, "profiles", res.Profiles.Names())
	return res, true, nil
}

// Last returns the most recent successful result, or nil.
func (s *Session) Last() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
