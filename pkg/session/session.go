package session

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/poltys-apps/dcare-pager-gw/pkg/alarm"
	"github.com/poltys-apps/dcare-pager-gw/pkg/clocksync"
	"github.com/poltys-apps/dcare-pager-gw/pkg/connection"
	"github.com/poltys-apps/dcare-pager-gw/pkg/delay"
	"github.com/poltys-apps/dcare-pager-gw/pkg/escalation"
	"github.com/poltys-apps/dcare-pager-gw/pkg/log"
	"github.com/poltys-apps/dcare-pager-gw/pkg/login"
	"github.com/poltys-apps/dcare-pager-gw/pkg/notify"
	"github.com/poltys-apps/dcare-pager-gw/pkg/settings"
	"github.com/poltys-apps/dcare-pager-gw/pkg/watchdog"
)

// Session is a running pager client.
type Session struct {
	config   Config
	logger   *slog.Logger
	settings *settings.Store

	proc     *Processor
	resolver *escalation.Resolver
	clock    *clocksync.Sync
	login    *login.Session
	watchdog *watchdog.Timer

	// seq is the Register sequence number. It survives reconnects.
	seq atomic.Int64

	// connID identifies the current connection cycle in capture events.
	connID atomic.Value

	mu      sync.Mutex
	task    *task
	stopped bool
	unwatch []func()

	errMu     sync.Mutex
	lastErrno syscall.Errno

	nameMu       sync.Mutex
	friendlyName string
}

// Status is a point-in-time view of the session.
type Status struct {
	Destination  string
	State        connection.State
	Cycles       int
	Watchdog     watchdog.State
	Active       int
	Pending      int
	LoginName    string
	Profiles     []string
	SilentFor    time.Duration
	ClockOffset  time.Duration
	OffsetKnown  bool
	Synced       bool
	Heartbeats   int
	FriendlyName string
}

// Start creates a session, subscribes to its settings and starts the
// connection task when a destination is configured.
func Start(cfg Config) (*Session, error) {
	if cfg.Settings == nil {
		return nil, ErrNoSettings
	}
	if cfg.Sink == nil {
		return nil, ErrNoSink
	}
	cfg = cfg.withDefaults()

	wd, err := watchdog.NewTimerWithTimeout(cfg.WatchdogTimeout)
	if err != nil {
		return nil, fmt.Errorf("session watchdog: %w", err)
	}

	s := &Session{
		config:   cfg,
		logger:   cfg.Logger,
		settings: cfg.Settings,
		resolver: escalation.NewResolver(),
		clock:    clocksync.New(),
		watchdog: wd,
	}
	s.connID.Store("")
	s.friendlyName = cfg.Settings.String(settings.FriendlyName)

	s.proc = NewProcessor(ProcessorConfig{
		Store:     alarm.NewStore(),
		Scheduler: delay.NewScheduler(),
		Mapper:    alarm.NewMapper(),
		Resolver:  s.resolver,
		Clock:     s.clock,
		Sink:      cfg.Sink,
		Silent:    func() bool { return s.settings.Bool(settings.SilentNotification) },
		OnAlert: func(ev *log.AlertEvent) {
			s.capture(log.Event{Category: log.CategoryAlert, Alert: ev})
		},
		Metrics: cfg.Metrics,
		Logger:  cfg.Logger.With("component", "processor"),
	})

	s.login = login.NewSession(cfg.API, s.resolver, login.Config{
		RefreshInterval: cfg.LoginInterval,
		Logger:          cfg.Logger.With("component", "login"),
	})

	s.setupWatchdog()
	s.watchSettings()

	s.watchdog.Start()
	s.logger.Info("session started", "port", cfg.Port)

	s.mu.Lock()
	s.startTaskLocked()
	s.mu.Unlock()

	return s, nil
}

// Stop ends the connection task, cancels pending delayed alarms and
// withdraws the status notification. It is safe to call more than once.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	unwatch := s.unwatch
	s.unwatch = nil
	s.stopTaskLocked()
	s.mu.Unlock()

	for _, stop := range unwatch {
		stop()
	}
	s.watchdog.Stop()
	n := s.proc.Shutdown()
	s.config.Sink.Cancel(notify.StatusNotificationID)
	s.config.Metrics.SetConnected(false)
	s.logger.Info("session stopped", "pending_cancelled", n)
}

// Kick restarts the connection task if a destination is configured. The
// host calls it from its keep-alive hook; the new task rebinds the socket
// and registers again.
func (s *Session) Kick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.destination() == "" {
		return
	}
	s.logger.Debug("registration kick, restarting connection")
	s.startTaskLocked()
}

// NetworkAvailable starts the connection task if none is running.
func (s *Session) NetworkAvailable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Info("network available")
	if s.stopped || s.destination() == "" {
		return
	}
	if s.task != nil && !s.task.finished() {
		return
	}
	s.startTaskLocked()
}

// Alarms returns the current active alarms.
func (s *Session) Alarms() alarm.Snapshot {
	return s.proc.Store().Snapshot()
}

// PendingAlarms returns the delayed alarms ordered by id.
func (s *Session) PendingAlarms() []delay.Pending {
	return s.proc.Pending().List()
}

// WatchAlarms registers fn for every new active alarm snapshot.
func (s *Session) WatchAlarms(fn func(alarm.Snapshot)) (stop func()) {
	return s.proc.Store().Watch(fn)
}

// Processor returns the alert processor.
func (s *Session) Processor() *Processor {
	return s.proc
}

// Status returns the current session state.
func (s *Session) Status() Status {
	st := Status{
		Destination:  s.destination(),
		State:        connection.StateDisconnected,
		Watchdog:     s.watchdog.State(),
		Active:       s.proc.Store().Len(),
		Pending:      s.proc.Pending().Count(),
		Profiles:     s.resolver.Profiles().Names(),
		SilentFor:    s.watchdog.SilentFor(),
		ClockOffset:  s.clock.Offset(),
		OffsetKnown:  s.clock.HasOffset(),
		Synced:       !s.clock.NeedsSync(),
		Heartbeats:   int(s.seq.Load()),
		FriendlyName: s.currentFriendlyName(),
	}
	if res := s.login.Last(); res != nil {
		st.LoginName = res.LoginName
	}

	s.mu.Lock()
	t := s.task
	s.mu.Unlock()
	if t != nil {
		st.State = t.conn.State()
		st.Cycles = t.conn.Cycles()
	}
	return st
}

func (s *Session) destination() string {
	return strings.TrimSpace(s.settings.String(settings.DestinationAddress))
}

func (s *Session) currentFriendlyName() string {
	s.nameMu.Lock()
	defer s.nameMu.Unlock()
	return s.friendlyName
}

// startTaskLocked replaces the running task with a new one for the
// current destination. A blank destination leaves no task running.
func (s *Session) startTaskLocked() {
	s.stopTaskLocked()

	dest := s.destination()
	if dest == "" {
		s.logger.Info("no destination address, connection idle")
		return
	}

	s.task = s.newTask(dest)
	go s.task.run()
}

func (s *Session) stopTaskLocked() {
	if s.task == nil {
		return
	}
	s.task.stop()
	s.task = nil
}

// watchSettings subscribes to the keys that change the session at run
// time. The silent flag and the PIN are read where they are used.
func (s *Session) watchSettings() {
	s.unwatch = append(s.unwatch,
		s.settings.Watch(settings.DestinationAddress, func(old, new string) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.stopped {
				return
			}
			if strings.TrimSpace(new) == "" {
				s.logger.Info("destination cleared, stopping connection", "previous", old)
				s.stopTaskLocked()
				return
			}
			if s.task != nil && s.task.dest == strings.TrimSpace(new) {
				return
			}
			s.logger.Info("destination changed", "from", old, "to", new)
			s.startTaskLocked()
		}),
		s.settings.Watch(settings.FriendlyName, func(_, new string) {
			if strings.TrimSpace(new) == "" {
				return
			}
			s.nameMu.Lock()
			changed := new != s.friendlyName
			s.friendlyName = new
			s.nameMu.Unlock()
			if changed {
				s.logger.Info("friendly name changed", "name", new)
			}
		}),
		s.settings.Watch(settings.LoginPIN, func(_, _ string) {
			s.mu.Lock()
			t := s.task
			s.mu.Unlock()
			if t != nil {
				t.wake()
			}
		}),
	)
}

// setupWatchdog shows the status notification while the link is silent.
func (s *Session) setupWatchdog() {
	s.watchdog.OnStale(func(silence time.Duration) {
		s.logger.Warn("no data from server", "silence", silence.Round(time.Second))
		s.config.Sink.Notify(notify.ChannelSilent, notify.StatusNotificationID,
			"Disconnected", fmt.Sprintf("No data from server for %s", silence.Round(time.Second)))
	})
	s.watchdog.OnRecover(func() {
		s.logger.Info("server link recovered")
		s.config.Sink.Cancel(notify.StatusNotificationID)
	})
	s.watchdog.OnStateChange(func(old, new watchdog.State) {
		s.capture(log.Event{
			Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityWatchdog,
				OldState: old.String(),
				NewState: new.String(),
			},
		})
	})
}

// capture stamps ev with the time and connection id and logs it.
func (s *Session) capture(ev log.Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	if ev.ConnectionID == "" {
		ev.ConnectionID, _ = s.connID.Load().(string)
	}
	s.config.Capture.Log(ev)
}
