package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"syscall"

	"github.com/poltys-apps/dcare-pager-gw/pkg/log"
	"github.com/poltys-apps/dcare-pager-gw/pkg/login"
	"github.com/poltys-apps/dcare-pager-gw/pkg/metrics"
	"github.com/poltys-apps/dcare-pager-gw/pkg/settings"
)

// fullSync fetches the alarm list, records the clock offset and replaces
// the active set. Failures keep the previous offset and state.
func (s *Session) fullSync(ctx context.Context, host string) {
	list, receivedAt, err := s.config.API.Alarms(ctx, host)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("full sync failed", "error", err)
		s.config.Metrics.Sync(metrics.ResultError)
		s.captureState(log.StateEntitySync, "", "FAILED", err.Error())
		return
	}

	serverTime := list.Timestamp.Time
	if serverTime.IsZero() {
		serverTime = receivedAt
	}
	offset := s.clock.Record(serverTime, receivedAt)
	s.config.Metrics.SetClockOffset(offset.Seconds())

	res := s.proc.ApplyFullSync(list)
	s.config.Metrics.Sync(metrics.ResultSuccess)
	s.logger.Info("full sync",
		"active", res.Active,
		"scheduled", res.Scheduled,
		"dropped", res.Dropped,
		"removed", len(res.Removed),
		"offset", offset)
	s.captureState(log.StateEntitySync, "", "SYNCED",
		fmt.Sprintf("active=%d scheduled=%d offset=%s", res.Active, res.Scheduled, offset))
}

// loginSync refreshes the escalation profiles when the PIN changed or the
// previous login is older than the refresh interval.
func (s *Session) loginSync(ctx context.Context, host string) {
	pin := strings.TrimSpace(s.settings.String(settings.LoginPIN))
	if !s.login.Due(pin) {
		return
	}
	res, changed, err := s.login.Sync(ctx, host, pin, s.currentFriendlyName())
	switch {
	case errors.Is(err, login.ErrInvalidPIN):
		s.config.Metrics.Login(metrics.ResultInvalid)
		s.captureState(log.StateEntityLogin, "", "INVALID_PIN", "")
	case err != nil:
		if ctx.Err() != nil {
			return
		}
		s.config.Metrics.Login(metrics.ResultError)
		s.captureState(log.StateEntityLogin, "", "FAILED", err.Error())
	case changed:
		s.config.Metrics.Login(metrics.ResultSuccess)
		s.captureState(log.StateEntityLogin, "", "LOGGED_IN", strings.Join(res.Profiles.Names(), ","))
		if res.LoginName != "" && res.LoginName != s.settings.String(settings.LoginName) {
			if err := s.settings.Set(settings.LoginName, res.LoginName); err != nil {
				s.logger.Warn("login name not saved", "error", err)
			}
		}
	}
}

// socketFault records a socket error. Errno faults are logged only when
// the errno differs from the previous one; other faults are always logged.
func (s *Session) socketFault(err error) {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		s.config.Metrics.SocketError("none")
		s.captureError(err, nil)
		s.logger.Warn("socket error, reconnecting", "error", err, "retry_in", s.config.RetryDelay)
		return
	}

	code := int(errno)
	s.config.Metrics.SocketError(strconv.Itoa(code))
	s.captureError(err, &code)

	s.errMu.Lock()
	repeat := errno == s.lastErrno
	s.lastErrno = errno
	s.errMu.Unlock()
	if repeat {
		return
	}
	s.logger.Warn("socket error, reconnecting", "error", err, "errno", code, "retry_in", s.config.RetryDelay)
}

func (s *Session) captureState(entity log.StateEntity, old, new, reason string) {
	s.capture(log.Event{
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   entity,
			OldState: old,
			NewState: new,
			Reason:   reason,
		},
	})
}

func (s *Session) captureError(err error, code *int) {
	s.capture(log.Event{
		Category: log.CategoryError,
		Error:    &log.ErrorEventData{Message: err.Error(), Code: code, Context: "socket"},
	})
}
