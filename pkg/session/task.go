package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/poltys-apps/dcare-pager-gw/pkg/connection"
	"github.com/poltys-apps/dcare-pager-gw/pkg/log"
	"github.com/poltys-apps/dcare-pager-gw/pkg/wire"
)

// task is one connection task for a fixed destination. Everything except
// stop, finished and wake runs on the task goroutine.
type task struct {
	s    *Session
	dest string
	addr string

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	conn   *connection.Manager
	sock   atomic.Pointer[net.UDPConn]
	woken  atomic.Bool

	lastHeartbeat   time.Time
	lastSyncAttempt time.Time
}

func (s *Session) newTask(dest string) *task {
	ctx, cancel := context.WithCancel(context.Background())
	t := &task{
		s:      s,
		dest:   dest,
		addr:   net.JoinHostPort(dest, strconv.Itoa(s.config.Port)),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		conn:   connection.NewManagerWithBackoff(connection.NewFixedBackoff(s.config.RetryDelay)),
	}

	t.conn.OnStateChange(func(old, new connection.State) {
		s.config.Metrics.SetConnected(new == connection.StateConnected)
		s.capture(log.Event{
			Category:   log.CategoryState,
			RemoteAddr: t.addr,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityConnection,
				OldState: old.String(),
				NewState: new.String(),
			},
		})
	})
	t.conn.OnConnected(func() {
		s.logger.Info("socket connected", "destination", t.addr, "connection_id", s.connID.Load())
	})
	t.conn.OnDisconnected(func(err error) {
		s.logger.Debug("link lost", "destination", t.addr, "reason", err)
	})
	t.conn.OnRetry(func(attempt int, delay time.Duration) {
		s.config.Metrics.Reconnect()
		s.logger.Debug("reconnecting", "destination", t.addr, "attempt", attempt, "delay", delay)
	})
	return t
}

func (t *task) run() {
	defer close(t.done)
	err := t.conn.Run(t.ctx, t.dial, t.serve)
	t.s.logger.Debug("connection task ended", "destination", t.addr, "reason", err)
}

// stop cancels the task and waits for its goroutine to exit.
func (t *task) stop() {
	t.cancel()
	t.conn.Close()
	<-t.done
}

func (t *task) finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// wake interrupts a blocked receive so housekeeping runs now. The flag
// covers a wake that lands before iterate re-arms the read deadline.
func (t *task) wake() {
	t.woken.Store(true)
	if c := t.sock.Load(); c != nil {
		_ = c.SetReadDeadline(time.Now())
	}
}

func (t *task) dial(ctx context.Context) error {
	var d net.Dialer
	c, err := d.DialContext(ctx, "udp", t.addr)
	if err != nil {
		err = fmt.Errorf("dial %s: %w", t.addr, err)
		if ctx.Err() == nil {
			t.s.socketFault(err)
		}
		return err
	}
	udp, ok := c.(*net.UDPConn)
	if !ok {
		c.Close()
		return fmt.Errorf("dial %s: unexpected connection type %T", t.addr, c)
	}

	t.sock.Store(udp)
	t.s.connID.Store(uuid.NewString())
	t.s.clock.ResetCycle()
	t.lastHeartbeat = time.Time{}
	t.lastSyncAttempt = time.Time{}
	return nil
}

func (t *task) serve(ctx context.Context) error {
	c := t.sock.Load()
	if c == nil {
		return connection.ErrNotConnected
	}
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer func() {
		stop()
		t.sock.Store(nil)
		c.Close()
	}()

	buf := make([]byte, wire.MaxDatagramSize)
	for {
		err := t.iterate(ctx, c, buf)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			t.s.socketFault(err)
			return err
		}
	}
}

// iterate runs housekeeping and one bounded receive. A panic is turned
// into an error so the task treats it like a socket fault.
func (t *task) iterate(ctx context.Context, c *net.UDPConn, buf []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			t.s.logger.Error("connection loop panic", "destination", t.addr, "panic", r)
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	t.woken.Store(false)
	if err := t.housekeeping(ctx, c); err != nil {
		return err
	}

	if err := c.SetReadDeadline(time.Now().Add(t.s.config.ReadTimeout)); err != nil {
		return err
	}
	if t.woken.Load() {
		return nil
	}
	n, err := c.Read(buf)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil
		}
		return err
	}

	t.s.watchdog.Feed()
	return t.handleDatagram(c, buf[:n])
}

func (t *task) housekeeping(ctx context.Context, c *net.UDPConn) error {
	now := time.Now()

	if t.lastHeartbeat.IsZero() || now.Sub(t.lastHeartbeat) >= t.s.config.HeartbeatInterval {
		t.lastHeartbeat = now
		if err := t.heartbeat(c); err != nil {
			return err
		}
	}

	if t.s.clock.NeedsSync() &&
		(t.lastSyncAttempt.IsZero() || now.Sub(t.lastSyncAttempt) >= t.s.config.SyncRetryInterval) {
		t.lastSyncAttempt = now
		t.s.fullSync(ctx, t.dest)
	}

	t.s.loginSync(ctx, t.dest)
	return nil
}

// heartbeat sends Register and then uploads any buffered log lines.
func (t *task) heartbeat(c *net.UDPConn) error {
	seq := t.s.seq.Add(1)
	name := t.s.currentFriendlyName()

	data, err := wire.EncodeRegister(int(seq), name)
	if err != nil {
		return err
	}
	t.s.logger.Debug("sending register", "seq_no", seq, "friendly_name", name)
	if err := t.send(c, data, "register"); err != nil {
		return err
	}

	lines := t.s.config.Buffer.Drain()
	if len(lines) == 0 {
		return nil
	}
	data, err = wire.EncodeLogs(lines)
	if err != nil {
		return err
	}
	return t.send(c, data, "logs")
}

func (t *task) handleDatagram(c *net.UDPConn, data []byte) error {
	t.s.capture(log.Event{
		Direction:  log.DirectionIn,
		Category:   log.CategoryDatagram,
		RemoteAddr: t.addr,
		Datagram:   log.NewDatagramEvent(data),
	})

	msg, err := wire.Decode(data)
	if err != nil {
		t.s.logger.Warn("malformed datagram dropped", "error", err, "size", len(data))
		t.s.config.Metrics.Datagram("in", "invalid")
		t.s.capture(log.Event{
			Category:   log.CategoryError,
			RemoteAddr: t.addr,
			Error:      &log.ErrorEventData{Message: err.Error(), Context: "decode"},
		})
		return nil
	}

	if msg.Alert != nil {
		t.s.config.Metrics.Datagram("in", "alert")
		if err := t.ack(c, msg.Alert.SeqNo); err != nil {
			return err
		}
		t.s.proc.HandleAlert(msg.Alert)
		return nil
	}

	t.s.config.Metrics.Datagram("in", "notifies")
	batch := msg.Alerts()
	for _, a := range batch {
		if err := t.ack(c, a.SeqNo); err != nil {
			return err
		}
	}
	t.s.proc.HandleBatch(batch)
	return nil
}

func (t *task) ack(c *net.UDPConn, seqNo int) error {
	data, err := wire.EncodeAck(seqNo)
	if err != nil {
		return err
	}
	if err := t.send(c, data, "ack"); err != nil {
		return err
	}
	t.s.config.Metrics.Ack()
	return nil
}

func (t *task) send(c *net.UDPConn, data []byte, kind string) error {
	if c == nil {
		return connection.ErrNotConnected
	}
	if _, err := c.Write(data); err != nil {
		return fmt.Errorf("send %s: %w", kind, err)
	}
	t.s.config.Metrics.Datagram("out", kind)
	t.s.capture(log.Event{
		Direction:  log.DirectionOut,
		Category:   log.CategoryDatagram,
		RemoteAddr: t.addr,
		Datagram:   log.NewDatagramEvent(data),
	})
	return nil
}
