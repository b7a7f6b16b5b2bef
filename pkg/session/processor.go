package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/poltys-apps/dcare-pager-gw/pkg/alarm"
	"github.com/poltys-apps/dcare-pager-gw/pkg/clocksync"
	"github.com/poltys-apps/dcare-pager-gw/pkg/delay"
	"github.com/poltys-apps/dcare-pager-gw/pkg/escalation"
	"github.com/poltys-apps/dcare-pager-gw/pkg/log"
	"github.com/poltys-apps/dcare-pager-gw/pkg/metrics"
	"github.com/poltys-apps/dcare-pager-gw/pkg/notify"
	"github.com/poltys-apps/dcare-pager-gw/pkg/reconcile"
	"github.com/poltys-apps/dcare-pager-gw/pkg/serverapi"
	"github.com/poltys-apps/dcare-pager-gw/pkg/wire"
)

// Alert action labels for metrics.
const (
	actionNotified   = "notified"
	actionScheduled  = "scheduled"
	actionDropped    = "dropped"
	actionCleared    = "cleared"
	actionSuppressed = "suppressed"
	actionStale      = "stale"
	actionPromoted   = "promoted"
	actionInvalid    = "invalid"
)

// ProcessorConfig wires a Processor. Zero fields get fresh instances.
type ProcessorConfig struct {
	Store     *alarm.Store
	Scheduler *delay.Scheduler
	Mapper    *alarm.Mapper
	Resolver  *escalation.Resolver
	Clock     *clocksync.Sync
	Sink      notify.Sink

	// Silent reports whether alarms go to the silent channel.
	Silent func() bool

	// Now overrides the clock, for tests.
	Now func() time.Time

	// OnAlert receives one event per decision. Optional.
	OnAlert func(ev *log.AlertEvent)

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Processor applies alert entries to the active store and the pending
// delay set under one lock.
//
// Sink calls are made with the lock held so that a Notify and a later
// Cancel for the same id reach the sink in order. Sinks must not call
// back into the Processor.
type Processor struct {
	mu sync.Mutex

	store    *alarm.Store
	pending  *delay.Scheduler
	mapper   *alarm.Mapper
	resolver *escalation.Resolver
	clock    *clocksync.Sync
	sink     notify.Sink
	silent   func() bool
	now      func() time.Time
	onAlert  func(ev *log.AlertEvent)
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// SyncResult summarises a full sync application.
type SyncResult struct {
	Active    int
	Scheduled int
	Dropped   int
	Notified  []int
	Removed   []int
}

// NewProcessor creates a processor and registers it as the scheduler's
// due callback.
func NewProcessor(cfg ProcessorConfig) *Processor {
	p := &Processor{
		store:    cfg.Store,
		pending:  cfg.Scheduler,
		mapper:   cfg.Mapper,
		resolver: cfg.Resolver,
		clock:    cfg.Clock,
		sink:     cfg.Sink,
		silent:   cfg.Silent,
		now:      cfg.Now,
		onAlert:  cfg.OnAlert,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
	if p.store == nil {
		p.store = alarm.NewStore()
	}
	if p.pending == nil {
		p.pending = delay.NewScheduler()
	}
	if p.mapper == nil {
		p.mapper = alarm.NewMapper()
	}
	if p.resolver == nil {
		p.resolver = escalation.NewResolver()
	}
	if p.clock == nil {
		p.clock = clocksync.New()
	}
	if p.sink == nil {
		p.sink = notify.NewMemorySink()
	}
	if p.silent == nil {
		p.silent = func() bool { return false }
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	p.pending.OnDue(p.promote)
	return p
}

// Store returns the active alarm store.
func (p *Processor) Store() *alarm.Store { return p.store }

// Pending returns the delay scheduler.
func (p *Processor) Pending() *delay.Scheduler { return p.pending }

// HandleAlert processes one alert received on its own.
func (p *Processor) HandleAlert(a *wire.Alert) {
	if a == nil {
		return
	}
	id := p.mapper.Resolve(string(a.ID))

	p.mu.Lock()
	defer p.mu.Unlock()

	if a.Armed {
		p.armLocked(id, a)
	} else {
		p.clearLocked(id, a)
	}
	p.updateGaugesLocked()
}

// HandleBatch reconciles a retransmit batch and processes the survivors.
// Clears are applied before arms.
func (p *Processor) HandleBatch(batch []*wire.Alert) reconcile.Result {
	res := reconcile.Reconcile(batch, p.clock.LastServerTime(), p.mapper.Resolve)

	for i := 0; i < res.Stale; i++ {
		p.metrics.Alert(actionStale)
	}
	for i := 0; i < res.Suppressed; i++ {
		p.metrics.Alert(actionSuppressed)
	}
	if res.Stale > 0 || res.Suppressed > 0 {
		p.logger.Debug("batch reconciled",
			"entries", len(batch),
			"arms", len(res.Arms),
			"clears", len(res.Clears),
			"stale", res.Stale,
			"suppressed", res.Suppressed)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range res.Clears {
		p.clearLocked(c.ID, c.Alert)
	}
	for _, a := range res.Arms {
		p.armLocked(a.ID, a.Alert)
	}
	p.updateGaugesLocked()
	return res
}

// ApplyFullSync replaces the active set with the server's alarm list.
// Listed alarms already due become active, later ones are scheduled.
// Active alarms missing from the list are removed and their
// notifications cancelled; pending ones missing from the list are
// cancelled.
func (p *Processor) ApplyFullSync(list *serverapi.AlarmList) SyncResult {
	var res SyncResult
	if list == nil {
		return res
	}
	now := p.now()

	p.mu.Lock()
	defer p.mu.Unlock()

	next := make(map[int]alarm.Record, len(list.Alarms))
	scheduled := make(map[int]bool)

	for i := range list.Alarms {
		e := &list.Alarms[i]
		if e.ID == "" {
			res.Dropped++
			continue
		}
		id := p.mapper.Resolve(string(e.ID))

		d, ok := p.resolver.DelayFor(e.ProfileDelays)
		if !ok {
			res.Dropped++
			continue
		}
		base := p.baseTime(e.Timestamp, now)
		rec := alarm.NewRecord(alarm.SenderName(e.DeviceName, ""), e.Subject, e.PriorityOrDefault(), base, now)
		due := base.Add(time.Duration(d) * time.Second)

		if due.After(now) {
			p.pending.Schedule(id, rec, due)
			scheduled[id] = true
			continue
		}
		next[id] = rec
	}

	for _, pend := range p.pending.List() {
		if !scheduled[pend.ID] {
			p.pending.Cancel(pend.ID)
		}
	}

	prev := p.store.Snapshot()
	p.store.Replace(next)

	for _, id := range prev.IDs() {
		if _, still := next[id]; !still {
			p.sink.Cancel(id)
			res.Removed = append(res.Removed, id)
		}
	}
	ch := p.channel()
	for _, id := range alarm.Snapshot(next).IDs() {
		if _, was := prev[id]; !was {
			rec := next[id]
			p.sink.Notify(ch, id, rec.Sender, rec.Message)
			res.Notified = append(res.Notified, id)
		}
	}

	res.Active = len(next)
	res.Scheduled = len(scheduled)
	p.updateGaugesLocked()
	return res
}

// Shutdown cancels every pending delayed alarm.
func (p *Processor) Shutdown() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.pending.CancelAll()
	p.updateGaugesLocked()
	return n
}

func (p *Processor) armLocked(id int, a *wire.Alert) {
	ev := &log.AlertEvent{SeqNo: a.SeqNo, ServerID: string(a.ID), LocalID: id}

	if a.ID == "" {
		p.logger.Warn("alert without id dropped", "seq_no", a.SeqNo)
		p.metrics.Alert(actionInvalid)
		ev.Action = log.AlertDropped
		p.emit(ev)
		return
	}

	d, ok := p.resolver.DelayFor(a.ProfileDelays)
	if !ok {
		p.logger.Debug("alert dropped, no subscribed profile", "id", id, "seq_no", a.SeqNo)
		p.metrics.Alert(actionDropped)
		ev.Action = log.AlertDropped
		p.emit(ev)
		return
	}

	now := p.now()
	base := p.baseTime(a.Timestamp, now)
	rec := alarm.NewRecord(alarm.SenderName(a.DeviceName, a.Resident), a.Subject, a.PriorityOrDefault(), base, now)

	if d == 0 {
		p.pending.Cancel(id)
		p.activateLocked(id, rec)
		p.logger.Info("alarm armed", "id", id, "server_id", string(a.ID), "sender", rec.Sender, "seq_no", a.SeqNo)
		p.metrics.Alert(actionNotified)
		ev.Action = log.AlertNotified
		p.emit(ev)
		return
	}

	delayFor := time.Duration(d) * time.Second
	p.pending.Schedule(id, rec, base.Add(delayFor))
	p.logger.Info("alarm delayed", "id", id, "server_id", string(a.ID), "delay", delayFor, "seq_no", a.SeqNo)
	p.metrics.Alert(actionScheduled)
	ev.Action = log.AlertScheduled
	ev.Delay = delayFor
	p.emit(ev)
}

func (p *Processor) clearLocked(id int, a *wire.Alert) {
	var removed []int

	if a.ClearsGroup() {
		removed = p.store.RemoveGroup(alarm.Group(id))
		p.pending.CancelGroup(id)
	} else {
		for _, target := range append([]int{id}, a.ExtraClears()...) {
			if p.store.Remove(target) {
				removed = append(removed, target)
			}
			p.pending.Cancel(target)
		}
	}

	for _, rid := range removed {
		p.sink.Cancel(rid)
	}

	p.logger.Info("alarm cleared",
		"id", id,
		"server_id", string(a.ID),
		"group", a.ClearsGroup(),
		"removed", removed,
		"seq_no", a.SeqNo)
	p.metrics.Alert(actionCleared)
	p.emit(&log.AlertEvent{
		Action:   log.AlertCleared,
		SeqNo:    a.SeqNo,
		ServerID: string(a.ID),
		LocalID:  id,
		Affected: removed,
	})
}

// promote is the scheduler's due callback.
func (p *Processor) promote(id int, gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pend, ok := p.pending.Take(id, gen)
	if !ok {
		return
	}
	p.activateLocked(id, pend.Record)
	p.updateGaugesLocked()

	p.logger.Info("delayed alarm due", "id", id, "sender", pend.Record.Sender)
	p.metrics.Alert(actionPromoted)
	p.emit(&log.AlertEvent{Action: log.AlertPromoted, LocalID: id})
}

func (p *Processor) activateLocked(id int, rec alarm.Record) {
	p.store.Apply(id, rec)
	p.sink.Notify(p.channel(), id, rec.Sender, rec.Message)
}

// baseTime converts a server timestamp into local time. A missing
// timestamp means now, without offset.
func (p *Processor) baseTime(ts wire.Timestamp, now time.Time) time.Time {
	if ts.IsZero() {
		return now
	}
	return p.clock.Correct(ts.Time)
}

func (p *Processor) channel() notify.Channel {
	if p.silent() {
		return notify.ChannelSilent
	}
	return notify.ChannelAudible
}

func (p *Processor) updateGaugesLocked() {
	p.metrics.SetAlarms(p.store.Len(), p.pending.Count())
}

func (p *Processor) emit(ev *log.AlertEvent) {
	if p.onAlert != nil {
		p.onAlert(ev)
	}
}
