package delay

import (
	"sort"
	"sync"
	"time"

	"github.com/poltys-apps/dcare-pager-gw/pkg/alarm"
)

// Pending is a delayed alarm waiting for its due time.
type Pending struct {
	ID     int
	Record alarm.Record
	Due    time.Time

	gen   uint64
	timer *time.Timer
}

// Generation identifies this scheduling of the id.
func (p *Pending) Generation() uint64 {
	return p.gen
}

// RemainingTime returns time until the entry is due.
func (p *Pending) RemainingTime(now time.Time) time.Duration {
	remaining := p.Due.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// DueFunc is called from the timer goroutine when an entry expires.
type DueFunc func(id int, gen uint64)

// Scheduler manages delayed alarms keyed by local alarm id.
type Scheduler struct {
	mu sync.Mutex

	pending map[int]*Pending
	nextGen uint64

	onDue DueFunc
	now   func() time.Time
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		pending: make(map[int]*Pending),
		now:     time.Now,
	}
}

// OnDue sets the callback for expired entries.
func (s *Scheduler) OnDue(fn DueFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDue = fn
}

// SetClock overrides the time source used to compute timer durations.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Schedule holds rec back until due, replacing any pending entry for id.
// A due time in the past fires immediately. It returns the generation of
// the new entry.
func (s *Scheduler) Schedule(id int, rec alarm.Record, due time.Time) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.pending[id]; ok {
		existing.timer.Stop()
	}

	s.nextGen++
	gen := s.nextGen

	p := &Pending{
		ID:     id,
		Record: rec,
		Due:    due,
		gen:    gen,
	}
	wait := due.Sub(s.now())
	if wait < 0 {
		wait = 0
	}
	p.timer = time.AfterFunc(wait, func() {
		s.fire(id, gen)
	})

	s.pending[id] = p
	return gen
}

// Take claims the entry for id if it still carries gen. The entry is
// removed; callers promote it to the active store.
func (s *Scheduler) Take(id int, gen uint64) (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[id]
	if !ok || p.gen != gen {
		return Pending{}, false
	}
	p.timer.Stop()
	delete(s.pending, id)
	return s.copyOf(p), true
}

// Cancel removes and stops the entry for id. Cancelling an unknown or
// already fired id is a no-op that returns false.
func (s *Scheduler) Cancel(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[id]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(s.pending, id)
	return true
}

// CancelGroup cancels every entry in the same group as id and returns
// the cancelled ids in ascending order.
func (s *Scheduler) CancelGroup(id int) []int {
	group := alarm.Group(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	var cancelled []int
	for pid, p := range s.pending {
		if alarm.Group(pid) == group {
			p.timer.Stop()
			delete(s.pending, pid)
			cancelled = append(cancelled, pid)
		}
	}
	sort.Ints(cancelled)
	return cancelled
}

// CancelAll stops every pending timer, e.g. on shutdown.
func (s *Scheduler) CancelAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.pending)
	for id, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, id)
	}
	return n
}

// Get returns a copy of the pending entry for id.
func (s *Scheduler) Get(id int) (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[id]
	if !ok {
		return Pending{}, false
	}
	return s.copyOf(p), true
}

// List returns copies of all pending entries ordered by id.
func (s *Scheduler) List() []Pending {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Pending, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, s.copyOf(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of pending entries.
func (s *Scheduler) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// copyOf returns a detached copy without the timer handle.
func (s *Scheduler) copyOf(p *Pending) Pending {
	return Pending{ID: p.ID, Record: p.Record, Due: p.Due, gen: p.gen}
}

// fire runs on the timer goroutine.
func (s *Scheduler) fire(id int, gen uint64) {
	s.mu.Lock()
	p, ok := s.pending[id]
	if !ok || p.gen != gen {
		s.mu.Unlock()
		return
	}
	callback := s.onDue
	s.mu.Unlock()

	// Call callback outside lock
	if callback != nil {
		callback(id, gen)
		return
	}

	// Without an owner the entry simply expires.
	s.Take(id, gen)
}
