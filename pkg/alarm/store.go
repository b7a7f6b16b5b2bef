package alarm

import (
	"maps"
	"sort"
	"sync"
	"sync/atomic"
)

// Snapshot is an immutable view of the active alarms.
// Callers must not modify it.
type Snapshot map[int]Record

// IDs returns the snapshot's ids in ascending order.
func (s Snapshot) IDs() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Store holds the map of currently active alarms.
//
// Writers are serialised; each write publishes a new map, so readers
// calling Snapshot never observe a partially applied mutation.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]

	watchers map[int]func(Snapshot)
	nextW    int
}

// NewStore creates an empty store.
func NewStore() *Store {
	s := &Store{watchers: make(map[int]func(Snapshot))}
	empty := Snapshot{}
	s.current.Store(&empty)
	return s
}

// Snapshot returns the current active alarms.
func (s *Store) Snapshot() Snapshot {
	return *s.current.Load()
}

// Get returns the record for id, if active.
func (s *Store) Get(id int) (Record, bool) {
	r, ok := s.Snapshot()[id]
	return r, ok
}

// Len returns the number of active alarms.
func (s *Store) Len() int {
	return len(s.Snapshot())
}

// Apply marks id as active with the given record.
func (s *Store) Apply(id int, rec Record) {
	s.mutate(func(m Snapshot) ([]int, bool) {
		m[id] = rec
		return []int{id}, true
	})
}

// Remove clears a single id. It reports whether the id was active.
func (s *Store) Remove(id int) bool {
	removed := s.mutate(func(m Snapshot) ([]int, bool) {
		if _, ok := m[id]; !ok {
			return nil, false
		}
		delete(m, id)
		return []int{id}, true
	})
	return len(removed) > 0
}

// RemoveGroup clears every id whose group equals group and returns
// the removed ids in ascending order.
func (s *Store) RemoveGroup(group int) []int {
	return s.mutate(func(m Snapshot) ([]int, bool) {
		var removed []int
		for id := range m {
			if Group(id) == group {
				delete(m, id)
				removed = append(removed, id)
			}
		}
		sort.Ints(removed)
		return removed, len(removed) > 0
	})
}

// Replace swaps the whole map, as done after a full sync.
func (s *Store) Replace(next map[int]Record) {
	s.mutate(func(m Snapshot) ([]int, bool) {
		clear(m)
		maps.Copy(m, next)
		return nil, true
	})
}

// Watch registers fn to be called with every new snapshot. fn runs on the
// writer's goroutine after the snapshot is published and must not block.
// The returned function unregisters the watcher.
func (s *Store) Watch(fn func(Snapshot)) (stop func()) {
	s.mu.Lock()
	id := s.nextW
	s.nextW++
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// mutate copies the current map, lets fn edit the copy and publishes it.
// fn returns the ids it touched and whether anything changed; nothing is
// published for a no-op.
func (s *Store) mutate(fn func(m Snapshot) ([]int, bool)) []int {
	s.mu.Lock()

	next := maps.Clone(*s.current.Load())
	if next == nil {
		next = Snapshot{}
	}
	touched, changed := fn(next)
	if !changed {
		s.mu.Unlock()
		return nil
	}
	s.current.Store(&next)

	watchers := make([]func(Snapshot), 0, len(s.watchers))
	for _, w := range s.watchers {
		watchers = append(watchers, w)
	}
	s.mu.Unlock()

	for _, w := range watchers {
		w(next)
	}
	return touched
}
