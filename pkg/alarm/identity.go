package alarm

import (
	"strconv"
	"sync"
)

const (
	// MaxNumericID is the exclusive upper bound for server ids that are
	// used directly as local ids.
	MaxNumericID = 1_000_000

	// FirstAssignedID is the first id handed out to other server ids. It
	// sits past the pass-through range so no two server ids share a local id.
	FirstAssignedID = MaxNumericID
)

// Mapper converts server alarm ids into stable local ids.
// It is safe for concurrent use.
type Mapper struct {
	mu       sync.Mutex
	assigned map[string]int
	next     int
}

// NewMapper creates an empty mapper.
func NewMapper() *Mapper {
	return &Mapper{
		assigned: make(map[string]int),
		next:     FirstAssignedID,
	}
}

// Resolve returns the local id for serverID.
//
// Numeric ids below MaxNumericID map to themselves. Every other non-empty
// string is assigned the next sequential id on first sight and keeps it.
// An empty id resolves to 0.
func (m *Mapper) Resolve(serverID string) int {
	if n, err := strconv.ParseUint(serverID, 10, 64); err == nil && n < MaxNumericID {
		return int(n)
	}
	if serverID == "" {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.assigned[serverID]; ok {
		return id
	}
	id := m.next
	m.next++
	m.assigned[serverID] = id
	return id
}

// Assigned returns how many non-numeric ids have been memoized.
func (m *Mapper) Assigned() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.assigned)
}
