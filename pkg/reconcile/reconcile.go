// Package reconcile collapses a retransmitted batch of alert entries
// before it reaches the alarm store.
//
// The server repeats recent alert traffic in a Notifies batch. A batch can
// contain an arm and the matching clear for the same alarm; in that case
// neither should produce a notification. Entries older than the last full
// sync describe state that the sync already replaced and are dropped.
//
// Acknowledging entries is the caller's job and happens before Reconcile,
// independent of the outcome here.
package reconcile

import (
	"time"

	"github.com/poltys-apps/dcare-pager-gw/pkg/alarm"
	"github.com/poltys-apps/dcare-pager-gw/pkg/wire"
)

// Entry is a batch entry with its resolved local id.
type Entry struct {
	ID    int
	Alert *wire.Alert
}

// Result is the reconciled batch.
type Result struct {
	// Arms are the surviving armed entries in arrival order.
	Arms []Entry

	// Clears are all fresh clear entries in arrival order.
	Clears []Entry

	// Stale counts entries dropped for predating the last sync.
	Stale int

	// Suppressed counts armed entries cancelled by a co-batched clear.
	Suppressed int
}

// Resolver maps a server alarm id to a local id.
type Resolver func(serverID string) int

// Reconcile deduplicates batch. lastSync is the server timestamp of the
// last full sync; a zero value disables the stale check. Entries without
// a timestamp are never stale.
func Reconcile(batch []*wire.Alert, lastSync time.Time, resolve Resolver) Result {
	var res Result

	// Candidates keep their first arrival slot; a repeated arm replaces
	// the alert in that slot.
	var order []int
	candidates := make(map[int]*wire.Alert)

	for _, a := range batch {
		if a == nil {
			continue
		}
		if isStale(a, lastSync) {
			res.Stale++
			continue
		}

		id := resolve(string(a.ID))
		if !a.Armed {
			res.Clears = append(res.Clears, Entry{ID: id, Alert: a})
			continue
		}
		if _, seen := candidates[id]; !seen {
			order = append(order, id)
		} else {
			res.Suppressed++
		}
		candidates[id] = a
	}

	for _, c := range res.Clears {
		for id := range candidates {
			if clears(c, id) {
				delete(candidates, id)
				res.Suppressed++
			}
		}
	}

	for _, id := range order {
		if a, ok := candidates[id]; ok {
			res.Arms = append(res.Arms, Entry{ID: id, Alert: a})
		}
	}
	return res
}

// clears reports whether clear entry c cancels an arm for local id.
func clears(c Entry, id int) bool {
	if c.ID == id {
		return true
	}
	if c.Alert.ClearsGroup() {
		return alarm.Group(c.ID) == alarm.Group(id)
	}
	for _, extra := range c.Alert.ExtraClears() {
		if extra == id {
			return true
		}
	}
	return false
}

func isStale(a *wire.Alert, lastSync time.Time) bool {
	if lastSync.IsZero() || a.Timestamp.IsZero() {
		return false
	}
	return a.Timestamp.Before(lastSync)
}
