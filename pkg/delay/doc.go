// Package delay holds armed alarms back until their escalation delay has
// passed.
//
// # Timer Lifecycle
//
// Schedule starts one timer per local alarm id. When it expires the
// scheduler calls the due callback with the id and a generation number;
// the owner then calls Take with both to claim the entry. Take fails when
// the entry was cancelled or rescheduled in the meantime, which makes a
// late-firing timer harmless.
//
// # Replacement
//
// Scheduling an id that is already pending replaces the earlier entry and
// stops its timer. There is no stacking.
//
// # Groups
//
// CancelGroup removes every pending entry whose id / 10 matches, mirroring
// a group reset clear on the active alarm store.
//
// # Locking
//
// The scheduler has its own mutex for its map. Owners that need to update
// the scheduler and another structure atomically wrap both calls in their
// own lock and always take it before calling into the scheduler. The due
// callback is invoked without the scheduler's lock held.
package delay
