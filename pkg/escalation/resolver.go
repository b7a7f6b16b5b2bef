// Package escalation decides how long an armed alert waits before it is
// shown to the logged-in user.
//
// Each alert may carry a map of escalation profile name to delay in
// seconds. A login subscribes the pager to a set of profiles. The alert's
// delay is the smallest delay among the profiles both sides share; an
// alert that shares no profile with the login is not meant for this pager.
package escalation

import (
	"sort"
	"sync/atomic"
)

// Profiles is a set of escalation profile names.
type Profiles map[string]struct{}

// NewProfiles builds a set from names.
func NewProfiles(names ...string) Profiles {
	p := make(Profiles, len(names))
	for _, n := range names {
		p[n] = struct{}{}
	}
	return p
}

// Has reports whether name is in the set.
func (p Profiles) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// Names returns the profile names sorted.
func (p Profiles) Names() []string {
	out := make([]string, 0, len(p))
	for n := range p {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// DelayFor returns the delay in seconds for an alert with the given
// profile delays, and false when the alert must be dropped.
//
// Without a login context or without profile delays the alert is
// delivered at once.
func DelayFor(alertDelays map[string]int, subscribed Profiles) (int, bool) {
	if len(subscribed) == 0 || len(alertDelays) == 0 {
		return 0, true
	}

	best, found := 0, false
	for name, d := range alertDelays {
		if !subscribed.Has(name) {
			continue
		}
		if d < 0 {
			d = 0
		}
		if !found || d < best {
			best, found = d, true
		}
	}
	return best, found
}

// Resolver holds the subscribed profile set from the last successful
// login. The set is swapped atomically, so DelayFor may run concurrently
// with SetProfiles.
type Resolver struct {
	profiles atomic.Pointer[Profiles]
}

// NewResolver creates a resolver with no subscribed profiles.
func NewResolver() *Resolver {
	r := &Resolver{}
	empty := Profiles{}
	r.profiles.Store(&empty)
	return r
}

// SetProfiles replaces the subscribed set.
func (r *Resolver) SetProfiles(p Profiles) {
	cp := make(Profiles, len(p))
	for n := range p {
		cp[n] = struct{}{}
	}
	r.profiles.Store(&cp)
}

// Profiles returns the current subscribed set. Callers must not modify it.
func (r *Resolver) Profiles() Profiles {
	return *r.profiles.Load()
}

// DelayFor applies DelayFor against the current subscribed set.
func (r *Resolver) DelayFor(alertDelays map[string]int) (int, bool) {
	return DelayFor(alertDelays, r.Profiles())
}
