package escalation

import (
	"testing"
)

func TestDelayFor(t *testing.T) {
	tests := []struct {
		name      string
		delays    map[string]int
		sub       Profiles
		wantDelay int
		wantOK    bool
	}{
		{"NoDelaysAnyLogin", map[string]int{}, NewProfiles("A"), 0, true},
		{"NilDelays", nil, NewProfiles("A", "B"), 0, true},
		{"NoLogin", map[string]int{"A": 30}, NewProfiles(), 0, true},
		{"NilLogin", map[string]int{"A": 30}, nil, 0, true},
		{"MinOfIntersection", map[string]int{"A": 30, "B": 10}, NewProfiles("B"), 10, true},
		{"MinAcrossShared", map[string]int{"A": 30, "B": 10, "C": 5}, NewProfiles("A", "B"), 10, true},
		{"ZeroDelayShared", map[string]int{"A": 0, "B": 10}, NewProfiles("A", "B"), 0, true},
		{"DisjointIsDropped", map[string]int{"A": 30}, NewProfiles("B"), 0, false},
		{"NegativeClampedToZero", map[string]int{"A": -3}, NewProfiles("A"), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := DelayFor(tt.delays, tt.sub)
			if d != tt.wantDelay || ok != tt.wantOK {
				t.Errorf("DelayFor() = (%d, %v), want (%d, %v)", d, ok, tt.wantDelay, tt.wantOK)
			}
		})
	}
}

func TestResolver(t *testing.T) {
	r := NewResolver()

	if d, ok := r.DelayFor(map[string]int{"A": 30}); !ok || d != 0 {
		t.Errorf("empty resolver DelayFor = (%d, %v), want (0, true)", d, ok)
	}

	src := NewProfiles("B")
	r.SetProfiles(src)
	src["A"] = struct{}{} // caller's map must not leak into the resolver

	if _, ok := r.DelayFor(map[string]int{"A": 30}); ok {
		t.Error("expected alert for profile A to be dropped")
	}
	if d, ok := r.DelayFor(map[string]int{"A": 30, "B": 10}); !ok || d != 10 {
		t.Errorf("DelayFor = (%d, %v), want (10, true)", d, ok)
	}

	if got := r.Profiles().Names(); len(got) != 1 || got[0] != "B" {
		t.Errorf("Profiles().Names() = %v, want [B]", got)
	}
}
