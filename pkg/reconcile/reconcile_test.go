package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/poltys-apps/dcare-pager-gw/pkg/alarm"
	"github.com/poltys-apps/dcare-pager-gw/pkg/wire"
)

var syncTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func armed(seq int, id string) *wire.Alert {
	return &wire.Alert{SeqNo: seq, Armed: true, ID: wire.AlarmID(id), Subject: "arm " + id}
}

func cleared(seq int, id string) *wire.Alert {
	return &wire.Alert{SeqNo: seq, ID: wire.AlarmID(id)}
}

func ids(entries []Entry) []int {
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestReconcile(t *testing.T) {
	groupReset := cleared(9, "50")
	groupReset.Reset = true
	groupReset.HasSubID = true

	resetOnly := cleared(9, "50")
	resetOnly.Reset = true

	resetWithExtras := cleared(9, "50")
	resetWithExtras.Reset = true
	resetWithExtras.HasSubID = true
	resetWithExtras.ExtraIDs = []int{7}

	withExtras := cleared(9, "1")
	withExtras.ExtraIDs = []int{2, 3}

	old := armed(1, "8")
	old.Timestamp = wire.Timestamp{Time: syncTime.Add(-time.Second)}
	fresh := armed(2, "9")
	fresh.Timestamp = wire.Timestamp{Time: syncTime.Add(time.Second)}

	tests := []struct {
		name       string
		batch      []*wire.Alert
		wantArms   []int
		wantClears []int
		wantStale  int
	}{
		{
			name:       "ArmThenClear",
			batch:      []*wire.Alert{armed(1, "5"), cleared(2, "5")},
			wantArms:   []int{},
			wantClears: []int{5},
		},
		{
			name:       "ClearThenArm",
			batch:      []*wire.Alert{cleared(1, "5"), armed(2, "5")},
			wantArms:   []int{},
			wantClears: []int{5},
		},
		{
			name:       "UnrelatedClearKeepsArm",
			batch:      []*wire.Alert{armed(1, "5"), cleared(2, "6")},
			wantArms:   []int{5},
			wantClears: []int{6},
		},
		{
			name:       "GroupReset",
			batch:      []*wire.Alert{armed(1, "51"), armed(2, "59"), armed(3, "60"), groupReset},
			wantArms:   []int{60},
			wantClears: []int{50},
		},
		{
			name:       "GroupResetIgnoresExtraIDs",
			batch:      []*wire.Alert{armed(1, "51"), armed(2, "7"), resetWithExtras},
			wantArms:   []int{7},
			wantClears: []int{50},
		},
		{
			name:       "ResetWithoutSubIDIsSingle",
			batch:      []*wire.Alert{armed(1, "51"), resetOnly},
			wantArms:   []int{51},
			wantClears: []int{50},
		},
		{
			name:       "ExtraIDs",
			batch:      []*wire.Alert{armed(1, "2"), armed(2, "3"), armed(3, "4"), withExtras},
			wantArms:   []int{4},
			wantClears: []int{1},
		},
		{
			name:       "ArrivalOrderKept",
			batch:      []*wire.Alert{armed(1, "30"), armed(2, "10"), armed(3, "20")},
			wantArms:   []int{30, 10, 20},
			wantClears: []int{},
		},
		{
			name:       "StaleDropped",
			batch:      []*wire.Alert{old, fresh, armed(3, "7")},
			wantArms:   []int{9, 7},
			wantClears: []int{},
			wantStale:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := alarm.NewMapper()
			res := Reconcile(tt.batch, syncTime, m.Resolve)

			assert.Equal(t, tt.wantArms, ids(res.Arms))
			assert.Equal(t, tt.wantClears, ids(res.Clears))
			assert.Equal(t, tt.wantStale, res.Stale)
		})
	}
}

func TestReconcileRepeatedArmKeepsFirstSlot(t *testing.T) {
	first := armed(1, "5")
	second := armed(3, "5")
	second.Subject = "updated"

	res := Reconcile([]*wire.Alert{first, armed(2, "6"), second}, time.Time{}, alarm.NewMapper().Resolve)

	assert.Equal(t, []int{5, 6}, ids(res.Arms))
	assert.Equal(t, "updated", res.Arms[0].Alert.Subject)
	assert.Equal(t, 1, res.Suppressed)
}

func TestReconcileNoSyncDisablesStaleCheck(t *testing.T) {
	a := armed(1, "5")
	a.Timestamp = wire.Timestamp{Time: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)}

	res := Reconcile([]*wire.Alert{a}, time.Time{}, alarm.NewMapper().Resolve)
	assert.Equal(t, []int{5}, ids(res.Arms))
}

func TestReconcileStringIDs(t *testing.T) {
	m := alarm.NewMapper()
	res := Reconcile([]*wire.Alert{armed(1, "door-a"), cleared(2, "door-a"), armed(3, "door-b")}, time.Time{}, m.Resolve)

	assert.Equal(t, []int{alarm.FirstAssignedID + 1}, ids(res.Arms))
	assert.Equal(t, []int{alarm.FirstAssignedID}, ids(res.Clears))
}

func TestReconcileSkipsNil(t *testing.T) {
	res := Reconcile([]*wire.Alert{nil, armed(1, "5")}, time.Time{}, alarm.NewMapper().Resolve)
	assert.Equal(t, []int{5}, ids(res.Arms))
}
