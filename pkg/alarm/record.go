package alarm

import (
	"strings"
	"time"
)

// Priority bounds. 1 is the most urgent.
const (
	PriorityHighest = 1
	PriorityLowest  = 5

	// DefaultPriority is used when the server omits the priority.
	DefaultPriority = 4
)

// Record is the user-facing content of one active alarm.
// Records are values; a new Record is built for every state transition.
type Record struct {
	Sender    string
	Message   string
	Priority  int
	Timestamp time.Time
}

// NewRecord builds a Record, normalising priority into [1,5] and
// defaulting a zero timestamp to now.
func NewRecord(sender, message string, priority int, ts time.Time, now time.Time) Record {
	if priority < PriorityHighest || priority > PriorityLowest {
		priority = DefaultPriority
	}
	if ts.IsZero() {
		ts = now
	}
	return Record{
		Sender:    sender,
		Message:   message,
		Priority:  priority,
		Timestamp: ts,
	}
}

// SenderName joins the device name and resident into a notification title.
// Empty parts are skipped, so an alert with neither yields "".
func SenderName(deviceName, resident string) string {
	return strings.TrimSpace(strings.TrimSpace(deviceName) + " " + strings.TrimSpace(resident))
}

// Group returns the zone group of a local alarm id.
func Group(id int) int {
	return id / 10
}
