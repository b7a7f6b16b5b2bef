package wire

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// DefaultPriority is applied when an alert omits its priority.
const DefaultPriority = 4

// AlarmID is a server-issued alarm id. The server normally sends a string,
// but a bare JSON number is accepted too.
type AlarmID string

// UnmarshalJSON accepts strings and numbers.
func (id *AlarmID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = AlarmID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = AlarmID(n.String())
	return nil
}

// Timestamp is an ISO-8601 offset date-time. Unparseable values decode to
// the zero time instead of failing the whole message.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON parses RFC 3339 timestamps leniently.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = ParseTimestamp(s)
	return nil
}

// MarshalJSON writes RFC 3339 with nanoseconds, or null for the zero time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(t.Format(time.RFC3339Nano))), nil
}

// ParseTimestamp parses an RFC 3339 string, returning the zero time when
// the string is blank or invalid.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// Alert is one alert entry, armed or cleared.
type Alert struct {
	SeqNo         int            `json:"seq_no"`
	Armed         bool           `json:"armed"`
	ID            AlarmID        `json:"id"`
	HasSubID      bool           `json:"has_sub_id"`
	Reset         bool           `json:"reset"`
	DeviceName    string         `json:"device_name"`
	Resident      string         `json:"resident"`
	Subject       string         `json:"subject"`
	Priority      *int           `json:"priority,omitempty"`
	Timestamp     Timestamp      `json:"timestamp"`
	ProfileDelays map[string]int `json:"profile_delays,omitempty"`
	ExtraIDs      []int          `json:"extra_ids,omitempty"`
}

// PriorityOrDefault returns the alert priority, or DefaultPriority when
// it was omitted.
func (a *Alert) PriorityOrDefault() int {
	if a.Priority == nil {
		return DefaultPriority
	}
	return *a.Priority
}

// ClearsGroup reports whether this is a clear that resets the whole group.
func (a *Alert) ClearsGroup() bool {
	return !a.Armed && a.Reset && a.HasSubID
}

// ExtraClears returns the additional ids a clear removes. A group reset
// removes its group only, so its extra_ids are ignored.
func (a *Alert) ExtraClears() []int {
	if a.Armed || a.ClearsGroup() {
		return nil
	}
	return a.ExtraIDs
}

// AlertEnvelope wraps an alert inside a Notifies batch.
type AlertEnvelope struct {
	Alert *Alert `json:"Alert"`
}

// Inbound is a decoded server datagram. Exactly one field is set.
type Inbound struct {
	Alert    *Alert          `json:"Alert,omitempty"`
	Notifies []AlertEnvelope `json:"Notifies,omitempty"`
}

// Alerts returns the batch entries in arrival order, skipping empty
// envelopes.
func (m *Inbound) Alerts() []*Alert {
	out := make([]*Alert, 0, len(m.Notifies))
	for _, e := range m.Notifies {
		if e.Alert != nil {
			out = append(out, e.Alert)
		}
	}
	return out
}

// Register announces the client and doubles as the heartbeat.
type Register struct {
	SeqNo        int    `json:"seq_no"`
	FriendlyName string `json:"friendly_name"`
}

type registerMessage struct {
	Register Register `json:"Register"`
}

type ackMessage struct {
	Ack int `json:"Ack"`
}

type logsMessage struct {
	Logs []string `json:"Logs"`
}
