package wire

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// UnmarshalJSON decodes an alert field by field. A field of the wrong type
// takes its default instead of failing the whole datagram, so the alert
// can still be acknowledged.
func (a *Alert) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*a = Alert{
		SeqNo:         optInt(fields["seq_no"], 0),
		Armed:         optBool(fields["armed"]),
		HasSubID:      optBool(fields["has_sub_id"]),
		Reset:         optBool(fields["reset"]),
		DeviceName:    optString(fields["device_name"]),
		Resident:      optString(fields["resident"]),
		Subject:       optString(fields["subject"]),
		ProfileDelays: optIntMap(fields["profile_delays"]),
		ExtraIDs:      optIntSlice(fields["extra_ids"]),
	}
	if p, ok := lenientInt(fields["priority"]); ok {
		a.Priority = &p
	}
	if raw, ok := fields["id"]; ok {
		var id AlarmID
		if id.UnmarshalJSON(raw) == nil {
			a.ID = id
		} else {
			a.ID = AlarmID(optString(raw))
		}
	}
	if raw, ok := fields["timestamp"]; ok {
		_ = a.Timestamp.UnmarshalJSON(raw)
	}
	return nil
}

// lenientInt reads a JSON number or a numeric string. Fractions are
// truncated.
func lenientInt(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		raw = []byte(strings.TrimSpace(s))
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f >= math.MaxInt32 || f <= math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func optInt(raw json.RawMessage, def int) int {
	if n, ok := lenientInt(raw); ok {
		return n
	}
	return def
}

// optBool accepts JSON booleans and the strings "true" and "false".
func optBool(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "true":
		return true
	case "false", "":
		return false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

// optString returns strings as is and numbers or booleans as their text.
// Anything else is empty.
func optString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case 't', 'f':
		if string(raw) == "true" || string(raw) == "false" {
			return string(raw)
		}
		return ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return n.String()
}

// optIntSlice keeps the entries of a JSON array that read as integers.
func optIntSlice(raw json.RawMessage) []int {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	var out []int
	for _, item := range items {
		if n, ok := lenientInt(item); ok {
			out = append(out, n)
		}
	}
	return out
}

// optIntMap keeps the entries of a JSON object whose values read as
// integers.
func optIntMap(raw json.RawMessage) map[string]int {
	var items map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make(map[string]int, len(items))
	for k, v := range items {
		if n, ok := lenientInt(v); ok {
			out[k] = n
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
