package log

import (
	"time"
)

// MaxCapturedBytes bounds the datagram bytes kept per event.
const MaxCapturedBytes = 4096

// Event is one capture record. CBOR encoding uses integer keys.
type Event struct {
	// Timestamp when the event occurred.
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the connection cycle (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction of the datagram, for datagram events.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"4,keyasint"`

	// RemoteAddr is the server address (IP:port).
	RemoteAddr string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Datagram    *DatagramEvent    `cbor:"10,keyasint,omitempty"`
	Alert       *AlertEvent       `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"`
}

// Direction indicates the direction of a datagram.
type Direction uint8

const (
	// DirectionIn indicates a datagram from the server.
	DirectionIn Direction = 0
	// DirectionOut indicates a datagram to the server.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryDatagram indicates a raw datagram.
	CategoryDatagram Category = 0
	// CategoryAlert indicates an alert decision.
	CategoryAlert Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryDatagram:
		return "DATAGRAM"
	case CategoryAlert:
		return "ALERT"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// DatagramEvent captures raw UDP payload bytes.
type DatagramEvent struct {
	// Size is the full datagram size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the payload, truncated to MaxCapturedBytes.
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// NewDatagramEvent copies data into a DatagramEvent, truncating it.
func NewDatagramEvent(data []byte) *DatagramEvent {
	ev := &DatagramEvent{Size: len(data)}
	n := len(data)
	if n > MaxCapturedBytes {
		n = MaxCapturedBytes
		ev.Truncated = true
	}
	ev.Data = append([]byte(nil), data[:n]...)
	return ev
}

// AlertAction is what the session did with an alert entry.
type AlertAction uint8

const (
	// AlertNotified means the alarm became active and was notified.
	AlertNotified AlertAction = 0
	// AlertScheduled means the alarm was deferred by its escalation delay.
	AlertScheduled AlertAction = 1
	// AlertDropped means no subscribed profile matched.
	AlertDropped AlertAction = 2
	// AlertCleared means the alarm (or its group) was removed.
	AlertCleared AlertAction = 3
	// AlertSuppressed means a co-batched clear cancelled the arm.
	AlertSuppressed AlertAction = 4
	// AlertStale means the entry predated the last full sync.
	AlertStale AlertAction = 5
	// AlertPromoted means a delayed alarm came due.
	AlertPromoted AlertAction = 6
)

// String returns the action name.
func (a AlertAction) String() string {
	switch a {
	case AlertNotified:
		return "NOTIFIED"
	case AlertScheduled:
		return "SCHEDULED"
	case AlertDropped:
		return "DROPPED"
	case AlertCleared:
		return "CLEARED"
	case AlertSuppressed:
		return "SUPPRESSED"
	case AlertStale:
		return "STALE"
	case AlertPromoted:
		return "PROMOTED"
	default:
		return "UNKNOWN"
	}
}

// AlertEvent captures the decision taken for one alert entry.
type AlertEvent struct {
	// Action taken.
	Action AlertAction `cbor:"1,keyasint"`

	// SeqNo is the server sequence number (0 when not from a datagram).
	SeqNo int `cbor:"2,keyasint,omitempty"`

	// ServerID is the server's alarm id.
	ServerID string `cbor:"3,keyasint,omitempty"`

	// LocalID is the resolved local alarm id.
	LocalID int `cbor:"4,keyasint"`

	// Delay is the escalation delay for scheduled alarms.
	Delay time.Duration `cbor:"5,keyasint,omitempty"`

	// Affected lists every local id removed by a clear.
	Affected []int `cbor:"6,keyasint,omitempty"`
}

// StateChangeEvent captures lifecycle changes.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a link state change.
	StateEntityConnection StateEntity = 0
	// StateEntityWatchdog indicates a watchdog state change.
	StateEntityWatchdog StateEntity = 1
	// StateEntityLogin indicates a login change.
	StateEntityLogin StateEntity = 2
	// StateEntitySync indicates a full sync.
	StateEntitySync StateEntity = 3
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityWatchdog:
		return "WATCHDOG"
	case StateEntityLogin:
		return "LOGIN"
	case StateEntitySync:
		return "SYNC"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Code is the OS error number (if applicable).
	Code *int `cbor:"2,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
