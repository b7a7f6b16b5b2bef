package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MaxDatagramSize is the receive buffer size for server datagrams.
const MaxDatagramSize = 10240

// Codec errors.
var (
	ErrEmptyMessage   = errors.New("empty message")
	ErrUnknownMessage = errors.New("unknown message type")
)

// Decode parses a server datagram.
func Decode(data []byte) (*Inbound, error) {
	if len(data) == 0 {
		return nil, ErrEmptyMessage
	}

	var msg Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode datagram: %w", err)
	}
	if msg.Alert == nil && msg.Notifies == nil {
		return nil, ErrUnknownMessage
	}
	return &msg, nil
}

// EncodeRegister encodes a Register heartbeat.
func EncodeRegister(seqNo int, friendlyName string) ([]byte, error) {
	return json.Marshal(registerMessage{Register: Register{SeqNo: seqNo, FriendlyName: friendlyName}})
}

// EncodeAck encodes the acknowledgement of one alert.
func EncodeAck(seqNo int) ([]byte, error) {
	return json.Marshal(ackMessage{Ack: seqNo})
}

// EncodeLogs encodes a batch of diagnostic log lines.
func EncodeLogs(lines []string) ([]byte, error) {
	if lines == nil {
		lines = []string{}
	}
	return json.Marshal(logsMessage{Logs: lines})
}

// EncodeAlert encodes a single alert datagram. The client never sends
// alerts; this is used by test servers and tools.
func EncodeAlert(a *Alert) ([]byte, error) {
	return json.Marshal(Inbound{Alert: a})
}

// EncodeNotifies encodes a retransmit batch.
func EncodeNotifies(alerts ...*Alert) ([]byte, error) {
	env := make([]AlertEnvelope, len(alerts))
	for i, a := range alerts {
		env[i] = AlertEnvelope{Alert: a}
	}
	return json.Marshal(Inbound{Notifies: env})
}
