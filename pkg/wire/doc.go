// Package wire defines the datagram message format spoken with the pager
// server.
//
// Every datagram carries one JSON object whose single top-level key names
// the message type.
//
// # Client to server
//
//	{"Register":{"seq_no":12,"friendly_name":"Night desk"}}
//	{"Ack":41}
//	{"Logs":["2026-01-02 03:04:05: Network lost."]}
//
// # Server to client
//
//	{"Alert":{...}}
//	{"Notifies":[{"Alert":{...}},{"Alert":{...}}]}
//
// A Notifies batch is a retransmission of alerts the server has not seen
// acknowledged. Every alert, single or batched, must be acknowledged by
// its seq_no.
//
// # Leniency
//
// Alert fields that are missing or malformed fall back to defaults rather
// than rejecting the datagram: priority 4, timestamp "now" (reported as the
// zero time), flags false, text empty. Numbers may arrive as numeric
// strings and ids as JSON numbers. Only a datagram that is not a JSON
// object at all is rejected, since nothing in it can be acknowledged.
package wire
