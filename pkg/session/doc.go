// Package session connects the pager to its server and turns alert
// traffic into notifications.
//
// A Session owns one connection task at a time. The task dials a UDP
// socket to the configured destination, sends a Register heartbeat every
// HeartbeatInterval, acknowledges every alert entry it receives and runs
// housekeeping (full sync, login sync, diagnostic log upload) between
// reads. Socket faults close the socket and the task retries after a
// fixed delay, forever, until the destination changes or Stop is called.
//
// Alert handling lives in Processor. Its single mutex guards the active
// alarm store and the pending delay set together, so clears that span a
// group always see a consistent combined view. Delay timers call back
// into the Processor, which takes the lock before touching the scheduler.
//
// Host integration:
//
//	s, err := session.Start(session.Config{Settings: st, Sink: sink})
//	defer s.Stop()
//	// keep-alive hook
//	s.Kick()
package session
