// Package watchdog raises a status when the server has been silent for
// too long.
//
// The server answers every Register heartbeat and pushes alerts at will,
// so a healthy link sees at least one datagram per heartbeat interval.
//
// # Timer Behavior
//
//   - Start arms the timer
//   - Every received datagram feeds the timer and restarts it
//   - Expiry moves the watchdog to STALE and fires OnStale
//   - The next feed while STALE fires OnRecover and re-arms the timer
//   - Stop disarms without firing anything
package watchdog
