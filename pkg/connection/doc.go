// Package connection drives the lifecycle of the pager's server link.
//
// This package handles:
//   - Connection state tracking
//   - Retry delays between attempts
//   - The dial / serve / retry loop
//
// # States
//
//	DISCONNECTED -> CONNECTING -> CONNECTED
//	      ^                           |
//	      +------- fault / retry -----+
//
// Close moves the manager to CLOSED, which is terminal.
//
// # Retry Strategy
//
// The default policy waits a fixed 10 seconds after every fault and
// retries forever without jitter. Backoff still supports an exponential
// policy for callers that configure a multiplier above 1.
//
// # Success Criteria
//
// A cycle counts as connected once the dial function returns nil. The
// serve function then owns the link until it returns; any return,
// including nil, is treated as the link being lost.
package connection
