// Package alarm holds the pager's view of currently active alarms.
//
// # Identity
//
// The server identifies alarms with strings. Notification surfaces want
// small integers, so a Mapper converts each server id into a local id:
//
//   - numeric ids below MaxNumericID are used as-is
//   - anything else gets a sequential id from FirstAssignedID on, remembered
//     for the lifetime of the Mapper
//
// # Groups
//
// Alarms whose local ids share the same tens (id / 10) belong to one
// physical zone. A reset clear carrying the sub-id flag removes the whole
// group at once.
//
// # Store
//
// Store contains only alarms that are armed and not yet cleared. Every
// mutation publishes a fresh immutable map, so a Snapshot is always
// internally consistent and can be read without locking.
package alarm
