// Package settings is the pager's persisted configuration store.
//
// Values are strings keyed by Key. Set publishes a change to every
// watcher of that key after the value is stored and, when a file is
// configured, saved. Watchers run on the caller's goroutine in
// registration order and must not block.
package settings
