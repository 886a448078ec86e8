// Package kv defines the synchronous key-value backend the persistence core
// is built on, together with the backends the application ships with.
//
// The contract mirrors a browser-local-storage style store: string keys,
// string values, no quota discovery API, and a Set that can fail with a
// capacity error at any time. The core treats every implementation as
// unreliable in exactly that way.
package kv

import "errors"

// ErrCapacityExceeded is returned by Set when the backend cannot hold the
// value. Callers must assume it can happen on any write, regardless of what
// any prior usage estimate said.
var ErrCapacityExceeded = errors.New("kv: backend capacity exceeded")

// Backend is a synchronous string store with unknown, session-fixed capacity.
type Backend interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool)

	// Set stores value under key. It may fail with ErrCapacityExceeded (or an
	// error wrapping it) at any time; a failed Set must leave the prior value
	// for key untouched.
	Set(key, value string) error

	// Remove deletes key. Removing an absent key is a no-op.
	Remove(key string)

	// Keys enumerates every key currently present, in no particular order.
	Keys() []string
}

// IsCapacityError reports whether err indicates backend capacity exhaustion.
func IsCapacityError(err error) bool {
	return errors.Is(err, ErrCapacityExceeded)
}
