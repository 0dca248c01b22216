// Package session implements the UEF client session protocol: handshake
// with the host shell, bearer authorization, entry-point registration,
// event subscription, and the panel lifecycle.
//
// A Session is a single-goroutine state machine. All protocol state is
// owned by the Run loop and mutated only between two inbound events, so no
// locking is needed for protocol bookkeeping; a small mirror guarded by a
// mutex exists only so Snapshot can be read from other goroutines.
//
// The two user-facing entry points (help-menu item and navigation route)
// are invocation sources feeding one shared panel state machine; they
// differ only in how the host notifies the client (a correlated
// help:request that must be acknowledged versus a route-change event that
// must be filtered and debounced).
package session
