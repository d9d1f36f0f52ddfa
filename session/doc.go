// Package session provides SessionStore implementations. The in-memory store
// enforces the dual expiry policy (session age and interaction count) lazily
// on access, so no background sweeper is needed.
package session
