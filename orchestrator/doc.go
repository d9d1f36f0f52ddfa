// Package orchestrator drives the per-message pipeline: session lookup,
// intent routing, data fan-out, reply generation, commit and send. Messages
// from the same farmer run strictly one at a time in arrival order; messages
// from different farmers run concurrently up to a global cap.
package orchestrator
