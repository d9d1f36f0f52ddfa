// Package transport delivers outbound SMS segments. The production sender
// speaks the Africa's Talking bulk messaging API; Recorder is an in-memory
// sender for tests and the local REPL.
package transport
