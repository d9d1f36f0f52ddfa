// Package webhook exposes the inbound SMS callback endpoint. Africa's
// Talking posts each received message as a form-encoded request; the handler
// normalizes the sender's number, enqueues the message, and acknowledges
// immediately so the gateway never waits on a pipeline.
package webhook
