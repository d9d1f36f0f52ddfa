// Package agent turns routed data into a farmer-facing reply through a single
// language model call. The agent is infallible from the orchestrator's point
// of view: model failures degrade to a fixed apology rather than an error, so
// a broken upstream never drops a farmer's turn on the floor.
package agent
