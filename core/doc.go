// Package core provides the foundational domain types and contracts used by
// AgriAid. It defines the core abstractions for:
//
//   - Inbound messages and Turns (immutable conversation records)
//   - Sessions (bounded per-farmer conversation containers)
//   - IntentPlans, DataResults and ReplyPlans (transient pipeline values)
//   - Pluggable stores and boundaries (session store, outbound sender,
//     farmer registration lookup)
//
// The package intentionally keeps implementation concerns (persistence,
// provider clients, orchestration) out of scope, exposing small interfaces to
// enable custom backends and extensions.
package core
