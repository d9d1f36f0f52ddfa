// Package model defines the minimal LLM completion contract the dialogue
// agent depends on, plus a deterministic mock for tests. Provider-specific
// adapters live in the openai and anthropic subpackages.
package model
