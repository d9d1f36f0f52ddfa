// Package router classifies inbound farmer messages into intent plans using
// deterministic keyword matching. Routing never calls the language model;
// with identical inputs it always produces the same plan, so pipeline cost
// and latency stay predictable and classification is testable offline.
package router
