// Package services implements the driving port interfaces.
// Services contain the core business logic - hybrid retrieval, context
// assembly, fallback orchestration, conversation memory, and answer
// synthesis - and orchestrate calls to driven ports (adapters).
//
// Services are pure Go with no external dependencies beyond the ports.
package services
