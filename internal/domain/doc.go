// Package domain contains the core entities of the review engine: cards,
// per-learner memory states, the append-only review log and review scopes.
// It has no knowledge of storage or transport.
package domain
