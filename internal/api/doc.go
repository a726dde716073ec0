// Package api exposes the review engine over HTTP: next-card selection,
// grading, review history, progress statistics and the curated level lists.
// Handlers translate requests into service calls and map service errors to
// safe client messages.
package api
