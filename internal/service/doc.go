// Package service groups the application use cases of the review API.
//
// Each subpackage owns one area and depends only on domain types and the
// store interfaces, never on a concrete database:
//
//   - auth issues and validates learner bearer tokens
//   - card_review selects the next card and applies grades transactionally
//   - progress computes read-only statistics over memory states and logs
//
// Services take their dependencies through constructors and report expected
// conditions as sentinel errors that the API layer maps to HTTP statuses.
package service
