// Package mocks holds hand-written test doubles for the service interfaces
// the HTTP layer depends on.
//
// Each mock exposes a function field per method; when the field is nil the
// mock returns its default fields instead:
//
//	jwt := &mocks.MockJWTService{
//		Claims: &auth.Claims{LearnerID: learnerID, TokenType: "access"},
//	}
//	reviews := &mocks.MockCardReviewService{Err: card_review.ErrNoCardsDue}
//
// MockCardReviewService also records its calls so tests can assert which
// learner and scope reached the service.
package mocks
