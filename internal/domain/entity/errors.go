// internal/domain/entity/errors.go
package entity

import "errors"

// Engine error taxonomy. Store and transport errors are resolved into one of
// these before they reach a caller; handlers map them onto HTTP statuses.
var (
	// ErrValidation rejects malformed input before any write.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound means neither store holds the request.
	ErrNotFound = errors.New("request not found")

	// ErrTargetNotEligible means a directed request targeted an electrician
	// that does not exist or is not VERIFIED.
	ErrTargetNotEligible = errors.New("target electrician not eligible")

	// ErrAlreadyTaken means the action lost the race: another actor moved the
	// request first. Routine under concurrency, not a fault.
	ErrAlreadyTaken = errors.New("request already taken")

	// ErrNotEligible means the actor is not a valid candidate for the request
	// (wrong target on a directed request, or outside the broadcast radius).
	ErrNotEligible = errors.New("electrician not eligible for this request")

	// ErrIllegalTransition means the action is incompatible with the current
	// status, including any transition out of a terminal state.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrNotReviewable means the request is not in SUCCESS or was already
	// rated.
	ErrNotReviewable = errors.New("request not reviewable")

	// ErrStoreUnavailable means both the primary store and the fallback
	// ledger failed to answer. The only 5xx-equivalent condition.
	ErrStoreUnavailable = errors.New("store unavailable")
)
