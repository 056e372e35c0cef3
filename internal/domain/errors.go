package domain

import "errors"

var (
	// ErrMessageTooShort signals a message below the minimum length.
	ErrMessageTooShort = errors.New("message too short")
	// ErrPayloadTooLarge signals a message above the maximum length.
	ErrPayloadTooLarge = errors.New("message too long")
	// ErrUpstreamTimeout signals that an upstream call exceeded its deadline.
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrUpstreamUnavailable signals a transport-level upstream failure.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrIndexNotReady signals that the recommender index is not built yet.
	ErrIndexNotReady = errors.New("recommender index not ready")
	// ErrNoCandidates signals that every retrieval strategy came up empty.
	ErrNoCandidates = errors.New("no candidates")
	// ErrReloadInProgress signals a rejected concurrent corpus reload.
	ErrReloadInProgress = errors.New("corpus reload already in progress")
	// ErrExhibitNotFound signals a missing exhibit in the detail provider.
	ErrExhibitNotFound = errors.New("exhibit not found")
)
