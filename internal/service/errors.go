package service

import "errors"

// Sentinel errors surfaced by the lifecycle and QR services. Handlers
// translate them into HTTP responses with errors.Is, so a caller can
// always tell a missing visit apart from a tampered code or a store
// failure.
var (
	// ErrValidation marks missing or malformed caller input, such as an
	// empty denial reason or an undecodable QR payload.
	ErrValidation = errors.New("validation failed")

	// ErrSignatureMismatch marks a QR payload whose signature does not
	// match the one recomputed from the secret (tampered or forged).
	ErrSignatureMismatch = errors.New("qr signature mismatch")

	// ErrVisitNotApproved marks a scan against a visit that is not in
	// the approved status.
	ErrVisitNotApproved = errors.New("visit not approved")

	// ErrAlreadyCheckedIn marks a scan for a visit that already has an
	// open check-in.
	ErrAlreadyCheckedIn = errors.New("visitor already checked in")
)
