package protocol

import "errors"

// Errors for the batch-decryption ledger. Grouped by taxonomy:
// authorization, lifecycle, rate limiting and integrity.
var (
	// Authorization.
	ErrNotOwner     = errors.New("protocol: caller is not the owner")
	ErrNotProvider  = errors.New("protocol: caller is not a registered provider")
	ErrZeroIdentity = errors.New("protocol: identity must not be empty")

	// Lifecycle.
	ErrPaused               = errors.New("protocol: ledger is paused")
	ErrAlreadyPaused        = errors.New("protocol: ledger is already paused")
	ErrNotPaused            = errors.New("protocol: ledger is not paused")
	ErrBatchClosedOrInvalid = errors.New("protocol: batch is closed, unknown or empty")

	// Rate limiting.
	ErrInvalidCooldown = errors.New("protocol: cooldown must be greater than zero")
	ErrCooldownActive  = errors.New("protocol: cooldown window has not elapsed")

	// Integrity gates of the decryption-answer pipeline.
	ErrReplayDetected     = errors.New("protocol: decryption request is unknown, already processed or rejected")
	ErrStateMismatch      = errors.New("protocol: batch state changed since the decryption was requested")
	ErrInvalidProof       = errors.New("protocol: oracle proof verification failed")
	ErrCleartextLength    = errors.New("protocol: cleartext buffer length does not match submission count")
	ErrCleartextFlag      = errors.New("protocol: malicious flag byte is not 0 or 1")
	ErrDuplicateRequestID = errors.New("protocol: oracle returned an already-known request id")
)
