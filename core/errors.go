package core

import "errors"

var (
	// ErrNotConfigured is returned when a verifier's secret material is
	// absent. Always a 500: missing configuration must never degrade
	// into silently skipped verification.
	ErrNotConfigured = errors.New("verifier is not configured")

	// ErrTokenMissing is returned when the submission carries no
	// verification token at all.
	ErrTokenMissing = errors.New("verification token is missing")

	// ErrTokenInvalid is returned for any failed check: bad signature,
	// expired challenge, unsatisfied puzzle, or authority rejection.
	// Callers get one error for all of them to avoid oracle leakage.
	ErrTokenInvalid = errors.New("verification failed")

	// ErrReplayDetected is returned when an already-consumed token is
	// presented again.
	ErrReplayDetected = errors.New("challenge already used")

	// ErrHoneypotTripped is returned when the hidden form field is
	// filled in. The HTTP layer must answer with the same body as
	// ErrTokenInvalid so the honeypot cannot be fingerprinted.
	ErrHoneypotTripped = errors.New("honeypot field filled")

	// ErrUpstreamUnavailable is returned when a remote verification
	// authority cannot be reached or answers with garbage.
	ErrUpstreamUnavailable = errors.New("verification authority unavailable")
)

// DetailedError attaches client-visible diagnostics to a sentinel.
// Only the score-service verifier uses it: its authority is the trust
// boundary, so leaking its error codes back out is acceptable.
type DetailedError struct {
	Err     error
	Details any
}

func (e *DetailedError) Error() string { return e.Err.Error() }

func (e *DetailedError) Unwrap() error { return e.Err }
