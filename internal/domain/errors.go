package domain

import "errors"

var (
	// ErrInvalidKey indicates malformed or invalid DH material. State is
	// never mutated on this error.
	ErrInvalidKey = errors.New("invalid DH key material")

	// ErrSessionNotEstablished is recoverable: the caller may establish a
	// session and retry.
	ErrSessionNotEstablished = errors.New("session not established")

	// ErrEncryptionRequired is a policy violation: a plaintext message
	// arrived while backward compatibility is disabled.
	ErrEncryptionRequired = errors.New("encryption required")

	// ErrAuthenticationFailed indicates an AEAD tag mismatch. The message is
	// dropped and session state is left unchanged.
	ErrAuthenticationFailed = errors.New("message authentication failed")

	// ErrStaleMessage indicates the required message key was already
	// consumed or evicted; treated as a possible replay.
	ErrStaleMessage = errors.New("stale message: key consumed or evicted")

	// ErrRatchetFailure indicates shared-secret computation failed mid
	// ratchet; the session is degraded and both parties must re-handshake.
	ErrRatchetFailure = errors.New("DH ratchet step failed")

	// ErrSessionBusy is returned when the caller abandons waiting for the
	// per-session lock.
	ErrSessionBusy = errors.New("session busy")

	// ErrRateLimited is returned when an agent exceeds its message budget.
	ErrRateLimited = errors.New("agent rate limit exceeded")
)
