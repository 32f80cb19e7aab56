package domain

import "errors"

// Soft results. These mark expected non-matches on broadcast traffic and
// must never be treated as failures by callers.
var (
	// ErrNotForUs is returned when an announcement cannot be opened with
	// our keys. Most broadcast announcements are for somebody else.
	ErrNotForUs = errors.New("announcement not addressed to us")
)

// Misuse errors. Each identifies the violated precondition.
var (
	// ErrIdentityUnavailable means the engine has no identity loaded.
	ErrIdentityUnavailable = errors.New("identity keys are not loaded")
	// ErrUnknownPeer means no session exists for the given user id.
	ErrUnknownPeer = errors.New("no session for peer")
	// ErrSessionNotActive means the session exists but cannot send yet
	// (still pending) or can no longer send (closed).
	ErrSessionNotActive = errors.New("session is not active")
	// ErrSelfPeer rejects attempts to open a session with ourselves.
	ErrSelfPeer = errors.New("peer is our own identity")
)

// Fatal and configuration errors.
var (
	// ErrInvalidSeed means the supplied seed is below the entropy floor.
	ErrInvalidSeed = errors.New("seed is too short")
	// ErrIndexExhausted means a ratchet index would wrap around; the
	// affected session is forced closed.
	ErrIndexExhausted = errors.New("ratchet index exhausted")
	// ErrAuthentication means an AEAD open failed: wrong key, tampered
	// ciphertext, or wrong associated data.
	ErrAuthentication = errors.New("authentication failed")
	// ErrInvalidKey means a caller-supplied symmetric key has the wrong
	// length.
	ErrInvalidKey = errors.New("invalid key length")
	// ErrBadEncoding means a checksummed text encoding did not validate.
	ErrBadEncoding = errors.New("malformed or corrupted encoding")
)
