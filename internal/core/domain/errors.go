package domain

import "errors"

// Error kinds for the boundary collaborators. Adapters wrap these with %w and
// callers classify with errors.Is; presentation maps kinds to messages.
var (
	// ErrConfiguration means the AI service credential is missing. Fatal to
	// AI features only; the rest of the app keeps working.
	ErrConfiguration = errors.New("ai service credential not configured")

	// ErrInput means the caller supplied malformed or missing input.
	ErrInput = errors.New("invalid input")

	// ErrAuth means the AI service rejected the configured credential.
	ErrAuth = errors.New("ai service rejected credential")

	// ErrQuota means AI service usage limits are exceeded.
	ErrQuota = errors.New("ai service quota exceeded")

	// ErrService covers any other AI service failure.
	ErrService = errors.New("ai service failure")

	// ErrPermission means camera access was denied.
	ErrPermission = errors.New("camera access denied")

	// ErrNoDevice means no camera is available.
	ErrNoDevice = errors.New("no camera available")

	// ErrDevice covers any other camera acquisition or capture failure.
	ErrDevice = errors.New("camera failure")

	// ErrNotReady means the camera feed is not yet producing frames.
	ErrNotReady = errors.New("camera feed not ready")

	// ErrStorage means a durable write failed. Non-fatal: the in-memory
	// collection stays authoritative for the session.
	ErrStorage = errors.New("durable write failed")
)
