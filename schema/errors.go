package schema

import "errors"

var (
	// ErrInvalidRequest indicates a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidCommand indicates a command that cannot be encoded.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrInvalidEvent indicates an inbound surface payload that is not valid JSON.
	ErrInvalidEvent = errors.New("invalid surface event")
	// ErrInvalidTheme indicates an unsupported theme name.
	ErrInvalidTheme = errors.New("invalid theme")
	// ErrInvalidDocument indicates an invalid document identifier.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrSurfaceNotFound indicates the surface is not attached.
	ErrSurfaceNotFound = errors.New("surface not found")
	// ErrLoopStopped indicates the bridge loop is no longer running.
	ErrLoopStopped = errors.New("bridge loop stopped")
)
