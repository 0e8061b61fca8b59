package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrInvalidBackend     = errors.New("invalid backend url")
	ErrBackendUnreachable = errors.New("backend unreachable")
)
