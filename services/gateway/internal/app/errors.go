package app

import "errors"

var (
	// ErrUnknownBackend indicates an unsupported REST access path.
	ErrUnknownBackend = errors.New("unknown rest backend")
)
