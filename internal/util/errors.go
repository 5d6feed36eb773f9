package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrConnection indicates the database could not be reached. It is the only
	// failure the CLI reports without a non-zero exit status.
	ErrConnection = errors.New("could not make connection")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMalformedRecord indicates a source line that is not a valid JSON record
	ErrMalformedRecord = errors.New("malformed record")

	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")
)
