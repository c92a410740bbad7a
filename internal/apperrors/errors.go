// Package apperrors defines the sentinel errors services return and
// handlers translate into HTTP status codes.
package apperrors

import "errors"

var (
	// ErrValidation marks missing or malformed required input (400).
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials is returned for any credential mismatch without
	// revealing which field was wrong (401).
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound marks an absent referenced entity (404).
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a (name, code) uniqueness violation (409).
	ErrConflict = errors.New("already exists")
	// ErrUpload marks a media provider failure before the primary store
	// mutation has committed.
	ErrUpload = errors.New("upload failed")
)
