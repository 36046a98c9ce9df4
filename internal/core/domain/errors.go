package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrNotConfigured indicates a required setting (API key, user agent) is missing.
	ErrNotConfigured = errors.New("not configured")

	// ErrInsufficientData indicates a calculation has too few observations.
	ErrInsufficientData = errors.New("insufficient data")

	// Upstream Errors.

	// ErrUpstream indicates a remote API returned an unexpected response.
	ErrUpstream = errors.New("upstream error")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrParse indicates a remote payload could not be decoded.
	ErrParse = errors.New("parse error")
)
