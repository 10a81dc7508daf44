package gateway

import "errors"

var (
	// ErrEmptyMessage is returned for an empty or whitespace-only
	// message, before any upstream call is attempted.
	ErrEmptyMessage = errors.New("message is required")

	// ErrNoAPIKey is returned when neither the request nor the server
	// configuration provides an upstream API key.
	ErrNoAPIKey = errors.New("no API key available")

	// ErrUpstream wraps any failure from the completion provider.
	ErrUpstream = errors.New("upstream completion failed")
)
