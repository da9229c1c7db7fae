// Upstream error taxonomy shared by the provider adapters. Adapter failures
// are never retried; they carry one of these sentinels so callers can map
// them to a stable HTTP result with errors.Is.
package domain

import "errors"

var (
	// ErrUpstreamAuth indicates the provider rejected our credential
	// (expired/revoked token, bad client identity). Surfaced to callers as
	// an authentication failure.
	ErrUpstreamAuth = errors.New("upstream authentication failed")

	// ErrUpstreamRequest indicates a transport failure or a non-auth
	// provider error (network, 4xx, 5xx). Surfaced as a generic upstream
	// failure.
	ErrUpstreamRequest = errors.New("upstream request failed")
)
