// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes the symbolic error code constants carried by every
// ErrorResponse (via the `fail()` helper). The codes give clients a stable,
// machine-readable taxonomy that supplements the human-readable message.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Generic codes (bad_request, unauthorized, not_found, ...) mirror common
//     HTTP status semantics.
//   - Domain-specific codes distinguish failures the status alone cannot:
//     upstream_auth_failed and upstream_failed separate "our provider
//     credential was rejected" from "the provider call failed", even though
//     both surface on sync and search endpoints.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeUpstreamAuth     = "upstream_auth_failed"
	ErrCodeUpstreamFailed   = "upstream_failed"
	ErrCodeLoginFailed      = "login_failed"
	ErrCodeSearchFailed     = "search_failed"
	ErrCodeSyncFailed       = "sync_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
