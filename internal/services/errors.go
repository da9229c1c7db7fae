// Package services defines the business logic for authentication, artist
// search, and event synchronization. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

var (
	// ErrUserNotFound indicates that the authenticated user's record is
	// missing from the store (e.g., deleted between token issue and use).
	ErrUserNotFound = errors.New("user not found")

	// ErrArtistNotFound indicates that the referenced artist does not exist
	// locally. For a sync call this is a precondition violation: the
	// operation fails fast with no partial effects.
	ErrArtistNotFound = errors.New("artist not found")

	// ErrEmptyQuery is returned when a search request contains an empty
	// keyword.
	ErrEmptyQuery = errors.New("search query is empty")

	// ErrUnknownPlatform is returned when a login/callback names a client
	// platform other than web or mobile.
	ErrUnknownPlatform = errors.New("unknown client platform")
)
