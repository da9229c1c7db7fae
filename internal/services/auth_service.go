// Package services – AuthService
//
// This file implements the AuthService, which drives the Spotify
// authorization-code flow: building the login redirect, exchanging the
// callback code, resolving the caller's external identity, persisting the
// account (including the refresh credential), and issuing the signed bearer
// token clients use against this API. It also mints short-lived provider
// access tokens for the other services from the stored refresh credential.
//
// No upstream call is retried here; retry policy belongs to the caller.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-gig-backend/internal/auth"
	"github.com/tbourn/go-gig-backend/internal/repo"
	"github.com/tbourn/go-gig-backend/internal/spotify"
)

// Platform distinguishes the two OAuth callback variants. Web and mobile
// clients register different redirect URIs with the provider and receive
// the signed token on different app URLs.
type Platform string

const (
	PlatformWeb    Platform = "web"
	PlatformMobile Platform = "mobile"
)

// loginScope is requested during the authorize redirect.
const loginScope = "user-read-email"

// SpotifyAuth is the provider contract required by AuthService.
type SpotifyAuth interface {
	// AuthorizeURL builds the user-facing authorization redirect.
	AuthorizeURL(redirectURI, scope, state string) string
	// ExchangeCode trades an authorization code for a credential.
	ExchangeCode(ctx context.Context, code, redirectURI string) (*spotify.Token, error)
	// Refresh trades a refresh credential for a fresh access token.
	Refresh(ctx context.Context, refreshToken string) (*spotify.Token, error)
	// Me resolves the token owner's external identity.
	Me(ctx context.Context, accessToken string) (*spotify.Profile, error)
}

// AuthService implements login, OAuth callback handling, and access-token
// minting for authenticated users.
type AuthService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Spotify is the provider adapter.
	Spotify SpotifyAuth
	// JWT signs the bearer credentials returned to clients.
	JWT *auth.Manager

	// RedirectURIWeb / RedirectURIMobile are the OAuth redirect URIs
	// registered with the provider, one per client platform.
	RedirectURIWeb    string
	RedirectURIMobile string
}

// redirectURI selects the provider redirect URI for a platform.
func (s *AuthService) redirectURI(p Platform) (string, error) {
	switch p {
	case PlatformWeb:
		return s.RedirectURIWeb, nil
	case PlatformMobile:
		return s.RedirectURIMobile, nil
	default:
		return "", ErrUnknownPlatform
	}
}

// LoginURL returns the provider authorize URL the client should be
// redirected to. state is echoed back on the callback for CSRF protection.
func (s *AuthService) LoginURL(p Platform, state string) (string, error) {
	uri, err := s.redirectURI(p)
	if err != nil {
		return "", err
	}
	return s.Spotify.AuthorizeURL(uri, loginScope, state), nil
}

// HandleCallback completes the authorization-code flow: it exchanges the
// code, resolves the external profile, upserts the user row (replacing the
// stored refresh credential), and returns a signed bearer token for the
// local account.
//
// Upstream failures propagate with their taxonomy sentinel
// (domain.ErrUpstreamAuth / domain.ErrUpstreamRequest) untouched.
func (s *AuthService) HandleCallback(ctx context.Context, code string, p Platform) (string, error) {
	uri, err := s.redirectURI(p)
	if err != nil {
		return "", err
	}

	tok, err := s.Spotify.ExchangeCode(ctx, code, uri)
	if err != nil {
		return "", err
	}

	profile, err := s.Spotify.Me(ctx, tok.AccessToken)
	if err != nil {
		return "", err
	}

	user, err := repo.UpsertUser(ctx, s.DB, profile.ID, profile.DisplayName, tok.RefreshToken)
	if err != nil {
		return "", err
	}

	return s.JWT.Sign(user.ID)
}

// AccessTokenFor mints a provider access token for userID from the stored
// refresh credential. When the provider rotates the refresh token, the new
// one replaces the stored credential before the access token is returned,
// because the old credential may already be invalid.
func (s *AuthService) AccessTokenFor(ctx context.Context, userID string) (string, error) {
	user, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", ErrUserNotFound
		}
		return "", err
	}

	tok, err := s.Spotify.Refresh(ctx, user.RefreshToken)
	if err != nil {
		return "", err
	}

	if tok.RefreshToken != "" && tok.RefreshToken != user.RefreshToken {
		if err := repo.UpdateRefreshToken(ctx, s.DB, user.ID, tok.RefreshToken); err != nil {
			return "", err
		}
	}

	return tok.AccessToken, nil
}
