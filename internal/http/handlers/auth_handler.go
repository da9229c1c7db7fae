// Auth HTTP handlers.
//
// This file exposes the Spotify OAuth endpoints:
//   - GET /auth/spotify/login/web        (redirect to provider, web client)
//   - GET /auth/spotify/login/mobile     (redirect to provider, mobile client)
//   - GET /auth/spotify/callback/web     (code exchange, redirect with token)
//   - GET /auth/spotify/callback/mobile  (code exchange, redirect with token)
//
// The callback never returns the token as a body: it redirects to the
// configured client URL with the signed token in the `token` query
// parameter, matching what browser and app deep-link flows expect.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-gig-backend/internal/domain"
	"github.com/tbourn/go-gig-backend/internal/services"
)

// stateCookie carries the CSRF state between login and callback for the
// web flow. Mobile deep-link flows cannot share cookies, so state is only
// enforced when the cookie is present.
const (
	stateCookie       = "oauth_state"
	stateCookieMaxAge = 600 // seconds
)

// AuthService defines the OAuth operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AuthService interface {
	// LoginURL builds the provider authorize redirect for a platform.
	LoginURL(p services.Platform, state string) (string, error)
	// HandleCallback exchanges the code and returns a signed bearer token.
	HandleCallback(ctx context.Context, code string, p services.Platform) (string, error)
}

// SpotifyLoginWeb godoc
// @ID          spotifyLoginWeb
// @Summary     Start Spotify login (web)
// @Description Redirects the browser to the Spotify authorization page.
// @Tags        Auth
// @Success     302  {string} string "Redirect to provider"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /auth/spotify/login/web [get]
func (h *Handlers) SpotifyLoginWeb(c *gin.Context) {
	h.spotifyLogin(c, services.PlatformWeb, true)
}

// SpotifyLoginMobile godoc
// @ID          spotifyLoginMobile
// @Summary     Start Spotify login (mobile)
// @Description Redirects the app webview to the Spotify authorization page.
// @Tags        Auth
// @Success     302  {string} string "Redirect to provider"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /auth/spotify/login/mobile [get]
func (h *Handlers) SpotifyLoginMobile(c *gin.Context) {
	h.spotifyLogin(c, services.PlatformMobile, false)
}

func (h *Handlers) spotifyLogin(c *gin.Context, p services.Platform, setCookie bool) {
	state := uuid.NewString()
	loc, err := h.authSvc.LoginURL(p, state)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeLoginFailed, "could not build login redirect")
		return
	}
	if setCookie {
		c.SetCookie(stateCookie, state, stateCookieMaxAge, "/", "", false, true)
	}
	c.Redirect(http.StatusFound, loc)
}

// SpotifyCallbackWeb godoc
// @ID          spotifyCallbackWeb
// @Summary     Spotify OAuth callback (web)
// @Description Exchanges the authorization code, creates or updates the user, and redirects to the web app with a signed token.
// @Tags        Auth
// @Param       code   query  string  true  "Authorization code"
// @Param       state  query  string  false "CSRF state echoed by the provider"
// @Success     302  {string} string "Redirect to app with ?token="
// @Failure     400  {object} handlers.ErrorResponse "Missing code or state mismatch"
// @Failure     401  {object} handlers.ErrorResponse "Provider rejected our credentials"
// @Failure     502  {object} handlers.ErrorResponse "Provider call failed"
// @Router      /auth/spotify/callback/web [get]
func (h *Handlers) SpotifyCallbackWeb(c *gin.Context) {
	if cookie, err := c.Cookie(stateCookie); err == nil && cookie != "" {
		if cookie != c.Query("state") {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "state mismatch")
			return
		}
		// One-shot: clear the cookie once consumed.
		c.SetCookie(stateCookie, "", -1, "/", "", false, true)
	}
	h.spotifyCallback(c, services.PlatformWeb, h.appRedirectWeb)
}

// SpotifyCallbackMobile godoc
// @ID          spotifyCallbackMobile
// @Summary     Spotify OAuth callback (mobile)
// @Description Exchanges the authorization code, creates or updates the user, and redirects to the app deep link with a signed token.
// @Tags        Auth
// @Param       code  query  string  true "Authorization code"
// @Success     302  {string} string "Redirect to app with ?token="
// @Failure     400  {object} handlers.ErrorResponse "Missing code"
// @Failure     401  {object} handlers.ErrorResponse "Provider rejected our credentials"
// @Failure     502  {object} handlers.ErrorResponse "Provider call failed"
// @Router      /auth/spotify/callback/mobile [get]
func (h *Handlers) SpotifyCallbackMobile(c *gin.Context) {
	h.spotifyCallback(c, services.PlatformMobile, h.appRedirectMobile)
}

func (h *Handlers) spotifyCallback(c *gin.Context, p services.Platform, appRedirect string) {
	code := c.Query("code")
	if code == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "code query parameter required")
		return
	}

	token, err := h.authSvc.HandleCallback(c.Request.Context(), code, p)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUpstreamAuth):
			fail(c, http.StatusUnauthorized, ErrCodeUpstreamAuth, "provider rejected application credentials")
		case errors.Is(err, domain.ErrUpstreamRequest):
			fail(c, http.StatusBadGateway, ErrCodeUpstreamFailed, "provider call failed")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeLoginFailed, "login failed")
		}
		return
	}

	c.Redirect(http.StatusFound, appRedirect+"?token="+url.QueryEscape(token))
}
