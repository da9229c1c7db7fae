package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tbourn/go-gig-backend/internal/auth"
	"github.com/tbourn/go-gig-backend/internal/domain"
	"github.com/tbourn/go-gig-backend/internal/repo"
	"github.com/tbourn/go-gig-backend/internal/spotify"
)

// fakeSpotifyAuth is a programmable SpotifyAuth implementation.
type fakeSpotifyAuth struct {
	exchangeTok *spotify.Token
	exchangeErr error
	refreshTok  *spotify.Token
	refreshErr  error
	profile     *spotify.Profile
	profileErr  error

	gotRedirectURI string
	gotRefresh     string
}

func (f *fakeSpotifyAuth) AuthorizeURL(redirectURI, scope, state string) string {
	return "https://accounts.example/authorize?redirect_uri=" + redirectURI + "&scope=" + scope + "&state=" + state
}

func (f *fakeSpotifyAuth) ExchangeCode(_ context.Context, _, redirectURI string) (*spotify.Token, error) {
	f.gotRedirectURI = redirectURI
	return f.exchangeTok, f.exchangeErr
}

func (f *fakeSpotifyAuth) Refresh(_ context.Context, refreshToken string) (*spotify.Token, error) {
	f.gotRefresh = refreshToken
	return f.refreshTok, f.refreshErr
}

func (f *fakeSpotifyAuth) Me(_ context.Context, _ string) (*spotify.Profile, error) {
	return f.profile, f.profileErr
}

func newJWT(t *testing.T) *auth.Manager {
	t.Helper()
	m, err := auth.NewManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestLoginURL_PerPlatformRedirects(t *testing.T) {
	svc := &AuthService{
		Spotify:           &fakeSpotifyAuth{},
		RedirectURIWeb:    "https://api.example/cb/web",
		RedirectURIMobile: "https://api.example/cb/mobile",
	}

	web, err := svc.LoginURL(PlatformWeb, "st")
	if err != nil {
		t.Fatalf("LoginURL web: %v", err)
	}
	mobile, err := svc.LoginURL(PlatformMobile, "st")
	if err != nil {
		t.Fatalf("LoginURL mobile: %v", err)
	}
	if web == mobile {
		t.Fatalf("platforms must use distinct redirect URIs")
	}

	if _, err := svc.LoginURL(Platform("desktop"), "st"); !errors.Is(err, ErrUnknownPlatform) {
		t.Fatalf("expected ErrUnknownPlatform, got %v", err)
	}
}

func TestHandleCallback_CreatesUserAndSignsToken(t *testing.T) {
	db := newServiceDB(t)
	jwt := newJWT(t)
	fake := &fakeSpotifyAuth{
		exchangeTok: &spotify.Token{AccessToken: "at", RefreshToken: "rt-1"},
		profile:     &spotify.Profile{ID: "sp-u1", DisplayName: "Alice"},
	}
	svc := &AuthService{
		DB:             db,
		Spotify:        fake,
		JWT:            jwt,
		RedirectURIWeb: "https://api.example/cb/web",
	}

	token, err := svc.HandleCallback(context.Background(), "c0de", PlatformWeb)
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if fake.gotRedirectURI != "https://api.example/cb/web" {
		t.Fatalf("exchange must use the platform redirect URI, got %q", fake.gotRedirectURI)
	}

	user, err := repo.GetUserBySpotifyID(context.Background(), db, "sp-u1")
	if err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
	if user.DisplayName != "Alice" || user.RefreshToken != "rt-1" {
		t.Fatalf("unexpected user: %+v", user)
	}

	uid, err := jwt.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if uid != user.ID {
		t.Fatalf("token must carry the local user id: %q vs %q", uid, user.ID)
	}

	// Re-login for the same external account: same row, new credential.
	fake.exchangeTok = &spotify.Token{AccessToken: "at2", RefreshToken: "rt-2"}
	if _, err := svc.HandleCallback(context.Background(), "c0de2", PlatformWeb); err != nil {
		t.Fatalf("second callback: %v", err)
	}
	again, _ := repo.GetUserBySpotifyID(context.Background(), db, "sp-u1")
	if again.ID != user.ID || again.RefreshToken != "rt-2" {
		t.Fatalf("re-login must update in place: %+v", again)
	}
}

func TestHandleCallback_UpstreamErrorsPropagate(t *testing.T) {
	db := newServiceDB(t)
	svc := &AuthService{
		DB:  db,
		JWT: newJWT(t),
		Spotify: &fakeSpotifyAuth{
			exchangeErr: fmt.Errorf("%w: spotify token: status 401", domain.ErrUpstreamAuth),
		},
		RedirectURIWeb: "x",
	}

	_, err := svc.HandleCallback(context.Background(), "bad", PlatformWeb)
	if !errors.Is(err, domain.ErrUpstreamAuth) {
		t.Fatalf("expected ErrUpstreamAuth, got %v", err)
	}

	var users int64
	_ = svc.DB.Model(&domain.User{}).Count(&users).Error
	if users != 0 {
		t.Fatalf("failed callback must not persist a user")
	}
}

func TestAccessTokenFor_RefreshesAndRotates(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()

	user, err := repo.UpsertUser(ctx, db, "sp-u1", "Alice", "rt-old")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	fake := &fakeSpotifyAuth{refreshTok: &spotify.Token{AccessToken: "at-fresh"}}
	svc := &AuthService{DB: db, Spotify: fake, JWT: newJWT(t)}

	// No rotation: stored credential stays.
	at, err := svc.AccessTokenFor(ctx, user.ID)
	if err != nil {
		t.Fatalf("AccessTokenFor: %v", err)
	}
	if at != "at-fresh" || fake.gotRefresh != "rt-old" {
		t.Fatalf("unexpected refresh call: at=%q sent=%q", at, fake.gotRefresh)
	}
	u, _ := repo.GetUser(ctx, db, user.ID)
	if u.RefreshToken != "rt-old" {
		t.Fatalf("credential must not rotate without a new token")
	}

	// Provider rotates: new credential must be persisted.
	fake.refreshTok = &spotify.Token{AccessToken: "at-2", RefreshToken: "rt-new"}
	if _, err := svc.AccessTokenFor(ctx, user.ID); err != nil {
		t.Fatalf("AccessTokenFor rotate: %v", err)
	}
	u, _ = repo.GetUser(ctx, db, user.ID)
	if u.RefreshToken != "rt-new" {
		t.Fatalf("rotated credential not persisted: %q", u.RefreshToken)
	}

	// Unknown user.
	if _, err := svc.AccessTokenFor(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
