// Package spotify implements the Spotify Web API adapters: OAuth token
// exchange and refresh against the accounts service, profile lookup, and
// artist catalog search. Responses are decoded into optional-field structs
// so provider schema drift never fails a whole page; default substitution
// happens at the mapping boundary in the service layer.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-gig-backend/internal/domain"
)

const (
	defaultAccountsURL = "https://accounts.spotify.com"
	defaultAPIURL      = "https://api.spotify.com/v1"

	// searchLimit caps artist search to the first page of results.
	// Deeper pagination is deliberately out of scope.
	searchLimit = 10
)

// Config carries the client credentials and optional endpoint overrides
// (used by tests to point at an httptest server).
type Config struct {
	ClientID     string
	ClientSecret string
	AccountsURL  string
	APIURL       string
	Timeout      time.Duration
}

// Client talks to the Spotify accounts and Web API endpoints. It holds no
// per-user state and is safe for concurrent use.
type Client struct {
	accountsURL string
	apiURL      string
	clientID    string
	secret      string
	httpClient  *http.Client
}

// New constructs a Client from cfg, applying endpoint and timeout defaults.
func New(cfg Config) *Client {
	if cfg.AccountsURL == "" {
		cfg.AccountsURL = defaultAccountsURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		accountsURL: strings.TrimRight(cfg.AccountsURL, "/"),
		apiURL:      strings.TrimRight(cfg.APIURL, "/"),
		clientID:    cfg.ClientID,
		secret:      cfg.ClientSecret,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Token is the credential returned by the accounts token endpoint.
// RefreshToken is empty unless the provider issued (or rotated) one; when it
// is present the caller must replace the stored refresh credential, because
// the previous one may no longer be honored.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Profile is the authenticated user's external identity.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// RawArtist is one schemaless-ish artist record from the search endpoint.
// Every field beyond ID may be absent.
type RawArtist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity *int     `json:"popularity"`
	Followers  struct {
		Total *int `json:"total"`
	} `json:"followers"`
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}

// AuthorizeURL builds the user-facing authorization redirect for the
// authorization-code flow.
func (c *Client) AuthorizeURL(redirectURI, scope, state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", redirectURI)
	if scope != "" {
		q.Set("scope", scope)
	}
	if state != "" {
		q.Set("state", state)
	}
	return c.accountsURL + "/authorize?" + q.Encode()
}

// ExchangeCode trades an authorization code for a credential. The redirect
// URI must match the one used for the authorize redirect.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	return c.postToken(ctx, form)
}

// Refresh trades a refresh credential for a fresh access token. The returned
// Token may carry a rotated refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.postToken(ctx, form)
}

// postToken performs the form-encoded, Basic-authenticated token request.
func (c *Client) postToken(ctx context.Context, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.accountsURL+"/api/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamRequest, err)
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamRequest, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode, "token"); err != nil {
		return nil, err
	}

	var tok Token
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("%w: decode token response: %v", domain.ErrUpstreamRequest, err)
	}
	return &tok, nil
}

// Me returns the profile of the token's owner. Pure query, no mutation.
func (c *Client) Me(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/me", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamRequest, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamRequest, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode, "me"); err != nil {
		return nil, err
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: decode profile: %v", domain.ErrUpstreamRequest, err)
	}
	return &p, nil
}

// SearchArtists returns the first page of artists matching q (top 10).
// Records are returned raw; callers apply default substitution.
func (c *Client) SearchArtists(ctx context.Context, accessToken, q string) ([]RawArtist, error) {
	u := c.apiURL + "/search?" + url.Values{
		"q":     {q},
		"type":  {"artist"},
		"limit": {strconv.Itoa(searchLimit)},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamRequest, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamRequest, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode, "search"); err != nil {
		return nil, err
	}

	var body struct {
		Artists struct {
			Items []RawArtist `json:"items"`
		} `json:"artists"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", domain.ErrUpstreamRequest, err)
	}
	return body.Artists.Items, nil
}

// checkStatus maps HTTP status codes onto the upstream error taxonomy.
// 401/403 mean our credential was rejected; everything else non-2xx is a
// generic request failure.
func checkStatus(status int, op string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: spotify %s: status %d", domain.ErrUpstreamAuth, op, status)
	default:
		return fmt.Errorf("%w: spotify %s: status %d", domain.ErrUpstreamRequest, op, status)
	}
}
