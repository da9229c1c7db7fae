// Package ticketmaster implements the event discovery adapter against the
// Ticketmaster Discovery API v2. Only the first result page is fetched and
// raw records are decoded defensively: any field beyond the event id may be
// absent without failing the page.
package ticketmaster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/tbourn/go-gig-backend/internal/domain"
)

const (
	defaultBaseURL = "https://app.ticketmaster.com/discovery/v2"

	// DefaultPageSize is the number of events requested per search when the
	// caller does not specify one.
	DefaultPageSize = 20

	// classification restricts discovery to music events.
	classification = "music"
)

// Config carries the API key and optional overrides. DefaultCountry is the
// locale filter applied when a search does not specify one; it must be an
// ISO 3166-1 alpha-2 region ("FR", "US", ...).
type Config struct {
	APIKey         string
	BaseURL        string
	DefaultCountry string
	Timeout        time.Duration
}

// Client queries the Discovery API. Safe for concurrent use.
type Client struct {
	baseURL        string
	apiKey         string
	defaultCountry string
	httpClient     *http.Client
}

// New validates cfg and constructs a Client. The default country code is
// checked up front so a misconfigured region fails at boot, not mid-sync.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ticketmaster API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.DefaultCountry == "" {
		cfg.DefaultCountry = "FR"
	}
	if _, err := language.ParseRegion(cfg.DefaultCountry); err != nil {
		return nil, fmt.Errorf("invalid default country %q: %w", cfg.DefaultCountry, err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		defaultCountry: strings.ToUpper(cfg.DefaultCountry),
		httpClient:     &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// RawEvent is one event record as returned by the Discovery API. All fields
// beyond ID are optional; nested structures may be entirely absent.
type RawEvent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Dates struct {
		Start struct {
			DateTime  string `json:"dateTime"`  // e.g. "2026-02-12T19:00:00Z"
			LocalDate string `json:"localDate"` // e.g. "2026-02-12"
		} `json:"start"`
	} `json:"dates"`
	Embedded struct {
		Venues []RawVenue `json:"venues"`
	} `json:"_embedded"`
}

// RawVenue is the venue substructure of a raw event.
type RawVenue struct {
	Name string `json:"name"`
	City struct {
		Name string `json:"name"`
	} `json:"city"`
}

// FirstVenue returns the event's first listed venue, or nil when the record
// carries none. Multi-venue events are collapsed to their first venue.
func (e *RawEvent) FirstVenue() *RawVenue {
	if len(e.Embedded.Venues) == 0 {
		return nil
	}
	return &e.Embedded.Venues[0]
}

// StartDate resolves the event's schedule: the absolute dateTime when
// present, else the calendar localDate, else nil.
func (e *RawEvent) StartDate() *time.Time {
	if s := e.Dates.Start.DateTime; s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return &t
		}
	}
	if s := e.Dates.Start.LocalDate; s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return &t
		}
	}
	return nil
}

// SearchEvents returns the first page of music events matching keyword.
// countryCode falls back to the configured default and size to
// DefaultPageSize. No retries; failures surface immediately.
func (c *Client) SearchEvents(ctx context.Context, keyword, countryCode string, size int) ([]RawEvent, error) {
	if countryCode == "" {
		countryCode = c.defaultCountry
	} else if _, err := language.ParseRegion(countryCode); err != nil {
		return nil, fmt.Errorf("invalid country code %q: %w", countryCode, err)
	}
	if size <= 0 {
		size = DefaultPageSize
	}

	u := c.baseURL + "/events.json?" + url.Values{
		"apikey":             {c.apiKey},
		"keyword":            {keyword},
		"countryCode":        {strings.ToUpper(countryCode)},
		"classificationName": {classification},
		"size":               {strconv.Itoa(size)},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamRequest, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: ticketmaster search: status %d", domain.ErrUpstreamAuth, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: ticketmaster search: status %d", domain.ErrUpstreamRequest, resp.StatusCode)
	}

	var body struct {
		Embedded struct {
			Events []RawEvent `json:"events"`
		} `json:"_embedded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode events response: %v", domain.ErrUpstreamRequest, err)
	}
	// _embedded is absent entirely when the page is empty.
	return body.Embedded.Events, nil
}
