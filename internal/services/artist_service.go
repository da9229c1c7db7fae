// Package services – ArtistService
//
// This file implements the ArtistService: catalog search against the
// provider on behalf of the authenticated user, with every well-formed
// result persisted locally through the idempotent artist upsert, plus the
// read-side listing operations.
package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-gig-backend/internal/domain"
	"github.com/tbourn/go-gig-backend/internal/repo"
	"github.com/tbourn/go-gig-backend/internal/spotify"
)

// CatalogSearcher is the provider contract required for artist search.
type CatalogSearcher interface {
	SearchArtists(ctx context.Context, accessToken, q string) ([]spotify.RawArtist, error)
}

// TokenSource mints a provider access token for a local user. Implemented
// by AuthService.
type TokenSource interface {
	AccessTokenFor(ctx context.Context, userID string) (string, error)
}

// ArtistService implements artist search-and-store plus local reads.
type ArtistService struct {
	DB      *gorm.DB
	Spotify CatalogSearcher
	Tokens  TokenSource
}

// Search queries the provider catalog with q on behalf of userID and
// persists every result carrying an external id. The returned slice holds
// the stored rows (local ids, normalized fields) in provider order.
//
// Records without an id are dropped before any write. A record that fails
// to persist is skipped and logged; one bad record never discards the rest
// of the page.
func (s *ArtistService) Search(ctx context.Context, userID, q string) ([]domain.Artist, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrEmptyQuery
	}

	token, err := s.Tokens.AccessTokenFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	raw, err := s.Spotify.SearchArtists(ctx, token, q)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Artist, 0, len(raw))
	for _, r := range raw {
		if r.ID == "" {
			continue
		}
		stored, err := repo.UpsertArtist(ctx, s.DB, mapArtist(r))
		if err != nil {
			log.Warn().Err(err).
				Str("spotify_id", r.ID).
				Str("artist", r.Name).
				Msg("artist upsert failed, skipping record")
			continue
		}
		out = append(out, *stored)
	}
	return out, nil
}

// mapArtist converts a raw provider record into the persistence model.
// Missing optional fields map to nil (or an empty genre list), never to
// zero-value placeholders.
func mapArtist(r spotify.RawArtist) *domain.Artist {
	a := &domain.Artist{
		SpotifyID:  r.ID,
		Name:       r.Name,
		Genres:     r.Genres,
		Popularity: r.Popularity,
		Followers:  r.Followers.Total,
	}
	if a.Genres == nil {
		a.Genres = []string{}
	}
	if len(r.Images) > 0 && r.Images[0].URL != "" {
		url := r.Images[0].URL
		a.Image = &url
	}
	return a
}

// ArtistPage is the result of a paginated local listing.
type ArtistPage struct {
	Artists  []domain.Artist `json:"artists"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Total    int64           `json:"total"`
}

// ListArtists returns one page of the locally stored artists ordered by
// name. page is 1-based; out-of-range values are clamped.
func (s *ArtistService) ListArtists(ctx context.Context, page, pageSize int) (*ArtistPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	total, err := repo.CountArtists(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	artists, err := repo.ListArtistsPage(ctx, s.DB, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	return &ArtistPage{Artists: artists, Page: page, PageSize: pageSize, Total: total}, nil
}

// ListEvents returns the stored events for an artist, soonest first. The
// artist must exist locally; otherwise ErrArtistNotFound.
func (s *ArtistService) ListEvents(ctx context.Context, artistID string, limit int) ([]domain.Event, error) {
	if _, err := repo.GetArtist(ctx, s.DB, artistID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrArtistNotFound
		}
		return nil, err
	}
	return repo.ListEventsByArtist(ctx, s.DB, artistID, limit)
}
