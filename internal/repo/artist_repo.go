// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Artist model.
//
// Artists are reconciled from the external catalog by upsert keyed on
// spotify_id. The upsert replaces all mutable fields rather than merging:
// a metric the provider stopped reporting is cleared, so the row always
// mirrors the latest provider record.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-gig-backend/internal/domain"
)

// artistMutableColumns are the columns replaced on conflict. Everything but
// the identity (id, spotify_id) and created_at.
var artistMutableColumns = []string{"name", "genres", "popularity", "followers", "image", "updated_at"}

// UpsertArtist inserts a new artist or fully replaces the mutable fields of
// the existing row with the same spotify_id. The operation is atomic and
// idempotent: re-running it with identical input changes nothing besides
// updated_at.
//
// The passed artist's ID is only used for the insert path; on conflict the
// existing row keeps its primary key. The stored row is returned.
func UpsertArtist(ctx context.Context, db *gorm.DB, a *domain.Artist) (*domain.Artist, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "spotify_id"}},
		DoUpdates: clause.AssignmentColumns(artistMutableColumns),
	}).Create(a).Error
	if err != nil {
		return nil, err
	}
	return GetArtistBySpotifyID(ctx, db, a.SpotifyID)
}

// GetArtist fetches an artist by primary key, or ErrNotFound if missing.
func GetArtist(ctx context.Context, db *gorm.DB, id string) (*domain.Artist, error) {
	var a domain.Artist
	if err := db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// GetArtistBySpotifyID fetches an artist by external id, or ErrNotFound.
func GetArtistBySpotifyID(ctx context.Context, db *gorm.DB, spotifyID string) (*domain.Artist, error) {
	var a domain.Artist
	if err := db.WithContext(ctx).Where("spotify_id = ?", spotifyID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// CountArtists returns the total number of stored artists.
func CountArtists(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Artist{}).Count(&total).Error
	return total, err
}

// ListArtistsPage returns a paginated slice of artists ordered by name.
// Use CountArtists to obtain the total for pagination metadata.
func ListArtistsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Artist, error) {
	var out []domain.Artist
	err := db.WithContext(ctx).
		Order("name asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
