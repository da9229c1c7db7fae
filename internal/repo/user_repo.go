// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-gig-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// UpsertUser inserts or refreshes the user row keyed by spotifyUserID.
//
// The upsert is atomic (native ON CONFLICT), so concurrent logins for the
// same account never produce two rows. The display name is replaced on
// every call; the refresh token is replaced only when the incoming value is
// non-empty, because the provider omits the refresh token on re-consent and
// overwriting the stored credential with "" would strand the account until
// the next full login.
//
// On success, it returns the stored user (freshly loaded so the caller sees
// the surviving row's ID). On failure, it returns a DB error.
func UpsertUser(ctx context.Context, db *gorm.DB, spotifyUserID, displayName, refreshToken string) (*domain.User, error) {
	u := &domain.User{
		ID:            uuid.NewString(),
		SpotifyUserID: spotifyUserID,
		DisplayName:   displayName,
		RefreshToken:  refreshToken,
		CreatedAt:     time.Now().UTC(),
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "spotify_user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"display_name": gorm.Expr("excluded.display_name"),
			// Keep the stored credential when the provider sent none.
			"refresh_token": gorm.Expr("CASE WHEN excluded.refresh_token <> '' THEN excluded.refresh_token ELSE refresh_token END"),
			"updated_at":    gorm.Expr("excluded.updated_at"),
		}),
	}).Create(u).Error
	if err != nil {
		return nil, err
	}
	return GetUserBySpotifyID(ctx, db, spotifyUserID)
}

// GetUser fetches a user by primary key, or ErrNotFound if missing.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserBySpotifyID fetches a user by the external provider id, or
// ErrNotFound if missing.
func GetUserBySpotifyID(ctx context.Context, db *gorm.DB, spotifyUserID string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("spotify_user_id = ?", spotifyUserID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateRefreshToken replaces the stored refresh credential for a user.
// Used when the provider rotates the refresh token during an access-token
// refresh. Returns ErrNotFound when no row was affected.
func UpdateRefreshToken(ctx context.Context, db *gorm.DB, id, refreshToken string) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("refresh_token", refreshToken)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
