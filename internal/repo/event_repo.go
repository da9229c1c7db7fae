// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Event
// model, including the atomic upsert the reconciliation pipeline relies on.
//
// Error semantics:
//   - UpsertEvent propagates raw DB errors, including unique-constraint
//     violations from the secondary (site_id, url) index. The sync service
//     decides whether such a violation aborts the batch or is skipped.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-gig-backend/internal/domain"
)

// eventMutableColumns are the columns replaced when an event with the same
// (source, external_id) already exists. last_check_at is always included so
// the heartbeat advances even when nothing else changed.
var eventMutableColumns = []string{
	"artist_id", "artist_name", "site_id", "event_type_id",
	"url", "venue", "city", "date", "last_check_at", "updated_at",
}

// UpsertEvent inserts the event or replaces the mutable fields of the row
// with the same (source, external_id). The upsert is a single native
// ON CONFLICT statement, so concurrent syncs for the same external record
// never produce two rows.
func UpsertEvent(ctx context.Context, db *gorm.DB, e *domain.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns(eventMutableColumns),
	}).Create(e).Error
}

// GetEventBySourceID fetches an event by its reconciliation key.
func GetEventBySourceID(ctx context.Context, db *gorm.DB, source, externalID string) (*domain.Event, error) {
	var e domain.Event
	err := db.WithContext(ctx).
		Where("source = ? AND external_id = ?", source, externalID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEventsByArtist returns an artist's events ordered by date ascending
// (undated events last). limit <= 0 applies the default of 50.
func ListEventsByArtist(ctx context.Context, db *gorm.DB, artistID string, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []domain.Event
	err := db.WithContext(ctx).
		Where("artist_id = ?", artistID).
		Order("date IS NULL, date asc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountEventsByArtist returns the number of stored events for an artist.
func CountEventsByArtist(ctx context.Context, db *gorm.DB, artistID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Event{}).
		Where("artist_id = ?", artistID).
		Count(&total).Error
	return total, err
}

// RecordAvailability updates an event's availability bookkeeping and appends
// an AvailabilityLog row. Both writes run in one transaction so the event's
// last-known state never disagrees with the newest log entry.
func RecordAvailability(ctx context.Context, db *gorm.DB, eventID string, available bool, checkedAt time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Event{}).
			Where("id = ?", eventID).
			Updates(map[string]any{
				"last_availability": available,
				"last_check_at":     checkedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(&domain.AvailabilityLog{
			ID:        uuid.NewString(),
			EventID:   eventID,
			CheckedAt: checkedAt,
			Available: available,
			CreatedAt: time.Now().UTC(),
		}).Error
	})
}
