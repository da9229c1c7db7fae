// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the race-tolerant "ensure" helpers for
// the Site and EventType reference tables.
//
// Ensure semantics: insert-if-absent then read back by name. Creation is
// never gated on an in-process existence check; the database unique
// constraint is the sole arbiter, so two concurrent callers may both attempt
// the insert and the loser simply reads the winner's row.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-gig-backend/internal/domain"
)

// EnsureSite returns the site with the given name, creating it when absent.
// urlBase is only applied on creation; an existing row is returned as-is.
func EnsureSite(ctx context.Context, db *gorm.DB, name, urlBase string) (*domain.Site, error) {
	s := &domain.Site{
		ID:        uuid.NewString(),
		Name:      name,
		URLBase:   urlBase,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(s).Error
	if err != nil {
		return nil, err
	}
	var out domain.Site
	if err := db.WithContext(ctx).Where("name = ?", name).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// EnsureEventType returns the event type with the given name, creating it
// when absent. Same lookup-or-create policy as EnsureSite.
func EnsureEventType(ctx context.Context, db *gorm.DB, name string) (*domain.EventType, error) {
	et := &domain.EventType{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(et).Error
	if err != nil {
		return nil, err
	}
	var out domain.EventType
	if err := db.WithContext(ctx).Where("name = ?", name).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
