package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-gig-backend/internal/domain"
)

func newStatsDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("stats_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestArtistsStats_EmptyAndPopulated(t *testing.T) {
	db := newStatsDB(t)
	ctx := context.Background()

	count, maxTS, err := ArtistsStats(ctx, db)
	if err != nil {
		t.Fatalf("empty stats: %v", err)
	}
	if count != 0 || maxTS != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxTS)
	}

	for _, sp := range []string{"sp1", "sp2"} {
		if _, err := UpsertArtist(ctx, db, &domain.Artist{SpotifyID: sp, Name: sp}); err != nil {
			t.Fatalf("seed %s: %v", sp, err)
		}
	}

	count, maxTS, err = ArtistsStats(ctx, db)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 2 || maxTS == nil || maxTS.IsZero() {
		t.Fatalf("unexpected stats: count=%d maxTS=%v", count, maxTS)
	}
}

func TestEventsStats_ScopedToArtist(t *testing.T) {
	db := newStatsDB(t)
	ctx := context.Background()

	a1, err := UpsertArtist(ctx, db, &domain.Artist{SpotifyID: "sp1", Name: "A"})
	if err != nil {
		t.Fatalf("seed a1: %v", err)
	}
	a2, err := UpsertArtist(ctx, db, &domain.Artist{SpotifyID: "sp2", Name: "B"})
	if err != nil {
		t.Fatalf("seed a2: %v", err)
	}
	site, err := EnsureSite(ctx, db, "ticketmaster", "")
	if err != nil {
		t.Fatalf("seed site: %v", err)
	}
	et, err := EnsureEventType(ctx, db, "Concert")
	if err != nil {
		t.Fatalf("seed type: %v", err)
	}

	seed := []struct {
		artist *domain.Artist
		ext    string
	}{
		{a1, "e1"}, {a1, "e2"}, {a2, "e3"},
	}
	for _, s := range seed {
		if err := UpsertEvent(ctx, db, &domain.Event{
			Source:      domain.SourceTicketmaster,
			ExternalID:  s.ext,
			ArtistID:    s.artist.ID,
			ArtistName:  s.artist.Name,
			SiteID:      site.ID,
			EventTypeID: et.ID,
		}); err != nil {
			t.Fatalf("seed %s: %v", s.ext, err)
		}
	}

	count, maxTS, err := EventsStats(ctx, db, a1.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 2 || maxTS == nil {
		t.Fatalf("unexpected stats for a1: count=%d maxTS=%v", count, maxTS)
	}

	count, maxTS, err = EventsStats(ctx, db, "unknown")
	if err != nil {
		t.Fatalf("stats unknown: %v", err)
	}
	if count != 0 || maxTS != nil {
		t.Fatalf("expected (0, nil) for unknown artist, got (%d, %v)", count, maxTS)
	}
}
