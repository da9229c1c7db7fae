package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-gig-backend/internal/domain"
)

func newArtistRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("artist_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func intPtr(v int) *int { return &v }

func TestUpsertArtist_Error_NoTable(t *testing.T) {
	db := newArtistRepoDB(t /* no migrations */)
	a, err := UpsertArtist(context.Background(), db, &domain.Artist{SpotifyID: "sp1", Name: "X"})
	if err == nil || a != nil {
		t.Fatalf("expected error without table, got artist=%v err=%v", a, err)
	}
}

func TestUpsertArtist_InsertThenUpdate_SameRow(t *testing.T) {
	db := newArtistRepoDB(t, &domain.Artist{})
	ctx := context.Background()

	img := "https://img.example/a.jpg"
	first, err := UpsertArtist(ctx, db, &domain.Artist{
		SpotifyID:  "sp1",
		Name:       "Daft Punk",
		Genres:     []string{"electro"},
		Popularity: intPtr(88),
		Followers:  intPtr(1000),
		Image:      &img,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if first.ID == "" || first.SpotifyID != "sp1" || first.Name != "Daft Punk" {
		t.Fatalf("unexpected stored artist: %+v", first)
	}

	// Same spotify_id with changed fields must update in place.
	second, err := UpsertArtist(ctx, db, &domain.Artist{
		SpotifyID:  "sp1",
		Name:       "Daft Punk (Official)",
		Genres:     []string{"electro", "house"},
		Popularity: intPtr(90),
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert created a second row: %q vs %q", second.ID, first.ID)
	}
	if second.Name != "Daft Punk (Official)" || second.Popularity == nil || *second.Popularity != 90 {
		t.Fatalf("mutable fields not replaced: %+v", second)
	}
	// Full replace: followers/image absent in the newest record must be cleared.
	if second.Followers != nil || second.Image != nil {
		t.Fatalf("expected absent fields cleared, got followers=%v image=%v", second.Followers, second.Image)
	}

	var count int64
	if err := db.Model(&domain.Artist{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one row, got %d", count)
	}
}

func TestUpsertArtist_Idempotent(t *testing.T) {
	db := newArtistRepoDB(t, &domain.Artist{})
	ctx := context.Background()

	in := &domain.Artist{SpotifyID: "sp2", Name: "Air", Genres: []string{}}
	a1, err := UpsertArtist(ctx, db, in)
	if err != nil {
		t.Fatalf("upsert 1: %v", err)
	}
	a2, err := UpsertArtist(ctx, db, &domain.Artist{SpotifyID: "sp2", Name: "Air", Genres: []string{}})
	if err != nil {
		t.Fatalf("upsert 2: %v", err)
	}
	if a1.ID != a2.ID || a2.Name != "Air" {
		t.Fatalf("idempotent upsert changed identity: %+v vs %+v", a1, a2)
	}
}

func TestGetArtist_FoundAndNotFound(t *testing.T) {
	db := newArtistRepoDB(t, &domain.Artist{})
	ctx := context.Background()

	if _, err := GetArtist(ctx, db, "nope"); err == nil {
		t.Fatalf("expected ErrRecordNotFound for missing artist")
	}

	stored, err := UpsertArtist(ctx, db, &domain.Artist{SpotifyID: "sp3", Name: "M83"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err := GetArtist(ctx, db, stored.ID)
	if err != nil {
		t.Fatalf("GetArtist: %v", err)
	}
	if got.SpotifyID != "sp3" {
		t.Fatalf("unexpected artist: %+v", got)
	}
}

func TestListArtistsPage_OrderAndPagination(t *testing.T) {
	db := newArtistRepoDB(t, &domain.Artist{})
	ctx := context.Background()

	for _, name := range []string{"Charlie", "Alpha", "Bravo", "Delta"} {
		if _, err := UpsertArtist(ctx, db, &domain.Artist{SpotifyID: "sp-" + name, Name: name}); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}

	total, err := CountArtists(ctx, db)
	if err != nil {
		t.Fatalf("CountArtists: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected 4 artists, got %d", total)
	}

	// Offset 1, limit 2 over name-ascending order => Bravo, Charlie
	page, err := ListArtistsPage(ctx, db, 1, 2)
	if err != nil {
		t.Fatalf("ListArtistsPage: %v", err)
	}
	if len(page) != 2 || page[0].Name != "Bravo" || page[1].Name != "Charlie" {
		t.Fatalf("unexpected page: %+v", page)
	}
}
