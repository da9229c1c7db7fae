// Package services – SyncService
//
// This file implements the on-demand event synchronization pipeline: fetch
// the first page of upcoming events for a tracked artist from the discovery
// provider and reconcile each record into the local store by upsert keyed
// on (source, external_id).
//
// Failure policy: the artist precondition and the provider fetch fail the
// whole call with no writes. Once reconciliation starts, failures are
// per-record: a record that cannot be persisted is logged, counted as
// skipped, and the batch continues.
package services

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-gig-backend/internal/domain"
	"github.com/tbourn/go-gig-backend/internal/repo"
	"github.com/tbourn/go-gig-backend/internal/ticketmaster"
)

const (
	// siteName / siteURLBase identify the discovery provider in the sites
	// reference table.
	siteName    = domain.SourceTicketmaster
	siteURLBase = "https://www.ticketmaster.com"

	// eventTypeName is the category stamped on every synced event.
	eventTypeName = "Concert"
)

var (
	syncEventsUpserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sync_events_upserted_total",
		Help: "Number of events written (inserted or refreshed) by sync runs.",
	})
	syncEventsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sync_events_skipped_total",
		Help: "Number of event records skipped by sync runs due to per-record failures.",
	})
	syncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_runs_total",
		Help: "Number of sync runs by outcome.",
	}, []string{"outcome"})
)

// EventSearcher is the discovery provider contract required by SyncService.
type EventSearcher interface {
	SearchEvents(ctx context.Context, keyword, countryCode string, size int) ([]ticketmaster.RawEvent, error)
}

// SyncReport summarizes one sync run.
type SyncReport struct {
	ArtistID   string `json:"artist_id"`
	ArtistName string `json:"artist_name"`
	// Upserted counts events written, whether freshly inserted or
	// refreshed in place. The two are indistinguishable to callers.
	Upserted int `json:"upserted"`
	// Skipped counts provider records dropped by per-record failures.
	Skipped int `json:"skipped"`
}

// SyncService reconciles provider events into the local store.
type SyncService struct {
	DB     *gorm.DB
	Events EventSearcher

	// CountryCode scopes discovery searches; empty defers to the
	// provider adapter's default.
	CountryCode string
	// PageSize caps the number of events fetched per run; <= 0 defers to
	// the adapter default.
	PageSize int

	// now is swappable for tests.
	now func() time.Time
}

func (s *SyncService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

// SyncArtistEvents fetches the current events for the artist and upserts
// them. The artist must already exist locally (precondition, fail-fast
// with ErrArtistNotFound). Provider failures before the first write abort
// the run with the store untouched.
//
// Every persisted event gets last_check_at stamped with the run time, even
// when no other field changed, so staleness can always be measured against
// the latest sync.
func (s *SyncService) SyncArtistEvents(ctx context.Context, artistID string) (*SyncReport, error) {
	artist, err := repo.GetArtist(ctx, s.DB, artistID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			syncRuns.WithLabelValues("artist_not_found").Inc()
			return nil, ErrArtistNotFound
		}
		return nil, err
	}

	// Fetch before any write so a provider failure leaves the store untouched.
	raw, err := s.Events.SearchEvents(ctx, artist.Name, s.CountryCode, s.PageSize)
	if err != nil {
		syncRuns.WithLabelValues("fetch_failed").Inc()
		return nil, err
	}

	site, err := repo.EnsureSite(ctx, s.DB, siteName, siteURLBase)
	if err != nil {
		return nil, err
	}
	eventType, err := repo.EnsureEventType(ctx, s.DB, eventTypeName)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	report := &SyncReport{ArtistID: artist.ID, ArtistName: artist.Name}
	for i := range raw {
		r := &raw[i]
		if r.ID == "" {
			// Not an error: a record without an id has no identity to
			// reconcile against.
			continue
		}
		e := mapEvent(r, artist, site.ID, eventType.ID, now)
		if err := repo.UpsertEvent(ctx, s.DB, e); err != nil {
			log.Warn().Err(err).
				Str("artist_id", artist.ID).
				Str("external_id", r.ID).
				Msg("event upsert failed, skipping record")
			report.Skipped++
			syncEventsSkipped.Inc()
			continue
		}
		report.Upserted++
		syncEventsUpserted.Inc()
	}

	syncRuns.WithLabelValues("ok").Inc()
	log.Info().
		Str("artist_id", artist.ID).
		Str("artist", artist.Name).
		Int("upserted", report.Upserted).
		Int("skipped", report.Skipped).
		Msg("event sync completed")
	return report, nil
}

// mapEvent converts a raw provider record into the persistence model.
// Missing optional fields stay nil; the empty string is never stored in
// place of an absent venue, city, or URL.
func mapEvent(r *ticketmaster.RawEvent, artist *domain.Artist, siteID, eventTypeID string, now time.Time) *domain.Event {
	e := &domain.Event{
		Source:      domain.SourceTicketmaster,
		ExternalID:  r.ID,
		ArtistID:    artist.ID,
		ArtistName:  artist.Name,
		SiteID:      siteID,
		EventTypeID: eventTypeID,
		Date:        r.StartDate(),
		LastCheckAt: &now,
	}
	if r.URL != "" {
		url := r.URL
		e.URL = &url
	}
	if v := r.FirstVenue(); v != nil {
		if v.Name != "" {
			name := v.Name
			e.Venue = &name
		}
		if v.City.Name != "" {
			city := v.City.Name
			e.City = &city
		}
	}
	return e
}
