// Package domain defines the persistence models for users, artists, sites,
// event types, and events. These types are mapped with GORM and form the
// core data layer of the gig-tracking backend.
package domain

import (
	"time"
)

// SourceTicketmaster is the source constant stamped on events ingested from
// the Ticketmaster Discovery API. Together with ExternalID it forms the
// reconciliation key for events.
const SourceTicketmaster = "ticketmaster"

// User represents an account created from a Spotify login. The user is keyed
// by the stable Spotify user id; the refresh token is owned exclusively by
// the store and is never serialized to clients.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - SpotifyUserID: external provider id; unique and stable per account.
//   - DisplayName: profile name as reported by Spotify at last login.
//   - RefreshToken: long-lived refresh credential, replaced on every
//     re-authentication and on provider-side rotation.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type User struct {
	ID            string    `json:"id"              gorm:"type:char(36);primaryKey"`
	SpotifyUserID string    `json:"spotify_user_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_users_spotify_id"`
	DisplayName   string    `json:"display_name"    gorm:"type:varchar(255)"`
	RefreshToken  string    `json:"-"               gorm:"type:text;not null"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Artist is a normalized catalog entity keyed by its Spotify id. Rows are
// created and refreshed exclusively by upserts from the search pipeline;
// mutable fields follow last-write-wins, full-replace semantics (a field
// absent in the newest provider record is cleared, not merged).
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - SpotifyID: external id; unique and stable per provider.
//   - Name: display name.
//   - Genres: provider genre tags, stored as a JSON array.
//   - Popularity / Followers: optional numeric metrics; nil when the
//     provider omitted them.
//   - Image: optional image URL.
type Artist struct {
	ID         string    `json:"id"         gorm:"type:char(36);primaryKey"`
	SpotifyID  string    `json:"spotify_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_artists_spotify_id"`
	Name       string    `json:"name"       gorm:"type:varchar(255);not null"`
	Genres     []string  `json:"genres"     gorm:"serializer:json"`
	Popularity *int      `json:"popularity,omitempty"`
	Followers  *int      `json:"followers,omitempty"`
	Image      *string   `json:"image,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for Artist.
func (Artist) TableName() string { return "artists" }

// Site is a ticketing source reference entity (e.g. "ticketmaster").
// Effectively a reference table: rows are created once via the race-tolerant
// EnsureSite helper and referenced by events afterwards.
type Site struct {
	ID        string    `json:"id"       gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"     gorm:"type:varchar(64);not null;uniqueIndex:ux_sites_name"`
	URLBase   string    `json:"url_base" gorm:"type:text"`
	Active    bool      `json:"active"   gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Site.
func (Site) TableName() string { return "sites" }

// EventType is a category reference entity (e.g. "Concert"), created via
// the same lookup-or-create lifecycle as Site.
type EventType struct {
	ID        string    `json:"id"   gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(64);not null;uniqueIndex:ux_event_types_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for EventType.
func (EventType) TableName() string { return "event_types" }

// Event is an occurrence ingested from a ticketing provider. Its identity is
// the (source, external_id) pair, which must be globally unique: re-ingesting
// the same external record updates the existing row rather than creating a
// duplicate. A secondary uniqueness constraint covers (site_id, url) when a
// URL is present; NULL urls never collide (SQLite treats NULLs as distinct).
//
// ArtistName is a denormalized copy of the linked artist's display name,
// refreshed only at upsert time. LastCheckAt is the sync heartbeat: it is
// bumped on every successful sync pass that sees the event, even when no
// other field changed.
type Event struct {
	ID               string     `json:"id"          gorm:"type:char(36);primaryKey"`
	Source           string     `json:"source"      gorm:"type:varchar(32);not null;uniqueIndex:ux_events_source_ext,priority:1"`
	ExternalID       string     `json:"external_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_events_source_ext,priority:2"`
	ArtistID         string     `json:"artist_id"   gorm:"type:char(36);not null;index"`
	ArtistName       string     `json:"artist_name" gorm:"type:varchar(255);not null"`
	SiteID           string     `json:"site_id"     gorm:"type:char(36);not null;uniqueIndex:ux_events_site_url,priority:1"`
	EventTypeID      string     `json:"event_type_id" gorm:"type:char(36);not null"`
	URL              *string    `json:"url,omitempty"   gorm:"type:text;uniqueIndex:ux_events_site_url,priority:2"`
	Venue            *string    `json:"venue,omitempty" gorm:"type:varchar(255)"`
	City             *string    `json:"city,omitempty"  gorm:"type:varchar(255)"`
	Date             *time.Time `json:"date,omitempty"  gorm:"index"`
	LastAvailability *bool      `json:"last_availability,omitempty"`
	LastCheckAt      *time.Time `json:"last_check_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Artist is the tracked catalog entity this event belongs to.
	Artist Artist `json:"-" gorm:"foreignKey:ArtistID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	// Site is the ticketing source the event was discovered on.
	Site Site `json:"-" gorm:"foreignKey:SiteID;references:ID"`
	// EventType categorizes the event (e.g. Concert).
	EventType EventType `json:"-" gorm:"foreignKey:EventTypeID;references:ID"`
}

// TableName returns the database table name for Event.
func (Event) TableName() string { return "events" }

// AvailabilityLog records one availability probe of an event. The newest row
// per event mirrors the event's own last_availability/last_check_at fields.
type AvailabilityLog struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	EventID   string    `json:"event_id"   gorm:"type:char(36);not null;index:idx_avail_event,priority:1"`
	CheckedAt time.Time `json:"checked_at" gorm:"not null;index:idx_avail_event,priority:2"`
	Available bool      `json:"available"  gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`

	// Event is the probed occurrence. Logs are cascade-deleted with it.
	Event Event `json:"-" gorm:"foreignKey:EventID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for AvailabilityLog.
func (AvailabilityLog) TableName() string { return "availability_logs" }
