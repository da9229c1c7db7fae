// Artist HTTP handlers.
//
// This file exposes REST endpoints for artist resources:
//   - GET /api/v1/artists/search      (provider search, persists results)
//   - GET /api/v1/artists             (local list, paginated, ETag support)
//   - GET /api/v1/artists/{id}/events (local event list for one artist)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses (including
// conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-gig-backend/internal/domain"
	"github.com/tbourn/go-gig-backend/internal/repo"
	"github.com/tbourn/go-gig-backend/internal/services"
	"github.com/tbourn/go-gig-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ArtistService defines artist search and read operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ArtistService interface {
	// Search queries the provider catalog and persists every result.
	Search(ctx context.Context, userID, q string) ([]domain.Artist, error)
	// ListArtists returns one page of locally stored artists.
	ListArtists(ctx context.Context, page, pageSize int) (*services.ArtistPage, error)
	// ListEvents returns the stored events for an artist, soonest first.
	ListEvents(ctx context.Context, artistID string, limit int) ([]domain.Event, error)
}

// SyncService defines the event synchronization operation consumed by HTTP
// handlers.
type SyncService interface {
	// SyncArtistEvents reconciles the artist's current provider events
	// into the store and reports counts.
	SyncArtistEvents(ctx context.Context, artistID string) (*services.SyncReport, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for auth, artists, and sync. It
// depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	authSvc   AuthService
	artistSvc ArtistService
	syncSvc   SyncService

	// Client URLs the OAuth callbacks redirect to with ?token=.
	appRedirectWeb    string
	appRedirectMobile string
}

// New constructs a Handlers instance bound to the given services and the
// per-platform post-login redirect URLs.
func New(authSvc AuthService, artistSvc ArtistService, syncSvc SyncService, appRedirectWeb, appRedirectMobile string) *Handlers {
	return &Handlers{
		authSvc:           authSvc,
		artistSvc:         artistSvc,
		syncSvc:           syncSvc,
		appRedirectWeb:    appRedirectWeb,
		appRedirectMobile: appRedirectMobile,
	}
}

// userID extracts the authenticated user id from Gin context (set by the
// auth middleware). Empty when the request is unauthenticated; routes behind
// the middleware always see a value.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListArtistsResponse wraps a page of artists and pagination information.
type ListArtistsResponse struct {
	Artists    []domain.Artist `json:"artists"`
	Pagination Pagination      `json:"pagination"`
}

// SearchArtistsResponse wraps the persisted artists for a search query.
type SearchArtistsResponse struct {
	Query   string          `json:"query"`
	Artists []domain.Artist `json:"artists"`
}

// ListEventsResponse wraps an artist's stored events.
type ListEventsResponse struct {
	ArtistID string         `json:"artist_id"`
	Events   []domain.Event `json:"events"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// failUpstream translates provider-facing service errors into responses.
// Returns false when err was nil.
func failUpstream(c *gin.Context, err error, fallbackCode string) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, domain.ErrUpstreamAuth):
		fail(c, http.StatusUnauthorized, ErrCodeUpstreamAuth, "provider rejected stored credentials")
	case errors.Is(err, domain.ErrUpstreamRequest):
		fail(c, http.StatusBadGateway, ErrCodeUpstreamFailed, "provider call failed")
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "account no longer exists")
	default:
		fail(c, http.StatusInternalServerError, fallbackCode, err.Error())
	}
	return true
}

//
// Handlers
//

// SearchArtists godoc
// @ID          searchArtists
// @Summary     Search artists
// @Description Searches the Spotify catalog and stores every returned artist locally. Returns the stored records.
// @Tags        Artists
// @Produce     json
// @Security    BearerAuth
//
// @Param       q  query  string  true "Search keyword"  example(daft punk)
//
// @Success     200  {object} handlers.SearchArtistsResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing or empty q"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized or provider credentials rejected"
// @Failure     502  {object} handlers.ErrorResponse "Provider call failed"
// @Router      /artists/search [get]
func (h *Handlers) SearchArtists(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))

	artists, err := h.artistSvc.Search(c.Request.Context(), userID(c), q)
	if err != nil {
		if errors.Is(err, services.ErrEmptyQuery) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "q query parameter required")
			return
		}
		failUpstream(c, err, ErrCodeSearchFailed)
		return
	}
	ok(c, http.StatusOK, SearchArtistsResponse{Query: q, Artists: artists})
}

// ListArtists godoc
// @ID          listArtists
// @Summary     List stored artists (paginated)
// @Description Returns a page of locally stored artists ordered by name. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Artists
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListArtistsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /artists [get]
func (h *Handlers) ListArtists(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, okCast := h.artistSvc.(*services.ArtistService); okCast {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.ArtistsStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"artists:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	pageData, err := h.artistSvc.ListArtists(ctx, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((pageData.Total + int64(pageData.PageSize) - 1) / int64(pageData.PageSize))
	ok(c, http.StatusOK, ListArtistsResponse{
		Artists: pageData.Artists,
		Pagination: Pagination{
			Page:       pageData.Page,
			PageSize:   pageData.PageSize,
			Total:      pageData.Total,
			TotalPages: totalPages,
			HasNext:    pageData.Page < totalPages,
		},
	})
}

// ListArtistEvents godoc
// @ID          listArtistEvents
// @Summary     List an artist's stored events
// @Description Returns the locally stored events for an artist, soonest first (undated events last). Supports weak ETag via If-None-Match and may return 304.
// @Tags        Artists
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       id             path    string  true  "Artist ID (UUID)" format(uuid)
// @Param       limit          query   int     false "Maximum events returned" default(50)
//
// @Success     200  {object} handlers.ListEventsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Invalid artist id"
// @Failure     404  {object} handlers.ErrorResponse "Artist not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /artists/{id}/events [get]
func (h *Handlers) ListArtistEvents(c *gin.Context) {
	ctx := c.Request.Context()
	artistID := c.Param("id")
	if _, err := uuid.Parse(artistID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "artist id must be a UUID")
		return
	}

	// ETag pre-check (best effort). The header itself is only set on the
	// success path so a 404 never carries a cacheable validator.
	var db *gorm.DB
	if svc, okCast := h.artistSvc.(*services.ArtistService); okCast {
		db = svc.DB
	}
	var etag string
	if db != nil {
		if count, maxTS, err := repo.EventsStats(ctx, db, artistID); err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag = fmt.Sprintf(`W/"events:%s:%d:%d"`, artistID, count, ts)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Header("ETag", etag)
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	limit := utils.AtoiDefault(c.Query("limit"), 0)
	events, err := h.artistSvc.ListEvents(ctx, artistID, limit)
	if err != nil {
		if errors.Is(err, services.ErrArtistNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "artist not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if etag != "" {
		c.Header("ETag", etag)
	}
	ok(c, http.StatusOK, ListEventsResponse{ArtistID: artistID, Events: events})
}
