// Sync HTTP handler.
//
// This file exposes the on-demand event synchronization endpoint:
//   - POST /api/v1/artists/{id}/sync
//
// The endpoint is synchronous: the provider fetch and all upserts complete
// before the response, so the reported counts describe exactly what this
// call did.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-gig-backend/internal/services"
)

// SyncArtistEvents godoc
// @ID          syncArtistEvents
// @Summary     Sync an artist's events
// @Description Fetches the artist's current events from Ticketmaster and upserts them locally. Per-record failures are skipped and counted, not fatal.
// @Tags        Sync
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true "Artist ID (UUID)" format(uuid)
//
// @Success     200  {object} services.SyncReport
// @Failure     400  {object} handlers.ErrorResponse "Invalid artist id"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized or provider credentials rejected"
// @Failure     404  {object} handlers.ErrorResponse "Artist not found"
// @Failure     502  {object} handlers.ErrorResponse "Provider call failed"
// @Router      /artists/{id}/sync [post]
func (h *Handlers) SyncArtistEvents(c *gin.Context) {
	artistID := c.Param("id")
	if _, err := uuid.Parse(artistID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "artist id must be a UUID")
		return
	}

	report, err := h.syncSvc.SyncArtistEvents(c.Request.Context(), artistID)
	if err != nil {
		if errors.Is(err, services.ErrArtistNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "artist not found")
			return
		}
		failUpstream(c, err, ErrCodeSyncFailed)
		return
	}
	ok(c, http.StatusOK, report)
}
