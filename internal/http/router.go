// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, authentication, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-gig-backend/internal/auth"
	"github.com/tbourn/go-gig-backend/internal/config"
	"github.com/tbourn/go-gig-backend/internal/http/handlers"
	"github.com/tbourn/go-gig-backend/internal/http/middleware"
	"github.com/tbourn/go-gig-backend/internal/services"
	"github.com/tbourn/go-gig-backend/internal/spotify"
	"github.com/tbourn/go-gig-backend/internal/ticketmaster"
)

// Deps carries the externally constructed dependencies the router injects
// into services: provider adapters and the token manager. Keeping
// construction in main (and tests) lets each caller point the adapters at
// real or fake endpoints.
type Deps struct {
	Spotify *spotify.Client
	Events  *ticketmaster.Client
	JWT     *auth.Manager
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), compression and
// rate limiting, CORS and security headers, health and metrics endpoints,
// the public OAuth routes, and the bearer-protected API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with credential scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Response compression
//  7. Metrics
//  8. CORS and Security headers
//
// Authentication is per-group, not global: the OAuth login/callback routes
// must stay reachable without a token. The rate limiter is per-group too,
// installed after RequireAuth on the protected API so each authenticated
// user gets an independent bucket; on the public OAuth routes it falls back
// to keying per client IP.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"Authorization", // bearer tokens must never reach the logs
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Response compression (event lists compress well)
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← adapters/db
	authSvc := &services.AuthService{
		DB:                db,
		Spotify:           deps.Spotify,
		JWT:               deps.JWT,
		RedirectURIWeb:    cfg.Spotify.RedirectURIWeb,
		RedirectURIMobile: cfg.Spotify.RedirectURIMobile,
	}
	artistSvc := &services.ArtistService{
		DB:      db,
		Spotify: deps.Spotify,
		Tokens:  authSvc,
	}
	syncSvc := &services.SyncService{
		DB:          db,
		Events:      deps.Events,
		CountryCode: cfg.Ticketmaster.CountryCode,
		PageSize:    cfg.Ticketmaster.PageSize,
	}
	h := handlers.New(authSvc, artistSvc, syncSvc,
		cfg.Spotify.AppRedirectWeb, cfg.Spotify.AppRedirectMobile)

	// Token-bucket rate limiter, shared across both route groups so user and
	// IP buckets live in one eviction map. It is installed per group (not on
	// the engine) because the user-keyed bucket needs RequireAuth to have run.
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())

	// Public OAuth routes (no bearer token yet): rate limited per client IP.
	authGroup := r.Group("/auth/spotify")
	authGroup.Use(rl.Handler())
	{
		authGroup.GET("/login/web", h.SpotifyLoginWeb)
		authGroup.GET("/login/mobile", h.SpotifyLoginMobile)
		authGroup.GET("/callback/web", h.SpotifyCallbackWeb)
		authGroup.GET("/callback/mobile", h.SpotifyCallbackMobile)
	}

	// Protected API: RequireAuth runs first so the limiter keys on the user.
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	api.Use(middleware.RequireAuth(deps.JWT))
	api.Use(rl.Handler())
	{
		// Artists
		api.GET("/artists", h.ListArtists)
		api.GET("/artists/search", h.SearchArtists)
		api.GET("/artists/:id/events", h.ListArtistEvents)

		// Sync
		api.POST("/artists/:id/sync", h.SyncArtistEvents)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
