// Command server runs the gig-tracking HTTP API.
//
// Boot sequence: load .env (best effort), configure logging, load and
// validate configuration, open the database and migrate, set up tracing,
// construct the provider adapters, and serve until SIGINT/SIGTERM. Shutdown
// drains in-flight requests before flushing the tracer.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-gig-backend/internal/auth"
	"github.com/tbourn/go-gig-backend/internal/config"
	httpapi "github.com/tbourn/go-gig-backend/internal/http"
	"github.com/tbourn/go-gig-backend/internal/observability"
	"github.com/tbourn/go-gig-backend/internal/repo"
	"github.com/tbourn/go-gig-backend/internal/spotify"
	"github.com/tbourn/go-gig-backend/internal/sysutil"
	"github.com/tbourn/go-gig-backend/internal/ticketmaster"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	ctx := context.Background()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}

	jwtMgr, err := auth.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		log.Fatal().Err(err).Msg("configure token manager")
	}

	events, err := ticketmaster.New(ticketmaster.Config{
		APIKey:         cfg.Ticketmaster.APIKey,
		DefaultCountry: cfg.Ticketmaster.CountryCode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configure ticketmaster client")
	}

	deps := httpapi.Deps{
		Spotify: spotify.New(spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
		}),
		Events: events,
		JWT:    jwtMgr,
	}

	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, deps, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracer shutdown")
	}
}
