// Command smm runs the post scheduling and publication engine: it opens the
// SQLite store, starts the scheduler loop, and serves the ops HTTP surface
// (health, metrics, manual cycle triggering, post inspection).
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
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/NimrodTheDev/Social-Media-Manager/internal/config"
	"github.com/NimrodTheDev/Social-Media-Manager/internal/domain"
	httpapi "github.com/NimrodTheDev/Social-Media-Manager/internal/http"
	"github.com/NimrodTheDev/Social-Media-Manager/internal/observability"
	"github.com/NimrodTheDev/Social-Media-Manager/internal/repo"
	"github.com/NimrodTheDev/Social-Media-Manager/internal/scheduler"
	"github.com/NimrodTheDev/Social-Media-Manager/internal/sysutil"
	"github.com/NimrodTheDev/Social-Media-Manager/internal/transport"
)

// version is injected at build time via -ldflags "-X main.version=...".
var version = ""

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	ver := sysutil.FirstNonEmpty(version, os.Getenv("APP_VERSION"), "dev")
	log.Info().Str("version", ver).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			log.Fatal().Err(err).Msg("gorm tracing plugin failed")
		}
	}

	transports := buildTransports(cfg)

	sched := scheduler.New(db, transports, scheduler.Options{
		Enabled:   cfg.Scheduler.Enabled,
		Interval:  cfg.Scheduler.Interval,
		BatchSize: cfg.Scheduler.BatchSize,
		Log:       log.With().Str("component", "scheduler").Logger(),
	})
	sched.Start()

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, sched, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("ops surface listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server failed")
	}

	// Stop the scheduler first so no cycle is mid-flight while the rest of
	// the process winds down.
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
	log.Info().Msg("stopped")
}

// buildTransports wires a publisher for every supported platform. Until real
// API clients are configured this uses the dry-run poster, which logs each
// unit instead of calling out; SCHEDULER_DRY_RUN forces it explicitly.
func buildTransports(cfg config.Config) *transport.Registry {
	poster := &transport.DryRunPoster{
		Log: log.With().Str("component", "dryrun").Logger(),
	}
	if !cfg.Scheduler.DryRun {
		// Real platform clients plug in here; dry-run remains the default
		// so a bare deployment never posts anywhere by accident.
		log.Warn().Msg("no platform API clients configured, publishing in dry-run mode")
	}

	pub := transport.NewUnitPublisher(poster)
	return transport.NewRegistry(map[domain.Platform]transport.Publisher{
		domain.PlatformTwitter:  pub,
		domain.PlatformMastodon: pub,
		domain.PlatformBluesky:  pub,
	})
}
