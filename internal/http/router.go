// Package httpapi wires the ops HTTP surface (Gin) to the scheduler and the
// post store. This is an operational surface only: health, metrics, manual
// cycle triggering, and read-only inspection; the user-facing product API
// lives in the surrounding application.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after the logger
//  5. Gzip
//  6. Metrics
//  7. Rate limiter (per client IP)
//  8. CORS
package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/NimrodTheDev/Social-Media-Manager/internal/config"
	"github.com/NimrodTheDev/Social-Media-Manager/internal/http/handlers"
	"github.com/NimrodTheDev/Social-Media-Manager/internal/http/middleware"
)

// RegisterRoutes attaches middleware and ops endpoints to the given Gin
// engine. sched may be any SchedulerController (the real scheduler in main,
// a fake in tests).
func RegisterRoutes(r *gin.Engine, db *gorm.DB, sched handlers.SchedulerController, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.RateRPS > 0 {
		rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
		r.Use(rl.Handler())
	}

	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORS.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost},
			AllowHeaders: []string{"Content-Type", "X-Request-ID"},
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	sh := &handlers.SchedulerHandler{Scheduler: sched}
	ph := &handlers.PostsHandler{DB: db}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/scheduler", sh.Status)
		v1.POST("/scheduler/run", sh.Run)
		v1.GET("/posts", ph.List)
		v1.GET("/posts/:id", ph.Get)
	}
}
