package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NimrodTheDev/Social-Media-Manager/internal/http/middleware"
	"github.com/NimrodTheDev/Social-Media-Manager/internal/scheduler"
)

// SchedulerController is the subset of *scheduler.Scheduler the handlers
// need, extracted as an interface so tests can substitute a fake.
type SchedulerController interface {
	Running() bool
	Interval() time.Duration
	BatchSize() int
	RunOnce(ctx context.Context) (scheduler.Summary, error)
}

// SchedulerHandler exposes scheduler status and manual triggering.
type SchedulerHandler struct {
	Scheduler SchedulerController
}

// statusBody is the GET /scheduler response.
type statusBody struct {
	Running   bool   `json:"running"`
	Interval  string `json:"interval"`
	BatchSize int    `json:"batch_size"`
}

// Status reports whether the loop is running and its configured cadence.
func (h *SchedulerHandler) Status(c *gin.Context) {
	ok(c, statusBody{
		Running:   h.Scheduler.Running(),
		Interval:  h.Scheduler.Interval().String(),
		BatchSize: h.Scheduler.BatchSize(),
	})
}

// Run executes one batch cycle synchronously and returns its summary. A
// selection failure maps to 500; per-post failures are part of the summary,
// not an error.
func (h *SchedulerHandler) Run(c *gin.Context) {
	sum, err := h.Scheduler.RunOnce(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, CodeInternalError, "batch cycle failed")
		return
	}
	middleware.LoggerFrom(c).Info().
		Int("processed", sum.Processed).
		Int("failed", sum.Failed).
		Msg("manual batch cycle")
	ok(c, sum)
}
