package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/NimrodTheDev/Social-Media-Manager/internal/config"
	"github.com/NimrodTheDev/Social-Media-Manager/internal/repo"
	"github.com/NimrodTheDev/Social-Media-Manager/internal/scheduler"
)

// stubController satisfies handlers.SchedulerController without a running loop.
type stubController struct{}

func (stubController) Running() bool           { return false }
func (stubController) Interval() time.Duration { return time.Minute }
func (stubController) BatchSize() int          { return 10 }
func (stubController) RunOnce(context.Context) (scheduler.Summary, error) {
	return scheduler.Summary{}, nil
}

func newRouterDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "router.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := config.Config{
		RateRPS:   0, // limiter off for route tests
		RateBurst: 1,
	}
	cfg.OTEL.ServiceName = "smm-test"
	RegisterRoutes(r, newRouterDB(t), stubController{}, cfg)
	return r
}

func TestHealthz(t *testing.T) {
	r := newRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	r := newRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "identity")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestRoutesRegistered(t *testing.T) {
	r := newRouter(t)

	cases := []struct {
		method, path string
		wantStatus   int
	}{
		{http.MethodGet, "/api/v1/scheduler", http.StatusOK},
		{http.MethodPost, "/api/v1/scheduler/run", http.StatusOK},
		{http.MethodGet, "/api/v1/posts", http.StatusOK},
		{http.MethodGet, "/api/v1/posts/nope", http.StatusNotFound},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Accept-Encoding", "identity")
		r.ServeHTTP(w, req)
		if w.Code != tc.wantStatus {
			t.Errorf("%s %s = %d, want %d", tc.method, tc.path, w.Code, tc.wantStatus)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	r := newRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/posts", nil)
	req.Header.Set("Accept-Encoding", "identity")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
}

func TestRequestIDPropagatedThroughStack(t *testing.T) {
	r := newRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "ops-debug-1")
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "ops-debug-1" {
		t.Fatalf("X-Request-ID = %q, want propagated value", got)
	}
}

func TestRateLimiterWiredWhenConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := config.Config{RateRPS: 0.001, RateBurst: 1}
	cfg.OTEL.ServiceName = "smm-test"
	RegisterRoutes(r, newRouterDB(t), stubController{}, cfg)

	// burst of 1: first passes, second is throttled
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w1.Code != http.StatusOK {
		t.Fatalf("first request = %d, want 200", w1.Code)
	}
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", w2.Code)
	}
}
