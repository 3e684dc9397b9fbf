package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	bookingrepo "leadops_backend/internal/bookings/repository"
	"leadops_backend/internal/reminders/service"
	sponsorshiprepo "leadops_backend/internal/sponsorship/repository"
	"leadops_backend/internal/store"
	"leadops_backend/platform/httpkit"
	"leadops_backend/platform/logger"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
)

func newRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	s := store.NewMemoryStore()
	svc := service.New(service.Deps{
		Bookings: bookingrepo.New(s),
		State:    sponsorshiprepo.New(s),
	}, time.UTC, logger.Nop())

	r := gin.New()
	cron := httpkit.SharedSecret(func() string { return secret }, "x-cron-secret")
	New(svc).RegisterRoutes(r.Group("/api/v1/reminders", cron))
	return r
}

func TestRunRequiresCronSecret(t *testing.T) {
	r := newRouter("cron-secret")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reminders/day_of/run", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/reminders/day_of/run", nil)
	req.Header.Set("x-cron-secret", "cron-secret")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["ok"] != true || body["job"] != "day_of" || body["sent"] != float64(0) {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestRunUnknownJob(t *testing.T) {
	r := newRouter("")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reminders/weekly/run", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStatus(t *testing.T) {
	r := newRouter("")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reminders", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	body := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	jobs, _ := body["jobs"].([]any)
	if rec.Code != http.StatusOK || len(jobs) != len(service.Jobs) || body["followupTracked"] != float64(0) {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
}
