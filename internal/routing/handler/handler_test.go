package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"leadops_backend/internal/crm"
	leadrepo "leadops_backend/internal/leads/repository"
	"leadops_backend/internal/routing/domain"
	"leadops_backend/internal/routing/repository"
	"leadops_backend/internal/routing/service"
	sponsorshiprepo "leadops_backend/internal/sponsorship/repository"
	"leadops_backend/internal/store"
	"leadops_backend/platform/logger"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
)

type intakeConfig struct{ token, fbSecret string }

func (c intakeConfig) GetIntakeToken() string     { return c.token }
func (c intakeConfig) GetFBWebhookSecret() string { return c.fbSecret }
func (c intakeConfig) GetCronSecret() string      { return "" }

type noCRM struct{}

func (noCRM) UserIDFor(string) string { return "" }
func (noCRM) UpdateContactOwner(context.Context, string, string) crm.UpdateResult {
	return crm.UpdateResult{Reason: crm.ReasonMissingConfig}
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	s := store.NewMemoryStore()
	defaults := domain.DefaultSettings([]string{"Jamal Holmes"}, "Kimora Link")
	svc := service.New(repository.New(s, defaults), leadrepo.New(s), sponsorshiprepo.New(s), noCRM{}, nil, nil, logger.Nop())
	h := New(svc, intakeConfig{token: "intake-secret", fbSecret: "fb-secret"})

	r := gin.New()
	v1 := r.Group("/api/v1")
	h.RegisterPublicRoutes(v1.Group("/router"))
	h.RegisterAdminRoutes(v1.Group("/router"))
	h.RegisterFBRoutes(v1.Group("/leads/assign-fb"))
	return r
}

func do(r http.Handler, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	out := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestAssignRequiresIntakeToken(t *testing.T) {
	r := newRouter()

	rec, body := do(r, http.MethodPost, "/api/v1/router/assign", `{"id":"c1"}`, nil)
	if rec.Code != http.StatusUnauthorized || body["ok"] != false {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec, body = do(r, http.MethodPost, "/api/v1/router/assign", `{"id":"c1","token":"intake-secret"}`, nil)
	if rec.Code != http.StatusOK || body["assignedTo"] == nil {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec, _ = do(r, http.MethodPost, "/api/v1/router/assign", `{"id":"c2"}`, map[string]string{"x-ghl-token": "intake-secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("header token rejected: %d %s", rec.Code, rec.Body.String())
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	r := newRouter()

	rec, body := do(r, http.MethodPut, "/api/v1/router/settings", `{"patch":{"enabled":false}}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	settings, _ := body["settings"].(map[string]any)
	if settings["enabled"] != false {
		t.Fatalf("expected router disabled, got %v", settings)
	}

	rec, body = do(r, http.MethodPost, "/api/v1/router/assign", `{"id":"c1","token":"intake-secret"}`, nil)
	if rec.Code != http.StatusOK || body["reason"] != domain.ReasonRouterDisabled || body["assignedTo"] != "Kimora Link" {
		t.Fatalf("unexpected assignment %s", rec.Body.String())
	}

	rec, _ = do(r, http.MethodPut, "/api/v1/router/settings", `{"mode":"weighted"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad mode, got %d", rec.Code)
	}
}

func TestDashboardAndSweep(t *testing.T) {
	r := newRouter()

	rec, body := do(r, http.MethodGet, "/api/v1/router/dashboard", "", nil)
	if rec.Code != http.StatusOK || body["callMetrics"] == nil || body["tomorrowStartOrder"] == nil {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec, body = do(r, http.MethodPost, "/api/v1/router/sla-sweep", "", nil)
	if rec.Code != http.StatusOK || body["reassigned"] != float64(0) {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestAssignFBChecksSignature(t *testing.T) {
	r := newRouter()

	rec, _ := do(r, http.MethodPost, "/api/v1/leads/assign-fb", `{"contactId":"fb-1"}`, map[string]string{"x-ll-signature": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec, body := do(r, http.MethodPost, "/api/v1/leads/assign-fb", `{"contactId":"fb-1"}`, map[string]string{"x-ll-signature": "fb-secret"})
	if rec.Code != http.StatusOK || body["ok"] != true || body["contactId"] != "fb-1" {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if body["ghlOwnerUpdated"] != false {
		t.Fatalf("expected CRM update to be reported as skipped, got %v", body["ghlUpdate"])
	}
}
