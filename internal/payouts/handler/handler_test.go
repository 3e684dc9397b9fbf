package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leadops_backend/internal/payouts/repository"
	"leadops_backend/internal/payouts/service"
	"leadops_backend/internal/store"
	"leadops_backend/platform/logger"
	"leadops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.New(repository.New(store.NewMemoryStore()), nil, nil, nil, time.UTC, logger.Nop())
	h := New(svc, validator.New())

	r := gin.New()
	h.RegisterAdminRoutes(r.Group("/api/v1/payouts/policies"))
	return r
}

func do(r http.Handler, method, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, "/api/v1/payouts/policies", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	out := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestCreateListPatch(t *testing.T) {
	r := newRouter()

	rec, body := do(r, http.MethodPost, `{"record":{"id":"pol_1","applicantName":"Dana Cruz","monthlyPremium":120}}`)
	if rec.Code != http.StatusOK || body["ok"] != true {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec, body = do(r, http.MethodGet, "")
	rows, _ := body["rows"].([]any)
	if rec.Code != http.StatusOK || len(rows) != 1 {
		t.Fatalf("list status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec, body = do(r, http.MethodPatch, `{"id":"pol_1","patch":{"status":"Approved"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d body=%s", rec.Code, rec.Body.String())
	}
	row, _ := body["row"].(map[string]any)
	if row["status"] != "Approved" || row["payoutDueAt"] == nil {
		t.Fatalf("unexpected row %v", row)
	}
	email, _ := body["email"].(map[string]any)
	if email["ok"] != false {
		t.Fatalf("expected email failure without a bus, got %v", email)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	r := newRouter()

	if rec, _ := do(r, http.MethodPost, `{"mode":"bulk"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported mode, got %d", rec.Code)
	}
	if rec, _ := do(r, http.MethodPost, `{"applicantName":"A","status":"Maybe"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid status, got %d", rec.Code)
	}
	if rec, body := do(r, http.MethodPost, `{"applicantName":""}`); rec.Code != http.StatusBadRequest || body["error"] != "missing_applicant" {
		t.Fatalf("expected missing_applicant, got %d %v", rec.Code, body)
	}
	if rec, _ := do(r, http.MethodPatch, `{"id":"missing"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec, _ := do(r, http.MethodPost, `{"mode":"import_applications"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when import is not configured, got %d", rec.Code)
	}
}
