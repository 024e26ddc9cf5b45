package health_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/leadhub/internal/app/features/health"
	"github.com/dalemusser/leadhub/internal/app/system/cache"
	"github.com/dalemusser/leadhub/internal/app/system/ingestlock"
	"github.com/dalemusser/leadhub/internal/testutil"
	"go.uber.org/zap"
)

type healthBody struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Cache     string `json:"cache"`
	Ingestion string `json:"ingestion"`
}

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, healthBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Serve(rec, httptest.NewRequest("GET", "/health", nil))

	var body healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, body
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := health.NewHandler(db.Client(), cache.NewMemory(), ingestlock.New(db), zap.NewNop())

	rec, body := serve(t, handler)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if contentType := rec.Header().Get("Content-Type"); contentType != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", contentType, "application/json")
	}
	if body.Status != "ok" || body.Database != "connected" {
		t.Errorf("status=%q database=%q", body.Status, body.Database)
	}
	if body.Cache != "ok" {
		t.Errorf("cache: got %q, want ok", body.Cache)
	}
	if body.Ingestion != "idle" {
		t.Errorf("ingestion: got %q, want idle", body.Ingestion)
	}
}

func TestServe_IngestionRunning(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	locks := ingestlock.New(db)
	lease, err := locks.Acquire(ctx, ingestlock.LeadIngestion, time.Minute)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lease.Release(ctx)

	_, body := serve(t, health.NewHandler(db.Client(), nil, locks, zap.NewNop()))
	if body.Ingestion != "running" {
		t.Errorf("ingestion: got %q, want running", body.Ingestion)
	}
	if body.Cache != "" {
		t.Errorf("cache: got %q, want omitted", body.Cache)
	}
}

func TestServe_CacheClosed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	c := cache.NewMemory()
	_ = c.Close()

	rec, body := serve(t, health.NewHandler(db.Client(), c, nil, zap.NewNop()))
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200 for degraded cache, got %d", rec.Code)
	}
	if body.Status != "degraded" || body.Cache != "unavailable" {
		t.Errorf("status=%q cache=%q", body.Status, body.Cache)
	}
}
