package reports_test

import (
	"bytes"
	"net/http"
	"testing"

	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/features/reports"
	"github.com/dalemusser/leadhub/internal/app/leadops/stats"
	leadstore "github.com/dalemusser/leadhub/internal/app/store/leads"
	userstore "github.com/dalemusser/leadhub/internal/app/store/users"
	"github.com/dalemusser/leadhub/internal/app/system/cache"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/dalemusser/leadhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type env struct {
	router chi.Router
	admin  models.User
	asha   models.User
}

func setup(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	logger := zap.NewNop()
	fx := testutil.NewFixtures(t, db)
	st := stats.New(leadstore.New(db), userstore.New(db), cache.NewMemory(), 0)

	r := chi.NewRouter()
	reports.MountRoutes(r, reports.NewHandler(st, nil, uierrors.NewErrorLogger(logger), logger))

	e := &env{
		router: r,
		admin:  fx.CreateAdmin(ctx, "Admin", "admin@example.com"),
		asha:   fx.CreateAgent(ctx, "Asha", "asha@example.com"),
	}
	fx.CreateLead(ctx, "Ravi", "ravi@example.com", "9876543210", e.asha.ID, e.admin.ID)
	fx.CreateLeadWithStatus(ctx, "Meera", "meera@example.com", "9876500001", models.StatusEnrolled, e.asha.ID, e.admin.ID)
	return e
}

func (e *env) get(target string) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.NewJSONRequest("GET", target, nil, testutil.AsTestUser(e.admin)))
	return rec
}

func TestServeStats_Cached(t *testing.T) {
	e := setup(t)

	rec := e.get("/stats")
	rec.AssertStatus(t, http.StatusOK)
	if got := rec.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("first X-Cache = %q, want MISS", got)
	}
	var view stats.AdminView
	rec.DecodeJSON(t, &view)
	if view.Total != 2 || len(view.ByAgent) != 1 || view.ByAgent[0].Count != 2 {
		t.Errorf("view = %+v", view)
	}

	if got := e.get("/stats").Header().Get("X-Cache"); got != "HIT" {
		t.Errorf("second X-Cache = %q, want HIT", got)
	}
}

func TestServeExport(t *testing.T) {
	e := setup(t)

	rec := e.get("/leads/export?status=enrolled")
	rec.AssertStatus(t, http.StatusOK)

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Leads")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	if rows[1][0] != "Meera" || rows[1][9] != "Asha" {
		t.Errorf("row = %v", rows[1])
	}

	e.get("/leads/export?status=nope").AssertStatus(t, http.StatusBadRequest)
	e.get("/leads/export?agent=zzz").AssertStatus(t, http.StatusBadRequest)
}
