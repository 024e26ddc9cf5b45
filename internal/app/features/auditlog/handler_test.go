package auditlog_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/leadhub/internal/app/features/auditlog"
	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/store/audit"
	"github.com/dalemusser/leadhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type listBody struct {
	Events []struct {
		EventType  string            `json:"event_type"`
		Category   string            `json:"category"`
		ActorName  string            `json:"actor_name"`
		TargetName string            `json:"target_name"`
		Details    map[string]string `json:"details"`
	} `json:"events"`
	Page struct {
		Total int64 `json:"total"`
	} `json:"page"`
}

func setup(t *testing.T) (*auditlog.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	h := auditlog.NewHandler(db, uierrors.NewErrorLogger(logger), logger)
	return h, testutil.NewFixtures(t, db)
}

func TestServeList_FiltersAndNames(t *testing.T) {
	h, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Head Office", "office@example.com")
	agent := fx.CreateAgent(ctx, "Asha Rao", "asha@example.com")

	store := audit.New(fx.DB())
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	events := []audit.Event{
		{Timestamp: base, Category: audit.CategoryAdmin, EventType: audit.EventAgentCreated, ActorID: &admin.ID, UserID: &agent.ID, Success: true},
		{Timestamp: base.Add(time.Hour), Category: audit.CategoryAuth, EventType: audit.EventLoginFailedWrongPassword, UserID: &agent.ID, FailureReason: "wrong password"},
		{Timestamp: base.Add(48 * time.Hour), Category: audit.CategoryLeads, EventType: audit.EventLeadsUploaded, ActorID: &admin.ID, Success: true, Details: map[string]string{"inserted": "2"}},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	tests := []struct {
		name      string
		query     string
		wantTypes []string
	}{
		{"all newest first", "", []string{audit.EventLeadsUploaded, audit.EventLoginFailedWrongPassword, audit.EventAgentCreated}},
		{"by category", "?category=admin", []string{audit.EventAgentCreated}},
		{"by event type", "?event_type=leads_uploaded", []string{audit.EventLeadsUploaded}},
		{"by date range", "?start_date=2026-03-10&end_date=2026-03-10", []string{audit.EventLoginFailedWrongPassword, audit.EventAgentCreated}},
		{"paged", "?limit=1&page=2", []string{audit.EventLoginFailedWrongPassword}},
		{"by affected user", "?user_id=" + agent.ID.Hex(), []string{audit.EventLoginFailedWrongPassword, audit.EventAgentCreated}},
		{"by actor", "?actor_id=" + admin.ID.Hex(), []string{audit.EventLeadsUploaded, audit.EventAgentCreated}},
		{"by actor and category", "?category=leads&actor_id=" + admin.ID.Hex(), []string{audit.EventLeadsUploaded}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeList(rec, httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
			rec.AssertStatus(t, http.StatusOK)

			var body listBody
			rec.DecodeJSON(t, &body)
			if len(body.Events) != len(tt.wantTypes) {
				t.Fatalf("got %d events, want %d", len(body.Events), len(tt.wantTypes))
			}
			for i, want := range tt.wantTypes {
				if body.Events[i].EventType != want {
					t.Errorf("event %d: got %q, want %q", i, body.Events[i].EventType, want)
				}
			}
		})
	}

	rec := testutil.NewRecorder()
	h.ServeList(rec, httptest.NewRequest(http.MethodGet, "/?category=admin", nil))
	var body listBody
	rec.DecodeJSON(t, &body)
	if len(body.Events) != 1 {
		t.Fatalf("got %d admin events, want 1", len(body.Events))
	}
	if body.Events[0].ActorName != "Head Office" || body.Events[0].TargetName != "Asha Rao" {
		t.Errorf("names not resolved: actor=%q target=%q", body.Events[0].ActorName, body.Events[0].TargetName)
	}
	if body.Page.Total != 1 {
		t.Errorf("total: got %d, want 1", body.Page.Total)
	}
}

func TestServeList_BadParams(t *testing.T) {
	h, _ := setup(t)

	for _, q := range []string{
		"?category=security",
		"?category=auth&event_type=leads_uploaded",
		"?start_date=10/03/2026",
		"?end_date=yesterday",
		"?start_date=2026-03-11&end_date=2026-03-10",
		"?user_id=asha",
		"?actor_id=123",
	} {
		t.Run(q, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeList(rec, httptest.NewRequest(http.MethodGet, "/"+q, nil))
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}

func TestServeFailedLogins(t *testing.T) {
	h, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agent := fx.CreateAgent(ctx, "Asha Rao", "asha@example.com")
	now := time.Date(2026, 3, 12, 12, 0, 0, 0, time.UTC)
	h.SetClock(func() time.Time { return now })

	store := audit.New(fx.DB())
	failed := func(ago time.Duration, typ, ip string, details map[string]string, user *primitive.ObjectID) audit.Event {
		return audit.Event{Timestamp: now.Add(-ago), Category: audit.CategoryAuth, EventType: typ, IP: ip, Details: details, UserID: user}
	}
	asAgent := &agent.ID
	events := []audit.Event{
		failed(time.Hour, audit.EventLoginFailedWrongPassword, "10.0.0.5", map[string]string{"email": "asha@example.com"}, asAgent),
		failed(2*time.Hour, audit.EventLoginFailedWrongPassword, "10.0.0.5", map[string]string{"email": "asha@example.com"}, asAgent),
		failed(3*time.Hour, audit.EventLoginFailedUserNotFound, "10.0.0.9", map[string]string{"attempted_email": "Ghost@Example.com"}, nil),
		failed(30*time.Hour, audit.EventLoginFailedRateLimit, "10.0.0.9", map[string]string{"email": "asha@example.com"}, nil),
		{Timestamp: now.Add(-time.Minute), Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, UserID: &agent.ID, Success: true, IP: "10.0.0.5"},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	var body struct {
		Total    int `json:"total"`
		Accounts []struct {
			Email    string `json:"email"`
			Attempts int    `json:"attempts"`
		} `json:"accounts"`
		IPs []struct {
			IP       string `json:"ip"`
			Attempts int    `json:"attempts"`
		} `json:"ips"`
		Events []struct {
			EventType  string `json:"event_type"`
			TargetName string `json:"target_name"`
		} `json:"events"`
	}

	rec := testutil.NewRecorder()
	h.ServeFailedLogins(rec, httptest.NewRequest(http.MethodGet, "/failed-logins", nil))
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &body)

	if body.Total != 3 {
		t.Fatalf("total = %d, want 3 (success and 30h-old failure excluded)", body.Total)
	}
	if len(body.Accounts) != 2 || body.Accounts[0].Email != "asha@example.com" || body.Accounts[0].Attempts != 2 ||
		body.Accounts[1].Email != "ghost@example.com" {
		t.Errorf("accounts = %+v", body.Accounts)
	}
	if len(body.IPs) != 2 || body.IPs[0].IP != "10.0.0.5" || body.IPs[0].Attempts != 2 {
		t.Errorf("ips = %+v", body.IPs)
	}
	if body.Events[0].TargetName != "Asha Rao" {
		t.Errorf("newest failure target = %q", body.Events[0].TargetName)
	}

	rec = testutil.NewRecorder()
	h.ServeFailedLogins(rec, httptest.NewRequest(http.MethodGet, "/failed-logins?hours=48", nil))
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &body)
	if body.Total != 4 || body.Accounts[0].Attempts != 3 {
		t.Errorf("48h window: total=%d accounts=%+v", body.Total, body.Accounts)
	}

	for _, q := range []string{"?hours=0", "?hours=721", "?hours=day"} {
		rec := testutil.NewRecorder()
		h.ServeFailedLogins(rec, httptest.NewRequest(http.MethodGet, "/failed-logins"+q, nil))
		rec.AssertStatus(t, http.StatusBadRequest)
	}
}
