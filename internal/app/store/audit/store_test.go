package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/leadhub/internal/app/store/audit"
	"github.com/dalemusser/leadhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// seed writes a small upload-day history: an admin signs in, uploads a
// sheet, deletes an agent, and two strangers fail to sign in.
func seed(t *testing.T, store *audit.Store, admin, agent primitive.ObjectID, day time.Time) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	events := []audit.Event{
		{Timestamp: day.Add(8 * time.Hour), Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, UserID: &admin, Success: true},
		{Timestamp: day.Add(9 * time.Hour), Category: audit.CategoryLeads, EventType: audit.EventLeadsUploaded, ActorID: &admin, Success: true,
			Details: map[string]string{"inserted": "7", "duplicates": "3"}},
		{Timestamp: day.Add(10 * time.Hour), Category: audit.CategoryAdmin, EventType: audit.EventAgentDeleted, ActorID: &admin, UserID: &agent, Success: true},
		{Timestamp: day.Add(11 * time.Hour), Category: audit.CategoryAuth, EventType: audit.EventLoginFailedWrongPassword, UserID: &agent, FailureReason: "wrong password"},
		{Timestamp: day.Add(12 * time.Hour), Category: audit.CategoryAuth, EventType: audit.EventLoginFailedUserNotFound, FailureReason: "user not found",
			Details: map[string]string{"attempted_email": "ghost@example.com"}},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log(%s): %v", e.EventType, err)
		}
	}
}

func TestStore_Log_FillsIDAndTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	before := time.Now().Add(-time.Second)
	if err := store.Log(ctx, audit.Event{Category: audit.CategoryLeads, EventType: audit.EventLeadsExported, Success: true}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	got, err := store.Query(ctx, audit.QueryFilter{EventType: audit.EventLeadsExported})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("events = %d, want 1", len(got))
	}
	if got[0].ID.IsZero() {
		t.Error("ID not generated")
	}
	if got[0].Timestamp.Before(before) {
		t.Errorf("Timestamp = %v, want after %v", got[0].Timestamp, before)
	}
}

func TestStore_QueryAndCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin, agent := primitive.NewObjectID(), primitive.NewObjectID()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	seed(t, store, admin, agent, day)

	after := func(h int) *time.Time { v := day.Add(time.Duration(h) * time.Hour); return &v }

	tests := []struct {
		name      string
		filter    audit.QueryFilter
		wantTypes []string
	}{
		{"all newest first", audit.QueryFilter{}, []string{
			audit.EventLoginFailedUserNotFound, audit.EventLoginFailedWrongPassword,
			audit.EventAgentDeleted, audit.EventLeadsUploaded, audit.EventLoginSuccess,
		}},
		{"category", audit.QueryFilter{Category: audit.CategoryAuth}, []string{
			audit.EventLoginFailedUserNotFound, audit.EventLoginFailedWrongPassword, audit.EventLoginSuccess,
		}},
		{"actor", audit.QueryFilter{ActorID: &admin}, []string{
			audit.EventAgentDeleted, audit.EventLeadsUploaded,
		}},
		{"affected user", audit.QueryFilter{UserID: &agent}, []string{
			audit.EventLoginFailedWrongPassword, audit.EventAgentDeleted,
		}},
		{"event types", audit.QueryFilter{EventTypes: []string{audit.EventLoginSuccess, audit.EventAgentDeleted}}, []string{
			audit.EventAgentDeleted, audit.EventLoginSuccess,
		}},
		{"event type wins over list", audit.QueryFilter{EventType: audit.EventLeadsUploaded, EventTypes: []string{audit.EventLoginSuccess}}, []string{
			audit.EventLeadsUploaded,
		}},
		{"time window", audit.QueryFilter{StartTime: after(9), EndTime: after(10)}, []string{
			audit.EventAgentDeleted, audit.EventLeadsUploaded,
		}},
		{"offset and limit", audit.QueryFilter{Offset: 1, Limit: 2}, []string{
			audit.EventLoginFailedWrongPassword, audit.EventAgentDeleted,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(got) != len(tt.wantTypes) {
				t.Fatalf("events = %d, want %d", len(got), len(tt.wantTypes))
			}
			for i, e := range got {
				if e.EventType != tt.wantTypes[i] {
					t.Errorf("event[%d] = %s, want %s", i, e.EventType, tt.wantTypes[i])
				}
			}

			unpaged := tt.filter
			unpaged.Limit, unpaged.Offset = 0, 0
			n, err := store.CountByFilter(ctx, unpaged)
			if err != nil {
				t.Fatalf("CountByFilter: %v", err)
			}
			if tt.name != "offset and limit" && n != int64(len(tt.wantTypes)) {
				t.Errorf("count = %d, want %d", n, len(tt.wantTypes))
			}
		})
	}
}

func TestStore_FailedLogins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin, agent := primitive.NewObjectID(), primitive.NewObjectID()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	seed(t, store, admin, agent, day)

	got, err := store.FailedLogins(ctx, day, 10)
	if err != nil {
		t.Fatalf("FailedLogins: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("failed logins = %d, want 2", len(got))
	}
	if got[0].Details["attempted_email"] != "ghost@example.com" {
		t.Errorf("newest failure = %+v", got[0])
	}
	for _, e := range got {
		if e.Success || e.Category != audit.CategoryAuth {
			t.Errorf("unexpected event %+v", e)
		}
	}

	later, err := store.FailedLogins(ctx, day.Add(11*time.Hour+30*time.Minute), 10)
	if err != nil {
		t.Fatalf("FailedLogins: %v", err)
	}
	if len(later) != 1 || later[0].EventType != audit.EventLoginFailedUserNotFound {
		t.Errorf("failures after 11:30 = %+v", later)
	}

	none, err := store.FailedLogins(ctx, day.Add(24*time.Hour), 10)
	if err != nil {
		t.Fatalf("FailedLogins: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("failures next day = %d, want 0", len(none))
	}
}
