package indexes_test

import (
	"context"
	"testing"

	"github.com/dalemusser/leadhub/internal/app/system/indexes"
	"github.com/dalemusser/leadhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, ctx context.Context, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// EnsureAll should succeed on a clean database
	err := indexes.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	expected := map[string][]string{
		"users": {"uniq_users_emailci", "idx_users_role_fullnameci_id"},
		"leads": {
			"idx_leads_email",
			"idx_leads_contact",
			"idx_leads_assignedto_updatedat_id",
			"idx_leads_status_assignedto",
			"idx_leads_updatedat_id",
			"idx_leads_name",
		},
		"uploads":      {"idx_uploads_createdat", "idx_uploads_uploadedby_createdat"},
		"locks":        {"idx_locks_expiresat"},
		"audit_events": {"idx_audit_timestamp", "idx_audit_actor_timestamp"},
	}
	for coll, want := range expected {
		got := indexNames(t, ctx, db, coll)
		for _, name := range want {
			if !got[name] {
				t.Errorf("expected index %q to exist on %s collection", name, coll)
			}
		}
	}
}

func TestEnsureAll_RenamesMismatchedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Same key pattern under a different name must be aligned, not duplicated.
	_, err := db.Collection("leads").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
	})
	if err != nil {
		t.Fatalf("create legacy index: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	names := indexNames(t, ctx, db, "leads")
	if !names["idx_leads_email"] {
		t.Error("expected idx_leads_email after rename")
	}
	if names["email_1"] {
		t.Error("expected legacy email_1 index to be dropped")
	}
}

func TestEnsureAll_UniqueIndexEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err := db.Collection("users").InsertOne(ctx, bson.M{"email": "a@example.com", "email_ci": "a@example.com"})
	if err != nil {
		t.Fatalf("Insert user failed: %v", err)
	}

	// Try to insert another user with the same folded email - should fail
	_, err = db.Collection("users").InsertOne(ctx, bson.M{"email": "A@example.com", "email_ci": "a@example.com"})
	if err == nil {
		t.Error("expected duplicate key error for unique index on users.email_ci")
	}
}

func TestEnsureAll_ReportsDuplicateUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 2; i++ {
		if _, err := db.Collection("users").InsertOne(ctx, bson.M{"email_ci": "dup@example.com"}); err != nil {
			t.Fatalf("seed duplicate user: %v", err)
		}
	}

	if err := indexes.EnsureAll(ctx, db); err == nil {
		t.Error("expected EnsureAll to fail when users.email_ci has duplicates")
	}
}
