package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// FixturePassword is the plain-text password of every fixture user.
const FixturePassword = "correct-horse-battery"

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user with the given role and FixturePassword.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash fixture password: %v", err)
	}
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     fullName,
		FullNameCI:   text.Fold(fullName),
		Email:        email,
		EmailCI:      text.Fold(email),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateAdmin inserts an admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleAdmin)
}

// CreateAgent inserts a sales agent.
func (f *Fixtures) CreateAgent(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleUser)
}

// CreateLead inserts a Fresh lead assigned to agentID with initialized
// history, as ingestion would produce it.
func (f *Fixtures) CreateLead(ctx context.Context, name, email, contact string, agentID, adminID primitive.ObjectID) models.Lead {
	f.t.Helper()
	return f.CreateLeadWithStatus(ctx, name, email, contact, models.DefaultStatus, agentID, adminID)
}

// CreateLeadWithStatus is CreateLead with an explicit starting status.
func (f *Fixtures) CreateLeadWithStatus(ctx context.Context, name, email, contact, status string, agentID, adminID primitive.ObjectID) models.Lead {
	f.t.Helper()

	now := time.Now().UTC().Truncate(time.Millisecond)
	lead := models.Lead{
		ID:         primitive.NewObjectID(),
		Name:       name,
		Email:      email,
		Contact:    contact,
		City:       models.NotApplicable,
		University: models.NotApplicable,
		Course:     models.NotApplicable,
		Profession: models.NotApplicable,
		Source:     models.NotApplicable,
		Status:     status,
		StatusHistory: []models.StatusEntry{
			{Status: status, ChangedBy: adminID, ChangedAt: now},
		},
		AssignedTo: agentID,
		AssignmentHistory: []models.AssignmentEntry{
			{Action: models.ActionAssigned, ToUser: agentID, ChangedBy: adminID, ChangedAt: now},
		},
		Notes:         []models.Note{},
		CreatedAt:     now,
		UpdatedAt:     now,
		LastUpdatedBy: models.UpdatedBy{UserID: adminID, Role: models.RoleAdmin},
	}
	if _, err := f.db.Collection("leads").InsertOne(ctx, lead); err != nil {
		f.t.Fatalf("failed to create test lead: %v", err)
	}
	return lead
}

// GetLead reloads a lead by ID, failing the test if it is missing.
func (f *Fixtures) GetLead(ctx context.Context, id primitive.ObjectID) models.Lead {
	f.t.Helper()
	var lead models.Lead
	if err := f.db.Collection("leads").FindOne(ctx, map[string]any{"_id": id}).Decode(&lead); err != nil {
		f.t.Fatalf("failed to load lead %s: %v", id.Hex(), err)
	}
	return lead
}
