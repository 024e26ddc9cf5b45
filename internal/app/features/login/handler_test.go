package login_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/features/login"
	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/dalemusser/leadhub/internal/app/system/ratelimit"
	"github.com/dalemusser/leadhub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, limiter *ratelimit.LoginLimiter) (*login.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	handler := login.NewHandler(db, sessionMgr, uierrors.NewErrorLogger(logger), nil, limiter, logger)
	return handler, testutil.NewFixtures(t, db)
}

func post(body string) *http.Request {
	req := httptest.NewRequest("POST", "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandleLogin_Success(t *testing.T) {
	handler, fixtures := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Test Admin", "admin@example.com")

	rec := testutil.NewRecorder()
	handler.HandleLogin(rec, post(`{"email":" Admin@Example.com ","password":"`+testutil.FixturePassword+`"}`))
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		User struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
	}
	rec.DecodeJSON(t, &resp)
	if resp.User.ID != admin.ID.Hex() || resp.User.Role != "admin" {
		t.Errorf("user = %+v", resp.User)
	}

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			found = true
		}
	}
	if !found {
		t.Error("expected session cookie to be set")
	}
}

func TestHandleLogin_BadCredentials(t *testing.T) {
	handler, fixtures := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateAgent(ctx, "Agent", "agent@example.com")

	tests := []struct {
		name string
		body string
		want int
	}{
		{"wrong password", `{"email":"agent@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"unknown email", `{"email":"ghost@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"missing password", `{"email":"agent@example.com"}`, http.StatusBadRequest},
		{"not json", `email=agent@example.com`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			handler.HandleLogin(rec, post(tt.body))
			rec.AssertStatus(t, tt.want)
			if len(rec.Result().Cookies()) != 0 {
				t.Error("no session cookie should be set")
			}
		})
	}
}

func TestHandleLogin_RateLimited(t *testing.T) {
	limiter := ratelimit.NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)
	handler, fixtures := newTestHandler(t, limiter)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateAgent(ctx, "Agent", "agent@example.com")

	for i := 0; i < 2; i++ {
		rec := testutil.NewRecorder()
		handler.HandleLogin(rec, post(`{"email":"agent@example.com","password":"nope"}`))
		rec.AssertStatus(t, http.StatusUnauthorized)
	}
	rec := testutil.NewRecorder()
	handler.HandleLogin(rec, post(`{"email":"agent@example.com","password":"`+testutil.FixturePassword+`"}`))
	rec.AssertStatus(t, http.StatusTooManyRequests)
}
