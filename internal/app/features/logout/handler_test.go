package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/leadhub/internal/app/features/logout"
	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/dalemusser/leadhub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) *logout.Handler {
	t.Helper()
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	// nil audit logger is a no-op
	return logout.NewHandler(sessionMgr, nil, logger)
}

func TestHandleLogout_ClearsSessionCookie(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest("POST", "/logout", nil)
	req = testutil.WithUser(req, testutil.TestUser{ID: "507f1f77bcf86cd799439011", Role: "user"})
	rec := testutil.NewRecorder()

	handler.HandleLogout(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Signed out.")

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			found = true
			if c.MaxAge >= 0 {
				t.Errorf("expected MaxAge < 0 to delete cookie, got %d", c.MaxAge)
			}
		}
	}
	if !found {
		t.Error("expected session cookie to be set for deletion")
	}
}

func TestHandleLogout_WithoutSession(t *testing.T) {
	handler := newTestHandler(t)

	rec := testutil.NewRecorder()
	handler.HandleLogout(rec, httptest.NewRequest("POST", "/logout", nil))
	rec.AssertStatus(t, http.StatusOK)
}
