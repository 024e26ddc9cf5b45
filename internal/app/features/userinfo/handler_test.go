package userinfo_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/leadhub/internal/app/features/userinfo"
	"github.com/dalemusser/leadhub/internal/testutil"
	"github.com/go-chi/chi/v5"
)

func newRouter() chi.Router {
	r := chi.NewRouter()
	userinfo.MountRoutes(r, userinfo.NewHandler())
	return r
}

type response struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Role            string `json:"role"`
}

func TestServeUserInfo_Unauthenticated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := testutil.NewRecorder()

	newRouter().ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var got response
	rec.DecodeJSON(t, &got)
	if got.IsAuthenticated {
		t.Error("is_authenticated: got true, want false")
	}
	if got.ID != "" || got.Role != "" {
		t.Errorf("anonymous response leaked identity: %+v", got)
	}
}

func TestServeUserInfo_Authenticated(t *testing.T) {
	user := testutil.TestUser{
		ID:    "64b7f0c2a1b2c3d4e5f60718",
		Name:  "Asha Rao",
		Email: "asha@example.com",
		Role:  "user",
	}
	req := testutil.WithUser(httptest.NewRequest(http.MethodGet, "/me", nil), user)
	rec := testutil.NewRecorder()

	newRouter().ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	var got response
	rec.DecodeJSON(t, &got)

	if !got.IsAuthenticated {
		t.Error("is_authenticated: got false, want true")
	}
	if got.ID != user.ID || got.Name != user.Name || got.Email != user.Email || got.Role != user.Role {
		t.Errorf("got %+v, want %+v", got, user)
	}
}
