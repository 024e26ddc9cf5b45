// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/system/auth"
)

// Handler tells clients who the current session belongs to.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

type userInfo struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	ID              string `json:"id,omitempty"`
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	Role            string `json:"role,omitempty"`
}

// ServeUserInfo returns the signed-in user's identity and role. An anonymous
// request gets 200 with is_authenticated=false so clients can check sign-in without
// handling a 401.
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.JSON(w, http.StatusOK, userInfo{})
		return
	}
	uierrors.JSON(w, http.StatusOK, userInfo{
		IsAuthenticated: true,
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		Role:            user.Role,
	})
}
