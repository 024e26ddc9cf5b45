// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	userstore "github.com/dalemusser/leadhub/internal/app/store/users"
	"github.com/dalemusser/leadhub/internal/app/system/auditlog"
	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/dalemusser/leadhub/internal/app/system/normalize"
	"github.com/dalemusser/leadhub/internal/app/system/ratelimit"
	"github.com/dalemusser/leadhub/internal/app/system/reqval"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	if limiter == nil {
		limiter = ratelimit.NewLoginLimiter()
	}
	return &Handler{
		Users:      userstore.New(db),
		Log:        logger,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		AuditLog:   audit,
		Limiter:    limiter,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userJSON struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Message string   `json:"message"`
	User    userJSON `json:"user"`
}

// HandleLogin handles POST /login with a JSON {email, password} body.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := reqval.Decode(r, &req); err != nil {
		uierrors.BadRequest(w, err.Error())
		return
	}
	email := normalize.Email(req.Email)

	if ok, reason := h.Limiter.Check(r, email); !ok {
		h.AuditLog.LoginFailedRateLimit(r.Context(), r, email)
		uierrors.Write(w, http.StatusTooManyRequests, reason)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
		uierrors.Write(w, http.StatusUnauthorized, userstore.ErrBadCredentials.Error())
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "login user lookup", err, "Unable to sign in right now.")
		return
	}

	if _, err := h.Users.Authenticate(ctx, email, req.Password); err != nil {
		if errors.Is(err, userstore.ErrBadCredentials) {
			h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, email)
			uierrors.Write(w, http.StatusUnauthorized, userstore.ErrBadCredentials.Error())
			return
		}
		h.ErrLog.LogServerError(w, r, "login authenticate", err, "Unable to sign in right now.")
		return
	}

	su := auth.SessionUser{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email, Role: u.Role}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.ErrLog.LogServerError(w, r, "save session", err, "Unable to create session. Please try again.")
		return
	}
	h.Limiter.ResetEmail(email)
	h.AuditLog.LoginSuccess(ctx, r, u.ID, email)
	h.Log.Info("user signed in", zap.String("user_id", u.ID.Hex()), zap.String("role", u.Role))

	uierrors.JSON(w, http.StatusOK, loginResponse{
		Message: "Signed in.",
		User:    userJSON{ID: u.ID.Hex(), FullName: u.FullName, Email: u.Email, Role: u.Role},
	})
}
