// internal/app/features/agents/handler.go
package agents

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/features/shared/apierr"
	agentops "github.com/dalemusser/leadhub/internal/app/leadops/agents"
	"github.com/dalemusser/leadhub/internal/app/system/auditlog"
	"github.com/dalemusser/leadhub/internal/app/system/authz"
	"github.com/dalemusser/leadhub/internal/app/system/normalize"
	"github.com/dalemusser/leadhub/internal/app/system/reqval"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves admin agent management.
type Handler struct {
	Agents   *agentops.Service
	AuditLog *auditlog.Logger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(svc *agentops.Service, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Agents: svc, AuditLog: audit, Log: logger, ErrLog: errLog}
}

type agentJSON struct {
	ID            string `json:"id"`
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	AssignedLeads int64  `json:"assigned_leads"`
}

type createRequest struct {
	FullName string `json:"full_name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// HandleList handles GET /admin/agents.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list agents")
	defer cancel()

	users, err := h.Agents.Users.List(ctx, models.RoleUser)
	if err != nil {
		apierr.Write(w, r, h.ErrLog, "list agents", err)
		return
	}
	counts, err := h.Agents.Leads.CountByAgent(ctx)
	if err != nil {
		apierr.Write(w, r, h.ErrLog, "count leads by agent", err)
		return
	}

	out := make([]agentJSON, 0, len(users))
	for _, u := range users {
		out = append(out, agentJSON{ID: u.ID.Hex(), FullName: u.FullName, Email: u.Email, AssignedLeads: counts[u.ID]})
	}
	uierrors.JSON(w, http.StatusOK, map[string]any{"agents": out})
}

// HandleCreate handles POST /admin/agents.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	by, ok := authz.Actor(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	var req createRequest
	if err := reqval.Decode(r, &req); err != nil {
		uierrors.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create agent")
	defer cancel()

	u, err := h.Agents.Create(ctx, normalize.Name(req.FullName), normalize.Email(req.Email), req.Password)
	if err != nil {
		apierr.Write(w, r, h.ErrLog, "create agent", err)
		return
	}
	h.AuditLog.AgentCreated(ctx, r, by.UserID, u.ID, u.Role)
	uierrors.JSON(w, http.StatusCreated, agentJSON{ID: u.ID.Hex(), FullName: u.FullName, Email: u.Email})
}

// HandleDelete handles DELETE /admin/agents/{id}. An agent with assigned
// leads is kept and the response is 409 with the assigned count.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	by, ok := authz.Actor(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	id, ok := apierr.ObjectIDParam(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete agent")
	defer cancel()

	u, err := h.Agents.Delete(ctx, id)
	if err != nil {
		var assigned *agentops.AssignedError
		if errors.As(err, &assigned) {
			h.AuditLog.AgentDeleteBlocked(ctx, r, by.UserID, id, assigned.Count)
		}
		apierr.Write(w, r, h.ErrLog, "delete agent", err)
		return
	}
	h.AuditLog.AgentDeleted(ctx, r, by.UserID, id, u.Email)
	uierrors.JSON(w, http.StatusOK, map[string]string{"message": "Agent " + u.FullName + " deleted."})
}
