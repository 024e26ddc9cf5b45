// internal/app/features/leads/edit.go
package leads

import (
	"net/http"

	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/features/shared/apierr"
	"github.com/dalemusser/leadhub/internal/app/leadops/ledger"
	"github.com/dalemusser/leadhub/internal/app/store/audit"
	"github.com/dalemusser/leadhub/internal/app/system/authz"
	"github.com/dalemusser/leadhub/internal/app/system/reqval"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type createRequest struct {
	ledger.Fields
	AssignedTo string `json:"assigned_to" validate:"required"`
	Status     string `json:"status"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type transferRequest struct {
	AgentID string `json:"agent_id" validate:"required"`
}

type changeResponse struct {
	Changed bool         `json:"changed"`
	Lead    *models.Lead `json:"lead,omitempty"`
	Message string       `json:"message"`
}

// target reads the caller and the {id} URL parameter, then decodes the
// JSON body into dst when dst is non-nil.
func target(w http.ResponseWriter, r *http.Request, dst any) (models.UpdatedBy, primitive.ObjectID, bool) {
	by, ok := authz.Actor(r)
	if !ok {
		uierrors.Unauthorized(w)
		return by, primitive.NilObjectID, false
	}
	id, ok := apierr.ObjectIDParam(w, r, "id")
	if !ok {
		return by, id, false
	}
	if dst != nil {
		if err := reqval.Decode(r, dst); err != nil {
			uierrors.BadRequest(w, err.Error())
			return by, id, false
		}
	}
	return by, id, true
}

// HandleCreate handles POST /leads (admin).
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
	agent, err := primitive.ObjectIDFromHex(req.AssignedTo)
	if err != nil {
		uierrors.BadRequest(w, "invalid assigned_to")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create lead")
	defer cancel()

	lead, err := h.Ledger.Create(ctx, ledger.NewLead{Fields: req.Fields, AssignedTo: agent, Status: req.Status}, by)
	if err != nil {
		apierr.Write(w, r, h.ErrLog, "create lead", err)
		return
	}
	uierrors.JSON(w, http.StatusCreated, lead)
}

// HandleUpdate handles PATCH /leads/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req ledger.Fields
	by, id, ok := target(w, r, &req)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update lead")
	defer cancel()

	if err := h.Ledger.UpdateFields(ctx, id, req, by); err != nil {
		apierr.Write(w, r, h.ErrLog, "update lead", err)
		return
	}
	h.respondLead(w, r, id, by, true, "Lead updated.")
}

// HandleStatus handles POST /leads/{id}/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	by, id, ok := target(w, r, &req)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "set lead status")
	defer cancel()

	changed, err := h.Ledger.SetStatus(ctx, id, req.Status, by)
	if err != nil {
		apierr.Write(w, r, h.ErrLog, "set lead status", err)
		return
	}
	msg := "Status updated."
	if !changed {
		msg = "Lead already has this status."
	}
	h.respondLead(w, r, id, by, changed, msg)
}

// HandleTransfer handles POST /leads/{id}/transfer (admin).
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	by, id, ok := target(w, r, &req)
	if !ok {
		return
	}
	agent, err := primitive.ObjectIDFromHex(req.AgentID)
	if err != nil {
		uierrors.BadRequest(w, ledger.ErrInvalidAgent.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "transfer lead")
	defer cancel()

	changed, err := h.Ledger.Transfer(ctx, id, agent, by)
	if err != nil {
		apierr.Write(w, r, h.ErrLog, "transfer lead", err)
		return
	}
	msg := "Lead transferred."
	if !changed {
		msg = "Lead is already assigned to this agent."
	}
	h.respondLead(w, r, id, by, changed, msg)
}

// HandleDelete handles DELETE /leads/{id} (admin).
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	by, id, ok := target(w, r, nil)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete lead")
	defer cancel()

	if err := h.Ledger.Delete(ctx, id); err != nil {
		apierr.Write(w, r, h.ErrLog, "delete lead", err)
		return
	}
	h.AuditLog.LeadsChanged(ctx, r, by.UserID, audit.EventLeadDeleted, map[string]string{"lead_id": id.Hex()})
	uierrors.JSON(w, http.StatusOK, changeResponse{Changed: true, Message: "Lead deleted."})
}

// respondLead reloads the lead after a change so the client gets its
// current history.
func (h *Handler) respondLead(w http.ResponseWriter, r *http.Request, id primitive.ObjectID, by models.UpdatedBy, changed bool, msg string) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "reload lead")
	defer cancel()

	lead, err := h.Ledger.Get(ctx, id, by)
	if err != nil {
		apierr.Write(w, r, h.ErrLog, "reload lead", err)
		return
	}
	uierrors.JSON(w, http.StatusOK, changeResponse{Changed: changed, Lead: lead, Message: msg})
}
