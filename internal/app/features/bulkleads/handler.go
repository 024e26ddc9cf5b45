// internal/app/features/bulkleads/handler.go
package bulkleads

import (
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/features/shared/apierr"
	"github.com/dalemusser/leadhub/internal/app/leadops/bulk"
	"github.com/dalemusser/leadhub/internal/app/store/audit"
	"github.com/dalemusser/leadhub/internal/app/system/auditlog"
	"github.com/dalemusser/leadhub/internal/app/system/authz"
	"github.com/dalemusser/leadhub/internal/app/system/reqval"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves the admin bulk lead endpoints.
type Handler struct {
	Engine   *bulk.Engine
	AuditLog *auditlog.Logger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(engine *bulk.Engine, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Engine: engine, AuditLog: audit, Log: logger, ErrLog: errLog}
}

var auditEvents = map[string]string{
	bulk.OpDelete:     audit.EventLeadsBulkDeleted,
	bulk.OpStatus:     audit.EventLeadsBulkStatus,
	bulk.OpTransfer:   audit.EventLeadsBulkTransfer,
	bulk.OpDistribute: audit.EventLeadsDistributed,
	bulk.OpUpdate:     audit.EventLeadsBulkUpdated,
}

type idsRequest struct {
	LeadIDs []string `json:"lead_ids"`
}

type statusRequest struct {
	LeadIDs []string `json:"lead_ids"`
	Status  string   `json:"status" validate:"required"`
}

type transferRequest struct {
	LeadIDs []string `json:"lead_ids"`
	AgentID string   `json:"agent_id" validate:"required"`
}

type distributeRequest struct {
	LeadIDs  []string `json:"lead_ids"`
	AgentIDs []string `json:"agent_ids" validate:"required,min=1"`
	Status   string   `json:"status"`
}

type updateRequest struct {
	LeadIDs []string `json:"lead_ids"`
	Status  string   `json:"status"`
	AgentID string   `json:"agent_id"`
}

// HandleDelete handles POST /admin/bulk-delete-leads.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	by, req, ok := decode[idsRequest](w, r)
	if !ok {
		return
	}
	res, err := h.Engine.Delete(r.Context(), req.LeadIDs)
	h.respond(w, r, by, res, err)
}

// HandleStatus handles POST /admin/bulk-update-status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	by, req, ok := decode[statusRequest](w, r)
	if !ok {
		return
	}
	res, err := h.Engine.UpdateStatus(r.Context(), req.LeadIDs, req.Status, by)
	h.respond(w, r, by, res, err)
}

// HandleTransfer handles POST /admin/bulk-transfer-leads.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	by, req, ok := decode[transferRequest](w, r)
	if !ok {
		return
	}
	res, err := h.Engine.Transfer(r.Context(), req.LeadIDs, req.AgentID, by)
	h.respond(w, r, by, res, err)
}

// HandleDistribute handles POST /admin/bulk-distribute-leads.
func (h *Handler) HandleDistribute(w http.ResponseWriter, r *http.Request) {
	by, req, ok := decode[distributeRequest](w, r)
	if !ok {
		return
	}
	res, err := h.Engine.Distribute(r.Context(), req.LeadIDs, req.AgentIDs, req.Status, by)
	h.respond(w, r, by, res, err)
}

// HandleUpdate handles POST /admin/bulk-update-leads.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	by, req, ok := decode[updateRequest](w, r)
	if !ok {
		return
	}
	res, err := h.Engine.Update(r.Context(), req.LeadIDs, bulk.UpdateRequest{Status: req.Status, AgentID: req.AgentID}, by)
	h.respond(w, r, by, res, err)
}

func decode[T any](w http.ResponseWriter, r *http.Request) (models.UpdatedBy, T, bool) {
	var req T
	by, ok := authz.Actor(r)
	if !ok {
		uierrors.Unauthorized(w)
		return by, req, false
	}
	if err := reqval.Decode(r, &req); err != nil {
		uierrors.BadRequest(w, err.Error())
		return by, req, false
	}
	return by, req, true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, by models.UpdatedBy, res bulk.Result, err error) {
	if err != nil {
		apierr.Write(w, r, h.ErrLog, "bulk lead operation", err)
		return
	}
	details := auditlog.Counts(map[string]int64{
		"requested": int64(res.Requested),
		"modified":  res.Modified,
	})
	details["op"] = res.Op
	if res.ErrorCount > 0 {
		details["errors"] = strconv.Itoa(res.ErrorCount)
	}
	h.AuditLog.LeadsChanged(r.Context(), r, by.UserID, auditEvents[res.Op], details)
	uierrors.JSON(w, http.StatusOK, res)
}
