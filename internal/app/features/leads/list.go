// internal/app/features/leads/list.go
package leads

import (
	"net/http"

	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/features/shared/apierr"
	leadstore "github.com/dalemusser/leadhub/internal/app/store/leads"
	"github.com/dalemusser/leadhub/internal/app/system/authz"
	"github.com/dalemusser/leadhub/internal/app/system/normalize"
	"github.com/dalemusser/leadhub/internal/app/system/paging"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type listResponse struct {
	Leads []models.Lead `json:"leads"`
	Page  paging.Meta   `json:"page"`
}

// filterFor builds the list filter for the caller. Agents are pinned to
// their own leads; admins may narrow by ?agent=. It answers the request
// itself when it returns false.
func filterFor(w http.ResponseWriter, r *http.Request, by models.UpdatedBy) (leadstore.Filter, bool) {
	f := leadstore.Filter{Search: normalize.QueryParam(query.Get(r, "q"))}

	if s := normalize.QueryParam(query.Get(r, "status")); s != "" {
		if f.Status = models.CanonicalStatus(s); f.Status == "" {
			uierrors.BadRequest(w, "invalid status")
			return f, false
		}
	}

	if by.Role != models.RoleAdmin {
		id := by.UserID
		f.AssignedTo = &id
		return f, true
	}
	if a := normalize.AgentFilter(query.Get(r, "agent")); a != "" {
		id, err := primitive.ObjectIDFromHex(a)
		if err != nil {
			uierrors.BadRequest(w, "invalid agent")
			return f, false
		}
		f.AssignedTo = &id
	}
	return f, true
}

// HandleList handles GET /leads.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	by, ok := authz.Actor(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	f, ok := filterFor(w, r, by)
	if !ok {
		return
	}
	p := paging.Parse(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list leads")
	defer cancel()

	leads, total, err := h.Leads.List(ctx, f, leadstore.Page{Skip: p.Skip(), Limit: p.Limit64()})
	if err != nil {
		apierr.Write(w, r, h.ErrLog, "list leads", err)
		return
	}
	uierrors.JSON(w, http.StatusOK, listResponse{Leads: leads, Page: paging.NewMeta(p, total)})
}

// HandleGet handles GET /leads/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	by, ok := authz.Actor(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	id, ok := apierr.ObjectIDParam(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get lead")
	defer cancel()

	lead, err := h.Ledger.Get(ctx, id, by)
	if err != nil {
		apierr.Write(w, r, h.ErrLog, "get lead", err)
		return
	}
	uierrors.JSON(w, http.StatusOK, lead)
}
