// internal/app/features/leads/stats.go
package leads

import (
	"net/http"

	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/features/shared/apierr"
	"github.com/dalemusser/leadhub/internal/app/system/authz"
	"github.com/dalemusser/leadhub/internal/app/system/normalize"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleStats handles GET /leads/stats: the caller's own lead counts, or
// for an admin the counts of ?agent=.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	by, ok := authz.Actor(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	agent := by.UserID
	if by.Role == models.RoleAdmin {
		a := normalize.AgentFilter(query.Get(r, "agent"))
		id, err := primitive.ObjectIDFromHex(a)
		if err != nil {
			uierrors.BadRequest(w, "agent is required")
			return
		}
		agent = id
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "agent stats")
	defer cancel()

	view, _, err := h.Stats.Agent(ctx, agent)
	if err != nil {
		apierr.Write(w, r, h.ErrLog, "agent stats", err)
		return
	}
	uierrors.JSON(w, http.StatusOK, view)
}
