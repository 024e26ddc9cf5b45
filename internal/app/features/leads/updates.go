// internal/app/features/leads/updates.go
package leads

import (
	"net/http"
	"time"

	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/features/shared/apierr"
	leadstore "github.com/dalemusser/leadhub/internal/app/store/leads"
	"github.com/dalemusser/leadhub/internal/app/system/authz"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

type updatesResponse struct {
	Updated    bool       `json:"updated"`
	Count      int64      `json:"count"`
	LatestAt   *time.Time `json:"latest_at,omitempty"`
	ServerTime time.Time  `json:"server_time"`
}

// HandleUpdates handles GET /leads/updates?since=RFC3339. It reports
// whether leads visible to the caller were changed by someone of the other
// role since the given time. Clients poll it and pass server_time back as
// the next since.
func (h *Handler) HandleUpdates(w http.ResponseWriter, r *http.Request) {
	by, ok := authz.Actor(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	now := time.Now().UTC()

	raw := query.Get(r, "since")
	if raw == "" {
		uierrors.JSON(w, http.StatusOK, updatesResponse{ServerTime: now})
		return
	}
	since, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		uierrors.BadRequest(w, "since must be an RFC 3339 time")
		return
	}

	var f leadstore.Filter
	if by.Role != models.RoleAdmin {
		id := by.UserID
		f.AssignedTo = &id
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "lead updates")
	defer cancel()

	n, latest, err := h.Leads.UpdatedSince(ctx, f, since.UTC(), by.Role)
	if err != nil {
		apierr.Write(w, r, h.ErrLog, "lead updates", err)
		return
	}
	resp := updatesResponse{Updated: n > 0, Count: n, ServerTime: now}
	if !latest.IsZero() {
		resp.LatestAt = &latest
	}
	uierrors.JSON(w, http.StatusOK, resp)
}
