// internal/app/features/reports/stats.go
package reports

import (
	"net/http"

	uierrors "github.com/dalemusser/leadhub/internal/app/features/errors"
	"github.com/dalemusser/leadhub/internal/app/features/shared/apierr"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
)

// ServeStats handles GET /admin/stats. The X-Cache header reports whether
// the view was served from the cache.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin stats")
	defer cancel()

	view, cached, err := h.Stats.Admin(ctx)
	if err != nil {
		apierr.Write(w, r, h.ErrLog, "admin stats", err)
		return
	}
	w.Header().Set("X-Cache", cacheHeader(cached))
	w.Header().Set("Cache-Control", "no-store")
	uierrors.JSON(w, http.StatusOK, view)
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
