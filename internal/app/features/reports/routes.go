// internal/app/features/reports/routes.go
package reports

import "github.com/go-chi/chi/v5"

// MountRoutes registers the report endpoints on the admin router.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/stats", h.ServeStats)
	r.Get("/leads/export", h.ServeExport)
}
