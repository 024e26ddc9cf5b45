// internal/app/features/bulkleads/routes.go
package bulkleads

import "github.com/go-chi/chi/v5"

// MountRoutes registers the bulk endpoints directly on the admin router so
// their paths stay flat (/admin/bulk-delete-leads and so on).
func MountRoutes(r chi.Router, h *Handler) {
	r.Post("/bulk-delete-leads", h.HandleDelete)
	r.Post("/bulk-update-status", h.HandleStatus)
	r.Post("/bulk-transfer-leads", h.HandleTransfer)
	r.Post("/bulk-distribute-leads", h.HandleDistribute)
	r.Post("/bulk-update-leads", h.HandleUpdate)
}
