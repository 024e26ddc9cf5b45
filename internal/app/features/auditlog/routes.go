// internal/app/features/auditlog/routes.go
package auditlog

import "github.com/go-chi/chi/v5"

// Routes returns the audit log router. It is mounted inside the admin
// group, which already requires the admin role.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Get("/failed-logins", h.ServeFailedLogins)
	return r
}
