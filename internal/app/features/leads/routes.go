// internal/app/features/leads/routes.go
package leads

import (
	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/dalemusser/leadhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the lead endpoints; typically r.Mount("/leads", leads.Routes(h, sm)).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.HandleList)
	r.Get("/updates", h.HandleUpdates)
	r.Get("/stats", h.HandleStats)
	r.Get("/{id}", h.HandleGet)
	r.Patch("/{id}", h.HandleUpdate)
	r.Post("/{id}/status", h.HandleStatus)
	r.Post("/{id}/notes", h.HandleAddNote)
	r.Delete("/{id}/notes/{noteID}", h.HandleDeleteNote)

	r.Group(func(ar chi.Router) {
		ar.Use(sm.RequireRole(models.RoleAdmin))
		ar.Post("/", h.HandleCreate)
		ar.Post("/{id}/transfer", h.HandleTransfer)
		ar.Delete("/{id}", h.HandleDelete)
	})
	return r
}
