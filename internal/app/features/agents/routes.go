// internal/app/features/agents/routes.go
package agents

import "github.com/go-chi/chi/v5"

// Routes mounts agent management under the admin router.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Delete("/{id}", h.HandleDelete)
	return r
}
