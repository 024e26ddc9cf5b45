// internal/app/features/leadupload/routes.go
package leadupload

import "github.com/go-chi/chi/v5"

// Routes mounts the upload endpoints. The caller applies the admin role
// check; typically r.Mount("/upload-leads", leadupload.Routes(h)).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleUpload)
	r.Post("/preview", h.HandlePreview)
	return r
}
