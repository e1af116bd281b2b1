// internal/app/features/memberportal/routes.go
package memberportal

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeHome)
	r.Get("/profile", h.ServeProfile)
	r.Post("/profile", h.HandleProfileUpdate)
	return r
}
