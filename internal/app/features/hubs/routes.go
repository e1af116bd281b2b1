// internal/app/features/hubs/routes.go
package hubs

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Get("/{hubID}", h.ServeDetail)
	return r
}
