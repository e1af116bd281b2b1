// internal/app/features/apply/routes.go
package apply

import "github.com/go-chi/chi/v5"

// Routes covers the membership application at /apply. The hub
// application routes live under /hubs/{hubID}/apply; see HubRoutes.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeMembershipForm)
	r.Post("/", h.HandleMembershipSubmit)
	return r
}

// HubRoutes is mounted at /hubs/{hubID}/apply; the hubID URL param is
// inherited from the parent route.
func HubRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeHubForm)
	r.Post("/", h.HandleHubSubmit)
	return r
}
