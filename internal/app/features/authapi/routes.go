// internal/app/features/authapi/routes.go
package authapi

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/set-cookies", h.HandleSetCookies)
	r.Get("/current-user", h.HandleCurrentUser)
	r.Post("/refresh-user-data", h.HandleRefreshUserData)
	r.Get("/get-refresh-token", h.HandleGetRefreshToken)
	r.Get("/get-intended-destination", h.HandleGetIntendedDestination)
	r.Post("/clear-cookies", h.HandleClearCookies)
	return r
}
