// internal/app/features/signin/routes.go
package signin

import "github.com/go-chi/chi/v5"

// Routes mounts the sign-in form at its root plus the password-reset
// pages, which share this handler.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeSignIn)
	r.Post("/", h.HandleSignIn)
	return r
}

// ResetRoutes covers /forgot-password and /reset-password.
func ResetRoutes(h *Handler) func(r chi.Router) {
	return func(r chi.Router) {
		r.Get("/forgot-password", h.ServeForgotPassword)
		r.Post("/forgot-password", h.HandleForgotPassword)
		r.Get("/reset-password/{token}", h.ServeResetPassword)
		r.Post("/reset-password/{token}", h.HandleResetPassword)
	}
}
