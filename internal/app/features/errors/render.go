// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/junctionhq/junction/internal/app/features/shared"
)

type pageData struct {
	shared.BaseVM
	Message string
	BackURL string
}

// RenderUnauthorized shows a friendly sign-in-required page.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = "/signin"
	}
	w.WriteHeader(http.StatusUnauthorized)
	templates.Render(w, r, "error_page", pageData{
		BaseVM:  shared.Base(w, r, "Sign in required"),
		Message: "Please sign in to continue.",
		BackURL: backURL,
	})
}

// RenderForbidden shows a friendly access-denied page.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if backURL == "" {
		backURL = httpnav.ResolveBackURL(r, "/")
	}
	if msg == "" {
		msg = "You do not have access to that page."
	}
	w.WriteHeader(http.StatusForbidden)
	templates.Render(w, r, "error_page", pageData{
		BaseVM:  shared.Base(w, r, "Access denied"),
		Message: msg,
		BackURL: backURL,
	})
}

// RenderNotFound shows the 404 page.
func RenderNotFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	templates.Render(w, r, "error_page", pageData{
		BaseVM:  shared.Base(w, r, "Not found"),
		Message: "That page does not exist.",
		BackURL: "/",
	})
}

// RenderServerError shows the 500 page with a back link.
func RenderServerError(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if backURL == "" {
		backURL = "/"
	}
	if msg == "" {
		msg = "Something went wrong. Please try again."
	}
	w.WriteHeader(http.StatusInternalServerError)
	renderMessage(w, r, "Something went wrong", msg, backURL)
}

// renderMessage renders the error page without touching the status
// code; callers set it first.
func renderMessage(w http.ResponseWriter, r *http.Request, title, msg, backURL string) {
	templates.Render(w, r, "error_page", pageData{
		BaseVM:  shared.Base(w, r, title),
		Message: msg,
		BackURL: backURL,
	})
}
