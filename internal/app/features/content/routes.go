// internal/app/features/content/routes.go
package content

import "github.com/go-chi/chi/v5"

// Routes serves one content section; mount once per section
// ("events", "projects", "publications", "careers"). Publications
// additionally take access requests for the full report.
func Routes(h *Handler, section string) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList(section))
	r.Get("/{slug}", h.ServeDetail(section))
	if section == "publications" {
		r.Post("/{slug}/request-access", h.HandleRequestAccess)
	}
	return r
}

// AccessRoutes serves the tokenized report links that grant emails
// carry; mount at /reports/access.
func AccessRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{token}", h.ServeReportAccess)
	return r
}
