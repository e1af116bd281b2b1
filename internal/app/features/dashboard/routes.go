// internal/app/features/dashboard/routes.go
package dashboard

import "github.com/go-chi/chi/v5"

// Routes mounts the dashboard at /dashboard. Access classes (admin for
// everything, superadmin for /system) are enforced by the route guard
// upstream.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeOverview)

	r.Route("/applications/{kind}", func(r chi.Router) {
		r.Get("/", h.ServeQueue)
		r.Get("/{appID}", h.ServeApplication)
		r.Post("/{appID}/review", h.HandleReview)
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/", h.ServeReportQueue)
		r.Post("/{reqID}/decision", h.HandleReportDecision)
	})

	r.Route("/inbox", func(r chi.Router) {
		r.Get("/", h.ServeInbox)
		r.Get("/{msgID}", h.ServeMessage)
		r.Post("/{msgID}/status", h.HandleMessageStatus)
	})

	r.Route("/forms/{kind}", func(r chi.Router) {
		r.Get("/", h.ServeFormEditor)
		r.Post("/", h.HandleFormSave)
	})

	r.Route("/hubs", func(r chi.Router) {
		r.Get("/", h.ServeHubs)
		r.Post("/", h.HandleHubCreate)
		r.Route("/{hubID}", func(r chi.Router) {
			r.Get("/", h.ServeHub)
			r.Post("/", h.HandleHubUpdate)
			r.Post("/members", h.HandleMemberAdd)
			r.Post("/members/{userID}/remove", h.HandleMemberRemove)
			r.Post("/members/{userID}/role", h.HandleMemberRole)
		})
	})

	r.Route("/content/{kind}", func(r chi.Router) {
		r.Get("/", h.ServeContentList)
		r.Get("/new", h.ServeContentNew)
		r.Post("/", h.HandleContentCreate)
		r.Route("/{itemID}", func(r chi.Router) {
			r.Get("/", h.ServeContentEdit)
			r.Post("/", h.HandleContentUpdate)
			r.Post("/publish", h.HandleContentPublish)
			r.Post("/unpublish", h.HandleContentUnpublish)
			r.Post("/delete", h.HandleContentDelete)
		})
	})

	r.Get("/files/{fileID}", h.HandleFileDownload)

	r.Route("/system", func(r chi.Router) {
		r.Get("/users", h.ServeUsers)
		r.Post("/users/{userID}/role", h.HandleSetRole)
		r.Post("/users/{userID}/status", h.HandleSetStatus)
		r.Post("/users/{userID}/temp-admin", h.HandleGrantTempAdmin)
		r.Post("/users/{userID}/temp-admin/revoke", h.HandleRevokeTempAdmin)
	})

	return r
}
