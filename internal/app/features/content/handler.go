// internal/app/features/content/handler.go
//
// Public marketing pages for the content collections: events,
// projects, publications, and career postings. Each gets a list page
// and a slug-addressed detail page over the published entries only.
package content

import (
	"context"
	"html/template"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	uierrors "github.com/junctionhq/junction/internal/app/features/errors"
	"github.com/junctionhq/junction/internal/app/features/shared"
	contentstore "github.com/junctionhq/junction/internal/app/store/content"
	reportstore "github.com/junctionhq/junction/internal/app/store/reports"
	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.uber.org/zap"
)

type listData struct {
	shared.BaseVM
	Kind     string
	Heading  string
	BasePath string
	Items    []models.ContentItem
}

type detailData struct {
	shared.BaseVM
	Kind     string
	BasePath string
	Item     models.ContentItem
	Body     template.HTML // sanitized at write time in the store

	// Publications only: the full report sits behind an access grant,
	// so the public detail page shows the summary and a request form.
	RequestAccess bool
}

type Handler struct {
	Content *contentstore.Store
	Reports *reportstore.Store
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(content *contentstore.Store, reports *reportstore.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Content: content, Reports: reports, ErrLog: errLog, Log: logger}
}

// kindMeta maps URL sections to content kinds and page headings.
var kindMeta = map[string]struct {
	kind    string
	heading string
}{
	"events":       {models.ContentEvent, "Events"},
	"projects":     {models.ContentProject, "Projects"},
	"publications": {models.ContentPublication, "Publications"},
	"careers":      {models.ContentCareer, "Careers"},
}

// ServeList handles GET /{section} for the four content sections.
func (h *Handler) ServeList(section string) http.HandlerFunc {
	meta := kindMeta[section]
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()

		items, err := h.Content.ListPublished(ctx, meta.kind, 0)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "list content failed", err, "Unable to load this page.", "/")
			return
		}

		templates.Render(w, r, "content_list", listData{
			BaseVM:   shared.Base(w, r, meta.heading),
			Kind:     meta.kind,
			Heading:  meta.heading,
			BasePath: "/" + section,
			Items:    items,
		})
	}
}

// ServeDetail handles GET /{section}/{slug}.
func (h *Handler) ServeDetail(section string) http.HandlerFunc {
	meta := kindMeta[section]
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()

		slug := chi.URLParam(r, "slug")
		item, err := h.Content.GetBySlug(ctx, meta.kind, slug)
		if err != nil {
			uierrors.RenderNotFound(w, r)
			return
		}

		gated := meta.kind == models.ContentPublication
		body := template.HTML("")
		if !gated {
			body = template.HTML(item.Body)
		}
		templates.Render(w, r, "content_detail", detailData{
			BaseVM:        shared.Base(w, r, item.Title),
			Kind:          meta.kind,
			BasePath:      "/" + section,
			Item:          *item,
			Body:          body,
			RequestAccess: gated,
		})
	}
}
