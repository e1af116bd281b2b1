// internal/app/features/content/reports.go
package content

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	uierrors "github.com/junctionhq/junction/internal/app/features/errors"
	"github.com/junctionhq/junction/internal/app/features/shared"
	reportstore "github.com/junctionhq/junction/internal/app/store/reports"
	"github.com/junctionhq/junction/internal/app/system/flash"
	"github.com/junctionhq/junction/internal/app/system/formschema"
	"github.com/junctionhq/junction/internal/app/system/normalize"
	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"github.com/junctionhq/junction/internal/domain/models"
)

type accessData struct {
	shared.BaseVM
	Item    models.ContentItem
	Body    template.HTML
	Expires string
}

// HandleRequestAccess handles POST /publications/{slug}/request-access.
// Publications gate their full body behind an access grant; this
// files the pending request an administrator later decides from the
// dashboard.
func (h *Handler) HandleRequestAccess(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	slug := chi.URLParam(r, "slug")
	item, err := h.Content.GetBySlug(ctx, models.ContentPublication, slug)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	detail := "/publications/" + item.Slug

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse report access request failed", err, "We could not read your request.", detail)
		return
	}
	fullName := normalize.Name(r.PostFormValue("full_name"))
	email := normalize.Email(r.PostFormValue("email"))
	if fullName == "" || !formschema.ValidEmail(email) {
		flash.Error(w, r, "Please provide your name and a valid email address.")
		http.Redirect(w, r, detail, http.StatusSeeOther)
		return
	}

	_, err = h.Reports.Create(ctx, models.ReportAccessRequest{
		ReportID:    item.ID,
		ReportTitle: item.Title,
		Requester:   models.Submitter{FullName: fullName, Email: email},
	})
	switch {
	case err == nil, errors.Is(err, reportstore.ErrPendingExists):
		// A repeated request while one is pending reads as success;
		// the requester still gets exactly one decision email.
		flash.Success(w, r, "Request received. We will email you once it has been reviewed.")
		http.Redirect(w, r, detail, http.StatusSeeOther)
	default:
		h.ErrLog.LogServerError(w, r, "store report access request failed", err, "We could not save your request. Please try again.", detail)
	}
}

// ServeReportAccess handles GET /reports/access/{token}, the link a
// grant email carries. Unknown, denied, and expired tokens all render
// the same not-found page.
func (h *Handler) ServeReportAccess(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	token := chi.URLParam(r, "token")
	req, err := h.Reports.GetByAccessToken(ctx, token)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}

	item, err := h.Content.GetByID(ctx, req.ReportID)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}

	expires := ""
	if req.AccessExpiresAt != nil {
		expires = req.AccessExpiresAt.Format("2 January 2006")
	}
	templates.Render(w, r, "report_access", accessData{
		BaseVM:  shared.Base(w, r, item.Title),
		Item:    *item,
		Body:    template.HTML(item.Body),
		Expires: expires,
	})
}
