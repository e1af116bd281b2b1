// internal/app/features/dashboard/forms.go
package dashboard

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	uierrors "github.com/junctionhq/junction/internal/app/features/errors"
	"github.com/junctionhq/junction/internal/app/features/shared"
	"github.com/junctionhq/junction/internal/app/system/flash"
	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"github.com/junctionhq/junction/internal/domain/models"
)

type formEditorData struct {
	shared.BaseVM
	Kind         string
	FieldsJSON   string
	UpdatedAt    string
	ErrorMessage string
}

func formKindValid(kind string) bool {
	return kind == models.FormKindMembership || kind == models.FormKindHub || kind == models.FormKindContact
}

// ServeFormEditor handles GET /dashboard/forms/{kind}. The live
// definition is edited as JSON; the store validates shape on save.
func (h *Handler) ServeFormEditor(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	kind := chi.URLParam(r, "kind")
	if !formKindValid(kind) {
		uierrors.RenderNotFound(w, r)
		return
	}

	def, err := h.Defs.Get(ctx, kind)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load form definition failed", err, "Unable to load the form.", "/dashboard")
		return
	}

	raw, err := json.MarshalIndent(def.Fields, "", "  ")
	if err != nil {
		h.ErrLog.LogServerError(w, r, "encode form fields failed", err, "Unable to load the form.", "/dashboard")
		return
	}

	templates.Render(w, r, "dashboard_form_editor", formEditorData{
		BaseVM:     shared.Base(w, r, "Edit form"),
		Kind:       kind,
		FieldsJSON: string(raw),
		UpdatedAt:  def.UpdatedAt.Format("2 Jan 2006 15:04"),
	})
}

// HandleFormSave handles POST /dashboard/forms/{kind}. Existing
// submissions keep their frozen snapshots; only future renders and
// validations see the new definition.
func (h *Handler) HandleFormSave(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	admin, ok := reviewerID(w, r)
	if !ok {
		return
	}
	kind := chi.URLParam(r, "kind")
	if !formKindValid(kind) {
		uierrors.RenderNotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form editor failed", err, "We could not read the form.", "/dashboard/forms/"+kind)
		return
	}

	raw := r.FormValue("fields_json")
	renderError := func(msg string) {
		templates.Render(w, r, "dashboard_form_editor", formEditorData{
			BaseVM:       shared.Base(w, r, "Edit form"),
			Kind:         kind,
			FieldsJSON:   raw,
			ErrorMessage: msg,
		})
	}

	var fields []models.FormField
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		renderError("Invalid JSON: " + err.Error())
		return
	}

	if _, err := h.Defs.Save(ctx, models.FormDefinition{Kind: kind, Fields: fields}, admin); err != nil {
		renderError("Definition rejected: " + err.Error())
		return
	}

	flash.Success(w, r, "Form definition saved.")
	http.Redirect(w, r, "/dashboard/forms/"+kind, http.StatusSeeOther)
}
