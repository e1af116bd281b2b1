// internal/app/features/dashboard/contentadmin.go
package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	uierrors "github.com/junctionhq/junction/internal/app/features/errors"
	"github.com/junctionhq/junction/internal/app/features/shared"
	"github.com/junctionhq/junction/internal/app/system/flash"
	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contentListData struct {
	shared.BaseVM
	Kind  string
	Items []models.ContentItem
}

type contentEditData struct {
	shared.BaseVM
	Item         models.ContentItem
	IsNew        bool
	ErrorMessage string
}

func contentKindValid(kind string) bool {
	switch kind {
	case models.ContentEvent, models.ContentProject, models.ContentPublication, models.ContentCareer:
		return true
	}
	return false
}

// ServeContentList handles GET /dashboard/content/{kind}.
func (h *Handler) ServeContentList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	kind := chi.URLParam(r, "kind")
	if !contentKindValid(kind) {
		uierrors.RenderNotFound(w, r)
		return
	}

	items, err := h.Content.ListAll(ctx, kind)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list content failed", err, "Unable to load content.", "/dashboard")
		return
	}
	templates.Render(w, r, "dashboard_content_list", contentListData{
		BaseVM: shared.Base(w, r, "Content"),
		Kind:   kind,
		Items:  items,
	})
}

// ServeContentNew handles GET /dashboard/content/{kind}/new.
func (h *Handler) ServeContentNew(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if !contentKindValid(kind) {
		uierrors.RenderNotFound(w, r)
		return
	}
	templates.Render(w, r, "dashboard_content_edit", contentEditData{
		BaseVM: shared.Base(w, r, "New entry"),
		Item:   models.ContentItem{Kind: kind},
		IsNew:  true,
	})
}

// ServeContentEdit handles GET /dashboard/content/{kind}/{itemID}.
func (h *Handler) ServeContentEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	item, ok := h.contentItem(ctx, w, r)
	if !ok {
		return
	}
	templates.Render(w, r, "dashboard_content_edit", contentEditData{
		BaseVM: shared.Base(w, r, "Edit entry"),
		Item:   *item,
	})
}

func (h *Handler) contentItem(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.ContentItem, bool) {
	itemID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "itemID"))
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return nil, false
	}
	item, err := h.Content.GetByID(ctx, itemID)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return nil, false
	}
	return item, true
}

// itemFromForm reads the shared editable fields. The store sanitizes
// summary and body on write.
func itemFromForm(r *http.Request, kind string) models.ContentItem {
	item := models.ContentItem{
		Kind:     kind,
		Title:    r.FormValue("title"),
		Summary:  r.FormValue("summary"),
		Body:     r.FormValue("body"),
		Location: r.FormValue("location"),
	}
	if raw := r.FormValue("starts_at"); raw != "" {
		if ts, err := time.Parse("2006-01-02T15:04", raw); err == nil {
			item.StartsAt = &ts
		}
	}
	return item
}

// HandleContentCreate handles POST /dashboard/content/{kind}.
func (h *Handler) HandleContentCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	kind := chi.URLParam(r, "kind")
	if !contentKindValid(kind) {
		uierrors.RenderNotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse content form failed", err, "We could not read the form.", "/dashboard/content/"+kind)
		return
	}

	item := itemFromForm(r, kind)
	created, err := h.Content.Create(ctx, item)
	if err != nil {
		templates.Render(w, r, "dashboard_content_edit", contentEditData{
			BaseVM:       shared.Base(w, r, "New entry"),
			Item:         item,
			IsNew:        true,
			ErrorMessage: err.Error(),
		})
		return
	}

	flash.Success(w, r, "Entry created as draft.")
	http.Redirect(w, r, "/dashboard/content/"+kind+"/"+created.ID.Hex(), http.StatusSeeOther)
}

// HandleContentUpdate handles POST /dashboard/content/{kind}/{itemID}.
func (h *Handler) HandleContentUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	kind := chi.URLParam(r, "kind")
	item, ok := h.contentItem(ctx, w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse content form failed", err, "We could not read the form.", "/dashboard/content/"+kind)
		return
	}

	upd := itemFromForm(r, kind)
	if err := h.Content.Update(ctx, item.ID, upd); err != nil {
		flash.Error(w, r, "The entry could not be saved: "+err.Error())
	} else {
		flash.Success(w, r, "Entry saved.")
	}
	http.Redirect(w, r, "/dashboard/content/"+kind+"/"+item.ID.Hex(), http.StatusSeeOther)
}

// HandleContentPublish handles POST /dashboard/content/{kind}/{itemID}/publish.
func (h *Handler) HandleContentPublish(w http.ResponseWriter, r *http.Request) {
	h.contentTransition(w, r, "publish")
}

// HandleContentUnpublish handles POST /dashboard/content/{kind}/{itemID}/unpublish.
func (h *Handler) HandleContentUnpublish(w http.ResponseWriter, r *http.Request) {
	h.contentTransition(w, r, "unpublish")
}

// HandleContentDelete handles POST /dashboard/content/{kind}/{itemID}/delete.
func (h *Handler) HandleContentDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	kind := chi.URLParam(r, "kind")
	item, ok := h.contentItem(ctx, w, r)
	if !ok {
		return
	}
	if err := h.Content.Delete(ctx, item.ID); err != nil {
		flash.Error(w, r, "The entry could not be deleted: "+err.Error())
	} else {
		flash.Success(w, r, "Entry deleted.")
	}
	http.Redirect(w, r, "/dashboard/content/"+kind, http.StatusSeeOther)
}

func (h *Handler) contentTransition(w http.ResponseWriter, r *http.Request, action string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	kind := chi.URLParam(r, "kind")
	item, ok := h.contentItem(ctx, w, r)
	if !ok {
		return
	}

	var err error
	if action == "publish" {
		err = h.Content.Publish(ctx, item.ID)
	} else {
		err = h.Content.Unpublish(ctx, item.ID)
	}
	if err != nil {
		flash.Error(w, r, "The entry could not be "+action+"ed: "+err.Error())
	} else {
		flash.Success(w, r, "Entry "+action+"ed.")
	}
	http.Redirect(w, r, "/dashboard/content/"+kind+"/"+item.ID.Hex(), http.StatusSeeOther)
}
