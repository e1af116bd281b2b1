// internal/app/features/dashboard/hubsadmin.go
package dashboard

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	uierrors "github.com/junctionhq/junction/internal/app/features/errors"
	"github.com/junctionhq/junction/internal/app/features/shared"
	hubstore "github.com/junctionhq/junction/internal/app/store/hubs"
	membershipstore "github.com/junctionhq/junction/internal/app/store/memberships"
	"github.com/junctionhq/junction/internal/app/system/flash"
	"github.com/junctionhq/junction/internal/app/system/normalize"
	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type hubsAdminData struct {
	shared.BaseVM
	Hubs []models.Hub
}

type memberRow struct {
	User models.User
	Role string
}

type hubAdminData struct {
	shared.BaseVM
	Hub     models.Hub
	Members []memberRow
}

// ServeHubs handles GET /dashboard/hubs.
func (h *Handler) ServeHubs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	hubs, err := h.Hubs.ListAll(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list hubs failed", err, "Unable to load hubs.", "/dashboard")
		return
	}
	templates.Render(w, r, "dashboard_hubs", hubsAdminData{
		BaseVM: shared.Base(w, r, "Hubs"),
		Hubs:   hubs,
	})
}

// HandleHubCreate handles POST /dashboard/hubs.
func (h *Handler) HandleHubCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse hub form failed", err, "We could not read the form.", "/dashboard/hubs")
		return
	}

	_, err := h.Hubs.Create(ctx, models.Hub{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		City:        r.FormValue("city"),
		Country:     r.FormValue("country"),
	})
	if err != nil {
		if errors.Is(err, hubstore.ErrDuplicateName) {
			flash.Error(w, r, "A hub with that name already exists.")
		} else {
			flash.Error(w, r, "The hub could not be created: "+err.Error())
		}
		http.Redirect(w, r, "/dashboard/hubs", http.StatusSeeOther)
		return
	}

	flash.Success(w, r, "Hub created.")
	http.Redirect(w, r, "/dashboard/hubs", http.StatusSeeOther)
}

// ServeHub handles GET /dashboard/hubs/{hubID}.
func (h *Handler) ServeHub(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	hubID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "hubID"))
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	hub, err := h.Hubs.GetByID(ctx, hubID)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}

	memberships, err := h.Memberships.ListForHub(ctx, hubID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list hub members failed", err, "Unable to load the hub.", "/dashboard/hubs")
		return
	}
	rows := make([]memberRow, 0, len(memberships))
	for _, m := range memberships {
		u, err := h.Users.GetByID(ctx, m.UserID)
		if err != nil {
			continue
		}
		rows = append(rows, memberRow{User: *u, Role: m.Role})
	}

	templates.Render(w, r, "dashboard_hub", hubAdminData{
		BaseVM:  shared.Base(w, r, hub.Name),
		Hub:     *hub,
		Members: rows,
	})
}

// HandleHubUpdate handles POST /dashboard/hubs/{hubID}.
func (h *Handler) HandleHubUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	hubID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "hubID"))
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse hub form failed", err, "We could not read the form.", "/dashboard/hubs")
		return
	}

	err = h.Hubs.Update(ctx, hubID, hubstore.Update{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		City:        r.FormValue("city"),
		Country:     r.FormValue("country"),
		Status:      r.FormValue("status"),
	})
	if err != nil {
		flash.Error(w, r, "The hub could not be updated: "+err.Error())
	} else {
		flash.Success(w, r, "Hub updated.")
	}
	http.Redirect(w, r, "/dashboard/hubs/"+hubID.Hex(), http.StatusSeeOther)
}

// HandleMemberAdd handles POST /dashboard/hubs/{hubID}/members: add a
// member by email.
func (h *Handler) HandleMemberAdd(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	hubID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "hubID"))
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse member form failed", err, "We could not read the form.", "/dashboard/hubs")
		return
	}
	back := "/dashboard/hubs/" + hubID.Hex()

	email := normalize.Email(r.FormValue("email"))
	role := r.FormValue("role")
	if role == "" {
		role = models.HubRoleMember
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			flash.Error(w, r, "No account with that email.")
		} else {
			flash.Error(w, r, "Lookup failed: "+err.Error())
		}
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	if err := h.Memberships.Add(ctx, hubID, u.ID, role); err != nil {
		if errors.Is(err, membershipstore.ErrDuplicateMembership) {
			flash.Error(w, r, u.FullName+" is already in this hub.")
		} else {
			flash.Error(w, r, "Could not add member: "+err.Error())
		}
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	flash.Success(w, r, u.FullName+" added to the hub.")
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// HandleMemberRemove handles POST /dashboard/hubs/{hubID}/members/{userID}/remove.
func (h *Handler) HandleMemberRemove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	hubID, err1 := primitive.ObjectIDFromHex(chi.URLParam(r, "hubID"))
	userID, err2 := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err1 != nil || err2 != nil {
		uierrors.RenderNotFound(w, r)
		return
	}

	if err := h.Memberships.Remove(ctx, hubID, userID); err != nil {
		flash.Error(w, r, "Could not remove member: "+err.Error())
	} else {
		flash.Success(w, r, "Member removed.")
	}
	http.Redirect(w, r, "/dashboard/hubs/"+hubID.Hex(), http.StatusSeeOther)
}

// HandleMemberRole handles POST /dashboard/hubs/{hubID}/members/{userID}/role.
func (h *Handler) HandleMemberRole(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	hubID, err1 := primitive.ObjectIDFromHex(chi.URLParam(r, "hubID"))
	userID, err2 := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err1 != nil || err2 != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse role form failed", err, "We could not read the form.", "/dashboard/hubs")
		return
	}

	if err := h.Memberships.SetRole(ctx, hubID, userID, r.FormValue("role")); err != nil {
		flash.Error(w, r, "Could not change role: "+err.Error())
	} else {
		flash.Success(w, r, "Role updated.")
	}
	http.Redirect(w, r, "/dashboard/hubs/"+hubID.Hex(), http.StatusSeeOther)
}
