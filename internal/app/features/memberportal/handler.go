// internal/app/features/memberportal/handler.go
//
// Member portal: the signed-in member's profile, their hub
// memberships, and the status of their applications. The route guard
// has already ensured a session; handlers re-read it for identity.
package memberportal

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	uierrors "github.com/junctionhq/junction/internal/app/features/errors"
	"github.com/junctionhq/junction/internal/app/features/shared"
	applicationstore "github.com/junctionhq/junction/internal/app/store/applications"
	hubstore "github.com/junctionhq/junction/internal/app/store/hubs"
	membershipstore "github.com/junctionhq/junction/internal/app/store/memberships"
	userstore "github.com/junctionhq/junction/internal/app/store/users"
	"github.com/junctionhq/junction/internal/app/system/auth"
	"github.com/junctionhq/junction/internal/app/system/flash"
	"github.com/junctionhq/junction/internal/app/system/normalize"
	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type hubLine struct {
	Hub  models.Hub
	Role string
}

type homeData struct {
	shared.BaseVM
	User         models.User
	Hubs         []hubLine
	Applications []models.Application
}

type profileData struct {
	shared.BaseVM
	User         models.User
	ErrorMessage string
}

type Handler struct {
	Users        *userstore.Store
	Hubs         *hubstore.Store
	Memberships  *membershipstore.Store
	Applications *applicationstore.Store
	Sessions     *auth.Manager
	ErrLog       *uierrors.ErrorLogger
	Log          *zap.Logger
}

func NewHandler(users *userstore.Store, hubs *hubstore.Store, memberships *membershipstore.Store, apps *applicationstore.Store, sessions *auth.Manager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Hubs: hubs, Memberships: memberships, Applications: apps, Sessions: sessions, ErrLog: errLog, Log: logger}
}

// currentUserID resolves the signed-in member, rendering the
// unauthorized page when the session is unusable.
func currentUserID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	snap, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/signin")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(snap.ID)
	if err != nil {
		uierrors.RenderUnauthorized(w, r, "/signin")
		return primitive.NilObjectID, false
	}
	return id, true
}

// ServeHome handles GET /member-portal.
func (h *Handler) ServeHome(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load member failed", err, "Unable to load your portal.", "/")
		return
	}

	memberships, err := h.Memberships.ListForUser(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list memberships failed", err, "Unable to load your portal.", "/")
		return
	}
	lines := make([]hubLine, 0, len(memberships))
	for _, m := range memberships {
		hub, err := h.Hubs.GetByID(ctx, m.HubID)
		if err != nil {
			// Deleted hub; the membership row is stale.
			continue
		}
		lines = append(lines, hubLine{Hub: *hub, Role: m.Role})
	}

	apps, err := h.Applications.ListForSubmitter(ctx, u.Email)
	if err != nil {
		h.Log.Warn("list member applications failed", zap.Error(err))
	}

	templates.Render(w, r, "memberportal_home", homeData{
		BaseVM:       shared.Base(w, r, "Member portal"),
		User:         *u,
		Hubs:         lines,
		Applications: apps,
	})
}

// ServeProfile handles GET /member-portal/profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load member failed", err, "Unable to load your profile.", "/member-portal")
		return
	}

	templates.Render(w, r, "memberportal_profile", profileData{
		BaseVM: shared.Base(w, r, "Profile"),
		User:   *u,
	})
}

// HandleProfileUpdate handles POST /member-portal/profile. A changed
// identity invalidates the cached snapshot, so the user_data cookie is
// re-written before the redirect.
func (h *Handler) HandleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse profile form failed", err, "We could not read the form.", "/member-portal/profile")
		return
	}

	upd := userstore.ProfileUpdate{
		FullName: normalize.Name(r.FormValue("full_name")),
		Email:    normalize.Email(r.FormValue("email")),
	}

	renderError := func(msg string) {
		u, err := h.Users.GetByID(ctx, userID)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "load member failed", err, "Unable to load your profile.", "/member-portal")
			return
		}
		templates.Render(w, r, "memberportal_profile", profileData{
			BaseVM:       shared.Base(w, r, "Profile"),
			User:         *u,
			ErrorMessage: msg,
		})
	}

	if upd.FullName == "" || upd.Email == "" {
		renderError("Name and email are both required.")
		return
	}

	if err := h.Users.UpdateProfile(ctx, userID, upd); err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			renderError("That email already belongs to another account.")
			return
		}
		h.ErrLog.LogServerError(w, r, "update profile failed", err, "We could not save your profile.", "/member-portal/profile")
		return
	}

	// Refresh the cached snapshot so the next authorization decision
	// and the nav header see the new identity.
	if snap, err := h.Users.Snapshot(ctx, userID); err == nil {
		if err := h.Sessions.Cookies().SetUserData(w, snap); err != nil {
			h.Log.Warn("refresh user_data after profile update failed", zap.Error(err))
		}
	}

	flash.Success(w, r, "Profile updated.")
	http.Redirect(w, r, "/member-portal/profile", http.StatusSeeOther)
}
