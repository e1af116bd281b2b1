// internal/app/features/dashboard/system.go
//
// Superadmin user administration under /dashboard/system. The route
// guard has already required a superadmin session.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/junctionhq/junction/internal/app/features/shared"
	userstore "github.com/junctionhq/junction/internal/app/store/users"
	"github.com/junctionhq/junction/internal/app/system/flash"
	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/junctionhq/junction/internal/app/features/errors"
)

type usersData struct {
	shared.BaseVM
	Users    []models.User
	Query    string
	Page     int64
	NextPage int64
	Total    int64
	HasNext  bool
}

// ServeUsers handles GET /dashboard/system/users, with optional ?q=
// search over name and email.
func (h *Handler) ServeUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	query := r.URL.Query().Get("q")
	page, _ := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	if page < 1 {
		page = 1
	}

	data := usersData{
		BaseVM:   shared.Base(w, r, "Users"),
		Query:    query,
		Page:     page,
		NextPage: page + 1,
	}

	var err error
	if query != "" {
		data.Users, err = h.Users.Search(ctx, query, queuePageSize)
		data.Total = int64(len(data.Users))
	} else {
		data.Users, data.Total, err = h.Users.ListPage(ctx, page, queuePageSize)
		data.HasNext = page*queuePageSize < data.Total
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list users failed", err, "Unable to load users.", "/dashboard")
		return
	}

	templates.Render(w, r, "dashboard_users", data)
}

func (h *Handler) targetUserID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return primitive.NilObjectID, false
	}
	return id, true
}

// HandleSetRole handles POST /dashboard/system/users/{userID}/role.
// Demoting the last superadmin is refused by the store.
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	userID, ok := h.targetUserID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse role form failed", err, "We could not read the form.", "/dashboard/system/users")
		return
	}

	if err := h.Users.SetRole(ctx, userID, r.FormValue("role")); err != nil {
		if errors.Is(err, userstore.ErrLastSuperAdmin) {
			flash.Error(w, r, "Cannot demote the last superadmin.")
		} else {
			flash.Error(w, r, "Could not change role: "+err.Error())
		}
		http.Redirect(w, r, "/dashboard/system/users", http.StatusSeeOther)
		return
	}

	// Role changes must be visible to the user's next authorization
	// decision; their cached snapshot refreshes on next token refresh.
	h.Log.Info("user role changed", zap.String("user_id", userID.Hex()), zap.String("role", r.FormValue("role")))
	flash.Success(w, r, "Role updated.")
	http.Redirect(w, r, "/dashboard/system/users", http.StatusSeeOther)
}

// HandleSetStatus handles POST /dashboard/system/users/{userID}/status.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	userID, ok := h.targetUserID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse status form failed", err, "We could not read the form.", "/dashboard/system/users")
		return
	}

	if err := h.Users.SetStatus(ctx, userID, r.FormValue("status")); err != nil {
		flash.Error(w, r, "Could not change status: "+err.Error())
	} else {
		flash.Success(w, r, "Status updated.")
	}
	http.Redirect(w, r, "/dashboard/system/users", http.StatusSeeOther)
}

// HandleGrantTempAdmin handles POST /dashboard/system/users/{userID}/temp-admin.
func (h *Handler) HandleGrantTempAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	userID, ok := h.targetUserID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse grant form failed", err, "We could not read the form.", "/dashboard/system/users")
		return
	}

	days, err := strconv.Atoi(r.FormValue("days"))
	if err != nil || days < 1 || days > 90 {
		flash.Error(w, r, "Grant length must be between 1 and 90 days.")
		http.Redirect(w, r, "/dashboard/system/users", http.StatusSeeOther)
		return
	}

	until := time.Now().UTC().AddDate(0, 0, days)
	if err := h.Users.GrantTemporaryAdmin(ctx, userID, until); err != nil {
		flash.Error(w, r, "Could not grant temporary admin: "+err.Error())
	} else {
		flash.Success(w, r, "Temporary admin granted until "+until.Format("2 Jan 2006")+".")
	}
	http.Redirect(w, r, "/dashboard/system/users", http.StatusSeeOther)
}

// HandleRevokeTempAdmin handles POST /dashboard/system/users/{userID}/temp-admin/revoke.
func (h *Handler) HandleRevokeTempAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	userID, ok := h.targetUserID(w, r)
	if !ok {
		return
	}
	if err := h.Users.RevokeTemporaryAdmin(ctx, userID); err != nil {
		flash.Error(w, r, "Could not revoke temporary admin: "+err.Error())
	} else {
		flash.Success(w, r, "Temporary admin revoked.")
	}
	http.Redirect(w, r, "/dashboard/system/users", http.StatusSeeOther)
}
