// internal/app/features/dashboard/handler.go
//
// Admin dashboard: review queues for applications, the contact inbox,
// the form editor, hub and content management, and (superadmin only)
// user administration. Route access is enforced by the guard; handlers
// assume an admin session and re-read it only for reviewer identity.
package dashboard

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	uierrors "github.com/junctionhq/junction/internal/app/features/errors"
	"github.com/junctionhq/junction/internal/app/features/shared"
	applicationstore "github.com/junctionhq/junction/internal/app/store/applications"
	contactstore "github.com/junctionhq/junction/internal/app/store/contactmsgs"
	contentstore "github.com/junctionhq/junction/internal/app/store/content"
	formdefstore "github.com/junctionhq/junction/internal/app/store/formdefs"
	formfilestore "github.com/junctionhq/junction/internal/app/store/formfiles"
	hubstore "github.com/junctionhq/junction/internal/app/store/hubs"
	membershipstore "github.com/junctionhq/junction/internal/app/store/memberships"
	reportstore "github.com/junctionhq/junction/internal/app/store/reports"
	userstore "github.com/junctionhq/junction/internal/app/store/users"
	"github.com/junctionhq/junction/internal/app/system/auth"
	"github.com/junctionhq/junction/internal/app/system/mailer"
	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Users        *userstore.Store
	Hubs         *hubstore.Store
	Memberships  *membershipstore.Store
	Applications *applicationstore.Store
	Messages     *contactstore.Store
	Defs         *formdefstore.Store
	Files        *formfilestore.Store
	Content      *contentstore.Store
	Reports      *reportstore.Store

	Mail     mailer.Sender
	SiteName string
	BaseURL  string

	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

type overviewData struct {
	shared.BaseVM
	PendingMembership int64
	PendingHub        int64
	PendingReports    int64
	UnreadMessages    int64
}

// reviewerID resolves the signed-in admin for audit fields.
func reviewerID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
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

// ServeOverview handles GET /dashboard.
func (h *Handler) ServeOverview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	data := overviewData{BaseVM: shared.Base(w, r, "Dashboard")}

	var err error
	if data.PendingMembership, err = h.Applications.PendingCount(ctx, "membership"); err != nil {
		h.Log.Warn("pending membership count failed", zap.Error(err))
	}
	if data.PendingHub, err = h.Applications.PendingCount(ctx, "hub"); err != nil {
		h.Log.Warn("pending hub count failed", zap.Error(err))
	}
	if data.PendingReports, err = h.Reports.PendingCount(ctx); err != nil {
		h.Log.Warn("pending report count failed", zap.Error(err))
	}
	if data.UnreadMessages, err = h.Messages.UnreadCount(ctx); err != nil {
		h.Log.Warn("unread message count failed", zap.Error(err))
	}

	templates.Render(w, r, "dashboard_overview", data)
}
