// internal/app/features/hubs/handler.go
//
// Public hub directory: the list of active hubs and a detail page per
// hub with its member count and a link into the hub application flow.
package hubs

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	uierrors "github.com/junctionhq/junction/internal/app/features/errors"
	"github.com/junctionhq/junction/internal/app/features/shared"
	hubstore "github.com/junctionhq/junction/internal/app/store/hubs"
	membershipstore "github.com/junctionhq/junction/internal/app/store/memberships"
	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type hubEntry struct {
	Hub     models.Hub
	Members int64
}

type listData struct {
	shared.BaseVM
	Hubs []hubEntry
}

type detailData struct {
	shared.BaseVM
	Hub     models.Hub
	Members int64
}

type Handler struct {
	Hubs        *hubstore.Store
	Memberships *membershipstore.Store
	ErrLog      *uierrors.ErrorLogger
	Log         *zap.Logger
}

func NewHandler(hubs *hubstore.Store, memberships *membershipstore.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Hubs: hubs, Memberships: memberships, ErrLog: errLog, Log: logger}
}

// ServeList handles GET /hubs.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	hubs, err := h.Hubs.ListActive(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list hubs failed", err, "Unable to load the hub directory.", "/")
		return
	}

	entries := make([]hubEntry, 0, len(hubs))
	for _, hub := range hubs {
		n, err := h.Memberships.CountForHub(ctx, hub.ID)
		if err != nil {
			h.Log.Warn("count hub members failed", zap.String("hub_id", hub.ID.Hex()), zap.Error(err))
		}
		entries = append(entries, hubEntry{Hub: hub, Members: n})
	}

	templates.Render(w, r, "hubs_list", listData{
		BaseVM: shared.Base(w, r, "Hubs"),
		Hubs:   entries,
	})
}

// ServeDetail handles GET /hubs/{hubID}.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	hubID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "hubID"))
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}

	hub, err := h.Hubs.GetByID(ctx, hubID)
	if err != nil || hub.Status != "active" {
		uierrors.RenderNotFound(w, r)
		return
	}

	members, err := h.Memberships.CountForHub(ctx, hubID)
	if err != nil {
		h.Log.Warn("count hub members failed", zap.String("hub_id", hubID.Hex()), zap.Error(err))
	}

	templates.Render(w, r, "hub_detail", detailData{
		BaseVM:  shared.Base(w, r, hub.Name),
		Hub:     *hub,
		Members: members,
	})
}
