// internal/app/features/dashboard/inbox.go
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	uierrors "github.com/junctionhq/junction/internal/app/features/errors"
	"github.com/junctionhq/junction/internal/app/features/shared"
	contactstore "github.com/junctionhq/junction/internal/app/store/contactmsgs"
	"github.com/junctionhq/junction/internal/app/system/flash"
	"github.com/junctionhq/junction/internal/app/system/htmlsanitize"
	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type inboxData struct {
	shared.BaseVM
	Status   string
	Messages []models.ContactMessage
	Page     int64
	NextPage int64
	Total    int64
	HasNext  bool
}

type messageData struct {
	shared.BaseVM
	Message models.ContactMessage
	Files   []models.FormFile
}

// ServeInbox handles GET /dashboard/inbox.
func (h *Handler) ServeInbox(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	status := r.URL.Query().Get("status")
	page, _ := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	if page < 1 {
		page = 1
	}

	msgs, total, err := h.Messages.InboxPage(ctx, status, page, queuePageSize)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list inbox failed", err, "Unable to load the inbox.", "/dashboard")
		return
	}

	templates.Render(w, r, "dashboard_inbox", inboxData{
		BaseVM:   shared.Base(w, r, "Inbox"),
		Status:   status,
		Messages: msgs,
		Page:     page,
		NextPage: page + 1,
		Total:    total,
		HasNext:  page*queuePageSize < total,
	})
}

// ServeMessage handles GET /dashboard/inbox/{msgID}. Opening an unread
// message marks it read.
func (h *Handler) ServeMessage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	admin, ok := reviewerID(w, r)
	if !ok {
		return
	}
	msgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "msgID"))
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	msg, err := h.Messages.GetByID(ctx, msgID)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}

	if msg.Status == models.StatusUnread {
		if err := h.Messages.SetStatus(ctx, msgID, admin, models.StatusRead, msg.Notes); err != nil {
			h.Log.Warn("mark message read failed", zap.Error(err))
		} else {
			msg.Status = models.StatusRead
		}
	}

	files, err := h.Files.ListForSubmission(ctx, msg.ID, models.SubmissionTypeContact)
	if err != nil {
		h.Log.Warn("list message files failed", zap.Error(err))
	}

	templates.Render(w, r, "dashboard_message", messageData{
		BaseVM:  shared.Base(w, r, "Message"),
		Message: *msg,
		Files:   files,
	})
}

// HandleMessageStatus handles POST /dashboard/inbox/{msgID}/status.
func (h *Handler) HandleMessageStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	admin, ok := reviewerID(w, r)
	if !ok {
		return
	}
	msgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "msgID"))
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse status form failed", err, "We could not read the form.", "/dashboard/inbox")
		return
	}

	status := r.FormValue("status")
	notes := htmlsanitize.Strict(r.FormValue("notes"))

	if err := h.Messages.SetStatus(ctx, msgID, admin, status, notes); err != nil {
		if errors.Is(err, contactstore.ErrAlreadyReplied) {
			flash.Error(w, r, "This message has already been replied to.")
			http.Redirect(w, r, "/dashboard/inbox/"+msgID.Hex(), http.StatusSeeOther)
			return
		}
		h.ErrLog.LogServerError(w, r, "set message status failed", err, "The change could not be saved.", "/dashboard/inbox")
		return
	}

	flash.Success(w, r, "Message marked "+status+".")
	http.Redirect(w, r, "/dashboard/inbox/"+msgID.Hex(), http.StatusSeeOther)
}
