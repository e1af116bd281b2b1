// internal/app/features/contact/handler.go
//
// Public contact form. The form renders from the live contact
// definition, and each submission freezes that definition into the
// stored message so later edits never reinterpret old answers.
package contact

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/templates"
	uierrors "github.com/junctionhq/junction/internal/app/features/errors"
	"github.com/junctionhq/junction/internal/app/features/shared"
	contactstore "github.com/junctionhq/junction/internal/app/store/contactmsgs"
	formdefstore "github.com/junctionhq/junction/internal/app/store/formdefs"
	formfilestore "github.com/junctionhq/junction/internal/app/store/formfiles"
	"github.com/junctionhq/junction/internal/app/system/flash"
	"github.com/junctionhq/junction/internal/app/system/formschema"
	"github.com/junctionhq/junction/internal/app/system/normalize"
	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.uber.org/zap"
)

type pageData struct {
	shared.BaseVM
	Fields []models.FormField
	Errors formschema.FieldErrors
}

type Handler struct {
	Defs     *formdefstore.Store
	Messages *contactstore.Store
	Files    *formfilestore.Store
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(defs *formdefstore.Store, messages *contactstore.Store, files *formfilestore.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Defs: defs, Messages: messages, Files: files, ErrLog: errLog, Log: logger}
}

// ServeForm handles GET /contact.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	def, err := h.Defs.Get(ctx, models.FormKindContact)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load contact form definition failed", err, "The contact form is unavailable right now.", "/")
		return
	}

	templates.Render(w, r, "contact", pageData{
		BaseVM: shared.Base(w, r, "Contact"),
		Fields: def.Fields,
	})
}

// HandleSubmit handles POST /contact.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	def, err := h.Defs.Get(ctx, models.FormKindContact)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load contact form definition failed", err, "The contact form is unavailable right now.", "/")
		return
	}

	answers, uploads, err := shared.CollectSubmission(r, def.Fields)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse contact submission failed", err, "We could not read your submission.", "/contact")
		return
	}

	errs := formschema.ValidateAnswers(def.Fields, answers)
	errs = append(errs, shared.CheckUploads(uploads)...)
	if len(errs) > 0 {
		templates.Render(w, r, "contact", pageData{
			BaseVM: shared.Base(w, r, "Contact"),
			Fields: def.Fields,
			Errors: errs,
		})
		return
	}

	msg, err := h.Messages.Create(ctx, models.ContactMessage{
		Submitter: submitterFromAnswers(answers),
		Answers:   answers,
		Snapshot:  formschema.Snapshot(def, time.Now().UTC()),
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "store contact message failed", err, "We could not save your message. Please try again.", "/contact")
		return
	}

	err = shared.StoreUploads(uploads, func(up shared.Upload, filename, contentType string, size int64, rd io.Reader) error {
		_, uerr := h.Files.Upload(ctx, msg.ID, models.SubmissionTypeContact, up.Field.ID, up.Field.File, filename, contentType, size, rd)
		return uerr
	})
	if err != nil {
		// The message itself is saved; attachments are best effort.
		h.Log.Warn("store contact attachment failed", zap.String("message_id", msg.ID.Hex()), zap.Error(err))
	}

	flash.Success(w, r, "Thanks for getting in touch. We will get back to you soon.")
	http.Redirect(w, r, "/contact", http.StatusSeeOther)
}

// submitterFromAnswers lifts the identity fields of the contact form
// into the submitter record, when the definition carries them.
func submitterFromAnswers(answers map[string]any) models.Submitter {
	sub := models.Submitter{}
	if v, ok := answers["email"].(string); ok {
		sub.Email = normalize.Email(v)
	}
	if v, ok := answers["full_name"].(string); ok {
		sub.FullName = normalize.Name(v)
	}
	return sub
}
