// internal/app/features/apply/handler.go
//
// Application flows. Membership applications are open to anonymous
// visitors; hub applications require a signed-in member and are keyed
// to the hub they target. Both render from the live definition of
// their kind and freeze it into the stored application.
package apply

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	uierrors "github.com/junctionhq/junction/internal/app/features/errors"
	"github.com/junctionhq/junction/internal/app/features/shared"
	applicationstore "github.com/junctionhq/junction/internal/app/store/applications"
	formdefstore "github.com/junctionhq/junction/internal/app/store/formdefs"
	formfilestore "github.com/junctionhq/junction/internal/app/store/formfiles"
	hubstore "github.com/junctionhq/junction/internal/app/store/hubs"
	"github.com/junctionhq/junction/internal/app/system/auth"
	"github.com/junctionhq/junction/internal/app/system/flash"
	"github.com/junctionhq/junction/internal/app/system/formschema"
	"github.com/junctionhq/junction/internal/app/system/normalize"
	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type pageData struct {
	shared.BaseVM
	Heading string
	Intro   string
	Action  string
	Fields  []models.FormField
	Errors  formschema.FieldErrors
}

type Handler struct {
	Defs         *formdefstore.Store
	Applications *applicationstore.Store
	Hubs         *hubstore.Store
	Files        *formfilestore.Store
	Cookies      *auth.Cookies
	ErrLog       *uierrors.ErrorLogger
	Log          *zap.Logger
}

func NewHandler(defs *formdefstore.Store, apps *applicationstore.Store, hubs *hubstore.Store, files *formfilestore.Store, cookies *auth.Cookies, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Defs: defs, Applications: apps, Hubs: hubs, Files: files, Cookies: cookies, ErrLog: errLog, Log: logger}
}

// ServeMembershipForm handles GET /apply.
func (h *Handler) ServeMembershipForm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	def, err := h.Defs.Get(ctx, models.FormKindMembership)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load membership form definition failed", err, "Applications are unavailable right now.", "/")
		return
	}

	templates.Render(w, r, "apply", pageData{
		BaseVM:  shared.Base(w, r, "Apply"),
		Heading: "Apply for membership",
		Intro:   "Tell us about yourself. Applications are reviewed by our team.",
		Action:  "/apply",
		Fields:  def.Fields,
	})
}

// HandleMembershipSubmit handles POST /apply.
func (h *Handler) HandleMembershipSubmit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	def, err := h.Defs.Get(ctx, models.FormKindMembership)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load membership form definition failed", err, "Applications are unavailable right now.", "/")
		return
	}

	app := models.Application{Kind: models.FormKindMembership}
	if snap, ok := auth.CurrentUser(r); ok {
		uid, err := primitive.ObjectIDFromHex(snap.ID)
		if err == nil {
			app.Submitter.UserID = &uid
		}
		app.Submitter.Email = snap.Email
		app.Submitter.FullName = snap.FullName
	}

	h.submit(ctx, w, r, def, app, "/apply", pageData{
		BaseVM:  shared.Base(w, r, "Apply"),
		Heading: "Apply for membership",
		Intro:   "Tell us about yourself. Applications are reviewed by our team.",
		Action:  "/apply",
	})
}

// ServeHubForm handles GET /hubs/{hubID}/apply. Signed-in members
// only; visitors are sent through sign-in and return here after.
func (h *Handler) ServeHubForm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	hub, _, ok := h.hubApplyPrereqs(ctx, w, r)
	if !ok {
		return
	}

	def, err := h.Defs.Get(ctx, models.FormKindHub)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load hub form definition failed", err, "Applications are unavailable right now.", "/hubs")
		return
	}

	templates.Render(w, r, "apply", pageData{
		BaseVM:  shared.Base(w, r, "Apply to "+hub.Name),
		Heading: "Apply to join " + hub.Name,
		Intro:   "Your membership profile travels with the application.",
		Action:  "/hubs/" + hub.ID.Hex() + "/apply",
		Fields:  def.Fields,
	})
}

// HandleHubSubmit handles POST /hubs/{hubID}/apply.
func (h *Handler) HandleHubSubmit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	hub, snap, ok := h.hubApplyPrereqs(ctx, w, r)
	if !ok {
		return
	}

	def, err := h.Defs.Get(ctx, models.FormKindHub)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load hub form definition failed", err, "Applications are unavailable right now.", "/hubs")
		return
	}

	uid, err := primitive.ObjectIDFromHex(snap.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "bad user id in snapshot", err, "Please sign in again.", "/signin")
		return
	}

	app := models.Application{
		Kind:  models.FormKindHub,
		HubID: &hub.ID,
		Submitter: models.Submitter{
			UserID:   &uid,
			Email:    snap.Email,
			FullName: snap.FullName,
		},
	}

	h.submit(ctx, w, r, def, app, "/hubs/"+hub.ID.Hex(), pageData{
		BaseVM:  shared.Base(w, r, "Apply to "+hub.Name),
		Heading: "Apply to join " + hub.Name,
		Intro:   "Your membership profile travels with the application.",
		Action:  "/hubs/" + hub.ID.Hex() + "/apply",
	})
}

// hubApplyPrereqs resolves the target hub and requires a signed-in
// user, redirecting through sign-in with the destination stashed.
func (h *Handler) hubApplyPrereqs(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.Hub, *models.UserSnapshot, bool) {
	hubID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "hubID"))
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return nil, nil, false
	}
	hub, err := h.Hubs.GetByID(ctx, hubID)
	if err != nil || hub.Status != "active" {
		uierrors.RenderNotFound(w, r)
		return nil, nil, false
	}

	snap, ok := auth.CurrentUser(r)
	if !ok {
		h.Cookies.StashIntendedDestination(w, r.URL.RequestURI())
		flash.Info(w, r, "Sign in to apply to a hub.")
		http.Redirect(w, r, "/signin", http.StatusSeeOther)
		return nil, nil, false
	}
	return hub, snap, true
}

// submit runs the shared accept pipeline: collect, validate, persist,
// then store file parts. The definition is frozen into the application
// at the moment of acceptance.
func (h *Handler) submit(ctx context.Context, w http.ResponseWriter, r *http.Request, def *models.FormDefinition, app models.Application, successURL string, page pageData) {
	answers, uploads, err := shared.CollectSubmission(r, def.Fields)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse application failed", err, "We could not read your submission.", page.Action)
		return
	}

	errs := formschema.ValidateAnswers(def.Fields, answers)
	errs = append(errs, shared.CheckUploads(uploads)...)
	if len(errs) > 0 {
		page.Fields = def.Fields
		page.Errors = errs
		templates.Render(w, r, "apply", page)
		return
	}

	if app.Submitter.Email == "" {
		if v, ok := answers["email"].(string); ok {
			app.Submitter.Email = normalize.Email(v)
		}
	}
	if app.Submitter.FullName == "" {
		if v, ok := answers["full_name"].(string); ok {
			app.Submitter.FullName = normalize.Name(v)
		}
	}
	app.Answers = answers
	app.Snapshot = formschema.Snapshot(def, time.Now().UTC())

	created, err := h.Applications.Create(ctx, app)
	if err != nil {
		if errors.Is(err, applicationstore.ErrPendingExists) {
			flash.Info(w, r, "You already have an application under review.")
			http.Redirect(w, r, successURL, http.StatusSeeOther)
			return
		}
		h.ErrLog.LogServerError(w, r, "store application failed", err, "We could not save your application. Please try again.", page.Action)
		return
	}

	submissionType := models.SubmissionTypeMembership
	if app.Kind == models.FormKindHub {
		submissionType = models.SubmissionTypeHub
	}
	err = shared.StoreUploads(uploads, func(up shared.Upload, filename, contentType string, size int64, rd io.Reader) error {
		_, uerr := h.Files.Upload(ctx, created.ID, submissionType, up.Field.ID, up.Field.File, filename, contentType, size, rd)
		return uerr
	})
	if err != nil {
		h.Log.Warn("store application attachment failed", zap.String("application_id", created.ID.Hex()), zap.Error(err))
	}

	flash.Success(w, r, "Application received. We will email you once it has been reviewed.")
	http.Redirect(w, r, successURL, http.StatusSeeOther)
}
