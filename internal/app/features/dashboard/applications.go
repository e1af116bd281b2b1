// internal/app/features/dashboard/applications.go
package dashboard

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	uierrors "github.com/junctionhq/junction/internal/app/features/errors"
	"github.com/junctionhq/junction/internal/app/features/shared"
	applicationstore "github.com/junctionhq/junction/internal/app/store/applications"
	membershipstore "github.com/junctionhq/junction/internal/app/store/memberships"
	userstore "github.com/junctionhq/junction/internal/app/store/users"
	"github.com/junctionhq/junction/internal/app/system/flash"
	"github.com/junctionhq/junction/internal/app/system/htmlsanitize"
	"github.com/junctionhq/junction/internal/app/system/mailer"
	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const queuePageSize = 25

type queueData struct {
	shared.BaseVM
	Kind         string
	Status       string
	Applications []models.Application
	Page         int64
	NextPage     int64
	Total        int64
	HasNext      bool
}

type applicationData struct {
	shared.BaseVM
	Application models.Application
	HubName     string
	Files       []models.FormFile
}

// ServeQueue handles GET /dashboard/applications/{kind}.
func (h *Handler) ServeQueue(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	kind := chi.URLParam(r, "kind")
	if kind != models.FormKindMembership && kind != models.FormKindHub {
		uierrors.RenderNotFound(w, r)
		return
	}
	status := r.URL.Query().Get("status")
	page, _ := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	if page < 1 {
		page = 1
	}

	apps, total, err := h.Applications.QueuePage(ctx, kind, status, page, queuePageSize)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list applications failed", err, "Unable to load the queue.", "/dashboard")
		return
	}

	templates.Render(w, r, "dashboard_queue", queueData{
		BaseVM:       shared.Base(w, r, "Applications"),
		Kind:         kind,
		Status:       status,
		Applications: apps,
		Page:         page,
		NextPage:     page + 1,
		Total:        total,
		HasNext:      page*queuePageSize < total,
	})
}

// ServeApplication handles GET /dashboard/applications/{kind}/{appID}.
func (h *Handler) ServeApplication(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	appID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "appID"))
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	app, err := h.Applications.GetByID(ctx, appID)
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}

	data := applicationData{
		BaseVM:      shared.Base(w, r, "Application"),
		Application: *app,
	}
	if app.HubID != nil {
		if hub, err := h.Hubs.GetByID(ctx, *app.HubID); err == nil {
			data.HubName = hub.Name
		}
	}
	files, err := h.Files.ListForSubmission(ctx, app.ID, submissionTypeFor(app.Kind))
	if err != nil {
		h.Log.Warn("list application files failed", zap.Error(err))
	}
	data.Files = files

	templates.Render(w, r, "dashboard_application", data)
}

func submissionTypeFor(kind string) string {
	if kind == models.FormKindHub {
		return models.SubmissionTypeHub
	}
	return models.SubmissionTypeMembership
}

// HandleReview handles POST /dashboard/applications/{kind}/{appID}/review.
//
// The store transition is the gate for side effects: account creation,
// hub membership, and the decision email run only after the one legal
// pending -> decided transition succeeds, so none of them can happen
// twice.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	reviewer, ok := reviewerID(w, r)
	if !ok {
		return
	}
	appID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "appID"))
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse review form failed", err, "We could not read the form.", r.URL.Path)
		return
	}

	verdict := r.FormValue("verdict")
	notes := htmlsanitize.Strict(r.FormValue("notes"))
	backURL := "/dashboard/applications/" + chi.URLParam(r, "kind")

	app, err := h.Applications.Review(ctx, appID, reviewer, verdict, notes)
	if err != nil {
		switch {
		case errors.Is(err, applicationstore.ErrAlreadyReviewed):
			flash.Error(w, r, "This application has already been reviewed.")
			http.Redirect(w, r, backURL, http.StatusSeeOther)
		case errors.Is(err, mongo.ErrNoDocuments):
			uierrors.RenderNotFound(w, r)
		default:
			h.ErrLog.LogServerError(w, r, "review transition failed", err, "The review could not be saved.", backURL)
		}
		return
	}

	h.applyDecisionEffects(ctx, app)

	flash.Success(w, r, "Application "+app.Status+".")
	http.Redirect(w, r, backURL, http.StatusSeeOther)
}

// applyDecisionEffects runs the post-transition side effects. All are
// best effort: the decision itself is already durable.
func (h *Handler) applyDecisionEffects(ctx context.Context, app *models.Application) {
	if app.Status == models.StatusApproved {
		switch app.Kind {
		case models.FormKindMembership:
			h.approveMembership(ctx, app)
			return
		case models.FormKindHub:
			h.approveHubMembership(ctx, app)
			return
		}
	}
	subject := "membership"
	if app.Kind == models.FormKindHub {
		subject = "hub membership"
		if app.HubID != nil {
			if hub, err := h.Hubs.GetByID(ctx, *app.HubID); err == nil {
				subject = hub.Name + " membership"
			}
		}
	}
	h.sendDecisionEmail(ctx, app, subject)
}

// approveMembership provisions an account for the applicant when none
// exists and sends the welcome email, with a temporary password for
// new accounts.
func (h *Handler) approveMembership(ctx context.Context, app *models.Application) {
	tempPassword := ""
	_, err := h.Users.GetByEmail(ctx, app.Submitter.Email)
	if err != nil {
		pw, perr := generateTempPassword()
		if perr != nil {
			h.Log.Error("generate temp password failed", zap.Error(perr))
			return
		}
		hash, herr := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		if herr != nil {
			h.Log.Error("hash temp password failed", zap.Error(herr))
			return
		}
		_, cerr := h.Users.Create(ctx, models.User{
			FullName:     app.Submitter.FullName,
			Email:        app.Submitter.Email,
			PasswordHash: string(hash),
			AuthMethod:   "password",
			Role:         models.RoleMember,
		})
		if cerr != nil {
			if errors.Is(cerr, userstore.ErrDuplicateEmail) {
				// Raced with another admin; the account exists now.
				h.Log.Warn("applicant account already created", zap.String("email", app.Submitter.Email))
			} else {
				h.Log.Error("create member account failed", zap.Error(cerr), zap.String("email", app.Submitter.Email))
				return
			}
		} else {
			tempPassword = pw
		}
	}

	if h.Mail == nil {
		return
	}
	e := mailer.BuildWelcomeEmail(mailer.WelcomeData{
		SiteName:     h.SiteName,
		FullName:     app.Submitter.FullName,
		SignInLink:   h.BaseURL + "/signin",
		TempPassword: tempPassword,
		Notes:        app.Notes,
	})
	e.To = app.Submitter.Email
	if err := h.Mail.Send(ctx, e); err != nil {
		h.Log.Error("send welcome email failed", zap.Error(err), zap.String("email", app.Submitter.Email))
	}
}

// approveHubMembership adds the member to the hub and sends the
// decision email.
func (h *Handler) approveHubMembership(ctx context.Context, app *models.Application) {
	subject := "hub membership"
	if app.HubID != nil {
		if hub, err := h.Hubs.GetByID(ctx, *app.HubID); err == nil {
			subject = hub.Name + " membership"
		}
		if app.Submitter.UserID != nil {
			err := h.Memberships.Add(ctx, *app.HubID, *app.Submitter.UserID, models.HubRoleMember)
			if err != nil && !errors.Is(err, membershipstore.ErrDuplicateMembership) {
				h.Log.Error("add hub membership failed", zap.Error(err))
			}
		}
	}
	h.sendDecisionEmail(ctx, app, subject)
}

func (h *Handler) sendDecisionEmail(ctx context.Context, app *models.Application, subject string) {
	if h.Mail == nil {
		return
	}
	e := mailer.BuildDecisionEmail(mailer.DecisionData{
		SiteName: h.SiteName,
		FullName: app.Submitter.FullName,
		Subject:  subject,
		Approved: app.Status == models.StatusApproved,
		Notes:    app.Notes,
	})
	e.To = app.Submitter.Email
	if err := h.Mail.Send(ctx, e); err != nil {
		h.Log.Error("send decision email failed", zap.Error(err), zap.String("email", app.Submitter.Email))
	}
}

func generateTempPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
