// internal/app/features/dashboard/reports.go
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
	reportstore "github.com/junctionhq/junction/internal/app/store/reports"
	"github.com/junctionhq/junction/internal/app/system/flash"
	"github.com/junctionhq/junction/internal/app/system/htmlsanitize"
	"github.com/junctionhq/junction/internal/app/system/mailer"
	"github.com/junctionhq/junction/internal/app/system/timeouts"
	"github.com/junctionhq/junction/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type reportQueueData struct {
	shared.BaseVM
	Status   string
	Requests []models.ReportAccessRequest
	Page     int64
	NextPage int64
	Total    int64
	HasNext  bool
}

// ServeReportQueue handles GET /dashboard/reports.
func (h *Handler) ServeReportQueue(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	status := r.URL.Query().Get("status")
	page, _ := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	if page < 1 {
		page = 1
	}

	reqs, total, err := h.Reports.QueuePage(ctx, status, page, queuePageSize)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list report requests failed", err, "Unable to load the queue.", "/dashboard")
		return
	}

	templates.Render(w, r, "dashboard_reports", reportQueueData{
		BaseVM:   shared.Base(w, r, "Report access"),
		Status:   status,
		Requests: reqs,
		Page:     page,
		NextPage: page + 1,
		Total:    total,
		HasNext:  page*queuePageSize < total,
	})
}

// HandleReportDecision handles POST /dashboard/reports/{reqID}/decision.
//
// Like application review, the store transition gates the email: the
// grant or denial notice goes out once, after the one legal
// pending -> decided transition.
func (h *Handler) HandleReportDecision(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	reviewer, ok := reviewerID(w, r)
	if !ok {
		return
	}
	reqID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "reqID"))
	if err != nil {
		uierrors.RenderNotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse decision form failed", err, "We could not read the form.", "/dashboard/reports")
		return
	}

	verdict := r.FormValue("verdict")
	reason := htmlsanitize.Strict(r.FormValue("reason"))

	req, err := h.Reports.Decide(ctx, reqID, reviewer, verdict, reason)
	if err != nil {
		switch {
		case errors.Is(err, reportstore.ErrAlreadyDecided):
			flash.Error(w, r, "This request has already been decided.")
			http.Redirect(w, r, "/dashboard/reports", http.StatusSeeOther)
		case errors.Is(err, mongo.ErrNoDocuments):
			uierrors.RenderNotFound(w, r)
		default:
			h.ErrLog.LogServerError(w, r, "report decision failed", err, "The decision could not be saved.", "/dashboard/reports")
		}
		return
	}

	h.sendReportAccessEmail(ctx, req)

	flash.Success(w, r, "Access "+req.Status+".")
	http.Redirect(w, r, "/dashboard/reports", http.StatusSeeOther)
}

func (h *Handler) sendReportAccessEmail(ctx context.Context, req *models.ReportAccessRequest) {
	if h.Mail == nil {
		return
	}
	e := mailer.BuildReportAccessEmail(mailer.ReportAccessData{
		SiteName:    h.SiteName,
		FullName:    req.Requester.FullName,
		ReportTitle: req.ReportTitle,
		Granted:     req.Status == models.StatusGranted,
		AccessLink:  h.BaseURL + "/reports/access/" + req.AccessToken,
		ExpiresIn:   "30 days",
		Reason:      req.Reason,
	})
	e.To = req.Requester.Email
	if err := h.Mail.Send(ctx, e); err != nil {
		h.Log.Error("send report access email failed", zap.Error(err), zap.String("email", req.Requester.Email))
	}
}
