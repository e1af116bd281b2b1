package content_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/junctionhq/junction/internal/app/features/content"
	uierrors "github.com/junctionhq/junction/internal/app/features/errors"
	contentstore "github.com/junctionhq/junction/internal/app/store/content"
	reportstore "github.com/junctionhq/junction/internal/app/store/reports"
	"github.com/junctionhq/junction/internal/app/system/flash"
	"github.com/junctionhq/junction/internal/domain/models"
	"github.com/junctionhq/junction/internal/testutil"
	"go.uber.org/zap"
)

type contentEnv struct {
	handler *content.Handler
	content *contentstore.Store
	reports *reportstore.Store
}

func newContentEnv(t *testing.T) *contentEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	if err := flash.Init("0123456789abcdef0123456789abcdef", "", false, logger); err != nil {
		t.Fatalf("flash.Init: %v", err)
	}

	env := &contentEnv{
		content: contentstore.New(db),
		reports: reportstore.New(db),
	}
	env.handler = content.NewHandler(env.content, env.reports, uierrors.NewErrorLogger(logger), logger)
	return env
}

func publishedReport(t *testing.T, env *contentEnv, title string) models.ContentItem {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	item, err := env.content.Create(ctx, models.ContentItem{
		Kind:    models.ContentPublication,
		Title:   title,
		Summary: "Survey of member hubs.",
		Body:    "<p>The full report body.</p>",
	})
	if err != nil {
		t.Fatalf("create publication: %v", err)
	}
	if err := env.content.Publish(ctx, item.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}
	return item
}

func withParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Renders panic without the template engine booted; redirects do not.
func recovered(fn http.HandlerFunc, rec *httptest.ResponseRecorder, req *http.Request) {
	defer func() { _ = recover() }()
	fn(rec, req)
}

func postAccessRequest(t *testing.T, h *content.Handler, slug string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/publications/"+slug+"/request-access", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = withParam(req, "slug", slug)
	rec := httptest.NewRecorder()
	recovered(h.HandleRequestAccess, rec, req)
	return rec
}

func TestHandleRequestAccess_StoresPendingRequest(t *testing.T) {
	env := newContentEnv(t)
	item := publishedReport(t, env, "Field Survey 2025")

	rec := postAccessRequest(t, env.handler, item.Slug, url.Values{
		"full_name": {"Ada Lovelace"},
		"email":     {"ADA@Example.org"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/publications/"+item.Slug {
		t.Errorf("redirect = %q", loc)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	pending, total, err := env.reports.QueuePage(ctx, models.StatusPending, 1, 10)
	if err != nil {
		t.Fatalf("QueuePage: %v", err)
	}
	if total != 1 || len(pending) != 1 {
		t.Fatalf("stored requests = %d, want 1", total)
	}
	req := pending[0]
	if req.ReportID != item.ID || req.ReportTitle != "Field Survey 2025" {
		t.Errorf("request = %+v, want it bound to the publication", req)
	}
	if req.Requester.Email != "ada@example.org" {
		t.Errorf("requester email = %q, want normalized", req.Requester.Email)
	}
}

func TestHandleRequestAccess_RejectsInvalidIdentity(t *testing.T) {
	env := newContentEnv(t)
	item := publishedReport(t, env, "Field Survey 2025")

	for _, form := range []url.Values{
		{"full_name": {""}, "email": {"ada@example.org"}},
		{"full_name": {"Ada"}, "email": {"not-an-email"}},
	} {
		rec := postAccessRequest(t, env.handler, item.Slug, form)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want redirect back to the form", rec.Code)
		}
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if n, err := env.reports.PendingCount(ctx); err != nil || n != 0 {
		t.Errorf("pending = %d (err %v), want 0", n, err)
	}
}

func TestHandleRequestAccess_DuplicatePendingReadsAsSuccess(t *testing.T) {
	env := newContentEnv(t)
	item := publishedReport(t, env, "Field Survey 2025")

	form := url.Values{"full_name": {"Ada Lovelace"}, "email": {"ada@example.org"}}
	for i := 0; i < 2; i++ {
		rec := postAccessRequest(t, env.handler, item.Slug, form)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("attempt %d status = %d, want %d", i+1, rec.Code, http.StatusSeeOther)
		}
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if n, err := env.reports.PendingCount(ctx); err != nil || n != 1 {
		t.Errorf("pending = %d (err %v), want exactly 1", n, err)
	}
}

func TestHandleRequestAccess_UnknownPublication(t *testing.T) {
	env := newContentEnv(t)

	rec := postAccessRequest(t, env.handler, "no-such-report", url.Values{
		"full_name": {"Ada"},
		"email":     {"ada@example.org"},
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestServeReportAccess_BadToken(t *testing.T) {
	env := newContentEnv(t)

	req := httptest.NewRequest("GET", "/reports/access/bogus", nil)
	req = withParam(req, "token", "bogus")
	rec := httptest.NewRecorder()
	recovered(env.handler.ServeReportAccess, rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
