package dashboard_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"github.com/junctionhq/junction/internal/app/features/dashboard"
	uierrors "github.com/junctionhq/junction/internal/app/features/errors"
	applicationstore "github.com/junctionhq/junction/internal/app/store/applications"
	contactstore "github.com/junctionhq/junction/internal/app/store/contactmsgs"
	contentstore "github.com/junctionhq/junction/internal/app/store/content"
	formdefstore "github.com/junctionhq/junction/internal/app/store/formdefs"
	formfilestore "github.com/junctionhq/junction/internal/app/store/formfiles"
	hubstore "github.com/junctionhq/junction/internal/app/store/hubs"
	membershipstore "github.com/junctionhq/junction/internal/app/store/memberships"
	reportstore "github.com/junctionhq/junction/internal/app/store/reports"
	userstore "github.com/junctionhq/junction/internal/app/store/users"
	"github.com/junctionhq/junction/internal/app/system/flash"
	"github.com/junctionhq/junction/internal/app/system/mailer"
	"github.com/junctionhq/junction/internal/domain/models"
	"github.com/junctionhq/junction/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// captureSender records every email instead of sending it.
type captureSender struct {
	mu   sync.Mutex
	sent []mailer.Email
}

func (c *captureSender) Send(_ context.Context, e mailer.Email) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, e)
	return nil
}

func (c *captureSender) all() []mailer.Email {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]mailer.Email(nil), c.sent...)
}

type testEnv struct {
	handler     *dashboard.Handler
	users       *userstore.Store
	hubs        *hubstore.Store
	memberships *membershipstore.Store
	apps        *applicationstore.Store
	msgs        *contactstore.Store
	defs        *formdefstore.Store
	reports     *reportstore.Store
	mail        *captureSender
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	local, err := storage.NewLocal(storage.LocalConfig{BasePath: t.TempDir(), BaseURL: "/files"})
	if err != nil {
		t.Fatalf("storage.NewLocal: %v", err)
	}
	if err := flash.Init("0123456789abcdef0123456789abcdef", "", false, logger); err != nil {
		t.Fatalf("flash.Init: %v", err)
	}

	env := &testEnv{
		users:       userstore.New(db),
		hubs:        hubstore.New(db),
		memberships: membershipstore.New(db),
		apps:        applicationstore.New(db),
		msgs:        contactstore.New(db),
		defs:        formdefstore.New(db),
		reports:     reportstore.New(db),
		mail:        &captureSender{},
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := env.defs.EnsureDefaults(ctx); err != nil {
		t.Fatalf("EnsureDefaults: %v", err)
	}

	env.handler = &dashboard.Handler{
		Users:        env.users,
		Hubs:         env.hubs,
		Memberships:  env.memberships,
		Applications: env.apps,
		Messages:     env.msgs,
		Defs:         env.defs,
		Files:        formfilestore.New(db, local),
		Content:      contentstore.New(db),
		Reports:      env.reports,

		Mail:     env.mail,
		SiteName: "Junction",
		BaseURL:  "https://junction.test",

		ErrLog: uierrors.NewErrorLogger(logger),
		Log:    logger,
	}
	return env
}

// withParams attaches chi URL params; review routes carry both kind and id.
func withParams(r *http.Request, pairs ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(pairs); i += 2 {
		rctx.URLParams.Add(pairs[i], pairs[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func adminPost(t *testing.T, fn http.HandlerFunc, target string, form url.Values, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = withParams(req, params...)
	req = testutil.WithUser(req, testutil.AdminSnapshot())
	rec := httptest.NewRecorder()

	// Re-renders panic without the template engine; redirects do not.
	func() {
		defer func() { _ = recover() }()
		fn(rec, req)
	}()
	return rec
}

func pendingMembership(t *testing.T, env *testEnv, email, name string) models.Application {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	app, err := env.apps.Create(ctx, models.Application{
		Kind:      models.FormKindMembership,
		Submitter: models.Submitter{Email: email, FullName: name},
		Answers:   map[string]any{"motivation": "Keen to join."},
	})
	if err != nil {
		t.Fatalf("create application: %v", err)
	}
	return app
}

func TestHandleReview_ApproveMembershipProvisionsAccount(t *testing.T) {
	env := newTestEnv(t)
	app := pendingMembership(t, env, "ada@example.org", "Ada Lovelace")

	rec := adminPost(t, env.handler.HandleReview,
		"/dashboard/applications/membership/"+app.ID.Hex()+"/review",
		url.Values{"verdict": {"approved"}, "notes": {"Welcome aboard"}},
		"kind", "membership", "appID", app.ID.Hex())

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	u, err := env.users.GetByEmail(ctx, "ada@example.org")
	if err != nil {
		t.Fatalf("approved applicant should have an account: %v", err)
	}
	if u.Role != models.RoleMember {
		t.Errorf("role = %q, want member", u.Role)
	}
	if u.AuthMethod != "password" {
		t.Errorf("auth method = %q, want password", u.AuthMethod)
	}
	if u.PasswordHash == "" {
		t.Error("new account should carry a temporary password hash")
	}

	sent := env.mail.all()
	if len(sent) != 1 {
		t.Fatalf("emails sent = %d, want 1", len(sent))
	}
	if sent[0].To != "ada@example.org" {
		t.Errorf("email to = %q", sent[0].To)
	}
	if !strings.Contains(sent[0].Subject, "Welcome") {
		t.Errorf("subject = %q, want welcome email", sent[0].Subject)
	}
	if !strings.Contains(sent[0].TextBody, "Welcome aboard") {
		t.Errorf("welcome email must carry the reviewer notes, got %q", sent[0].TextBody)
	}
	if !strings.Contains(sent[0].HTMLBody, "Welcome aboard") {
		t.Error("welcome email HTML body must carry the reviewer notes")
	}
}

func TestHandleReview_SecondReviewIsRefused(t *testing.T) {
	env := newTestEnv(t)
	app := pendingMembership(t, env, "ada@example.org", "Ada Lovelace")

	review := func(verdict string) *httptest.ResponseRecorder {
		return adminPost(t, env.handler.HandleReview,
			"/dashboard/applications/membership/"+app.ID.Hex()+"/review",
			url.Values{"verdict": {verdict}},
			"kind", "membership", "appID", app.ID.Hex())
	}

	review("approved")
	rec := review("rejected")

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("second review status = %d, want redirect", rec.Code)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	got, err := env.apps.GetByID(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != models.StatusApproved {
		t.Errorf("status = %q, first verdict must stand", got.Status)
	}
	if sent := env.mail.all(); len(sent) != 1 {
		t.Errorf("emails sent = %d, want exactly 1", len(sent))
	}
}

func TestHandleReview_RejectSendsDecisionEmailOnly(t *testing.T) {
	env := newTestEnv(t)
	app := pendingMembership(t, env, "ada@example.org", "Ada Lovelace")

	rec := adminPost(t, env.handler.HandleReview,
		"/dashboard/applications/membership/"+app.ID.Hex()+"/review",
		url.Values{"verdict": {"rejected"}, "notes": {"Not this round."}},
		"kind", "membership", "appID", app.ID.Hex())

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := env.users.GetByEmail(ctx, "ada@example.org"); err == nil {
		t.Error("rejection must not provision an account")
	}

	sent := env.mail.all()
	if len(sent) != 1 {
		t.Fatalf("emails sent = %d, want 1", len(sent))
	}
	if !strings.Contains(sent[0].Subject, "rejected") {
		t.Errorf("subject = %q, want rejection notice", sent[0].Subject)
	}
}

func TestHandleReview_ApproveHubAddsMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	hub, err := env.hubs.Create(ctx, models.Hub{Name: "Berlin", City: "Berlin", Country: "Germany"})
	if err != nil {
		t.Fatalf("create hub: %v", err)
	}
	member, err := env.users.Create(ctx, models.User{
		FullName: "Grace Hopper",
		Email:    "grace@example.org",
		Role:     models.RoleMember,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	app, err := env.apps.Create(ctx, models.Application{
		Kind:  models.FormKindHub,
		HubID: &hub.ID,
		Submitter: models.Submitter{
			UserID:   &member.ID,
			Email:    member.Email,
			FullName: member.FullName,
		},
		Answers: map[string]any{"motivation": "Closest hub to me."},
	})
	if err != nil {
		t.Fatalf("create application: %v", err)
	}

	rec := adminPost(t, env.handler.HandleReview,
		"/dashboard/applications/hub/"+app.ID.Hex()+"/review",
		url.Values{"verdict": {"approved"}},
		"kind", "hub", "appID", app.ID.Hex())

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	rows, err := env.memberships.ListForUser(ctx, member.ID)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("memberships = %d, want 1", len(rows))
	}
	if rows[0].HubID != hub.ID || rows[0].Role != models.HubRoleMember {
		t.Errorf("membership = %+v, want member of %s", rows[0], hub.ID.Hex())
	}

	sent := env.mail.all()
	if len(sent) != 1 {
		t.Fatalf("emails sent = %d, want 1", len(sent))
	}
	if !strings.Contains(sent[0].Subject, "Berlin") {
		t.Errorf("subject = %q, want hub name in decision email", sent[0].Subject)
	}
}

func TestServeMessage_MarksUnreadMessageRead(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	msg, err := env.msgs.Create(ctx, models.ContactMessage{
		Submitter: models.Submitter{Email: "vis@example.org", FullName: "Visitor"},
		Answers:   map[string]any{"message": "Hello"},
	})
	if err != nil {
		t.Fatalf("create message: %v", err)
	}

	req := httptest.NewRequest("GET", "/dashboard/inbox/"+msg.ID.Hex(), nil)
	req = withParams(req, "msgID", msg.ID.Hex())
	req = testutil.WithUser(req, testutil.AdminSnapshot())
	rec := httptest.NewRecorder()
	func() {
		defer func() { _ = recover() }()
		env.handler.ServeMessage(rec, req)
	}()

	got, err := env.msgs.GetByID(ctx, msg.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != models.StatusRead {
		t.Errorf("status = %q, want read after opening", got.Status)
	}
}

func TestHandleFormSave_PersistsNewDefinition(t *testing.T) {
	env := newTestEnv(t)

	fields := `[{"id":"full_name","label":"Full name","type":"text","required":true},` +
		`{"id":"interests","label":"Interests","type":"textarea"}]`
	rec := adminPost(t, env.handler.HandleFormSave,
		"/dashboard/forms/membership",
		url.Values{"fields_json": {fields}},
		"kind", "membership")

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	def, err := env.defs.Get(ctx, models.FormKindMembership)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(def.Fields) != 2 {
		t.Fatalf("fields = %d, want 2", len(def.Fields))
	}
	if def.Fields[1].ID != "interests" {
		t.Errorf("second field = %q, want interests", def.Fields[1].ID)
	}
}

func TestHandleFormSave_InvalidJSONLeavesDefinitionUntouched(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	before, err := env.defs.Get(ctx, models.FormKindMembership)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	rec := adminPost(t, env.handler.HandleFormSave,
		"/dashboard/forms/membership",
		url.Values{"fields_json": {`{"not": "an array"`}},
		"kind", "membership")

	if rec.Code == http.StatusSeeOther {
		t.Fatal("invalid JSON must not redirect as a success")
	}

	after, err := env.defs.Get(ctx, models.FormKindMembership)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(after.Fields) != len(before.Fields) {
		t.Errorf("fields = %d, want unchanged %d", len(after.Fields), len(before.Fields))
	}
}

func TestHandleSetRole_RefusesDemotingLastSuperAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	super, err := env.users.Create(ctx, models.User{
		FullName: "Root Admin",
		Email:    "root@example.org",
		Role:     models.RoleSuperAdmin,
	})
	if err != nil {
		t.Fatalf("create superadmin: %v", err)
	}

	rec := adminPost(t, env.handler.HandleSetRole,
		"/dashboard/system/users/"+super.ID.Hex()+"/role",
		url.Values{"role": {models.RoleMember}},
		"userID", super.ID.Hex())

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want redirect with flash", rec.Code)
	}

	got, err := env.users.GetByID(ctx, super.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Role != models.RoleSuperAdmin {
		t.Errorf("role = %q, last superadmin must keep the role", got.Role)
	}
}

func TestHandleMemberAdd_UnknownEmailDoesNotCreateMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	hub, err := env.hubs.Create(ctx, models.Hub{Name: "Tokyo", City: "Tokyo", Country: "Japan"})
	if err != nil {
		t.Fatalf("create hub: %v", err)
	}

	rec := adminPost(t, env.handler.HandleMemberAdd,
		"/dashboard/hubs/"+hub.ID.Hex()+"/members",
		url.Values{"email": {"nobody@example.org"}, "role": {models.HubRoleMember}},
		"hubID", hub.ID.Hex())

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want redirect with flash", rec.Code)
	}
	if n, err := env.memberships.CountForHub(ctx, hub.ID); err != nil || n != 0 {
		t.Errorf("memberships = %d (err %v), want 0", n, err)
	}
}

func TestHandleMemberAddAndRemove(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	hub, err := env.hubs.Create(ctx, models.Hub{Name: "Lagos", City: "Lagos", Country: "Nigeria"})
	if err != nil {
		t.Fatalf("create hub: %v", err)
	}
	member, err := env.users.Create(ctx, models.User{
		FullName: "Tunde A",
		Email:    "tunde@example.org",
		Role:     models.RoleMember,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	rec := adminPost(t, env.handler.HandleMemberAdd,
		"/dashboard/hubs/"+hub.ID.Hex()+"/members",
		url.Values{"email": {"Tunde@Example.org"}, "role": {models.HubRoleLead}},
		"hubID", hub.ID.Hex())
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("add status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	rows, err := env.memberships.ListForHub(ctx, hub.ID)
	if err != nil {
		t.Fatalf("ListForHub: %v", err)
	}
	if len(rows) != 1 || rows[0].UserID != member.ID || rows[0].Role != models.HubRoleLead {
		t.Fatalf("rows = %+v, want one lead membership for %s", rows, member.ID.Hex())
	}

	rec = adminPost(t, env.handler.HandleMemberRemove,
		"/dashboard/hubs/"+hub.ID.Hex()+"/members/"+member.ID.Hex()+"/remove",
		url.Values{},
		"hubID", hub.ID.Hex(), "userID", member.ID.Hex())
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("remove status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if n, err := env.memberships.CountForHub(ctx, hub.ID); err != nil || n != 0 {
		t.Errorf("memberships = %d (err %v), want 0 after remove", n, err)
	}
}

func pendingReportRequest(t *testing.T, env *testEnv, email string) models.ReportAccessRequest {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req, err := env.reports.Create(ctx, models.ReportAccessRequest{
		ReportID:    primitive.NewObjectID(),
		ReportTitle: "Field Survey 2025",
		Requester:   models.Submitter{FullName: "Ada Lovelace", Email: email},
	})
	if err != nil {
		t.Fatalf("create report request: %v", err)
	}
	return req
}

func TestHandleReportDecision_GrantEmailsAccessLink(t *testing.T) {
	env := newTestEnv(t)
	req := pendingReportRequest(t, env, "ada@example.org")

	rec := adminPost(t, env.handler.HandleReportDecision,
		"/dashboard/reports/"+req.ID.Hex()+"/decision",
		url.Values{"verdict": {"granted"}},
		"reqID", req.ID.Hex())
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	stored, err := env.reports.GetByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != models.StatusGranted || stored.AccessToken == "" {
		t.Fatalf("request = %+v, want granted with token", stored)
	}

	sent := env.mail.all()
	if len(sent) != 1 {
		t.Fatalf("emails sent = %d, want 1", len(sent))
	}
	e := sent[0]
	if e.To != "ada@example.org" {
		t.Errorf("to = %q", e.To)
	}
	if !strings.Contains(e.Subject, "granted") {
		t.Errorf("subject = %q, want grant notice", e.Subject)
	}
	link := "https://junction.test/reports/access/" + stored.AccessToken
	if !strings.Contains(e.TextBody, link) || !strings.Contains(e.HTMLBody, link) {
		t.Errorf("email bodies missing access link %q", link)
	}
	if !strings.Contains(e.TextBody, "30 days") {
		t.Errorf("text body missing expiry notice: %q", e.TextBody)
	}
}

func TestHandleReportDecision_DenyEmailsReason(t *testing.T) {
	env := newTestEnv(t)
	req := pendingReportRequest(t, env, "ada@example.org")

	rec := adminPost(t, env.handler.HandleReportDecision,
		"/dashboard/reports/"+req.ID.Hex()+"/decision",
		url.Values{"verdict": {"denied"}, "reason": {"Members only for now."}},
		"reqID", req.ID.Hex())
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	sent := env.mail.all()
	if len(sent) != 1 {
		t.Fatalf("emails sent = %d, want 1", len(sent))
	}
	e := sent[0]
	if !strings.Contains(e.Subject, "denied") {
		t.Errorf("subject = %q, want denial notice", e.Subject)
	}
	if !strings.Contains(e.TextBody, "Members only for now.") || !strings.Contains(e.HTMLBody, "Members only for now.") {
		t.Error("email bodies missing the denial reason")
	}
	if strings.Contains(e.TextBody, "/reports/access/") {
		t.Error("denial email must not carry an access link")
	}
}

func TestHandleReportDecision_SecondDecisionIsRefused(t *testing.T) {
	env := newTestEnv(t)
	req := pendingReportRequest(t, env, "ada@example.org")

	first := adminPost(t, env.handler.HandleReportDecision,
		"/dashboard/reports/"+req.ID.Hex()+"/decision",
		url.Values{"verdict": {"denied"}, "reason": {"Members only."}},
		"reqID", req.ID.Hex())
	if first.Code != http.StatusSeeOther {
		t.Fatalf("first status = %d, want %d", first.Code, http.StatusSeeOther)
	}

	second := adminPost(t, env.handler.HandleReportDecision,
		"/dashboard/reports/"+req.ID.Hex()+"/decision",
		url.Values{"verdict": {"granted"}},
		"reqID", req.ID.Hex())
	if second.Code != http.StatusSeeOther {
		t.Fatalf("second status = %d, want %d", second.Code, http.StatusSeeOther)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	stored, err := env.reports.GetByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != models.StatusDenied {
		t.Errorf("status = %q, first verdict must stand", stored.Status)
	}
	if sent := env.mail.all(); len(sent) != 1 {
		t.Errorf("emails sent = %d, want 1", len(sent))
	}
}
