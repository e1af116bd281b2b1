package apply_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/junctionhq/junction/internal/app/features/apply"
	uierrors "github.com/junctionhq/junction/internal/app/features/errors"
	applicationstore "github.com/junctionhq/junction/internal/app/store/applications"
	formdefstore "github.com/junctionhq/junction/internal/app/store/formdefs"
	formfilestore "github.com/junctionhq/junction/internal/app/store/formfiles"
	hubstore "github.com/junctionhq/junction/internal/app/store/hubs"
	"github.com/junctionhq/junction/internal/app/system/auth"
	"github.com/junctionhq/junction/internal/app/system/flash"
	"github.com/junctionhq/junction/internal/domain/models"
	"github.com/junctionhq/junction/internal/testutil"
	"go.uber.org/zap"
)

type testEnv struct {
	handler *apply.Handler
	apps    *applicationstore.Store
	hubs    *hubstore.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	local, err := storage.NewLocal(storage.LocalConfig{BasePath: t.TempDir(), BaseURL: "/files"})
	if err != nil {
		t.Fatalf("storage.NewLocal: %v", err)
	}
	cookies, err := auth.NewCookies("0123456789abcdef0123456789abcdef", "", false, logger)
	if err != nil {
		t.Fatalf("auth.NewCookies: %v", err)
	}
	if err := flash.Init("0123456789abcdef0123456789abcdef", "", false, logger); err != nil {
		t.Fatalf("flash.Init: %v", err)
	}

	defs := formdefstore.New(db)
	apps := applicationstore.New(db)
	hubs := hubstore.New(db)
	files := formfilestore.New(db, local)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := defs.EnsureDefaults(ctx); err != nil {
		t.Fatalf("EnsureDefaults: %v", err)
	}

	h := apply.NewHandler(defs, apps, hubs, files, cookies, uierrors.NewErrorLogger(logger), logger)
	return &testEnv{handler: h, apps: apps, hubs: hubs}
}

func postForm(t *testing.T, fn http.HandlerFunc, target string, form url.Values, snap *models.UserSnapshot) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if snap != nil {
		req = auth.WithTestUser(req, snap)
	}
	rec := httptest.NewRecorder()

	// Re-renders panic without the template engine; redirects do not.
	func() {
		defer func() { _ = recover() }()
		fn(rec, req)
	}()
	return rec
}

func activeHub(t *testing.T, env *testEnv) models.Hub {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	hub, err := env.hubs.Create(ctx, models.Hub{Name: "Zurich", City: "Zurich", Country: "Switzerland"})
	if err != nil {
		t.Fatalf("create hub: %v", err)
	}
	return hub
}

func pendingFor(t *testing.T, env *testEnv, email string) []models.Application {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	list, err := env.apps.ListForSubmitter(ctx, email)
	if err != nil {
		t.Fatalf("ListForSubmitter: %v", err)
	}
	return list
}

func TestHandleMembershipSubmit_StoresPendingApplication(t *testing.T) {
	env := newTestEnv(t)

	rec := postForm(t, env.handler.HandleMembershipSubmit, "/apply", url.Values{
		"full_name":  {"Grace Hopper"},
		"email":      {"Grace@Example.org"},
		"motivation": {"Building a compiler community."},
	}, nil)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	list := pendingFor(t, env, "grace@example.org")
	if len(list) != 1 {
		t.Fatalf("applications = %d, want 1", len(list))
	}
	app := list[0]
	if app.Kind != models.FormKindMembership {
		t.Errorf("kind = %q, want membership", app.Kind)
	}
	if app.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", app.Status)
	}
	if app.Submitter.UserID != nil {
		t.Error("anonymous application should carry no user id")
	}
	if len(app.Snapshot.Fields) == 0 {
		t.Error("definition should be frozen into the application")
	}
}

func TestHandleHubSubmit_RequiresSignIn(t *testing.T) {
	env := newTestEnv(t)
	hub := activeHub(t, env)

	req := httptest.NewRequest("GET", "/hubs/"+hub.ID.Hex()+"/apply", nil)
	req = testutil.WithChiURLParam(req, "hubID", hub.ID.Hex())
	rec := httptest.NewRecorder()
	env.handler.ServeHubForm(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want redirect to signin", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/signin" {
		t.Errorf("redirect = %q, want /signin", loc)
	}
	if !strings.Contains(strings.Join(rec.Header().Values("Set-Cookie"), ";"), "intended_destination") {
		t.Error("intended destination should be stashed before the redirect")
	}
}

func TestHandleHubSubmit_StoresApplicationForMember(t *testing.T) {
	env := newTestEnv(t)
	hub := activeHub(t, env)

	snap := testutil.MemberSnapshot()
	req := httptest.NewRequest("POST", "/hubs/"+hub.ID.Hex()+"/apply",
		strings.NewReader(url.Values{"motivation": {"Closest hub to me."}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = testutil.WithChiURLParam(req, "hubID", hub.ID.Hex())
	req = auth.WithTestUser(req, &snap)
	rec := httptest.NewRecorder()

	func() {
		defer func() { _ = recover() }()
		env.handler.HandleHubSubmit(rec, req)
	}()

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	list := pendingFor(t, env, snap.Email)
	if len(list) != 1 {
		t.Fatalf("applications = %d, want 1", len(list))
	}
	app := list[0]
	if app.Kind != models.FormKindHub {
		t.Errorf("kind = %q, want hub", app.Kind)
	}
	if app.HubID == nil || *app.HubID != hub.ID {
		t.Errorf("hub id = %v, want %s", app.HubID, hub.ID.Hex())
	}
	if app.Submitter.UserID == nil {
		t.Error("hub application should carry the member's user id")
	}
}

func TestHandleHubSubmit_DuplicatePendingRedirectsWithoutSecondRow(t *testing.T) {
	env := newTestEnv(t)
	hub := activeHub(t, env)
	snap := testutil.MemberSnapshot()

	submit := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/hubs/"+hub.ID.Hex()+"/apply",
			strings.NewReader(url.Values{"motivation": {"Closest hub to me."}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req = testutil.WithChiURLParam(req, "hubID", hub.ID.Hex())
		req = auth.WithTestUser(req, &snap)
		rec := httptest.NewRecorder()
		func() {
			defer func() { _ = recover() }()
			env.handler.HandleHubSubmit(rec, req)
		}()
		return rec
	}

	submit()
	rec := submit()

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("second submit status = %d, want redirect", rec.Code)
	}
	if list := pendingFor(t, env, snap.Email); len(list) != 1 {
		t.Fatalf("applications = %d, want 1 after duplicate submit", len(list))
	}
}
